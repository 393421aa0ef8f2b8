package models

// Level grades both complaint severity and action item urgency.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Valid reports whether the level is one the backend understands.
func (l Level) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh, LevelCritical:
		return true
	}
	return false
}

// Elevated reports whether the level meets the urgency threshold (high or critical).
func (l Level) Elevated() bool {
	return l == LevelHigh || l == LevelCritical
}

// Rank orders levels from least to most severe; unknown levels rank lowest.
func (l Level) Rank() int {
	switch l {
	case LevelLow:
		return 1
	case LevelMedium:
		return 2
	case LevelHigh:
		return 3
	case LevelCritical:
		return 4
	}
	return 0
}
