package models

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

// ActionItemType classifies follow-up work generated from calls and complaints.
type ActionItemType string

const (
	ActionAppointment ActionItemType = "appointment"
	ActionOrder       ActionItemType = "order"
	ActionIncident    ActionItemType = "incident"
	ActionFollowUp    ActionItemType = "follow_up"
	ActionTask        ActionItemType = "task"
)

// Valid reports whether the type is known.
func (t ActionItemType) Valid() bool {
	switch t {
	case ActionAppointment, ActionOrder, ActionIncident, ActionFollowUp, ActionTask:
		return true
	}
	return false
}

// ActionItemStatus tracks action item progress.
type ActionItemStatus string

const (
	ActionPending    ActionItemStatus = "pending"
	ActionInProgress ActionItemStatus = "in_progress"
	ActionCompleted  ActionItemStatus = "completed"
	ActionDismissed  ActionItemStatus = "dismissed"
)

// Valid reports whether the status is known.
func (s ActionItemStatus) Valid() bool {
	switch s {
	case ActionPending, ActionInProgress, ActionCompleted, ActionDismissed:
		return true
	}
	return false
}

// Open reports whether work is still outstanding.
func (s ActionItemStatus) Open() bool {
	return s == ActionPending || s == ActionInProgress
}

// ActionItem is a task attached to a call or complaint.
type ActionItem struct {
	ID               string           `json:"_id"`
	Type             ActionItemType   `json:"type"`
	Status           ActionItemStatus `json:"status"`
	Urgency          Level            `json:"urgency"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	DueAt            *time.Time       `json:"due_at,omitempty"`
	AssignedRole     string           `json:"assigned_role,omitempty"`
	AssignedToUserID string           `json:"assigned_to_user_id,omitempty"`
	CallID           string           `json:"call_id,omitempty"`
	ComplaintID      string           `json:"complaint_id,omitempty"`
	ResolutionNotes  string           `json:"resolution_notes,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// EntityID returns the action item identifier.
func (a ActionItem) EntityID() string {
	return a.ID
}

// Clone returns a deep copy.
func (a ActionItem) Clone() ActionItem {
	if a.DueAt != nil {
		due := *a.DueAt
		a.DueAt = &due
	}
	return a
}

// IsUrgent applies the urgency rule to the action item.
func (a ActionItem) IsUrgent() bool {
	return a.Urgency.Elevated() && a.Status.Open()
}

// IsFollowUp reports whether the item is surfaced through the follow-ups view.
func (a ActionItem) IsFollowUp() bool {
	return a.Type == ActionFollowUp
}

var timelinePattern = regexp.MustCompile(`(?i)timeline:\s*(\d+)`)

const maxTimelineHours = math.MaxInt64 / int64(time.Hour)

// DueDate returns the effective due date. An absent or epoch-zero due_at falls back to
// "Timeline: N" (hours) in the description counted from created_at; nil when neither applies
// or N is too large to represent as a duration.
func (a ActionItem) DueDate() *time.Time {
	if a.DueAt != nil && !isUnsetTime(*a.DueAt) {
		due := *a.DueAt
		return &due
	}

	match := timelinePattern.FindStringSubmatch(a.Description)
	if match == nil || a.CreatedAt.IsZero() {
		return nil
	}
	hours, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil || hours > maxTimelineHours {
		return nil
	}
	due := a.CreatedAt.Add(time.Duration(hours) * time.Hour)
	return &due
}

// IsOverdue reports whether an open item is past its effective due date. Items without a
// due date are never overdue.
func (a ActionItem) IsOverdue(now time.Time) bool {
	due := a.DueDate()
	if due == nil || !a.Status.Open() {
		return false
	}
	return now.After(*due)
}

func isUnsetTime(t time.Time) bool {
	return t.IsZero() || t.Unix() == 0
}
