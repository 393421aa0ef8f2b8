package models

import "time"

// CacheEntry is a key/value row shared by the device session store and the sandbox rate
// limiter. A zero ExpiresAt means the entry never expires.
type CacheEntry struct {
	Key       string    `gorm:"primaryKey;size:256"`
	Value     []byte    `gorm:"type:blob"`
	ExpiresAt time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps device and sandbox databases on one table name.
func (CacheEntry) TableName() string { return "kv_entries" }

// Expired reports whether the entry has a TTL that has elapsed at now.
func (e CacheEntry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}
