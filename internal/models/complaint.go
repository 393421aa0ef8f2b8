package models

import (
	"slices"
	"time"
)

// ComplaintStatus tracks the complaint lifecycle.
type ComplaintStatus string

const (
	ComplaintPending    ComplaintStatus = "pending"
	ComplaintInProgress ComplaintStatus = "in_progress"
	ComplaintResolved   ComplaintStatus = "resolved"
)

// Valid reports whether the status is part of the lifecycle.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case ComplaintPending, ComplaintInProgress, ComplaintResolved:
		return true
	}
	return false
}

// Open reports whether the status still needs attention.
func (s ComplaintStatus) Open() bool {
	return s == ComplaintPending || s == ComplaintInProgress
}

// Customer identifies the person who raised the complaint.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// StoreInfo identifies the store the complaint was raised against.
type StoreInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone,omitempty"`
}

// Note is a free-text entry appended to a complaint by staff.
type Note struct {
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Complaint is a customer complaint as returned by the backend.
type Complaint struct {
	ID              string          `json:"_id"`
	Status          ComplaintStatus `json:"status"`
	Severity        Level           `json:"complaint_severity"`
	Customer        Customer        `json:"customer"`
	Store           StoreInfo       `json:"store"`
	Type            string          `json:"complaint_type"`
	Description     string          `json:"description"`
	Notes           []Note          `json:"notes"`
	AssignedTo      string          `json:"assigned_to,omitempty"`
	Compensation    string          `json:"compensation,omitempty"`
	ResolutionNotes string          `json:"resolution_notes,omitempty"`
	ResolvedBy      string          `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsResolved reports whether the complaint reached its terminal state.
func (c Complaint) IsResolved() bool {
	return c.Status == ComplaintResolved
}

// CanMutate reports whether status changes, notes and assignment are still accepted.
func (c Complaint) CanMutate() bool {
	return !c.IsResolved()
}

// IsUrgent applies the urgency rule to the complaint alone.
func (c Complaint) IsUrgent() bool {
	return c.Severity.Elevated() && c.Status.Open()
}

// Clone returns a deep copy.
func (c Complaint) Clone() Complaint {
	c.Notes = slices.Clone(c.Notes)
	if c.ResolvedAt != nil {
		at := *c.ResolvedAt
		c.ResolvedAt = &at
	}
	return c
}

// ComplaintWithActions is the read model the complaint screens and the urgent view operate on.
type ComplaintWithActions struct {
	Complaint   Complaint    `json:"complaint"`
	ActionItems []ActionItem `json:"action_items"`
	UrgentCount int          `json:"urgent_count"`
}

// EntityID returns the complaint identifier.
func (c ComplaintWithActions) EntityID() string {
	return c.Complaint.ID
}

// Clone returns a deep copy.
func (c ComplaintWithActions) Clone() ComplaintWithActions {
	out := ComplaintWithActions{
		Complaint:   c.Complaint.Clone(),
		UrgentCount: c.UrgentCount,
	}
	if c.ActionItems != nil {
		out.ActionItems = make([]ActionItem, len(c.ActionItems))
		for i, item := range c.ActionItems {
			out.ActionItems[i] = item.Clone()
		}
	}
	return out
}

// IsUrgent applies the urgency rule with escalation from urgent child tasks: a complaint below
// the severity threshold is still urgent while it owns urgent action items. Resolved
// complaints are never urgent.
func (c ComplaintWithActions) IsUrgent() bool {
	if !c.Complaint.Status.Open() {
		return false
	}
	return c.Complaint.Severity.Elevated() || c.UrgentCount > 0
}

// CountUrgentActions recomputes the urgent count from the embedded action items.
func (c ComplaintWithActions) CountUrgentActions() int {
	count := 0
	for _, item := range c.ActionItems {
		if item.IsUrgent() {
			count++
		}
	}
	return count
}

// WithActionItem returns a copy with item replacing the embedded action item of the same id and
// the urgent count recomputed. The second result is false when the item is not embedded.
func (c ComplaintWithActions) WithActionItem(item ActionItem) (ComplaintWithActions, bool) {
	for i, existing := range c.ActionItems {
		if existing.ID != item.ID {
			continue
		}
		out := c.Clone()
		out.ActionItems[i] = item.Clone()
		out.UrgentCount = out.CountUrgentActions()
		return out, true
	}
	return c, false
}
