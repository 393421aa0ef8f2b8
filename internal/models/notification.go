package models

import "time"

// EntityType names the kind of record a notification points at.
type EntityType string

const (
	EntityComplaint  EntityType = "complaint"
	EntityActionItem EntityType = "action_item"
)

// NotificationData is the polymorphic reference resolved by the consuming screen.
type NotificationData struct {
	EntityType EntityType `json:"entity_type,omitempty"`
	EntityID   string     `json:"entity_id,omitempty"`
}

// Notification is an in-app notification for the signed-in user.
type Notification struct {
	ID        string           `json:"_id"`
	Type      string           `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Read      bool             `json:"read"`
	Data      NotificationData `json:"data"`
	CreatedAt time.Time        `json:"created_at"`
}

// EntityID returns the notification identifier.
func (n Notification) EntityID() string {
	return n.ID
}

// DashboardStats summarises the home screen counters.
type DashboardStats struct {
	OpenComplaints      int `json:"open_complaints"`
	UrgentComplaints    int `json:"urgent_complaints"`
	PendingActionItems  int `json:"pending_action_items"`
	OverdueActionItems  int `json:"overdue_action_items"`
	UnreadNotifications int `json:"unread_notifications"`
}
