package api

import (
	"context"
	"net/http"

	"github.com/charlesng35/storedesk/internal/models"
)

// UrgentResponse is the unpaginated urgent aggregate.
type UrgentResponse struct {
	Complaints []models.ComplaintWithActions `json:"complaints"`
}

type deviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// GetUrgent returns every complaint currently needing attention.
func (c *Client) GetUrgent(ctx context.Context) (UrgentResponse, error) {
	var out UrgentResponse
	err := c.do(ctx, request{method: http.MethodGet, route: "/urgent", path: "urgent"}, &out)
	return out, err
}

// ListNotifications returns the caller's notifications, newest first.
func (c *Client) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	var out []models.Notification
	err := c.do(ctx, request{method: http.MethodGet, route: "/notifications", path: "notifications"}, &out)
	return out, err
}

// MarkNotificationRead flags a single notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, request{method: http.MethodPost, route: "/notifications/:id/read", path: idPath("notifications", id, "read")}, nil)
}

// MarkAllNotificationsRead flags every notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, route: "/notifications/read-all", path: "notifications/read-all"}, nil)
}

// RegisterDevice registers a push token for the caller.
func (c *Client) RegisterDevice(ctx context.Context, token, platform string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		route:  "/devices",
		path:   "devices",
		body:   deviceRequest{Token: token, Platform: platform},
	}, nil)
}

// Dashboard returns the home screen counters.
func (c *Client) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	var out models.DashboardStats
	err := c.do(ctx, request{method: http.MethodGet, route: "/dashboard", path: "dashboard"}, &out)
	return out, err
}
