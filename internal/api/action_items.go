package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charlesng35/storedesk/internal/models"
)

// ActionItemQuery selects a page of action items. Page is 1-based.
type ActionItemQuery struct {
	Status  models.ActionItemStatus
	Urgency models.Level
	Type    models.ActionItemType
	Page    int
	Limit   int
}

// ActionItemPatch is a partial update of an action item.
type ActionItemPatch struct {
	Status models.ActionItemStatus `json:"status,omitempty"`
}

// FollowupQuery selects follow-ups. Skip is a 0-based item offset.
type FollowupQuery struct {
	StatusFilter models.ActionItemStatus
	Skip         int
	Limit        int
}

type followupResolveRequest struct {
	Notes string `json:"notes,omitempty"`
}

// ListActionItems returns one page of action items matching every set filter.
func (c *Client) ListActionItems(ctx context.Context, q ActionItemQuery) (Page[models.ActionItem], error) {
	values := url.Values{}
	setIf(values, "status", string(q.Status))
	setIf(values, "urgency", string(q.Urgency))
	setIf(values, "type", string(q.Type))
	values.Set("page", strconv.Itoa(max(q.Page, 1)))
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}

	var page Page[models.ActionItem]
	err := c.do(ctx, request{method: http.MethodGet, route: "/action-items", path: "action-items", query: values}, &page)
	return page, err
}

// GetActionItem loads a single action item.
func (c *Client) GetActionItem(ctx context.Context, id string) (models.ActionItem, error) {
	var out models.ActionItem
	err := c.do(ctx, request{method: http.MethodGet, route: "/action-items/:id", path: idPath("action-items", id)}, &out)
	return out, err
}

// UpdateActionItem applies a partial patch.
func (c *Client) UpdateActionItem(ctx context.Context, id string, patch ActionItemPatch) (models.ActionItem, error) {
	var out models.ActionItem
	err := c.do(ctx, request{method: http.MethodPatch, route: "/action-items/:id", path: idPath("action-items", id), body: patch}, &out)
	return out, err
}

// AssignActionItem assigns the action item to the authenticated caller.
func (c *Client) AssignActionItem(ctx context.Context, id string) (models.ActionItem, error) {
	var out models.ActionItem
	err := c.do(ctx, request{method: http.MethodPost, route: "/action-items/:id/assign", path: idPath("action-items", id, "assign")}, &out)
	return out, err
}

// ListFollowups returns follow-up action items using offset pagination.
func (c *Client) ListFollowups(ctx context.Context, q FollowupQuery) (Page[models.ActionItem], error) {
	values := url.Values{}
	setIf(values, "status_filter", string(q.StatusFilter))
	values.Set("skip", strconv.Itoa(max(q.Skip, 0)))
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}

	var page Page[models.ActionItem]
	err := c.do(ctx, request{method: http.MethodGet, route: "/follow-ups", path: "follow-ups", query: values}, &page)
	return page, err
}

// ResolveFollowup completes a follow-up. The backend only acknowledges.
func (c *Client) ResolveFollowup(ctx context.Context, id, notes string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		route:  "/follow-ups/:id/resolve",
		path:   idPath("follow-ups", id, "resolve"),
		body:   followupResolveRequest{Notes: notes},
	}, nil)
}
