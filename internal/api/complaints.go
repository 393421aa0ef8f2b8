package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/charlesng35/storedesk/internal/models"
)

// ComplaintQuery selects a page of complaints. Page is 1-based.
type ComplaintQuery struct {
	Status   models.ComplaintStatus
	Severity models.Level
	Page     int
	Limit    int
}

// ComplaintPatch is a partial update of a complaint.
type ComplaintPatch struct {
	Status models.ComplaintStatus `json:"status,omitempty"`
}

// ResolveRequest closes a complaint. Compensation is checked by the calling screen, not here.
type ResolveRequest struct {
	Compensation    string `json:"compensation"`
	ResolutionNotes string `json:"resolution_notes,omitempty"`
}

type noteRequest struct {
	Content string `json:"content"`
}

// ListComplaints returns one page of complaints matching every set filter.
func (c *Client) ListComplaints(ctx context.Context, q ComplaintQuery) (Page[models.ComplaintWithActions], error) {
	values := url.Values{}
	setIf(values, "status", string(q.Status))
	setIf(values, "severity", string(q.Severity))
	values.Set("page", strconv.Itoa(max(q.Page, 1)))
	if q.Limit > 0 {
		values.Set("limit", strconv.Itoa(q.Limit))
	}

	var page Page[models.ComplaintWithActions]
	err := c.do(ctx, request{method: http.MethodGet, route: "/complaints", path: "complaints", query: values}, &page)
	return page, err
}

// GetComplaint loads a single complaint with its action items.
func (c *Client) GetComplaint(ctx context.Context, id string) (models.ComplaintWithActions, error) {
	var out models.ComplaintWithActions
	err := c.do(ctx, request{method: http.MethodGet, route: "/complaints/:id", path: idPath("complaints", id)}, &out)
	return out, err
}

// UpdateComplaint applies a partial patch.
func (c *Client) UpdateComplaint(ctx context.Context, id string, patch ComplaintPatch) (models.ComplaintWithActions, error) {
	var out models.ComplaintWithActions
	err := c.do(ctx, request{method: http.MethodPatch, route: "/complaints/:id", path: idPath("complaints", id), body: patch}, &out)
	return out, err
}

// AddNote appends a note authored by the caller.
func (c *Client) AddNote(ctx context.Context, id, content string) (models.ComplaintWithActions, error) {
	var out models.ComplaintWithActions
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/complaints/:id/notes",
		path:   idPath("complaints", id, "notes"),
		body:   noteRequest{Content: content},
	}, &out)
	return out, err
}

// ResolveComplaint closes the complaint with the supplied compensation.
func (c *Client) ResolveComplaint(ctx context.Context, id string, req ResolveRequest) (models.ComplaintWithActions, error) {
	var out models.ComplaintWithActions
	err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/complaints/:id/resolve",
		path:   idPath("complaints", id, "resolve"),
		body:   req,
	}, &out)
	return out, err
}

// AssignComplaint assigns the complaint to the authenticated caller.
func (c *Client) AssignComplaint(ctx context.Context, id string) (models.ComplaintWithActions, error) {
	var out models.ComplaintWithActions
	err := c.do(ctx, request{method: http.MethodPost, route: "/complaints/:id/assign", path: idPath("complaints", id, "assign")}, &out)
	return out, err
}
