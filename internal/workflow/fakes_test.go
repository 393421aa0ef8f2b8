package workflow

import (
	"context"
	"sync"

	"github.com/charlesng35/storedesk/internal/api"
	"github.com/charlesng35/storedesk/internal/models"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
)

type recorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
	infos     []string
}

func (r *recorder) Success(m string) string { return r.add(&r.successes, m) }
func (r *recorder) Error(m string) string   { return r.add(&r.errors, m) }
func (r *recorder) Info(m string) string    { return r.add(&r.infos, m) }

func (r *recorder) add(list *[]string, m string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	*list = append(*list, m)
	return m
}

type backend struct {
	mu          sync.Mutex
	complaints  map[string]models.ComplaintWithActions
	actionItems map[string]models.ActionItem
	writes      int
	resolved    []api.ResolveRequest
	failWrites  bool
	failDash    bool
	stats       models.DashboardStats
	urgent      []models.ComplaintWithActions
	notes       []models.Notification
}

func newBackend() *backend {
	return &backend{
		complaints:  make(map[string]models.ComplaintWithActions),
		actionItems: make(map[string]models.ActionItem),
	}
}

func (b *backend) ListComplaints(ctx context.Context, q api.ComplaintQuery) (api.Page[models.ComplaintWithActions], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.ComplaintWithActions
	for _, c := range b.complaints {
		out = append(out, c.Clone())
	}
	return api.Page[models.ComplaintWithActions]{Data: out}, nil
}

func (b *backend) GetComplaint(ctx context.Context, id string) (models.ComplaintWithActions, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.complaints[id]
	if !ok {
		return c, apperrors.ErrNotFound
	}
	return c.Clone(), nil
}

func (b *backend) UpdateComplaint(ctx context.Context, id string, patch api.ComplaintPatch) (models.ComplaintWithActions, error) {
	return b.write(id, func(c *models.ComplaintWithActions) { c.Complaint.Status = patch.Status })
}

func (b *backend) AddNote(ctx context.Context, id, content string) (models.ComplaintWithActions, error) {
	return b.write(id, func(c *models.ComplaintWithActions) {
		c.Complaint.Notes = append(c.Complaint.Notes, models.Note{Content: content})
	})
}

func (b *backend) ResolveComplaint(ctx context.Context, id string, req api.ResolveRequest) (models.ComplaintWithActions, error) {
	b.mu.Lock()
	b.resolved = append(b.resolved, req)
	b.mu.Unlock()
	return b.write(id, func(c *models.ComplaintWithActions) {
		c.Complaint.Status = models.ComplaintResolved
		c.Complaint.Compensation = req.Compensation
	})
}

func (b *backend) AssignComplaint(ctx context.Context, id string) (models.ComplaintWithActions, error) {
	return b.write(id, func(c *models.ComplaintWithActions) { c.Complaint.AssignedTo = "me" })
}

func (b *backend) write(id string, fn func(*models.ComplaintWithActions)) (models.ComplaintWithActions, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes++
	if b.failWrites {
		return models.ComplaintWithActions{}, apperrors.ErrConflict
	}
	c, ok := b.complaints[id]
	if !ok {
		return c, apperrors.ErrNotFound
	}
	c = c.Clone()
	fn(&c)
	b.complaints[id] = c
	return c.Clone(), nil
}

func (b *backend) ListActionItems(ctx context.Context, q api.ActionItemQuery) (api.Page[models.ActionItem], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.ActionItem
	for _, a := range b.actionItems {
		out = append(out, a)
	}
	return api.Page[models.ActionItem]{Data: out}, nil
}

func (b *backend) GetActionItem(ctx context.Context, id string) (models.ActionItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.actionItems[id]
	if !ok {
		return a, apperrors.ErrNotFound
	}
	return a, nil
}

func (b *backend) UpdateActionItem(ctx context.Context, id string, patch api.ActionItemPatch) (models.ActionItem, error) {
	return b.writeItem(id, func(a *models.ActionItem) { a.Status = patch.Status })
}

func (b *backend) AssignActionItem(ctx context.Context, id string) (models.ActionItem, error) {
	return b.writeItem(id, func(a *models.ActionItem) { a.AssignedToUserID = "me" })
}

func (b *backend) writeItem(id string, fn func(*models.ActionItem)) (models.ActionItem, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes++
	if b.failWrites {
		return models.ActionItem{}, apperrors.ErrConflict
	}
	a, ok := b.actionItems[id]
	if !ok {
		return a, apperrors.ErrNotFound
	}
	fn(&a)
	b.actionItems[id] = a
	return a, nil
}

func (b *backend) ListFollowups(ctx context.Context, q api.FollowupQuery) (api.Page[models.ActionItem], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.ActionItem
	for _, a := range b.actionItems {
		if a.IsFollowUp() {
			out = append(out, a)
		}
	}
	return api.Page[models.ActionItem]{Data: out}, nil
}

func (b *backend) ResolveFollowup(ctx context.Context, id, notes string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes++
	if b.failWrites {
		return apperrors.ErrConflict
	}
	return nil
}

func (b *backend) GetUrgent(ctx context.Context) (api.UrgentResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return api.UrgentResponse{Complaints: append([]models.ComplaintWithActions(nil), b.urgent...)}, nil
}

func (b *backend) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Notification(nil), b.notes...), nil
}

func (b *backend) MarkNotificationRead(ctx context.Context, id string) error { return nil }

func (b *backend) MarkAllNotificationsRead(ctx context.Context) error { return nil }

func (b *backend) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failDash {
		return models.DashboardStats{}, apperrors.ErrInternalServer
	}
	return b.stats, nil
}

func complaintFixture(id string, status models.ComplaintStatus) models.ComplaintWithActions {
	return models.ComplaintWithActions{Complaint: models.Complaint{
		ID:       id,
		Status:   status,
		Severity: models.LevelHigh,
	}}
}
