package store

import (
	"context"
	"sync"
	"time"

	"github.com/charlesng35/storedesk/internal/api"
	"github.com/charlesng35/storedesk/internal/models"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
)

// fakeAPI is an in-memory backend covering every store interface.
type fakeAPI struct {
	mu sync.Mutex

	complaints    map[string]models.ComplaintWithActions
	complaintList []models.ComplaintWithActions
	actionItems   []models.ActionItem
	followups     []models.ActionItem
	urgent        []models.ComplaintWithActions
	notifications []models.Notification

	complaintQueries []api.ComplaintQuery
	actionQueries    []api.ActionItemQuery
	followupQueries  []api.FollowupQuery
	resolveRequests  []api.ResolveRequest
	resolvedFollowup []string
	readCalls        []string
	readAllCalls     int

	failWrites bool
	failReads  bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{complaints: make(map[string]models.ComplaintWithActions)}
}

func (f *fakeAPI) addComplaint(c models.ComplaintWithActions) {
	f.complaints[c.EntityID()] = c
	f.complaintList = append(f.complaintList, c)
}

var errRejected = apperrors.ErrBadRequest.WithMessage("rejected")

func (f *fakeAPI) ListComplaints(ctx context.Context, q api.ComplaintQuery) (api.Page[models.ComplaintWithActions], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.complaintQueries = append(f.complaintQueries, q)
	if f.failReads {
		return api.Page[models.ComplaintWithActions]{}, apperrors.ErrNetwork
	}
	var matched []models.ComplaintWithActions
	for _, listed := range f.complaintList {
		c := f.complaints[listed.EntityID()]
		if q.Status != "" && c.Complaint.Status != q.Status {
			continue
		}
		if q.Severity != "" && c.Complaint.Severity != q.Severity {
			continue
		}
		matched = append(matched, c.Clone())
	}
	return pageOf(matched, q.Page, q.Limit), nil
}

func (f *fakeAPI) GetComplaint(ctx context.Context, id string) (models.ComplaintWithActions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.complaints[id]
	if !ok {
		return c, apperrors.ErrNotFound
	}
	return c.Clone(), nil
}

func (f *fakeAPI) UpdateComplaint(ctx context.Context, id string, patch api.ComplaintPatch) (models.ComplaintWithActions, error) {
	return f.writeComplaint(id, func(c *models.ComplaintWithActions) {
		c.Complaint.Status = patch.Status
	})
}

func (f *fakeAPI) AddNote(ctx context.Context, id, content string) (models.ComplaintWithActions, error) {
	return f.writeComplaint(id, func(c *models.ComplaintWithActions) {
		c.Complaint.Notes = append(c.Complaint.Notes, models.Note{Author: "me", Content: content})
	})
}

func (f *fakeAPI) ResolveComplaint(ctx context.Context, id string, req api.ResolveRequest) (models.ComplaintWithActions, error) {
	f.mu.Lock()
	f.resolveRequests = append(f.resolveRequests, req)
	f.mu.Unlock()
	return f.writeComplaint(id, func(c *models.ComplaintWithActions) {
		c.Complaint.Status = models.ComplaintResolved
		c.Complaint.Compensation = req.Compensation
		c.Complaint.ResolutionNotes = req.ResolutionNotes
	})
}

func (f *fakeAPI) AssignComplaint(ctx context.Context, id string) (models.ComplaintWithActions, error) {
	return f.writeComplaint(id, func(c *models.ComplaintWithActions) {
		c.Complaint.AssignedTo = "me"
	})
}

func (f *fakeAPI) writeComplaint(id string, fn func(*models.ComplaintWithActions)) (models.ComplaintWithActions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return models.ComplaintWithActions{}, errRejected
	}
	c, ok := f.complaints[id]
	if !ok {
		return c, apperrors.ErrNotFound
	}
	c = c.Clone()
	fn(&c)
	f.complaints[id] = c
	return c.Clone(), nil
}

func (f *fakeAPI) ListActionItems(ctx context.Context, q api.ActionItemQuery) (api.Page[models.ActionItem], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actionQueries = append(f.actionQueries, q)
	if f.failReads {
		return api.Page[models.ActionItem]{}, apperrors.ErrNetwork
	}
	var matched []models.ActionItem
	for _, a := range f.actionItems {
		if q.Status != "" && a.Status != q.Status {
			continue
		}
		if q.Urgency != "" && a.Urgency != q.Urgency {
			continue
		}
		if q.Type != "" && a.Type != q.Type {
			continue
		}
		matched = append(matched, a)
	}
	return pageOf(matched, q.Page, q.Limit), nil
}

func (f *fakeAPI) GetActionItem(ctx context.Context, id string) (models.ActionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range append(f.actionItems, f.followups...) {
		if a.ID == id {
			return a.Clone(), nil
		}
	}
	return models.ActionItem{}, apperrors.ErrNotFound
}

func (f *fakeAPI) UpdateActionItem(ctx context.Context, id string, patch api.ActionItemPatch) (models.ActionItem, error) {
	return f.writeActionItem(id, func(a *models.ActionItem) { a.Status = patch.Status })
}

func (f *fakeAPI) AssignActionItem(ctx context.Context, id string) (models.ActionItem, error) {
	return f.writeActionItem(id, func(a *models.ActionItem) { a.AssignedToUserID = "me" })
}

func (f *fakeAPI) writeActionItem(id string, fn func(*models.ActionItem)) (models.ActionItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return models.ActionItem{}, errRejected
	}
	for i := range f.actionItems {
		if f.actionItems[i].ID == id {
			fn(&f.actionItems[i])
			return f.actionItems[i].Clone(), nil
		}
	}
	return models.ActionItem{}, apperrors.ErrNotFound
}

func (f *fakeAPI) ListFollowups(ctx context.Context, q api.FollowupQuery) (api.Page[models.ActionItem], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.followupQueries = append(f.followupQueries, q)
	var matched []models.ActionItem
	for _, a := range f.followups {
		if q.StatusFilter != "" && a.Status != q.StatusFilter {
			continue
		}
		matched = append(matched, a)
	}
	start := min(q.Skip, len(matched))
	end := min(start+q.Limit, len(matched))
	return api.Page[models.ActionItem]{Data: append([]models.ActionItem(nil), matched[start:end]...), HasMore: end < len(matched)}, nil
}

func (f *fakeAPI) ResolveFollowup(ctx context.Context, id, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errRejected
	}
	f.resolvedFollowup = append(f.resolvedFollowup, id)
	return nil
}

func (f *fakeAPI) GetUrgent(ctx context.Context) (api.UrgentResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return api.UrgentResponse{}, apperrors.ErrNetwork
	}
	return api.UrgentResponse{Complaints: append([]models.ComplaintWithActions(nil), f.urgent...)}, nil
}

func (f *fakeAPI) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failReads {
		return nil, apperrors.ErrNetwork
	}
	return append([]models.Notification(nil), f.notifications...), nil
}

func (f *fakeAPI) MarkNotificationRead(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readCalls = append(f.readCalls, id)
	if f.failWrites {
		return errRejected
	}
	return nil
}

func (f *fakeAPI) MarkAllNotificationsRead(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readAllCalls++
	if f.failWrites {
		return errRejected
	}
	return nil
}

func pageOf[T any](items []T, page, limit int) api.Page[T] {
	if page < 1 {
		page = 1
	}
	start := min((page-1)*limit, len(items))
	end := min(start+limit, len(items))
	return api.Page[T]{Data: append([]T(nil), items[start:end]...), HasMore: end < len(items)}
}

var baseTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func complaint(id string, status models.ComplaintStatus, severity models.Level, age time.Duration) models.ComplaintWithActions {
	return models.ComplaintWithActions{
		Complaint: models.Complaint{
			ID:        id,
			Status:    status,
			Severity:  severity,
			CreatedAt: baseTime.Add(-age),
			UpdatedAt: baseTime.Add(-age),
		},
	}
}

func actionItem(id string, status models.ActionItemStatus, urgency models.Level) models.ActionItem {
	return models.ActionItem{
		ID:        id,
		Type:      models.ActionTask,
		Status:    status,
		Urgency:   urgency,
		Title:     "Call back " + id,
		CreatedAt: baseTime,
	}
}
