package store

import (
	"context"

	"github.com/charlesng35/storedesk/internal/api"
	"github.com/charlesng35/storedesk/internal/events"
	"github.com/charlesng35/storedesk/internal/models"
)

// ComplaintAPI is the slice of the backend the complaint store talks to.
type ComplaintAPI interface {
	ListComplaints(ctx context.Context, q api.ComplaintQuery) (api.Page[models.ComplaintWithActions], error)
	GetComplaint(ctx context.Context, id string) (models.ComplaintWithActions, error)
	UpdateComplaint(ctx context.Context, id string, patch api.ComplaintPatch) (models.ComplaintWithActions, error)
	AddNote(ctx context.Context, id, content string) (models.ComplaintWithActions, error)
	ResolveComplaint(ctx context.Context, id string, req api.ResolveRequest) (models.ComplaintWithActions, error)
	AssignComplaint(ctx context.Context, id string) (models.ComplaintWithActions, error)
}

// ComplaintFilters narrows the complaint list. Empty fields are not sent.
type ComplaintFilters struct {
	Status   models.ComplaintStatus
	Severity models.Level
}

// ComplaintState is a snapshot of the complaint store.
type ComplaintState = State[models.ComplaintWithActions, ComplaintFilters]

// Complaints holds the complaint list and detail.
type Complaints struct {
	*Collection[models.ComplaintWithActions, ComplaintFilters]

	api    ComplaintAPI
	bus    *events.Bus
	unsubs []func()
}

// NewComplaints wires a complaint store to client and, when bus is non-nil, to the
// reconciliation topics.
func NewComplaints(client ComplaintAPI, bus *events.Bus, opts ...Option) *Complaints {
	binding := Binding[models.ComplaintWithActions, ComplaintFilters]{
		Name: "complaints",
		List: func(ctx context.Context, f ComplaintFilters, page, limit int) (api.Page[models.ComplaintWithActions], error) {
			return client.ListComplaints(ctx, api.ComplaintQuery{
				Status:   f.Status,
				Severity: f.Severity,
				Page:     page,
				Limit:    limit,
			})
		},
		Get: client.GetComplaint,
	}

	s := &Complaints{
		Collection: NewCollection(binding, ComplaintFilters{}, opts...),
		api:        client,
		bus:        bus,
	}
	if bus != nil {
		s.unsubs = append(s.unsubs,
			bus.Subscribe(events.TopicComplaintUpdated, s.onComplaintUpdated),
			bus.Subscribe(events.TopicActionItemUpdated, s.onActionItemUpdated),
		)
	}
	return s
}

// UpdateStatus changes the status optimistically: the held copy shows the new status at once
// and is restored if the backend rejects the change.
func (s *Complaints) UpdateStatus(ctx context.Context, id string, status models.ComplaintStatus) (models.ComplaintWithActions, error) {
	result, err := s.MutateOptimistic(ctx, "update_status", id,
		func(c models.ComplaintWithActions) models.ComplaintWithActions {
			c.Complaint.Status = status
			return c
		},
		func(ctx context.Context) (models.ComplaintWithActions, error) {
			return s.api.UpdateComplaint(ctx, id, api.ComplaintPatch{Status: status})
		},
	)
	if err != nil {
		return result, err
	}
	s.publish(result)
	return result, nil
}

// AddNote appends a note and merges the server's copy.
func (s *Complaints) AddNote(ctx context.Context, id, content string) (models.ComplaintWithActions, error) {
	return s.mutate(ctx, "add_note", id, func(ctx context.Context) (models.ComplaintWithActions, error) {
		return s.api.AddNote(ctx, id, content)
	})
}

// Resolve closes the complaint. The request is forwarded as given.
func (s *Complaints) Resolve(ctx context.Context, id string, req api.ResolveRequest) (models.ComplaintWithActions, error) {
	return s.mutate(ctx, "resolve", id, func(ctx context.Context) (models.ComplaintWithActions, error) {
		return s.api.ResolveComplaint(ctx, id, req)
	})
}

// Assign assigns the complaint to the signed-in user.
func (s *Complaints) Assign(ctx context.Context, id string) (models.ComplaintWithActions, error) {
	return s.mutate(ctx, "assign", id, func(ctx context.Context) (models.ComplaintWithActions, error) {
		return s.api.AssignComplaint(ctx, id)
	})
}

// Close detaches the store from the bus.
func (s *Complaints) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
}

func (s *Complaints) mutate(ctx context.Context, op, id string, call func(context.Context) (models.ComplaintWithActions, error)) (models.ComplaintWithActions, error) {
	result, err := s.Mutate(ctx, op, id, call)
	if err != nil {
		return result, err
	}
	s.publish(result)
	return result, nil
}

func (s *Complaints) publish(c models.ComplaintWithActions) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{Topic: events.TopicComplaintUpdated, EntityID: c.EntityID(), Data: c})
}

func (s *Complaints) onComplaintUpdated(event events.Event) {
	if c, ok := event.Data.(models.ComplaintWithActions); ok {
		s.ApplyOptimistic(c)
	}
}

func (s *Complaints) onActionItemUpdated(event events.Event) {
	item, ok := event.Data.(models.ActionItem)
	if !ok {
		return
	}
	s.UpdateWhere(
		func(c models.ComplaintWithActions) bool {
			_, embedded := c.WithActionItem(item)
			return embedded
		},
		func(c models.ComplaintWithActions) models.ComplaintWithActions {
			updated, _ := c.WithActionItem(item)
			return updated
		},
	)
}
