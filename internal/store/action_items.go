package store

import (
	"context"

	"github.com/charlesng35/storedesk/internal/api"
	"github.com/charlesng35/storedesk/internal/events"
	"github.com/charlesng35/storedesk/internal/models"
)

// ActionItemAPI is the slice of the backend the action item store talks to.
type ActionItemAPI interface {
	ListActionItems(ctx context.Context, q api.ActionItemQuery) (api.Page[models.ActionItem], error)
	GetActionItem(ctx context.Context, id string) (models.ActionItem, error)
	UpdateActionItem(ctx context.Context, id string, patch api.ActionItemPatch) (models.ActionItem, error)
	AssignActionItem(ctx context.Context, id string) (models.ActionItem, error)
}

// ActionItemFilters narrows the action item list.
type ActionItemFilters struct {
	Status  models.ActionItemStatus
	Urgency models.Level
	Type    models.ActionItemType
}

// ActionItemState is a snapshot of the action item store.
type ActionItemState = State[models.ActionItem, ActionItemFilters]

// ActionItems holds the action item list and detail.
type ActionItems struct {
	*Collection[models.ActionItem, ActionItemFilters]

	api    ActionItemAPI
	bus    *events.Bus
	unsubs []func()
}

// NewActionItems wires an action item store to client and bus.
func NewActionItems(client ActionItemAPI, bus *events.Bus, opts ...Option) *ActionItems {
	binding := Binding[models.ActionItem, ActionItemFilters]{
		Name: "action_items",
		List: func(ctx context.Context, f ActionItemFilters, page, limit int) (api.Page[models.ActionItem], error) {
			return client.ListActionItems(ctx, api.ActionItemQuery{
				Status:  f.Status,
				Urgency: f.Urgency,
				Type:    f.Type,
				Page:    page,
				Limit:   limit,
			})
		},
		Get: client.GetActionItem,
	}

	s := &ActionItems{
		Collection: NewCollection(binding, ActionItemFilters{}, opts...),
		api:        client,
		bus:        bus,
	}
	if bus != nil {
		s.unsubs = append(s.unsubs, bus.Subscribe(events.TopicActionItemUpdated, s.onActionItemUpdated))
	}
	return s
}

// UpdateStatus changes the status optimistically and reverts on failure.
func (s *ActionItems) UpdateStatus(ctx context.Context, id string, status models.ActionItemStatus) (models.ActionItem, error) {
	result, err := s.MutateOptimistic(ctx, "update_status", id,
		func(a models.ActionItem) models.ActionItem {
			a.Status = status
			return a
		},
		func(ctx context.Context) (models.ActionItem, error) {
			return s.api.UpdateActionItem(ctx, id, api.ActionItemPatch{Status: status})
		},
	)
	if err != nil {
		return result, err
	}
	publishActionItem(s.bus, result)
	return result, nil
}

// Assign assigns the action item to the signed-in user.
func (s *ActionItems) Assign(ctx context.Context, id string) (models.ActionItem, error) {
	result, err := s.Mutate(ctx, "assign", id, func(ctx context.Context) (models.ActionItem, error) {
		return s.api.AssignActionItem(ctx, id)
	})
	if err != nil {
		return result, err
	}
	publishActionItem(s.bus, result)
	return result, nil
}

// Close detaches the store from the bus.
func (s *ActionItems) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
}

func (s *ActionItems) onActionItemUpdated(event events.Event) {
	if item, ok := event.Data.(models.ActionItem); ok {
		s.ApplyOptimistic(item)
	}
}

func publishActionItem(bus *events.Bus, item models.ActionItem) {
	if bus == nil {
		return
	}
	bus.Publish(events.Event{Topic: events.TopicActionItemUpdated, EntityID: item.EntityID(), Data: item})
}
