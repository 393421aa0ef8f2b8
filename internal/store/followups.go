package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/charlesng35/storedesk/internal/api"
	"github.com/charlesng35/storedesk/internal/events"
	"github.com/charlesng35/storedesk/internal/models"
	"github.com/charlesng35/storedesk/pkg/metrics"
)

// FollowupAPI is the slice of the backend the follow-up store talks to.
type FollowupAPI interface {
	ListFollowups(ctx context.Context, q api.FollowupQuery) (api.Page[models.ActionItem], error)
	GetActionItem(ctx context.Context, id string) (models.ActionItem, error)
	ResolveFollowup(ctx context.Context, id, notes string) error
}

// FollowupFilters narrows the follow-up list.
type FollowupFilters struct {
	Status models.ActionItemStatus
}

// FollowupState is a snapshot of the follow-up store.
type FollowupState = State[models.ActionItem, FollowupFilters]

// Followups holds follow-up action items. The endpoint pages by item offset; the store keeps
// 1-based pages like every other collection and converts in the binding.
type Followups struct {
	*Collection[models.ActionItem, FollowupFilters]

	api    FollowupAPI
	bus    *events.Bus
	unsubs []func()
}

// NewFollowups wires a follow-up store to client and bus.
func NewFollowups(client FollowupAPI, bus *events.Bus, opts ...Option) *Followups {
	binding := Binding[models.ActionItem, FollowupFilters]{
		Name: "followups",
		List: func(ctx context.Context, f FollowupFilters, page, limit int) (api.Page[models.ActionItem], error) {
			return client.ListFollowups(ctx, api.FollowupQuery{
				StatusFilter: f.Status,
				Skip:         SkipFor(page, limit),
				Limit:        limit,
			})
		},
		Get: client.GetActionItem,
	}

	s := &Followups{
		Collection: NewCollection(binding, FollowupFilters{}, opts...),
		api:        client,
		bus:        bus,
	}
	if bus != nil {
		s.unsubs = append(s.unsubs, bus.Subscribe(events.TopicActionItemUpdated, s.onActionItemUpdated))
	}
	return s
}

// SkipFor converts a 1-based page into an item offset.
func SkipFor(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}

// Resolve completes the follow-up. The endpoint returns no entity, so the held copy is marked
// completed locally instead of being fetched again. A follow-up this store does not hold is
// fetched once so other stores still learn about the completion.
func (s *Followups) Resolve(ctx context.Context, id, notes string) error {
	err := s.api.ResolveFollowup(ctx, id, notes)
	metrics.StoreMutations.WithLabelValues(s.Name(), "resolve", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	complete := func(a models.ActionItem) models.ActionItem {
		a.Status = models.ActionCompleted
		if notes != "" {
			a.ResolutionNotes = notes
		}
		return a
	}
	s.UpdateLocal(id, complete)

	item, ok := s.Find(id)
	if !ok {
		fetched, err := s.api.GetActionItem(ctx, id)
		if err != nil {
			s.log.Warn("resolved follow-up not broadcast", zap.String("id", id), zap.Error(err))
			return nil
		}
		item = complete(fetched)
	}
	publishActionItem(s.bus, item)
	return nil
}

// Close detaches the store from the bus.
func (s *Followups) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
}

func (s *Followups) onActionItemUpdated(event events.Event) {
	item, ok := event.Data.(models.ActionItem)
	if !ok || !item.IsFollowUp() {
		return
	}
	s.ApplyOptimistic(item)
}
