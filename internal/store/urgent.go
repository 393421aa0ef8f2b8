package store

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/charlesng35/storedesk/internal/api"
	"github.com/charlesng35/storedesk/internal/events"
	"github.com/charlesng35/storedesk/internal/models"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
	"github.com/charlesng35/storedesk/pkg/logger"
	"github.com/charlesng35/storedesk/pkg/metrics"
)

const urgentStoreName = "urgent"

// UrgentAPI fetches the urgent aggregate.
type UrgentAPI interface {
	GetUrgent(ctx context.Context) (api.UrgentResponse, error)
}

// UrgentState is a snapshot of the urgent store. Items are newest first.
type UrgentState struct {
	Items        []models.ComplaintWithActions
	IsLoading    bool
	IsRefreshing bool
	Error        string
}

// UrgentStore holds the unpaginated set of urgent complaints. Every fetch replaces the set.
// Confirmed updates from other stores are folded in through the bus: a complaint that stops
// being urgent leaves the set, one that becomes urgent joins it.
type UrgentStore struct {
	api UrgentAPI
	log *zap.Logger

	mu        sync.Mutex
	items     []models.ComplaintWithActions
	loading   bool
	refresh   bool
	errMsg    string
	gen       uint64
	listeners map[int]func(UrgentState)
	nextID    int
	unsubs    []func()
}

// NewUrgentStore constructs the urgent store.
func NewUrgentStore(client UrgentAPI, bus *events.Bus) *UrgentStore {
	s := &UrgentStore{
		api:       client,
		log:       logger.WithModule("store." + urgentStoreName),
		listeners: make(map[int]func(UrgentState)),
	}
	if bus != nil {
		s.unsubs = append(s.unsubs,
			bus.Subscribe(events.TopicComplaintUpdated, s.onComplaintUpdated),
			bus.Subscribe(events.TopicActionItemUpdated, s.onActionItemUpdated),
		)
	}
	return s
}

// Fetch replaces the set, recording failures in Error.
func (s *UrgentStore) Fetch(ctx context.Context) error {
	return s.load(ctx, false)
}

// Refresh replaces the set, keeping the current one on failure.
func (s *UrgentStore) Refresh(ctx context.Context) error {
	return s.load(ctx, true)
}

func (s *UrgentStore) load(ctx context.Context, refresh bool) error {
	mode := "reset"
	if refresh {
		mode = "refresh"
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	if refresh {
		s.refresh = true
	} else {
		s.loading = true
		s.errMsg = ""
	}
	s.mu.Unlock()
	s.notify()

	resp, err := s.api.GetUrgent(ctx)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		metrics.StaleResponses.WithLabelValues(urgentStoreName).Inc()
		return nil
	}
	s.loading = false
	s.refresh = false
	if err != nil {
		if !refresh {
			s.errMsg = apperrors.UserMessage(err)
		}
		s.mu.Unlock()
		metrics.StoreFetches.WithLabelValues(urgentStoreName, mode, "failure").Inc()
		s.log.Warn("urgent fetch failed", zap.String("mode", mode), zap.Error(err))
		s.notify()
		return err
	}
	s.items = cloneAll(resp.Complaints)
	s.mu.Unlock()

	metrics.StoreFetches.WithLabelValues(urgentStoreName, mode, "success").Inc()
	s.notify()
	return nil
}

// Items returns the set ordered by complaint creation time, newest first. Equal timestamps keep
// their server order.
func (s *UrgentStore) Items() []models.ComplaintWithActions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedUrgent(s.items)
}

// Count returns the number of urgent complaints held.
func (s *UrgentStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Snapshot returns the current state.
func (s *UrgentStore) Snapshot() UrgentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// UpdateComplaintOptimistic folds a confirmed complaint into the set, adding, replacing or
// removing it according to its urgency.
func (s *UrgentStore) UpdateComplaintOptimistic(c models.ComplaintWithActions) {
	s.mu.Lock()
	idx := s.indexLocked(c.EntityID())
	switch {
	case c.IsUrgent() && idx >= 0:
		s.items[idx] = c.Clone()
	case c.IsUrgent():
		s.items = append(s.items, c.Clone())
	case idx >= 0:
		s.items = append(s.items[:idx], s.items[idx+1:]...)
	default:
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.notify()
}

// Remove drops id from the set.
func (s *UrgentStore) Remove(id string) bool {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.mu.Unlock()
	s.notify()
	return true
}

// Subscribe registers fn to receive a snapshot after every change.
func (s *UrgentStore) Subscribe(fn func(UrgentState)) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Close detaches the store from the bus.
func (s *UrgentStore) Close() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
}

func (s *UrgentStore) onComplaintUpdated(event events.Event) {
	if c, ok := event.Data.(models.ComplaintWithActions); ok {
		s.UpdateComplaintOptimistic(c)
	}
}

func (s *UrgentStore) onActionItemUpdated(event events.Event) {
	item, ok := event.Data.(models.ActionItem)
	if !ok {
		return
	}
	s.mu.Lock()
	var changed []models.ComplaintWithActions
	for _, c := range s.items {
		if updated, embedded := c.WithActionItem(item); embedded {
			changed = append(changed, updated)
		}
	}
	s.mu.Unlock()

	for _, c := range changed {
		s.UpdateComplaintOptimistic(c)
	}
}

func (s *UrgentStore) indexLocked(id string) int {
	for i, c := range s.items {
		if c.EntityID() == id {
			return i
		}
	}
	return -1
}

func (s *UrgentStore) snapshotLocked() UrgentState {
	return UrgentState{
		Items:        sortedUrgent(s.items),
		IsLoading:    s.loading,
		IsRefreshing: s.refresh,
		Error:        s.errMsg,
	}
}

func (s *UrgentStore) notify() {
	s.mu.Lock()
	if len(s.listeners) == 0 {
		s.mu.Unlock()
		return
	}
	snapshot := s.snapshotLocked()
	listeners := make([]func(UrgentState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}

func sortedUrgent(items []models.ComplaintWithActions) []models.ComplaintWithActions {
	out := cloneAll(items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Complaint.CreatedAt.After(out[j].Complaint.CreatedAt)
	})
	return out
}
