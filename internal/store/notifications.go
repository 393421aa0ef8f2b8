package store

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/charlesng35/storedesk/internal/models"
	apperrors "github.com/charlesng35/storedesk/pkg/errors"
	"github.com/charlesng35/storedesk/pkg/logger"
	"github.com/charlesng35/storedesk/pkg/metrics"
)

const notificationStoreName = "notifications"

// NotificationAPI is the slice of the backend the notification store talks to.
type NotificationAPI interface {
	ListNotifications(ctx context.Context) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	MarkAllNotificationsRead(ctx context.Context) error
}

// NotificationState is a snapshot of the notification store.
type NotificationState struct {
	Items        []models.Notification
	UnreadCount  int
	IsLoading    bool
	IsRefreshing bool
	Error        string
}

// NotificationStore holds the signed-in user's notifications. Read marks are applied locally
// first; a backend failure is logged and the local mark stays.
type NotificationStore struct {
	api NotificationAPI
	log *zap.Logger

	mu        sync.Mutex
	items     []models.Notification
	loading   bool
	refresh   bool
	errMsg    string
	gen       uint64
	listeners map[int]func(NotificationState)
	nextID    int
}

// NewNotificationStore constructs the notification store.
func NewNotificationStore(client NotificationAPI) *NotificationStore {
	return &NotificationStore{
		api:       client,
		log:       logger.WithModule("store." + notificationStoreName),
		listeners: make(map[int]func(NotificationState)),
	}
}

// Fetch replaces the list, recording failures in Error.
func (s *NotificationStore) Fetch(ctx context.Context) error {
	return s.load(ctx, false)
}

// Refresh replaces the list, keeping the current one on failure.
func (s *NotificationStore) Refresh(ctx context.Context) error {
	return s.load(ctx, true)
}

func (s *NotificationStore) load(ctx context.Context, refresh bool) error {
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

	items, err := s.api.ListNotifications(ctx)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		metrics.StaleResponses.WithLabelValues(notificationStoreName).Inc()
		return nil
	}
	s.loading = false
	s.refresh = false
	if err != nil {
		if !refresh {
			s.errMsg = apperrors.UserMessage(err)
		}
		s.mu.Unlock()
		metrics.StoreFetches.WithLabelValues(notificationStoreName, mode, "failure").Inc()
		s.log.Warn("notification fetch failed", zap.String("mode", mode), zap.Error(err))
		s.notify()
		return err
	}
	s.items = append([]models.Notification(nil), items...)
	s.mu.Unlock()

	metrics.StoreFetches.WithLabelValues(notificationStoreName, mode, "success").Inc()
	s.notify()
	return nil
}

// Items returns the notifications in server order.
func (s *NotificationStore) Items() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.items...)
}

// UnreadCount returns the number of unread notifications held.
func (s *NotificationStore) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unreadLocked()
}

// Snapshot returns the current state.
func (s *NotificationStore) Snapshot() NotificationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// MarkAsRead marks id read locally, then tells the backend.
func (s *NotificationStore) MarkAsRead(ctx context.Context, id string) {
	s.mu.Lock()
	changed := false
	for i := range s.items {
		if s.items[i].ID == id && !s.items[i].Read {
			s.items[i].Read = true
			changed = true
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}

	err := s.api.MarkNotificationRead(ctx, id)
	metrics.StoreMutations.WithLabelValues(notificationStoreName, "mark_read", metrics.Result(err)).Inc()
	if err != nil {
		s.log.Warn("mark notification read failed", zap.String("id", id), zap.Error(err))
	}
}

// MarkAllAsRead marks every notification read locally, then tells the backend.
func (s *NotificationStore) MarkAllAsRead(ctx context.Context) {
	s.mu.Lock()
	changed := false
	for i := range s.items {
		if !s.items[i].Read {
			s.items[i].Read = true
			changed = true
		}
	}
	s.mu.Unlock()
	if changed {
		s.notify()
	}

	err := s.api.MarkAllNotificationsRead(ctx)
	metrics.StoreMutations.WithLabelValues(notificationStoreName, "mark_all_read", metrics.Result(err)).Inc()
	if err != nil {
		s.log.Warn("mark all notifications read failed", zap.Error(err))
	}
}

// Subscribe registers fn to receive a snapshot after every change.
func (s *NotificationStore) Subscribe(fn func(NotificationState)) func() {
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

func (s *NotificationStore) unreadLocked() int {
	count := 0
	for _, n := range s.items {
		if !n.Read {
			count++
		}
	}
	return count
}

func (s *NotificationStore) snapshotLocked() NotificationState {
	return NotificationState{
		Items:        append([]models.Notification(nil), s.items...),
		UnreadCount:  s.unreadLocked(),
		IsLoading:    s.loading,
		IsRefreshing: s.refresh,
		Error:        s.errMsg,
	}
}

func (s *NotificationStore) notify() {
	s.mu.Lock()
	if len(s.listeners) == 0 {
		s.mu.Unlock()
		return
	}
	snapshot := s.snapshotLocked()
	listeners := make([]func(NotificationState), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}
