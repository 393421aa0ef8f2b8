package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/charlesng35/storedesk/pkg/metrics"
)

// DefaultDuration is how long a toast stays visible unless the caller says otherwise.
const DefaultDuration = 3 * time.Second

// Kind selects the toast styling.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// Toast is a single ephemeral message.
type Toast struct {
	ID        string        `json:"id"`
	Kind      Kind          `json:"kind"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Timer is the subset of *time.Timer the channel relies on.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

// Option customises a Channel.
type Option func(*Channel)

// WithDefaultDuration overrides DefaultDuration.
func WithDefaultDuration(d time.Duration) Option {
	return func(c *Channel) {
		if d > 0 {
			c.defaultDuration = d
		}
	}
}

// WithClock injects the scheduling and time functions, primarily for testing.
func WithClock(now func() time.Time, after AfterFunc) Option {
	return func(c *Channel) {
		if now != nil {
			c.now = now
		}
		if after != nil {
			c.afterFunc = after
		}
	}
}

// Channel is the feedback queue consumed by the UI. Entries are kept in append order.
type Channel struct {
	mu              sync.Mutex
	items           []Toast
	timers          map[string]Timer
	listeners       map[int]func([]Toast)
	nextListener    int
	defaultDuration time.Duration
	now             func() time.Time
	afterFunc       AfterFunc
}

// New constructs a Channel.
func New(opts ...Option) *Channel {
	c := &Channel{
		timers:          make(map[string]Timer),
		listeners:       make(map[int]func([]Toast)),
		defaultDuration: DefaultDuration,
		now:             time.Now,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Show appends a toast using the default duration and returns its id.
func (c *Channel) Show(kind Kind, message string) string {
	return c.ShowFor(kind, message, c.defaultDuration)
}

// ShowFor appends a toast that removes itself after duration. A non-positive duration keeps
// the toast until Hide or ClearAll.
func (c *Channel) ShowFor(kind Kind, message string, duration time.Duration) string {
	toast := Toast{
		ID:        uuid.NewString(),
		Kind:      kind,
		Message:   message,
		Duration:  duration,
		CreatedAt: c.now(),
	}

	c.mu.Lock()
	c.items = append(c.items, toast)
	if duration > 0 {
		id := toast.ID
		c.timers[id] = c.afterFunc(duration, func() { c.Hide(id) })
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	metrics.Toasts.WithLabelValues(string(kind)).Inc()
	c.notify(snapshot)
	return toast.ID
}

// Success shows a success toast.
func (c *Channel) Success(message string) string { return c.Show(KindSuccess, message) }

// Error shows an error toast.
func (c *Channel) Error(message string) string { return c.Show(KindError, message) }

// Info shows an informational toast.
func (c *Channel) Info(message string) string { return c.Show(KindInfo, message) }

// Warning shows a warning toast.
func (c *Channel) Warning(message string) string { return c.Show(KindWarning, message) }

// Hide removes a toast immediately. It reports whether the toast was still visible.
func (c *Channel) Hide(id string) bool {
	c.mu.Lock()
	idx := -1
	for i, item := range c.items {
		if item.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	c.items = append(c.items[:idx:idx], c.items[idx+1:]...)
	if timer, ok := c.timers[id]; ok {
		timer.Stop()
		delete(c.timers, id)
	}
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(snapshot)
	return true
}

// ClearAll empties the queue and cancels pending expiries.
func (c *Channel) ClearAll() {
	c.mu.Lock()
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
	c.items = nil
	c.mu.Unlock()

	c.notify(nil)
}

// List returns the visible toasts in append order.
func (c *Channel) List() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe registers fn to receive the queue after every change.
func (c *Channel) Subscribe(fn func([]Toast)) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextListener
	c.nextListener++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Channel) snapshotLocked() []Toast {
	if len(c.items) == 0 {
		return nil
	}
	return append([]Toast(nil), c.items...)
}

func (c *Channel) notify(snapshot []Toast) {
	c.mu.Lock()
	listeners := make([]func([]Toast), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}
