package events

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/charlesng35/storedesk/pkg/logger"
)

// Topics published after a successful mutation.
const (
	TopicComplaintUpdated  = "complaint.updated"
	TopicActionItemUpdated = "action_item.updated"
)

// Event carries the server-confirmed state of a single entity.
type Event struct {
	Topic    string
	EntityID string
	Data     any
}

// Handler receives events for a subscribed topic.
type Handler func(Event)

type subscription struct {
	id      uint64
	handler Handler
}

// Bus fans reconciliation events out to every interested store. Delivery is synchronous and
// in subscription order, so when Publish returns every subscriber has applied the update.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	topics map[string][]subscription
	log    *zap.Logger
}

// NewBus constructs an empty bus.
func NewBus() *Bus {
	return &Bus{
		topics: make(map[string][]subscription),
		log:    logger.WithModule("events"),
	}
}

// Subscribe registers handler for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic string, handler Handler) func() {
	topic = normalizeTopic(topic)
	if topic == "" || handler == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.topics[topic] = append(b.topics[topic], subscription{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(topic, id) })
	}
}

// Publish delivers event to every subscriber of its topic. A panicking subscriber is logged
// and skipped so the remaining stores still reconcile.
func (b *Bus) Publish(event Event) {
	event.Topic = normalizeTopic(event.Topic)
	if event.Topic == "" {
		return
	}

	b.mu.RLock()
	subs := append([]subscription(nil), b.topics[event.Topic]...)
	b.mu.RUnlock()

	for _, sub := range subs {
		b.deliver(sub, event)
	}
}

// Subscribers returns the number of handlers registered for topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[normalizeTopic(topic)])
}

func (b *Bus) deliver(sub subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("subscriber panicked",
				zap.String("topic", event.Topic),
				zap.String("entity_id", event.EntityID),
				zap.Any("error", r),
			)
		}
	}()
	sub.handler(event)
}

func (b *Bus) unsubscribe(topic string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.topics[topic]
	for i, sub := range subs {
		if sub.id == id {
			b.topics[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.topics[topic]) == 0 {
		delete(b.topics, topic)
	}
}

func normalizeTopic(topic string) string {
	return strings.ToLower(strings.TrimSpace(topic))
}
