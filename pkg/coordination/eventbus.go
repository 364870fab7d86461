package coordination

import (
	"log/slog"
	"path"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSubscriptionBuffer is the per-subscription delivery buffer size.
const DefaultSubscriptionBuffer = 64

// Subscription is a live event feed. Events matching any of the subscription's
// type globs are delivered through a bounded buffer; when the buffer is full
// the oldest undelivered event is dropped and the overflow counter increments.
type Subscription struct {
	ID                string
	SubscriberAgentID string
	SubscriberName    string
	EventTypeGlobs    []string
	ExcludeSelf       bool

	mu       sync.Mutex
	ch       chan Event
	closed   bool
	overflow uint64
}

// Events returns the delivery channel. The channel is closed on unsubscribe.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Overflow returns the number of events dropped due to a full buffer.
func (s *Subscription) Overflow() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.overflow
}

// matches reports whether an event should be delivered to this subscription.
func (s *Subscription) matches(event Event) bool {
	if s.ExcludeSelf && event.SourceAgentID != "" && event.SourceAgentID == s.SubscriberAgentID {
		return false
	}
	for _, glob := range s.EventTypeGlobs {
		if ok, err := path.Match(glob, event.Type); err == nil && ok {
			return true
		}
	}
	return false
}

// deliver pushes an event into the buffer, dropping the oldest entry on overflow.
func (s *Subscription) deliver(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	select {
	case s.ch <- event:
		return
	default:
	}

	// Buffer full: drop the oldest undelivered event to make room.
	select {
	case <-s.ch:
		s.overflow++
	default:
	}
	select {
	case s.ch <- event:
	default:
		s.overflow++
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// EventBus is a filtered broadcast of ephemeral coordination events.
// Delivery order to a single subscriber matches Publish order; ordering
// across subscribers is unspecified. No persistence, no replay.
type EventBus struct {
	mu         sync.RWMutex
	subs       map[string]*Subscription
	bufferSize int
}

func NewEventBus() *EventBus {
	return &EventBus{
		subs:       make(map[string]*Subscription),
		bufferSize: DefaultSubscriptionBuffer,
	}
}

// Subscribe registers a filtered subscriber and returns its subscription.
func (b *EventBus) Subscribe(subscriberAgentID, name string, globs []string, excludeSelf bool) *Subscription {
	sub := &Subscription{
		ID:                uuid.NewString(),
		SubscriberAgentID: subscriberAgentID,
		SubscriberName:    name,
		EventTypeGlobs:    globs,
		ExcludeSelf:       excludeSelf,
		ch:                make(chan Event, b.bufferSize),
	}

	b.mu.Lock()
	b.subs[sub.ID] = sub
	b.mu.Unlock()

	slog.Debug("Event subscription created",
		"subscription", sub.ID, "subscriber", name, "globs", globs)
	return sub
}

// Unsubscribe releases a subscription. Unsubscribing twice is a no-op.
func (b *EventBus) Unsubscribe(subscriptionID string) {
	b.mu.Lock()
	sub, ok := b.subs[subscriptionID]
	if ok {
		delete(b.subs, subscriptionID)
	}
	b.mu.Unlock()

	if ok {
		sub.close()
	}
}

// GetSubscription looks up a live subscription by id.
func (b *EventBus) GetSubscription(subscriptionID string) (*Subscription, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sub, ok := b.subs[subscriptionID]
	return sub, ok
}

// Publish delivers an event to every matching subscriber without blocking.
// Events with no matching subscriber are dropped.
func (b *EventBus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		if sub.matches(event) {
			sub.deliver(event)
		}
	}
}

// SubscriberCount returns the number of live subscriptions.
func (b *EventBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close releases every subscription.
func (b *EventBus) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[string]*Subscription)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}
