package events

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Handler receives published events. Handlers run on the publisher's
// goroutine and must not block.
type Handler func(*Event)

// SubscriptionID identifies a subscription for Unsubscribe
type SubscriptionID uint64

type subscription struct {
	id      SubscriptionID
	handler Handler
}

// Bus is an in-process publish/subscribe hub
type Bus struct {
	mu       sync.RWMutex
	byType   map[EventType][]subscription
	wildcard []subscription
	nextID   atomic.Uint64
	log      zerolog.Logger
}

// NewBus creates a new event bus
func NewBus(log zerolog.Logger) *Bus {
	return &Bus{
		byType: make(map[EventType][]subscription),
		log:    log.With().Str("component", "event_bus").Logger(),
	}
}

// Subscribe registers handler for one event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) SubscriptionID {
	id := SubscriptionID(b.nextID.Add(1))

	b.mu.Lock()
	defer b.mu.Unlock()
	b.byType[eventType] = append(b.byType[eventType], subscription{id: id, handler: handler})
	return id
}

// SubscribeAll registers handler for every event type
func (b *Bus) SubscribeAll(handler Handler) SubscriptionID {
	id := SubscriptionID(b.nextID.Add(1))

	b.mu.Lock()
	defer b.mu.Unlock()
	b.wildcard = append(b.wildcard, subscription{id: id, handler: handler})
	return id
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (b *Bus) Unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.wildcard = without(b.wildcard, id)
	for eventType, subs := range b.byType {
		remaining := without(subs, id)
		if len(remaining) == 0 {
			delete(b.byType, eventType)
			continue
		}
		b.byType[eventType] = remaining
	}
}

func without(subs []subscription, id SubscriptionID) []subscription {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// Publish delivers event to matching subscribers. A panicking handler is
// logged and does not stop delivery to the rest.
func (b *Bus) Publish(event *Event) {
	b.mu.RLock()
	targets := make([]subscription, 0, len(b.byType[event.Type])+len(b.wildcard))
	targets = append(targets, b.byType[event.Type]...)
	targets = append(targets, b.wildcard...)
	b.mu.RUnlock()

	for _, s := range targets {
		b.deliver(s, event)
	}
}

func (b *Bus) deliver(s subscription, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().
				Interface("panic", r).
				Str("event_type", string(event.Type)).
				Uint64("subscription", uint64(s.id)).
				Msg("Event handler panicked")
		}
	}()
	s.handler(event)
}

// SubscriberCount returns the number of active subscriptions
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := len(b.wildcard)
	for _, subs := range b.byType {
		n += len(subs)
	}
	return n
}
