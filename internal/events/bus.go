package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var CHANNEL_CART_EVENTS = "CART_EVENTS"

type EventType string

const (
	EventCartUpdated     EventType = "cart.updated"
	EventCartCleared     EventType = "cart.cleared"
	EventCartError       EventType = "cart.error"
	EventWishlistUpdated EventType = "wishlist.updated"
)

type Event struct {
	Type      EventType `json:"type"`
	Payload   string    `json:"payload"`
	Timestamp int64     `json:"timestamp"`
}

type Handler func(Event)

// Bus fans events out to in-process subscribers synchronously and mirrors
// each event with a single Redis publish for other processes. One reliable
// delivery to the current subscriber list replaces re-firing the same signal
// on staggered timers. The Redis client may be nil, which keeps the bus
// purely in-process.
type Bus struct {
	mu    sync.RWMutex
	subs  map[int]Handler
	next  int
	redis *redis.Client
}

func NewBus(rdb *redis.Client) *Bus {
	return &Bus{
		subs:  make(map[int]Handler),
		redis: rdb,
	}
}

// Subscribe registers a handler and returns its unsubscribe func.
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers the event to every current subscriber, then mirrors it to
// the Redis channel. A failed mirror publish is logged, never propagated; the
// in-process delivery already happened.
func (b *Bus) Publish(ctx context.Context, eventType EventType, payload string) {
	event := Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().Unix(),
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, h := range b.subs {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}

	if b.redis == nil {
		return
	}

	messageJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal cart event: %v", err)
		return
	}

	if err := b.redis.Publish(ctx, CHANNEL_CART_EVENTS, string(messageJSON)).Err(); err != nil {
		log.Printf("Failed to publish cart event: %v", err)
	}
}
