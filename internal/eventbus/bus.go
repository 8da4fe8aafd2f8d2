package eventbus

import (
	"sync"
	"time"
)

// Bus is a simple in-process pub/sub event bus.
// A nil *Bus is valid and drops every event.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]Handler
	all      []Handler
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		handlers: make(map[Topic][]Handler),
	}
}

// Subscribe registers a handler for a topic.
func (b *Bus) Subscribe(topic Topic, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// SubscribeAll registers a handler that receives every topic.
func (b *Bus) SubscribeAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

// Publish sends an event to all subscribers of the topic.
// Handlers are called synchronously in the order they were registered.
func (b *Bus) Publish(topic Topic, payload any) {
	if b == nil {
		return
	}
	event, handlers := b.prepare(topic, payload)
	for _, h := range handlers {
		h(event)
	}
}

func (b *Bus) prepare(topic Topic, payload any) (Event, []Handler) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[topic])+len(b.all))
	handlers = append(handlers, b.handlers[topic]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	return Event{
		Topic:     topic,
		Payload:   payload,
		Timestamp: time.Now(),
	}, handlers
}
