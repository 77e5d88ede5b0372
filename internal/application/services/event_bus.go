package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/chatterfix/backend/internal/domain/events"
)

// EventHandler is a function that handles a record event
type EventHandler func(ctx context.Context, event events.RecordEvent) error

// EventBus is the in-process publish-subscribe hub. The outbox worker is
// the only publisher in normal operation; services subscribe at startup.
type EventBus struct {
	handlers map[events.EventType][]EventHandler
	mu       sync.RWMutex
}

// NewEventBus creates a new EventBus instance
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[events.EventType][]EventHandler),
	}
}

// Subscribe registers a handler for a specific event type
func (eb *EventBus) Subscribe(eventType events.EventType, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
}

// Publish delivers an event to all registered handlers in sequence. The
// first handler error aborts delivery and is returned to the caller.
func (eb *EventBus) Publish(ctx context.Context, event events.RecordEvent) error {
	eb.mu.RLock()
	handlers := eb.handlers[event.EventType]
	eb.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return fmt.Errorf("event handler error for %s: %w", event.EventType, err)
		}
	}
	return nil
}

// Clear removes all handlers (useful for testing)
func (eb *EventBus) Clear() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers = make(map[events.EventType][]EventHandler)
}
