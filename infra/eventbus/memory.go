// Package eventbus provides the Publisher implementations: an in-memory
// bus for tests and single-process runs, and a Kafka-backed publisher.
package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/finvault/ledger/pkg/eventbus"
)

// HandlerFunc consumes an event delivered by the memory bus.
type HandlerFunc func(ctx context.Context, event eventbus.Event) error

// MemoryPublisher is a simple in-memory Publisher. It records every
// published event and dispatches synchronously to registered handlers.
type MemoryPublisher struct {
	mu        sync.RWMutex
	handlers  map[string][]HandlerFunc
	published []eventbus.Event
	logger    *slog.Logger
}

// NewMemoryPublisher creates an in-memory publisher.
func NewMemoryPublisher(logger *slog.Logger) *MemoryPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryPublisher{
		handlers: make(map[string][]HandlerFunc),
		logger:   logger.With("bus", "memory"),
	}
}

// Register subscribes a handler to an event type.
func (p *MemoryPublisher) Register(eventType string, handler HandlerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[eventType] = append(p.handlers[eventType], handler)
}

// Publish records the event and dispatches it to registered handlers.
func (p *MemoryPublisher) Publish(ctx context.Context, event eventbus.Event) error {
	p.mu.Lock()
	p.published = append(p.published, event)
	handlers := append([]HandlerFunc(nil), p.handlers[event.Type()]...)
	p.mu.Unlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			p.logger.Error("event handler failed", "event_type", event.Type(), "error", err)
		}
	}
	return nil
}

// Published returns the events published so far. Test helper.
func (p *MemoryPublisher) Published() []eventbus.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]eventbus.Event(nil), p.published...)
}

var _ eventbus.Publisher = (*MemoryPublisher)(nil)
