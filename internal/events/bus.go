// Package events provides the in-process event transport shared by both
// bounded contexts. It is the seam where an external broker would plug in:
// publishers and subscribers only see the Publisher/Subscriber contracts.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domain "github.com/fluxcart/api/internal/domain"
)

// Handler consumes a single event. Handlers must tolerate redelivery: the
// transport is at-least-once.
type Handler interface {
	Handle(ctx context.Context, event domain.Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event domain.Event) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, event domain.Event) error {
	return f(ctx, event)
}

// Publisher is the send side of the transport.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Subscriber is the registration side, used once at startup.
type Subscriber interface {
	Subscribe(eventName string, handler Handler)
}

// Bus is a synchronous in-process event bus keyed by event name. Dispatch is
// sequential in subscription order, preserving per-aggregate event ordering.
// Every subscriber runs even when an earlier one fails; the joined error is
// returned so the caller can abort its unit of work.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// BusOption customises Bus construction.
type BusOption func(*Bus)

// WithBusLogger attaches a logging seam invoked per delivery failure.
func WithBusLogger(logger func(ctx context.Context, event string, fields map[string]any)) BusOption {
	return func(b *Bus) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBus constructs an empty bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		handlers: make(map[string][]Handler),
		logger:   func(context.Context, string, map[string]any) {},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Subscribe registers a handler for an event name. Registration happens at
// startup; it is safe but unusual to subscribe after publishing began.
func (b *Bus) Subscribe(eventName string, handler Handler) {
	if eventName == "" || handler == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish delivers the event to every registered handler in order. An event
// with no subscribers is not an error.
func (b *Bus) Publish(ctx context.Context, event domain.Event) error {
	if event == nil {
		return errors.New("events: nil event")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("events: publish %s: %w", event.EventName(), err)
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.EventName()]))
	copy(handlers, b.handlers[event.EventName()])
	b.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			b.logger(ctx, "event.handler.failed", map[string]any{
				"event_name": event.EventName(),
				"event_id":   event.EventID(),
				"error":      err.Error(),
			})
			errs = append(errs, fmt.Errorf("events: handle %s: %w", event.EventName(), err))
		}
	}
	return errors.Join(errs...)
}
