package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/fluxcart/api/internal/domain"
	"github.com/fluxcart/api/internal/domain/order"
	"github.com/fluxcart/api/internal/domain/payment"
	"github.com/fluxcart/api/internal/events"
)

// Relay subscribes to the boundary-crossing domain events, translates each to
// its integration shape, and republishes it on the same bus. Everything else
// in either context only ever sees the integration events.
type Relay struct {
	publisher events.Publisher
	logger    func(ctx context.Context, event string, fields map[string]any)
}

// RelayDeps wires the dependencies of the relay.
type RelayDeps struct {
	Publisher events.Publisher
	Logger    func(ctx context.Context, event string, fields map[string]any)
}

// NewRelay constructs a Relay validating required dependencies.
func NewRelay(deps RelayDeps) (*Relay, error) {
	if deps.Publisher == nil {
		return nil, errors.New("relay: publisher is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &Relay{publisher: deps.Publisher, logger: logger}, nil
}

// Register subscribes the relay to the boundary-crossing domain events.
func (r *Relay) Register(subscriber events.Subscriber) {
	subscriber.Subscribe(order.EventSubmitted, events.HandlerFunc(r.relayOrderSubmitted))
	subscriber.Subscribe(payment.EventCompleted, events.HandlerFunc(r.relayPaymentCompleted))
	subscriber.Subscribe(payment.EventFailed, events.HandlerFunc(r.relayPaymentFailed))
}

func (r *Relay) relayOrderSubmitted(ctx context.Context, event domain.Event) error {
	submitted, ok := event.(order.Submitted)
	if !ok {
		return fmt.Errorf("relay: unexpected event type %T for %s", event, order.EventSubmitted)
	}
	translated, err := TranslateOrderSubmitted(submitted)
	if err != nil {
		return err
	}
	return r.forward(ctx, translated, translated.OrderID)
}

func (r *Relay) relayPaymentCompleted(ctx context.Context, event domain.Event) error {
	completed, ok := event.(payment.Completed)
	if !ok {
		return fmt.Errorf("relay: unexpected event type %T for %s", event, payment.EventCompleted)
	}
	translated, err := TranslatePaymentCompleted(completed)
	if err != nil {
		return err
	}
	return r.forward(ctx, translated, translated.OrderID)
}

func (r *Relay) relayPaymentFailed(ctx context.Context, event domain.Event) error {
	failed, ok := event.(payment.Failed)
	if !ok {
		return fmt.Errorf("relay: unexpected event type %T for %s", event, payment.EventFailed)
	}
	translated, err := TranslatePaymentFailed(failed)
	if err != nil {
		return err
	}
	return r.forward(ctx, translated, translated.OrderID)
}

func (r *Relay) forward(ctx context.Context, event domain.Event, orderID string) error {
	start := time.Now()
	if err := r.publisher.Publish(ctx, event); err != nil {
		return err
	}
	r.logger(ctx, "integration.relayed", map[string]any{
		"event_name": event.EventName(),
		"event_id":   event.EventID(),
		"order_id":   orderID,
		"took_ms":    time.Since(start).Milliseconds(),
	})
	return nil
}
