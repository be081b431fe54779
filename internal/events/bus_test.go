package events

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/fluxcart/api/internal/domain"
)

type stubEvent struct {
	domain.EventMeta
	name string
}

func (e stubEvent) EventName() string { return e.name }

func newStubEvent(name string) stubEvent {
	return stubEvent{
		EventMeta: domain.NewEventMeta(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)),
		name:      name,
	}
}

func TestPublishSequentialOrder(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var order []string
	bus.Subscribe("order.submitted", HandlerFunc(func(ctx context.Context, event domain.Event) error {
		order = append(order, "first")
		return nil
	}))
	bus.Subscribe("order.submitted", HandlerFunc(func(ctx context.Context, event domain.Event) error {
		order = append(order, "second")
		return nil
	}))

	if err := bus.Publish(context.Background(), newStubEvent("order.submitted")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("delivery order = %v", order)
	}
}

func TestPublishRunsAllHandlersDespiteFailure(t *testing.T) {
	t.Parallel()

	failure := errors.New("handler blew up")
	var logged []string
	bus := NewBus(WithBusLogger(func(ctx context.Context, event string, fields map[string]any) {
		logged = append(logged, event)
	}))

	secondRan := false
	bus.Subscribe("payment.completed", HandlerFunc(func(ctx context.Context, event domain.Event) error {
		return failure
	}))
	bus.Subscribe("payment.completed", HandlerFunc(func(ctx context.Context, event domain.Event) error {
		secondRan = true
		return nil
	}))

	err := bus.Publish(context.Background(), newStubEvent("payment.completed"))
	if !errors.Is(err, failure) {
		t.Fatalf("expected joined error to wrap handler failure, got %v", err)
	}
	if !secondRan {
		t.Fatal("second handler must run even when the first fails")
	}
	if len(logged) != 1 || logged[0] != "event.handler.failed" {
		t.Fatalf("logged = %v", logged)
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	if err := bus.Publish(context.Background(), newStubEvent("order.cancelled")); err != nil {
		t.Fatalf("publish with no subscribers: %v", err)
	}
}

func TestPublishOnlyMatchingName(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	delivered := 0
	bus.Subscribe("order.submitted", HandlerFunc(func(ctx context.Context, event domain.Event) error {
		delivered++
		return nil
	}))

	if err := bus.Publish(context.Background(), newStubEvent("order.cancelled")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if delivered != 0 {
		t.Fatalf("handler received %d events for a different name", delivered)
	}
}

func TestPublishCancelledContext(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := bus.Publish(ctx, newStubEvent("order.submitted"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPublishNilEvent(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	if err := bus.Publish(context.Background(), nil); err == nil {
		t.Fatal("expected nil event to be rejected")
	}
}
