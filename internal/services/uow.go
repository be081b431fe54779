package services

import (
	"context"
	"errors"
	"time"

	"github.com/fluxcart/api/internal/events"
	"github.com/fluxcart/api/internal/repositories"
)

// unitOfWork persists first, then dispatches. Handlers reload aggregates from
// the store, so the mutation must be durable before its events fan out; a
// handler failure after the write surfaces as an error without undoing the
// write, matching the at-least-once contract of the bus.
type unitOfWork struct {
	publisher events.Publisher
	logger    func(ctx context.Context, event string, fields map[string]any)
	clock     func() time.Time
}

// UnitOfWorkDeps wires the dependencies of the unit of work.
type UnitOfWorkDeps struct {
	Publisher events.Publisher
	Logger    func(ctx context.Context, event string, fields map[string]any)
	Clock     func() time.Time
}

// NewUnitOfWork constructs the persist-then-dispatch unit of work.
func NewUnitOfWork(deps UnitOfWorkDeps) (repositories.UnitOfWork, error) {
	if deps.Publisher == nil {
		return nil, errors.New("unit of work: publisher is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &unitOfWork{publisher: deps.Publisher, logger: logger, clock: clock}, nil
}

// Commit makes the mutation durable and then publishes its events in order.
func (u *unitOfWork) Commit(ctx context.Context, work repositories.Work) error {
	if work.Persist == nil {
		return errors.New("unit of work: persist step is required")
	}
	if err := work.Persist(ctx); err != nil {
		return err
	}

	var errs []error
	for _, event := range work.Events {
		if event == nil {
			continue
		}
		if err := u.publisher.Publish(ctx, event); err != nil {
			u.logger(ctx, "uow.dispatch.failed", map[string]any{
				"event_name": event.EventName(),
				"event_id":   event.EventID(),
				"error":      err.Error(),
			})
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
