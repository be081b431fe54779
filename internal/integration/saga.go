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
	"github.com/fluxcart/api/internal/platform/idempotency"
	"github.com/fluxcart/api/internal/services"
)

// orderCoordinator is the slice of the order service the saga drives.
type orderCoordinator interface {
	MarkOrderPaid(ctx context.Context, orderID string, paidAt time.Time) (*order.Order, error)
	MarkOrderPaymentFailed(ctx context.Context, orderID, reason string) (*order.Order, error)
}

// paymentCoordinator is the slice of the payment service the saga drives.
type paymentCoordinator interface {
	CreatePayment(ctx context.Context, cmd services.CreatePaymentCommand) (*payment.Payment, error)
	ChargePayment(ctx context.Context, paymentID string) (*payment.Payment, error)
}

// InstrumentConfig is the default payment instrument the saga uses when the
// order context requests a payment. Submitting customers have no stored
// instruments yet, so every saga payment is opened against this one.
type InstrumentConfig struct {
	Method        string
	CardLast4     string
	CardType      string
	CardHolder    string
	CardLifeYears int
}

// PaymentSagaDeps wires the dependencies required by the saga.
type PaymentSagaDeps struct {
	Orders         orderCoordinator
	Payments       paymentCoordinator
	Idempotency    idempotency.Store
	Instrument     InstrumentConfig
	ChargeOnSubmit bool
	IdempotencyTTL time.Duration
	Clock          func() time.Time
	Logger         func(ctx context.Context, event string, fields map[string]any)
}

// PaymentSaga choreographs the two contexts: a submitted order opens and
// charges a payment, and the payment outcome is reflected back onto the
// order. Handlers are keyed by integration event id, so redelivery of an
// already-handled event is a no-op.
type PaymentSaga struct {
	orders         orderCoordinator
	payments       paymentCoordinator
	idempotency    idempotency.Store
	instrument     InstrumentConfig
	chargeOnSubmit bool
	idempotencyTTL time.Duration
	now            func() time.Time
	logger         func(ctx context.Context, event string, fields map[string]any)
}

// NewPaymentSaga constructs a PaymentSaga validating required dependencies.
func NewPaymentSaga(deps PaymentSagaDeps) (*PaymentSaga, error) {
	if deps.Orders == nil {
		return nil, errors.New("payment saga: order coordinator is required")
	}
	if deps.Payments == nil {
		return nil, errors.New("payment saga: payment coordinator is required")
	}
	if deps.Idempotency == nil {
		return nil, errors.New("payment saga: idempotency store is required")
	}

	ttl := deps.IdempotencyTTL
	if ttl <= 0 {
		ttl = idempotency.DefaultTTL
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &PaymentSaga{
		orders:         deps.Orders,
		payments:       deps.Payments,
		idempotency:    deps.Idempotency,
		instrument:     deps.Instrument,
		chargeOnSubmit: deps.ChargeOnSubmit,
		idempotencyTTL: ttl,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// Register subscribes the saga to the integration events.
func (s *PaymentSaga) Register(subscriber events.Subscriber) {
	subscriber.Subscribe(EventOrderSubmitted, events.HandlerFunc(s.handleOrderSubmitted))
	subscriber.Subscribe(EventPaymentCompleted, events.HandlerFunc(s.handlePaymentCompleted))
	subscriber.Subscribe(EventPaymentFailed, events.HandlerFunc(s.handlePaymentFailed))
}

// handleOrderSubmitted opens a payment for the submitted order and, when
// configured, drives it through the gateway immediately.
func (s *PaymentSaga) handleOrderSubmitted(ctx context.Context, event domain.Event) error {
	submitted, ok := event.(OrderSubmitted)
	if !ok {
		return fmt.Errorf("payment saga: unexpected event type %T for %s", event, EventOrderSubmitted)
	}
	return s.once(ctx, submitted, func() error {
		p, err := s.payments.CreatePayment(ctx, services.CreatePaymentCommand{
			OrderID:    submitted.OrderID,
			CustomerID: submitted.CustomerID,
			Amount:     submitted.TotalAmount,
			Currency:   submitted.Currency,
			Method:     s.instrument.Method,
			Card:       s.defaultCard(),
		})
		if err != nil {
			return fmt.Errorf("payment saga: create payment for order %s: %w", submitted.OrderID, err)
		}
		s.logger(ctx, "saga.payment.opened", map[string]any{
			"order_id":   submitted.OrderID,
			"payment_id": p.ID().Raw(),
			"amount":     p.Amount().String(),
		})

		if !s.chargeOnSubmit {
			return nil
		}
		if _, err := s.payments.ChargePayment(ctx, p.ID().Raw()); err != nil {
			return fmt.Errorf("payment saga: charge payment %s: %w", p.ID().Raw(), err)
		}
		return nil
	})
}

// handlePaymentCompleted reflects the successful charge onto the order. A
// redelivered completion for an order that already left the submitted state
// is dropped rather than failed.
func (s *PaymentSaga) handlePaymentCompleted(ctx context.Context, event domain.Event) error {
	completed, ok := event.(PaymentCompleted)
	if !ok {
		return fmt.Errorf("payment saga: unexpected event type %T for %s", event, EventPaymentCompleted)
	}
	return s.once(ctx, completed, func() error {
		if _, err := s.orders.MarkOrderPaid(ctx, completed.OrderID, completed.CompletedAt); err != nil {
			if isOrderStateRace(err) {
				s.logger(ctx, "saga.mark_paid.skipped", map[string]any{
					"order_id":   completed.OrderID,
					"payment_id": completed.PaymentID,
					"reason":     err.Error(),
				})
				return nil
			}
			return fmt.Errorf("payment saga: mark order %s paid: %w", completed.OrderID, err)
		}
		s.logger(ctx, "saga.order.paid", map[string]any{
			"order_id":       completed.OrderID,
			"payment_id":     completed.PaymentID,
			"transaction_id": completed.TransactionID,
		})
		return nil
	})
}

// handlePaymentFailed reflects the declined charge onto the order with the
// same redelivery tolerance as completion.
func (s *PaymentSaga) handlePaymentFailed(ctx context.Context, event domain.Event) error {
	failed, ok := event.(PaymentFailed)
	if !ok {
		return fmt.Errorf("payment saga: unexpected event type %T for %s", event, EventPaymentFailed)
	}
	return s.once(ctx, failed, func() error {
		if _, err := s.orders.MarkOrderPaymentFailed(ctx, failed.OrderID, failed.Reason); err != nil {
			if isOrderStateRace(err) {
				s.logger(ctx, "saga.mark_failed.skipped", map[string]any{
					"order_id":   failed.OrderID,
					"payment_id": failed.PaymentID,
					"reason":     err.Error(),
				})
				return nil
			}
			return fmt.Errorf("payment saga: mark order %s payment failed: %w", failed.OrderID, err)
		}
		s.logger(ctx, "saga.order.payment_failed", map[string]any{
			"order_id":   failed.OrderID,
			"payment_id": failed.PaymentID,
			"reason":     failed.Reason,
		})
		return nil
	})
}

// once claims the event id in the idempotency store, runs the handler body,
// and releases the claim if the body fails so a redelivery can retry the
// work. A duplicate claim is logged and dropped.
func (s *PaymentSaga) once(ctx context.Context, event domain.Event, handle func() error) error {
	key := event.EventName() + ":" + event.EventID()
	fresh, err := s.idempotency.Reserve(ctx, key, s.now(), s.idempotencyTTL)
	if err != nil {
		return fmt.Errorf("payment saga: reserve %s: %w", event.EventID(), err)
	}
	if !fresh {
		s.logger(ctx, "saga.event.duplicate", map[string]any{
			"event_name": event.EventName(),
			"event_id":   event.EventID(),
		})
		return nil
	}

	if err := handle(); err != nil {
		if releaseErr := s.idempotency.Release(ctx, key); releaseErr != nil {
			s.logger(ctx, "saga.reservation.release_failed", map[string]any{
				"event_name": event.EventName(),
				"event_id":   event.EventID(),
				"error":      releaseErr.Error(),
			})
		}
		return err
	}
	return nil
}

func (s *PaymentSaga) defaultCard() *services.CardInput {
	method, err := payment.ParseMethod(s.instrument.Method)
	if err != nil || !method.RequiresCard() {
		return nil
	}
	expiry := s.now().AddDate(s.instrument.CardLifeYears, 0, 0)
	return &services.CardInput{
		Last4:       s.instrument.CardLast4,
		CardType:    s.instrument.CardType,
		ExpiryMonth: int(expiry.Month()),
		ExpiryYear:  expiry.Year(),
		Holder:      s.instrument.CardHolder,
	}
}

// isOrderStateRace reports whether marking the order failed only because the
// order already left the submitted state, which is the expected outcome of a
// redelivered or out-of-date payment event.
func isOrderStateRace(err error) bool {
	ruleErr, ok := domain.AsRuleError(err)
	return ok && ruleErr.Code == order.CodeNotSubmitted
}
