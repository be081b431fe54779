package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/fluxcart/api/internal/domain"
	"github.com/fluxcart/api/internal/domain/payment"
	"github.com/fluxcart/api/internal/domain/spec"
	"github.com/fluxcart/api/internal/gateway"
	"github.com/fluxcart/api/internal/repositories"
)

var (
	// ErrPaymentInvalidInput indicates the caller supplied invalid input parameters.
	ErrPaymentInvalidInput = errors.New("payments: invalid input")
	// ErrPaymentNotFound indicates the referenced payment does not exist.
	ErrPaymentNotFound = errors.New("payments: not found")
	// ErrPaymentConflict indicates a concurrent modification; reload and retry.
	ErrPaymentConflict = errors.New("payments: conflict")
	// ErrPaymentUnavailable indicates payment dependencies are currently unavailable.
	ErrPaymentUnavailable = errors.New("payments: unavailable")
)

// PaymentServiceDeps wires the dependencies required by the payment service.
type PaymentServiceDeps struct {
	Payments           repositories.PaymentRepository
	UnitOfWork         repositories.UnitOfWork
	Gateway            gateway.Provider
	HighValueThreshold domain.Money
	Clock              func() time.Time
	Logger             func(ctx context.Context, event string, fields map[string]any)
}

type paymentService struct {
	payments  repositories.PaymentRepository
	uow       repositories.UnitOfWork
	gateway   gateway.Provider
	highValue domain.Money
	now       func() time.Time
	logger    func(ctx context.Context, event string, fields map[string]any)
}

// NewPaymentService constructs a PaymentService validating required dependencies.
func NewPaymentService(deps PaymentServiceDeps) (PaymentService, error) {
	if deps.Payments == nil {
		return nil, errors.New("payment service: payment repository is required")
	}
	if deps.UnitOfWork == nil {
		return nil, errors.New("payment service: unit of work is required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("payment service: gateway provider is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &paymentService{
		payments:  deps.Payments,
		uow:       deps.UnitOfWork,
		gateway:   deps.Gateway,
		highValue: deps.HighValueThreshold,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// CreatePayment opens a pending payment for an order.
func (s *paymentService) CreatePayment(ctx context.Context, cmd CreatePaymentCommand) (*payment.Payment, error) {
	orderID, err := payment.OrderRefFromRaw(cmd.OrderID)
	if err != nil {
		return nil, invalidPaymentInput(err)
	}
	customerID, err := domain.CustomerIDFromRaw(cmd.CustomerID)
	if err != nil {
		return nil, invalidPaymentInput(err)
	}
	amount, err := domain.ParseMoney(cmd.Amount, cmd.Currency)
	if err != nil {
		return nil, err
	}
	method, err := payment.ParseMethod(cmd.Method)
	if err != nil {
		return nil, invalidPaymentInput(err)
	}

	var card *payment.CardDetails
	if cmd.Card != nil {
		details, err := payment.NewCardDetails(cmd.Card.Last4, cmd.Card.CardType, cmd.Card.ExpiryMonth, cmd.Card.ExpiryYear, cmd.Card.Holder, s.now())
		if err != nil {
			return nil, err
		}
		card = &details
	}

	p, created, err := payment.CreateForOrder(orderID, customerID, amount, method, card, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.uow.Commit(ctx, repositories.Work{
		Events: []domain.Event{created},
		Persist: func(ctx context.Context) error {
			return s.payments.Insert(ctx, p)
		},
	}); err != nil {
		return nil, s.translateError(err)
	}

	s.logger(ctx, "payments.created", map[string]any{
		"payment_id": p.ID().Raw(),
		"order_id":   p.OrderID().Raw(),
		"amount":     p.Amount().String(),
	})
	return p, nil
}

// ProcessPayment moves a pending payment into processing.
func (s *paymentService) ProcessPayment(ctx context.Context, paymentID string) (*payment.Payment, error) {
	return s.mutate(ctx, paymentID, func(p *payment.Payment) ([]domain.Event, error) {
		started, err := p.StartProcessing(s.now())
		if err != nil {
			return nil, err
		}
		return []domain.Event{started}, nil
	})
}

// CompletePayment records the gateway confirmation.
func (s *paymentService) CompletePayment(ctx context.Context, paymentID, transactionID string) (*payment.Payment, error) {
	return s.mutate(ctx, paymentID, func(p *payment.Payment) ([]domain.Event, error) {
		completed, err := p.Complete(transactionID, s.now())
		if err != nil {
			return nil, err
		}
		return []domain.Event{completed}, nil
	})
}

// FailPayment records a declined or errored charge.
func (s *paymentService) FailPayment(ctx context.Context, paymentID, reason string) (*payment.Payment, error) {
	return s.mutate(ctx, paymentID, func(p *payment.Payment) ([]domain.Event, error) {
		failed, err := p.Fail(reason, s.now())
		if err != nil {
			return nil, err
		}
		return []domain.Event{failed}, nil
	})
}

// RefundPayment reverses a completed payment at the gateway and records it.
func (s *paymentService) RefundPayment(ctx context.Context, paymentID, reason string) (*payment.Payment, error) {
	id, err := payment.IDFromRaw(paymentID)
	if err != nil {
		return nil, invalidPaymentInput(err)
	}
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateError(err)
	}

	refunded, err := p.Refund(reason, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.gateway.Refund(ctx, gateway.RefundRequest{
		TransactionID:  p.TransactionID(),
		Amount:         p.Amount(),
		Reason:         reason,
		IdempotencyKey: "refund-" + p.ID().Raw(),
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}

	if err := s.uow.Commit(ctx, repositories.Work{
		Events: []domain.Event{refunded},
		Persist: func(ctx context.Context) error {
			return s.payments.Update(ctx, p)
		},
	}); err != nil {
		return nil, s.translateError(err)
	}
	return p, nil
}

// CancelPayment withdraws a payment that has not started processing.
func (s *paymentService) CancelPayment(ctx context.Context, paymentID, reason string) (*payment.Payment, error) {
	return s.mutate(ctx, paymentID, func(p *payment.Payment) ([]domain.Event, error) {
		cancelled, err := p.Cancel(reason, s.now())
		if err != nil {
			return nil, err
		}
		return []domain.Event{cancelled}, nil
	})
}

// ChargePayment drives one payment through the gateway: start processing,
// charge, then complete or fail with the gateway's verdict. Each transition
// commits separately so a crash between steps leaves a consistent record.
func (s *paymentService) ChargePayment(ctx context.Context, paymentID string) (*payment.Payment, error) {
	p, err := s.ProcessPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	result, chargeErr := s.gateway.Charge(ctx, gateway.ChargeRequest{
		PaymentID:      p.ID().Raw(),
		OrderID:        p.OrderID().Raw(),
		Amount:         p.Amount(),
		Method:         string(p.Method()),
		CardLast4:      cardLast4(p),
		IdempotencyKey: "charge-" + p.ID().Raw(),
	})
	if chargeErr != nil {
		s.logger(ctx, "payments.charge.declined", map[string]any{
			"payment_id": p.ID().Raw(),
			"error":      chargeErr.Error(),
		})
		return s.FailPayment(ctx, paymentID, chargeErr.Error())
	}

	return s.CompletePayment(ctx, paymentID, result.TransactionID)
}

// GetPayment loads one payment.
func (s *paymentService) GetPayment(ctx context.Context, paymentID string) (*payment.Payment, error) {
	id, err := payment.IDFromRaw(paymentID)
	if err != nil {
		return nil, invalidPaymentInput(err)
	}
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateError(err)
	}
	return p, nil
}

// GetPaymentByOrder loads the payment settling the given order.
func (s *paymentService) GetPaymentByOrder(ctx context.Context, orderID string) (*payment.Payment, error) {
	ref, err := payment.OrderRefFromRaw(orderID)
	if err != nil {
		return nil, invalidPaymentInput(err)
	}
	p, err := s.payments.FindByOrderID(ctx, ref)
	if err != nil {
		return nil, s.translateError(err)
	}
	return p, nil
}

// ListPayments combines the query filters into one specification and runs it
// store-side.
func (s *paymentService) ListPayments(ctx context.Context, query PaymentQuery) ([]*payment.Payment, error) {
	var children []spec.Node

	if customerID := strings.TrimSpace(query.CustomerID); customerID != "" {
		id, err := domain.CustomerIDFromRaw(customerID)
		if err != nil {
			return nil, invalidPaymentInput(err)
		}
		children = append(children, payment.ByCustomer(id))
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		parsed, err := payment.ParseStatus(status)
		if err != nil {
			return nil, invalidPaymentInput(err)
		}
		children = append(children, payment.ByStatus(parsed))
	}
	if view := strings.TrimSpace(query.View); view != "" {
		node, err := s.paymentView(view)
		if err != nil {
			return nil, err
		}
		children = append(children, node)
	}

	payments, err := s.payments.FindMatching(ctx, spec.All(children...))
	if err != nil {
		return nil, s.translateError(err)
	}
	return payments, nil
}

func (s *paymentService) paymentView(view string) (spec.Node, error) {
	switch strings.ToLower(view) {
	case "pending":
		return payment.Pending(), nil
	case "failed":
		return payment.FailedPayments(), nil
	case "refundable":
		return payment.Refundable(), nil
	case "high_value":
		if s.highValue.IsZero() {
			return nil, fmt.Errorf("%w: high-value threshold is not configured", ErrPaymentInvalidInput)
		}
		return payment.HighValue(s.highValue), nil
	default:
		return nil, fmt.Errorf("%w: unknown view %q", ErrPaymentInvalidInput, view)
	}
}

func (s *paymentService) mutate(ctx context.Context, paymentID string, fn func(p *payment.Payment) ([]domain.Event, error)) (*payment.Payment, error) {
	id, err := payment.IDFromRaw(paymentID)
	if err != nil {
		return nil, invalidPaymentInput(err)
	}
	p, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateError(err)
	}

	evts, err := fn(p)
	if err != nil {
		return nil, err
	}

	if err := s.uow.Commit(ctx, repositories.Work{
		Events: evts,
		Persist: func(ctx context.Context) error {
			return s.payments.Update(ctx, p)
		},
	}); err != nil {
		return nil, s.translateError(err)
	}
	return p, nil
}

func (s *paymentService) translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case repositories.IsNotFound(err):
		return fmt.Errorf("%w: %v", ErrPaymentNotFound, err)
	case repositories.IsConflict(err):
		return fmt.Errorf("%w: %v", ErrPaymentConflict, err)
	case repositories.IsUnavailable(err):
		return fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	default:
		return err
	}
}

func invalidPaymentInput(err error) error {
	return fmt.Errorf("%w: %v", ErrPaymentInvalidInput, err)
}

func cardLast4(p *payment.Payment) string {
	if card := p.Card(); card != nil {
		return card.Last4()
	}
	return ""
}
