// Package gateway abstracts the external payment processor. The saga charges
// through a Provider and feeds the resulting transaction id back into the
// payment aggregate.
package gateway

import (
	"context"
	"time"

	domain "github.com/fluxcart/api/internal/domain"
)

// Logger defines the logging contract for gateway operations.
type Logger func(ctx context.Context, event string, fields map[string]any)

// ChargeRequest describes one charge attempt against the processor.
type ChargeRequest struct {
	PaymentID      string
	OrderID        string
	Amount         domain.Money
	Method         string
	CardLast4      string
	IdempotencyKey string
}

// ChargeResult carries the processor's transaction reference.
type ChargeResult struct {
	TransactionID string
	ProcessedAt   time.Time
}

// RefundRequest reverses a previously captured charge.
type RefundRequest struct {
	TransactionID  string
	Amount         domain.Money
	Reason         string
	IdempotencyKey string
}

// Provider is the processor-facing contract.
type Provider interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) error
}
