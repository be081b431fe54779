package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SimulatedProvider approves every charge and records refunds in memory. It
// backs local development and the default deployment profile, where no real
// processor credentials exist.
type SimulatedProvider struct {
	clock  func() time.Time
	idGen  func() string
	logger Logger

	mu       sync.Mutex
	refunded map[string]bool
}

// SimulatedOption customises the SimulatedProvider.
type SimulatedOption func(*SimulatedProvider)

// WithSimulatedClock overrides the provider clock.
func WithSimulatedClock(clock func() time.Time) SimulatedOption {
	return func(p *SimulatedProvider) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// WithSimulatedIDGen overrides transaction id generation.
func WithSimulatedIDGen(idGen func() string) SimulatedOption {
	return func(p *SimulatedProvider) {
		if idGen != nil {
			p.idGen = idGen
		}
	}
}

// WithSimulatedLogger sets the logging seam.
func WithSimulatedLogger(logger Logger) SimulatedOption {
	return func(p *SimulatedProvider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewSimulatedProvider constructs an always-approving Provider.
func NewSimulatedProvider(opts ...SimulatedOption) *SimulatedProvider {
	p := &SimulatedProvider{
		clock:    time.Now,
		idGen:    func() string { return "TXN-" + ulid.Make().String() },
		logger:   func(context.Context, string, map[string]any) {},
		refunded: make(map[string]bool),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Charge approves the request and mints a transaction id.
func (p *SimulatedProvider) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if req.Amount.IsZero() {
		return ChargeResult{}, errors.New("gateway: charge amount is required")
	}
	result := ChargeResult{
		TransactionID: p.idGen(),
		ProcessedAt:   p.clock().UTC(),
	}
	p.logger(ctx, "gateway.simulated.charged", map[string]any{
		"payment_id":     req.PaymentID,
		"order_id":       req.OrderID,
		"transaction_id": result.TransactionID,
		"amount":         req.Amount.String(),
	})
	return result, nil
}

// Refund marks the transaction refunded. Refunding twice is rejected.
func (p *SimulatedProvider) Refund(ctx context.Context, req RefundRequest) error {
	if req.TransactionID == "" {
		return errors.New("gateway: transaction id is required")
	}

	p.mu.Lock()
	already := p.refunded[req.TransactionID]
	p.refunded[req.TransactionID] = true
	p.mu.Unlock()

	if already {
		return fmt.Errorf("gateway: transaction %s already refunded", req.TransactionID)
	}
	p.logger(ctx, "gateway.simulated.refunded", map[string]any{
		"transaction_id": req.TransactionID,
		"reason":         req.Reason,
	})
	return nil
}
