package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	domain "github.com/fluxcart/api/internal/domain"
)

type stripeIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type stripeRefundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

type stripeClients struct {
	intents stripeIntentAPI
	refunds stripeRefundAPI
}

// StripeProviderConfig configures the StripeProvider.
type StripeProviderConfig struct {
	APIKey   string
	Backends *stripe.Backends
	Logger   Logger
	Clock    func() time.Time
	Clients  *stripeClients
}

// StripeProvider implements Provider on the Stripe Payment Intents API.
type StripeProvider struct {
	api    stripeClients
	clock  func() time.Time
	logger Logger
}

// NewStripeProvider constructs a Stripe-backed Provider.
func NewStripeProvider(cfg StripeProviderConfig) (*StripeProvider, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Clients == nil {
		return nil, errors.New("stripe: api key is required")
	}

	var clients stripeClients
	if cfg.Clients != nil {
		clients = *cfg.Clients
	} else {
		sc := client.New(apiKey, cfg.Backends)
		clients = stripeClients{
			intents: sc.PaymentIntents,
			refunds: sc.Refunds,
		}
	}
	if clients.intents == nil || clients.refunds == nil {
		return nil, errors.New("stripe: incomplete client configuration")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &StripeProvider{
		api: clients,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// Charge creates and confirms a payment intent for the full amount.
func (p *StripeProvider) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if p == nil {
		return ChargeResult{}, errors.New("stripe: provider is nil")
	}
	minor, err := minorUnits(req.Amount)
	if err != nil {
		return ChargeResult{}, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minor),
		Currency: stripe.String(strings.ToLower(req.Amount.Currency())),
		Confirm:  stripe.Bool(true),
		Metadata: map[string]string{
			"payment_id": req.PaymentID,
			"order_id":   req.OrderID,
		},
	}
	params.Context = ctx
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}

	intent, err := p.api.intents.New(params)
	if err != nil {
		return ChargeResult{}, fmt.Errorf("stripe: create payment intent: %w", err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		return ChargeResult{}, fmt.Errorf("stripe: payment intent %s not captured (status %s)", intent.ID, intent.Status)
	}

	p.logger(ctx, "gateway.stripe.charged", map[string]any{
		"payment_id":     req.PaymentID,
		"payment_intent": intent.ID,
		"amount":         intent.Amount,
	})
	return ChargeResult{TransactionID: intent.ID, ProcessedAt: p.clock()}, nil
}

// Refund reverses a captured payment intent.
func (p *StripeProvider) Refund(ctx context.Context, req RefundRequest) error {
	if p == nil {
		return errors.New("stripe: provider is nil")
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.TransactionID),
	}
	params.Context = ctx
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		params.SetIdempotencyKey(key)
	}
	if !req.Amount.IsZero() {
		minor, err := minorUnits(req.Amount)
		if err != nil {
			return err
		}
		params.Amount = stripe.Int64(minor)
	}
	if reason := mapRefundReason(req.Reason); reason != "" {
		params.Reason = stripe.String(reason)
	}

	if _, err := p.api.refunds.New(params); err != nil {
		return fmt.Errorf("stripe: refund payment intent: %w", err)
	}
	p.logger(ctx, "gateway.stripe.refunded", map[string]any{
		"payment_intent": req.TransactionID,
	})
	return nil
}

// minorUnits converts a decimal amount into the processor's integer minor
// units. Two fractional digits are assumed, matching the currencies the
// checkout accepts today.
func minorUnits(m domain.Money) (int64, error) {
	scaled := m.Amount().Shift(2)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("stripe: amount %s has sub-cent precision", m)
	}
	return scaled.IntPart(), nil
}

func mapRefundReason(reason string) string {
	switch strings.ToLower(strings.TrimSpace(reason)) {
	case string(stripe.RefundReasonDuplicate):
		return string(stripe.RefundReasonDuplicate)
	case string(stripe.RefundReasonFraudulent):
		return string(stripe.RefundReasonFraudulent)
	case string(stripe.RefundReasonRequestedByCustomer):
		return string(stripe.RefundReasonRequestedByCustomer)
	default:
		return ""
	}
}
