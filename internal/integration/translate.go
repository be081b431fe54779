package integration

import (
	"github.com/fluxcart/api/internal/domain/order"
	"github.com/fluxcart/api/internal/domain/payment"
)

// The translators are pure: they carry the source event's identity across the
// boundary so a redelivered domain event maps to the same integration event
// id, which is what the saga's idempotency store keys on.

// TranslateOrderSubmitted maps the domain event to its integration shape.
func TranslateOrderSubmitted(e order.Submitted) (OrderSubmitted, error) {
	if e.OrderID.IsZero() {
		return OrderSubmitted{}, &TranslationError{Event: EventOrderSubmitted, Field: "order_id"}
	}
	if e.CustomerID.IsZero() {
		return OrderSubmitted{}, &TranslationError{Event: EventOrderSubmitted, Field: "customer_id"}
	}
	if !e.TotalAmount.IsPositive() {
		return OrderSubmitted{}, &TranslationError{Event: EventOrderSubmitted, Field: "total_amount"}
	}
	return OrderSubmitted{
		EventMeta:   e.EventMeta,
		OrderID:     e.OrderID.Raw(),
		CustomerID:  e.CustomerID.Raw(),
		TotalAmount: e.TotalAmount.Amount().StringFixed(2),
		Currency:    e.TotalAmount.Currency(),
		SubmittedAt: e.SubmittedAt,
	}, nil
}

// TranslatePaymentCompleted maps the domain event to its integration shape.
func TranslatePaymentCompleted(e payment.Completed) (PaymentCompleted, error) {
	if e.PaymentID.IsZero() {
		return PaymentCompleted{}, &TranslationError{Event: EventPaymentCompleted, Field: "payment_id"}
	}
	if e.OrderID.IsZero() {
		return PaymentCompleted{}, &TranslationError{Event: EventPaymentCompleted, Field: "order_id"}
	}
	if e.TransactionID == "" {
		return PaymentCompleted{}, &TranslationError{Event: EventPaymentCompleted, Field: "transaction_id"}
	}
	return PaymentCompleted{
		EventMeta:     e.EventMeta,
		PaymentID:     e.PaymentID.Raw(),
		OrderID:       e.OrderID.Raw(),
		Amount:        e.Amount.Amount().StringFixed(2),
		Currency:      e.Amount.Currency(),
		TransactionID: e.TransactionID,
		CompletedAt:   e.CompletedAt,
	}, nil
}

// TranslatePaymentFailed maps the domain event to its integration shape.
func TranslatePaymentFailed(e payment.Failed) (PaymentFailed, error) {
	if e.PaymentID.IsZero() {
		return PaymentFailed{}, &TranslationError{Event: EventPaymentFailed, Field: "payment_id"}
	}
	if e.OrderID.IsZero() {
		return PaymentFailed{}, &TranslationError{Event: EventPaymentFailed, Field: "order_id"}
	}
	if e.Reason == "" {
		return PaymentFailed{}, &TranslationError{Event: EventPaymentFailed, Field: "reason"}
	}
	return PaymentFailed{
		EventMeta: e.EventMeta,
		PaymentID: e.PaymentID.Raw(),
		OrderID:   e.OrderID.Raw(),
		Reason:    e.Reason,
	}, nil
}
