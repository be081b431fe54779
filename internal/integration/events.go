// Package integration is the anti-corruption layer between the order and
// payment contexts. Domain events are translated into flat integration events
// carrying only primitives; the saga reacts to those and drives the other
// context exclusively through its application service.
package integration

import (
	"errors"
	"fmt"
	"time"

	domain "github.com/fluxcart/api/internal/domain"
)

// Integration event names on the shared bus.
const (
	EventOrderSubmitted   = "integration.order.submitted"
	EventPaymentCompleted = "integration.payment.completed"
	EventPaymentFailed    = "integration.payment.failed"
)

// OrderSubmitted crosses from the order context into the payment context. It
// carries everything the payment context needs to open a payment, as plain
// values.
type OrderSubmitted struct {
	domain.EventMeta
	OrderID     string
	CustomerID  string
	TotalAmount string
	Currency    string
	SubmittedAt time.Time
}

// EventName implements domain.Event.
func (OrderSubmitted) EventName() string { return EventOrderSubmitted }

// PaymentCompleted crosses from the payment context back into the order
// context after a successful charge.
type PaymentCompleted struct {
	domain.EventMeta
	PaymentID     string
	OrderID       string
	Amount        string
	Currency      string
	TransactionID string
	CompletedAt   time.Time
}

// EventName implements domain.Event.
func (PaymentCompleted) EventName() string { return EventPaymentCompleted }

// PaymentFailed crosses from the payment context back into the order context
// after a declined or errored charge.
type PaymentFailed struct {
	domain.EventMeta
	PaymentID string
	OrderID   string
	Reason    string
}

// EventName implements domain.Event.
func (PaymentFailed) EventName() string { return EventPaymentFailed }

// TranslationError reports a domain event that could not be mapped to its
// integration shape. It marks a programming or data error, not a transient
// fault: retrying will not help.
type TranslationError struct {
	Event string
	Field string
	Cause error
}

func (e *TranslationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("integration: translate %s: field %s: %v", e.Event, e.Field, e.Cause)
	}
	return fmt.Sprintf("integration: translate %s: field %s is required", e.Event, e.Field)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *TranslationError) Unwrap() error { return e.Cause }

// IsTranslationError reports whether err is a translation failure.
func IsTranslationError(err error) bool {
	var translationErr *TranslationError
	return errors.As(err, &translationErr)
}
