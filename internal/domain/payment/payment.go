package payment

import (
	"strings"
	"time"

	domain "github.com/fluxcart/api/internal/domain"
)

const idPrefix = "pay_"

// Rule violation codes for the payment context.
const (
	CodeAmountNotPositive   = "PAYMENT_AMOUNT_NOT_POSITIVE"
	CodeCardRequired        = "PAYMENT_CARD_REQUIRED"
	CodeCardExpired         = "PAYMENT_CARD_EXPIRED"
	CodeCardLast4           = "PAYMENT_CARD_LAST4"
	CodeCardType            = "PAYMENT_CARD_TYPE"
	CodeCardExpiry          = "PAYMENT_CARD_EXPIRY"
	CodeCardHolder          = "PAYMENT_CARD_HOLDER"
	CodeNotPending          = "PAYMENT_NOT_PENDING"
	CodeNotProcessing       = "PAYMENT_NOT_PROCESSING"
	CodeNotCompleted        = "PAYMENT_NOT_COMPLETED"
	CodeNotFailable         = "PAYMENT_NOT_FAILABLE"
	CodeTransactionRequired = "PAYMENT_TRANSACTION_REQUIRED"
	CodeReasonRequired      = "PAYMENT_REASON_REQUIRED"
)

// ID identifies a payment aggregate.
type ID struct {
	value string
}

// NewID mints a fresh payment identifier.
func NewID() ID {
	return ID{value: domain.NewPrefixedID(idPrefix)}
}

// IDFromRaw validates and wraps a raw payment identifier.
func IDFromRaw(raw string) (ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ID{}, &domain.RuleError{Code: domain.CodeIdentifierRequired, Message: "payment id is required"}
	}
	return ID{value: raw}, nil
}

// Raw returns the underlying identifier.
func (id ID) Raw() string { return id.value }

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool { return id.value == "" }

// OrderRef references an order in the other bounded context. The payment
// context never loads orders; only the identifier crosses the boundary.
type OrderRef struct {
	value string
}

// OrderRefFromRaw validates and wraps a raw order identifier.
func OrderRefFromRaw(raw string) (OrderRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return OrderRef{}, &domain.RuleError{Code: domain.CodeIdentifierRequired, Message: "order reference is required"}
	}
	return OrderRef{value: raw}, nil
}

// Raw returns the underlying identifier.
func (r OrderRef) Raw() string { return r.value }

// IsZero reports whether the reference is unset.
func (r OrderRef) IsZero() bool { return r.value == "" }

// Payment is the aggregate root of the payment context. It has no child
// entities; behaviour methods enforce the Pending→Processing→{Completed|
// Failed}, Completed→Refunded, Pending→Cancelled machine and return the
// events they raise.
type Payment struct {
	id            ID
	orderID       OrderRef
	customerID    domain.CustomerID
	amount        domain.Money
	status        Status
	method        Method
	card          *CardDetails
	transactionID string
	failureReason string
	createdAt     time.Time
	processedAt   *time.Time
	completedAt   *time.Time

	version       int64
	storedVersion int64
}

// CreateForOrder opens a pending payment for an order. Card methods require
// card details; the amount must be strictly positive.
func CreateForOrder(orderID OrderRef, customerID domain.CustomerID, amount domain.Money, method Method, card *CardDetails, now time.Time) (*Payment, Created, error) {
	if orderID.IsZero() {
		return nil, Created{}, &domain.RuleError{Code: domain.CodeIdentifierRequired, Message: "order reference is required"}
	}
	if customerID.IsZero() {
		return nil, Created{}, &domain.RuleError{Code: domain.CodeIdentifierRequired, Message: "customer id is required"}
	}
	if !amount.IsPositive() {
		return nil, Created{}, &domain.RuleError{Code: CodeAmountNotPositive, Message: "payment amount must be positive"}
	}
	if method.RequiresCard() && card == nil {
		return nil, Created{}, &domain.RuleError{Code: CodeCardRequired, Message: "card details are required for card payments"}
	}

	p := &Payment{
		id:         NewID(),
		orderID:    orderID,
		customerID: customerID,
		amount:     amount,
		status:     StatusPending,
		method:     method,
		card:       cloneCard(card),
		createdAt:  now.UTC(),
		version:    1,
	}
	event := Created{
		EventMeta: domain.NewEventMeta(now),
		PaymentID: p.id,
		OrderID:   p.orderID,
		Amount:    p.amount,
	}
	return p, event, nil
}

// StartProcessing begins the gateway charge. Card expiry is re-validated
// here: time has passed since the payment was created.
func (p *Payment) StartProcessing(now time.Time) (ProcessingStarted, error) {
	if !p.status.CanBeProcessed() {
		return ProcessingStarted{}, &domain.RuleError{
			Code:    CodeNotPending,
			Message: "cannot process payment in " + string(p.status) + " status",
		}
	}
	if p.card != nil && p.card.ExpiredAt(now) {
		return ProcessingStarted{}, &domain.RuleError{Code: CodeCardExpired, Message: "card has expired"}
	}

	processedAt := now.UTC()
	p.status = StatusProcessing
	p.processedAt = &processedAt
	p.touch()

	return ProcessingStarted{
		EventMeta: domain.NewEventMeta(now),
		PaymentID: p.id,
		OrderID:   p.orderID,
	}, nil
}

// Complete records the gateway confirmation and its transaction reference.
func (p *Payment) Complete(transactionID string, now time.Time) (Completed, error) {
	if !p.status.CanBeCompleted() {
		return Completed{}, &domain.RuleError{
			Code:    CodeNotProcessing,
			Message: "cannot complete payment in " + string(p.status) + " status",
		}
	}
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return Completed{}, &domain.RuleError{Code: CodeTransactionRequired, Message: "transaction id is required"}
	}

	completedAt := now.UTC()
	p.status = StatusCompleted
	p.transactionID = transactionID
	p.completedAt = &completedAt
	p.touch()

	return Completed{
		EventMeta:     domain.NewEventMeta(now),
		PaymentID:     p.id,
		OrderID:       p.orderID,
		Amount:        p.amount,
		TransactionID: transactionID,
		CompletedAt:   completedAt,
	}, nil
}

// Fail records a declined or errored charge, from Pending or Processing.
func (p *Payment) Fail(reason string, now time.Time) (Failed, error) {
	if !p.status.CanFail() {
		return Failed{}, &domain.RuleError{
			Code:    CodeNotFailable,
			Message: "cannot fail payment in " + string(p.status) + " status",
		}
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Failed{}, &domain.RuleError{Code: CodeReasonRequired, Message: "failure reason is required"}
	}

	p.status = StatusFailed
	p.failureReason = reason
	p.touch()

	return Failed{
		EventMeta: domain.NewEventMeta(now),
		PaymentID: p.id,
		OrderID:   p.orderID,
		Reason:    reason,
	}, nil
}

// Refund returns a completed payment.
func (p *Payment) Refund(reason string, now time.Time) (Refunded, error) {
	if !p.status.CanBeRefunded() {
		return Refunded{}, &domain.RuleError{
			Code:    CodeNotCompleted,
			Message: "cannot refund payment in " + string(p.status) + " status",
		}
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Refunded{}, &domain.RuleError{Code: CodeReasonRequired, Message: "refund reason is required"}
	}

	p.status = StatusRefunded
	p.touch()

	return Refunded{
		EventMeta: domain.NewEventMeta(now),
		PaymentID: p.id,
		OrderID:   p.orderID,
		Amount:    p.amount,
		Reason:    reason,
	}, nil
}

// Cancel withdraws a payment that has not started processing.
func (p *Payment) Cancel(reason string, now time.Time) (Cancelled, error) {
	if !p.status.CanBeCancelled() {
		return Cancelled{}, &domain.RuleError{
			Code:    CodeNotPending,
			Message: "cannot cancel payment in " + string(p.status) + " status",
		}
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Cancelled{}, &domain.RuleError{Code: CodeReasonRequired, Message: "cancellation reason is required"}
	}

	p.status = StatusCancelled
	p.failureReason = reason
	p.touch()

	return Cancelled{
		EventMeta: domain.NewEventMeta(now),
		PaymentID: p.id,
		OrderID:   p.orderID,
		Reason:    reason,
	}, nil
}

// ID returns the aggregate identifier.
func (p *Payment) ID() ID { return p.id }

// OrderID returns the order reference this payment settles.
func (p *Payment) OrderID() OrderRef { return p.orderID }

// CustomerID returns the paying customer reference.
func (p *Payment) CustomerID() domain.CustomerID { return p.customerID }

// Amount returns the payment amount.
func (p *Payment) Amount() domain.Money { return p.amount }

// Status returns the current lifecycle state.
func (p *Payment) Status() Status { return p.status }

// Method returns the payment instrument.
func (p *Payment) Method() Method { return p.method }

// Card returns a copy of the card snapshot, nil for cardless methods.
func (p *Payment) Card() *CardDetails { return cloneCard(p.card) }

// TransactionID returns the gateway reference, empty until completion.
func (p *Payment) TransactionID() string { return p.transactionID }

// FailureReason returns the recorded failure or cancellation reason.
func (p *Payment) FailureReason() string { return p.failureReason }

// CreatedAt returns the creation time.
func (p *Payment) CreatedAt() time.Time { return p.createdAt }

// ProcessedAt returns when processing began, if it has.
func (p *Payment) ProcessedAt() *time.Time { return p.processedAt }

// CompletedAt returns when the payment completed, if it has.
func (p *Payment) CompletedAt() *time.Time { return p.completedAt }

// Version returns the optimistic-concurrency counter after in-memory
// mutations.
func (p *Payment) Version() int64 { return p.version }

// StoredVersion returns the version as loaded from the store.
func (p *Payment) StoredVersion() int64 { return p.storedVersion }

func (p *Payment) touch() {
	p.version++
}

func cloneCard(card *CardDetails) *CardDetails {
	if card == nil {
		return nil
	}
	clone := *card
	return &clone
}
