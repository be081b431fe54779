package payment

import (
	"time"

	domain "github.com/fluxcart/api/internal/domain"
)

// Domain event names for the payment context.
const (
	EventCreated           = "payment.created"
	EventProcessingStarted = "payment.processing.started"
	EventCompleted         = "payment.completed"
	EventFailed            = "payment.failed"
	EventRefunded          = "payment.refunded"
	EventCancelled         = "payment.cancelled"
)

// Created is raised when a payment is opened for an order.
type Created struct {
	domain.EventMeta
	PaymentID ID
	OrderID   OrderRef
	Amount    domain.Money
}

// EventName identifies the event type on the bus.
func (Created) EventName() string { return EventCreated }

// ProcessingStarted is raised when the gateway charge begins.
type ProcessingStarted struct {
	domain.EventMeta
	PaymentID ID
	OrderID   OrderRef
}

func (ProcessingStarted) EventName() string { return EventProcessingStarted }

// Completed is the saga event back to the order context.
type Completed struct {
	domain.EventMeta
	PaymentID     ID
	OrderID       OrderRef
	Amount        domain.Money
	TransactionID string
	CompletedAt   time.Time
}

func (Completed) EventName() string { return EventCompleted }

// Failed is the compensating saga event back to the order context.
type Failed struct {
	domain.EventMeta
	PaymentID ID
	OrderID   OrderRef
	Reason    string
}

func (Failed) EventName() string { return EventFailed }

// Refunded is raised when a completed payment is returned.
type Refunded struct {
	domain.EventMeta
	PaymentID ID
	OrderID   OrderRef
	Amount    domain.Money
	Reason    string
}

func (Refunded) EventName() string { return EventRefunded }

// Cancelled is raised when a pending payment is withdrawn.
type Cancelled struct {
	domain.EventMeta
	PaymentID ID
	OrderID   OrderRef
	Reason    string
}

func (Cancelled) EventName() string { return EventCancelled }
