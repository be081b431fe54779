package order

import (
	"time"

	domain "github.com/fluxcart/api/internal/domain"
)

// Domain event names for the order context.
const (
	EventCreated       = "order.created"
	EventItemAdded     = "order.item.added"
	EventSubmitted     = "order.submitted"
	EventPaid          = "order.paid"
	EventPaymentFailed = "order.payment.failed"
	EventShipped       = "order.shipped"
	EventDelivered     = "order.delivered"
	EventCancelled     = "order.cancelled"
)

// Created is raised when a new draft order comes into existence.
type Created struct {
	domain.EventMeta
	OrderID    ID
	CustomerID domain.CustomerID
}

// EventName identifies the event type on the bus.
func (Created) EventName() string { return EventCreated }

// ItemAdded is raised when a line item is added or merged into a draft order.
type ItemAdded struct {
	domain.EventMeta
	OrderID     ID
	ProductID   domain.ProductID
	ProductName string
	Quantity    int
}

func (ItemAdded) EventName() string { return EventItemAdded }

// Submitted is the saga trigger: it carries the computed total that becomes
// the payment amount in the other context.
type Submitted struct {
	domain.EventMeta
	OrderID     ID
	CustomerID  domain.CustomerID
	TotalAmount domain.Money
	SubmittedAt time.Time
}

func (Submitted) EventName() string { return EventSubmitted }

// Paid is raised when the payment context confirms payment.
type Paid struct {
	domain.EventMeta
	OrderID ID
	PaidAt  time.Time
}

func (Paid) EventName() string { return EventPaid }

// PaymentFailed is raised when the payment context reports a failure.
type PaymentFailed struct {
	domain.EventMeta
	OrderID ID
	Reason  string
}

func (PaymentFailed) EventName() string { return EventPaymentFailed }

// Shipped is raised when the order leaves processing.
type Shipped struct {
	domain.EventMeta
	OrderID ID
}

func (Shipped) EventName() string { return EventShipped }

// Delivered is raised on the terminal delivery transition.
type Delivered struct {
	domain.EventMeta
	OrderID ID
}

func (Delivered) EventName() string { return EventDelivered }

// Cancelled is raised when the order is cancelled.
type Cancelled struct {
	domain.EventMeta
	OrderID ID
	Reason  string
}

func (Cancelled) EventName() string { return EventCancelled }
