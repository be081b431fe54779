// Package services implements the application layer: commands and queries over
// the order and payment aggregates, coordinated through the unit of work.
package services

import (
	"context"
	"time"

	"github.com/fluxcart/api/internal/domain/order"
	"github.com/fluxcart/api/internal/domain/payment"
)

// AddressInput carries a shipping address across the API boundary.
type AddressInput struct {
	Recipient  string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// CreateOrderCommand opens a new draft order.
type CreateOrderCommand struct {
	CustomerID string
	Shipping   AddressInput
	Currency   string
}

// AddOrderItemCommand appends (or merges) a product line on a draft order.
type AddOrderItemCommand struct {
	OrderID     string
	ProductID   string
	ProductName string
	UnitPrice   string
	Currency    string
	Quantity    int
}

// UpdateItemQuantityCommand changes a line quantity; zero or less removes it.
type UpdateItemQuantityCommand struct {
	OrderID  string
	ItemID   string
	Quantity int
}

// ApplyItemDiscountCommand sets an absolute discount on a line.
type ApplyItemDiscountCommand struct {
	OrderID  string
	ItemID   string
	Discount string
	Currency string
}

// UpdateShippingAddressCommand replaces the shipping address of a draft.
type UpdateShippingAddressCommand struct {
	OrderID  string
	Shipping AddressInput
}

// OrderQuery filters the order list endpoint. View selects a named
// specification: "pending", "overdue" or "cancellable".
type OrderQuery struct {
	CustomerID string
	Status     string
	View       string
}

// OrderService exposes the command and query surface of the order context.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error)
	AddItem(ctx context.Context, cmd AddOrderItemCommand) (*order.Order, error)
	RemoveItem(ctx context.Context, orderID, itemID string) (*order.Order, error)
	UpdateItemQuantity(ctx context.Context, cmd UpdateItemQuantityCommand) (*order.Order, error)
	ApplyItemDiscount(ctx context.Context, cmd ApplyItemDiscountCommand) (*order.Order, error)
	UpdateShippingAddress(ctx context.Context, cmd UpdateShippingAddressCommand) (*order.Order, error)
	SetNotes(ctx context.Context, orderID, notes string) (*order.Order, error)
	SubmitOrder(ctx context.Context, orderID string) (*order.Order, error)
	MarkOrderPaid(ctx context.Context, orderID string, paidAt time.Time) (*order.Order, error)
	MarkOrderPaymentFailed(ctx context.Context, orderID, reason string) (*order.Order, error)
	StartProcessing(ctx context.Context, orderID string) (*order.Order, error)
	ShipOrder(ctx context.Context, orderID string) (*order.Order, error)
	MarkDelivered(ctx context.Context, orderID string) (*order.Order, error)
	CancelOrder(ctx context.Context, orderID, reason string) (*order.Order, error)
	DeleteDraftOrder(ctx context.Context, orderID string) error
	GetOrder(ctx context.Context, orderID string) (*order.Order, error)
	ListOrders(ctx context.Context, query OrderQuery) ([]*order.Order, error)
	GetPendingOrders(ctx context.Context) ([]*order.Order, error)
	GetOverdueOrders(ctx context.Context) ([]*order.Order, error)
}

// CardInput carries card details across the API boundary.
type CardInput struct {
	Last4       string
	CardType    string
	ExpiryMonth int
	ExpiryYear  int
	Holder      string
}

// CreatePaymentCommand opens a pending payment for an order.
type CreatePaymentCommand struct {
	OrderID    string
	CustomerID string
	Amount     string
	Currency   string
	Method     string
	Card       *CardInput
}

// PaymentQuery filters the payment list endpoint. View selects a named
// specification: "pending", "failed", "refundable" or "high_value".
type PaymentQuery struct {
	CustomerID string
	Status     string
	View       string
}

// PaymentService exposes the command and query surface of the payment context.
type PaymentService interface {
	CreatePayment(ctx context.Context, cmd CreatePaymentCommand) (*payment.Payment, error)
	ProcessPayment(ctx context.Context, paymentID string) (*payment.Payment, error)
	CompletePayment(ctx context.Context, paymentID, transactionID string) (*payment.Payment, error)
	FailPayment(ctx context.Context, paymentID, reason string) (*payment.Payment, error)
	RefundPayment(ctx context.Context, paymentID, reason string) (*payment.Payment, error)
	CancelPayment(ctx context.Context, paymentID, reason string) (*payment.Payment, error)
	ChargePayment(ctx context.Context, paymentID string) (*payment.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*payment.Payment, error)
	GetPaymentByOrder(ctx context.Context, orderID string) (*payment.Payment, error)
	ListPayments(ctx context.Context, query PaymentQuery) ([]*payment.Payment, error)
}
