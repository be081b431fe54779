package payment

import (
	domain "github.com/fluxcart/api/internal/domain"
	"github.com/fluxcart/api/internal/domain/spec"
)

// Specification field names, matching the persisted document fields. The
// amount value lives nested under the money document.
const (
	FieldOrderID    = "order_id"
	FieldCustomerID = "customer_id"
	FieldStatus     = "status"
	FieldAmount     = "amount.value"
	FieldCreatedAt  = "created_at"
)

// ForOrder selects payments settling a given order.
func ForOrder(orderID OrderRef) spec.Node {
	return spec.Eq(FieldOrderID, orderID.Raw())
}

// ByCustomer selects payments made by a customer.
func ByCustomer(customerID domain.CustomerID) spec.Node {
	return spec.Eq(FieldCustomerID, customerID.Raw())
}

// ByStatus selects payments in a given lifecycle state.
func ByStatus(status Status) spec.Node {
	return spec.Eq(FieldStatus, string(status))
}

// Pending selects payments awaiting processing.
func Pending() spec.Node {
	return ByStatus(StatusPending)
}

// FailedPayments selects declined or errored payments. The name stays clear
// of the Failed event struct.
func FailedPayments() spec.Node {
	return ByStatus(StatusFailed)
}

// Refundable selects payments Refund would accept.
func Refundable() spec.Node {
	return ByStatus(StatusCompleted)
}

// HighValue selects payments at or above the given threshold amount.
func HighValue(threshold domain.Money) spec.Node {
	return spec.Gte(FieldAmount, threshold.Amount())
}

// Matches evaluates a specification against an in-memory aggregate.
func Matches(p *Payment, node spec.Node) (bool, error) {
	return spec.Eval(node, func(field string) (any, error) {
		switch field {
		case FieldOrderID:
			return p.orderID.Raw(), nil
		case FieldCustomerID:
			return p.customerID.Raw(), nil
		case FieldStatus:
			return string(p.status), nil
		case FieldAmount:
			return p.amount.Amount(), nil
		case FieldCreatedAt:
			return p.createdAt, nil
		default:
			return nil, nil
		}
	})
}
