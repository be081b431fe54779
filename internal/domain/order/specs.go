package order

import (
	"time"

	domain "github.com/fluxcart/api/internal/domain"
	"github.com/fluxcart/api/internal/domain/spec"
)

// Specification field names. These are the persisted document field names so
// the same tree evaluates identically in memory and in the store.
const (
	FieldCustomerID  = "customer_id"
	FieldStatus      = "status"
	FieldSubmittedAt = "submitted_at"
	FieldCreatedAt   = "created_at"
)

// ByCustomer selects orders belonging to a customer.
func ByCustomer(customerID domain.CustomerID) spec.Node {
	return spec.Eq(FieldCustomerID, customerID.Raw())
}

// ByStatus selects orders in a given lifecycle state.
func ByStatus(status Status) spec.Node {
	return spec.Eq(FieldStatus, string(status))
}

// Pending selects submitted orders awaiting payment.
func Pending() spec.Node {
	return ByStatus(StatusSubmitted)
}

// Overdue selects orders submitted longer than maxAge before now and still
// unpaid.
func Overdue(now time.Time, maxAge time.Duration) spec.Node {
	cutoff := now.UTC().Add(-maxAge)
	return spec.All(
		ByStatus(StatusSubmitted),
		spec.Lt(FieldSubmittedAt, cutoff),
	)
}

// Cancellable selects orders that Cancel would accept.
func Cancellable() spec.Node {
	statuses := CancellableStatuses()
	values := make([]any, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}
	return spec.In(FieldStatus, values...)
}

// Matches evaluates a specification against an in-memory aggregate.
func Matches(o *Order, node spec.Node) (bool, error) {
	return spec.Eval(node, func(field string) (any, error) {
		switch field {
		case FieldCustomerID:
			return o.customerID.Raw(), nil
		case FieldStatus:
			return string(o.status), nil
		case FieldSubmittedAt:
			if o.submittedAt == nil {
				return nil, nil
			}
			return *o.submittedAt, nil
		case FieldCreatedAt:
			return o.createdAt, nil
		default:
			return nil, nil
		}
	})
}
