package order

import "fmt"

// Status enumerates the order lifecycle states. The transition predicates
// live next to the set so status comparisons never leak into callers.
type Status string

const (
	// StatusDraft is the initial state: items and address are still mutable.
	StatusDraft Status = "draft"
	// StatusSubmitted means the order is frozen and awaiting payment.
	StatusSubmitted Status = "submitted"
	// StatusPaid means payment has been confirmed by the payment context.
	StatusPaid Status = "paid"
	// StatusProcessing means the order is being prepared for shipping.
	StatusProcessing Status = "processing"
	// StatusShipped means the order has left the warehouse.
	StatusShipped Status = "shipped"
	// StatusDelivered is a terminal state.
	StatusDelivered Status = "delivered"
	// StatusCancelled is a terminal state.
	StatusCancelled Status = "cancelled"
	// StatusPaymentFailed is a recoverable dead-end reachable from Submitted.
	StatusPaymentFailed Status = "payment_failed"
)

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	status := Status(raw)
	switch status {
	case StatusDraft, StatusSubmitted, StatusPaid, StatusProcessing,
		StatusShipped, StatusDelivered, StatusCancelled, StatusPaymentFailed:
		return status, nil
	default:
		return "", fmt.Errorf("order: unknown status %q", raw)
	}
}

// CanModifyItems reports whether items and the address may still change.
func (s Status) CanModifyItems() bool { return s == StatusDraft }

// CanBeSubmitted reports whether Submit is a legal transition.
func (s Status) CanBeSubmitted() bool { return s == StatusDraft }

// CanBePaid reports whether MarkAsPaid is a legal transition.
func (s Status) CanBePaid() bool { return s == StatusSubmitted }

// CanBeCancelled reports whether Cancel is a legal transition.
func (s Status) CanBeCancelled() bool {
	return s == StatusDraft || s == StatusSubmitted || s == StatusPaymentFailed
}

// IsTerminal reports whether no further transitions exist.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CancellableStatuses lists the states Cancel accepts, in evaluation order.
func CancellableStatuses() []Status {
	return []Status{StatusDraft, StatusSubmitted, StatusPaymentFailed}
}
