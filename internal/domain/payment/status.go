package payment

import "fmt"

// Status enumerates the payment lifecycle states.
type Status string

const (
	// StatusPending means the payment exists but processing has not begun.
	StatusPending Status = "pending"
	// StatusProcessing means the gateway charge is in flight.
	StatusProcessing Status = "processing"
	// StatusCompleted means the gateway confirmed the charge.
	StatusCompleted Status = "completed"
	// StatusFailed means the charge was declined or errored.
	StatusFailed Status = "failed"
	// StatusRefunded means a completed payment was returned.
	StatusRefunded Status = "refunded"
	// StatusCancelled means the payment was withdrawn before processing.
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	status := Status(raw)
	switch status {
	case StatusPending, StatusProcessing, StatusCompleted,
		StatusFailed, StatusRefunded, StatusCancelled:
		return status, nil
	default:
		return "", fmt.Errorf("payment: unknown status %q", raw)
	}
}

// CanBeProcessed reports whether StartProcessing is legal.
func (s Status) CanBeProcessed() bool { return s == StatusPending }

// CanBeCompleted reports whether Complete is legal.
func (s Status) CanBeCompleted() bool { return s == StatusProcessing }

// CanFail reports whether Fail is legal.
func (s Status) CanFail() bool { return s == StatusProcessing || s == StatusPending }

// CanBeRefunded reports whether Refund is legal.
func (s Status) CanBeRefunded() bool { return s == StatusCompleted }

// CanBeCancelled reports whether Cancel is legal.
func (s Status) CanBeCancelled() bool { return s == StatusPending }

// Method enumerates the supported payment instruments.
type Method string

const (
	MethodCreditCard     Method = "credit_card"
	MethodDebitCard      Method = "debit_card"
	MethodBankTransfer   Method = "bank_transfer"
	MethodPayPal         Method = "paypal"
	MethodCryptocurrency Method = "cryptocurrency"
)

// ParseMethod validates a raw method string.
func ParseMethod(raw string) (Method, error) {
	method := Method(raw)
	switch method {
	case MethodCreditCard, MethodDebitCard, MethodBankTransfer,
		MethodPayPal, MethodCryptocurrency:
		return method, nil
	default:
		return "", fmt.Errorf("payment: unknown method %q", raw)
	}
}

// RequiresCard reports whether the method needs card details.
func (m Method) RequiresCard() bool {
	return m == MethodCreditCard || m == MethodDebitCard
}
