package payment

import (
	"time"

	domain "github.com/fluxcart/api/internal/domain"
)

// Memento is the full observable state of a Payment for persistence.
type Memento struct {
	ID            string
	OrderID       string
	CustomerID    string
	Amount        domain.Money
	Status        Status
	Method        Method
	Card          *CardMemento
	TransactionID string
	FailureReason string
	CreatedAt     time.Time
	ProcessedAt   *time.Time
	CompletedAt   *time.Time
	Version       int64
}

// CardMemento mirrors the card snapshot for persistence.
type CardMemento struct {
	Last4       string
	CardType    string
	ExpiryMonth int
	ExpiryYear  int
	Holder      string
}

// Memento snapshots the aggregate.
func (p *Payment) Memento() Memento {
	var card *CardMemento
	if p.card != nil {
		card = &CardMemento{
			Last4:       p.card.last4,
			CardType:    p.card.cardType,
			ExpiryMonth: p.card.expMonth,
			ExpiryYear:  p.card.expYear,
			Holder:      p.card.holder,
		}
	}
	return Memento{
		ID:            p.id.Raw(),
		OrderID:       p.orderID.Raw(),
		CustomerID:    p.customerID.Raw(),
		Amount:        p.amount,
		Status:        p.status,
		Method:        p.method,
		Card:          card,
		TransactionID: p.transactionID,
		FailureReason: p.failureReason,
		CreatedAt:     p.createdAt,
		ProcessedAt:   p.processedAt,
		CompletedAt:   p.completedAt,
		Version:       p.version,
	}
}

// Rehydrate reconstitutes a payment from stored state. Expiry is not
// re-validated here: historical payments may legitimately carry cards that
// have since expired.
func Rehydrate(m Memento) (*Payment, error) {
	id, err := IDFromRaw(m.ID)
	if err != nil {
		return nil, err
	}
	orderID, err := OrderRefFromRaw(m.OrderID)
	if err != nil {
		return nil, err
	}
	customerID, err := domain.CustomerIDFromRaw(m.CustomerID)
	if err != nil {
		return nil, err
	}
	status, err := ParseStatus(string(m.Status))
	if err != nil {
		return nil, err
	}
	method, err := ParseMethod(string(m.Method))
	if err != nil {
		return nil, err
	}

	var card *CardDetails
	if m.Card != nil {
		card = &CardDetails{
			last4:    m.Card.Last4,
			cardType: m.Card.CardType,
			expMonth: m.Card.ExpiryMonth,
			expYear:  m.Card.ExpiryYear,
			holder:   m.Card.Holder,
		}
	}

	return &Payment{
		id:            id,
		orderID:       orderID,
		customerID:    customerID,
		amount:        m.Amount,
		status:        status,
		method:        method,
		card:          card,
		transactionID: m.TransactionID,
		failureReason: m.FailureReason,
		createdAt:     m.CreatedAt.UTC(),
		processedAt:   m.ProcessedAt,
		completedAt:   m.CompletedAt,
		version:       m.Version,
		storedVersion: m.Version,
	}, nil
}
