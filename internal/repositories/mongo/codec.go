package mongo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	domain "github.com/fluxcart/api/internal/domain"
	"github.com/fluxcart/api/internal/domain/order"
	"github.com/fluxcart/api/internal/domain/payment"
)

// moneyDoc stores a monetary value as Decimal128 plus its currency so
// store-side predicates over "amount.value" compare numerically.
type moneyDoc struct {
	Value    primitive.Decimal128 `bson:"value"`
	Currency string               `bson:"currency"`
}

type addressDoc struct {
	Recipient  string `bson:"recipient"`
	Line1      string `bson:"line1"`
	Line2      string `bson:"line2,omitempty"`
	City       string `bson:"city"`
	State      string `bson:"state,omitempty"`
	PostalCode string `bson:"postal_code"`
	Country    string `bson:"country"`
	Phone      string `bson:"phone,omitempty"`
}

type orderItemDoc struct {
	ID          string   `bson:"id"`
	ProductID   string   `bson:"product_id"`
	ProductName string   `bson:"product_name"`
	UnitPrice   moneyDoc `bson:"unit_price"`
	Quantity    int      `bson:"quantity"`
	Discount    moneyDoc `bson:"discount"`
}

type orderDoc struct {
	ID              string         `bson:"_id"`
	CustomerID      string         `bson:"customer_id"`
	ShippingAddress addressDoc     `bson:"shipping_address"`
	Status          string         `bson:"status"`
	Currency        string         `bson:"currency"`
	Notes           string         `bson:"notes,omitempty"`
	Items           []orderItemDoc `bson:"items"`
	CreatedAt       time.Time      `bson:"created_at"`
	ModifiedAt      *time.Time     `bson:"modified_at,omitempty"`
	SubmittedAt     *time.Time     `bson:"submitted_at,omitempty"`
	PaidAt          *time.Time     `bson:"paid_at,omitempty"`
	Version         int64          `bson:"version"`
}

type cardDoc struct {
	Last4       string `bson:"last4"`
	CardType    string `bson:"card_type"`
	ExpiryMonth int    `bson:"expiry_month"`
	ExpiryYear  int    `bson:"expiry_year"`
	Holder      string `bson:"holder"`
}

type paymentDoc struct {
	ID            string     `bson:"_id"`
	OrderID       string     `bson:"order_id"`
	CustomerID    string     `bson:"customer_id"`
	Amount        moneyDoc   `bson:"amount"`
	Status        string     `bson:"status"`
	Method        string     `bson:"method"`
	Card          *cardDoc   `bson:"card,omitempty"`
	TransactionID string     `bson:"transaction_id,omitempty"`
	FailureReason string     `bson:"failure_reason,omitempty"`
	CreatedAt     time.Time  `bson:"created_at"`
	ProcessedAt   *time.Time `bson:"processed_at,omitempty"`
	CompletedAt   *time.Time `bson:"completed_at,omitempty"`
	Version       int64      `bson:"version"`
}

func encodeMoney(m domain.Money) (moneyDoc, error) {
	value, err := encodeDecimal(m.Amount())
	if err != nil {
		return moneyDoc{}, err
	}
	return moneyDoc{Value: value, Currency: m.Currency()}, nil
}

func decodeMoney(doc moneyDoc) (domain.Money, error) {
	amount, err := decimal.NewFromString(doc.Value.String())
	if err != nil {
		return domain.Money{}, fmt.Errorf("decode decimal %s: %w", doc.Value, err)
	}
	return domain.NewMoney(amount, doc.Currency)
}

func encodeAddress(a domain.Address) addressDoc {
	return addressDoc{
		Recipient:  a.Recipient,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

func decodeAddress(doc addressDoc) domain.Address {
	return domain.Address{
		Recipient:  doc.Recipient,
		Line1:      doc.Line1,
		Line2:      doc.Line2,
		City:       doc.City,
		State:      doc.State,
		PostalCode: doc.PostalCode,
		Country:    doc.Country,
		Phone:      doc.Phone,
	}
}

func encodeOrder(o *order.Order) (orderDoc, error) {
	m := o.Memento()
	items := make([]orderItemDoc, 0, len(m.Items))
	for _, item := range m.Items {
		unitPrice, err := encodeMoney(item.UnitPrice)
		if err != nil {
			return orderDoc{}, fmt.Errorf("item %s unit price: %w", item.ID, err)
		}
		discount, err := encodeMoney(item.Discount)
		if err != nil {
			return orderDoc{}, fmt.Errorf("item %s discount: %w", item.ID, err)
		}
		items = append(items, orderItemDoc{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   unitPrice,
			Quantity:    item.Quantity,
			Discount:    discount,
		})
	}
	return orderDoc{
		ID:              m.ID,
		CustomerID:      m.CustomerID,
		ShippingAddress: encodeAddress(m.ShippingAddress),
		Status:          string(m.Status),
		Currency:        m.Currency,
		Notes:           m.Notes,
		Items:           items,
		CreatedAt:       m.CreatedAt,
		ModifiedAt:      m.ModifiedAt,
		SubmittedAt:     m.SubmittedAt,
		PaidAt:          m.PaidAt,
		Version:         m.Version,
	}, nil
}

func decodeOrder(doc orderDoc) (*order.Order, error) {
	items := make([]order.ItemMemento, 0, len(doc.Items))
	for _, item := range doc.Items {
		unitPrice, err := decodeMoney(item.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("item %s unit price: %w", item.ID, err)
		}
		discount, err := decodeMoney(item.Discount)
		if err != nil {
			return nil, fmt.Errorf("item %s discount: %w", item.ID, err)
		}
		items = append(items, order.ItemMemento{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   unitPrice,
			Quantity:    item.Quantity,
			Discount:    discount,
		})
	}
	return order.Rehydrate(order.Memento{
		ID:              doc.ID,
		CustomerID:      doc.CustomerID,
		ShippingAddress: decodeAddress(doc.ShippingAddress),
		Status:          order.Status(doc.Status),
		Currency:        doc.Currency,
		Notes:           doc.Notes,
		Items:           items,
		CreatedAt:       doc.CreatedAt,
		ModifiedAt:      doc.ModifiedAt,
		SubmittedAt:     doc.SubmittedAt,
		PaidAt:          doc.PaidAt,
		Version:         doc.Version,
	})
}

func encodePayment(p *payment.Payment) (paymentDoc, error) {
	m := p.Memento()
	amount, err := encodeMoney(m.Amount)
	if err != nil {
		return paymentDoc{}, fmt.Errorf("amount: %w", err)
	}
	var card *cardDoc
	if m.Card != nil {
		card = &cardDoc{
			Last4:       m.Card.Last4,
			CardType:    m.Card.CardType,
			ExpiryMonth: m.Card.ExpiryMonth,
			ExpiryYear:  m.Card.ExpiryYear,
			Holder:      m.Card.Holder,
		}
	}
	return paymentDoc{
		ID:            m.ID,
		OrderID:       m.OrderID,
		CustomerID:    m.CustomerID,
		Amount:        amount,
		Status:        string(m.Status),
		Method:        string(m.Method),
		Card:          card,
		TransactionID: m.TransactionID,
		FailureReason: m.FailureReason,
		CreatedAt:     m.CreatedAt,
		ProcessedAt:   m.ProcessedAt,
		CompletedAt:   m.CompletedAt,
		Version:       m.Version,
	}, nil
}

func decodePayment(doc paymentDoc) (*payment.Payment, error) {
	amount, err := decodeMoney(doc.Amount)
	if err != nil {
		return nil, fmt.Errorf("amount: %w", err)
	}
	var card *payment.CardMemento
	if doc.Card != nil {
		card = &payment.CardMemento{
			Last4:       doc.Card.Last4,
			CardType:    doc.Card.CardType,
			ExpiryMonth: doc.Card.ExpiryMonth,
			ExpiryYear:  doc.Card.ExpiryYear,
			Holder:      doc.Card.Holder,
		}
	}
	return payment.Rehydrate(payment.Memento{
		ID:            doc.ID,
		OrderID:       doc.OrderID,
		CustomerID:    doc.CustomerID,
		Amount:        amount,
		Status:        payment.Status(doc.Status),
		Method:        payment.Method(doc.Method),
		Card:          card,
		TransactionID: doc.TransactionID,
		FailureReason: doc.FailureReason,
		CreatedAt:     doc.CreatedAt,
		ProcessedAt:   doc.ProcessedAt,
		CompletedAt:   doc.CompletedAt,
		Version:       doc.Version,
	})
}
