package order

import (
	"time"

	domain "github.com/fluxcart/api/internal/domain"
)

// Memento is the full observable state of an Order, used by the persistence
// layer to store and reconstitute aggregates without reaching into private
// state.
type Memento struct {
	ID              string
	CustomerID      string
	ShippingAddress domain.Address
	Status          Status
	Currency        string
	Notes           string
	Items           []ItemMemento
	CreatedAt       time.Time
	ModifiedAt      *time.Time
	SubmittedAt     *time.Time
	PaidAt          *time.Time
	Version         int64
}

// ItemMemento mirrors a line item for persistence.
type ItemMemento struct {
	ID          string
	ProductID   string
	ProductName string
	UnitPrice   domain.Money
	Quantity    int
	Discount    domain.Money
}

// Memento snapshots the aggregate.
func (o *Order) Memento() Memento {
	items := make([]ItemMemento, 0, len(o.items))
	for _, item := range o.items {
		items = append(items, ItemMemento{
			ID:          item.id.Raw(),
			ProductID:   item.productID.Raw(),
			ProductName: item.productName,
			UnitPrice:   item.unitPrice,
			Quantity:    item.quantity,
			Discount:    item.discount,
		})
	}
	return Memento{
		ID:              o.id.Raw(),
		CustomerID:      o.customerID.Raw(),
		ShippingAddress: o.shipping,
		Status:          o.status,
		Currency:        o.currency,
		Notes:           o.notes,
		Items:           items,
		CreatedAt:       o.createdAt,
		ModifiedAt:      o.modifiedAt,
		SubmittedAt:     o.submittedAt,
		PaidAt:          o.paidAt,
		Version:         o.version,
	}
}

// Rehydrate reconstitutes an aggregate from stored state. The loaded version
// becomes the expected version for the next optimistic write.
func Rehydrate(m Memento) (*Order, error) {
	id, err := IDFromRaw(m.ID)
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

	items := make([]Item, 0, len(m.Items))
	for _, im := range m.Items {
		itemID, err := ItemIDFromRaw(im.ID)
		if err != nil {
			return nil, err
		}
		productID, err := domain.ProductIDFromRaw(im.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, Item{
			id:          itemID,
			productID:   productID,
			productName: im.ProductName,
			unitPrice:   im.UnitPrice,
			quantity:    im.Quantity,
			discount:    im.Discount,
		})
	}

	return &Order{
		id:            id,
		customerID:    customerID,
		shipping:      m.ShippingAddress,
		status:        status,
		currency:      m.Currency,
		notes:         m.Notes,
		items:         items,
		createdAt:     m.CreatedAt.UTC(),
		modifiedAt:    m.ModifiedAt,
		submittedAt:   m.SubmittedAt,
		paidAt:        m.PaidAt,
		version:       m.Version,
		storedVersion: m.Version,
	}, nil
}
