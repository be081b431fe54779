package order

import (
	"strings"

	domain "github.com/fluxcart/api/internal/domain"
)

const itemIDPrefix = "itm_"

// ItemID identifies a line item inside its owning order.
type ItemID struct {
	value string
}

// NewItemID mints a fresh line item identifier.
func NewItemID() ItemID {
	return ItemID{value: domain.NewPrefixedID(itemIDPrefix)}
}

// ItemIDFromRaw validates and wraps a raw item identifier.
func ItemIDFromRaw(raw string) (ItemID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ItemID{}, &domain.RuleError{Code: domain.CodeIdentifierRequired, Message: "order item id is required"}
	}
	return ItemID{value: raw}, nil
}

// Raw returns the underlying identifier.
func (id ItemID) Raw() string { return id.value }

// Item is a line entry owned by the Order aggregate. Product name and unit
// price are snapshots taken at ordering time, immune to later catalog
// changes. Items are value-copied out of the aggregate; mutation goes
// through Order behaviour methods only.
type Item struct {
	id          ItemID
	productID   domain.ProductID
	productName string
	unitPrice   domain.Money
	quantity    int
	discount    domain.Money
}

func newItem(productID domain.ProductID, productName string, unitPrice domain.Money, quantity int) (Item, error) {
	productName = strings.TrimSpace(productName)
	if productName == "" {
		return Item{}, &domain.RuleError{Code: CodeItemNotFound, Message: "product name is required"}
	}
	if err := domain.CheckRules(positiveQuantityRule{quantity: quantity}); err != nil {
		return Item{}, err
	}
	return Item{
		id:          NewItemID(),
		productID:   productID,
		productName: productName,
		unitPrice:   unitPrice,
		quantity:    quantity,
		discount:    domain.Zero(unitPrice.Currency()),
	}, nil
}

// ID returns the line item identifier.
func (i Item) ID() ItemID { return i.id }

// ProductID returns the referenced catalog product.
func (i Item) ProductID() domain.ProductID { return i.productID }

// ProductName returns the name snapshot taken at ordering time.
func (i Item) ProductName() string { return i.productName }

// UnitPrice returns the price snapshot taken at ordering time.
func (i Item) UnitPrice() domain.Money { return i.unitPrice }

// Quantity returns the ordered quantity.
func (i Item) Quantity() int { return i.quantity }

// Discount returns the discount applied to this line.
func (i Item) Discount() domain.Money { return i.discount }

// Subtotal is unit price times quantity, before discount.
func (i Item) Subtotal() (domain.Money, error) {
	return i.unitPrice.MultiplyInt(i.quantity)
}

// Total is the line contribution to the order total: subtotal minus discount.
func (i Item) Total() (domain.Money, error) {
	subtotal, err := i.Subtotal()
	if err != nil {
		return domain.Money{}, err
	}
	return subtotal.Subtract(i.discount)
}
