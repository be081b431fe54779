package order

import (
	"strings"
	"time"

	domain "github.com/fluxcart/api/internal/domain"
	"github.com/shopspring/decimal"
)

const idPrefix = "ord_"

// ID identifies an order aggregate.
type ID struct {
	value string
}

// NewID mints a fresh order identifier.
func NewID() ID {
	return ID{value: domain.NewPrefixedID(idPrefix)}
}

// IDFromRaw validates and wraps a raw order identifier.
func IDFromRaw(raw string) (ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ID{}, &domain.RuleError{Code: domain.CodeIdentifierRequired, Message: "order id is required"}
	}
	return ID{value: raw}, nil
}

// Raw returns the underlying identifier.
func (id ID) Raw() string { return id.value }

// IsZero reports whether the identifier is unset.
func (id ID) IsZero() bool { return id.value == "" }

// Policy carries the configurable order guards. MinimumTotal applies in the
// order's own currency at submit time; MaxItems bounds the line count at all
// times.
type Policy struct {
	MinimumTotal decimal.Decimal
	MaxItems     int
}

// DefaultPolicy returns the stock guards: minimum total 10.00, at most 100
// line items.
func DefaultPolicy() Policy {
	return Policy{MinimumTotal: decimal.NewFromInt(10), MaxItems: 100}
}

// Order is the aggregate root of the order context. All state lives behind
// behaviour methods; every legal mutation bumps the version counter, stamps
// ModifiedAt, and returns the domain event it raised (if any) for the unit of
// work to dispatch.
type Order struct {
	id          ID
	customerID  domain.CustomerID
	shipping    domain.Address
	status      Status
	currency    string
	notes       string
	items       []Item
	createdAt   time.Time
	modifiedAt  *time.Time
	submittedAt *time.Time
	paidAt      *time.Time

	version       int64
	storedVersion int64
}

// Create starts a new draft order for a customer. It is the only entry point
// for new aggregates; persistence uses Rehydrate.
func Create(customerID domain.CustomerID, shipping domain.Address, currency string, now time.Time) (*Order, Created, error) {
	if customerID.IsZero() {
		return nil, Created{}, &domain.RuleError{Code: domain.CodeIdentifierRequired, Message: "customer id is required"}
	}
	if shipping.IsZero() {
		return nil, Created{}, &domain.RuleError{Code: domain.CodeAddressIncomplete, Message: "shipping address is required"}
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}
	if len(currency) != 3 {
		return nil, Created{}, &domain.RuleError{Code: domain.CodeMoneyCurrencyRequired, Message: "currency must be a 3-letter code"}
	}

	o := &Order{
		id:         NewID(),
		customerID: customerID,
		shipping:   shipping,
		status:     StatusDraft,
		currency:   currency,
		createdAt:  now.UTC(),
		version:    1,
	}
	event := Created{
		EventMeta:  domain.NewEventMeta(now),
		OrderID:    o.id,
		CustomerID: o.customerID,
	}
	return o, event, nil
}

// AddItem adds a product line to a draft order. Adding a product that is
// already present merges quantities instead of creating a second line.
func (o *Order) AddItem(policy Policy, productID domain.ProductID, productName string, unitPrice domain.Money, quantity int, now time.Time) (ItemAdded, error) {
	if err := domain.CheckRules(
		mustBeDraftRule{status: o.status},
		positiveQuantityRule{quantity: quantity},
	); err != nil {
		return ItemAdded{}, err
	}
	if unitPrice.Currency() != o.currency {
		return ItemAdded{}, &domain.RuleError{
			Code:    domain.CodeMoneyCurrencyMismatch,
			Message: "item price currency must match the order currency",
		}
	}

	merged := false
	for i := range o.items {
		if o.items[i].productID == productID {
			o.items[i].quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		item, err := newItem(productID, productName, unitPrice, quantity)
		if err != nil {
			return ItemAdded{}, err
		}
		o.items = append(o.items, item)
		if err := domain.CheckRules(maxItemsRule{count: len(o.items), max: policy.MaxItems}); err != nil {
			o.items = o.items[:len(o.items)-1]
			return ItemAdded{}, err
		}
	}

	o.touch(now)
	return ItemAdded{
		EventMeta:   domain.NewEventMeta(now),
		OrderID:     o.id,
		ProductID:   productID,
		ProductName: strings.TrimSpace(productName),
		Quantity:    quantity,
	}, nil
}

// RemoveItem deletes a line from a draft order.
func (o *Order) RemoveItem(itemID ItemID, now time.Time) error {
	if err := domain.CheckRules(mustBeDraftRule{status: o.status}); err != nil {
		return err
	}
	index := o.indexOfItem(itemID)
	if index < 0 {
		return &domain.RuleError{Code: CodeItemNotFound, Message: "order item " + itemID.Raw() + " not found"}
	}
	o.items = append(o.items[:index], o.items[index+1:]...)
	o.touch(now)
	return nil
}

// UpdateItemQuantity sets a new quantity for a line. A quantity of zero or
// less removes the line; the item-count and discount invariants are
// re-checked afterwards and the mutation is rolled back if they no longer
// hold.
func (o *Order) UpdateItemQuantity(policy Policy, itemID ItemID, quantity int, now time.Time) error {
	if err := domain.CheckRules(mustBeDraftRule{status: o.status}); err != nil {
		return err
	}
	index := o.indexOfItem(itemID)
	if index < 0 {
		return &domain.RuleError{Code: CodeItemNotFound, Message: "order item " + itemID.Raw() + " not found"}
	}

	previous := make([]Item, len(o.items))
	copy(previous, o.items)

	if quantity <= 0 {
		o.items = append(o.items[:index], o.items[index+1:]...)
	} else {
		o.items[index].quantity = quantity
	}

	if err := domain.CheckRules(maxItemsRule{count: len(o.items), max: policy.MaxItems}); err != nil {
		o.items = previous
		return err
	}

	// Shrinking a line can push its discount past the new subtotal.
	if quantity > 0 {
		subtotal, err := o.items[index].Subtotal()
		if err != nil {
			o.items = previous
			return err
		}
		within, err := subtotal.GreaterThanOrEqual(o.items[index].discount)
		if err != nil {
			o.items = previous
			return err
		}
		if !within {
			o.items = previous
			return &domain.RuleError{Code: CodeDiscountBounds, Message: "discount cannot exceed the item subtotal"}
		}
	}

	o.touch(now)
	return nil
}

// ApplyItemDiscount sets a discount on a line. The discount can never exceed
// the line subtotal, keeping the order total non-negative.
func (o *Order) ApplyItemDiscount(itemID ItemID, discount domain.Money, now time.Time) error {
	if err := domain.CheckRules(mustBeDraftRule{status: o.status}); err != nil {
		return err
	}
	index := o.indexOfItem(itemID)
	if index < 0 {
		return &domain.RuleError{Code: CodeItemNotFound, Message: "order item " + itemID.Raw() + " not found"}
	}
	if discount.Currency() != o.currency {
		return &domain.RuleError{
			Code:    domain.CodeMoneyCurrencyMismatch,
			Message: "discount currency must match the order currency",
		}
	}
	subtotal, err := o.items[index].Subtotal()
	if err != nil {
		return err
	}
	within, err := subtotal.GreaterThanOrEqual(discount)
	if err != nil {
		return err
	}
	if !within {
		return &domain.RuleError{Code: CodeDiscountBounds, Message: "discount cannot exceed the item subtotal"}
	}
	o.items[index].discount = discount
	o.touch(now)
	return nil
}

// UpdateShippingAddress replaces the address while the order is a draft.
func (o *Order) UpdateShippingAddress(shipping domain.Address, now time.Time) error {
	if err := domain.CheckRules(mustBeDraftRule{status: o.status}); err != nil {
		return err
	}
	if shipping.IsZero() {
		return &domain.RuleError{Code: domain.CodeAddressIncomplete, Message: "shipping address is required"}
	}
	o.shipping = shipping
	o.touch(now)
	return nil
}

// SetNotes attaches free-form notes. Notes are not part of the state machine
// and may change in any non-terminal state.
func (o *Order) SetNotes(notes string, now time.Time) {
	o.notes = strings.TrimSpace(notes)
	o.touch(now)
}

// Submit freezes the draft and hands the order to the payment saga. The
// returned event carries the computed total and currency.
func (o *Order) Submit(policy Policy, now time.Time) (Submitted, error) {
	if !o.status.CanBeSubmitted() {
		return Submitted{}, &domain.RuleError{Code: CodeNotDraft, Message: "only draft orders can be submitted"}
	}
	total := o.TotalAmount()
	if err := domain.CheckRules(
		mustHaveItemsRule{count: len(o.items)},
		minimumValueRule{total: total, minimum: policy.MinimumTotal},
	); err != nil {
		return Submitted{}, err
	}

	submittedAt := now.UTC()
	o.status = StatusSubmitted
	o.submittedAt = &submittedAt
	o.touch(now)

	return Submitted{
		EventMeta:   domain.NewEventMeta(now),
		OrderID:     o.id,
		CustomerID:  o.customerID,
		TotalAmount: total,
		SubmittedAt: submittedAt,
	}, nil
}

// MarkAsPaid records the payment confirmation from the payment context.
func (o *Order) MarkAsPaid(paidAt time.Time, now time.Time) (Paid, error) {
	if !o.status.CanBePaid() {
		return Paid{}, &domain.RuleError{Code: CodeNotSubmitted, Message: "only submitted orders can be marked as paid"}
	}
	paid := paidAt.UTC()
	o.status = StatusPaid
	o.paidAt = &paid
	o.touch(now)
	return Paid{EventMeta: domain.NewEventMeta(now), OrderID: o.id, PaidAt: paid}, nil
}

// MarkPaymentFailed records a payment failure reported by the payment
// context. The order stays recoverable: it can still be cancelled.
func (o *Order) MarkPaymentFailed(reason string, now time.Time) (PaymentFailed, error) {
	if o.status != StatusSubmitted {
		return PaymentFailed{}, &domain.RuleError{Code: CodeNotSubmitted, Message: "only submitted orders can fail payment"}
	}
	o.status = StatusPaymentFailed
	o.touch(now)
	return PaymentFailed{EventMeta: domain.NewEventMeta(now), OrderID: o.id, Reason: strings.TrimSpace(reason)}, nil
}

// StartProcessing moves a paid order into fulfilment.
func (o *Order) StartProcessing(now time.Time) error {
	if o.status != StatusPaid {
		return &domain.RuleError{Code: CodeNotPaid, Message: "only paid orders can start processing"}
	}
	o.status = StatusProcessing
	o.touch(now)
	return nil
}

// Ship marks the order as shipped.
func (o *Order) Ship(now time.Time) (Shipped, error) {
	if o.status != StatusProcessing {
		return Shipped{}, &domain.RuleError{Code: CodeNotProcessing, Message: "only processing orders can be shipped"}
	}
	o.status = StatusShipped
	o.touch(now)
	return Shipped{EventMeta: domain.NewEventMeta(now), OrderID: o.id}, nil
}

// MarkAsDelivered records delivery, a terminal transition.
func (o *Order) MarkAsDelivered(now time.Time) (Delivered, error) {
	if o.status != StatusShipped {
		return Delivered{}, &domain.RuleError{Code: CodeNotShipped, Message: "only shipped orders can be delivered"}
	}
	o.status = StatusDelivered
	o.touch(now)
	return Delivered{EventMeta: domain.NewEventMeta(now), OrderID: o.id}, nil
}

// Cancel aborts the order from any cancellable state.
func (o *Order) Cancel(reason string, now time.Time) (Cancelled, error) {
	if !o.status.CanBeCancelled() {
		return Cancelled{}, &domain.RuleError{
			Code:    CodeNotCancellable,
			Message: "order in " + string(o.status) + " status cannot be cancelled",
		}
	}
	o.status = StatusCancelled
	o.touch(now)
	return Cancelled{EventMeta: domain.NewEventMeta(now), OrderID: o.id, Reason: strings.TrimSpace(reason)}, nil
}

// TotalAmount recomputes the order total from its lines: sum of unit price
// times quantity minus discount, zero for an empty order, never negative.
func (o *Order) TotalAmount() domain.Money {
	total := decimal.Zero
	for _, item := range o.items {
		line := item.unitPrice.Amount().
			Mul(decimal.NewFromInt(int64(item.quantity))).
			Sub(item.discount.Amount())
		total = total.Add(line)
	}
	if total.IsNegative() {
		total = decimal.Zero
	}
	money, err := domain.NewMoney(total, o.currency)
	if err != nil {
		return domain.Zero(o.currency)
	}
	return money
}

// ID returns the aggregate identifier.
func (o *Order) ID() ID { return o.id }

// CustomerID returns the owning customer reference.
func (o *Order) CustomerID() domain.CustomerID { return o.customerID }

// ShippingAddress returns the current shipping address.
func (o *Order) ShippingAddress() domain.Address { return o.shipping }

// Status returns the current lifecycle state.
func (o *Order) Status() Status { return o.status }

// Currency returns the order currency.
func (o *Order) Currency() string { return o.currency }

// Notes returns the free-form notes.
func (o *Order) Notes() string { return o.notes }

// Items returns a copy of the line items; callers cannot mutate aggregate
// state through it.
func (o *Order) Items() []Item {
	items := make([]Item, len(o.items))
	copy(items, o.items)
	return items
}

// ItemCount returns the number of line items.
func (o *Order) ItemCount() int { return len(o.items) }

// CreatedAt returns the creation time.
func (o *Order) CreatedAt() time.Time { return o.createdAt }

// ModifiedAt returns the last mutation time, nil for a freshly created order.
func (o *Order) ModifiedAt() *time.Time { return o.modifiedAt }

// SubmittedAt returns when the order was submitted, if it has been.
func (o *Order) SubmittedAt() *time.Time { return o.submittedAt }

// PaidAt returns when payment was confirmed, if it has been.
func (o *Order) PaidAt() *time.Time { return o.paidAt }

// Version returns the optimistic-concurrency counter after in-memory
// mutations.
func (o *Order) Version() int64 { return o.version }

// StoredVersion returns the version as loaded from the store; the repository
// uses it as the expected version on write.
func (o *Order) StoredVersion() int64 { return o.storedVersion }

func (o *Order) touch(now time.Time) {
	at := now.UTC()
	o.modifiedAt = &at
	o.version++
}

func (o *Order) indexOfItem(itemID ItemID) int {
	for i := range o.items {
		if o.items[i].id == itemID {
			return i
		}
	}
	return -1
}
