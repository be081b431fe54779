package order

import (
	"fmt"

	domain "github.com/fluxcart/api/internal/domain"
	"github.com/shopspring/decimal"
)

// Rule violation codes for the order context.
const (
	CodeNotDraft       = "ORDER_NOT_DRAFT"
	CodeEmpty          = "ORDER_EMPTY"
	CodeBelowMinimum   = "ORDER_BELOW_MINIMUM"
	CodeTooManyItems   = "ORDER_TOO_MANY_ITEMS"
	CodeItemNotFound   = "ORDER_ITEM_NOT_FOUND"
	CodeQuantity       = "ORDER_ITEM_QUANTITY"
	CodeDiscountBounds = "ORDER_ITEM_DISCOUNT"
	CodeNotSubmitted   = "ORDER_NOT_SUBMITTED"
	CodeNotPaid        = "ORDER_NOT_PAID"
	CodeNotProcessing  = "ORDER_NOT_PROCESSING"
	CodeNotShipped     = "ORDER_NOT_SHIPPED"
	CodeNotCancellable = "ORDER_NOT_CANCELLABLE"
)

type mustBeDraftRule struct {
	status Status
}

func (r mustBeDraftRule) Broken() bool { return !r.status.CanModifyItems() }
func (r mustBeDraftRule) Code() string { return CodeNotDraft }
func (r mustBeDraftRule) Message() string {
	return fmt.Sprintf("order in %s status can no longer be modified", r.status)
}

type mustHaveItemsRule struct {
	count int
}

func (r mustHaveItemsRule) Broken() bool { return r.count < 1 }
func (r mustHaveItemsRule) Code() string { return CodeEmpty }
func (r mustHaveItemsRule) Message() string {
	return "order must have at least one item before it can be submitted"
}

type maxItemsRule struct {
	count int
	max   int
}

func (r maxItemsRule) Broken() bool { return r.max > 0 && r.count > r.max }
func (r maxItemsRule) Code() string { return CodeTooManyItems }
func (r maxItemsRule) Message() string {
	return fmt.Sprintf("order cannot have more than %d items", r.max)
}

type minimumValueRule struct {
	total   domain.Money
	minimum decimal.Decimal
}

func (r minimumValueRule) Broken() bool {
	return r.total.Amount().LessThan(r.minimum)
}
func (r minimumValueRule) Code() string { return CodeBelowMinimum }
func (r minimumValueRule) Message() string {
	return fmt.Sprintf("order total %s is below the minimum order value %s", r.total, r.minimum.StringFixed(2))
}

type positiveQuantityRule struct {
	quantity int
}

func (r positiveQuantityRule) Broken() bool    { return r.quantity <= 0 }
func (r positiveQuantityRule) Code() string    { return CodeQuantity }
func (r positiveQuantityRule) Message() string { return "item quantity must be positive" }
