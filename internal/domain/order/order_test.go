package order

import (
	"testing"
	"time"

	domain "github.com/fluxcart/api/internal/domain"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testAddress(t *testing.T) domain.Address {
	t.Helper()
	addr, err := domain.NewAddress(domain.Address{
		Recipient:  "Ada Lovelace",
		Line1:      "12 Analytical Row",
		City:       "London",
		PostalCode: "EC1A 1BB",
		Country:    "GB",
	})
	if err != nil {
		t.Fatalf("NewAddress: %v", err)
	}
	return addr
}

func newDraft(t *testing.T) *Order {
	t.Helper()
	customerID, err := domain.CustomerIDFromRaw("cust-1")
	if err != nil {
		t.Fatalf("CustomerIDFromRaw: %v", err)
	}
	o, created, err := Create(customerID, testAddress(t), "usd", testNow)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.OrderID != o.ID() {
		t.Fatalf("created event order id = %s, want %s", created.OrderID.Raw(), o.ID().Raw())
	}
	return o
}

func addLine(t *testing.T, o *Order, productID, name, price string, quantity int) {
	t.Helper()
	pid, err := domain.ProductIDFromRaw(productID)
	if err != nil {
		t.Fatalf("ProductIDFromRaw: %v", err)
	}
	money, err := domain.ParseMoney(price, "USD")
	if err != nil {
		t.Fatalf("ParseMoney: %v", err)
	}
	if _, err := o.AddItem(DefaultPolicy(), pid, name, money, quantity, testNow); err != nil {
		t.Fatalf("AddItem(%s): %v", name, err)
	}
}

func TestCreateDefaults(t *testing.T) {
	t.Parallel()

	o := newDraft(t)
	if o.Status() != StatusDraft {
		t.Fatalf("status = %s, want draft", o.Status())
	}
	if o.Currency() != "USD" {
		t.Fatalf("currency = %s, want USD", o.Currency())
	}
	if o.Version() != 1 {
		t.Fatalf("version = %d, want 1", o.Version())
	}
	if !o.TotalAmount().IsZero() {
		t.Fatalf("empty order total = %s, want zero", o.TotalAmount())
	}
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	customerID, _ := domain.CustomerIDFromRaw("cust-1")
	if _, _, err := Create(domain.CustomerID{}, testAddress(t), "USD", testNow); err == nil {
		t.Fatal("expected missing customer to be rejected")
	}
	if _, _, err := Create(customerID, domain.Address{}, "USD", testNow); err == nil {
		t.Fatal("expected missing address to be rejected")
	}
	if _, _, err := Create(customerID, testAddress(t), "DOLLAR", testNow); err == nil {
		t.Fatal("expected invalid currency to be rejected")
	}
}

func TestTotalAmount(t *testing.T) {
	t.Parallel()

	o := newDraft(t)
	addLine(t, o, "prod-keyboard", "Keyboard", "30.00", 2)
	addLine(t, o, "prod-mouse", "Mouse", "25.00", 1)

	if got := o.TotalAmount().String(); got != "85.00 USD" {
		t.Fatalf("total = %s, want 85.00 USD", got)
	}
}

func TestAddItemMergesDuplicateProduct(t *testing.T) {
	t.Parallel()

	o := newDraft(t)
	addLine(t, o, "prod-mouse", "Mouse", "25.00", 1)
	addLine(t, o, "prod-mouse", "Mouse", "25.00", 2)

	if o.ItemCount() != 1 {
		t.Fatalf("item count = %d, want 1 merged line", o.ItemCount())
	}
	if got := o.Items()[0].Quantity(); got != 3 {
		t.Fatalf("merged quantity = %d, want 3", got)
	}
	if got := o.TotalAmount().String(); got != "75.00 USD" {
		t.Fatalf("total = %s, want 75.00 USD", got)
	}
}

func TestAddItemValidation(t *testing.T) {
	t.Parallel()

	o := newDraft(t)
	pid, _ := domain.ProductIDFromRaw("prod-1")
	price, _ := domain.ParseMoney("10.00", "USD")
	eurPrice, _ := domain.ParseMoney("10.00", "EUR")

	if _, err := o.AddItem(DefaultPolicy(), pid, "Widget", price, 0, testNow); err == nil {
		t.Fatal("expected non-positive quantity to be rejected")
	}
	if _, err := o.AddItem(DefaultPolicy(), pid, "Widget", eurPrice, 1, testNow); err == nil {
		t.Fatal("expected currency mismatch to be rejected")
	}
	if _, err := o.AddItem(DefaultPolicy(), pid, "   ", price, 1, testNow); err == nil {
		t.Fatal("expected blank product name to be rejected")
	}
}

func TestAddItemMaxItemsRollsBack(t *testing.T) {
	t.Parallel()

	o := newDraft(t)
	policy := Policy{MinimumTotal: decimal.NewFromInt(1), MaxItems: 1}
	price, _ := domain.ParseMoney("10.00", "USD")

	first, _ := domain.ProductIDFromRaw("prod-1")
	second, _ := domain.ProductIDFromRaw("prod-2")
	if _, err := o.AddItem(policy, first, "Widget", price, 1, testNow); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	_, err := o.AddItem(policy, second, "Gadget", price, 1, testNow)
	ruleErr, ok := domain.AsRuleError(err)
	if !ok || ruleErr.Code != CodeTooManyItems {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.ItemCount() != 1 {
		t.Fatalf("item count after rollback = %d, want 1", o.ItemCount())
	}
}

func TestUpdateItemQuantity(t *testing.T) {
	t.Parallel()

	o := newDraft(t)
	addLine(t, o, "prod-mouse", "Mouse", "25.00", 2)
	itemID := o.Items()[0].ID()

	if err := o.UpdateItemQuantity(DefaultPolicy(), itemID, 5, testNow); err != nil {
		t.Fatalf("UpdateItemQuantity: %v", err)
	}
	if got := o.Items()[0].Quantity(); got != 5 {
		t.Fatalf("quantity = %d, want 5", got)
	}

	// Zero removes the line.
	if err := o.UpdateItemQuantity(DefaultPolicy(), itemID, 0, testNow); err != nil {
		t.Fatalf("UpdateItemQuantity to zero: %v", err)
	}
	if o.ItemCount() != 0 {
		t.Fatalf("item count = %d, want 0", o.ItemCount())
	}

	err := o.UpdateItemQuantity(DefaultPolicy(), itemID, 1, testNow)
	ruleErr, ok := domain.AsRuleError(err)
	if !ok || ruleErr.Code != CodeItemNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateItemQuantityRechecksDiscount(t *testing.T) {
	t.Parallel()

	o := newDraft(t)
	addLine(t, o, "prod-widget", "Widget", "10.00", 5)
	itemID := o.Items()[0].ID()

	discount, _ := domain.ParseMoney("40.00", "USD")
	if err := o.ApplyItemDiscount(itemID, discount, testNow); err != nil {
		t.Fatalf("ApplyItemDiscount: %v", err)
	}

	// Shrinking below the discounted subtotal rolls the change back.
	err := o.UpdateItemQuantity(DefaultPolicy(), itemID, 1, testNow)
	ruleErr, ok := domain.AsRuleError(err)
	if !ok || ruleErr.Code != CodeDiscountBounds {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := o.Items()[0].Quantity(); got != 5 {
		t.Fatalf("quantity after rollback = %d, want 5", got)
	}
	if got := o.TotalAmount().String(); got != "10.00 USD" {
		t.Fatalf("total = %s, want 10.00 USD", got)
	}

	// Shrinking to the exact bound is allowed.
	if err := o.UpdateItemQuantity(DefaultPolicy(), itemID, 4, testNow); err != nil {
		t.Fatalf("UpdateItemQuantity: %v", err)
	}
	if got := o.TotalAmount().String(); got != "0.00 USD" {
		t.Fatalf("total = %s, want 0.00 USD", got)
	}
}

func TestApplyItemDiscount(t *testing.T) {
	t.Parallel()

	o := newDraft(t)
	addLine(t, o, "prod-keyboard", "Keyboard", "30.00", 2)
	itemID := o.Items()[0].ID()

	discount, _ := domain.ParseMoney("10.00", "USD")
	if err := o.ApplyItemDiscount(itemID, discount, testNow); err != nil {
		t.Fatalf("ApplyItemDiscount: %v", err)
	}
	if got := o.TotalAmount().String(); got != "50.00 USD" {
		t.Fatalf("total = %s, want 50.00 USD", got)
	}

	tooLarge, _ := domain.ParseMoney("70.00", "USD")
	err := o.ApplyItemDiscount(itemID, tooLarge, testNow)
	ruleErr, ok := domain.AsRuleError(err)
	if !ok || ruleErr.Code != CodeDiscountBounds {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSubmitGuards(t *testing.T) {
	t.Parallel()

	t.Run("empty order", func(t *testing.T) {
		t.Parallel()
		o := newDraft(t)
		_, err := o.Submit(DefaultPolicy(), testNow)
		ruleErr, ok := domain.AsRuleError(err)
		if !ok || ruleErr.Code != CodeEmpty {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("below minimum", func(t *testing.T) {
		t.Parallel()
		o := newDraft(t)
		addLine(t, o, "prod-sticker", "Sticker", "2.50", 1)
		_, err := o.Submit(DefaultPolicy(), testNow)
		ruleErr, ok := domain.AsRuleError(err)
		if !ok || ruleErr.Code != CodeBelowMinimum {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		o := newDraft(t)
		addLine(t, o, "prod-keyboard", "Keyboard", "30.00", 2)
		submitted, err := o.Submit(DefaultPolicy(), testNow)
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if o.Status() != StatusSubmitted {
			t.Fatalf("status = %s, want submitted", o.Status())
		}
		if o.SubmittedAt() == nil {
			t.Fatal("submitted timestamp not set")
		}
		if submitted.TotalAmount.String() != "60.00 USD" {
			t.Fatalf("event total = %s", submitted.TotalAmount)
		}

		// Submitting twice is illegal.
		if _, err := o.Submit(DefaultPolicy(), testNow); err == nil {
			t.Fatal("expected second submit to be rejected")
		}
		// Items are frozen after submission.
		pid, _ := domain.ProductIDFromRaw("prod-late")
		price, _ := domain.ParseMoney("5.00", "USD")
		if _, err := o.AddItem(DefaultPolicy(), pid, "Late", price, 1, testNow); err == nil {
			t.Fatal("expected item mutation after submit to be rejected")
		}
	})
}

func TestLifecycleHappyPath(t *testing.T) {
	t.Parallel()

	o := newDraft(t)
	addLine(t, o, "prod-keyboard", "Keyboard", "30.00", 2)
	if _, err := o.Submit(DefaultPolicy(), testNow); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	paidAt := testNow.Add(time.Minute)
	if _, err := o.MarkAsPaid(paidAt, testNow); err != nil {
		t.Fatalf("MarkAsPaid: %v", err)
	}
	if o.PaidAt() == nil || !o.PaidAt().Equal(paidAt) {
		t.Fatalf("paid at = %v, want %v", o.PaidAt(), paidAt)
	}
	if err := o.StartProcessing(testNow); err != nil {
		t.Fatalf("StartProcessing: %v", err)
	}
	if _, err := o.Ship(testNow); err != nil {
		t.Fatalf("Ship: %v", err)
	}
	if _, err := o.MarkAsDelivered(testNow); err != nil {
		t.Fatalf("MarkAsDelivered: %v", err)
	}
	if !o.Status().IsTerminal() {
		t.Fatalf("delivered should be terminal, got %s", o.Status())
	}
}

func TestTransitionGuards(t *testing.T) {
	t.Parallel()

	o := newDraft(t)
	addLine(t, o, "prod-keyboard", "Keyboard", "30.00", 2)

	if _, err := o.MarkAsPaid(testNow, testNow); err == nil {
		t.Fatal("draft order must not accept MarkAsPaid")
	}
	if err := o.StartProcessing(testNow); err == nil {
		t.Fatal("draft order must not accept StartProcessing")
	}
	if _, err := o.Ship(testNow); err == nil {
		t.Fatal("draft order must not accept Ship")
	}

	if _, err := o.Submit(DefaultPolicy(), testNow); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := o.MarkAsPaid(testNow, testNow); err != nil {
		t.Fatalf("MarkAsPaid: %v", err)
	}
	if err := o.StartProcessing(testNow); err != nil {
		t.Fatalf("StartProcessing: %v", err)
	}
	if _, err := o.Ship(testNow); err != nil {
		t.Fatalf("Ship: %v", err)
	}

	// Shipped orders are past the point of no return.
	_, err := o.Cancel("changed my mind", testNow)
	ruleErr, ok := domain.AsRuleError(err)
	if !ok || ruleErr.Code != CodeNotCancellable {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPaymentFailureRecovery(t *testing.T) {
	t.Parallel()

	o := newDraft(t)
	addLine(t, o, "prod-keyboard", "Keyboard", "30.00", 2)
	if _, err := o.Submit(DefaultPolicy(), testNow); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	failed, err := o.MarkPaymentFailed("card declined", testNow)
	if err != nil {
		t.Fatalf("MarkPaymentFailed: %v", err)
	}
	if failed.Reason != "card declined" {
		t.Fatalf("reason = %q", failed.Reason)
	}
	if o.Status() != StatusPaymentFailed {
		t.Fatalf("status = %s, want payment_failed", o.Status())
	}

	// A failed-payment order can still be cancelled.
	if _, err := o.Cancel("payment never recovered", testNow); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if o.Status() != StatusCancelled {
		t.Fatalf("status = %s, want cancelled", o.Status())
	}
}

func TestVersionIncrements(t *testing.T) {
	t.Parallel()

	o := newDraft(t)
	if o.Version() != 1 || o.StoredVersion() != 0 {
		t.Fatalf("fresh aggregate version = %d/%d", o.Version(), o.StoredVersion())
	}

	addLine(t, o, "prod-mouse", "Mouse", "25.00", 1)
	if o.Version() != 2 {
		t.Fatalf("version after add = %d, want 2", o.Version())
	}
	o.SetNotes("leave at the door", testNow)
	if o.Version() != 3 {
		t.Fatalf("version after notes = %d, want 3", o.Version())
	}
}

func TestMementoRoundTrip(t *testing.T) {
	t.Parallel()

	o := newDraft(t)
	addLine(t, o, "prod-keyboard", "Keyboard", "30.00", 2)
	addLine(t, o, "prod-mouse", "Mouse", "25.00", 1)
	itemID := o.Items()[1].ID()
	discount, _ := domain.ParseMoney("5.00", "USD")
	if err := o.ApplyItemDiscount(itemID, discount, testNow); err != nil {
		t.Fatalf("ApplyItemDiscount: %v", err)
	}
	if _, err := o.Submit(DefaultPolicy(), testNow); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	restored, err := Rehydrate(o.Memento())
	if err != nil {
		t.Fatalf("Rehydrate: %v", err)
	}
	if restored.ID() != o.ID() {
		t.Fatalf("id = %s, want %s", restored.ID().Raw(), o.ID().Raw())
	}
	if restored.Status() != o.Status() {
		t.Fatalf("status = %s, want %s", restored.Status(), o.Status())
	}
	if !restored.TotalAmount().Equal(o.TotalAmount()) {
		t.Fatalf("total = %s, want %s", restored.TotalAmount(), o.TotalAmount())
	}
	if restored.ItemCount() != o.ItemCount() {
		t.Fatalf("item count = %d, want %d", restored.ItemCount(), o.ItemCount())
	}
	if restored.Version() != o.Version() || restored.StoredVersion() != o.Version() {
		t.Fatalf("versions = %d/%d, want both %d", restored.Version(), restored.StoredVersion(), o.Version())
	}
}

func TestSpecificationsMatchInMemory(t *testing.T) {
	t.Parallel()

	o := newDraft(t)
	addLine(t, o, "prod-keyboard", "Keyboard", "30.00", 2)

	matched, err := Matches(o, ByCustomer(o.CustomerID()))
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if !matched {
		t.Fatal("expected customer spec to match")
	}

	pending, err := Matches(o, Pending())
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if pending {
		t.Fatal("draft order must not match pending spec")
	}

	if _, err := o.Submit(DefaultPolicy(), testNow); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	pending, err = Matches(o, Pending())
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if !pending {
		t.Fatal("submitted order should match pending spec")
	}

	overdue, err := Matches(o, Overdue(testNow.Add(48*time.Hour), 24*time.Hour))
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if !overdue {
		t.Fatal("order submitted 48h ago should be overdue at 24h")
	}

	cancellable, err := Matches(o, Cancellable())
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if !cancellable {
		t.Fatal("submitted order should match cancellable spec")
	}
}
