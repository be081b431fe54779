package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	domain "github.com/fluxcart/api/internal/domain"
	"github.com/fluxcart/api/internal/domain/order"
	"github.com/fluxcart/api/internal/domain/payment"
	"github.com/fluxcart/api/internal/domain/spec"
	"github.com/fluxcart/api/internal/events"
	"github.com/fluxcart/api/internal/gateway"
	"github.com/fluxcart/api/internal/platform/idempotency"
	"github.com/fluxcart/api/internal/repositories"
	"github.com/fluxcart/api/internal/services"
)

// In-memory repositories backing the end-to-end choreography tests. Mementos
// are stored, so loads produce independent copies and optimistic locking
// behaves like the real store.

type memOrders struct {
	mu   sync.Mutex
	docs map[string]order.Memento

	// failUpdates makes the next N updates fail, simulating a store outage.
	failUpdates int
}

func newMemOrders() *memOrders { return &memOrders{docs: make(map[string]order.Memento)} }

func (r *memOrders) Insert(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[o.ID().Raw()] = o.Memento()
	return nil
}

func (r *memOrders) Update(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failUpdates > 0 {
		r.failUpdates--
		return repositories.NewUnavailable("orders.update", errors.New("store offline"))
	}
	current, exists := r.docs[o.ID().Raw()]
	if !exists {
		return repositories.NewNotFound("orders.update", fmt.Errorf("order %s not found", o.ID().Raw()))
	}
	if current.Version != o.StoredVersion() {
		return repositories.NewConflict("orders.update", fmt.Errorf("version %d is stale", o.StoredVersion()))
	}
	r.docs[o.ID().Raw()] = o.Memento()
	return nil
}

func (r *memOrders) Delete(_ context.Context, id order.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id.Raw())
	return nil
}

func (r *memOrders) Exists(_ context.Context, id order.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.docs[id.Raw()]
	return exists, nil
}

func (r *memOrders) FindByID(_ context.Context, id order.ID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, exists := r.docs[id.Raw()]
	if !exists {
		return nil, repositories.NewNotFound("orders.find", fmt.Errorf("order %s not found", id.Raw()))
	}
	return order.Rehydrate(m)
}

func (r *memOrders) FindMatching(_ context.Context, node spec.Node) ([]*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*order.Order
	for _, m := range r.docs {
		o, err := order.Rehydrate(m)
		if err != nil {
			return nil, err
		}
		ok, err := order.Matches(o, node)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, o)
		}
	}
	return matched, nil
}

type memPayments struct {
	mu   sync.Mutex
	docs map[string]payment.Memento
}

func newMemPayments() *memPayments { return &memPayments{docs: make(map[string]payment.Memento)} }

func (r *memPayments) Insert(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.docs {
		if m.OrderID == p.OrderID().Raw() {
			return repositories.NewConflict("payments.insert", fmt.Errorf("order %s already has a payment", m.OrderID))
		}
	}
	r.docs[p.ID().Raw()] = p.Memento()
	return nil
}

func (r *memPayments) Update(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, exists := r.docs[p.ID().Raw()]
	if !exists {
		return repositories.NewNotFound("payments.update", fmt.Errorf("payment %s not found", p.ID().Raw()))
	}
	if current.Version != p.StoredVersion() {
		return repositories.NewConflict("payments.update", fmt.Errorf("version %d is stale", p.StoredVersion()))
	}
	r.docs[p.ID().Raw()] = p.Memento()
	return nil
}

func (r *memPayments) Delete(_ context.Context, id payment.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, id.Raw())
	return nil
}

func (r *memPayments) Exists(_ context.Context, id payment.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.docs[id.Raw()]
	return exists, nil
}

func (r *memPayments) FindByID(_ context.Context, id payment.ID) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, exists := r.docs[id.Raw()]
	if !exists {
		return nil, repositories.NewNotFound("payments.find", fmt.Errorf("payment %s not found", id.Raw()))
	}
	return payment.Rehydrate(m)
}

func (r *memPayments) FindByOrderID(_ context.Context, orderID payment.OrderRef) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.docs {
		if m.OrderID == orderID.Raw() {
			return payment.Rehydrate(m)
		}
	}
	return nil, repositories.NewNotFound("payments.find_by_order", fmt.Errorf("no payment for order %s", orderID.Raw()))
}

func (r *memPayments) FindMatching(_ context.Context, node spec.Node) ([]*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*payment.Payment
	for _, m := range r.docs {
		p, err := payment.Rehydrate(m)
		if err != nil {
			return nil, err
		}
		ok, err := payment.Matches(p, node)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// decliningGateway rejects every charge with a fixed reason.
type decliningGateway struct{}

func (decliningGateway) Charge(context.Context, gateway.ChargeRequest) (gateway.ChargeResult, error) {
	return gateway.ChargeResult{}, errors.New("card declined by issuer")
}

func (decliningGateway) Refund(context.Context, gateway.RefundRequest) error { return nil }

type choreography struct {
	bus      *events.Bus
	orders   *memOrders
	payments *memPayments
	orderSvc services.OrderService
	paySvc   services.PaymentService
	saga     *PaymentSaga
}

func newChoreography(t *testing.T, gw gateway.Provider, chargeOnSubmit bool) *choreography {
	return newChoreographyDetached(t, gw, chargeOnSubmit, true)
}

// newChoreographyDetached optionally leaves the saga off the bus so tests can
// hand-deliver integration events.
func newChoreographyDetached(t *testing.T, gw gateway.Provider, chargeOnSubmit, registerSaga bool) *choreography {
	t.Helper()

	bus := events.NewBus()
	orders := newMemOrders()
	payments := newMemPayments()
	clock := func() time.Time { return testNow }

	uow, err := services.NewUnitOfWork(services.UnitOfWorkDeps{Publisher: bus, Clock: clock})
	if err != nil {
		t.Fatalf("NewUnitOfWork: %v", err)
	}
	orderSvc, err := services.NewOrderService(services.OrderServiceDeps{
		Orders:     orders,
		UnitOfWork: uow,
		Clock:      clock,
	})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	paySvc, err := services.NewPaymentService(services.PaymentServiceDeps{
		Payments:   payments,
		UnitOfWork: uow,
		Gateway:    gw,
		Clock:      clock,
	})
	if err != nil {
		t.Fatalf("NewPaymentService: %v", err)
	}

	relay, err := NewRelay(RelayDeps{Publisher: bus})
	if err != nil {
		t.Fatalf("NewRelay: %v", err)
	}
	relay.Register(bus)

	saga, err := NewPaymentSaga(PaymentSagaDeps{
		Orders:      orderSvc,
		Payments:    paySvc,
		Idempotency: idempotency.NewMemoryStore(),
		Instrument: InstrumentConfig{
			Method:        "credit_card",
			CardLast4:     "4242",
			CardType:      "Visa",
			CardHolder:    "Demo Customer",
			CardLifeYears: 2,
		},
		ChargeOnSubmit: chargeOnSubmit,
		Clock:          clock,
	})
	if err != nil {
		t.Fatalf("NewPaymentSaga: %v", err)
	}
	if registerSaga {
		saga.Register(bus)
	}

	return &choreography{
		bus:      bus,
		orders:   orders,
		payments: payments,
		orderSvc: orderSvc,
		paySvc:   paySvc,
		saga:     saga,
	}
}

func submitTestOrder(t *testing.T, c *choreography) *order.Order {
	t.Helper()
	ctx := context.Background()

	o, err := c.orderSvc.CreateOrder(ctx, services.CreateOrderCommand{
		CustomerID: "cust-1",
		Shipping: services.AddressInput{
			Recipient:  "Ada Lovelace",
			Line1:      "12 Analytical Row",
			City:       "London",
			PostalCode: "EC1A 1BB",
			Country:    "GB",
		},
		Currency: "USD",
	})
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if _, err := c.orderSvc.AddItem(ctx, services.AddOrderItemCommand{
		OrderID:     o.ID().Raw(),
		ProductID:   "prod-keyboard",
		ProductName: "Keyboard",
		UnitPrice:   "30.00",
		Currency:    "USD",
		Quantity:    2,
	}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if _, err := c.orderSvc.SubmitOrder(ctx, o.ID().Raw()); err != nil {
		t.Fatalf("SubmitOrder: %v", err)
	}
	return o
}

func TestSubmitOrderChargesAndMarksPaid(t *testing.T) {
	t.Parallel()

	c := newChoreography(t, gateway.NewSimulatedProvider(), true)
	o := submitTestOrder(t, c)
	ctx := context.Background()

	finalOrder, err := c.orderSvc.GetOrder(ctx, o.ID().Raw())
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if finalOrder.Status() != order.StatusPaid {
		t.Fatalf("order status = %s, want paid", finalOrder.Status())
	}
	if finalOrder.PaidAt() == nil {
		t.Fatal("paid timestamp not set")
	}

	p, err := c.paySvc.GetPaymentByOrder(ctx, o.ID().Raw())
	if err != nil {
		t.Fatalf("GetPaymentByOrder: %v", err)
	}
	if p.Status() != payment.StatusCompleted {
		t.Fatalf("payment status = %s, want completed", p.Status())
	}
	if !p.Amount().Equal(finalOrder.TotalAmount()) {
		t.Fatalf("payment amount = %s, order total = %s", p.Amount(), finalOrder.TotalAmount())
	}
	if p.TransactionID() == "" {
		t.Fatal("completed payment should carry a transaction id")
	}
}

func TestDeclinedChargeMarksOrderPaymentFailed(t *testing.T) {
	t.Parallel()

	c := newChoreography(t, decliningGateway{}, true)
	o := submitTestOrder(t, c)
	ctx := context.Background()

	finalOrder, err := c.orderSvc.GetOrder(ctx, o.ID().Raw())
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if finalOrder.Status() != order.StatusPaymentFailed {
		t.Fatalf("order status = %s, want payment_failed", finalOrder.Status())
	}

	p, err := c.paySvc.GetPaymentByOrder(ctx, o.ID().Raw())
	if err != nil {
		t.Fatalf("GetPaymentByOrder: %v", err)
	}
	if p.Status() != payment.StatusFailed {
		t.Fatalf("payment status = %s, want failed", p.Status())
	}
}

func TestChargeOnSubmitDisabledLeavesPaymentPending(t *testing.T) {
	t.Parallel()

	c := newChoreography(t, gateway.NewSimulatedProvider(), false)
	o := submitTestOrder(t, c)
	ctx := context.Background()

	finalOrder, err := c.orderSvc.GetOrder(ctx, o.ID().Raw())
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if finalOrder.Status() != order.StatusSubmitted {
		t.Fatalf("order status = %s, want submitted", finalOrder.Status())
	}

	p, err := c.paySvc.GetPaymentByOrder(ctx, o.ID().Raw())
	if err != nil {
		t.Fatalf("GetPaymentByOrder: %v", err)
	}
	if p.Status() != payment.StatusPending {
		t.Fatalf("payment status = %s, want pending", p.Status())
	}
}

func TestDuplicateDeliveryIsNoOp(t *testing.T) {
	t.Parallel()

	// The saga stays off the bus so the same integration event can be
	// delivered by hand, with a stable id, more than once.
	c := newChoreographyDetached(t, gateway.NewSimulatedProvider(), false, false)
	o := submitTestOrder(t, c)
	ctx := context.Background()

	submitted := OrderSubmitted{
		EventMeta:   domain.EventMeta{ID: "evt_fixed_1", At: testNow},
		OrderID:     o.ID().Raw(),
		CustomerID:  "cust-1",
		TotalAmount: "60.00",
		Currency:    "USD",
		SubmittedAt: testNow,
	}
	if err := c.saga.handleOrderSubmitted(ctx, submitted); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := c.saga.handleOrderSubmitted(ctx, submitted); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	payments, err := c.paySvc.ListPayments(ctx, services.PaymentQuery{})
	if err != nil {
		t.Fatalf("ListPayments: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("payments = %d, want 1 after redelivery", len(payments))
	}
}

func TestFailedHandlerAllowsRedelivery(t *testing.T) {
	t.Parallel()

	c := newChoreographyDetached(t, gateway.NewSimulatedProvider(), false, false)
	o := submitTestOrder(t, c)
	ctx := context.Background()

	completed := PaymentCompleted{
		EventMeta:     domain.EventMeta{ID: "evt_fixed_2", At: testNow},
		PaymentID:     "pay_1",
		OrderID:       o.ID().Raw(),
		Amount:        "60.00",
		Currency:      "USD",
		TransactionID: "TXN-1",
		CompletedAt:   testNow,
	}

	// The first delivery hits a store outage; the claim must be given back
	// so the redelivery is retried rather than dropped as a duplicate.
	c.orders.failUpdates = 1
	if err := c.saga.handlePaymentCompleted(ctx, completed); err == nil {
		t.Fatal("expected first delivery to surface the store outage")
	}
	if err := c.saga.handlePaymentCompleted(ctx, completed); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	finalOrder, err := c.orderSvc.GetOrder(ctx, o.ID().Raw())
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if finalOrder.Status() != order.StatusPaid {
		t.Fatalf("order status = %s, want paid after redelivery", finalOrder.Status())
	}
}

func TestCompletedEventForAlreadyPaidOrderIsSkipped(t *testing.T) {
	t.Parallel()

	c := newChoreography(t, gateway.NewSimulatedProvider(), true)
	o := submitTestOrder(t, c)
	ctx := context.Background()

	// The order is already paid; a late completion event with a fresh id
	// must be tolerated, not failed.
	late := PaymentCompleted{
		EventMeta:     domain.NewEventMeta(testNow),
		PaymentID:     "pay_late",
		OrderID:       o.ID().Raw(),
		Amount:        "60.00",
		Currency:      "USD",
		TransactionID: "TXN-LATE",
		CompletedAt:   testNow,
	}
	if err := c.saga.handlePaymentCompleted(ctx, late); err != nil {
		t.Fatalf("late completion should be skipped, got %v", err)
	}

	finalOrder, err := c.orderSvc.GetOrder(ctx, o.ID().Raw())
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if finalOrder.Status() != order.StatusPaid {
		t.Fatalf("order status = %s, want paid", finalOrder.Status())
	}
}

func TestFailedEventForAlreadyPaidOrderIsSkipped(t *testing.T) {
	t.Parallel()

	c := newChoreography(t, gateway.NewSimulatedProvider(), true)
	o := submitTestOrder(t, c)
	ctx := context.Background()

	late := PaymentFailed{
		EventMeta: domain.NewEventMeta(testNow),
		PaymentID: "pay_late",
		OrderID:   o.ID().Raw(),
		Reason:    "stale decline",
	}
	if err := c.saga.handlePaymentFailed(ctx, late); err != nil {
		t.Fatalf("late failure should be skipped, got %v", err)
	}

	finalOrder, err := c.orderSvc.GetOrder(ctx, o.ID().Raw())
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if finalOrder.Status() != order.StatusPaid {
		t.Fatalf("order status = %s, want paid", finalOrder.Status())
	}
}
