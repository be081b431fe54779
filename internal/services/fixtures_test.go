package services

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
	"github.com/fluxcart/api/internal/gateway"
	"github.com/fluxcart/api/internal/repositories"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// memOrderRepo is an in-memory OrderRepository storing mementos, so loaded
// aggregates are independent copies and optimistic locking behaves like the
// real store.
type memOrderRepo struct {
	mu   sync.Mutex
	docs map[string]order.Memento
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{docs: make(map[string]order.Memento)}
}

func (r *memOrderRepo) Insert(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := o.ID().Raw()
	if _, exists := r.docs[key]; exists {
		return repositories.NewConflict("orders.insert", fmt.Errorf("duplicate id %s", key))
	}
	r.docs[key] = o.Memento()
	return nil
}

func (r *memOrderRepo) Update(_ context.Context, o *order.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := o.ID().Raw()
	current, exists := r.docs[key]
	if !exists {
		return repositories.NewNotFound("orders.update", fmt.Errorf("order %s not found", key))
	}
	if current.Version != o.StoredVersion() {
		return repositories.NewConflict("orders.update", fmt.Errorf("version %d is stale", o.StoredVersion()))
	}
	r.docs[key] = o.Memento()
	return nil
}

func (r *memOrderRepo) Delete(_ context.Context, id order.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[id.Raw()]; !exists {
		return repositories.NewNotFound("orders.delete", fmt.Errorf("order %s not found", id.Raw()))
	}
	delete(r.docs, id.Raw())
	return nil
}

func (r *memOrderRepo) Exists(_ context.Context, id order.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.docs[id.Raw()]
	return exists, nil
}

func (r *memOrderRepo) FindByID(_ context.Context, id order.ID) (*order.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, exists := r.docs[id.Raw()]
	if !exists {
		return nil, repositories.NewNotFound("orders.find", fmt.Errorf("order %s not found", id.Raw()))
	}
	return order.Rehydrate(m)
}

func (r *memOrderRepo) FindMatching(_ context.Context, node spec.Node) ([]*order.Order, error) {
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

// memPaymentRepo mirrors memOrderRepo for the payment aggregate.
type memPaymentRepo struct {
	mu   sync.Mutex
	docs map[string]payment.Memento
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{docs: make(map[string]payment.Memento)}
}

func (r *memPaymentRepo) Insert(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := p.ID().Raw()
	if _, exists := r.docs[key]; exists {
		return repositories.NewConflict("payments.insert", fmt.Errorf("duplicate id %s", key))
	}
	for _, m := range r.docs {
		if m.OrderID == p.OrderID().Raw() {
			return repositories.NewConflict("payments.insert", fmt.Errorf("order %s already has a payment", m.OrderID))
		}
	}
	r.docs[key] = p.Memento()
	return nil
}

func (r *memPaymentRepo) Update(_ context.Context, p *payment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := p.ID().Raw()
	current, exists := r.docs[key]
	if !exists {
		return repositories.NewNotFound("payments.update", fmt.Errorf("payment %s not found", key))
	}
	if current.Version != p.StoredVersion() {
		return repositories.NewConflict("payments.update", fmt.Errorf("version %d is stale", p.StoredVersion()))
	}
	r.docs[key] = p.Memento()
	return nil
}

func (r *memPaymentRepo) Delete(_ context.Context, id payment.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.docs[id.Raw()]; !exists {
		return repositories.NewNotFound("payments.delete", fmt.Errorf("payment %s not found", id.Raw()))
	}
	delete(r.docs, id.Raw())
	return nil
}

func (r *memPaymentRepo) Exists(_ context.Context, id payment.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.docs[id.Raw()]
	return exists, nil
}

func (r *memPaymentRepo) FindByID(_ context.Context, id payment.ID) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, exists := r.docs[id.Raw()]
	if !exists {
		return nil, repositories.NewNotFound("payments.find", fmt.Errorf("payment %s not found", id.Raw()))
	}
	return payment.Rehydrate(m)
}

func (r *memPaymentRepo) FindByOrderID(_ context.Context, orderID payment.OrderRef) (*payment.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.docs {
		if m.OrderID == orderID.Raw() {
			return payment.Rehydrate(m)
		}
	}
	return nil, repositories.NewNotFound("payments.find_by_order", fmt.Errorf("no payment for order %s", orderID.Raw()))
}

func (r *memPaymentRepo) FindMatching(_ context.Context, node spec.Node) ([]*payment.Payment, error) {
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

// capturePublisher records published events instead of dispatching them.
type capturePublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *capturePublisher) Publish(_ context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, event := range p.events {
		names = append(names, event.EventName())
	}
	return names
}

// stubGateway approves or declines every charge depending on failWith.
type stubGateway struct {
	mu       sync.Mutex
	failWith error
	charges  []gateway.ChargeRequest
	refunds  []gateway.RefundRequest
}

func (g *stubGateway) Charge(_ context.Context, req gateway.ChargeRequest) (gateway.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charges = append(g.charges, req)
	if g.failWith != nil {
		return gateway.ChargeResult{}, g.failWith
	}
	return gateway.ChargeResult{TransactionID: "TXN-" + req.PaymentID, ProcessedAt: testNow}, nil
}

func (g *stubGateway) Refund(_ context.Context, req gateway.RefundRequest) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refunds = append(g.refunds, req)
	return g.failWith
}

type orderFixture struct {
	repo      *memOrderRepo
	publisher *capturePublisher
	service   OrderService
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	repo := newMemOrderRepo()
	publisher := &capturePublisher{}
	uow, err := NewUnitOfWork(UnitOfWorkDeps{Publisher: publisher, Clock: testClock})
	if err != nil {
		t.Fatalf("NewUnitOfWork: %v", err)
	}
	service, err := NewOrderService(OrderServiceDeps{
		Orders:     repo,
		UnitOfWork: uow,
		Clock:      testClock,
	})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return &orderFixture{repo: repo, publisher: publisher, service: service}
}

type paymentFixture struct {
	repo      *memPaymentRepo
	publisher *capturePublisher
	gateway   *stubGateway
	service   PaymentService
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	repo := newMemPaymentRepo()
	publisher := &capturePublisher{}
	gw := &stubGateway{}
	uow, err := NewUnitOfWork(UnitOfWorkDeps{Publisher: publisher, Clock: testClock})
	if err != nil {
		t.Fatalf("NewUnitOfWork: %v", err)
	}
	threshold, err := domain.ParseMoney("1000.00", "USD")
	if err != nil {
		t.Fatalf("ParseMoney: %v", err)
	}
	service, err := NewPaymentService(PaymentServiceDeps{
		Payments:           repo,
		UnitOfWork:         uow,
		Gateway:            gw,
		HighValueThreshold: threshold,
		Clock:              testClock,
	})
	if err != nil {
		t.Fatalf("NewPaymentService: %v", err)
	}
	return &paymentFixture{repo: repo, publisher: publisher, gateway: gw, service: service}
}

func testShipping() AddressInput {
	return AddressInput{
		Recipient:  "Ada Lovelace",
		Line1:      "12 Analytical Row",
		City:       "London",
		PostalCode: "EC1A 1BB",
		Country:    "GB",
	}
}

var errGatewayDeclined = errors.New("card declined by issuer")
