// Package repositories declares the persistence contracts consumed by the
// services layer. One repository per aggregate root; implementations live in
// the store-specific subpackages.
package repositories

import (
	"context"

	domain "github.com/fluxcart/api/internal/domain"
	"github.com/fluxcart/api/internal/domain/order"
	"github.com/fluxcart/api/internal/domain/payment"
	"github.com/fluxcart/api/internal/domain/spec"
)

// OrderRepository persists Order aggregates. Update applies optimistic
// locking against the aggregate's stored version and returns a conflict
// error on mismatch. FindMatching evaluates a specification as a store-side
// predicate and returns fully reconstituted aggregates.
type OrderRepository interface {
	Insert(ctx context.Context, o *order.Order) error
	Update(ctx context.Context, o *order.Order) error
	Delete(ctx context.Context, id order.ID) error
	Exists(ctx context.Context, id order.ID) (bool, error)
	FindByID(ctx context.Context, id order.ID) (*order.Order, error)
	FindMatching(ctx context.Context, node spec.Node) ([]*order.Order, error)
}

// PaymentRepository persists Payment aggregates with the same contracts as
// OrderRepository, plus a by-order lookup used by the saga.
type PaymentRepository interface {
	Insert(ctx context.Context, p *payment.Payment) error
	Update(ctx context.Context, p *payment.Payment) error
	Delete(ctx context.Context, id payment.ID) error
	Exists(ctx context.Context, id payment.ID) (bool, error)
	FindByID(ctx context.Context, id payment.ID) (*payment.Payment, error)
	FindByOrderID(ctx context.Context, orderID payment.OrderRef) (*payment.Payment, error)
	FindMatching(ctx context.Context, node spec.Node) ([]*payment.Payment, error)
}

// Work is one transactional unit: the domain events returned by the
// aggregate's behaviour methods plus the persistence closure that makes the
// mutation durable.
type Work struct {
	Events  []domain.Event
	Persist func(ctx context.Context) error
}

// UnitOfWork coordinates event dispatch with persistence. Implementations
// decide the dispatch-versus-commit ordering; see services.NewUnitOfWork for
// the choice made here.
type UnitOfWork interface {
	Commit(ctx context.Context, work Work) error
}
