package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/fluxcart/api/internal/domain"
	"github.com/fluxcart/api/internal/domain/order"
	"github.com/fluxcart/api/internal/domain/spec"
	"github.com/fluxcart/api/internal/repositories"
)

var (
	// ErrOrderInvalidInput indicates the caller supplied invalid input parameters.
	ErrOrderInvalidInput = errors.New("orders: invalid input")
	// ErrOrderNotFound indicates the referenced order does not exist.
	ErrOrderNotFound = errors.New("orders: not found")
	// ErrOrderConflict indicates a concurrent modification; reload and retry.
	ErrOrderConflict = errors.New("orders: conflict")
	// ErrOrderUnavailable indicates order dependencies are currently unavailable.
	ErrOrderUnavailable = errors.New("orders: unavailable")
)

// OrderServiceDeps wires the dependencies required by the order service.
type OrderServiceDeps struct {
	Orders       repositories.OrderRepository
	UnitOfWork   repositories.UnitOfWork
	Policy       order.Policy
	OverdueAfter time.Duration
	Clock        func() time.Time
	Logger       func(ctx context.Context, event string, fields map[string]any)
}

type orderService struct {
	orders       repositories.OrderRepository
	uow          repositories.UnitOfWork
	policy       order.Policy
	overdueAfter time.Duration
	now          func() time.Time
	logger       func(ctx context.Context, event string, fields map[string]any)
}

const defaultOverdueAfter = 24 * time.Hour

// NewOrderService constructs an OrderService validating required dependencies.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.UnitOfWork == nil {
		return nil, errors.New("order service: unit of work is required")
	}

	policy := deps.Policy
	if policy.MaxItems <= 0 {
		policy = order.DefaultPolicy()
	}
	overdueAfter := deps.OverdueAfter
	if overdueAfter <= 0 {
		overdueAfter = defaultOverdueAfter
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &orderService{
		orders:       deps.Orders,
		uow:          deps.UnitOfWork,
		policy:       policy,
		overdueAfter: overdueAfter,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// CreateOrder opens a new draft order for a customer.
func (s *orderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	customerID, err := domain.CustomerIDFromRaw(cmd.CustomerID)
	if err != nil {
		return nil, invalidOrderInput(err)
	}
	shipping, err := shippingAddress(cmd.Shipping)
	if err != nil {
		return nil, err
	}

	o, created, err := order.Create(customerID, shipping, cmd.Currency, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.uow.Commit(ctx, repositories.Work{
		Events: []domain.Event{created},
		Persist: func(ctx context.Context) error {
			return s.orders.Insert(ctx, o)
		},
	}); err != nil {
		return nil, s.translateError(err)
	}

	s.logger(ctx, "orders.created", map[string]any{
		"order_id":    o.ID().Raw(),
		"customer_id": o.CustomerID().Raw(),
	})
	return o, nil
}

// AddItem appends a product line to a draft order.
func (s *orderService) AddItem(ctx context.Context, cmd AddOrderItemCommand) (*order.Order, error) {
	unitPrice, err := domain.ParseMoney(cmd.UnitPrice, cmd.Currency)
	if err != nil {
		return nil, err
	}
	productID, err := domain.ProductIDFromRaw(cmd.ProductID)
	if err != nil {
		return nil, invalidOrderInput(err)
	}
	return s.mutate(ctx, cmd.OrderID, func(o *order.Order) ([]domain.Event, error) {
		added, err := o.AddItem(s.policy, productID, cmd.ProductName, unitPrice, cmd.Quantity, s.now())
		if err != nil {
			return nil, err
		}
		return []domain.Event{added}, nil
	})
}

// RemoveItem deletes a line from a draft order.
func (s *orderService) RemoveItem(ctx context.Context, orderID, itemID string) (*order.Order, error) {
	id, err := order.ItemIDFromRaw(itemID)
	if err != nil {
		return nil, invalidOrderInput(err)
	}
	return s.mutate(ctx, orderID, func(o *order.Order) ([]domain.Event, error) {
		return nil, o.RemoveItem(id, s.now())
	})
}

// UpdateItemQuantity changes a line quantity; zero or less removes the line.
func (s *orderService) UpdateItemQuantity(ctx context.Context, cmd UpdateItemQuantityCommand) (*order.Order, error) {
	id, err := order.ItemIDFromRaw(cmd.ItemID)
	if err != nil {
		return nil, invalidOrderInput(err)
	}
	return s.mutate(ctx, cmd.OrderID, func(o *order.Order) ([]domain.Event, error) {
		return nil, o.UpdateItemQuantity(s.policy, id, cmd.Quantity, s.now())
	})
}

// ApplyItemDiscount sets an absolute discount on a line.
func (s *orderService) ApplyItemDiscount(ctx context.Context, cmd ApplyItemDiscountCommand) (*order.Order, error) {
	id, err := order.ItemIDFromRaw(cmd.ItemID)
	if err != nil {
		return nil, invalidOrderInput(err)
	}
	discount, err := domain.ParseMoney(cmd.Discount, cmd.Currency)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, cmd.OrderID, func(o *order.Order) ([]domain.Event, error) {
		return nil, o.ApplyItemDiscount(id, discount, s.now())
	})
}

// UpdateShippingAddress replaces the address of a draft order.
func (s *orderService) UpdateShippingAddress(ctx context.Context, cmd UpdateShippingAddressCommand) (*order.Order, error) {
	shipping, err := shippingAddress(cmd.Shipping)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, cmd.OrderID, func(o *order.Order) ([]domain.Event, error) {
		return nil, o.UpdateShippingAddress(shipping, s.now())
	})
}

// SetNotes attaches free-form notes to the order.
func (s *orderService) SetNotes(ctx context.Context, orderID, notes string) (*order.Order, error) {
	return s.mutate(ctx, orderID, func(o *order.Order) ([]domain.Event, error) {
		o.SetNotes(notes, s.now())
		return nil, nil
	})
}

// SubmitOrder freezes the draft and raises the submitted event that starts
// the payment choreography.
func (s *orderService) SubmitOrder(ctx context.Context, orderID string) (*order.Order, error) {
	o, err := s.mutate(ctx, orderID, func(o *order.Order) ([]domain.Event, error) {
		submitted, err := o.Submit(s.policy, s.now())
		if err != nil {
			return nil, err
		}
		return []domain.Event{submitted}, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger(ctx, "orders.submitted", map[string]any{
		"order_id": o.ID().Raw(),
		"total":    o.TotalAmount().String(),
	})
	return o, nil
}

// MarkOrderPaid records the payment confirmation.
func (s *orderService) MarkOrderPaid(ctx context.Context, orderID string, paidAt time.Time) (*order.Order, error) {
	return s.mutate(ctx, orderID, func(o *order.Order) ([]domain.Event, error) {
		paid, err := o.MarkAsPaid(paidAt, s.now())
		if err != nil {
			return nil, err
		}
		return []domain.Event{paid}, nil
	})
}

// MarkOrderPaymentFailed records a payment failure.
func (s *orderService) MarkOrderPaymentFailed(ctx context.Context, orderID, reason string) (*order.Order, error) {
	return s.mutate(ctx, orderID, func(o *order.Order) ([]domain.Event, error) {
		failed, err := o.MarkPaymentFailed(reason, s.now())
		if err != nil {
			return nil, err
		}
		return []domain.Event{failed}, nil
	})
}

// StartProcessing moves a paid order into fulfilment.
func (s *orderService) StartProcessing(ctx context.Context, orderID string) (*order.Order, error) {
	return s.mutate(ctx, orderID, func(o *order.Order) ([]domain.Event, error) {
		return nil, o.StartProcessing(s.now())
	})
}

// ShipOrder marks the order shipped.
func (s *orderService) ShipOrder(ctx context.Context, orderID string) (*order.Order, error) {
	return s.mutate(ctx, orderID, func(o *order.Order) ([]domain.Event, error) {
		shipped, err := o.Ship(s.now())
		if err != nil {
			return nil, err
		}
		return []domain.Event{shipped}, nil
	})
}

// MarkDelivered records delivery.
func (s *orderService) MarkDelivered(ctx context.Context, orderID string) (*order.Order, error) {
	return s.mutate(ctx, orderID, func(o *order.Order) ([]domain.Event, error) {
		delivered, err := o.MarkAsDelivered(s.now())
		if err != nil {
			return nil, err
		}
		return []domain.Event{delivered}, nil
	})
}

// CancelOrder aborts the order from any cancellable state.
func (s *orderService) CancelOrder(ctx context.Context, orderID, reason string) (*order.Order, error) {
	return s.mutate(ctx, orderID, func(o *order.Order) ([]domain.Event, error) {
		cancelled, err := o.Cancel(reason, s.now())
		if err != nil {
			return nil, err
		}
		return []domain.Event{cancelled}, nil
	})
}

// DeleteDraftOrder removes an order that never left the draft state.
func (s *orderService) DeleteDraftOrder(ctx context.Context, orderID string) error {
	id, err := order.IDFromRaw(orderID)
	if err != nil {
		return invalidOrderInput(err)
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return s.translateError(err)
	}
	if o.Status() != order.StatusDraft {
		return &domain.RuleError{Code: order.CodeNotDraft, Message: "only draft orders can be deleted"}
	}
	if err := s.orders.Delete(ctx, id); err != nil {
		return s.translateError(err)
	}
	return nil
}

// GetOrder loads one order.
func (s *orderService) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	id, err := order.IDFromRaw(orderID)
	if err != nil {
		return nil, invalidOrderInput(err)
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateError(err)
	}
	return o, nil
}

// ListOrders combines the query filters into one specification and runs it
// store-side.
func (s *orderService) ListOrders(ctx context.Context, query OrderQuery) ([]*order.Order, error) {
	var children []spec.Node

	if customerID := strings.TrimSpace(query.CustomerID); customerID != "" {
		id, err := domain.CustomerIDFromRaw(customerID)
		if err != nil {
			return nil, invalidOrderInput(err)
		}
		children = append(children, order.ByCustomer(id))
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		parsed, err := order.ParseStatus(status)
		if err != nil {
			return nil, invalidOrderInput(err)
		}
		children = append(children, order.ByStatus(parsed))
	}
	if view := strings.TrimSpace(query.View); view != "" {
		node, err := s.orderView(view)
		if err != nil {
			return nil, err
		}
		children = append(children, node)
	}

	orders, err := s.orders.FindMatching(ctx, spec.All(children...))
	if err != nil {
		return nil, s.translateError(err)
	}
	return orders, nil
}

// GetPendingOrders returns submitted orders awaiting payment.
func (s *orderService) GetPendingOrders(ctx context.Context) ([]*order.Order, error) {
	orders, err := s.orders.FindMatching(ctx, order.Pending())
	if err != nil {
		return nil, s.translateError(err)
	}
	return orders, nil
}

// GetOverdueOrders returns orders submitted longer ago than the configured
// window and still unpaid.
func (s *orderService) GetOverdueOrders(ctx context.Context) ([]*order.Order, error) {
	orders, err := s.orders.FindMatching(ctx, order.Overdue(s.now(), s.overdueAfter))
	if err != nil {
		return nil, s.translateError(err)
	}
	return orders, nil
}

func (s *orderService) orderView(view string) (spec.Node, error) {
	switch strings.ToLower(view) {
	case "pending":
		return order.Pending(), nil
	case "overdue":
		return order.Overdue(s.now(), s.overdueAfter), nil
	case "cancellable":
		return order.Cancellable(), nil
	default:
		return nil, fmt.Errorf("%w: unknown view %q", ErrOrderInvalidInput, view)
	}
}

// mutate loads the aggregate, applies the behaviour, and commits events plus
// the optimistic update as one unit of work.
func (s *orderService) mutate(ctx context.Context, orderID string, fn func(o *order.Order) ([]domain.Event, error)) (*order.Order, error) {
	id, err := order.IDFromRaw(orderID)
	if err != nil {
		return nil, invalidOrderInput(err)
	}
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, s.translateError(err)
	}

	evts, err := fn(o)
	if err != nil {
		return nil, err
	}

	if err := s.uow.Commit(ctx, repositories.Work{
		Events: evts,
		Persist: func(ctx context.Context) error {
			return s.orders.Update(ctx, o)
		},
	}); err != nil {
		return nil, s.translateError(err)
	}
	return o, nil
}

func (s *orderService) translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case repositories.IsNotFound(err):
		return fmt.Errorf("%w: %v", ErrOrderNotFound, err)
	case repositories.IsConflict(err):
		return fmt.Errorf("%w: %v", ErrOrderConflict, err)
	case repositories.IsUnavailable(err):
		return fmt.Errorf("%w: %v", ErrOrderUnavailable, err)
	default:
		return err
	}
}

func invalidOrderInput(err error) error {
	return fmt.Errorf("%w: %v", ErrOrderInvalidInput, err)
}

func shippingAddress(input AddressInput) (domain.Address, error) {
	return domain.NewAddress(domain.Address{
		Recipient:  input.Recipient,
		Line1:      input.Line1,
		Line2:      input.Line2,
		City:       input.City,
		State:      input.State,
		PostalCode: input.PostalCode,
		Country:    input.Country,
		Phone:      input.Phone,
	})
}
