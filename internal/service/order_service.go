package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/repository"
	"github.com/google/uuid"
)

type OrderService struct {
	store   repository.Store
	metrics *metrics.DomainMetrics
	log     *slog.Logger
	now     func() time.Time
}

func NewOrderService(store repository.Store, m *metrics.DomainMetrics, log *slog.Logger) *OrderService {
	return &OrderService{
		store:   store,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

func (s *OrderService) GetOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		order, err = tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		return auth.Authorize(actor, "order", orderID.String(), order.UserID)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, actor domain.Actor, userID string) ([]*domain.Order, error) {
	scope, err := auth.ScopeUser(actor, userID)
	if err != nil {
		return nil, err
	}

	var orders []*domain.Order
	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		orders, err = tx.ListOrders(ctx, scope)
		return err
	})
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []*domain.Order{}
	}
	return orders, nil
}

// CancelOrder cancels a pending or paid order and returns every ordered
// quantity to the ledger.
func (s *OrderService) CancelOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		order, err = s.cancel(ctx, tx, actor, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CancelCartOrder cancels the order placed for cartID.
func (s *OrderService) CancelCartOrder(ctx context.Context, actor domain.Actor, cartID uuid.UUID) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		cart, err := tx.GetCart(ctx, cartID)
		if err != nil {
			return err
		}
		if err := auth.Authorize(actor, "cart", cartID.String(), cart.UserID); err != nil {
			return err
		}
		if !cart.CheckedOut() {
			return &domain.NotFoundError{Resource: "order for cart", ID: cartID.String()}
		}
		order, err = s.cancel(ctx, tx, actor, *cart.OrderID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) cancel(ctx context.Context, tx repository.Tx, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error) {
	order, err := tx.LockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, "order", orderID.String(), order.UserID); err != nil {
		return nil, err
	}
	if err := transition(ctx, tx, order, domain.OrderStatusCanceled, actor.Authority(), s.now()); err != nil {
		return nil, err
	}
	for _, li := range order.Items {
		if err := tx.Release(ctx, li.ItemID, li.Quantity); err != nil {
			return nil, err
		}
	}
	s.metrics.OrderTransitions.WithLabelValues(string(domain.OrderStatusCanceled)).Inc()
	s.log.InfoContext(ctx, "order canceled",
		slog.String("order_id", orderID.String()),
		slog.String("by", actor.String()))
	return order, nil
}

// AdvanceOrder moves an order along the fulfilment path. Only
// administrators may mark orders shipped or delivered.
func (s *OrderService) AdvanceOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID, to domain.OrderStatus) (*domain.Order, error) {
	if to == domain.OrderStatusCanceled {
		return s.CancelOrder(ctx, actor, orderID)
	}

	var order *domain.Order
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		order, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := auth.Authorize(actor, "order", orderID.String(), order.UserID); err != nil {
			return err
		}
		return transition(ctx, tx, order, to, actor.Authority(), s.now())
	})
	if err != nil {
		return nil, err
	}
	s.metrics.OrderTransitions.WithLabelValues(string(to)).Inc()
	return order, nil
}

// transition validates and persists a status change and queues its event.
func transition(ctx context.Context, tx repository.Tx, order *domain.Order, to domain.OrderStatus, by domain.Authority, now time.Time) error {
	if err := domain.CanTransitionTo(order.Status, to, by); err != nil {
		return err
	}
	if err := tx.UpdateOrderStatus(ctx, order.ID, to); err != nil {
		return err
	}
	order.Status = to
	order.UpdatedAt = now.UTC()
	return tx.EnqueueEvent(ctx, order.ID.String(), domain.EventTypeFor(to), domain.NewOrderEvent(*order, order.UpdatedAt))
}
