package http

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/service"
	"github.com/google/uuid"
)

type CartService interface {
	CreateCart(ctx context.Context, actor domain.Actor) (*domain.Cart, error)
	GetCart(ctx context.Context, actor domain.Actor, cartID uuid.UUID) (*domain.Cart, error)
	ListCarts(ctx context.Context, actor domain.Actor, userID string) ([]*domain.Cart, error)
	AddLineItem(ctx context.Context, actor domain.Actor, cartID, itemID uuid.UUID, qty int) (*domain.LineItem, error)
	UpdateLineItemQty(ctx context.Context, actor domain.Actor, cartID, itemID uuid.UUID, qty int) (*domain.LineItem, error)
	RemoveLineItem(ctx context.Context, actor domain.Actor, cartID, itemID uuid.UUID) error
	DeleteCart(ctx context.Context, actor domain.Actor, cartID uuid.UUID) error
}

type CheckoutService interface {
	Checkout(ctx context.Context, actor domain.Actor, cartID uuid.UUID) (*domain.CheckoutResult, error)
}

type OrderService interface {
	GetOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, actor domain.Actor, userID string) ([]*domain.Order, error)
	CancelOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error)
	CancelCartOrder(ctx context.Context, actor domain.Actor, cartID uuid.UUID) (*domain.Order, error)
	AdvanceOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID, to domain.OrderStatus) (*domain.Order, error)
}

type InventoryService interface {
	UpsertItem(ctx context.Context, actor domain.Actor, item domain.Item) (*domain.Item, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, ev payment.Event) (service.ReconcileResult, error)
}
