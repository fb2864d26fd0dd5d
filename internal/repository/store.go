package repository

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

// Tx is the set of operations available inside one database transaction.
// Lock* methods take a row lock held until the transaction ends.
type Tx interface {
	// Inventory ledger.
	Reserve(ctx context.Context, itemID uuid.UUID, qty int) (int, error)
	Release(ctx context.Context, itemID uuid.UUID, qty int) error

	GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	UpsertItem(ctx context.Context, item *domain.Item) error

	CreateCart(ctx context.Context, cart *domain.Cart) error
	GetCart(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
	LockCart(ctx context.Context, id uuid.UUID) (*domain.Cart, error)
	ListCarts(ctx context.Context, userID string) ([]*domain.Cart, error)
	DeleteCart(ctx context.Context, id uuid.UUID) error

	LineItems(ctx context.Context, cartID uuid.UUID) ([]domain.LineItem, error)
	GetLineItem(ctx context.Context, cartID, itemID uuid.UUID) (*domain.LineItem, error)
	AddLineItem(ctx context.Context, cartID, itemID uuid.UUID, qty int) error
	SetLineItemQty(ctx context.Context, cartID, itemID uuid.UUID, qty int) error
	DeleteLineItem(ctx context.Context, cartID, itemID uuid.UUID) error

	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	OrderByCart(ctx context.Context, cartID uuid.UUID) (*domain.Order, error)
	LockOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	LockOrderByPaymentIntent(ctx context.Context, intentID string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error

	EnqueueEvent(ctx context.Context, aggregateID, eventType string, payload any) error
}
