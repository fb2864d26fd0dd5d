package http

import (
	"context"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/service"
	"github.com/google/uuid"
)

// ServiceMock stands in for every service the handlers call. It records
// the last actor and arguments it saw and returns err when set.
type ServiceMock struct {
	err error

	cart     *domain.Cart
	carts    []*domain.Cart
	line     *domain.LineItem
	checkout *domain.CheckoutResult
	order    *domain.Order
	orders   []*domain.Order
	item     *domain.Item
	result   service.ReconcileResult

	actor  domain.Actor
	userID string
	qty    int
	status domain.OrderStatus
	event  payment.Event
	calls  []string
}

func (m *ServiceMock) record(name string, actor domain.Actor) {
	m.calls = append(m.calls, name)
	m.actor = actor
}

func (m *ServiceMock) CreateCart(ctx context.Context, actor domain.Actor) (*domain.Cart, error) {
	m.record("CreateCart", actor)
	return m.cart, m.err
}

func (m *ServiceMock) GetCart(ctx context.Context, actor domain.Actor, cartID uuid.UUID) (*domain.Cart, error) {
	m.record("GetCart", actor)
	return m.cart, m.err
}

func (m *ServiceMock) ListCarts(ctx context.Context, actor domain.Actor, userID string) ([]*domain.Cart, error) {
	m.record("ListCarts", actor)
	m.userID = userID
	return m.carts, m.err
}

func (m *ServiceMock) AddLineItem(ctx context.Context, actor domain.Actor, cartID, itemID uuid.UUID, qty int) (*domain.LineItem, error) {
	m.record("AddLineItem", actor)
	m.qty = qty
	return m.line, m.err
}

func (m *ServiceMock) UpdateLineItemQty(ctx context.Context, actor domain.Actor, cartID, itemID uuid.UUID, qty int) (*domain.LineItem, error) {
	m.record("UpdateLineItemQty", actor)
	m.qty = qty
	if qty == 0 {
		return nil, m.err
	}
	return m.line, m.err
}

func (m *ServiceMock) RemoveLineItem(ctx context.Context, actor domain.Actor, cartID, itemID uuid.UUID) error {
	m.record("RemoveLineItem", actor)
	return m.err
}

func (m *ServiceMock) DeleteCart(ctx context.Context, actor domain.Actor, cartID uuid.UUID) error {
	m.record("DeleteCart", actor)
	return m.err
}

func (m *ServiceMock) Checkout(ctx context.Context, actor domain.Actor, cartID uuid.UUID) (*domain.CheckoutResult, error) {
	m.record("Checkout", actor)
	return m.checkout, m.err
}

func (m *ServiceMock) GetOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error) {
	m.record("GetOrder", actor)
	return m.order, m.err
}

func (m *ServiceMock) ListOrders(ctx context.Context, actor domain.Actor, userID string) ([]*domain.Order, error) {
	m.record("ListOrders", actor)
	m.userID = userID
	return m.orders, m.err
}

func (m *ServiceMock) CancelOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID) (*domain.Order, error) {
	m.record("CancelOrder", actor)
	return m.order, m.err
}

func (m *ServiceMock) CancelCartOrder(ctx context.Context, actor domain.Actor, cartID uuid.UUID) (*domain.Order, error) {
	m.record("CancelCartOrder", actor)
	return m.order, m.err
}

func (m *ServiceMock) AdvanceOrder(ctx context.Context, actor domain.Actor, orderID uuid.UUID, to domain.OrderStatus) (*domain.Order, error) {
	m.record("AdvanceOrder", actor)
	m.status = to
	return m.order, m.err
}

func (m *ServiceMock) UpsertItem(ctx context.Context, actor domain.Actor, item domain.Item) (*domain.Item, error) {
	m.record("UpsertItem", actor)
	if m.err != nil {
		return nil, m.err
	}
	return &item, nil
}

func (m *ServiceMock) Reconcile(ctx context.Context, ev payment.Event) (service.ReconcileResult, error) {
	m.calls = append(m.calls, "Reconcile")
	m.event = ev
	return m.result, m.err
}

type PingerMock struct {
	err error
}

func (p PingerMock) Ping(ctx context.Context) error {
	return p.err
}
