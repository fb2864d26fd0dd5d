package service

import (
	"context"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelOrder_ReleasesStock(t *testing.T) {
	f := newFixture(t)
	res, itemID := f.placeOrder(t, alice, "10.00", 20, 3)
	require.Equal(t, 17, f.store.Stock(itemID))

	order, err := f.orders.CancelOrder(context.Background(), alice, res.Order.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusCanceled, order.Status)
	assert.Equal(t, 20, f.store.Stock(itemID))
	assert.Equal(t, 20, f.store.Stock(itemID)+f.store.Reserved(itemID))

	events := f.store.Events()
	assert.Equal(t, domain.EventOrderCanceled, events[len(events)-1].EventType)
}

func TestCancelOrder_Twice(t *testing.T) {
	f := newFixture(t)
	res, itemID := f.placeOrder(t, alice, "10.00", 20, 3)

	_, err := f.orders.CancelOrder(context.Background(), alice, res.Order.ID)
	require.NoError(t, err)
	_, err = f.orders.CancelOrder(context.Background(), alice, res.Order.ID)

	var ite *domain.InvalidTransitionError
	assert.ErrorAs(t, err, &ite)
	assert.Equal(t, 20, f.store.Stock(itemID))
}

func TestCancelOrder_Authorization(t *testing.T) {
	f := newFixture(t)
	res, itemID := f.placeOrder(t, alice, "10.00", 20, 3)

	_, err := f.orders.CancelOrder(context.Background(), bob, res.Order.ID)
	var ae *domain.AuthorizationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 17, f.store.Stock(itemID))

	order, err := f.orders.CancelOrder(context.Background(), admin, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCanceled, order.Status)
}

func TestCancelOrder_AfterPayment(t *testing.T) {
	f := newFixture(t)
	res, itemID := f.placeOrder(t, alice, "10.00", 20, 3)
	_, err := f.reconcile.Reconcile(context.Background(), succeeded("evt_1", res.Order.PaymentIntentID))
	require.NoError(t, err)

	order, err := f.orders.CancelOrder(context.Background(), alice, res.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCanceled, order.Status)
	assert.Equal(t, 20, f.store.Stock(itemID))
}

func TestCancelOrder_AfterShipping(t *testing.T) {
	f := newFixture(t)
	res, _ := f.placeOrder(t, alice, "10.00", 20, 3)
	ctx := context.Background()
	_, err := f.reconcile.Reconcile(ctx, succeeded("evt_1", res.Order.PaymentIntentID))
	require.NoError(t, err)
	_, err = f.orders.AdvanceOrder(ctx, admin, res.Order.ID, domain.OrderStatusShipped)
	require.NoError(t, err)

	_, err = f.orders.CancelOrder(ctx, alice, res.Order.ID)
	var ite *domain.InvalidTransitionError
	assert.ErrorAs(t, err, &ite)
}

func TestCancelCartOrder(t *testing.T) {
	f := newFixture(t)
	res, itemID := f.placeOrder(t, alice, "10.00", 20, 3)

	order, err := f.orders.CancelCartOrder(context.Background(), alice, res.Order.CartID)
	require.NoError(t, err)
	assert.Equal(t, res.Order.ID, order.ID)
	assert.Equal(t, domain.OrderStatusCanceled, order.Status)
	assert.Equal(t, 20, f.store.Stock(itemID))
}

func TestCancelCartOrder_NoOrder(t *testing.T) {
	f := newFixture(t)
	cartID := f.cart(t, alice)

	_, err := f.orders.CancelCartOrder(context.Background(), alice, cartID)
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestAdvanceOrder_FulfilmentPath(t *testing.T) {
	f := newFixture(t)
	res, _ := f.placeOrder(t, alice, "10.00", 20, 3)
	ctx := context.Background()

	_, err := f.orders.AdvanceOrder(ctx, admin, res.Order.ID, domain.OrderStatusShipped)
	var ite *domain.InvalidTransitionError
	require.ErrorAs(t, err, &ite, "pending orders can't ship")

	_, err = f.orders.AdvanceOrder(ctx, admin, res.Order.ID, domain.OrderStatusPaid)
	require.ErrorIs(t, err, domain.ErrTransitionNotPermitted)

	_, err = f.reconcile.Reconcile(ctx, succeeded("evt_1", res.Order.PaymentIntentID))
	require.NoError(t, err)

	_, err = f.orders.AdvanceOrder(ctx, alice, res.Order.ID, domain.OrderStatusShipped)
	require.ErrorIs(t, err, domain.ErrTransitionNotPermitted)

	order, err := f.orders.AdvanceOrder(ctx, admin, res.Order.ID, domain.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, order.Status)

	order, err = f.orders.AdvanceOrder(ctx, admin, res.Order.ID, domain.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, order.Status)

	_, err = f.orders.AdvanceOrder(ctx, admin, res.Order.ID, domain.OrderStatusCanceled)
	require.ErrorAs(t, err, &ite)
}

func TestGetOrder_Authorization(t *testing.T) {
	f := newFixture(t)
	res, _ := f.placeOrder(t, alice, "10.00", 20, 3)
	ctx := context.Background()

	_, err := f.orders.GetOrder(ctx, bob, res.Order.ID)
	var ae *domain.AuthorizationError
	assert.ErrorAs(t, err, &ae)

	_, err = f.orders.GetOrder(ctx, admin, res.Order.ID)
	assert.NoError(t, err)

	_, err = f.orders.GetOrder(ctx, alice, uuid.New())
	var nf *domain.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestListOrders_Scope(t *testing.T) {
	f := newFixture(t)
	f.placeOrder(t, alice, "10.00", 20, 1)
	f.placeOrder(t, bob, "10.00", 20, 1)
	ctx := context.Background()

	mine, err := f.orders.ListOrders(ctx, alice, "")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "alice", mine[0].UserID)

	all, err := f.orders.ListOrders(ctx, admin, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := f.orders.ListOrders(ctx, admin, "carol")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
