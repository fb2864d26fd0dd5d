package service

import (
	"context"
	"testing"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	alice = domain.Owner("alice", "alice@example.com")
	bob   = domain.Owner("bob", "bob@example.com")
	admin = domain.Administrator("root", "root@example.com")
)

type fixture struct {
	store     *MemStore
	gateway   *payment.FakeGateway
	dedupe    *MemDeduper
	metrics   *metrics.Metrics
	carts     *CartService
	checkout  *CheckoutService
	orders    *OrderService
	reconcile *ReconcileService
	inventory *InventoryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := NewMemStore()
	gateway := payment.NewFakeGateway("pk_test")
	dedupe := NewMemDeduper()
	m := metrics.New()
	log := logger.Discard()

	return &fixture{
		store:     store,
		gateway:   gateway,
		dedupe:    dedupe,
		metrics:   m,
		carts:     NewCartService(store, m.Domain, log),
		checkout:  NewCheckoutService(store, gateway, m.Domain, log),
		orders:    NewOrderService(store, m.Domain, log),
		reconcile: NewReconcileService(store, dedupe, m.Domain, log),
		inventory: NewInventoryService(store, log),
	}
}

func (f *fixture) item(t *testing.T, price string, qty int) uuid.UUID {
	t.Helper()
	item, err := f.inventory.UpsertItem(context.Background(), admin, domain.Item{
		ID:           uuid.New(),
		Name:         "Apples",
		Price:        decimal.RequireFromString(price),
		Quantity:     qty,
		QuantityUnit: "kg",
	})
	require.NoError(t, err)
	return item.ID
}

func (f *fixture) cart(t *testing.T, owner domain.Actor) uuid.UUID {
	t.Helper()
	cart, err := f.carts.CreateCart(context.Background(), owner)
	require.NoError(t, err)
	return cart.ID
}

func (f *fixture) add(t *testing.T, owner domain.Actor, cartID, itemID uuid.UUID, qty int) {
	t.Helper()
	_, err := f.carts.AddLineItem(context.Background(), owner, cartID, itemID, qty)
	require.NoError(t, err)
}

func (f *fixture) placeOrder(t *testing.T, owner domain.Actor, price string, stock, qty int) (*domain.CheckoutResult, uuid.UUID) {
	t.Helper()
	itemID := f.item(t, price, stock)
	cartID := f.cart(t, owner)
	f.add(t, owner, cartID, itemID, qty)
	res, err := f.checkout.Checkout(context.Background(), owner, cartID)
	require.NoError(t, err)
	return res, itemID
}

func succeeded(eventID, intentID string) payment.Event {
	return payment.Event{ID: eventID, Type: payment.EventPaymentSucceeded, PaymentIntentID: intentID}
}
