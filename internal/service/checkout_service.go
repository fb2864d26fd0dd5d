package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// checkoutCallTimeout bounds a checkout shared by several callers, since
// it no longer stops when the caller that started it goes away.
const checkoutCallTimeout = 30 * time.Second

const (
	checkoutCreated  = "created"
	checkoutReplayed = "replayed"
	checkoutEmpty    = "empty_cart"
	checkoutFailed   = "failed"
)

// CheckoutService turns a cart into a pending order and a payment intent.
type CheckoutService struct {
	store   repository.Store
	gateway payment.Gateway
	metrics *metrics.DomainMetrics
	log     *slog.Logger
	now     func() time.Time
	sfg     singleflight.Group // collapses concurrent checkouts of one cart
}

func NewCheckoutService(store repository.Store, gateway payment.Gateway, m *metrics.DomainMetrics, log *slog.Logger) *CheckoutService {
	return &CheckoutService{
		store:   store,
		gateway: gateway,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Checkout places the order for cartID. Calling it again for a cart that
// already has an order returns that order and its existing payment intent.
//
// The payment intent is created while the cart row is locked, keyed by
// cart and amount. A replayed transaction or a retry after a failed commit
// gets the same intent back from the processor.
//
// Concurrent calls for the same cart share one run. A caller that gives up
// does not cancel the run for the others.
func (s *CheckoutService) Checkout(ctx context.Context, actor domain.Actor, cartID uuid.UUID) (*domain.CheckoutResult, error) {
	key := actor.String() + "/" + cartID.String()
	ch := s.sfg.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), checkoutCallTimeout)
		defer cancel()
		return s.checkout(shared, actor, cartID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		res := *r.Val.(*domain.CheckoutResult)
		return &res, nil
	}
}

// paymentKey is stable across transaction replays and repeated checkouts
// of an unchanged cart, so the processor hands back the same intent.
func paymentKey(cartID uuid.UUID, total decimal.Decimal) string {
	return fmt.Sprintf("checkout-%s-%d", cartID, payment.MinorUnits(total))
}

func (s *CheckoutService) checkout(ctx context.Context, actor domain.Actor, cartID uuid.UUID) (*domain.CheckoutResult, error) {
	var result *domain.CheckoutResult
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		cart, err := lockOwnedCart(ctx, tx, actor, cartID)
		if err != nil {
			return err
		}

		if cart.CheckedOut() {
			result, err = s.existing(ctx, tx, cartID)
			return err
		}

		lines, err := tx.LineItems(ctx, cartID)
		if err != nil {
			return err
		}
		total := domain.Total(lines)
		if len(lines) == 0 || !total.IsPositive() {
			return domain.ErrEmptyCart
		}

		intent, err := s.gateway.CreatePayment(ctx, payment.PaymentRequest{
			Amount:         total,
			PayerEmail:     actor.Email(),
			IdempotencyKey: paymentKey(cartID, total),
		})
		if err != nil {
			return err
		}

		now := s.now().UTC()
		order := &domain.Order{
			ID:              uuid.New(),
			UserID:          cart.UserID,
			CartID:          cartID,
			TotalPrice:      total,
			PaymentIntentID: intent.ID,
			Status:          domain.OrderStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		order.Items = domain.SnapshotLines(order.ID, lines)

		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := tx.EnqueueEvent(ctx, order.ID.String(), domain.EventOrderCreated, domain.NewOrderEvent(*order, now)); err != nil {
			return err
		}

		result = &domain.CheckoutResult{
			Order:          *order,
			ClientSecret:   intent.ClientSecret,
			PublishableKey: intent.PublishableKey,
		}
		return nil
	})

	switch {
	case err == nil && result.Replayed:
		s.metrics.Checkouts.WithLabelValues(checkoutReplayed).Inc()
	case err == nil:
		s.metrics.Checkouts.WithLabelValues(checkoutCreated).Inc()
		s.log.InfoContext(ctx, "order placed",
			slog.String("order_id", result.Order.ID.String()),
			slog.String("cart_id", cartID.String()),
			slog.String("total", result.Order.TotalPrice.StringFixed(2)))
	case errors.Is(err, domain.ErrEmptyCart):
		s.metrics.Checkouts.WithLabelValues(checkoutEmpty).Inc()
	default:
		s.metrics.Checkouts.WithLabelValues(checkoutFailed).Inc()
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *CheckoutService) existing(ctx context.Context, tx repository.Tx, cartID uuid.UUID) (*domain.CheckoutResult, error) {
	order, err := tx.OrderByCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	intent, err := s.gateway.FindPayment(ctx, order.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	return &domain.CheckoutResult{
		Order:          *order,
		ClientSecret:   intent.ClientSecret,
		PublishableKey: intent.PublishableKey,
		Replayed:       true,
	}, nil
}
