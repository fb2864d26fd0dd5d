package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/repository"
	"github.com/google/uuid"
)

// CartService owns carts and their line items. Every line item change
// moves the same quantity through the inventory ledger in the same
// transaction.
type CartService struct {
	store   repository.Store
	metrics *metrics.DomainMetrics
	log     *slog.Logger
}

func NewCartService(store repository.Store, m *metrics.DomainMetrics, log *slog.Logger) *CartService {
	return &CartService{
		store:   store,
		metrics: m,
		log:     log,
	}
}

func (s *CartService) CreateCart(ctx context.Context, actor domain.Actor) (*domain.Cart, error) {
	if !actor.IsValid() {
		return nil, domain.ErrUnauthenticated
	}

	cart := &domain.Cart{
		ID:     uuid.New(),
		UserID: actor.UserID(),
		Items:  []domain.LineItem{},
	}
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.CreateCart(ctx, cart)
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) GetCart(ctx context.Context, actor domain.Actor, cartID uuid.UUID) (*domain.Cart, error) {
	var cart *domain.Cart
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		cart, err = tx.GetCart(ctx, cartID)
		if err != nil {
			return err
		}
		if err := auth.Authorize(actor, "cart", cartID.String(), cart.UserID); err != nil {
			return err
		}
		cart.Items, err = tx.LineItems(ctx, cartID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// ListCarts lists the actor's carts. Administrators may pass userID to
// list another user's carts, or leave it empty to list all of them.
func (s *CartService) ListCarts(ctx context.Context, actor domain.Actor, userID string) ([]*domain.Cart, error) {
	scope, err := auth.ScopeUser(actor, userID)
	if err != nil {
		return nil, err
	}

	var carts []*domain.Cart
	err = s.store.InTx(ctx, func(tx repository.Tx) error {
		var err error
		carts, err = tx.ListCarts(ctx, scope)
		if err != nil {
			return err
		}
		for _, c := range carts {
			if c.Items, err = tx.LineItems(ctx, c.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if carts == nil {
		carts = []*domain.Cart{}
	}
	return carts, nil
}

// AddLineItem reserves qty of the item and adds it to the cart. Adding an
// item already in the cart increases its quantity.
func (s *CartService) AddLineItem(ctx context.Context, actor domain.Actor, cartID, itemID uuid.UUID, qty int) (*domain.LineItem, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	var line *domain.LineItem
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if _, err := lockMutableCart(ctx, tx, actor, cartID); err != nil {
			return err
		}
		if _, err := s.reserve(ctx, tx, itemID, qty); err != nil {
			return err
		}
		if err := tx.AddLineItem(ctx, cartID, itemID, qty); err != nil {
			return err
		}
		var err error
		line, err = tx.GetLineItem(ctx, cartID, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// UpdateLineItemQty sets the line quantity, reserving or releasing the
// difference. A quantity of zero removes the line and returns nil.
func (s *CartService) UpdateLineItemQty(ctx context.Context, actor domain.Actor, cartID, itemID uuid.UUID, qty int) (*domain.LineItem, error) {
	if qty < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if qty == 0 {
		return nil, s.RemoveLineItem(ctx, actor, cartID, itemID)
	}

	var line *domain.LineItem
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		if _, err := lockMutableCart(ctx, tx, actor, cartID); err != nil {
			return err
		}
		current, err := tx.GetLineItem(ctx, cartID, itemID)
		if err != nil {
			return err
		}

		switch delta := qty - current.Quantity; {
		case delta > 0:
			if _, err := s.reserve(ctx, tx, itemID, delta); err != nil {
				return err
			}
		case delta < 0:
			if err := tx.Release(ctx, itemID, -delta); err != nil {
				return err
			}
		}

		if err := tx.SetLineItemQty(ctx, cartID, itemID, qty); err != nil {
			return err
		}
		line, err = tx.GetLineItem(ctx, cartID, itemID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *CartService) RemoveLineItem(ctx context.Context, actor domain.Actor, cartID, itemID uuid.UUID) error {
	return s.store.InTx(ctx, func(tx repository.Tx) error {
		if _, err := lockMutableCart(ctx, tx, actor, cartID); err != nil {
			return err
		}
		line, err := tx.GetLineItem(ctx, cartID, itemID)
		if err != nil {
			return err
		}
		if err := tx.DeleteLineItem(ctx, cartID, itemID); err != nil {
			return err
		}
		return tx.Release(ctx, itemID, line.Quantity)
	})
}

// DeleteCart gives every reservation back to the ledger and deletes the
// cart. Checked out carts are kept with their order.
func (s *CartService) DeleteCart(ctx context.Context, actor domain.Actor, cartID uuid.UUID) error {
	return s.store.InTx(ctx, func(tx repository.Tx) error {
		if _, err := lockMutableCart(ctx, tx, actor, cartID); err != nil {
			return err
		}
		lines, err := tx.LineItems(ctx, cartID)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if err := tx.Release(ctx, l.ItemID, l.Quantity); err != nil {
				return err
			}
		}
		return tx.DeleteCart(ctx, cartID)
	})
}

func (s *CartService) reserve(ctx context.Context, tx repository.Tx, itemID uuid.UUID, qty int) (int, error) {
	remaining, err := tx.Reserve(ctx, itemID, qty)
	var ise *domain.InsufficientStockError
	if errors.As(err, &ise) {
		s.metrics.StockRejections.Inc()
		s.log.InfoContext(ctx, "reservation refused",
			slog.String("item_id", itemID.String()),
			slog.Int("requested", ise.Requested),
			slog.Int("available", ise.Available))
	}
	return remaining, err
}

// lockOwnedCart locks the cart row and checks the actor may use it.
func lockOwnedCart(ctx context.Context, tx repository.Tx, actor domain.Actor, cartID uuid.UUID) (*domain.Cart, error) {
	cart, err := tx.LockCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := auth.Authorize(actor, "cart", cartID.String(), cart.UserID); err != nil {
		return nil, err
	}
	return cart, nil
}

func lockMutableCart(ctx context.Context, tx repository.Tx, actor domain.Actor, cartID uuid.UUID) (*domain.Cart, error) {
	cart, err := lockOwnedCart(ctx, tx, actor, cartID)
	if err != nil {
		return nil, err
	}
	if cart.CheckedOut() {
		return nil, domain.ErrCartCheckedOut
	}
	return cart, nil
}
