package service

import (
	"context"
	"log/slog"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
)

// InventoryService is the administrative path for creating and restocking
// items. Reservations never go through it.
type InventoryService struct {
	store repository.Store
	log   *slog.Logger
}

func NewInventoryService(store repository.Store, log *slog.Logger) *InventoryService {
	return &InventoryService{store: store, log: log}
}

func (s *InventoryService) UpsertItem(ctx context.Context, actor domain.Actor, item domain.Item) (*domain.Item, error) {
	if !actor.IsValid() {
		return nil, domain.ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return nil, &domain.AuthorizationError{Resource: "item", ActorID: actor.UserID(), ResourceID: item.ID.String()}
	}
	if item.Quantity < 0 || item.Price.IsNegative() {
		return nil, domain.ErrInvalidItem
	}

	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		return tx.UpsertItem(ctx, &item)
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "item upserted",
		slog.String("item_id", item.ID.String()),
		slog.Int("quantity", item.Quantity),
		slog.String("by", actor.String()))
	return &item, nil
}
