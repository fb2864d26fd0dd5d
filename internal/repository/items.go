package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

func (t *pgTx) GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	query := `SELECT id, name, price, offer_price, quantity, quantity_unit
	          FROM items WHERE id = $1`

	var item domain.Item
	err := t.tx.QueryRowContext(ctx, query, id).Scan(
		&item.ID,
		&item.Name,
		&item.Price,
		&item.OfferPrice,
		&item.Quantity,
		&item.QuantityUnit,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("item", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query item by id: %w", err)
	}
	return &item, nil
}

// UpsertItem is the administrative restock path. Carts never call it.
func (t *pgTx) UpsertItem(ctx context.Context, item *domain.Item) error {
	if item.Quantity < 0 {
		return domain.ErrInvalidItem
	}

	query := `INSERT INTO items (id, name, price, offer_price, quantity, quantity_unit)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          ON CONFLICT (id) DO UPDATE SET
	              name = EXCLUDED.name,
	              price = EXCLUDED.price,
	              offer_price = EXCLUDED.offer_price,
	              quantity = EXCLUDED.quantity,
	              quantity_unit = EXCLUDED.quantity_unit,
	              updated_at = NOW()`

	_, err := t.tx.ExecContext(ctx, query,
		item.ID,
		item.Name,
		item.Price,
		item.OfferPrice,
		item.Quantity,
		item.QuantityUnit)
	if err != nil {
		return fmt.Errorf("upsert item: %w", err)
	}
	return nil
}
