package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

// Reserve debits qty from the item's available stock and returns what is
// left. The compare-and-swap happens in the UPDATE itself, so two
// concurrent reservations can never drive stock below zero.
func (t *pgTx) Reserve(ctx context.Context, itemID uuid.UUID, qty int) (int, error) {
	if qty <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	query := `UPDATE items SET quantity = quantity - $2, updated_at = NOW()
	          WHERE id = $1 AND quantity >= $2
	          RETURNING quantity`

	var remaining int
	err := t.tx.QueryRowContext(ctx, query, itemID, qty).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("reserve item: %w", err)
	}

	var available int
	errSel := t.tx.QueryRowContext(ctx, `SELECT quantity FROM items WHERE id = $1`, itemID).Scan(&available)
	if errors.Is(errSel, sql.ErrNoRows) {
		return 0, domain.NewNotFound("item", itemID)
	}
	if errSel != nil {
		return 0, fmt.Errorf("read item stock: %w", errSel)
	}
	return 0, &domain.InsufficientStockError{
		ItemID:    itemID.String(),
		Requested: qty,
		Available: available,
	}
}

// Release credits qty back to the item's available stock.
func (t *pgTx) Release(ctx context.Context, itemID uuid.UUID, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}

	res, err := t.tx.ExecContext(ctx,
		`UPDATE items SET quantity = quantity + $2, updated_at = NOW() WHERE id = $1`, itemID, qty)
	if err != nil {
		return fmt.Errorf("release item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release item rows: %w", err)
	}
	if n == 0 {
		return domain.NewNotFound("item", itemID)
	}
	return nil
}
