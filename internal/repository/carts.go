package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

const cartColumns = `SELECT c.id, c.user_id, c.created_at, o.id
	FROM carts c LEFT JOIN orders o ON o.cart_id = c.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCart(row rowScanner) (*domain.Cart, error) {
	var (
		cart    domain.Cart
		orderID uuid.NullUUID
	)
	if err := row.Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &orderID); err != nil {
		return nil, err
	}
	if orderID.Valid {
		id := orderID.UUID
		cart.OrderID = &id
	}
	return &cart, nil
}

func (t *pgTx) CreateCart(ctx context.Context, cart *domain.Cart) error {
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO carts (id, user_id) VALUES ($1, $2) RETURNING created_at`,
		cart.ID, cart.UserID).Scan(&cart.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

func (t *pgTx) GetCart(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	cart, err := scanCart(t.tx.QueryRowContext(ctx, cartColumns+` WHERE c.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("cart", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query cart by id: %w", err)
	}
	return cart, nil
}

// LockCart takes the cart row lock that serializes every mutation and
// checkout of the cart.
func (t *pgTx) LockCart(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	cart, err := scanCart(t.tx.QueryRowContext(ctx, cartColumns+` WHERE c.id = $1 FOR UPDATE OF c`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("cart", id)
	}
	if err != nil {
		return nil, fmt.Errorf("lock cart: %w", err)
	}
	return cart, nil
}

// ListCarts returns carts of userID, or every cart when userID is empty.
func (t *pgTx) ListCarts(ctx context.Context, userID string) ([]*domain.Cart, error) {
	query := cartColumns + ` WHERE ($1 = '' OR c.user_id = $1) ORDER BY c.created_at DESC`

	rows, err := t.tx.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query carts: %w", err)
	}
	defer rows.Close()

	var carts []*domain.Cart
	for rows.Next() {
		cart, err := scanCart(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart row: %w", err)
		}
		carts = append(carts, cart)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return carts, nil
}

func (t *pgTx) DeleteCart(ctx context.Context, id uuid.UUID) error {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return expectOne(res, domain.NewNotFound("cart", id))
}

const lineItemColumns = `SELECT li.cart_id, li.item_id, li.quantity, li.added_at,
	       i.id, i.name, i.price, i.offer_price, i.quantity_unit
	FROM cart_line_items li JOIN items i ON i.id = li.item_id`

func scanLineItem(row rowScanner) (*domain.LineItem, error) {
	var li domain.LineItem
	err := row.Scan(
		&li.CartID,
		&li.ItemID,
		&li.Quantity,
		&li.AddedAt,
		&li.Item.ID,
		&li.Item.Name,
		&li.Item.Price,
		&li.Item.OfferPrice,
		&li.Item.QuantityUnit,
	)
	if err != nil {
		return nil, err
	}
	return &li, nil
}

// LineItems returns the cart's lines in insertion order, joined with the
// item's current price.
func (t *pgTx) LineItems(ctx context.Context, cartID uuid.UUID) ([]domain.LineItem, error) {
	rows, err := t.tx.QueryContext(ctx,
		lineItemColumns+` WHERE li.cart_id = $1 ORDER BY li.added_at, li.item_id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("query line items: %w", err)
	}
	defer rows.Close()

	lines := []domain.LineItem{}
	for rows.Next() {
		li, err := scanLineItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan line item row: %w", err)
		}
		lines = append(lines, *li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return lines, nil
}

func (t *pgTx) GetLineItem(ctx context.Context, cartID, itemID uuid.UUID) (*domain.LineItem, error) {
	li, err := scanLineItem(t.tx.QueryRowContext(ctx,
		lineItemColumns+` WHERE li.cart_id = $1 AND li.item_id = $2`, cartID, itemID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFound("cart line item", itemID)
	}
	if err != nil {
		return nil, fmt.Errorf("query line item: %w", err)
	}
	return li, nil
}

// AddLineItem inserts the line or adds qty to an existing one.
func (t *pgTx) AddLineItem(ctx context.Context, cartID, itemID uuid.UUID, qty int) error {
	query := `INSERT INTO cart_line_items (cart_id, item_id, quantity)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (cart_id, item_id)
	          DO UPDATE SET quantity = cart_line_items.quantity + EXCLUDED.quantity`

	if _, err := t.tx.ExecContext(ctx, query, cartID, itemID, qty); err != nil {
		return fmt.Errorf("upsert line item: %w", err)
	}
	return nil
}

func (t *pgTx) SetLineItemQty(ctx context.Context, cartID, itemID uuid.UUID, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE cart_line_items SET quantity = $3 WHERE cart_id = $1 AND item_id = $2`,
		cartID, itemID, qty)
	if err != nil {
		return fmt.Errorf("update line item: %w", err)
	}
	return expectOne(res, domain.NewNotFound("cart line item", itemID))
}

func (t *pgTx) DeleteLineItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	res, err := t.tx.ExecContext(ctx,
		`DELETE FROM cart_line_items WHERE cart_id = $1 AND item_id = $2`, cartID, itemID)
	if err != nil {
		return fmt.Errorf("delete line item: %w", err)
	}
	return expectOne(res, domain.NewNotFound("cart line item", itemID))
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
