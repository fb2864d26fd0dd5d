package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/storefront/internal/domain"
	"github.com/google/uuid"
)

const orderColumns = `SELECT id, user_id, cart_id, total_price, payment_intent_id, status, created_at, updated_at
	FROM orders`

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.CartID,
		&o.TotalPrice,
		&o.PaymentIntentID,
		&o.Status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder inserts the order together with its line snapshot.
func (t *pgTx) CreateOrder(ctx context.Context, order *domain.Order) error {
	query := `INSERT INTO orders (id, user_id, cart_id, total_price, payment_intent_id, status)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at, updated_at`

	err := t.tx.QueryRowContext(ctx, query,
		order.ID,
		order.UserID,
		order.CartID,
		order.TotalPrice,
		order.PaymentIntentID,
		order.Status,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if pqCode(err) == pqUniqueViolation {
			return ErrOrderExists
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for _, li := range order.Items {
		_, err := t.tx.ExecContext(ctx,
			`INSERT INTO order_line_items (order_id, item_id, quantity, unit_price) VALUES ($1, $2, $3, $4)`,
			order.ID, li.ItemID, li.Quantity, li.UnitPrice)
		if err != nil {
			return fmt.Errorf("insert order line item: %w", err)
		}
	}
	return nil
}

func (t *pgTx) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return t.findOrder(ctx, orderColumns+` WHERE id = $1`, id, domain.NewNotFound("order", id))
}

// OrderByCart returns the order placed for the cart, if any.
func (t *pgTx) OrderByCart(ctx context.Context, cartID uuid.UUID) (*domain.Order, error) {
	return t.findOrder(ctx, orderColumns+` WHERE cart_id = $1`, cartID, &domain.NotFoundError{Resource: "order for cart", ID: cartID.String()})
}

func (t *pgTx) LockOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return t.findOrder(ctx, orderColumns+` WHERE id = $1 FOR UPDATE`, id, domain.NewNotFound("order", id))
}

func (t *pgTx) LockOrderByPaymentIntent(ctx context.Context, intentID string) (*domain.Order, error) {
	return t.findOrder(ctx, orderColumns+` WHERE payment_intent_id = $1 FOR UPDATE`, intentID,
		&domain.NotFoundError{Resource: "order for payment intent", ID: intentID})
}

func (t *pgTx) findOrder(ctx context.Context, query string, arg any, notFound error) (*domain.Order, error) {
	order, err := scanOrder(t.tx.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	order.Items, err = t.orderLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (t *pgTx) orderLines(ctx context.Context, orderID uuid.UUID) ([]domain.OrderLineItem, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT order_id, item_id, quantity, unit_price FROM order_line_items WHERE order_id = $1 ORDER BY item_id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("query order line items: %w", err)
	}
	defer rows.Close()

	lines := []domain.OrderLineItem{}
	for rows.Next() {
		var li domain.OrderLineItem
		if err := rows.Scan(&li.OrderID, &li.ItemID, &li.Quantity, &li.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order line item row: %w", err)
		}
		lines = append(lines, li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return lines, nil
}

// ListOrders returns orders of userID, or every order when userID is empty.
// Line items are not loaded.
func (t *pgTx) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	rows, err := t.tx.QueryContext(ctx,
		orderColumns+` WHERE ($1 = '' OR user_id = $1) ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		// Listings carry headers only; lines come from GetOrder.
		order.Items = []domain.OrderLineItem{}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

func (t *pgTx) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status domain.OrderStatus) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return expectOne(res, domain.NewNotFound("order", id))
}
