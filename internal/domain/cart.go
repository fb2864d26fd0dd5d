package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        uuid.UUID  `json:"id"`
	UserID    string     `json:"user_id"`
	Items     []LineItem `json:"items"`
	OrderID   *uuid.UUID `json:"order_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// CheckedOut reports whether an order was already placed for the cart.
func (c Cart) CheckedOut() bool {
	return c.OrderID != nil
}

// LineItem is one reservation held by a cart.
type LineItem struct {
	CartID   uuid.UUID    `json:"cart_id"`
	ItemID   uuid.UUID    `json:"item_id"`
	Quantity int          `json:"quantity"`
	Item     ItemSnapshot `json:"item"`
	AddedAt  time.Time    `json:"added_at"`
}

// Subtotal prices the line with the item's current unit price.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums the line subtotals with exact decimal arithmetic.
func Total(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
