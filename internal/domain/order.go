package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          string          `json:"user_id"`
	CartID          uuid.UUID       `json:"cart_id"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	PaymentIntentID string          `json:"-"`
	Status          OrderStatus     `json:"status"`
	Items           []OrderLineItem `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderLineItem is copied from the cart at checkout and never changes
// afterwards, whatever happens to the item's price.
type OrderLineItem struct {
	OrderID   uuid.UUID       `json:"order_id"`
	ItemID    uuid.UUID       `json:"item_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CheckoutResult is what the client needs to complete the payment.
type CheckoutResult struct {
	Order          Order  `json:"order"`
	ClientSecret   string `json:"client_secret"`
	PublishableKey string `json:"publishable_key"`
	Replayed       bool   `json:"replayed"`
}

// SnapshotLines converts priced cart lines into order lines.
func SnapshotLines(orderID uuid.UUID, lines []LineItem) []OrderLineItem {
	out := make([]OrderLineItem, len(lines))
	for i, l := range lines {
		out[i] = OrderLineItem{
			OrderID:   orderID,
			ItemID:    l.ItemID,
			Quantity:  l.Quantity,
			UnitPrice: l.Item.Price,
		}
	}
	return out
}
