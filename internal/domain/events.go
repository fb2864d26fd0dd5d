package domain

import "time"

const (
	EventOrderCreated   = "order.created"
	EventOrderPaid      = "order.paid"
	EventOrderShipped   = "order.shipped"
	EventOrderDelivered = "order.delivered"
	EventOrderCanceled  = "order.canceled"
)

// OrderEvent is the payload written to the outbox on every order change.
type OrderEvent struct {
	OrderID    string      `json:"order_id"`
	UserID     string      `json:"user_id"`
	Status     OrderStatus `json:"status"`
	TotalPrice string      `json:"total_price"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// EventTypeFor maps a target status to its outbox event type.
func EventTypeFor(s OrderStatus) string {
	switch s {
	case OrderStatusPaid:
		return EventOrderPaid
	case OrderStatusShipped:
		return EventOrderShipped
	case OrderStatusDelivered:
		return EventOrderDelivered
	case OrderStatusCanceled:
		return EventOrderCanceled
	}
	return EventOrderCreated
}

func NewOrderEvent(o Order, at time.Time) OrderEvent {
	return OrderEvent{
		OrderID:    o.ID.String(),
		UserID:     o.UserID,
		Status:     o.Status,
		TotalPrice: o.TotalPrice.StringFixed(2),
		OccurredAt: at,
	}
}
