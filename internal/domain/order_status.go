package domain

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCanceled  OrderStatus = "canceled"
)

// edges lists every legal transition and who may drive it.
var edges = map[OrderStatus]map[OrderStatus][]Authority{
	OrderStatusPending: {
		OrderStatusPaid:     {AuthoritySystem},
		OrderStatusCanceled: {AuthorityOwner, AuthorityAdmin},
	},
	OrderStatusPaid: {
		OrderStatusShipped:  {AuthorityAdmin},
		OrderStatusCanceled: {AuthorityOwner, AuthorityAdmin},
	},
	OrderStatusShipped: {
		OrderStatusDelivered: {AuthorityAdmin},
	},
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCanceled
}

// rank orders the happy path so "already past" checks are cheap.
func (s OrderStatus) rank() int {
	switch s {
	case OrderStatusPending:
		return 0
	case OrderStatusPaid:
		return 1
	case OrderStatusShipped:
		return 2
	case OrderStatusDelivered:
		return 3
	}
	return -1
}

// Reached reports whether s is target or a later step of the
// pending → paid → shipped → delivered path.
func (s OrderStatus) Reached(target OrderStatus) bool {
	return s.rank() >= 0 && target.rank() >= 0 && s.rank() >= target.rank()
}

func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks the edge and the authority driving it.
func CanTransitionTo(from, to OrderStatus, by Authority) error {
	if from.IsTerminal() {
		return &InvalidTransitionError{From: from, To: to}
	}
	allowed, ok := edges[from][to]
	if !ok {
		return &InvalidTransitionError{From: from, To: to}
	}
	for _, a := range allowed {
		if a == by {
			return nil
		}
	}
	return ErrTransitionNotPermitted
}
