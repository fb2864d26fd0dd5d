package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart              = errors.New("cart is empty, nothing to checkout")
	ErrCartCheckedOut         = errors.New("cart already has an order and can no longer change")
	ErrInvalidQuantity        = errors.New("quantity must be positive")
	ErrInvalidItem            = errors.New("item price and stock must not be negative")
	ErrTransitionNotPermitted = errors.New("order status change not permitted for this principal")
	ErrUnauthenticated        = errors.New("missing authenticated principal")
)

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("no such %s found", e.Resource)
	}
	return fmt.Sprintf("no such %s with id %s found", e.Resource, e.ID)
}

func NewNotFound(resource string, id fmt.Stringer) error {
	return &NotFoundError{Resource: resource, ID: id.String()}
}

type AuthorizationError struct {
	Resource   string
	ActorID    string
	ResourceID string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s(%s) can't be accessed by user(%s)", e.Resource, e.ResourceID, e.ActorID)
}

type InsufficientStockError struct {
	ItemID    string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("the requested quantity '%d' exceeds the stock quantity '%d'", e.Requested, e.Available)
}

type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("illegal order status transition %s -> %s", e.From, e.To)
}

// UpstreamPaymentError wraps any failure of the payment gateway.
type UpstreamPaymentError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *UpstreamPaymentError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamPaymentError) Unwrap() error {
	return e.Err
}

// IsBusiness reports errors that describe a rule violation rather than an
// infrastructure failure. They are never retried.
func IsBusiness(err error) bool {
	var (
		nf  *NotFoundError
		ae  *AuthorizationError
		ise *InsufficientStockError
		ite *InvalidTransitionError
		upe *UpstreamPaymentError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &ae), errors.As(err, &ise),
		errors.As(err, &ite), errors.As(err, &upe):
		return true
	case errors.Is(err, ErrEmptyCart), errors.Is(err, ErrCartCheckedOut),
		errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidItem),
		errors.Is(err, ErrTransitionNotPermitted):
		return true
	}
	return false
}
