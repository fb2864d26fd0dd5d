// Package payment talks to the external payment processor.
package payment

import (
	"context"

	"github.com/shopspring/decimal"
)

// Intent is the processor's in-progress charge. Only ID is persisted.
type Intent struct {
	ID             string `json:"payment_intent_id"`
	ClientSecret   string `json:"client_secret"`
	PublishableKey string `json:"publishable_key"`
}

// PaymentRequest describes one charge. Requests repeated with the same
// IdempotencyKey return the intent the first one created.
type PaymentRequest struct {
	Amount         decimal.Decimal
	PayerEmail     string
	IdempotencyKey string
}

type Gateway interface {
	CreatePayment(ctx context.Context, req PaymentRequest) (Intent, error)
	FindPayment(ctx context.Context, intentID string) (Intent, error)
}

// MinorUnits converts a decimal amount to the processor's integer minor
// currency unit, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
