package payment

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

type StripeGateway struct {
	sc             *client.API
	currency       string
	publishableKey string
}

func NewStripeGateway(secretKey, publishableKey, currency string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{
		sc:             sc,
		currency:       currency,
		publishableKey: publishableKey,
	}
}

func (g *StripeGateway) CreatePayment(ctx context.Context, req PaymentRequest) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(MinorUnits(req.Amount)),
		Currency:           stripe.String(g.currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	if req.PayerEmail != "" {
		params.ReceiptEmail = stripe.String(req.PayerEmail)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx

	pi, err := g.sc.PaymentIntents.New(params)
	if err != nil {
		return Intent{}, fmt.Errorf("stripe create payment intent: %w", err)
	}
	return g.intent(pi), nil
}

func (g *StripeGateway) FindPayment(ctx context.Context, intentID string) (Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.sc.PaymentIntents.Get(intentID, params)
	if err != nil {
		return Intent{}, fmt.Errorf("stripe get payment intent %s: %w", intentID, err)
	}
	return g.intent(pi), nil
}

func (g *StripeGateway) intent(pi *stripe.PaymentIntent) Intent {
	return Intent{
		ID:             pi.ID,
		ClientSecret:   pi.ClientSecret,
		PublishableKey: g.publishableKey,
	}
}
