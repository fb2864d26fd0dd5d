package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FakeGateway keeps intents in memory. It backs local runs with
// PAYMENT_PROVIDER=fake and the service tests.
type FakeGateway struct {
	mu             sync.Mutex
	intents        map[string]fakeIntent
	byKey          map[string]string
	publishableKey string

	// Err, when set, is returned by every call.
	Err     error
	Created int
}

type fakeIntent struct {
	Intent
	Amount decimal.Decimal
	Email  string
}

func NewFakeGateway(publishableKey string) *FakeGateway {
	return &FakeGateway{
		intents:        make(map[string]fakeIntent),
		byKey:          make(map[string]string),
		publishableKey: publishableKey,
	}
}

func (g *FakeGateway) CreatePayment(ctx context.Context, req PaymentRequest) (Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure(ctx); err != nil {
		return Intent{}, err
	}
	if id, ok := g.byKey[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		return g.intents[id].Intent, nil
	}

	id := "pi_" + uuid.NewString()
	in := Intent{
		ID:             id,
		ClientSecret:   id + "_secret",
		PublishableKey: g.publishableKey,
	}
	g.intents[id] = fakeIntent{Intent: in, Amount: req.Amount, Email: req.PayerEmail}
	if req.IdempotencyKey != "" {
		g.byKey[req.IdempotencyKey] = id
	}
	g.Created++
	return in, nil
}

func (g *FakeGateway) FindPayment(ctx context.Context, intentID string) (Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure(ctx); err != nil {
		return Intent{}, err
	}

	in, ok := g.intents[intentID]
	if !ok {
		return Intent{}, fmt.Errorf("no such payment intent %s", intentID)
	}
	return in.Intent, nil
}

// Amount returns what the intent was created for.
func (g *FakeGateway) Amount(intentID string) (decimal.Decimal, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	in, ok := g.intents[intentID]
	return in.Amount, ok
}

func (g *FakeGateway) failure(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return g.Err
}
