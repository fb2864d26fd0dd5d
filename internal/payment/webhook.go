package payment

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76/webhook"
)

const EventPaymentSucceeded = "payment_intent.succeeded"

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

// Event is the part of a processor notification the core acts on.
type Event struct {
	ID              string
	Type            string
	PaymentIntentID string
}

type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// ParseEvent decodes a webhook body. When secret is non-empty the
// Stripe-Signature header is verified first.
func ParseEvent(payload []byte, sigHeader, secret string) (Event, error) {
	if secret != "" {
		if err := webhook.ValidatePayload(payload, sigHeader, secret); err != nil {
			return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
	}

	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.Type == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrMalformedEvent)
	}
	return Event{
		ID:              env.ID,
		Type:            env.Type,
		PaymentIntentID: env.Data.Object.ID,
	}, nil
}
