package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/payment"
)

// maxWebhookBody matches the limit Stripe documents for event payloads.
const maxWebhookBody = 65536

type WebhookHandler struct {
	reconciler Reconciler
	secret     string
	timeout    time.Duration
	log        *slog.Logger
}

func NewWebhookHandler(reconciler Reconciler, secret string, timeout time.Duration, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		secret:     secret,
		timeout:    timeout,
		log:        log,
	}
}

type WebhookResponseDTO struct {
	Received bool   `json:"received"`
	Result   string `json:"result"`
}

// POST /webhooks/payment
func (h *WebhookHandler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "webhook body too large")
		return
	}

	ev, err := payment.ParseEvent(payload, r.Header.Get("Stripe-Signature"), h.secret)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			h.log.WarnContext(ctx, "rejected webhook", slog.String("error", err.Error()))
			respondError(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
			return
		}
		handleServiceError(w, r, h.log, err)
		return
	}

	res, err := h.reconciler.Reconcile(ctx, ev)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, WebhookResponseDTO{Received: true, Result: string(res)})
}
