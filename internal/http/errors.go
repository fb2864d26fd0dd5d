package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/payment"
	"github.com/go-chi/chi/v5/middleware"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Error("failed to encode response", slog.String("error", err.Error()))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps domain errors to HTTP responses. Unknown errors
// are logged in full and answered with a generic 500.
func handleServiceError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var (
		nf  *domain.NotFoundError
		ae  *domain.AuthorizationError
		ise *domain.InsufficientStockError
		ite *domain.InvalidTransitionError
		upe *domain.UpstreamPaymentError
	)

	switch {
	case errors.As(err, &nf):
		respondError(w, http.StatusNotFound, "not_found", nf.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
	case errors.As(err, &ae):
		respondError(w, http.StatusForbidden, "forbidden", ae.Error())
	case errors.Is(err, domain.ErrTransitionNotPermitted):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.As(err, &ise):
		respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   ise.Error(),
			Code:    "insufficient_stock",
			Details: fmt.Sprintf("item_id=%s requested=%d available=%d", ise.ItemID, ise.Requested, ise.Available),
		})
	case errors.Is(err, domain.ErrEmptyCart):
		respondError(w, http.StatusUnprocessableEntity, "empty_cart", err.Error())
	case errors.As(err, &ite):
		respondError(w, http.StatusConflict, "invalid_transition", ite.Error())
	case errors.Is(err, domain.ErrCartCheckedOut):
		respondError(w, http.StatusConflict, "cart_checked_out", err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, domain.ErrInvalidItem):
		respondError(w, http.StatusBadRequest, "invalid_item", err.Error())
	case errors.Is(err, payment.ErrMalformedEvent):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.As(err, &upe):
		log.ErrorContext(r.Context(), "payment gateway failure",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("error", err.Error()))
		if upe.Timeout {
			respondError(w, http.StatusGatewayTimeout, "payment_timeout", "payment provider timed out")
			return
		}
		respondError(w, http.StatusBadGateway, "payment_unavailable", "payment provider unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		log.ErrorContext(r.Context(), "unhandled error",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}

	if domain.IsBusiness(err) {
		log.DebugContext(r.Context(), "request rejected", slog.String("error", err.Error()))
	}
}
