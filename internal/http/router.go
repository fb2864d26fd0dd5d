package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Carts      CartService
	Checkout   CheckoutService
	Orders     OrderService
	Inventory  InventoryService
	Reconciler Reconciler
}

type RouterConfig struct {
	RequestTimeout time.Duration
	WebhookSecret  string
	// TracerProvider and Propagator default to the otel globals.
	TracerProvider trace.TracerProvider
	Propagator     propagation.TextMapPropagator
}

// NewRouter assembles the public API. Everything under /api/v1 expects the
// principal headers; /webhooks is authenticated by signature instead.
func NewRouter(svc Services, cfg RouterConfig, m *metrics.Metrics, db Pinger, log *slog.Logger) http.Handler {
	carts := NewCartHandler(svc.Carts, svc.Checkout, svc.Orders, cfg.RequestTimeout, log)
	orders := NewOrdersHandler(svc.Orders, svc.Inventory, cfg.RequestTimeout, log)
	webhooks := NewWebhookHandler(svc.Reconciler, cfg.WebhookSecret, cfg.RequestTimeout, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware(m.Server))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			log.WarnContext(ctx, "health check failed", slog.String("error", err.Error()))
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", m.Handler())

	r.Post("/webhooks/payment", webhooks.HandlePayment)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(PrincipalMiddleware)

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", carts.CreateCart)
			r.Get("/", carts.ListCarts)
			r.Route("/{cartID}", func(r chi.Router) {
				r.Get("/", carts.GetCart)
				r.Delete("/", carts.DeleteCart)
				r.Post("/items", carts.AddItem)
				r.Put("/items/{itemID}", carts.UpdateQuantity)
				r.Delete("/items/{itemID}", carts.RemoveItem)
				r.Post("/checkout", carts.Checkout)
				r.Delete("/order", carts.CancelOrder)
			})
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orders.ListOrders)
			r.Get("/{orderID}", orders.GetOrder)
			r.Post("/{orderID}/cancel", orders.CancelOrder)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Put("/orders/{orderID}/status", orders.UpdateStatus)
			r.Put("/items/{itemID}", orders.UpsertItem)
		})
	})

	var otelOpts []otelhttp.Option
	if cfg.TracerProvider != nil {
		otelOpts = append(otelOpts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.Propagator != nil {
		otelOpts = append(otelOpts, otelhttp.WithPropagators(cfg.Propagator))
	}
	return otelhttp.NewHandler(r, "storefront", otelOpts...)
}
