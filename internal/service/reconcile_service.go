package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/repository"
)

type ReconcileResult string

const (
	ReconcileIgnored   ReconcileResult = "ignored"
	ReconcileDuplicate ReconcileResult = "duplicate"
	ReconcilePaid      ReconcileResult = "paid"
	ReconcileNoop      ReconcileResult = "noop"
	ReconcileCanceled  ReconcileResult = "canceled_order"
	ReconcileFailed    ReconcileResult = "failed"
)

// EventDeduper remembers processed event ids across deliveries. A marker
// is written only once the event's effect is committed, so a lost marker
// costs one idempotent database round trip and never a lost payment.
type EventDeduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Remember(ctx context.Context, eventID string) error
}

// ReconcileService applies payment confirmations to orders. It acts with
// system authority and never sees a user principal.
type ReconcileService struct {
	store   repository.Store
	dedupe  EventDeduper
	metrics *metrics.DomainMetrics
	log     *slog.Logger
	now     func() time.Time
}

// NewReconcileService builds the handler. dedupe may be nil; the order
// transition is idempotent without it.
func NewReconcileService(store repository.Store, dedupe EventDeduper, m *metrics.DomainMetrics, log *slog.Logger) *ReconcileService {
	return &ReconcileService{
		store:   store,
		dedupe:  dedupe,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// Reconcile marks the order behind a succeeded payment intent as paid.
// Redeliveries and events for orders already past pending are no-ops.
// An unknown intent yields a NotFoundError so the sender retries later.
func (s *ReconcileService) Reconcile(ctx context.Context, ev payment.Event) (ReconcileResult, error) {
	res, err := s.reconcile(ctx, ev)
	if err != nil {
		res = ReconcileFailed
	}
	s.metrics.WebhookEvents.WithLabelValues(string(res)).Inc()
	return res, err
}

func (s *ReconcileService) reconcile(ctx context.Context, ev payment.Event) (ReconcileResult, error) {
	if ev.Type != payment.EventPaymentSucceeded {
		return ReconcileIgnored, nil
	}
	if ev.PaymentIntentID == "" {
		return ReconcileFailed, payment.ErrMalformedEvent
	}

	dedupe := s.dedupe != nil && ev.ID != ""
	if dedupe {
		seen, err := s.dedupe.Seen(ctx, ev.ID)
		switch {
		case err != nil:
			s.log.WarnContext(ctx, "event dedupe unavailable", slog.String("error", err.Error()))
		case seen:
			return ReconcileDuplicate, nil
		}
	}

	var res ReconcileResult
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		order, err := tx.LockOrderByPaymentIntent(ctx, ev.PaymentIntentID)
		if err != nil {
			return err
		}

		switch {
		case order.Status.Reached(domain.OrderStatusPaid):
			res = ReconcileNoop
			return nil
		case order.Status == domain.OrderStatusCanceled:
			s.log.WarnContext(ctx, "payment succeeded for canceled order",
				slog.String("order_id", order.ID.String()),
				slog.String("payment_intent_id", ev.PaymentIntentID))
			res = ReconcileCanceled
			return nil
		}

		if err := transition(ctx, tx, order, domain.OrderStatusPaid, domain.AuthoritySystem, s.now()); err != nil {
			return err
		}
		s.log.InfoContext(ctx, "order paid", slog.String("order_id", order.ID.String()))
		res = ReconcilePaid
		return nil
	})
	if err != nil {
		return ReconcileFailed, err
	}
	if dedupe {
		if err := s.dedupe.Remember(context.WithoutCancel(ctx), ev.ID); err != nil {
			s.log.WarnContext(ctx, "failed to record event marker", slog.String("error", err.Error()))
		}
	}
	if res == ReconcilePaid {
		s.metrics.OrderTransitions.WithLabelValues(string(domain.OrderStatusPaid)).Inc()
	}
	return res, nil
}
