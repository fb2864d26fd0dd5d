package payment

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/pkg/circuitbreaker"
	"github.com/stripe/stripe-go/v76"
)

// BreakerGateway bounds every call with a timeout and a circuit breaker and
// turns any failure into a *domain.UpstreamPaymentError.
type BreakerGateway struct {
	next    Gateway
	timeout time.Duration
	cb      *circuitbreaker.Breaker[Intent]
	log     *slog.Logger
}

func NewBreakerGateway(next Gateway, timeout time.Duration, settings circuitbreaker.Settings, log *slog.Logger) *BreakerGateway {
	return &BreakerGateway{
		next:    next,
		timeout: timeout,
		cb:      circuitbreaker.New[Intent](settings, log),
		log:     log,
	}
}

// BreakerSettings are the defaults for the payment processor. Caller
// cancellations and request errors the processor rejects with a 4xx other
// than 429 do not count against the processor's health.
func BreakerSettings() circuitbreaker.Settings {
	s := circuitbreaker.DefaultSettings("payment-gateway")
	s.IsSuccessful = countsAsSuccess
	return s
}

func countsAsSuccess(err error) bool {
	if circuitbreaker.IgnoreCanceled(err) {
		return true
	}
	var se *stripe.Error
	if errors.As(err, &se) {
		return se.HTTPStatusCode >= 400 && se.HTTPStatusCode < 500 && se.HTTPStatusCode != 429
	}
	return false
}

func (g *BreakerGateway) CreatePayment(ctx context.Context, req PaymentRequest) (Intent, error) {
	return g.call(ctx, "create payment", func(ctx context.Context) (Intent, error) {
		return g.next.CreatePayment(ctx, req)
	})
}

func (g *BreakerGateway) FindPayment(ctx context.Context, intentID string) (Intent, error) {
	return g.call(ctx, "find payment", func(ctx context.Context) (Intent, error) {
		return g.next.FindPayment(ctx, intentID)
	})
}

func (g *BreakerGateway) call(ctx context.Context, op string, fn func(context.Context) (Intent, error)) (Intent, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	in, err := g.cb.Execute(func() (Intent, error) {
		return fn(ctx)
	})
	if err == nil {
		return in, nil
	}
	if circuitbreaker.IsRejected(err) {
		g.log.WarnContext(ctx, "payment call rejected by circuit breaker",
			slog.String("op", op),
			slog.String("state", g.cb.State().String()))
	}
	return Intent{}, &domain.UpstreamPaymentError{
		Op:      op,
		Timeout: isTimeout(err),
		Err:     err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
