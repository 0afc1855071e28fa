package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/metrics"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// ErrGatewayUnavailable is returned while the circuit breaker rejects calls.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// GuardedGateway bounds every call of the wrapped gateway with a timeout and
// a circuit breaker. Caller errors (bad amount, missing intent) do not count
// as provider failures.
type GuardedGateway struct {
	inner   Gateway
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker[any]
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewGuardedGateway wraps inner. m may be nil.
func NewGuardedGateway(inner Gateway, timeout time.Duration, m *metrics.Metrics, logger *zap.Logger) *GuardedGateway {
	g := &GuardedGateway{
		inner:   inner,
		timeout: timeout,
		metrics: m,
		logger:  logger,
	}
	g.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "payment-gateway:" + inner.Name(),
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsCallerError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return g
}

func (g *GuardedGateway) Name() string {
	return g.inner.Name()
}

func (g *GuardedGateway) IssueIntent(ctx context.Context, req IntentRequest) (*PaymentIntent, error) {
	res, err := g.call(ctx, "issue", func(ctx context.Context) (any, error) {
		return g.inner.IssueIntent(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return res.(*PaymentIntent), nil
}

func (g *GuardedGateway) ConfirmIntent(ctx context.Context, intentID string, req ConfirmRequest) (*Confirmation, error) {
	res, err := g.call(ctx, "confirm", func(ctx context.Context) (any, error) {
		return g.inner.ConfirmIntent(ctx, intentID, req)
	})
	if err != nil {
		return nil, err
	}
	return res.(*Confirmation), nil
}

func (g *GuardedGateway) call(ctx context.Context, op string, fn func(context.Context) (any, error)) (any, error) {
	res, err := g.cb.Execute(func() (any, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return fn(callCtx)
	})

	switch {
	case err == nil:
		g.metrics.ObserveGatewayCall(op, "ok")
		return res, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		g.metrics.ObserveGatewayCall(op, "rejected")
		return nil, fmt.Errorf("%s %s: %w", g.inner.Name(), op, ErrGatewayUnavailable)
	case IsCallerError(err):
		g.metrics.ObserveGatewayCall(op, "invalid")
		return nil, err
	default:
		g.metrics.ObserveGatewayCall(op, "error")
		return nil, fmt.Errorf("%s %s failed: %w", g.inner.Name(), op, err)
	}
}
