package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ekisa-team/vani/internal/config"
	"github.com/sony/gobreaker"
)

// ErrUnavailable is returned without calling the upstream while its breaker is open.
var ErrUnavailable = errors.New("upstream unavailable")

// Guard bounds calls to one upstream with a per-call timeout and a circuit
// breaker. It is safe for concurrent use.
type Guard struct {
	name    string
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
}

// New builds a Guard from policy. A zero MaxFailures disables tripping and a
// zero Timeout leaves the caller's deadline untouched.
func New(name string, policy config.UpstreamPolicy) *Guard {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     policy.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return policy.MaxFailures > 0 && counts.ConsecutiveFailures >= policy.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Upstream breaker state changed", "upstream", name, "from", from.String(), "to", to.String())
		},
		// the caller going away says nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &Guard{
		name:    name,
		timeout: policy.Timeout,
		cb:      gobreaker.NewCircuitBreaker(settings),
	}
}

// Name returns the upstream name.
func (g *Guard) Name() string {
	return g.name
}

// State returns the breaker state ("closed", "open" or "half-open").
func (g *Guard) State() string {
	return g.cb.State().String()
}

// Call runs fn under g and returns its value.
func Call[T any](ctx context.Context, g *Guard, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	out, err := g.cb.Execute(func() (interface{}, error) {
		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}

		v, err := fn(callCtx)
		if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%s: timed out after %s: %w", g.name, g.timeout, err)
		}
		return v, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, fmt.Errorf("%s: %w: %w", g.name, ErrUnavailable, err)
	}
	if err != nil {
		return zero, err
	}

	v, _ := out.(T)
	return v, nil
}
