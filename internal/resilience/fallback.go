package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/valuenable/veena/internal/observe"
)

// ErrAllFailed is returned when every backend in a [FallbackGroup] either
// failed or has an open circuit breaker.
var ErrAllFailed = errors.New("all providers failed")

// FallbackConfig configures a [FallbackGroup].
type FallbackConfig struct {
	// CircuitBreaker is the per-backend breaker tuning. The Name field is
	// overwritten with each backend's own name.
	CircuitBreaker CircuitBreakerConfig

	// Metrics receives failover and provider-error counts.
	// Defaults to [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// backend pairs one provider instance with its dedicated circuit breaker.
type backend[T any] struct {
	name     string
	provider T
	breaker  *CircuitBreaker
}

// FallbackGroup routes calls across a primary and zero or more fallback
// instances of one provider kind (llm, stt, or tts). Backends are tried in
// registration order; open breakers are skipped without touching the backend.
//
// FallbackGroup is safe for concurrent use once assembled. AddFallback must
// not race with in-flight calls.
type FallbackGroup[T any] struct {
	kind       string
	backends   []backend[T]
	breakerCfg CircuitBreakerConfig
	metrics    *observe.Metrics
}

// NewFallbackGroup creates a group for one provider kind with primary as the
// preferred backend. Additional backends are registered with
// [FallbackGroup.AddFallback].
func NewFallbackGroup[T any](kind, primaryName string, primary T, cfg FallbackConfig) *FallbackGroup[T] {
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	fg := &FallbackGroup[T]{
		kind:       kind,
		breakerCfg: cfg.CircuitBreaker,
		metrics:    cfg.Metrics,
	}
	fg.AddFallback(primaryName, primary)
	return fg
}

// AddFallback appends a backend. Backends are tried in the order added.
func (fg *FallbackGroup[T]) AddFallback(name string, provider T) {
	cbCfg := fg.breakerCfg
	cbCfg.Name = name
	fg.backends = append(fg.backends, backend[T]{
		name:     name,
		provider: provider,
		breaker:  NewCircuitBreaker(cbCfg),
	})
}

// Healthy reports nil while at least one backend's breaker admits traffic.
// It backs the /readyz provider checks: a group whose breakers are all open
// cannot serve a call.
func (fg *FallbackGroup[T]) Healthy() error {
	for i := range fg.backends {
		if fg.backends[i].breaker.State() != StateOpen {
			return nil
		}
	}
	return fmt.Errorf("resilience: all %s providers have open circuit breakers", fg.kind)
}

// Failover runs fn against each backend in fg until one succeeds. Reaching a
// backend past the primary counts as a failover activation in the metrics.
// Returns [ErrAllFailed] wrapped with the last error when every backend fails.
//
// This is a package-level function because Go does not support method-level
// type parameters.
func Failover[T, R any](ctx context.Context, fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var (
		lastErr error
		zero    R
	)
	for i := range fg.backends {
		b := &fg.backends[i]

		var result R
		err := b.breaker.Execute(func() error {
			var callErr error
			result, callErr = fn(b.provider)
			return callErr
		})
		if err == nil {
			if i > 0 {
				fg.metrics.RecordFallback(ctx, fg.kind)
				slog.Warn("resilience: failover engaged",
					"kind", fg.kind,
					"primary", fg.backends[0].name,
					"served_by", b.name)
			}
			return result, nil
		}

		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			slog.Debug("resilience: skipping backend, circuit open",
				"kind", fg.kind, "provider", b.name)
			continue
		}
		fg.metrics.RecordProviderError(ctx, b.name, fg.kind)
		slog.Warn("resilience: backend failed, trying next",
			"kind", fg.kind, "provider", b.name, "error", err)
	}
	return zero, fmt.Errorf("%s: %w: %v", fg.kind, ErrAllFailed, lastErr)
}
