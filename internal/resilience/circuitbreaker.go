// Package resilience keeps the voice pipeline answering when an AI backend
// degrades. A caller on the phone cannot wait out an outage, so every
// configured LLM, STT, and TTS backend sits behind its own [CircuitBreaker],
// and [FallbackGroup] routes each call to the first backend whose breaker
// still admits traffic.
//
// All types are safe for concurrent use.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrCircuitOpen is returned by [CircuitBreaker.Execute] when the breaker is
// refusing calls: either the cool-down has not elapsed, or the half-open probe
// quota is spent.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// State is the operating mode of a [CircuitBreaker].
type State int

const (
	// StateClosed admits every call.
	StateClosed State = iota

	// StateOpen refuses every call with [ErrCircuitOpen] until the reset
	// timeout has passed since the last failure.
	StateOpen

	// StateHalfOpen admits a bounded number of probe calls. Enough successes
	// close the breaker; a single failure re-opens it.
	StateHalfOpen
)

var stateNames = map[State]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half-open",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// CircuitBreakerConfig tunes a [CircuitBreaker]. The defaults suit chatty
// provider APIs where a transient 5xx should not take a backend out of
// rotation, but a sustained outage must.
type CircuitBreakerConfig struct {
	// Name labels the protected backend in log output, usually the provider
	// name from the config file ("elevenlabs", "ollama", ...).
	Name string

	// MaxFailures is how many consecutive failures trip the breaker open.
	// Default: 5.
	MaxFailures int

	// ResetTimeout is the cool-down before an open breaker admits probe
	// calls again. Default: 30s.
	ResetTimeout time.Duration

	// HalfOpenMax is the probe quota in the half-open state. That many
	// successful probes close the breaker. Default: 3.
	HalfOpenMax int
}

// CircuitBreaker shields one provider backend. It trips open after a run of
// consecutive failures and heals through a half-open probe phase.
type CircuitBreaker struct {
	provider  string
	tripAfter int
	cooldown  time.Duration
	probeMax  int

	mu        sync.Mutex
	state     State
	failures  int       // consecutive failures while closed
	failedAt  time.Time // most recent failure
	probes    int       // probe calls admitted this half-open phase
	probeWins int       // probe calls that succeeded
}

// NewCircuitBreaker builds a breaker from cfg, filling zero fields with the
// defaults documented on [CircuitBreakerConfig].
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 3
	}
	return &CircuitBreaker{
		provider:  cfg.Name,
		tripAfter: cfg.MaxFailures,
		cooldown:  cfg.ResetTimeout,
		probeMax:  cfg.HalfOpenMax,
	}
}

// Execute runs fn if the breaker admits the call, otherwise it returns
// [ErrCircuitOpen] without touching the backend. The outcome of fn feeds the
// breaker's failure accounting.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	probe, err := cb.admit()
	if err != nil {
		return err
	}

	err = fn()
	cb.settle(probe, err)
	return err
}

// admit decides whether a call may proceed and reports whether it counts as a
// half-open probe.
func (cb *CircuitBreaker) admit() (probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateOpen:
		if time.Since(cb.failedAt) < cb.cooldown {
			return false, ErrCircuitOpen
		}
		cb.state = StateHalfOpen
		cb.probes = 0
		cb.probeWins = 0
		slog.Info("resilience: breaker half-open, probing backend",
			"provider", cb.provider)

	case StateHalfOpen:
		if cb.probes >= cb.probeMax {
			return false, ErrCircuitOpen
		}
	}

	if cb.state == StateHalfOpen {
		cb.probes++
		return true, nil
	}
	return false, nil
}

// settle records the outcome of an admitted call.
func (cb *CircuitBreaker) settle(probe bool, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failedAt = time.Now()
		if probe {
			// One failed probe is enough evidence the backend is still down.
			cb.state = StateOpen
			cb.failures = cb.tripAfter
			slog.Warn("resilience: probe failed, breaker re-opened",
				"provider", cb.provider)
			return
		}
		cb.failures++
		if cb.failures >= cb.tripAfter {
			cb.state = StateOpen
			slog.Warn("resilience: breaker opened",
				"provider", cb.provider,
				"consecutive_failures", cb.failures)
		}
		return
	}

	if probe {
		cb.probeWins++
		if cb.probeWins >= cb.probeMax {
			cb.state = StateClosed
			cb.failures = 0
			cb.probes = 0
			cb.probeWins = 0
			slog.Info("resilience: backend recovered, breaker closed",
				"provider", cb.provider)
		}
		return
	}
	cb.failures = 0
}

// State returns the breaker's current [State]. An open breaker whose
// cool-down has elapsed reports [StateHalfOpen]; the stored state flips on
// the next [CircuitBreaker.Execute].
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen && time.Since(cb.failedAt) >= cb.cooldown {
		return StateHalfOpen
	}
	return cb.state
}

// Reset forces the breaker back to [StateClosed] and clears all counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failures = 0
	cb.probes = 0
	cb.probeWins = 0
	slog.Info("resilience: breaker reset", "provider", cb.provider)
}
