package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBackendDown = errors.New("upstream returned 503")

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "elevenlabs"})
	if cb.tripAfter != 5 {
		t.Errorf("tripAfter = %d, want 5", cb.tripAfter)
	}
	if cb.cooldown != 30*time.Second {
		t.Errorf("cooldown = %v, want 30s", cb.cooldown)
	}
	if cb.probeMax != 3 {
		t.Errorf("probeMax = %d, want 3", cb.probeMax)
	}
	if cb.State() != StateClosed {
		t.Errorf("initial state = %v, want closed", cb.State())
	}
}

func TestCircuitBreaker_ClosedForwardsCalls(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "whisper", MaxFailures: 3})

	called := false
	err := cb.Execute(func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("backend was not called")
	}
}

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "openai",
		MaxFailures:  3,
		ResetTimeout: time.Hour, // long cool-down so it stays open
	})

	for range 3 {
		_ = cb.Execute(func() error { return errBackendDown })
	}
	if cb.State() != StateOpen {
		t.Fatalf("state = %v, want open after 3 failures", cb.State())
	}

	// The next completion attempt must be refused without touching the backend.
	touched := false
	err := cb.Execute(func() error {
		touched = true
		return nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
	if touched {
		t.Fatal("open breaker forwarded a call to the backend")
	}
}

func TestCircuitBreaker_SuccessClearsFailureRun(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Name: "whisper", MaxFailures: 3})

	// Two timeouts, then a good transcription. The run is broken, so two more
	// failures must not trip the breaker.
	_ = cb.Execute(func() error { return errBackendDown })
	_ = cb.Execute(func() error { return errBackendDown })
	_ = cb.Execute(func() error { return nil })

	_ = cb.Execute(func() error { return errBackendDown })
	_ = cb.Execute(func() error { return errBackendDown })
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed (the run was broken by a success)", cb.State())
	}
}

func TestCircuitBreaker_CooldownLeadsToHalfOpen(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "elevenlabs",
		MaxFailures:  2,
		ResetTimeout: 10 * time.Millisecond,
		HalfOpenMax:  2,
	})

	_ = cb.Execute(func() error { return errBackendDown })
	_ = cb.Execute(func() error { return errBackendDown })
	if cb.State() != StateOpen {
		t.Fatal("expected open")
	}

	time.Sleep(15 * time.Millisecond)

	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open after cool-down", cb.State())
	}
}

func TestCircuitBreaker_SuccessfulProbesClose(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "elevenlabs",
		MaxFailures:  2,
		ResetTimeout: 10 * time.Millisecond,
		HalfOpenMax:  2,
	})

	_ = cb.Execute(func() error { return errBackendDown })
	_ = cb.Execute(func() error { return errBackendDown })

	time.Sleep(15 * time.Millisecond)

	for i := range 2 {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("probe %d: unexpected error: %v", i, err)
		}
	}

	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed after successful probes", cb.State())
	}
}

func TestCircuitBreaker_FailedProbeReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "openai",
		MaxFailures:  2,
		ResetTimeout: 10 * time.Millisecond,
		HalfOpenMax:  3,
	})

	_ = cb.Execute(func() error { return errBackendDown })
	_ = cb.Execute(func() error { return errBackendDown })

	time.Sleep(15 * time.Millisecond)

	if err := cb.Execute(func() error { return errBackendDown }); err == nil {
		t.Fatal("expected error from failing probe")
	}

	// Stored state must be open again; State() would report half-open once the
	// fresh cool-down elapses, so inspect directly.
	cb.mu.Lock()
	s := cb.state
	cb.mu.Unlock()
	if s != StateOpen {
		t.Fatalf("state = %v, want open after failed probe", s)
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:         "ollama",
		MaxFailures:  2,
		ResetTimeout: time.Hour,
	})

	_ = cb.Execute(func() error { return errBackendDown })
	_ = cb.Execute(func() error { return errBackendDown })
	if cb.State() != StateOpen {
		t.Fatal("expected open")
	}

	cb.Reset()
	if cb.State() != StateClosed {
		t.Fatalf("state = %v, want closed after reset", cb.State())
	}
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("unexpected error after reset: %v", err)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateClosed, "closed"},
		{StateOpen, "open"},
		{StateHalfOpen, "half-open"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
