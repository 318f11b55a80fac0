package resilience

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/valuenable/veena/pkg/provider/stt"
	sttmock "github.com/valuenable/veena/pkg/provider/stt/mock"
)

func TestSTTFallback_Transcribe_PrimarySuccess(t *testing.T) {
	primary := &sttmock.Provider{
		Result: &stt.Result{Text: "primary transcript", DurationSeconds: 2},
	}
	secondary := &sttmock.Provider{
		Result: &stt.Result{Text: "secondary transcript"},
	}

	fb := NewSTTFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	res, err := fb.Transcribe(context.Background(), []byte("audio"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "primary transcript" {
		t.Fatalf("text = %q, want 'primary transcript'", res.Text)
	}
	if len(secondary.Calls) != 0 {
		t.Fatalf("secondary called %d times, want 0", len(secondary.Calls))
	}
}

func TestSTTFallback_Transcribe_Failover(t *testing.T) {
	primary := &sttmock.Provider{Err: errors.New("primary down")}
	secondary := &sttmock.Provider{
		Result: &stt.Result{Text: "secondary transcript"},
	}

	fb := NewSTTFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	audio := []byte("voice recording bytes")
	res, err := fb.Transcribe(context.Background(), audio)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "secondary transcript" {
		t.Fatalf("text = %q, want 'secondary transcript'", res.Text)
	}
	// The fallback receives the same payload the primary got.
	if !bytes.Equal(secondary.Calls[0].Audio, audio) {
		t.Fatal("fallback did not receive the original audio payload")
	}
}

func TestSTTFallback_Transcribe_AllFail(t *testing.T) {
	primary := &sttmock.Provider{Err: errors.New("primary down")}
	secondary := &sttmock.Provider{Err: errors.New("secondary down")}

	fb := NewSTTFallback(primary, "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{MaxFailures: 3},
	})
	fb.AddFallback("secondary", secondary)

	_, err := fb.Transcribe(context.Background(), []byte("audio"))
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}
