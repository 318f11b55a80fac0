package resilience

import (
	"context"

	"github.com/valuenable/veena/pkg/provider/stt"
)

// STTFallback implements [stt.Provider] with automatic failover across
// multiple STT backends, each behind its own circuit breaker.
type STTFallback struct {
	group *FallbackGroup[stt.Provider]
}

// Compile-time interface assertion.
var _ stt.Provider = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred backend.
func NewSTTFallback(primary stt.Provider, primaryName string, cfg FallbackConfig) *STTFallback {
	return &STTFallback{
		group: NewFallbackGroup("stt", primaryName, primary, cfg),
	}
}

// AddFallback registers an additional STT provider as a fallback.
func (f *STTFallback) AddFallback(name string, provider stt.Provider) {
	f.group.AddFallback(name, provider)
}

// Healthy reports nil while at least one backend can still transcribe.
func (f *STTFallback) Healthy() error {
	return f.group.Healthy()
}

// Transcribe submits the audio to the first healthy provider. If the primary
// fails, subsequent fallbacks are tried with the same payload.
func (f *STTFallback) Transcribe(ctx context.Context, audio []byte) (*stt.Result, error) {
	return Failover(ctx, f.group, func(p stt.Provider) (*stt.Result, error) {
		return p.Transcribe(ctx, audio)
	})
}
