package resilience

import (
	"context"

	"github.com/valuenable/veena/pkg/provider/tts"
)

// TTSFallback implements [tts.Provider] with automatic failover across
// multiple TTS backends, each behind its own circuit breaker.
type TTSFallback struct {
	group *FallbackGroup[tts.Provider]
}

// Compile-time interface assertion.
var _ tts.Provider = (*TTSFallback)(nil)

// NewTTSFallback creates a [TTSFallback] with primary as the preferred backend.
func NewTTSFallback(primary tts.Provider, primaryName string, cfg FallbackConfig) *TTSFallback {
	return &TTSFallback{
		group: NewFallbackGroup("tts", primaryName, primary, cfg),
	}
}

// AddFallback registers an additional TTS provider as a fallback.
func (f *TTSFallback) AddFallback(name string, provider tts.Provider) {
	f.group.AddFallback(name, provider)
}

// Healthy reports nil while at least one backend can still synthesize.
func (f *TTSFallback) Healthy() error {
	return f.group.Healthy()
}

// Synthesize converts text into audio using the first healthy provider. If the
// primary fails, subsequent fallbacks are tried with the same text.
func (f *TTSFallback) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return Failover(ctx, f.group, func(p tts.Provider) ([]byte, error) {
		return p.Synthesize(ctx, text)
	})
}

// ListVoices returns available voices from the first healthy provider.
func (f *TTSFallback) ListVoices(ctx context.Context) ([]tts.Voice, error) {
	return Failover(ctx, f.group, func(p tts.Provider) ([]tts.Voice, error) {
		return p.ListVoices(ctx)
	})
}
