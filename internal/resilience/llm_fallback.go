package resilience

import (
	"context"

	"github.com/valuenable/veena/pkg/provider/llm"
)

// LLMFallback implements [llm.Provider] with automatic failover across
// multiple LLM backends, each behind its own circuit breaker.
type LLMFallback struct {
	group *FallbackGroup[llm.Provider]
}

// Compile-time interface assertion.
var _ llm.Provider = (*LLMFallback)(nil)

// NewLLMFallback creates an [LLMFallback] with primary as the preferred backend.
func NewLLMFallback(primary llm.Provider, primaryName string, cfg FallbackConfig) *LLMFallback {
	return &LLMFallback{
		group: NewFallbackGroup("llm", primaryName, primary, cfg),
	}
}

// AddFallback registers an additional LLM provider as a fallback.
func (f *LLMFallback) AddFallback(name string, provider llm.Provider) {
	f.group.AddFallback(name, provider)
}

// Healthy reports nil while at least one backend can still take completions.
func (f *LLMFallback) Healthy() error {
	return f.group.Healthy()
}

// Complete sends the request to the first healthy provider and returns its
// response. If the primary fails, subsequent fallbacks are tried.
func (f *LLMFallback) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return Failover(ctx, f.group, func(p llm.Provider) (*llm.Response, error) {
		return p.Complete(ctx, req)
	})
}
