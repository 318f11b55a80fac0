// Package mock provides a test double for the tts.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/valuenable/veena/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Ctx is the context passed to Synthesize.
	Ctx context.Context
	// Text is the input passed to Synthesize.
	Text string
}

// Provider is a mock implementation of tts.Provider.
// Zero values for response fields cause methods to return zero values and nil
// errors. Set Err fields to inject errors.
type Provider struct {
	mu sync.Mutex

	// Audio is returned by Synthesize.
	Audio []byte

	// SynthesizeErr, if non-nil, is returned as the error from Synthesize.
	SynthesizeErr error

	// Voices is returned by ListVoices.
	Voices []tts.Voice

	// ListVoicesErr, if non-nil, is returned as the error from ListVoices.
	ListVoicesErr error

	// Calls records every invocation of Synthesize in order.
	Calls []SynthesizeCall
}

// Synthesize records the call and returns Audio, SynthesizeErr.
func (p *Provider) Synthesize(ctx context.Context, text string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, SynthesizeCall{Ctx: ctx, Text: text})
	return p.Audio, p.SynthesizeErr
}

// ListVoices returns Voices, ListVoicesErr.
func (p *Provider) ListVoices(context.Context) ([]tts.Voice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Voices, p.ListVoicesErr
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
}

// Ensure Provider implements tts.Provider at compile time.
var _ tts.Provider = (*Provider)(nil)
