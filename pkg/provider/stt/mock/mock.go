// Package mock provides a test double for the stt.Provider interface.
//
// Use Provider in unit tests to feed controlled transcriptions without a
// live speech backend.
package mock

import (
	"context"
	"sync"

	"github.com/valuenable/veena/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// Audio is the payload passed to Transcribe.
	Audio []byte
}

// Provider is a mock implementation of stt.Provider.
// Zero values for response fields cause Transcribe to return nil, nil.
// Set Err to inject errors.
type Provider struct {
	mu sync.Mutex

	// Result is returned by Transcribe. May be nil (returns nil, nil).
	Result *stt.Result

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// Calls records every invocation of Transcribe in order.
	Calls []TranscribeCall
}

// Transcribe records the call and returns Result, Err.
func (p *Provider) Transcribe(ctx context.Context, audio []byte) (*stt.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	buf := make([]byte, len(audio))
	copy(buf, audio)
	p.Calls = append(p.Calls, TranscribeCall{Ctx: ctx, Audio: buf})
	return p.Result, p.Err
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
}

// Ensure Provider implements stt.Provider at compile time.
var _ stt.Provider = (*Provider)(nil)
