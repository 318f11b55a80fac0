// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to verify that the chat service sends correct
// requests and to feed controlled replies without a live backend. All fields
// are safe to set before calling any method; mutating them during a
// concurrent call is the caller's responsibility.
//
// Example:
//
//	p := &mock.Provider{
//	    Response: &llm.Response{Text: "Hello!", FinishReason: "stop"},
//	}
//	resp, err := p.Complete(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/valuenable/veena/pkg/provider/llm"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the Request passed to Complete.
	Req llm.Request
}

// Provider is a mock implementation of llm.Provider.
// Zero values for response fields cause Complete to return nil, nil.
// Set Err to inject errors.
type Provider struct {
	mu sync.Mutex

	// Response is returned by Complete. May be nil (returns nil, nil).
	Response *llm.Response

	// Err, if non-nil, is returned as the error from Complete.
	Err error

	// Calls records every invocation of Complete in order.
	Calls []CompleteCall
}

// Complete records the call and returns Response, Err.
func (p *Provider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, CompleteCall{Ctx: ctx, Req: req})
	return p.Response, p.Err
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = nil
}

// Ensure Provider implements llm.Provider at compile time.
var _ llm.Provider = (*Provider)(nil)
