// Package llm defines the Provider interface for completion backends.
//
// A provider wraps a remote or local model API (e.g. OpenAI GPT-4o, or any
// backend reachable through any-llm) behind a single Complete call: one
// system prompt, one user prompt, one reply. The assistant never streams and
// never offers tools, so the interface stays deliberately small.
//
// Implementations must be safe for concurrent use and must propagate context
// cancellation promptly.
package llm

import "context"

// Usage holds token accounting information returned by the backend.
// Counts are in the model's native token unit and may differ between
// providers for the same textual content.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the prompts.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the reply.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens.
	TotalTokens int
}

// Request carries everything the model needs to produce a reply.
// Callers should treat a zero-value request as invalid; at minimum User must
// be non-empty.
type Request struct {
	// System is the persona and policy instruction block.
	System string

	// User is the assembled user prompt, including the knowledge block and
	// conversation context.
	User string

	// Temperature controls output randomness in the range [0.0, 2.0].
	// Zero means use the provider default.
	Temperature float64

	// MaxTokens caps the number of completion tokens the model may
	// generate. Zero means use the provider default.
	MaxTokens int

	// ForceJSON requests a JSON-object response via the backend's native
	// JSON mode where one exists. The prompt must still instruct the model
	// to emit JSON; most APIs reject JSON mode without that instruction.
	ForceJSON bool
}

// Response is the model's reply to a [Request].
type Response struct {
	// Text is the full reply. May be empty when the model produced
	// nothing usable.
	Text string

	// FinishReason indicates why generation stopped. Common values are
	// "stop" (natural end) and "length" (MaxTokens reached); anything
	// else is provider-specific.
	FinishReason string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the abstraction over any completion backend.
type Provider interface {
	// Complete sends req to the model and waits for the full reply.
	// Returns an error if the request fails or if ctx is cancelled before
	// the completion arrives.
	Complete(ctx context.Context, req Request) (*Response, error)
}
