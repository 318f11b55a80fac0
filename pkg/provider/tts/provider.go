// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., ElevenLabs) and
// turns a finished reply into one encoded audio clip. Replies are short — at
// most a few sentences — so synthesis is a single batch call rather than a
// stream.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// Voice describes one synthesis voice offered by a provider.
type Voice struct {
	// ID is the provider-specific voice identifier.
	ID string

	// Name is the human-readable voice name.
	Name string

	// Metadata holds provider-specific voice attributes (gender, age,
	// accent, etc.).
	Metadata map[string]string
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize converts text into a single encoded audio clip. The
	// encoding is provider-configured (e.g., MP3 or raw PCM). Returns an
	// error if the request fails or ctx is cancelled first.
	Synthesize(ctx context.Context, text string) ([]byte, error)

	// ListVoices returns all voices available from this provider. The
	// list reflects the provider's current catalogue and may change
	// between calls.
	ListVoices(ctx context.Context) ([]Voice, error)
}
