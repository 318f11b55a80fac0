package chat

import "errors"

// Sentinel errors returned by [Service] operations. Transports map these to
// status codes; everything else is an internal failure.
var (
	// ErrInvalidInput means the caller sent something unusable: a blank
	// message, or an audio payload too small to contain speech.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoSpeechDetected means the audio was accepted and transcribed,
	// but no usable speech content survived cleanup.
	ErrNoSpeechDetected = errors.New("no speech detected")

	// ErrUpstreamFailure means a provider call (LLM, STT, TTS) failed.
	// The text pipeline absorbs LLM failures into an apology reply and
	// never surfaces this to callers; voice transcription failures do.
	ErrUpstreamFailure = errors.New("upstream provider failure")

	// ErrNotFound means no conversation exists for the given session ID.
	ErrNotFound = errors.New("conversation not found")
)
