// Package stt defines the Provider interface for Speech-to-Text backends.
//
// The assistant receives complete voice recordings over HTTP, so the
// interface is a single batch call: audio bytes in, transcribed text out.
// Audio arrives as an encoded container (WAV from the browser recorder);
// providers that require a specific container must repackage the bytes
// themselves.
//
// Implementations must be safe for concurrent use.
package stt

import "context"

// Result is a completed transcription.
type Result struct {
	// Text is the raw transcribed speech content, before any cleanup.
	Text string

	// DurationSeconds is the length of the source audio, when the backend
	// reports it. Zero when unknown.
	DurationSeconds float64
}

// Provider is the abstraction over any STT backend.
type Provider interface {
	// Transcribe submits a complete audio recording and waits for the
	// transcription. Returns an error if the request fails or if ctx is
	// cancelled first. An empty Result.Text is a valid outcome (no speech
	// in the recording), not an error.
	Transcribe(ctx context.Context, audio []byte) (*Result, error)
}
