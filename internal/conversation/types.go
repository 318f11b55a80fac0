// Package conversation persists chat sessions and the ordered turns
// exchanged within them.
package conversation

import (
	"time"

	"github.com/google/uuid"
)

// Status describes the lifecycle state of a [Conversation].
type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

// Conversation is a single chat session between a caller and the assistant.
type Conversation struct {
	ID        int
	SessionID uuid.UUID
	// UserID is an optional caller identifier. Empty for anonymous sessions.
	UserID    string
	StartTime time.Time
	// EndTime is nil while the conversation is active.
	EndTime *time.Time
	// MessageCount is maintained by the store and incremented on AddTurn.
	MessageCount int
	// Duration is the total session length in seconds, set when the
	// conversation ends.
	Duration int
	Status   Status
}

// TurnType distinguishes who produced a turn.
type TurnType string

const (
	TurnUser TurnType = "user"
	TurnAI   TurnType = "ai"
)

// Turn is one message within a conversation, oldest turns first by ID.
type Turn struct {
	ID             int
	ConversationID int
	Type           TurnType
	Content        string
	Timestamp      time.Time
	// ResponseTimeMS is the end-to-end generation latency for AI turns,
	// zero for user turns.
	ResponseTimeMS int
	// Voice carries speech metadata for turns that originated from audio.
	Voice *VoiceMetadata
	// Attribution records which knowledge entries informed an AI turn.
	Attribution *Attribution
}

// VoiceMetadata describes the audio a voice turn was transcribed from.
type VoiceMetadata struct {
	// Confidence is the transcription confidence estimate in [0, 1].
	Confidence float64
	// DurationSeconds is the length of the source audio.
	DurationSeconds float64
	// Language is the BCP 47 tag the transcriber was hinted with.
	Language string
}

// Attribution records how an AI reply was produced: which knowledge base
// questions grounded it and how confident the generator was.
type Attribution struct {
	Sources []string
	// Confidence is the reply confidence estimate in [0, 1].
	Confidence float64
}
