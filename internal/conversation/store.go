package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no conversation or turn matches the lookup.
var ErrNotFound = errors.New("conversation not found")

// Store persists conversations and their turns. Implementations must keep
// MessageCount in sync with AddTurn and return turns oldest first.
type Store interface {
	// CreateConversation stores a new conversation and returns it with its
	// assigned ID. A zero SessionID is replaced with a fresh UUID and a zero
	// StartTime with the current time.
	CreateConversation(ctx context.Context, c Conversation) (Conversation, error)

	// GetBySession looks a conversation up by its public session ID.
	GetBySession(ctx context.Context, sessionID uuid.UUID) (Conversation, error)

	// End marks the conversation ended, stamps EndTime and computes Duration.
	// Ending an already ended conversation is a no-op.
	End(ctx context.Context, id int) (Conversation, error)

	// AddTurn appends a turn and increments the conversation's MessageCount.
	AddTurn(ctx context.Context, t Turn) (Turn, error)

	// Turns returns every turn of a conversation, oldest first.
	Turns(ctx context.Context, conversationID int) ([]Turn, error)

	// RecentTurns returns the last n turns of a conversation, oldest first.
	RecentTurns(ctx context.Context, conversationID, n int) ([]Turn, error)

	// StaleActive returns active conversations whose last activity is before
	// cutoff. Last activity is the timestamp of the newest turn, or StartTime
	// for conversations without turns.
	StaleActive(ctx context.Context, cutoff time.Time) ([]Conversation, error)
}
