package conversation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ Store = (*MemStore)(nil)

// MemStore is an in-memory [Store] safe for concurrent use. Intended for
// development and tests.
type MemStore struct {
	mu            sync.RWMutex
	conversations map[int]Conversation
	turns         map[int][]Turn
	nextConvID    int
	nextTurnID    int
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		conversations: make(map[int]Conversation),
		turns:         make(map[int][]Turn),
		nextConvID:    1,
		nextTurnID:    1,
	}
}

func (s *MemStore) CreateConversation(_ context.Context, c Conversation) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = s.nextConvID
	s.nextConvID++
	if c.SessionID == uuid.Nil {
		c.SessionID = uuid.New()
	}
	if c.StartTime.IsZero() {
		c.StartTime = time.Now()
	}
	if c.Status == "" {
		c.Status = StatusActive
	}
	s.conversations[c.ID] = c
	return c, nil
}

func (s *MemStore) GetBySession(_ context.Context, sessionID uuid.UUID) (Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.conversations {
		if c.SessionID == sessionID {
			return c, nil
		}
	}
	return Conversation{}, ErrNotFound
}

func (s *MemStore) End(_ context.Context, id int) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[id]
	if !ok {
		return Conversation{}, ErrNotFound
	}
	if c.Status == StatusEnded {
		return c, nil
	}
	now := time.Now()
	c.EndTime = &now
	c.Duration = int(now.Sub(c.StartTime).Seconds())
	c.Status = StatusEnded
	s.conversations[id] = c
	return c, nil
}

func (s *MemStore) AddTurn(_ context.Context, t Turn) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.conversations[t.ConversationID]
	if !ok {
		return Turn{}, ErrNotFound
	}

	t.ID = s.nextTurnID
	s.nextTurnID++
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}
	s.turns[t.ConversationID] = append(s.turns[t.ConversationID], t)

	c.MessageCount++
	s.conversations[t.ConversationID] = c
	return t, nil
}

func (s *MemStore) Turns(_ context.Context, conversationID int) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.conversations[conversationID]; !ok {
		return nil, ErrNotFound
	}
	turns := s.turns[conversationID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) StaleActive(_ context.Context, cutoff time.Time) ([]Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Conversation
	for id, c := range s.conversations {
		if c.Status != StatusActive {
			continue
		}
		last := c.StartTime
		if turns := s.turns[id]; len(turns) > 0 {
			for _, t := range turns {
				if t.Timestamp.After(last) {
					last = t.Timestamp
				}
			}
		}
		if last.Before(cutoff) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) RecentTurns(ctx context.Context, conversationID, n int) ([]Turn, error) {
	all, err := s.Turns(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if n >= len(all) {
		return all, nil
	}
	return all[len(all)-n:], nil
}
