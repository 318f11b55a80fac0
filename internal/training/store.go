// Package training turns recorded call transcripts into persona insights.
//
// Uploaded transcripts are analyzed by the language model in JSON mode,
// scored for quality, filtered for usability, and distilled into a training
// insights block that is swapped into the live persona snapshot.
package training

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when no transcript with the requested ID exists.
var ErrNotFound = errors.New("training transcript not found")

// Status describes a transcript's processing state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Transcript is one uploaded call recording transcription.
type Transcript struct {
	ID int

	// Filename identifies the source recording the transcript came from.
	Filename string

	// Content is the transcript text after light cleanup that keeps the
	// call's back-and-forth intact.
	Content string

	Status    Status
	CreatedAt time.Time
}

// Store persists uploaded transcripts.
type Store interface {
	// Add stores a new transcript and returns it with its assigned ID.
	// A zero CreatedAt is replaced with the current time.
	Add(ctx context.Context, t Transcript) (Transcript, error)

	// Get retrieves a transcript by ID. Returns [ErrNotFound] when no
	// transcript with that ID exists.
	Get(ctx context.Context, id int) (Transcript, error)

	// List returns all transcripts, newest first.
	List(ctx context.Context) ([]Transcript, error)
}

// MemStore is an in-memory [Store].
type MemStore struct {
	mu    sync.RWMutex
	seq   int
	items map[int]Transcript
}

// NewMemStore creates an empty in-memory transcript store.
func NewMemStore() *MemStore {
	return &MemStore{items: make(map[int]Transcript)}
}

func (s *MemStore) Add(_ context.Context, t Transcript) (Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t.ID = s.seq
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.items[t.ID] = t
	return t, nil
}

func (s *MemStore) Get(_ context.Context, id int) (Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.items[id]
	if !ok {
		return Transcript{}, ErrNotFound
	}
	return t, nil
}

func (s *MemStore) List(_ context.Context) ([]Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Transcript, 0, len(s.items))
	for _, t := range s.items {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

var _ Store = (*MemStore)(nil)
