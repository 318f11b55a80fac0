package knowledge

import (
	"context"
	"slices"
	"sync"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// IDs increment from 1 in insertion order, matching the serial column
// behaviour of [PostgresStore] so that ranking tie-breaks agree.
type MemStore struct {
	mu      sync.RWMutex
	entries map[int]Entry
	nextID  int
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{
		entries: make(map[int]Entry),
		nextID:  1,
	}
}

// Create implements [Store.Create].
func (s *MemStore) Create(ctx context.Context, entry Entry) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Priority == 0 {
		entry.Priority = 1
	}
	entry.ID = s.nextID
	s.nextID++
	s.entries[entry.ID] = entry
	return entry, nil
}

// Get implements [Store.Get].
func (s *MemStore) Get(ctx context.Context, id int) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

// List implements [Store.List].
func (s *MemStore) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.IsActive {
			continue
		}
		if opts.Category != "" && e.Category != opts.Category {
			continue
		}
		result = append(result, e)
	}
	sortByPriority(result)
	return result, nil
}

// Search implements [Store.Search].
func (s *MemStore) Search(ctx context.Context, query string) ([]Entry, error) {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return []Entry{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Entry, 0)
	for _, e := range s.entries {
		if !e.IsActive {
			continue
		}
		if matchesTerms(e, terms) {
			result = append(result, e)
		}
	}
	sortByPriority(result)
	return result, nil
}

// Update implements [Store.Update].
func (s *MemStore) Update(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[entry.ID]; !ok {
		return ErrNotFound
	}
	if entry.Priority == 0 {
		entry.Priority = 1
	}
	s.entries[entry.ID] = entry
	return nil
}

// Deactivate implements [Store.Deactivate].
func (s *MemStore) Deactivate(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return ErrNotFound
	}
	e.IsActive = false
	s.entries[id] = e
	return nil
}

// Count implements [Store.Count].
func (s *MemStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// snapshot returns a copy of all entries in ID order. Test helper.
func (s *MemStore) snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		result = append(result, e)
	}
	slices.SortFunc(result, func(a, b Entry) int { return a.ID - b.ID })
	return result
}
