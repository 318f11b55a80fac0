package knowledge

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get, Update, and Deactivate when no entry with
// the requested ID exists.
var ErrNotFound = errors.New("knowledge entry not found")

// Store manages knowledge base entries.
//
// Two implementations exist: [MemStore] for single-process and test use, and
// [PostgresStore] for durable storage. Which one backs the service is decided
// once at startup; both must rank Search results identically.
//
// All implementations must be safe for concurrent use.
type Store interface {
	// Create inserts a new entry and returns it with its assigned ID.
	// A zero Priority is stored as 1.
	Create(ctx context.Context, entry Entry) (Entry, error)

	// Get retrieves an entry by ID.
	// Returns [ErrNotFound] when no entry with that ID exists.
	Get(ctx context.Context, id int) (Entry, error)

	// List returns entries, optionally filtered by opts. Inactive entries
	// are excluded. Results are ordered by priority descending, then by
	// ascending ID.
	List(ctx context.Context, opts ListOptions) ([]Entry, error)

	// Search returns active entries matching query, ranked by priority
	// descending with ties broken by ascending ID (insertion order). The
	// tie-break is part of the contract: both store implementations must
	// produce the same ordering for the same data.
	//
	// Matching is plain substring matching: the query is lowercased and
	// split on whitespace; an entry matches when any term appears as a
	// substring of its lowercased question, answer, or category, or hits
	// one of its keywords in either direction (keyword contains term, or
	// term contains keyword). A blank query matches nothing.
	Search(ctx context.Context, query string) ([]Entry, error)

	// Update replaces an existing entry. The entry's ID must be set.
	// Returns [ErrNotFound] when no entry with that ID exists.
	Update(ctx context.Context, entry Entry) error

	// Deactivate soft-deletes an entry by clearing IsActive. The entry
	// remains readable via Get. Returns [ErrNotFound] when no entry with
	// that ID exists.
	Deactivate(ctx context.Context, id int) error

	// Count returns the total number of entries, active or not. Used to
	// decide whether the default seed data should be loaded.
	Count(ctx context.Context) (int, error)
}

// ListOptions narrows the result set of [Store.List].
type ListOptions struct {
	// Category restricts results to entries of this category.
	// An empty value matches all categories.
	Category string
}
