// Package knowledge provides the insurance knowledge base: typed entries, a
// storage interface with in-memory and PostgreSQL implementations, and the
// keyword retrieval ranker used to ground assistant answers.
package knowledge

// Entry is a single question/answer pair in the knowledge base.
type Entry struct {
	// ID is assigned by the store on creation.
	ID int

	// Category groups related entries (e.g., "Policy Details", "Claims").
	Category string

	// Question is the canonical customer question this entry answers.
	Question string

	// Answer is the agent-facing answer text injected into prompts.
	Answer string

	// Keywords widen retrieval: a query term hits an entry when it contains
	// or is contained by one of its keywords.
	Keywords []string

	// Priority orders retrieval results. Higher values rank first. Defaults
	// to 1 when unset.
	Priority int

	// IsActive gates retrieval. Inactive entries are retained for curation
	// but never returned by Search.
	IsActive bool
}
