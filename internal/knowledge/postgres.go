package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time assertion that PostgresStore satisfies the Store interface.
var _ Store = (*PostgresStore)(nil)

// schema creates the knowledge_base_entries table on first connect.
const schema = `
CREATE TABLE IF NOT EXISTS knowledge_base_entries (
    id        SERIAL PRIMARY KEY,
    category  TEXT    NOT NULL,
    question  TEXT    NOT NULL,
    answer    TEXT    NOT NULL,
    keywords  TEXT[]  NOT NULL DEFAULT '{}',
    priority  INT     NOT NULL DEFAULT 1,
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS knowledge_category_idx
    ON knowledge_base_entries (category) WHERE is_active;
`

// PostgresStore is the durable [Store] implementation backed by a
// [pgxpool.Pool]. All methods are safe for concurrent use.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database at dsn, verifies the connection,
// and ensures the schema exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("knowledge store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("knowledge store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("knowledge store: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("knowledge store: migrate: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreFromPool wraps an existing pool. The schema must already
// exist; used when the conversation store shares the same database.
func NewPostgresStoreFromPool(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("knowledge store: migrate: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping reports whether the database is reachable. Used by readiness checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Create implements [Store.Create].
func (s *PostgresStore) Create(ctx context.Context, entry Entry) (Entry, error) {
	if entry.Priority == 0 {
		entry.Priority = 1
	}
	const q = `
		INSERT INTO knowledge_base_entries (category, question, answer, keywords, priority, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := s.pool.QueryRow(ctx, q,
		entry.Category, entry.Question, entry.Answer, entry.Keywords, entry.Priority, entry.IsActive,
	).Scan(&entry.ID)
	if err != nil {
		return Entry{}, fmt.Errorf("knowledge store: create: %w", err)
	}
	return entry, nil
}

// Get implements [Store.Get].
func (s *PostgresStore) Get(ctx context.Context, id int) (Entry, error) {
	const q = `
		SELECT id, category, question, answer, keywords, priority, is_active
		FROM   knowledge_base_entries
		WHERE  id = $1`

	var e Entry
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&e.ID, &e.Category, &e.Question, &e.Answer, &e.Keywords, &e.Priority, &e.IsActive,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("knowledge store: get: %w", err)
	}
	return e, nil
}

// List implements [Store.List].
func (s *PostgresStore) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	args := []any{}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	conditions := []string{"is_active"}
	if opts.Category != "" {
		conditions = append(conditions, "category = "+next(opts.Category))
	}

	q := "SELECT id, category, question, answer, keywords, priority, is_active\n" +
		"FROM   knowledge_base_entries\n" +
		"WHERE  " + strings.Join(conditions, "\n  AND  ") + "\n" +
		"ORDER  BY priority DESC, id"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("knowledge store: list: %w", err)
	}
	return collectEntries(rows)
}

// Search implements [Store.Search]. Any whitespace-separated term matching
// question, answer, category, or a keyword as a case-insensitive substring
// qualifies the entry. Ordering is priority descending, ascending ID on
// ties, the same contract [MemStore.Search] implements in memory.
func (s *PostgresStore) Search(ctx context.Context, query string) ([]Entry, error) {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return []Entry{}, nil
	}

	args := []any{}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	termConditions := make([]string, 0, len(terms))
	for _, term := range terms {
		p := next("%" + term + "%")
		raw := next(term)
		termConditions = append(termConditions,
			"(lower(question) LIKE "+p+
				" OR lower(answer) LIKE "+p+
				" OR lower(category) LIKE "+p+
				" OR EXISTS (SELECT 1 FROM unnest(keywords) kw"+
				" WHERE lower(kw) LIKE "+p+" OR "+raw+" LIKE '%' || lower(kw) || '%'))")
	}

	q := "SELECT id, category, question, answer, keywords, priority, is_active\n" +
		"FROM   knowledge_base_entries\n" +
		"WHERE  is_active\n" +
		"  AND  (" + strings.Join(termConditions, "\n   OR  ") + ")\n" +
		"ORDER  BY priority DESC, id"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("knowledge store: search: %w", err)
	}
	return collectEntries(rows)
}

// Update implements [Store.Update].
func (s *PostgresStore) Update(ctx context.Context, entry Entry) error {
	if entry.Priority == 0 {
		entry.Priority = 1
	}
	const q = `
		UPDATE knowledge_base_entries
		SET    category = $2, question = $3, answer = $4, keywords = $5, priority = $6, is_active = $7
		WHERE  id = $1`

	tag, err := s.pool.Exec(ctx, q,
		entry.ID, entry.Category, entry.Question, entry.Answer, entry.Keywords, entry.Priority, entry.IsActive,
	)
	if err != nil {
		return fmt.Errorf("knowledge store: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate implements [Store.Deactivate].
func (s *PostgresStore) Deactivate(ctx context.Context, id int) error {
	const q = `UPDATE knowledge_base_entries SET is_active = FALSE WHERE id = $1`

	tag, err := s.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("knowledge store: deactivate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Count implements [Store.Count].
func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM knowledge_base_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("knowledge store: count: %w", err)
	}
	return n, nil
}

// collectEntries scans pgx rows into a slice of Entry values.
func collectEntries(rows pgx.Rows) ([]Entry, error) {
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		if err := row.Scan(
			&e.ID, &e.Category, &e.Question, &e.Answer, &e.Keywords, &e.Priority, &e.IsActive,
		); err != nil {
			return Entry{}, err
		}
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("knowledge store: scan rows: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}
