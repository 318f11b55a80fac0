package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Store = (*PostgresStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id            SERIAL PRIMARY KEY,
	session_id    UUID NOT NULL UNIQUE,
	user_id       TEXT NOT NULL DEFAULT '',
	start_time    TIMESTAMPTZ NOT NULL DEFAULT now(),
	end_time      TIMESTAMPTZ,
	message_count INTEGER NOT NULL DEFAULT 0,
	duration      INTEGER NOT NULL DEFAULT 0,
	status        TEXT NOT NULL DEFAULT 'active'
);

CREATE TABLE IF NOT EXISTS conversation_turns (
	id               SERIAL PRIMARY KEY,
	conversation_id  INTEGER NOT NULL REFERENCES conversations(id),
	turn_type        TEXT NOT NULL,
	content          TEXT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	response_time_ms INTEGER NOT NULL DEFAULT 0,
	voice_confidence DOUBLE PRECISION,
	voice_duration   DOUBLE PRECISION,
	voice_language   TEXT,
	sources          TEXT[],
	ai_confidence    DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_turns_conversation
	ON conversation_turns (conversation_id, id);
`

// PostgresStore is a [Store] backed by PostgreSQL.
type PostgresStore struct {
	pool    *pgxpool.Pool
	ownPool bool
}

// NewPostgresStore connects to the database at dsn and creates the
// conversation tables if they do not exist.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("conversation: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("conversation: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("conversation: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("conversation: create schema: %w", err)
	}
	return &PostgresStore{pool: pool, ownPool: true}, nil
}

// NewPostgresStoreFromPool wraps an existing pool, creating the schema if
// needed. The caller keeps ownership of the pool.
func NewPostgresStoreFromPool(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("conversation: create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool if this store created it.
func (s *PostgresStore) Close() {
	if s.ownPool {
		s.pool.Close()
	}
}

// Ping reports whether the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) CreateConversation(ctx context.Context, c Conversation) (Conversation, error) {
	if c.SessionID == uuid.Nil {
		c.SessionID = uuid.New()
	}
	if c.StartTime.IsZero() {
		c.StartTime = time.Now()
	}
	if c.Status == "" {
		c.Status = StatusActive
	}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO conversations (session_id, user_id, start_time, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		c.SessionID, c.UserID, c.StartTime, c.Status,
	).Scan(&c.ID)
	if err != nil {
		return Conversation{}, fmt.Errorf("conversation: create: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetBySession(ctx context.Context, sessionID uuid.UUID) (Conversation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, user_id, start_time, end_time, message_count, duration, status
		FROM conversations
		WHERE session_id = $1`,
		sessionID,
	)
	if err != nil {
		return Conversation{}, fmt.Errorf("conversation: get by session: %w", err)
	}
	c, err := pgx.CollectOneRow(rows, scanConversation)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("conversation: get by session: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) End(ctx context.Context, id int) (Conversation, error) {
	rows, err := s.pool.Query(ctx, `
		UPDATE conversations
		SET end_time = now(),
		    duration = EXTRACT(EPOCH FROM now() - start_time)::INTEGER,
		    status   = 'ended'
		WHERE id = $1 AND status <> 'ended'
		RETURNING id, session_id, user_id, start_time, end_time, message_count, duration, status`,
		id,
	)
	if err != nil {
		return Conversation{}, fmt.Errorf("conversation: end: %w", err)
	}
	c, err := pgx.CollectOneRow(rows, scanConversation)
	if errors.Is(err, pgx.ErrNoRows) {
		// Already ended, or missing entirely.
		return s.getByID(ctx, id)
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("conversation: end: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) getByID(ctx context.Context, id int) (Conversation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, user_id, start_time, end_time, message_count, duration, status
		FROM conversations
		WHERE id = $1`,
		id,
	)
	if err != nil {
		return Conversation{}, fmt.Errorf("conversation: get: %w", err)
	}
	c, err := pgx.CollectOneRow(rows, scanConversation)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("conversation: get: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) AddTurn(ctx context.Context, t Turn) (Turn, error) {
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now()
	}

	var (
		voiceConfidence *float64
		voiceDuration   *float64
		voiceLanguage   *string
		sources         []string
		aiConfidence    *float64
	)
	if t.Voice != nil {
		voiceConfidence = &t.Voice.Confidence
		voiceDuration = &t.Voice.DurationSeconds
		voiceLanguage = &t.Voice.Language
	}
	if t.Attribution != nil {
		sources = t.Attribution.Sources
		aiConfidence = &t.Attribution.Confidence
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Turn{}, fmt.Errorf("conversation: add turn: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO conversation_turns
			(conversation_id, turn_type, content, created_at, response_time_ms,
			 voice_confidence, voice_duration, voice_language, sources, ai_confidence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		t.ConversationID, t.Type, t.Content, t.Timestamp, t.ResponseTimeMS,
		voiceConfidence, voiceDuration, voiceLanguage, sources, aiConfidence,
	).Scan(&t.ID)
	if err != nil {
		return Turn{}, fmt.Errorf("conversation: add turn: %w", err)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE conversations SET message_count = message_count + 1 WHERE id = $1`,
		t.ConversationID,
	)
	if err != nil {
		return Turn{}, fmt.Errorf("conversation: add turn: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Turn{}, ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return Turn{}, fmt.Errorf("conversation: add turn: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) Turns(ctx context.Context, conversationID int) ([]Turn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, turn_type, content, created_at, response_time_ms,
		       voice_confidence, voice_duration, voice_language, sources, ai_confidence
		FROM conversation_turns
		WHERE conversation_id = $1
		ORDER BY id`,
		conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("conversation: list turns: %w", err)
	}
	turns, err := pgx.CollectRows(rows, scanTurn)
	if err != nil {
		return nil, fmt.Errorf("conversation: list turns: %w", err)
	}
	return turns, nil
}

func (s *PostgresStore) RecentTurns(ctx context.Context, conversationID, n int) ([]Turn, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, conversation_id, turn_type, content, created_at, response_time_ms,
		       voice_confidence, voice_duration, voice_language, sources, ai_confidence
		FROM (
			SELECT * FROM conversation_turns
			WHERE conversation_id = $1
			ORDER BY id DESC
			LIMIT $2
		) latest
		ORDER BY id`,
		conversationID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("conversation: recent turns: %w", err)
	}
	turns, err := pgx.CollectRows(rows, scanTurn)
	if err != nil {
		return nil, fmt.Errorf("conversation: recent turns: %w", err)
	}
	return turns, nil
}

func (s *PostgresStore) StaleActive(ctx context.Context, cutoff time.Time) ([]Conversation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT c.id, c.session_id, c.user_id, c.start_time, c.end_time,
		       c.message_count, c.duration, c.status
		FROM conversations c
		LEFT JOIN LATERAL (
			SELECT max(created_at) AS last_turn
			FROM conversation_turns
			WHERE conversation_id = c.id
		) t ON true
		WHERE c.status = 'active'
		  AND COALESCE(t.last_turn, c.start_time) < $1
		ORDER BY c.id`,
		cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("conversation: stale active: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanConversation)
	if err != nil {
		return nil, fmt.Errorf("conversation: stale active: %w", err)
	}
	return out, nil
}

func scanConversation(row pgx.CollectableRow) (Conversation, error) {
	var c Conversation
	err := row.Scan(&c.ID, &c.SessionID, &c.UserID, &c.StartTime, &c.EndTime,
		&c.MessageCount, &c.Duration, &c.Status)
	return c, err
}

func scanTurn(row pgx.CollectableRow) (Turn, error) {
	var (
		t               Turn
		voiceConfidence *float64
		voiceDuration   *float64
		voiceLanguage   *string
		sources         []string
		aiConfidence    *float64
	)
	err := row.Scan(&t.ID, &t.ConversationID, &t.Type, &t.Content, &t.Timestamp,
		&t.ResponseTimeMS, &voiceConfidence, &voiceDuration, &voiceLanguage, &sources,
		&aiConfidence)
	if err != nil {
		return Turn{}, err
	}
	if voiceConfidence != nil {
		t.Voice = &VoiceMetadata{Confidence: *voiceConfidence}
		if voiceDuration != nil {
			t.Voice.DurationSeconds = *voiceDuration
		}
		if voiceLanguage != nil {
			t.Voice.Language = *voiceLanguage
		}
	}
	if len(sources) > 0 || aiConfidence != nil {
		t.Attribution = &Attribution{Sources: sources}
		if aiConfidence != nil {
			t.Attribution.Confidence = *aiConfidence
		}
	}
	return t, nil
}
