package databases

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wearforce/convo-core/internal/observability"
)

// pgConversationStore is the Postgres-backed ConversationStore, the durable
// tier beneath the conversation manager's in-memory sliding window.
type pgConversationStore struct {
	pool *pgxpool.Pool
}

// NewPostgresConversationStore returns a durable ConversationStore and
// bootstraps its schema.
func NewPostgresConversationStore(pool *pgxpool.Pool) ConversationStore {
	ctx := context.Background()
	_, _ = pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS conversation_turns (
    conversation_id TEXT NOT NULL,
    sequence BIGINT NOT NULL,
    role TEXT NOT NULL,
    content TEXT NOT NULL,
    metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (conversation_id, sequence)
);
CREATE INDEX IF NOT EXISTS conversation_turns_conv_seq_idx
    ON conversation_turns (conversation_id, sequence DESC);
`)
	return &pgConversationStore{pool: pool}
}

func (s *pgConversationStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *pgConversationStore) Append(ctx context.Context, turn Turn) error {
	md, err := json.Marshal(turn.Metadata)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
INSERT INTO conversation_turns (conversation_id, sequence, role, content, metadata, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (conversation_id, sequence) DO UPDATE
SET role = EXCLUDED.role, content = EXCLUDED.content, metadata = EXCLUDED.metadata`,
		turn.ConversationID, turn.Sequence, turn.Role, turn.Content, md, turn.CreatedAt)
	return err
}

func (s *pgConversationStore) Recent(ctx context.Context, conversationID string, limit int) ([]Turn, error) {
	log := observability.LoggerWithTrace(ctx)
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
SELECT conversation_id, sequence, role, content, metadata, created_at FROM (
    SELECT conversation_id, sequence, role, content, metadata, created_at
    FROM conversation_turns
    WHERE conversation_id = $1
    ORDER BY sequence DESC
    LIMIT $2
) sub
ORDER BY sequence ASC`, conversationID, limit)
	if err != nil {
		log.Error().Err(err).Str("conversation_id", conversationID).Msg("conversation_store_recent_failed")
		return nil, err
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var t Turn
		var md []byte
		if err := rows.Scan(&t.ConversationID, &t.Sequence, &t.Role, &t.Content, &md, &t.CreatedAt); err != nil {
			return nil, err
		}
		if len(md) > 0 {
			_ = json.Unmarshal(md, &t.Metadata)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *pgConversationStore) Delete(ctx context.Context, conversationID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM conversation_turns WHERE conversation_id = $1`, conversationID)
	return err
}
