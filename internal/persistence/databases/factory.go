package databases

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wearforce/convo-core/internal/config"
)

// NewManager constructs the database backends named by configuration: a
// Postgres-backed full-text search index and conversation store when a store
// DSN is configured, and a Qdrant dense vector index when a vector index DSN
// is configured as well. Without a store DSN every backend, the vector index
// included, is in-memory, whatever the vector index DSN says.
func NewManager(ctx context.Context, cfg config.Config) (Manager, error) {
	var m Manager

	if cfg.Store.PostgresDSN == "" {
		m.Search = NewMemorySearch()
		m.Chat = NewMemoryConversationStore()
		m.Vector = NewMemoryVector()
		return m, nil
	}

	pool, err := newPgPool(ctx, cfg.Store.PostgresDSN)
	if err != nil {
		return Manager{}, fmt.Errorf("connect postgres: %w", err)
	}
	m.Search = NewPostgresSearch(pool)
	m.Chat = NewPostgresConversationStore(pool)

	if cfg.VectorIndex.DSN == "" {
		m.Vector = NewMemoryVector()
	} else {
		v, err := NewQdrantVector(cfg.VectorIndex.DSN, cfg.VectorIndex.Collection, cfg.VectorIndex.Dimension, cfg.VectorIndex.Metric)
		if err != nil {
			return Manager{}, fmt.Errorf("connect qdrant: %w", err)
		}
		m.Vector = v
	}
	return m, nil
}

func newPgPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pcfg.MaxConns = 8
	pcfg.MinConns = 0
	pcfg.MaxConnLifetime = time.Hour
	pcfg.MaxConnIdleTime = 5 * time.Minute
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}
	cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(cctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
