package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wearforce/convo-core/internal/apperr"
	"github.com/wearforce/convo-core/internal/documents"
	"github.com/wearforce/convo-core/internal/observability"
)

const component = "batch_processor"

// Indexer is the subset of the indexing manager the executor needs: enough
// to hand a synced row off as a document without importing the indexing
// package directly.
type Indexer interface {
	SubmitDocument(ctx context.Context, docID string, doc documents.Document) error
}

// poolCache lazily opens one pgxpool.Pool per DSN and reuses it across jobs.
type poolCache struct {
	mu    sync.Mutex
	pools map[string]*pgxpool.Pool
}

func newPoolCache() *poolCache { return &poolCache{pools: make(map[string]*pgxpool.Pool)} }

func (c *poolCache) get(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pools[dsn]; ok {
		return p, nil
	}
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	c.pools[dsn] = p
	return p, nil
}

func (c *poolCache) closeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.pools {
		p.Close()
	}
}

// runSync executes a full or incremental sync of src's table against the
// indexer, one row at a time, isolating per-row failures into
// job.ErrorMessages rather than aborting the whole job.
func (p *Processor) runSync(ctx context.Context, job *BatchJob, src DataSource, incremental bool) {
	log := observability.LoggerWithTrace(ctx)
	pool, err := p.pools.get(ctx, src.DSN)
	if err != nil {
		job.ErrorMessages = append(job.ErrorMessages, apperr.Wrap(component, apperr.Upstream, "connect data source", err).Error())
		return
	}

	query, args := buildSyncQuery(src, incremental)
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		job.ErrorMessages = append(job.ErrorMessages, apperr.Wrap(component, apperr.Upstream, "query data source", err).Error())
		return
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	colNames := make([]string, len(fields))
	for i, f := range fields {
		colNames[i] = string(f.Name)
	}

	batchSize := src.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	maxUpdated := time.Time{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			job.ErrorMessages = append(job.ErrorMessages, err.Error())
			continue
		}
		job.RecordsTotal++

		record := make(map[string]any, len(colNames))
		for i, name := range colNames {
			record[name] = values[i]
		}
		pk := fmt.Sprintf("%v", record[src.PrimaryKeyColumn])
		docID := src.Name + ":" + pk

		if src.UpdatedAtColumn != "" {
			if ts, ok := record[src.UpdatedAtColumn].(time.Time); ok && ts.After(maxUpdated) {
				maxUpdated = ts
			}
		}

		doc := documents.Document{ID: docID, SourceURI: src.Name, Fields: record}
		if err := p.indexer.SubmitDocument(ctx, docID, doc); err != nil {
			job.ErrorMessages = append(job.ErrorMessages, fmt.Sprintf("%s: %v", docID, err))
			continue
		}
		job.RecordsDone++
	}
	if err := rows.Err(); err != nil {
		job.ErrorMessages = append(job.ErrorMessages, err.Error())
	}

	if !maxUpdated.IsZero() {
		src.LastSync = maxUpdated
	} else {
		src.LastSync = time.Now()
	}
	if err := p.store.putSource(ctx, src); err != nil {
		log.Warn().Err(err).Str("source", src.Name).Msg("batch_last_sync_persist_failed")
	}
}

func buildSyncQuery(src DataSource, incremental bool) (string, []any) {
	if incremental && src.IncrementalField != "" && !src.LastSync.IsZero() {
		q := fmt.Sprintf(`SELECT * FROM %s WHERE %s > $1 ORDER BY %s ASC`, quoteIdent(src.Table), quoteIdent(src.IncrementalField), quoteIdent(src.IncrementalField))
		return q, []any{src.LastSync}
	}
	q := fmt.Sprintf(`SELECT * FROM %s`, quoteIdent(src.Table))
	return q, nil
}

// quoteIdent double-quotes a SQL identifier that comes from configuration,
// not from request input; doubling embedded quotes is enough to keep the
// statement well-formed.
func quoteIdent(ident string) string {
	escaped := ""
	for _, r := range ident {
		if r == '"' {
			escaped += `""`
			continue
		}
		escaped += string(r)
	}
	return `"` + escaped + `"`
}
