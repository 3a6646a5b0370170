package indexing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Redis key names, matching the external interface contract exactly.
const (
	keySingleQueue  = "rag:indexing_queue"
	keyBulkQueue    = "rag:bulk_indexing_queue"
	keyDocRegistry  = "rag:document_registry"
	keyJobRegistry  = "rag:job_registry"
	keyIndexingStat = "rag:indexing_stats"
)

// store wraps the Redis client with the list/hash operations the manager
// needs, isolated so the worker/janitor code reads as queue/registry verbs
// rather than raw redis calls.
type store struct {
	rdb *redis.Client
}

func newStore(rdb *redis.Client) *store { return &store{rdb: rdb} }

func (s *store) pushSingle(ctx context.Context, rec queueRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.rdb.LPush(ctx, keySingleQueue, b).Err()
}

func (s *store) pushBulk(ctx context.Context, recs []queueRecord) error {
	b, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	return s.rdb.LPush(ctx, keyBulkQueue, b).Err()
}

// popSingle blocks up to timeout for the next single-document record.
func (s *store) popSingle(ctx context.Context, timeout time.Duration) (queueRecord, bool, error) {
	res, err := s.rdb.BRPop(ctx, timeout, keySingleQueue).Result()
	if errors.Is(err, redis.Nil) {
		return queueRecord{}, false, nil
	}
	if err != nil {
		return queueRecord{}, false, err
	}
	var rec queueRecord
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		return queueRecord{}, false, err
	}
	return rec, true, nil
}

// popBulk blocks up to timeout for the next bulk-job record batch.
func (s *store) popBulk(ctx context.Context, timeout time.Duration) ([]queueRecord, bool, error) {
	res, err := s.rdb.BRPop(ctx, timeout, keyBulkQueue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var recs []queueRecord
	if err := json.Unmarshal([]byte(res[1]), &recs); err != nil {
		return nil, false, err
	}
	return recs, true, nil
}

func (s *store) putDocument(ctx context.Context, doc IndexedDocument) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, keyDocRegistry, doc.DocID, b).Err()
}

func (s *store) getDocument(ctx context.Context, docID string) (IndexedDocument, bool, error) {
	raw, err := s.rdb.HGet(ctx, keyDocRegistry, docID).Result()
	if errors.Is(err, redis.Nil) {
		return IndexedDocument{}, false, nil
	}
	if err != nil {
		return IndexedDocument{}, false, err
	}
	var doc IndexedDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return IndexedDocument{}, false, err
	}
	return doc, true, nil
}

func (s *store) deleteDocument(ctx context.Context, docID string) error {
	return s.rdb.HDel(ctx, keyDocRegistry, docID).Err()
}

func (s *store) putJob(ctx context.Context, job IndexingJob) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, keyJobRegistry, job.JobID, b).Err()
}

func (s *store) getJob(ctx context.Context, jobID string) (IndexingJob, bool, error) {
	raw, err := s.rdb.HGet(ctx, keyJobRegistry, jobID).Result()
	if errors.Is(err, redis.Nil) {
		return IndexingJob{}, false, nil
	}
	if err != nil {
		return IndexingJob{}, false, err
	}
	var job IndexingJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return IndexingJob{}, false, err
	}
	return job, true, nil
}

func (s *store) deleteJob(ctx context.Context, jobID string) error {
	return s.rdb.HDel(ctx, keyJobRegistry, jobID).Err()
}

func (s *store) allDocuments(ctx context.Context) (map[string]IndexedDocument, error) {
	raw, err := s.rdb.HGetAll(ctx, keyDocRegistry).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]IndexedDocument, len(raw))
	for id, v := range raw {
		var doc IndexedDocument
		if err := json.Unmarshal([]byte(v), &doc); err != nil {
			continue
		}
		out[id] = doc
	}
	return out, nil
}

func (s *store) allJobs(ctx context.Context) (map[string]IndexingJob, error) {
	raw, err := s.rdb.HGetAll(ctx, keyJobRegistry).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]IndexingJob, len(raw))
	for id, v := range raw {
		var job IndexingJob
		if err := json.Unmarshal([]byte(v), &job); err != nil {
			continue
		}
		out[id] = job
	}
	return out, nil
}

func (s *store) setStat(ctx context.Context, field string, value int64) error {
	return s.rdb.HSet(ctx, keyIndexingStat, field, value).Err()
}
