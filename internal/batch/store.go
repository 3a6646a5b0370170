package batch

import (
	"context"
	"encoding/json"
	"errors"

	redis "github.com/redis/go-redis/v9"
)

const (
	keyDataSources = "rag:data_sources"
	keyBatchJobs   = "rag:batch_jobs"
	keyBatchStats  = "rag:batch_stats"
)

type store struct {
	rdb *redis.Client
}

func newStore(rdb *redis.Client) *store { return &store{rdb: rdb} }

func (s *store) putSource(ctx context.Context, src DataSource) error {
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, keyDataSources, src.Name, b).Err()
}

func (s *store) getSource(ctx context.Context, name string) (DataSource, bool, error) {
	raw, err := s.rdb.HGet(ctx, keyDataSources, name).Result()
	if errors.Is(err, redis.Nil) {
		return DataSource{}, false, nil
	}
	if err != nil {
		return DataSource{}, false, err
	}
	var src DataSource
	if err := json.Unmarshal([]byte(raw), &src); err != nil {
		return DataSource{}, false, err
	}
	return src, true, nil
}

func (s *store) allSources(ctx context.Context) ([]DataSource, error) {
	raw, err := s.rdb.HGetAll(ctx, keyDataSources).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DataSource, 0, len(raw))
	for _, v := range raw {
		var src DataSource
		if err := json.Unmarshal([]byte(v), &src); err != nil {
			continue
		}
		out = append(out, src)
	}
	return out, nil
}

func (s *store) putJob(ctx context.Context, job BatchJob) error {
	b, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, keyBatchJobs, job.JobID, b).Err()
}

func (s *store) getJob(ctx context.Context, jobID string) (BatchJob, bool, error) {
	raw, err := s.rdb.HGet(ctx, keyBatchJobs, jobID).Result()
	if errors.Is(err, redis.Nil) {
		return BatchJob{}, false, nil
	}
	if err != nil {
		return BatchJob{}, false, err
	}
	var job BatchJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return BatchJob{}, false, err
	}
	return job, true, nil
}

func (s *store) deleteJob(ctx context.Context, jobID string) error {
	return s.rdb.HDel(ctx, keyBatchJobs, jobID).Err()
}

func (s *store) allJobs(ctx context.Context) (map[string]BatchJob, error) {
	raw, err := s.rdb.HGetAll(ctx, keyBatchJobs).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]BatchJob, len(raw))
	for id, v := range raw {
		var job BatchJob
		if err := json.Unmarshal([]byte(v), &job); err != nil {
			continue
		}
		out[id] = job
	}
	return out, nil
}

// hasRecurring reports whether a job keyed by recurringKey has already been
// created, using a dedicated marker hash field so the scheduler's idempotency
// check doesn't require scanning every job.
func (s *store) hasRecurring(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.HExists(ctx, keyBatchStats+":recurring", key).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (s *store) markRecurring(ctx context.Context, key, jobID string) error {
	return s.rdb.HSet(ctx, keyBatchStats+":recurring", key, jobID).Err()
}

func (s *store) setStat(ctx context.Context, field string, value int64) error {
	return s.rdb.HSet(ctx, keyBatchStats, field, value).Err()
}
