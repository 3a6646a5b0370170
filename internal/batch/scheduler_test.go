package batch

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"

	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/documents"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

type stubIndexer struct{ submitted []string }

func (s *stubIndexer) SubmitDocument(_ context.Context, docID string, _ documents.Document) error {
	s.submitted = append(s.submitted, docID)
	return nil
}

func newTestProcessor(t *testing.T) (*Processor, *stubIndexer) {
	t.Helper()
	rdb := newTestRedis(t)
	idx := &stubIndexer{}
	sources := []config.DataSourceConfig{
		{Name: "salesforce", Type: "crm", DSN: "postgres://unused", Table: "contacts", PrimaryKeyColumn: "id", SyncFrequency: "daily", Enabled: true, BatchSize: 50},
	}
	cfg := config.BatchConfig{MaxConcurrentJobs: 2, JobRetentionSeconds: 1, PollIntervalSeconds: 1}
	return NewProcessor(rdb, sources, cfg, idx), idx
}

func TestSubmitAndExecuteCleanupJob(t *testing.T) {
	p, _ := newTestProcessor(t)
	ctx := context.Background()

	jobID, err := p.Submit(ctx, "salesforce", JobCleanup)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	job, ok := p.Job(ctx, jobID)
	if !ok || job.Status != JobPending {
		t.Fatalf("expected pending job, got %#v ok=%v", job, ok)
	}

	p.execute(ctx, job)

	done, ok := p.Job(ctx, jobID)
	if !ok {
		t.Fatal("expected job to still exist after execute")
	}
	if done.Status != JobCompleted {
		t.Fatalf("expected cleanup job to complete, got %#v", done)
	}
}

func TestCreateDueRecurringJobsIsIdempotent(t *testing.T) {
	p, _ := newTestProcessor(t)
	ctx := context.Background()

	p.createDueRecurringJobs(ctx)
	jobsAfterFirst, err := p.store.allJobs(ctx)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}

	p.createDueRecurringJobs(ctx)
	jobsAfterSecond, err := p.store.allJobs(ctx)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}

	if len(jobsAfterSecond) != len(jobsAfterFirst) {
		t.Fatalf("expected recurring job creation to be idempotent, got %d then %d", len(jobsAfterFirst), len(jobsAfterSecond))
	}
}

func TestCleanupOldJobsRemovesStaleCompletedJobs(t *testing.T) {
	p, _ := newTestProcessor(t)
	ctx := context.Background()

	old := BatchJob{JobID: "old1", Status: JobCompleted, CompletedAt: time.Now().Add(-time.Hour)}
	if err := p.store.putJob(ctx, old); err != nil {
		t.Fatalf("put job: %v", err)
	}

	p.cleanupOldJobs(ctx)

	if _, ok := p.Job(ctx, "old1"); ok {
		t.Fatal("expected stale completed job to be retired")
	}
}

func TestSourcesSeedsRegistry(t *testing.T) {
	p, _ := newTestProcessor(t)
	ctx := context.Background()

	sources := p.Sources(ctx)
	if len(sources) != 1 || sources[0].Name != "salesforce" {
		t.Fatalf("expected configured source, got %#v", sources)
	}

	stored, ok, err := p.store.getSource(ctx, "salesforce")
	if err != nil || !ok {
		t.Fatalf("expected source to be persisted, ok=%v err=%v", ok, err)
	}
	if stored.Table != "contacts" {
		t.Fatalf("expected persisted table name, got %#v", stored)
	}
}

func TestScheduleForFrequencies(t *testing.T) {
	if scheduleFor("weekly") != "0 1 * * 0" {
		t.Fatalf("expected weekly schedule at Sunday 01:00, got %s", scheduleFor("weekly"))
	}
	if scheduleFor("daily") != "0 2 * * *" {
		t.Fatalf("expected daily schedule at 02:00, got %s", scheduleFor("daily"))
	}
	if jobTypeFor("weekly") != JobFullSync {
		t.Fatal("expected weekly sync to be a full sync")
	}
	if jobTypeFor("daily") != JobIncrementalSync {
		t.Fatal("expected daily sync to be incremental")
	}
}
