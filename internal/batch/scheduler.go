package batch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	redis "github.com/redis/go-redis/v9"

	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/observability"
)

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// scheduleFor returns the standard 5-field cron expression for a sync
// frequency: daily incremental syncs run at 02:00, weekly full syncs run
// Sunday at 01:00.
func scheduleFor(freq string) string {
	switch freq {
	case "weekly":
		return "0 1 * * 0"
	default:
		return "0 2 * * *"
	}
}

func jobTypeFor(freq string) JobType {
	if freq == "weekly" {
		return JobFullSync
	}
	return JobIncrementalSync
}

// Processor is the BatchProcessor: a once-a-minute scheduler loop that
// promotes due recurring jobs (and any ad hoc jobs submitted via Submit) up
// to MaxConcurrentJobs, executes them against each DataSource's Postgres
// table, and retires old completed jobs.
type Processor struct {
	store    *store
	pools    *poolCache
	indexer  Indexer
	sources  []DataSource
	cfg      config.BatchConfig
	pollEvery time.Duration
	retention time.Duration

	mu      sync.Mutex
	running map[string]struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProcessor builds a Processor over the configured sources.
func NewProcessor(rdb *redis.Client, sources []config.DataSourceConfig, cfg config.BatchConfig, indexer Indexer) *Processor {
	poll := time.Duration(cfg.PollIntervalSeconds) * time.Second
	if poll <= 0 {
		poll = time.Minute
	}
	retention := time.Duration(cfg.JobRetentionSeconds) * time.Second
	if retention <= 0 {
		retention = 7 * 24 * time.Hour
	}

	ds := make([]DataSource, 0, len(sources))
	for _, c := range sources {
		if !c.Enabled {
			continue
		}
		ds = append(ds, FromConfig(c))
	}

	return &Processor{
		store:     newStore(rdb),
		pools:     newPoolCache(),
		indexer:   indexer,
		sources:   ds,
		cfg:       cfg,
		pollEvery: poll,
		retention: retention,
		running:   make(map[string]struct{}),
	}
}

// Start launches the scheduler loop. Cancelling ctx, or calling Stop,
// drains in-flight jobs.
func (p *Processor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	go p.loop(ctx)
}

// Stop signals the scheduler loop to exit and waits up to timeout for
// in-flight jobs to finish.
func (p *Processor) Stop(timeout time.Duration) {
	if p.cancel == nil {
		return
	}
	p.cancel()
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		p.pools.closeAll()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}

func (p *Processor) loop(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()
	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Processor) tick(ctx context.Context) {
	log := observability.LoggerWithTrace(ctx)
	p.createDueRecurringJobs(ctx)
	p.cleanupOldJobs(ctx)

	maxConcurrent := p.cfg.MaxConcurrentJobs
	if maxConcurrent <= 0 {
		maxConcurrent = 3
	}

	jobs, err := p.store.allJobs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("batch_list_jobs_failed")
		return
	}
	p.mu.Lock()
	slots := maxConcurrent - len(p.running)
	p.mu.Unlock()
	if slots <= 0 {
		return
	}

	for id, job := range jobs {
		if slots <= 0 {
			break
		}
		if job.Status != JobPending {
			continue
		}
		p.mu.Lock()
		if _, busy := p.running[id]; busy {
			p.mu.Unlock()
			continue
		}
		p.running[id] = struct{}{}
		p.mu.Unlock()
		slots--

		p.wg.Add(1)
		go func(job BatchJob) {
			defer p.wg.Done()
			p.execute(ctx, job)
		}(job)
	}
}

// createDueRecurringJobs evaluates each enabled source's cron schedule and
// idempotently creates a pending job for today's occurrence once it's due.
func (p *Processor) createDueRecurringJobs(ctx context.Context) {
	now := time.Now()
	for _, src := range p.sources {
		sched, err := cronParser.Parse(scheduleFor(src.SyncFrequency))
		if err != nil {
			continue
		}
		prev := sched.Next(now.Add(-24 * time.Hour))
		if prev.After(now) || now.Sub(prev) > 24*time.Hour {
			continue
		}

		jobType := jobTypeFor(src.SyncFrequency)
		key := recurringKey(src.Name, jobType, prev)
		exists, err := p.store.hasRecurring(ctx, key)
		if err != nil || exists {
			continue
		}

		job := BatchJob{
			JobID:        uuid.NewString(),
			SourceName:   src.Name,
			Type:         jobType,
			Status:       JobPending,
			ScheduledFor: prev,
		}
		if err := p.store.putJob(ctx, job); err != nil {
			continue
		}
		_ = p.store.markRecurring(ctx, key, job.JobID)
	}
}

// cleanupOldJobs removes completed/failed jobs older than the configured
// retention window.
func (p *Processor) cleanupOldJobs(ctx context.Context) {
	jobs, err := p.store.allJobs(ctx)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-p.retention)
	for id, job := range jobs {
		if job.Status != JobCompleted && job.Status != JobFailed {
			continue
		}
		if job.CompletedAt.IsZero() || job.CompletedAt.After(cutoff) {
			continue
		}
		_ = p.store.deleteJob(ctx, id)
	}
}

// Submit creates an ad hoc job (e.g. a manually triggered cleanup or
// reindex) to be picked up on the next tick.
func (p *Processor) Submit(ctx context.Context, sourceName string, jobType JobType) (string, error) {
	job := BatchJob{JobID: uuid.NewString(), SourceName: sourceName, Type: jobType, Status: JobPending, ScheduledFor: time.Now()}
	if err := p.store.putJob(ctx, job); err != nil {
		return "", err
	}
	return job.JobID, nil
}

func (p *Processor) execute(ctx context.Context, job BatchJob) {
	log := observability.LoggerWithTrace(ctx)
	defer func() {
		p.mu.Lock()
		delete(p.running, job.JobID)
		p.mu.Unlock()
	}()

	job.Status = JobRunning
	job.StartedAt = time.Now()
	_ = p.store.putJob(ctx, job)

	src, ok, _ := p.sourceByName(ctx, job.SourceName)

	switch job.Type {
	case JobFullSync:
		if ok {
			p.runSync(ctx, &job, src, false)
		}
	case JobIncrementalSync:
		if ok {
			p.runSync(ctx, &job, src, true)
		}
	case JobReindex:
		if ok {
			p.runSync(ctx, &job, src, false)
		}
	case JobCleanup:
		p.cleanupOldJobs(ctx)
	}

	job.Status = JobCompleted
	if len(job.ErrorMessages) > 0 && job.RecordsDone == 0 && job.RecordsTotal > 0 {
		job.Status = JobFailed
	}
	job.CompletedAt = time.Now()
	if err := p.store.putJob(ctx, job); err != nil {
		log.Error().Err(err).Str("job_id", job.JobID).Msg("batch_job_persist_failed")
	}
}

func (p *Processor) sourceByName(ctx context.Context, name string) (DataSource, bool, error) {
	for _, s := range p.sources {
		if s.Name == name {
			if stored, ok, err := p.store.getSource(ctx, name); err == nil && ok {
				return stored, true, nil
			}
			return s, true, nil
		}
	}
	return DataSource{}, false, nil
}

// Job returns a snapshot of a scheduled or completed job.
func (p *Processor) Job(ctx context.Context, jobID string) (BatchJob, bool) {
	job, ok, err := p.store.getJob(ctx, jobID)
	if err != nil {
		return BatchJob{}, false
	}
	return job, ok
}

// Sources reports the processor's configured sources, seeding the registry
// on first call so LastSync survives restarts.
func (p *Processor) Sources(ctx context.Context) []DataSource {
	out := make([]DataSource, 0, len(p.sources))
	for _, s := range p.sources {
		if stored, ok, err := p.store.getSource(ctx, s.Name); err == nil && ok {
			out = append(out, stored)
			continue
		}
		_ = p.store.putSource(ctx, s)
		out = append(out, s)
	}
	return out
}
