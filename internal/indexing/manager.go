package indexing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/wearforce/convo-core/internal/apperr"
	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/documents"
	"github.com/wearforce/convo-core/internal/embedding"
	"github.com/wearforce/convo-core/internal/observability"
	"github.com/wearforce/convo-core/internal/persistence/databases"
	"github.com/wearforce/convo-core/internal/rag/retrieve"
)

const component = "indexing_manager"

// Manager is the IndexingManager: a Redis-backed queue/registry pair, a
// bounded worker pool and a bulk fan-out worker.
type Manager struct {
	store  *store
	proc   *documents.Processor
	embed  *embedding.Engine
	vector databases.VectorStore
	sparse *retrieve.SparseIndex

	workers         int
	maxRetries      int
	janitorInterval time.Duration
	jobRetention    time.Duration
	bulkPacing      time.Duration
	pollTimeout     time.Duration

	mu      sync.RWMutex
	hotDocs map[string]IndexedDocument
	hotJobs map[string]IndexingJob

	group  *errgroup.Group
	cancel context.CancelFunc
}

// New builds an IndexingManager against the given Redis client and
// collaborators.
func New(rdb *redis.Client, proc *documents.Processor, embed *embedding.Engine, vector databases.VectorStore, sparse *retrieve.SparseIndex, cfg config.IndexingConfig) *Manager {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	janitor := time.Duration(cfg.JanitorInterval) * time.Second
	if janitor <= 0 {
		janitor = time.Minute
	}
	retention := time.Duration(cfg.JobRetentionSeconds) * time.Second
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	pacing := time.Duration(cfg.BulkBatchPacingMS) * time.Millisecond
	if pacing <= 0 {
		pacing = 100 * time.Millisecond
	}
	poll := time.Duration(cfg.QueuePollInterval) * time.Millisecond
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}

	return &Manager{
		store:           newStore(rdb),
		proc:            proc,
		embed:           embed,
		vector:          vector,
		sparse:          sparse,
		workers:         workers,
		maxRetries:      maxRetries,
		janitorInterval: janitor,
		jobRetention:    retention,
		bulkPacing:      pacing,
		pollTimeout:     poll,
		hotDocs:         make(map[string]IndexedDocument),
		hotJobs:         make(map[string]IndexingJob),
	}
}

// Start launches the worker pool, bulk worker and janitor. Cancelling ctx,
// or calling Stop, drains them.
func (m *Manager) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	m.group = g

	for i := 0; i < m.workers; i++ {
		id := i
		g.Go(func() error {
			m.workerLoop(gctx, id)
			return nil
		})
	}
	g.Go(func() error {
		m.bulkWorkerLoop(gctx)
		return nil
	})
	g.Go(func() error {
		m.janitorLoop(gctx)
		return nil
	})
}

// Stop signals all background loops to exit and waits up to timeout for
// the worker pool, bulk worker and janitor to drain.
func (m *Manager) Stop(timeout time.Duration) {
	if m.cancel == nil {
		return
	}
	m.cancel()
	done := make(chan struct{})
	go func() {
		_ = m.group.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}

// SubmitDocument enqueues a single document for indexing, outside of any
// bulk job, and seeds its registry entry as queued.
// SubmitDocument queues one document for chunking, embedding and indexing.
// If a prior completed run already indexed identical content for this
// docID, the resubmission is skipped; this is what keeps the nightly batch
// sync from reprocessing rows that haven't changed since the last cycle.
func (m *Manager) SubmitDocument(ctx context.Context, docID string, doc documents.Document) error {
	hash := contentHash(doc)
	if prior, ok, err := m.store.getDocument(ctx, docID); err == nil && ok {
		if prior.Status == StatusCompleted && prior.ContentHash == hash {
			return nil
		}
	}

	rec := queueRecord{DocID: docID, Text: doc.Text, Fields: doc.Fields, Format: string(doc.Format), Metadata: doc.Metadata}
	now := time.Now()
	indexed := IndexedDocument{DocID: docID, Status: StatusQueued, ContentHash: hash, CreatedAt: now, UpdatedAt: now}
	if err := m.store.putDocument(ctx, indexed); err != nil {
		return apperr.Wrap(component, apperr.Transient, "seed document registry", err)
	}
	m.setHotDoc(indexed)
	if err := m.store.pushSingle(ctx, rec); err != nil {
		return apperr.Wrap(component, apperr.Transient, "enqueue document", err)
	}
	return nil
}

// contentHash covers the raw text and the structured fields, so a row
// document whose fields change hashes differently even with empty Text.
func contentHash(doc documents.Document) string {
	h := sha256.New()
	h.Write([]byte(doc.Text))
	if len(doc.Fields) > 0 {
		if b, err := json.Marshal(doc.Fields); err == nil {
			h.Write(b)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SubmitBulk creates a job record for docs and pushes them onto the bulk
// queue as one batch; the bulk worker fans them into the single queue.
func (m *Manager) SubmitBulk(ctx context.Context, docs map[string]documents.Document) (string, error) {
	jobID := uuid.NewString()
	job := IndexingJob{JobID: jobID, Total: len(docs), Status: JobRunning, CreatedAt: time.Now()}
	if err := m.store.putJob(ctx, job); err != nil {
		return "", apperr.Wrap(component, apperr.Transient, "seed job registry", err)
	}
	m.setHotJob(job)

	recs := make([]queueRecord, 0, len(docs))
	now := time.Now()
	for docID, doc := range docs {
		recs = append(recs, queueRecord{DocID: docID, JobID: jobID, Text: doc.Text, Fields: doc.Fields, Format: string(doc.Format), Metadata: doc.Metadata})
		indexed := IndexedDocument{DocID: docID, JobID: jobID, Status: StatusQueued, CreatedAt: now, UpdatedAt: now}
		_ = m.store.putDocument(ctx, indexed)
		m.setHotDoc(indexed)
	}
	if err := m.store.pushBulk(ctx, recs); err != nil {
		return "", apperr.Wrap(component, apperr.Transient, "enqueue bulk job", err)
	}
	return jobID, nil
}

func (m *Manager) workerLoop(ctx context.Context, id int) {
	log := observability.LoggerWithTrace(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		rec, ok, err := m.store.popSingle(ctx, m.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Int("worker", id).Msg("indexing_queue_pop_failed")
			continue
		}
		if !ok {
			continue
		}
		m.processRecord(ctx, rec)
	}
}

func (m *Manager) bulkWorkerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		recs, ok, err := m.store.popBulk(ctx, m.pollTimeout)
		if err != nil || !ok {
			continue
		}
		for _, rec := range recs {
			if err := m.store.pushSingle(ctx, rec); err != nil {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(m.bulkPacing):
			}
		}
	}
}

func (m *Manager) janitorLoop(ctx context.Context) {
	ticker := time.NewTicker(m.janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweepCompletedJobs(ctx)
		}
	}
}

func (m *Manager) sweepCompletedJobs(ctx context.Context) {
	jobs, err := m.store.allJobs(ctx)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-m.jobRetention)
	for id, job := range jobs {
		if job.Status == JobRunning {
			continue
		}
		if job.CompletedAt.IsZero() || job.CompletedAt.After(cutoff) {
			continue
		}
		_ = m.store.deleteJob(ctx, id)
		m.mu.Lock()
		delete(m.hotJobs, id)
		m.mu.Unlock()
	}
}

// processRecord runs the PROCESSING -> (chunk -> embed -> upsert) ->
// COMPLETED/RETRY/FAILED state machine for one document.
func (m *Manager) processRecord(ctx context.Context, rec queueRecord) {
	log := observability.LoggerWithTrace(ctx)
	start := time.Now()

	doc, _, _ := m.store.getDocument(ctx, rec.DocID)
	doc.DocID = rec.DocID
	doc.JobID = rec.JobID
	doc.Status = StatusProcessing
	doc.RetryCount = rec.RetryCount
	doc.UpdatedAt = time.Now()
	_ = m.store.putDocument(ctx, doc)
	m.setHotDoc(doc)

	chunkCount, format, err := m.index(ctx, rec)
	if err != nil {
		log.Warn().Err(err).Str("doc_id", rec.DocID).Msg("indexing_failed")
		m.handleFailure(ctx, rec, doc, err)
		return
	}

	doc.Status = StatusCompleted
	doc.ChunkCount = chunkCount
	doc.DataFormat = format
	doc.ProcessingTime = time.Since(start)
	doc.ErrorMessage = ""
	doc.UpdatedAt = time.Now()
	_ = m.store.putDocument(ctx, doc)
	m.setHotDoc(doc)

	if rec.JobID != "" {
		m.recordJobOutcome(ctx, rec.JobID, true)
	}
}

func (m *Manager) handleFailure(ctx context.Context, rec queueRecord, doc IndexedDocument, cause error) {
	if rec.RetryCount < m.maxRetries {
		doc.Status = StatusRetry
		doc.RetryCount = rec.RetryCount + 1
		doc.ErrorMessage = cause.Error()
		doc.UpdatedAt = time.Now()
		_ = m.store.putDocument(ctx, doc)
		m.setHotDoc(doc)

		rec.RetryCount++
		_ = m.store.pushSingle(ctx, rec)
		return
	}

	doc.Status = StatusFailed
	doc.ErrorMessage = cause.Error()
	doc.UpdatedAt = time.Now()
	_ = m.store.putDocument(ctx, doc)
	m.setHotDoc(doc)

	if rec.JobID != "" {
		m.recordJobOutcome(ctx, rec.JobID, false)
	}
}

func (m *Manager) index(ctx context.Context, rec queueRecord) (int, string, error) {
	doc := documents.Document{
		ID:       rec.DocID,
		Format:   documents.Format(rec.Format),
		Fields:   rec.Fields,
		Text:     rec.Text,
		Metadata: rec.Metadata,
	}
	chunks, format := m.proc.Process(doc)
	if len(chunks) == 0 {
		return 0, string(format), apperr.New(component, apperr.Validation, "document produced no chunks")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := m.embed.EncodeDocuments(ctx, texts)
	if err != nil {
		return 0, string(format), apperr.Wrap(component, apperr.Upstream, "embed chunks", err)
	}

	for i, c := range chunks {
		chunkID := fmt.Sprintf("%s_%d", rec.DocID, i)
		md := map[string]string{"doc_id": rec.DocID, "chunk_index": fmt.Sprintf("%d", i), "format": string(format)}
		for k, v := range c.Metadata {
			md[k] = v
		}
		if err := m.vector.Upsert(ctx, chunkID, vectors[i], md); err != nil {
			return 0, string(format), apperr.Wrap(component, apperr.Transient, "vector upsert", err)
		}
		if m.sparse != nil {
			m.sparse.Upsert(chunkID, c.Text, md)
		}
	}
	return len(chunks), string(format), nil
}

// recordJobOutcome increments the owning job's success/failure counters and
// finalizes it once every submitted document has reached a terminal state.
func (m *Manager) recordJobOutcome(ctx context.Context, jobID string, success bool) {
	job, ok, err := m.store.getJob(ctx, jobID)
	if err != nil || !ok {
		return
	}
	if success {
		job.SuccessCount++
	} else {
		job.FailureCount++
	}
	if job.Done() {
		job.Status = JobCompleted
		if job.FailureCount > 0 {
			job.Status = JobFailed
		}
		job.CompletedAt = time.Now()
	}
	_ = m.store.putJob(ctx, job)
	m.setHotJob(job)
}

// Delete removes every chunk ID {doc_id}_{0..chunk_count-1} from the index
// and drops the registry entry.
func (m *Manager) Delete(ctx context.Context, docID string) error {
	doc, ok, err := m.store.getDocument(ctx, docID)
	if err != nil {
		return apperr.Wrap(component, apperr.Transient, "load document", err)
	}
	if !ok {
		return apperr.New(component, apperr.NotFound, "document not found: "+docID)
	}
	for i := 0; i < doc.ChunkCount; i++ {
		chunkID := fmt.Sprintf("%s_%d", docID, i)
		_ = m.vector.Delete(ctx, chunkID)
		if m.sparse != nil {
			m.sparse.Delete(chunkID)
		}
	}
	if err := m.store.deleteDocument(ctx, docID); err != nil {
		return apperr.Wrap(component, apperr.Transient, "delete registry entry", err)
	}
	m.mu.Lock()
	delete(m.hotDocs, docID)
	m.mu.Unlock()
	return nil
}

// Document returns the hot-set entry for docID, falling back to Redis.
func (m *Manager) Document(ctx context.Context, docID string) (IndexedDocument, bool) {
	m.mu.RLock()
	doc, ok := m.hotDocs[docID]
	m.mu.RUnlock()
	if ok {
		return doc, true
	}
	doc, ok, err := m.store.getDocument(ctx, docID)
	if err != nil || !ok {
		return IndexedDocument{}, false
	}
	return doc, true
}

// Job returns the hot-set entry for jobID, falling back to Redis.
func (m *Manager) Job(ctx context.Context, jobID string) (IndexingJob, bool) {
	m.mu.RLock()
	job, ok := m.hotJobs[jobID]
	m.mu.RUnlock()
	if ok {
		return job, true
	}
	job, ok, err := m.store.getJob(ctx, jobID)
	if err != nil || !ok {
		return IndexingJob{}, false
	}
	return job, true
}

// Documents lists registry entries, optionally filtered by status, sorted by
// DocID for stable pagination, for the GET /documents endpoint.
func (m *Manager) Documents(ctx context.Context, limit, offset int, status DocumentStatus) []IndexedDocument {
	all, err := m.store.allDocuments(ctx)
	if err != nil {
		return nil
	}
	out := make([]IndexedDocument, 0, len(all))
	for _, doc := range all {
		if status != "" && doc.Status != status {
			continue
		}
		out = append(out, doc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DocID < out[j].DocID })

	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

func (m *Manager) setHotDoc(doc IndexedDocument) {
	m.mu.Lock()
	m.hotDocs[doc.DocID] = doc
	m.mu.Unlock()
}

func (m *Manager) setHotJob(job IndexingJob) {
	m.mu.Lock()
	m.hotJobs[job.JobID] = job
	m.mu.Unlock()
}
