// Package indexing implements IndexingManager: durable, concurrent
// indexing with per-document state, backed by Redis lists (queues) and
// Redis hashes (registries), mirrored by an in-memory hot-set cache.
package indexing

import "time"

// DocumentStatus is the per-document state machine.
type DocumentStatus string

const (
	StatusQueued     DocumentStatus = "queued"
	StatusProcessing DocumentStatus = "processing"
	StatusRetry      DocumentStatus = "retry"
	StatusCompleted  DocumentStatus = "completed"
	StatusFailed     DocumentStatus = "failed"
)

// IndexedDocument is the durable record for one document's indexing state.
type IndexedDocument struct {
	DocID          string         `json:"doc_id"`
	JobID          string         `json:"job_id,omitempty"`
	Status         DocumentStatus `json:"status"`
	ContentHash    string         `json:"content_hash,omitempty"`
	ChunkCount     int            `json:"chunk_count"`
	DataFormat     string         `json:"data_format,omitempty"`
	ProcessingTime time.Duration  `json:"processing_time"`
	RetryCount     int            `json:"retry_count"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// JobStatus is the bulk-job aggregate state.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// IndexingJob aggregates the outcome of a bulk submission.
type IndexingJob struct {
	JobID        string    `json:"job_id"`
	Total        int       `json:"total"`
	SuccessCount int       `json:"success_count"`
	FailureCount int       `json:"failure_count"`
	Status       JobStatus `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	CompletedAt  time.Time `json:"completed_at,omitempty"`
}

// Done reports whether every document the job was submitted with has
// reached a terminal state.
func (j IndexingJob) Done() bool {
	return j.SuccessCount+j.FailureCount >= j.Total
}

// queueRecord is one single-document queue entry: the document plus the
// owning job (empty for ad hoc single-document submissions) and a retry
// counter carried across re-enqueues.
type queueRecord struct {
	DocID      string            `json:"doc_id"`
	JobID      string            `json:"job_id,omitempty"`
	Text       string            `json:"text,omitempty"`
	Fields     map[string]any    `json:"fields,omitempty"`
	Format     string            `json:"format,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	RetryCount int               `json:"retry_count"`
}
