// Package batch implements the BatchProcessor: a scheduler that promotes
// due CRM/ERP sync jobs from a set of configured DataSources, executes them
// against Postgres and feeds the results into the indexing pipeline.
package batch

import (
	"time"

	"github.com/wearforce/convo-core/internal/config"
)

// JobType is the kind of work a BatchJob performs.
type JobType string

const (
	JobFullSync        JobType = "full_sync"
	JobIncrementalSync JobType = "incremental_sync"
	JobCleanup         JobType = "cleanup"
	JobReindex         JobType = "reindex"
)

// JobStatus is the BatchJob lifecycle state.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// DataSource is one configured CRM/ERP relational source.
type DataSource struct {
	Name             string
	Type             string // crm, erp
	DSN              string
	Table            string
	PrimaryKeyColumn string
	UpdatedAtColumn  string
	SyncFrequency    string // daily, weekly
	IncrementalField string
	BatchSize        int
	Enabled          bool
	LastSync         time.Time
}

// FromConfig adapts a configured data source into a DataSource, preserving
// LastSync across restarts only if the caller repopulates it from the store.
func FromConfig(cfg config.DataSourceConfig) DataSource {
	return DataSource{
		Name:             cfg.Name,
		Type:             cfg.Type,
		DSN:              cfg.DSN,
		Table:            cfg.Table,
		PrimaryKeyColumn: cfg.PrimaryKeyColumn,
		UpdatedAtColumn:  cfg.UpdatedAtColumn,
		SyncFrequency:    cfg.SyncFrequency,
		IncrementalField: cfg.IncrementalField,
		BatchSize:        cfg.BatchSize,
		Enabled:          cfg.Enabled,
	}
}

// BatchJob is one scheduled or ad hoc unit of sync work.
type BatchJob struct {
	JobID         string    `json:"job_id"`
	SourceName    string    `json:"source_name"`
	Type          JobType   `json:"type"`
	Status        JobStatus `json:"status"`
	ScheduledFor  time.Time `json:"scheduled_for"`
	StartedAt     time.Time `json:"started_at,omitempty"`
	CompletedAt   time.Time `json:"completed_at,omitempty"`
	RecordsTotal  int       `json:"records_total"`
	RecordsDone   int       `json:"records_done"`
	ErrorMessages []string  `json:"error_messages,omitempty"`
}

// recurringKey identifies a recurring job uniquely by source, type and
// calendar date, so the scheduler can create it idempotently.
func recurringKey(source string, jobType JobType, date time.Time) string {
	return source + "|" + string(jobType) + "|" + date.Format("2006-01-02")
}
