// Package config defines the process configuration for the conversational
// orchestration core: one struct per component, loaded from YAML with
// environment-variable overrides applied on top.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig controls the HTTP boundary (internal/httpapi).
type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	ReadTimeoutSec  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSec int    `yaml:"write_timeout_seconds"`
	ShutdownGraceS  int    `yaml:"shutdown_grace_seconds"`
}

// StoreConfig names the durable backing stores: Redis for queues, caches and
// rate-limit counters; Postgres for conversation history and CRM/ERP sync.
type StoreConfig struct {
	RedisDSN    string `yaml:"redis_dsn"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

// VectorIndexConfig points at the Qdrant collection backing dense retrieval.
type VectorIndexConfig struct {
	DSN        string `yaml:"dsn"`
	Collection string `yaml:"collection"`
	Dimension  int    `yaml:"dimension"`
	Metric     string `yaml:"metric"` // cosine, dot, euclid
}

// EmbeddingConfig configures the embedding adapter dispatched on ModelFamily.
type EmbeddingConfig struct {
	ModelFamily   string `yaml:"model_family"` // query_prefix, instruction_pair, plain
	Model         string `yaml:"model"`
	BaseURL       string `yaml:"base_url"`
	APIKeyHeader  string `yaml:"api_key_header"`
	APIKey        string `yaml:"api_key"`
	BatchSize     int    `yaml:"batch_size"`
	CacheCapacity int    `yaml:"cache_capacity"`
	MaxInputChars int    `yaml:"max_input_chars"`
}

// ToolDefaultConfig carries per-tool rate-limit, cache and retry defaults
// consulted by the dispatcher when a tool definition doesn't override them.
type ToolDefaultConfig struct {
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
	CacheTTLSeconds    int `yaml:"cache_ttl_seconds"`
	MaxRetries         int `yaml:"max_retries"`
	TimeoutSeconds     int `yaml:"timeout_seconds"`
}

// ToolsConfig holds the dispatcher's global concurrency cap plus per-tool
// overrides keyed by tool name.
type ToolsConfig struct {
	MaxConcurrent int                          `yaml:"max_concurrent"`
	Defaults      ToolDefaultConfig            `yaml:"defaults"`
	Overrides     map[string]ToolDefaultConfig `yaml:"overrides,omitempty"`
	BaseURL       string                       `yaml:"base_url"`
	APIKey        string                       `yaml:"api_key"`
}

// DataSourceConfig describes one CRM/ERP relational source batch-synced into
// the index.
type DataSourceConfig struct {
	Name             string `yaml:"name"`
	Type             string `yaml:"type"` // crm, erp
	DSN              string `yaml:"dsn"`
	Table            string `yaml:"table"`
	PrimaryKeyColumn string `yaml:"primary_key_column"`
	UpdatedAtColumn  string `yaml:"updated_at_column"`
	SyncFrequency    string `yaml:"sync_frequency"` // daily, weekly
	IncrementalField string `yaml:"incremental_field,omitempty"`
	BatchSize        int    `yaml:"batch_size"`
	Enabled          bool   `yaml:"enabled"`
}

// BatchConfig bounds the scheduler's concurrent job execution and retention.
type BatchConfig struct {
	MaxConcurrentJobs     int `yaml:"max_concurrent_jobs"`
	JobRetentionSeconds   int `yaml:"job_retention_seconds"`
	PollIntervalSeconds   int `yaml:"poll_interval_seconds"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	Insecure    bool   `yaml:"insecure"`
	ServiceName string `yaml:"service_name"`
}

// NLUConfig tunes intent classification and entity extraction.
type NLUConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	EMAAlpha            float64 `yaml:"ema_alpha"`
	MLClassifierURL     string  `yaml:"ml_classifier_url,omitempty"`
}

// ConversationConfig bounds the in-memory conversation window kept per
// session and how long an idle session stays in memory; the durable store
// is written on every message and is not affected by eviction.
type ConversationConfig struct {
	MaxTurnsInMemory       int `yaml:"max_turns_in_memory"`
	IdleEvictSeconds       int `yaml:"idle_evict_seconds"`
	CleanupIntervalSeconds int `yaml:"cleanup_interval_seconds"`
}

// IndexingConfig sets the worker pool size, retry limit, janitor interval,
// job retention, bulk pacing and queue poll interval of the incremental
// indexing manager.
type IndexingConfig struct {
	Workers             int `yaml:"workers"`
	MaxRetries          int `yaml:"max_retries"`
	JanitorInterval     int `yaml:"janitor_interval_seconds"`
	JobRetentionSeconds int `yaml:"job_retention_seconds"`
	BulkBatchPacingMS   int `yaml:"bulk_batch_pacing_ms"`
	QueuePollInterval   int `yaml:"queue_poll_interval_ms"`
}

// DocumentConfig tunes the document processor's cleaning and chunking.
type DocumentConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// RetrievalConfig tunes hybrid search fusion.
type RetrievalConfig struct {
	DenseWeight     float64 `yaml:"dense_weight"`
	SparseWeight    float64 `yaml:"sparse_weight"`
	RRFK            int     `yaml:"rrf_k"`
	ExpansionFactor int     `yaml:"expansion_factor"`
	ScoreThreshold  float64 `yaml:"score_threshold"`
}

// LLMConfig selects and tunes the chat collaborator used for response
// generation.
type LLMConfig struct {
	Provider       string  `yaml:"provider"` // anthropic, openai
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url,omitempty"`
	AnthropicKey   string  `yaml:"anthropic_key,omitempty"`
	OpenAIKey      string  `yaml:"openai_key,omitempty"`
	MaxTokens      int64   `yaml:"max_tokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Store        StoreConfig        `yaml:"store"`
	VectorIndex  VectorIndexConfig  `yaml:"vector_index"`
	Embedding    EmbeddingConfig    `yaml:"embedding"`
	Tools        ToolsConfig        `yaml:"tools"`
	BatchSources []DataSourceConfig `yaml:"batch_sources,omitempty"`
	Batch        BatchConfig        `yaml:"batch"`
	OTel         TelemetryConfig    `yaml:"otel"`
	NLU          NLUConfig          `yaml:"nlu"`
	Conversation ConversationConfig `yaml:"conversation"`
	Document     DocumentConfig     `yaml:"document"`
	Indexing     IndexingConfig     `yaml:"indexing"`
	Retrieval    RetrievalConfig    `yaml:"retrieval"`
	LLM          LLMConfig          `yaml:"llm"`
}

// LoadConfig reads filename as YAML and applies defaults for anything left
// unset, the way the teacher's LoadConfig does.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeoutSec == 0 {
		cfg.Server.ReadTimeoutSec = 30
	}
	if cfg.Server.WriteTimeoutSec == 0 {
		cfg.Server.WriteTimeoutSec = 30
	}
	if cfg.Server.ShutdownGraceS == 0 {
		cfg.Server.ShutdownGraceS = 15
	}
	if cfg.VectorIndex.Dimension == 0 {
		cfg.VectorIndex.Dimension = 1536
	}
	if cfg.VectorIndex.Metric == "" {
		cfg.VectorIndex.Metric = "cosine"
	}
	if cfg.VectorIndex.Collection == "" {
		cfg.VectorIndex.Collection = "documents"
	}
	if cfg.Embedding.ModelFamily == "" {
		cfg.Embedding.ModelFamily = "plain"
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 32
	}
	if cfg.Embedding.CacheCapacity == 0 {
		cfg.Embedding.CacheCapacity = 10000
	}
	if cfg.Embedding.MaxInputChars == 0 {
		cfg.Embedding.MaxInputChars = 8192
	}
	if cfg.Tools.MaxConcurrent == 0 {
		cfg.Tools.MaxConcurrent = 16
	}
	if cfg.Tools.Defaults.RateLimitPerMinute == 0 {
		cfg.Tools.Defaults.RateLimitPerMinute = 60
	}
	if cfg.Tools.Defaults.CacheTTLSeconds == 0 {
		cfg.Tools.Defaults.CacheTTLSeconds = 30
	}
	if cfg.Tools.Defaults.MaxRetries == 0 {
		cfg.Tools.Defaults.MaxRetries = 3
	}
	if cfg.Tools.Defaults.TimeoutSeconds == 0 {
		cfg.Tools.Defaults.TimeoutSeconds = 10
	}
	if cfg.OTel.ServiceName == "" {
		cfg.OTel.ServiceName = "convo-core"
	}
	if cfg.NLU.ConfidenceThreshold == 0 {
		cfg.NLU.ConfidenceThreshold = 0.55
	}
	if cfg.NLU.EMAAlpha == 0 {
		cfg.NLU.EMAAlpha = 0.1
	}
	if cfg.Conversation.MaxTurnsInMemory == 0 {
		cfg.Conversation.MaxTurnsInMemory = 20
	}
	if cfg.Conversation.IdleEvictSeconds == 0 {
		cfg.Conversation.IdleEvictSeconds = 3600
	}
	if cfg.Conversation.CleanupIntervalSeconds == 0 {
		cfg.Conversation.CleanupIntervalSeconds = 300
	}
	if cfg.Document.ChunkSize == 0 {
		cfg.Document.ChunkSize = 256
	}
	if cfg.Document.ChunkOverlap == 0 {
		cfg.Document.ChunkOverlap = 32
	}
	if cfg.Indexing.Workers == 0 {
		cfg.Indexing.Workers = 4
	}
	if cfg.Indexing.MaxRetries == 0 {
		cfg.Indexing.MaxRetries = 3
	}
	if cfg.Indexing.JanitorInterval == 0 {
		cfg.Indexing.JanitorInterval = 60
	}
	if cfg.Indexing.JobRetentionSeconds == 0 {
		cfg.Indexing.JobRetentionSeconds = 86400
	}
	if cfg.Indexing.BulkBatchPacingMS == 0 {
		cfg.Indexing.BulkBatchPacingMS = 100
	}
	if cfg.Indexing.QueuePollInterval == 0 {
		cfg.Indexing.QueuePollInterval = 500
	}
	if cfg.Retrieval.DenseWeight == 0 {
		cfg.Retrieval.DenseWeight = 0.6
	}
	if cfg.Retrieval.SparseWeight == 0 {
		cfg.Retrieval.SparseWeight = 0.4
	}
	if cfg.Retrieval.RRFK == 0 {
		cfg.Retrieval.RRFK = 60
	}
	if cfg.Retrieval.ExpansionFactor == 0 {
		cfg.Retrieval.ExpansionFactor = 3
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "anthropic"
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = 30
	}
	if cfg.Batch.MaxConcurrentJobs == 0 {
		cfg.Batch.MaxConcurrentJobs = 3
	}
	if cfg.Batch.JobRetentionSeconds == 0 {
		cfg.Batch.JobRetentionSeconds = 7 * 24 * 3600
	}
	if cfg.Batch.PollIntervalSeconds == 0 {
		cfg.Batch.PollIntervalSeconds = 60
	}
	for i := range cfg.BatchSources {
		if cfg.BatchSources[i].BatchSize == 0 {
			cfg.BatchSources[i].BatchSize = 100
		}
	}
}
