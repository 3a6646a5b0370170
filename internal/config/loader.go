package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads a YAML config file (if path is non-empty and exists) and then
// applies environment variable overrides of the form MODULE_<SECTION>_<KEY>,
// the same two-phase precedence the teacher's loader uses: file first,
// environment wins.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("MODULE_SERVER_HOST")); v != "" {
		cfg.Server.Host = v
	}
	if v := envInt("MODULE_SERVER_PORT"); v != 0 {
		cfg.Server.Port = v
	}
	if v := strings.TrimSpace(firstNonEmpty(os.Getenv("MODULE_STORE_REDIS_DSN"), os.Getenv("REDIS_URL"))); v != "" {
		cfg.Store.RedisDSN = v
	}
	if v := strings.TrimSpace(firstNonEmpty(os.Getenv("MODULE_STORE_POSTGRES_DSN"), os.Getenv("DATABASE_URL"))); v != "" {
		cfg.Store.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv("MODULE_VECTOR_INDEX_DSN")); v != "" {
		cfg.VectorIndex.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("MODULE_VECTOR_INDEX_COLLECTION")); v != "" {
		cfg.VectorIndex.Collection = v
	}
	if v := envInt("MODULE_VECTOR_INDEX_DIMENSION"); v != 0 {
		cfg.VectorIndex.Dimension = v
	}
	if v := strings.TrimSpace(os.Getenv("MODULE_VECTOR_INDEX_METRIC")); v != "" {
		cfg.VectorIndex.Metric = v
	}
	if v := strings.TrimSpace(os.Getenv("MODULE_EMBEDDING_MODEL_FAMILY")); v != "" {
		cfg.Embedding.ModelFamily = v
	}
	if v := strings.TrimSpace(os.Getenv("MODULE_EMBEDDING_MODEL")); v != "" {
		cfg.Embedding.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("MODULE_EMBEDDING_BASE_URL")); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("MODULE_EMBEDDING_API_KEY")); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := envInt("MODULE_EMBEDDING_BATCH_SIZE"); v != 0 {
		cfg.Embedding.BatchSize = v
	}
	if v := envInt("MODULE_EMBEDDING_CACHE_CAPACITY"); v != 0 {
		cfg.Embedding.CacheCapacity = v
	}
	if v := strings.TrimSpace(os.Getenv("MODULE_TOOLS_BASE_URL")); v != "" {
		cfg.Tools.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("MODULE_TOOLS_API_KEY")); v != "" {
		cfg.Tools.APIKey = v
	}
	if v := envInt("MODULE_TOOLS_MAX_CONCURRENT"); v != 0 {
		cfg.Tools.MaxConcurrent = v
	}
	if v := strings.TrimSpace(os.Getenv("MODULE_OTEL_ENDPOINT")); v != "" {
		cfg.OTel.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("MODULE_OTEL_SERVICE_NAME")); v != "" {
		cfg.OTel.ServiceName = v
	}
	if v := strings.TrimSpace(os.Getenv("MODULE_OTEL_ENABLED")); v != "" {
		cfg.OTel.Enabled = truthyEnv(v)
	}
	if v := strings.TrimSpace(os.Getenv("MODULE_LLM_PROVIDER")); v != "" {
		cfg.LLM.Provider = v
	}
	if v := strings.TrimSpace(os.Getenv("MODULE_LLM_MODEL")); v != "" {
		cfg.LLM.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("MODULE_LLM_BASE_URL")); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); v != "" {
		cfg.LLM.AnthropicKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		cfg.LLM.OpenAIKey = v
	}
	if v := envFloat("MODULE_NLU_CONFIDENCE_THRESHOLD"); v != 0 {
		cfg.NLU.ConfidenceThreshold = v
	}
	if v := strings.TrimSpace(os.Getenv("MODULE_NLU_ML_CLASSIFIER_URL")); v != "" {
		cfg.NLU.MLClassifierURL = v
	}
	if v := envInt("MODULE_CONVERSATION_MAX_TURNS_IN_MEMORY"); v != 0 {
		cfg.Conversation.MaxTurnsInMemory = v
	}
	if v := envInt("MODULE_INDEXING_WORKERS"); v != 0 {
		cfg.Indexing.Workers = v
	}
	if v := envFloat("MODULE_RETRIEVAL_DENSE_WEIGHT"); v != 0 {
		cfg.Retrieval.DenseWeight = v
	}
	if v := envFloat("MODULE_RETRIEVAL_SPARSE_WEIGHT"); v != 0 {
		cfg.Retrieval.SparseWeight = v
	}
	if v := envInt("MODULE_DOCUMENT_CHUNK_SIZE"); v != 0 {
		cfg.Document.ChunkSize = v
	}
	if v := envInt("MODULE_DOCUMENT_CHUNK_OVERLAP"); v != 0 {
		cfg.Document.ChunkOverlap = v
	}
}

func envInt(key string) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envFloat(key string) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func truthyEnv(v string) bool {
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// MustLoad is a convenience wrapper for cmd/server that fails fast with a
// formatted error instead of a bare one.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}
