// Command server runs the conversational orchestration core: the NLU
// pipeline, tool dispatcher, RAG retrieval/indexing and the graph-driven
// orchestrator, all behind the Conversational and RAG HTTP APIs.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/wearforce/convo-core/internal/batch"
	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/conversation"
	"github.com/wearforce/convo-core/internal/documents"
	"github.com/wearforce/convo-core/internal/embedding"
	"github.com/wearforce/convo-core/internal/httpapi"
	"github.com/wearforce/convo-core/internal/indexing"
	"github.com/wearforce/convo-core/internal/llm"
	"github.com/wearforce/convo-core/internal/llm/anthropic"
	"github.com/wearforce/convo-core/internal/llm/openai"
	"github.com/wearforce/convo-core/internal/nlu/entity"
	"github.com/wearforce/convo-core/internal/nlu/intent"
	"github.com/wearforce/convo-core/internal/observability"
	"github.com/wearforce/convo-core/internal/orchestrator"
	"github.com/wearforce/convo-core/internal/persistence/databases"
	"github.com/wearforce/convo-core/internal/rag/retrieve"
	"github.com/wearforce/convo-core/internal/tools"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("convo-core")
	}
}

func run() error {
	if err := godotenv.Load(".env"); err != nil {
		_ = godotenv.Load("example.env")
	}
	observability.InitLogger(getenv("LOG_PATH", ""), getenv("LOG_LEVEL", "info"))

	cfg, err := config.LoadConfig(getenv("CONFIG_FILE", "config.yaml"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	shutdownOTel, err := observability.InitOTel(context.Background(), cfg.OTel)
	if err != nil {
		log.Warn().Err(err).Msg("otel init failed, continuing without observability")
		shutdownOTel = nil
	}
	if shutdownOTel != nil {
		defer func() { _ = shutdownOTel(context.Background()) }()
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbs, err := databases.NewManager(baseCtx, *cfg)
	if err != nil {
		return fmt.Errorf("init databases: %w", err)
	}
	defer dbs.Close()

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr(cfg.Store.RedisDSN)})
	defer rdb.Close()

	embed := embedding.New(cfg.Embedding)
	if health := embed.CheckHealth(baseCtx); !health.Healthy {
		log.Warn().Err(health.Err).Msg("embedding model unreachable at startup, continuing degraded")
	}

	sparse := retrieve.NewSparseIndex()
	proc := documents.NewProcessor(cfg.Document)

	convos := conversation.New(dbs.Chat, cfg.Conversation)
	convos.Start(baseCtx)

	idx := indexing.New(rdb, proc, embed, dbs.Vector, sparse, cfg.Indexing)
	idx.Start(baseCtx)
	defer idx.Stop(time.Duration(cfg.Server.ShutdownGraceS) * time.Second)

	batchProc := batch.NewProcessor(rdb, cfg.BatchSources, cfg.Batch, idx)
	batchProc.Start(baseCtx)
	defer batchProc.Stop(time.Duration(cfg.Server.ShutdownGraceS) * time.Second)

	intents := intent.New(cfg.NLU.EMAAlpha, nil)
	if err := intents.RegisterAll(intent.DefaultDefinitions()); err != nil {
		return fmt.Errorf("register intents: %w", err)
	}
	entities := entity.New(nil, entity.DefaultBusinessPatterns(), cfg.NLU.ConfidenceThreshold)

	toolReg := tools.NewRegistry()
	defaults := tools.DefaultsConfig{
		Timeout:            time.Duration(cfg.Tools.Defaults.TimeoutSeconds) * time.Second,
		MaxRetries:         cfg.Tools.Defaults.MaxRetries,
		CacheTTL:           time.Duration(cfg.Tools.Defaults.CacheTTLSeconds) * time.Second,
		RateLimitPerMinute: cfg.Tools.Defaults.RateLimitPerMinute,
	}
	for _, def := range tools.BusinessDefinitions(defaults) {
		if err := toolReg.Register(def); err != nil {
			return fmt.Errorf("register tool %q: %w", def.Name, err)
		}
	}
	dispatcher := tools.NewDispatcher(toolReg, tools.DispatcherConfig{
		MaxConcurrentRequests: cfg.Tools.MaxConcurrent,
		BaseURL:               cfg.Tools.BaseURL,
	})

	provider := newLLMProvider(cfg.LLM)

	dedupeAddr := redisAddr(cfg.Store.RedisDSN)
	dedupe, err := orchestrator.NewRedisDedupeStore(dedupeAddr)
	if err != nil {
		log.Warn().Err(err).Msg("dedupe store unavailable, continuing without idempotency")
		dedupe = nil
	}
	var opts []orchestrator.Option
	if dedupe != nil {
		opts = append(opts, orchestrator.WithDedupeStore(dedupe))
	}

	orc := orchestrator.New(intents, entities, convos, toolReg, dispatcher, embed, dbs.Vector, sparse, provider, cfg.Retrieval, cfg.LLM, opts...)

	server := httpapi.NewServer(orc, idx, proc, embed, dbs.Vector, sparse, provider, cfg.LLM, cfg.Retrieval)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      server,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("convo-core listening")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-baseCtx.Done()
	log.Info().Msg("shutdown signal received, draining")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownGraceS)*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
	convos.Stop(time.Duration(cfg.Server.ShutdownGraceS) * time.Second)
	if dedupe != nil {
		_ = dedupe.Close()
	}
	log.Info().Msg("convo-core stopped")
	return nil
}

func newLLMProvider(cfg config.LLMConfig) llm.Provider {
	httpClient := observability.NewHTTPClient(&http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second})
	switch cfg.Provider {
	case "openai":
		return openai.New(cfg, httpClient)
	default:
		return anthropic.New(cfg, httpClient)
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// redisAddr accepts either a bare host:port or a redis:// DSN, matching
// whatever shape StoreConfig.RedisDSN was given.
func redisAddr(dsn string) string {
	if dsn == "" {
		return "localhost:6379"
	}
	if opts, err := redis.ParseURL(dsn); err == nil {
		return opts.Addr
	}
	return dsn
}
