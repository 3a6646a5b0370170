// Package httpapi exposes the Conversational API and RAG API described by
// the external interface contract over gin: conversational turns, direct
// tool execution, NLU introspection, document ingestion and hybrid search.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wearforce/convo-core/internal/apperr"
	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/documents"
	"github.com/wearforce/convo-core/internal/embedding"
	"github.com/wearforce/convo-core/internal/indexing"
	"github.com/wearforce/convo-core/internal/llm"
	"github.com/wearforce/convo-core/internal/observability"
	"github.com/wearforce/convo-core/internal/orchestrator"
	"github.com/wearforce/convo-core/internal/persistence/databases"
	"github.com/wearforce/convo-core/internal/rag/retrieve"
)

// Server wires the orchestrator, indexing manager and retrieval
// collaborators into the HTTP boundary.
type Server struct {
	orc          *orchestrator.Orchestrator
	idx          *indexing.Manager
	proc         *documents.Processor
	embed        *embedding.Engine
	vector       databases.VectorStore
	sparse       *retrieve.SparseIndex
	llmProvider  llm.Provider
	llmCfg       config.LLMConfig
	retrievalCfg config.RetrievalConfig

	engine *gin.Engine
}

// NewServer builds the gin engine and registers every route.
func NewServer(
	orc *orchestrator.Orchestrator,
	idx *indexing.Manager,
	proc *documents.Processor,
	embed *embedding.Engine,
	vector databases.VectorStore,
	sparse *retrieve.SparseIndex,
	llmProvider llm.Provider,
	llmCfg config.LLMConfig,
	retrievalCfg config.RetrievalConfig,
) *Server {
	s := &Server{
		orc: orc, idx: idx, proc: proc, embed: embed, vector: vector, sparse: sparse,
		llmProvider: llmProvider, llmCfg: llmCfg, retrievalCfg: retrievalCfg,
	}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), requestLogger())
	s.registerRoutes()
	return s
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	// Conversational API
	s.engine.POST("/nlu", s.handleNLU)
	s.engine.POST("/agent", s.handleAgent)
	s.engine.POST("/agent/stream", s.handleAgentStream)
	s.engine.GET("/conversations/:id", s.handleGetConversation)
	s.engine.POST("/conversations/:id/messages", s.handlePostConversationMessage)
	s.engine.DELETE("/conversations/:id", s.handleDeleteConversation)
	s.engine.GET("/tools", s.handleListTools)
	s.engine.POST("/tools/execute", s.handleExecuteTool)
	s.engine.GET("/intents", s.handleListIntents)
	s.engine.GET("/entities", s.handleListEntityLabels)
	s.engine.GET("/stats", s.handleStats)
	s.engine.GET("/health", s.handleHealth)

	// RAG API
	s.engine.POST("/documents", s.handleUploadDocument)
	s.engine.POST("/documents/text", s.handleIngestText)
	s.engine.GET("/documents", s.handleListDocuments)
	s.engine.DELETE("/documents/:id", s.handleDeleteDocument)
	s.engine.POST("/search", s.handleSearch)
	s.engine.POST("/rag", s.handleRAG)
	s.engine.POST("/embeddings", s.handleEmbeddings)
}

// requestLogger emits one structured log line per request in the teacher's
// zerolog idiom rather than gin's default combined-log writer.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log := observability.LoggerWithTrace(c.Request.Context())
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("http_request")
	}
}

func respondJSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

func respondError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondTypedError maps the apperr taxonomy onto the HTTP status classes
// the error-handling design names (Validation->400, NotFound->404,
// RateLimited->503, Upstream/Transient->503), falling back to 500 for
// untyped errors.
func respondTypedError(c *gin.Context, err error) {
	switch apperr.KindOf(err) {
	case apperr.Validation:
		respondError(c, http.StatusBadRequest, err)
	case apperr.NotFound:
		respondError(c, http.StatusNotFound, err)
	case apperr.RateLimited, apperr.Upstream, apperr.Transient:
		respondError(c, http.StatusServiceUnavailable, err)
	default:
		respondError(c, http.StatusInternalServerError, err)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}
