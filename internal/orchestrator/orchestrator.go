package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wearforce/convo-core/internal/citation"
	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/conversation"
	"github.com/wearforce/convo-core/internal/embedding"
	"github.com/wearforce/convo-core/internal/llm"
	"github.com/wearforce/convo-core/internal/nlu/entity"
	"github.com/wearforce/convo-core/internal/nlu/intent"
	"github.com/wearforce/convo-core/internal/observability"
	"github.com/wearforce/convo-core/internal/persistence/databases"
	"github.com/wearforce/convo-core/internal/rag/retrieve"
	"github.com/wearforce/convo-core/internal/tools"
)

// Request is one incoming conversational turn.
type Request struct {
	Text           string
	ConversationID string
	UserID         string
	Context        map[string]any
}

// Response is the Orchestrator's reply to one Request.
type Response struct {
	ConversationID string   `json:"conversation_id"`
	Actions        []string `json:"actions"`
	Response       string   `json:"response"`
	Reasoning      []string `json:"reasoning,omitempty"`
	Confidence     float64  `json:"confidence"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// Orchestrator wires NLU, tool dispatch, RAG retrieval, the LLM collaborator
// and conversation persistence into the INTENT -> ... -> END state graph.
type Orchestrator struct {
	intents    *intent.Classifier
	entities   *entity.Extractor
	convos     *conversation.Manager
	toolReg    *tools.Registry
	dispatcher *tools.Dispatcher
	embedder   *embedding.Engine
	vector     databases.VectorStore
	sparse     *retrieve.SparseIndex
	llm        llm.Provider
	dedupe     DedupeStore

	retrievalCfg config.RetrievalConfig
	llmCfg       config.LLMConfig
	topK         int
	ragTimeout   time.Duration
	toolTimeout  time.Duration
	llmTimeout   time.Duration
}

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithDedupeStore enables request-level idempotency: identical
// (conversation_id, text) pairs seen within the dedupe TTL return the
// cached response instead of re-running the graph.
func WithDedupeStore(d DedupeStore) Option {
	return func(o *Orchestrator) { o.dedupe = d }
}

// New builds an Orchestrator over its collaborators.
func New(
	intents *intent.Classifier,
	entities *entity.Extractor,
	convos *conversation.Manager,
	toolReg *tools.Registry,
	dispatcher *tools.Dispatcher,
	embedder *embedding.Engine,
	vector databases.VectorStore,
	sparse *retrieve.SparseIndex,
	provider llm.Provider,
	retrievalCfg config.RetrievalConfig,
	llmCfg config.LLMConfig,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		intents:      intents,
		entities:     entities,
		convos:       convos,
		toolReg:      toolReg,
		dispatcher:   dispatcher,
		embedder:     embedder,
		vector:       vector,
		sparse:       sparse,
		llm:          provider,
		retrievalCfg: retrievalCfg,
		llmCfg:       llmCfg,
		topK:         5,
		ragTimeout:   30 * time.Second,
		toolTimeout:  30 * time.Second,
		llmTimeout:   60 * time.Second,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs one request through the full state graph and persists both
// turns to ConversationManager.
func (o *Orchestrator) Process(ctx context.Context, req Request) (Response, error) {
	if o.dedupe != nil {
		key := dedupeKey(req.ConversationID, req.Text)
		if cached, err := o.dedupe.Get(ctx, key); err == nil && cached != "" {
			return Response{ConversationID: req.ConversationID, Response: cached, Actions: []string{"cache_hit"}}, nil
		}
	}

	s := newState(req.ConversationID, req.UserID, req.Text, req.Context)
	o.runIntent(s)
	o.runEntities(s)
	o.runContextAnalysis(s)

	switch s.Routing {
	case RouteTools:
		s.ProcessingStage = "TOOL_SELECT"
		o.runTools(ctx, s)
	case RouteRAG:
		s.ProcessingStage = "RAG"
		o.runRAG(ctx, s)
	case RouteError:
		s.ProcessingStage = "ERROR"
		s.note("routed to error: exceeded max retries")
	}

	s.ProcessingStage = "RESPONSE"
	o.runResponse(ctx, s)

	s.ProcessingStage = "CONV_UPDATE"
	o.persist(ctx, s)

	if o.dedupe != nil {
		_ = o.dedupe.Set(ctx, dedupeKey(req.ConversationID, req.Text), s.Response, time.Minute)
	}

	return Response{
		ConversationID: req.ConversationID,
		Actions:        s.ActionsTaken,
		Response:       s.Response,
		Reasoning:      s.Reasoning,
		Confidence:     s.IntentConfident,
		ProcessingTime: time.Since(s.StartedAt),
	}, nil
}

// Stream runs Process and emits a single workflow_update frame (stage
// "response") carrying the final Response once the whole graph has run, or a
// single error frame; the individual nodes emit no frames of their own. The
// channel is closed after that frame.
func (o *Orchestrator) Stream(ctx context.Context, req Request) <-chan WorkflowFrame {
	out := make(chan WorkflowFrame, 8)
	go func() {
		defer close(out)
		emit := func(stage string, data any) {
			select {
			case out <- WorkflowFrame{Type: "workflow_update", Data: map[string]any{"stage": stage, "data": data}, Timestamp: time.Now()}:
			case <-ctx.Done():
			}
		}

		resp, err := o.Process(ctx, req)
		if err != nil {
			select {
			case out <- WorkflowFrame{Type: "error", Error: err.Error(), Timestamp: time.Now()}:
			case <-ctx.Done():
			}
			return
		}
		emit("response", resp)
	}()
	return out
}

func (o *Orchestrator) runIntent(s *State) {
	s.ProcessingStage = "INTENT"
	if o.intents == nil {
		return
	}
	result, err := o.intents.Classify(s.Text)
	if err != nil || result == nil {
		s.note("no confident intent match")
		return
	}
	s.Intent = result.Name
	s.IntentConfident = result.Confidence
	s.note(fmt.Sprintf("classified intent %q (confidence %.2f)", result.Name, result.Confidence))
}

func (o *Orchestrator) runEntities(s *State) {
	s.ProcessingStage = "ENTITIES"
	if o.entities == nil {
		return
	}
	ents, err := o.entities.Extract(s.Text)
	if err != nil {
		s.ErrorCount++
		s.note("entity extraction failed: " + err.Error())
		return
	}
	s.Entities = ents
	s.note(fmt.Sprintf("extracted %d entities", len(ents)))
}

func (o *Orchestrator) runContextAnalysis(s *State) {
	s.ProcessingStage = "CONTEXT_ANALYSIS"
	s.Agent = selectAgent(s.Intent, hasBusinessEntity(s.Entities))
	s.Routing = s.route()
	s.note(fmt.Sprintf("routed to %s (agent %s)", s.Routing, s.Agent))
}

func (o *Orchestrator) runTools(ctx context.Context, s *State) {
	if o.dispatcher == nil {
		return
	}
	name := s.Intent
	if name == "" {
		return
	}
	params := o.assembleParams(s)

	toolCtx, cancel := context.WithTimeout(ctx, o.toolTimeout)
	defer cancel()

	result, err := o.dispatcher.Execute(toolCtx, name, params, &tools.ExecutionContext{ConversationID: s.ConversationID})
	tr := ToolResult{ToolName: name, Params: params}
	if err != nil {
		tr.Err = err.Error()
		s.ErrorCount++
		s.note("tool execution failed: " + err.Error())
	} else {
		tr.Result = result
		s.ActionsTaken = append(s.ActionsTaken, name)
	}
	s.ToolResults = append(s.ToolResults, tr)
}

// assembleParams merges the intent's text-derived parameter side-channel
// with entity-derived parameters, keyed by entity label; entity-derived
// values win on conflict since they carry span/confidence information.
func (o *Orchestrator) assembleParams(s *State) map[string]any {
	params := map[string]any{}
	for k, v := range intent.ExtractParameters(s.Text, s.Intent) {
		params[k] = v
	}
	for _, e := range s.Entities {
		if key, ok := toolParamLabels[e.Label]; ok {
			params[key] = e.Text
		}
	}
	return params
}

func (o *Orchestrator) runRAG(ctx context.Context, s *State) {
	if o.embedder == nil || o.vector == nil {
		return
	}
	log := observability.LoggerWithTrace(ctx)
	ragCtx, cancel := context.WithTimeout(ctx, o.ragTimeout)
	defer cancel()

	threshold := o.retrievalCfg.ScoreThreshold
	results, err := retrieve.Hybrid(ragCtx, o.embedder, o.vector, o.sparse, s.Text, o.topK, threshold, nil, o.retrievalCfg)
	if err != nil {
		s.ErrorCount++
		s.note("rag retrieval failed: " + err.Error())
		log.Warn().Err(err).Msg("orchestrator_rag_failed")
		return
	}

	candidates := make([]citation.Candidate, len(results))
	for i, r := range results {
		candidates[i] = citation.Candidate{
			ID: r.ID, Content: r.Text, Source: r.Metadata["source"], BaseScore: r.Score,
			Meta: citation.SourceMeta{Title: r.Metadata["title"]},
		}
	}
	citations := citation.Generate(ragCtx, s.Text, candidates, citation.GenerateOptions{MaxCitations: o.topK})

	for _, c := range citations {
		s.RAGContext = append(s.RAGContext, RAGSource{
			ID: c.ID, Snippet: c.ContentSnippet, Source: c.SourceIdentifier, Score: c.RelevanceScore,
		})
	}
	s.note(fmt.Sprintf("retrieved %d rag sources", len(s.RAGContext)))
}

func (o *Orchestrator) persist(ctx context.Context, s *State) {
	if o.convos == nil {
		return
	}
	if _, err := o.convos.AddMessage(ctx, s.ConversationID, "user", s.Text, conversation.MessageOptions{Intent: s.Intent}); err != nil {
		s.note("failed to persist user message: " + err.Error())
	}
	opts := conversation.MessageOptions{Intent: s.Intent, IsError: s.ErrorCount > 0}
	if len(s.ToolResults) > 0 {
		opts.ToolName = s.ToolResults[len(s.ToolResults)-1].ToolName
	}
	if _, err := o.convos.AddMessage(ctx, s.ConversationID, "assistant", s.Response, opts); err != nil {
		s.note("failed to persist assistant message: " + err.Error())
	}
}

func dedupeKey(conversationID, text string) string {
	return "orchestrator:dedupe:" + conversationID + ":" + strings.TrimSpace(text)
}

// Tools returns the registered tool definitions, for the external API's
// GET /tools endpoint.
func (o *Orchestrator) Tools() []tools.ToolDefinition {
	if o.toolReg == nil {
		return nil
	}
	return o.toolReg.List()
}

// Intents returns the registered intent names in registration order, for
// GET /intents.
func (o *Orchestrator) Intents() []string {
	if o.intents == nil {
		return nil
	}
	return o.intents.List()
}

// ClassifyIntent runs standalone intent classification, for POST /nlu.
func (o *Orchestrator) ClassifyIntent(text string) (*intent.Intent, error) {
	if o.intents == nil {
		return nil, nil
	}
	return o.intents.Classify(text)
}

// ExtractEntities runs standalone entity extraction, for POST /nlu.
func (o *Orchestrator) ExtractEntities(text string) ([]entity.Entity, error) {
	if o.entities == nil {
		return nil, nil
	}
	return o.entities.Extract(text)
}

// EntityLabels returns every label the entity extractor can produce, for
// GET /entities.
func (o *Orchestrator) EntityLabels() []string {
	if o.entities == nil {
		return nil
	}
	return o.entities.Labels()
}

// ExecuteTool runs one named tool directly, outside the state graph, for
// POST /tools/execute.
func (o *Orchestrator) ExecuteTool(ctx context.Context, name string, params map[string]any, conversationID string) (any, error) {
	if o.dispatcher == nil {
		return nil, fmt.Errorf("no tool dispatcher configured")
	}
	toolCtx, cancel := context.WithTimeout(ctx, o.toolTimeout)
	defer cancel()
	return o.dispatcher.Execute(toolCtx, name, params, &tools.ExecutionContext{ConversationID: conversationID})
}

// Conversations exposes the conversation manager for the conversations
// resource and /stats.
func (o *Orchestrator) Conversations() *conversation.Manager {
	return o.convos
}

// IntentStats returns the intent classifier's rolling confidence stats, for
// GET /stats.
func (o *Orchestrator) IntentStats() intent.Stats {
	if o.intents == nil {
		return intent.Stats{}
	}
	return o.intents.Stats()
}

// ToolHealth reports whether the tool dispatcher's configured backends are
// reachable, for GET /health.
func (o *Orchestrator) ToolHealth(ctx context.Context) bool {
	if o.dispatcher == nil {
		return true
	}
	return o.dispatcher.HealthCheck(ctx)
}
