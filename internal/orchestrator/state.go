// Package orchestrator implements the Orchestrator: a deterministic state
// graph over one request, from intent classification through response
// generation and conversation persistence.
package orchestrator

import (
	"time"

	"github.com/wearforce/convo-core/internal/nlu/entity"
)

// RoutingDecision is the edge taken out of CONTEXT_ANALYSIS.
type RoutingDecision string

const (
	RouteTools  RoutingDecision = "tools"
	RouteRAG    RoutingDecision = "rag"
	RouteDirect RoutingDecision = "direct"
	RouteError  RoutingDecision = "error"
)

// Agent is the system-prompt persona selected for response generation.
type Agent string

const (
	AgentCRM             Agent = "CRM_AGENT"
	AgentERP             Agent = "ERP_AGENT"
	AgentTaskCoordinator Agent = "TASK_COORDINATOR"
	AgentGeneral         Agent = "GENERAL_ASSISTANT"
)

// ToolResult is one executed tool's outcome.
type ToolResult struct {
	ToolName string
	Params   map[string]any
	Result   any
	Err      string
}

// RAGSource is one retrieved-and-cited passage surfaced in a response.
type RAGSource struct {
	ID       string
	Snippet  string
	Source   string
	Score    float64
	Metadata map[string]string
}

// State is the per-request scratch struct: created by the orchestrator,
// exclusively owned and mutated node-by-node until it reaches END.
type State struct {
	ConversationID string
	UserID         string
	Text           string
	Context        map[string]any

	Intent          string
	IntentConfident float64
	Entities        []entity.Entity
	Agent           Agent
	Routing         RoutingDecision

	ActionsTaken  []string
	ToolResults   []ToolResult
	Reasoning     []string
	RAGContext    []RAGSource
	ErrorCount    int
	Response      string
	ProcessingStage string

	StartedAt time.Time
}

func newState(conversationID, userID, text string, context map[string]any) *State {
	return &State{
		ConversationID: conversationID,
		UserID:         userID,
		Text:           text,
		Context:        context,
		StartedAt:      time.Now(),
	}
}

func (s *State) note(reason string) {
	s.Reasoning = append(s.Reasoning, reason)
}

// WorkflowFrame is one streamed progress update.
type WorkflowFrame struct {
	Type      string `json:"type"` // workflow_update, error
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
