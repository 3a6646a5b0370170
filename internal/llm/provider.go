// Package llm defines the portable chat-message contract shared by every
// LLM collaborator (anthropic, openai) that the orchestrator's response
// generation step calls.
package llm

import (
	"context"
	"encoding/json"

	"github.com/wearforce/convo-core/internal/util"
)

// ToolCall is a function call the model asked the caller to execute.
type ToolCall struct {
	Name string
	Args json.RawMessage
	ID   string
}

// Message is one portable turn in a chat history.
type Message struct {
	Role      string // "system" | "user" | "assistant" | "tool"
	Content   string
	ToolID    string // set on role "tool": which ToolCall.ID this is a result for
	ToolCalls []ToolCall
}

// ToolSchema describes one callable tool in provider-neutral form.
type ToolSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ChatRequest carries everything a Provider needs for one completion.
type ChatRequest struct {
	Messages    []Message
	Tools       []ToolSchema
	Model       string
	MaxTokens   int64
	Temperature float64
}

// Provider is the single-shot chat contract every LLM collaborator
// implements. Streaming, inline images and thought-signature round-tripping
// are out of scope: the orchestrator only ever needs one complete message
// back per turn.
type Provider interface {
	Chat(ctx context.Context, req ChatRequest) (Message, error)
}

// EstimateTokens is a heuristic fallback used where an accurate provider-side
// count isn't worth the round trip. Word/punctuation counting tracks
// sub-word tokenizers more closely than a flat chars/4 ratio.
func EstimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return util.CountTokens(s)
}
