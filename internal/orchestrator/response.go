package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/wearforce/convo-core/internal/conversation"
	"github.com/wearforce/convo-core/internal/llm"
)

var agentDescriptions = map[Agent]string{
	AgentCRM:             "You are a CRM assistant helping manage contacts and customer records.",
	AgentERP:             "You are an ERP assistant helping manage orders, inventory and reports.",
	AgentTaskCoordinator: "You are a task coordinator helping route business requests to the right system.",
	AgentGeneral:         "You are a general business assistant.",
}

// runResponse builds the LLM request (system prompt + last 5 history
// messages + current user message), calls the provider, and falls back to
// a deterministic local summary on failure.
func (o *Orchestrator) runResponse(ctx context.Context, s *State) {
	if o.llm == nil {
		s.Response = o.fallbackResponse(s)
		return
	}

	history := o.recentHistory(ctx, s.ConversationID)
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: o.systemPrompt(s)})
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}
	messages = append(messages, llm.Message{Role: "user", Content: s.Text})
	messages = trimToTokenBudget(messages, promptTokenBudget)

	llmCtx, cancel := context.WithTimeout(ctx, o.llmTimeout)
	defer cancel()

	req := llm.ChatRequest{
		Messages:    messages,
		Model:       o.llmCfg.Model,
		MaxTokens:   o.llmCfg.MaxTokens,
		Temperature: o.llmCfg.Temperature,
	}
	reply, err := o.llm.Chat(llmCtx, req)
	if err != nil {
		s.ErrorCount++
		s.note("llm call failed, using local fallback: " + err.Error())
		s.Response = o.fallbackResponse(s)
		return
	}
	s.Response = reply.Content
}

// promptTokenBudget bounds the system+history+user prompt sent to the LLM
// collaborator, independent of LLMConfig.MaxTokens (which bounds the
// completion, not the prompt).
const promptTokenBudget = 6000

// trimToTokenBudget drops the oldest history messages (never the leading
// system message or the trailing user message) until the estimated prompt
// fits within budget tokens.
func trimToTokenBudget(messages []llm.Message, budget int) []llm.Message {
	if len(messages) <= 2 {
		return messages
	}
	total := 0
	for _, m := range messages {
		total += llm.EstimateTokens(m.Content)
	}
	for total > budget && len(messages) > 2 {
		dropped := messages[1]
		messages = append(messages[:1], messages[2:]...)
		total -= llm.EstimateTokens(dropped.Content)
	}
	return messages
}

func (o *Orchestrator) recentHistory(ctx context.Context, conversationID string) []conversation.Message {
	if o.convos == nil {
		return nil
	}
	history, err := o.convos.GetHistory(ctx, conversationID, 5)
	if err != nil {
		return nil
	}
	return history
}

func (o *Orchestrator) systemPrompt(s *State) string {
	var b strings.Builder
	b.WriteString(agentDescriptions[s.Agent])
	if s.Intent != "" {
		fmt.Fprintf(&b, " Current intent: %s.", s.Intent)
	}
	fmt.Fprintf(&b, " Tool results: %d. RAG documents: %d.", len(s.ToolResults), len(s.RAGContext))
	for i, src := range s.RAGContext {
		if i >= 3 {
			break
		}
		snippet := src.Snippet
		if len(snippet) > 500 {
			snippet = snippet[:500]
		}
		fmt.Fprintf(&b, "\nSource %d (%s): %s", i+1, src.Source, snippet)
	}
	return b.String()
}

// fallbackResponse is the deterministic local agent used when the LLM
// collaborator is unavailable or fails: summarizes tool outcomes, or
// returns a canned reply for greeting/help.
func (o *Orchestrator) fallbackResponse(s *State) string {
	switch s.Intent {
	case "greeting":
		return "Hello! How can I help you today?"
	case "help":
		return "I can help with contacts, orders, inventory, meetings and reports. What do you need?"
	}

	if len(s.ToolResults) > 0 {
		var successes, failures int
		for _, tr := range s.ToolResults {
			if tr.Err != "" {
				failures++
			} else {
				successes++
			}
		}
		if failures == 0 {
			return fmt.Sprintf("Done: %d action(s) completed successfully.", successes)
		}
		if successes == 0 {
			return fmt.Sprintf("Sorry, %d action(s) failed. Please try again.", failures)
		}
		return fmt.Sprintf("%d action(s) completed, %d failed.", successes, failures)
	}

	if len(s.RAGContext) > 0 {
		return fmt.Sprintf("Based on %d related document(s): %s", len(s.RAGContext), s.RAGContext[0].Snippet)
	}

	return "I'm not sure how to help with that yet."
}
