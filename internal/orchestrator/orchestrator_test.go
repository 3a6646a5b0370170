package orchestrator

import (
	"context"
	"testing"

	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/conversation"
	"github.com/wearforce/convo-core/internal/nlu/entity"
	"github.com/wearforce/convo-core/internal/nlu/intent"
	"github.com/wearforce/convo-core/internal/persistence/databases"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	ic := intent.New(0.1, nil)
	if err := ic.RegisterAll(intent.DefaultDefinitions()); err != nil {
		t.Fatalf("register intents: %v", err)
	}
	ec := entity.New(nil, entity.DefaultBusinessPatterns(), 0.5)
	convos := conversation.New(databases.NewMemoryConversationStore(), config.ConversationConfig{MaxTurnsInMemory: 10, IdleEvictSeconds: 3600, CleanupIntervalSeconds: 300})

	return New(ic, ec, convos, nil, nil, nil, nil, nil, nil, config.RetrievalConfig{}, config.LLMConfig{})
}

func TestProcessGreetingUsesFallback(t *testing.T) {
	o := newTestOrchestrator(t)
	resp, err := o.Process(context.Background(), Request{Text: "Hello, good morning, how are you today?", ConversationID: "c1"})
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if resp.Response == "" {
		t.Fatal("expected non-empty fallback response")
	}
}

func TestRouteToolsForBusinessIntent(t *testing.T) {
	s := &State{Intent: "create_contact"}
	if got := s.route(); got != RouteTools {
		t.Fatalf("expected tools routing, got %s", got)
	}
}

func TestRouteRAGForInformationalQuestion(t *testing.T) {
	s := &State{Intent: "", Text: "What is the return policy for damaged items?"}
	if got := s.route(); got != RouteRAG {
		t.Fatalf("expected rag routing, got %s", got)
	}
}

func TestRouteDirectForShortGreeting(t *testing.T) {
	s := &State{Intent: "greeting", Text: "hi"}
	if got := s.route(); got != RouteDirect {
		t.Fatalf("expected direct routing, got %s", got)
	}
}

func TestRouteErrorAfterMaxRetries(t *testing.T) {
	s := &State{ErrorCount: maxRetries + 1}
	if got := s.route(); got != RouteError {
		t.Fatalf("expected error routing, got %s", got)
	}
}

func TestSelectAgentByIntentFamily(t *testing.T) {
	if selectAgent("create_contact", false) != AgentCRM {
		t.Fatal("expected CRM agent")
	}
	if selectAgent("get_inventory", false) != AgentERP {
		t.Fatal("expected ERP agent")
	}
	if selectAgent("", true) != AgentTaskCoordinator {
		t.Fatal("expected task coordinator agent")
	}
	if selectAgent("", false) != AgentGeneral {
		t.Fatal("expected general agent")
	}
}

func TestPersistWritesUserThenAssistant(t *testing.T) {
	o := newTestOrchestrator(t)
	ctx := context.Background()
	s := &State{ConversationID: "c2", Text: "hello", Response: "hi there"}
	o.persist(ctx, s)

	history, err := o.convos.GetHistory(ctx, "c2", 10)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].Role != "user" || history[1].Role != "assistant" {
		t.Fatalf("expected user-then-assistant order, got %#v", history)
	}
}
