package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/persistence/databases"
)

func newTestManager() *Manager {
	return New(databases.NewMemoryConversationStore(), config.ConversationConfig{MaxTurnsInMemory: 5, IdleEvictSeconds: 3600, CleanupIntervalSeconds: 300})
}

func TestAddMessageAssignsSequenceAndID(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	first, err := m.AddMessage(ctx, "conv1", "user", "hello", MessageOptions{})
	if err != nil {
		t.Fatalf("add message: %v", err)
	}
	if first.Sequence != 0 || first.ID != "conv1_0" {
		t.Fatalf("expected sequence 0 / id conv1_0, got %#v", first)
	}

	second, err := m.AddMessage(ctx, "conv1", "assistant", "hi there", MessageOptions{Intent: "greeting"})
	if err != nil {
		t.Fatalf("add message: %v", err)
	}
	if second.Sequence != 1 || second.ID != "conv1_1" {
		t.Fatalf("expected sequence 1 / id conv1_1, got %#v", second)
	}
}

func TestGetHistoryReturnsRecentWindow(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := m.AddMessage(ctx, "conv2", "user", "msg", MessageOptions{}); err != nil {
			t.Fatalf("add message: %v", err)
		}
	}
	history, err := m.GetHistory(ctx, "conv2", 2)
	if err != nil {
		t.Fatalf("get history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[len(history)-1].Sequence != 2 {
		t.Fatalf("expected last message to be sequence 2, got %#v", history)
	}
}

func TestGetSummaryComputesAnalytics(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	_, _ = m.AddMessage(ctx, "conv3", "user", "search for contact", MessageOptions{Intent: "search_contact"})
	_, _ = m.AddMessage(ctx, "conv3", "assistant", "found it", MessageOptions{ToolName: "crm_search"})
	_, _ = m.AddMessage(ctx, "conv3", "user", "now create an order", MessageOptions{Intent: "create_order"})
	_, _ = m.AddMessage(ctx, "conv3", "assistant", "failed to create order", MessageOptions{IsError: true})

	summary, err := m.GetSummary("conv3")
	if err != nil {
		t.Fatalf("get summary: %v", err)
	}
	if summary.RoleDistribution["user"] != 2 || summary.RoleDistribution["assistant"] != 2 {
		t.Fatalf("expected 2/2 role distribution, got %#v", summary.RoleDistribution)
	}
	if summary.IntentChanges != 1 {
		t.Fatalf("expected 1 intent change, got %d", summary.IntentChanges)
	}
	if len(summary.ToolsUsed) != 1 || summary.ToolsUsed[0] != "crm_search" {
		t.Fatalf("expected crm_search tool usage, got %#v", summary.ToolsUsed)
	}
	if summary.ErrorRate != 0.25 {
		t.Fatalf("expected error rate 0.25, got %f", summary.ErrorRate)
	}
}

func TestGetActiveAndDelete(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()
	_, _ = m.AddMessage(ctx, "conv4", "user", "hi", MessageOptions{})

	active := m.GetActive()
	if len(active) != 1 || active[0] != "conv4" {
		t.Fatalf("expected conv4 active, got %#v", active)
	}

	if err := m.Delete(ctx, "conv4"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(m.GetActive()) != 0 {
		t.Fatal("expected no active conversations after delete")
	}
}

func TestEvictIdleRemovesStaleContexts(t *testing.T) {
	m := New(databases.NewMemoryConversationStore(), config.ConversationConfig{MaxTurnsInMemory: 5, IdleEvictSeconds: 1, CleanupIntervalSeconds: 300})
	ctx := context.Background()
	_, _ = m.AddMessage(ctx, "conv5", "user", "hi", MessageOptions{})

	m.mu.Lock()
	m.contexts["conv5"].LastActivity = time.Now().Add(-time.Hour)
	m.mu.Unlock()

	m.evictIdle()

	if len(m.GetActive()) != 0 {
		t.Fatal("expected idle conversation to be evicted")
	}
}
