package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/llm"
)

func minimalUsage() sdk.Usage {
	return sdk.Usage{InputTokens: 10, OutputTokens: 5}
}

func TestChatReturnsText(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		defer r.Body.Close()
		w.Header().Set("Content-Type", "application/json")
		resp := sdk.Message{
			ID:         "msg_1",
			Type:       constant.Message("message"),
			Role:       constant.Assistant("assistant"),
			Model:      sdk.ModelClaude3_7SonnetLatest,
			StopReason: sdk.StopReasonEndTurn,
			Content: []sdk.ContentBlockUnion{
				{Type: "text", Text: "hello"},
			},
			Usage: minimalUsage(),
		}
		b, _ := json.Marshal(resp)
		_, _ = w.Write(b)
	}))
	t.Cleanup(srv.Close)

	client := New(config.LLMConfig{AnthropicKey: "k", Model: "m", BaseURL: srv.URL}, srv.Client())
	msg, err := client.Chat(context.Background(), llm.ChatRequest{
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if msg.Content != "hello" {
		t.Fatalf("unexpected content: %q", msg.Content)
	}
	if gotPath == "" {
		t.Fatal("expected a request to reach the server")
	}
}

func TestChatRequiresMessages(t *testing.T) {
	client := New(config.LLMConfig{AnthropicKey: "k", Model: "m"}, http.DefaultClient)
	if _, err := client.Chat(context.Background(), llm.ChatRequest{}); err == nil {
		t.Fatal("expected error for empty messages")
	}
}

func TestAdaptToolsRejectsEmptyName(t *testing.T) {
	if _, err := adaptTools([]llm.ToolSchema{{Name: ""}}); err == nil {
		t.Fatal("expected error for empty tool name")
	}
}
