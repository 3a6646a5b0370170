package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sdk "github.com/openai/openai-go/v2"

	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/llm"
)

func TestChatReturnsText(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		defer r.Body.Close()
		w.Header().Set("Content-Type", "application/json")
		resp := sdk.ChatCompletion{
			ID:     "chatcmpl_1",
			Object: "chat.completion",
			Model:  "gpt-4o",
			Choices: []sdk.ChatCompletionChoice{
				{
					Message: sdk.ChatCompletionMessage{
						Role:    "assistant",
						Content: "hello",
					},
				},
			},
			Usage: sdk.CompletionUsage{PromptTokens: 10, CompletionTokens: 5},
		}
		b, _ := json.Marshal(resp)
		_, _ = w.Write(b)
	}))
	t.Cleanup(srv.Close)

	client := New(config.LLMConfig{OpenAIKey: "k", Model: "gpt-4o", BaseURL: srv.URL}, srv.Client())
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
	client := New(config.LLMConfig{OpenAIKey: "k", Model: "gpt-4o"}, http.DefaultClient)
	if _, err := client.Chat(context.Background(), llm.ChatRequest{}); err == nil {
		t.Fatal("expected error for empty messages")
	}
}

func TestAdaptMessagesToolCallRoundTrip(t *testing.T) {
	msgs := []llm.Message{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "what's the weather"},
		{
			Role: "assistant",
			ToolCalls: []llm.ToolCall{
				{ID: "call_1", Name: "get_weather", Args: json.RawMessage(`{"city":"nyc"}`)},
			},
		},
		{Role: "tool", ToolID: "call_1", Content: `{"temp_f":72}`},
	}
	out := AdaptMessages(msgs)
	if len(out) != 4 {
		t.Fatalf("expected 4 adapted messages, got %d", len(out))
	}
}
