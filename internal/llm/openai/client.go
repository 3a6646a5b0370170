package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/llm"
	"github.com/wearforce/convo-core/internal/observability"
)

// Client adapts llm.Provider to the OpenAI chat completions API (and any
// OpenAI-compatible self-hosted gateway configured via BaseURL).
type Client struct {
	sdk   sdk.Client
	model string
}

func New(cfg config.LLMConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.OpenAIKey)),
		option.WithHTTPClient(httpClient),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(base, "/")))
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = sdk.ChatModelGPT4o
	}
	return &Client{sdk: sdk.NewClient(opts...), model: model}
}

func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (llm.Message, error) {
	if len(req.Messages) == 0 {
		return llm.Message{}, fmt.Errorf("openai provider: messages required")
	}

	model := req.Model
	if strings.TrimSpace(model) == "" {
		model = c.model
	}

	log := observability.LoggerWithTrace(ctx)
	params := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(model),
		Messages: AdaptMessages(req.Messages),
	}
	if len(req.Tools) > 0 {
		params.Tools = AdaptSchemas(req.Tools)
	}
	if req.Temperature > 0 {
		params.Temperature = sdk.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = sdk.Int(req.MaxTokens)
	}

	start := time.Now()
	comp, err := c.sdk.Chat.Completions.New(ctx, params)
	dur := time.Since(start)
	if err != nil {
		log.Error().Err(err).Str("model", string(params.Model)).Dur("duration", dur).Msg("chat_completion_error")
		return llm.Message{}, err
	}

	promptTokens := int(comp.Usage.PromptTokens)
	completionTokens := int(comp.Usage.CompletionTokens)
	llm.RecordTokenMetrics(string(params.Model), promptTokens, completionTokens)
	log.Debug().
		Str("model", string(params.Model)).
		Dur("duration", dur).
		Int("prompt_tokens", promptTokens).
		Int("completion_tokens", completionTokens).
		Msg("chat_completion_ok")

	var out llm.Message
	if len(comp.Choices) > 0 {
		msg := comp.Choices[0].Message
		out = llm.Message{Role: "assistant", Content: msg.Content}
		for _, tc := range msg.ToolCalls {
			if v, ok := tc.AsAny().(sdk.ChatCompletionMessageFunctionToolCall); ok {
				if isEmptyArgs(v.Function.Arguments) {
					log.Warn().Str("tool", v.Function.Name).Str("id", v.ID).Msg("skipping tool call with empty arguments")
					continue
				}
				out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
					Name: v.Function.Name,
					Args: json.RawMessage(v.Function.Arguments),
					ID:   v.ID,
				})
			}
		}
	}
	return out, nil
}

func isEmptyArgs(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return trimmed == "" || trimmed == "{}" || trimmed == "null"
}

var _ llm.Provider = (*Client)(nil)
