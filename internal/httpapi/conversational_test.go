package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/conversation"
	"github.com/wearforce/convo-core/internal/nlu/entity"
	"github.com/wearforce/convo-core/internal/nlu/intent"
	"github.com/wearforce/convo-core/internal/orchestrator"
	"github.com/wearforce/convo-core/internal/persistence/databases"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	ic := intent.New(0.1, nil)
	require.NoError(t, ic.RegisterAll(intent.DefaultDefinitions()))
	ec := entity.New(nil, entity.DefaultBusinessPatterns(), 0.5)
	convos := conversation.New(databases.NewMemoryConversationStore(), config.ConversationConfig{MaxTurnsInMemory: 10, IdleEvictSeconds: 3600, CleanupIntervalSeconds: 300})
	orc := orchestrator.New(ic, ec, convos, nil, nil, nil, nil, nil, nil, config.RetrievalConfig{}, config.LLMConfig{})
	return NewServer(orc, nil, nil, nil, nil, nil, nil, config.LLMConfig{}, config.RetrievalConfig{})
}

func doRequest(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var r *http.Request
	if body != nil {
		b, _ := json.Marshal(body)
		r = httptest.NewRequest(method, path, bytes.NewReader(b))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, r)
	return rec
}

func TestHandleNLU_ClassifiesIntentAndEntities(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/nlu", nluRequest{
		Text: "create a new contact for Acme Corp", ClassifyIntent: true, ExtractEntities: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp nluResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "en", resp.Language)
}

func TestHandleNLU_RejectsMissingText(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/nlu", map[string]any{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAgent_ReturnsResponse(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/agent", agentRequest{Text: "hello there", ConversationID: "c1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp orchestrator.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "c1", resp.ConversationID)
	require.NotEmpty(t, resp.Response)
}

func TestHandleConversationLifecycle(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodPost, "/agent", agentRequest{Text: "hello there", ConversationID: "c2"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodGet, "/conversations/c2", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodPost, "/conversations/c2/messages", postMessageRequest{Role: "user", Content: "a follow up"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(s, http.MethodDelete, "/conversations/c2", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(s, http.MethodGet, "/conversations/c2", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleListToolsIntentsEntities(t *testing.T) {
	s := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/tools", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(s, http.MethodGet, "/intents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var intentsResp map[string][]intent.Definition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &intentsResp))
	require.NotEmpty(t, intentsResp["intents"])

	rec = doRequest(s, http.MethodGet, "/entities", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleStats(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}
