package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/documents"
	"github.com/wearforce/convo-core/internal/embedding"
	"github.com/wearforce/convo-core/internal/indexing"
	"github.com/wearforce/convo-core/internal/llm"
	"github.com/wearforce/convo-core/internal/persistence/databases"
	"github.com/wearforce/convo-core/internal/rag/retrieve"
)

type fakeProvider struct {
	reply string
}

func (f *fakeProvider) Chat(context.Context, llm.ChatRequest) (llm.Message, error) {
	return llm.Message{Role: "assistant", Content: f.reply}, nil
}

func vecHandler(dim int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		data := make([]map[string]any, len(req.Input))
		v := make([]float32, dim)
		for i := range v {
			v[i] = 1.0 / float32(dim)
		}
		for i := range data {
			data[i] = map[string]any{"embedding": v}
		}
		b, _ := json.Marshal(map[string]any{"data": data})
		_, _ = w.Write(b)
	}
}

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func newRAGTestServer(t *testing.T) *Server {
	t.Helper()
	ts := httptest.NewServer(vecHandler(4))
	t.Cleanup(ts.Close)

	embed := embedding.New(config.EmbeddingConfig{BaseURL: ts.URL, Model: "test-embed", BatchSize: 8, CacheCapacity: 100})
	vector := databases.NewMemoryVector()
	sparse := retrieve.NewSparseIndex()
	proc := documents.NewProcessor(config.DocumentConfig{ChunkSize: 200, ChunkOverlap: 20})

	rdb := newTestRedis(t)
	idx := indexing.New(rdb, proc, embed, vector, sparse, config.IndexingConfig{Workers: 1})

	retrievalCfg := config.RetrievalConfig{DenseWeight: 0.7, SparseWeight: 0.3, ExpansionFactor: 3, ScoreThreshold: 0}
	llmCfg := config.LLMConfig{Model: "test-model", MaxTokens: 256, Temperature: 0.2}

	return NewServer(nil, idx, proc, embed, vector, sparse, &fakeProvider{reply: "grounded answer [1]"}, llmCfg, retrievalCfg)
}

func TestHandleIngestTextThenListDocuments(t *testing.T) {
	s := newRAGTestServer(t)

	rec := doRequest(s, http.MethodPost, "/documents/text", ingestTextRequest{Content: "Acme Corp return policy allows 30 day returns."})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var uploaded uploadDocumentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	require.NotEmpty(t, uploaded.DocumentID)
	require.Equal(t, "queued_for_indexing", uploaded.Status)

	rec = doRequest(s, http.MethodGet, "/documents?limit=10&offset=0", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleUploadDocumentMultipart(t *testing.T) {
	s := newRAGTestServer(t)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Quarterly sales exceeded targets in every region."))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHandleDeleteDocumentNotFound(t *testing.T) {
	s := newRAGTestServer(t)
	rec := doRequest(s, http.MethodDelete, "/documents/does-not-exist", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSearchDense(t *testing.T) {
	s := newRAGTestServer(t)
	rec := doRequest(s, http.MethodPost, "/search", searchRequest{Query: "return policy", TopK: 5, SearchType: "dense"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleRAGAnswersFromLLM(t *testing.T) {
	s := newRAGTestServer(t)
	rec := doRequest(s, http.MethodPost, "/rag", ragRequest{Question: "What is the return policy?", TopK: 3, IncludeSources: true})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ragResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "grounded answer [1]", resp.Answer)
}

func TestHandleEmbeddings(t *testing.T) {
	s := newRAGTestServer(t)
	rec := doRequest(s, http.MethodPost, "/embeddings", embeddingsRequest{Texts: []string{"hello", "world"}})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp embeddingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 4, resp.Dimension)
	require.Equal(t, "test-embed", resp.Model)
	require.Len(t, resp.Embeddings, 2)
}
