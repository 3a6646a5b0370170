package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wearforce/convo-core/internal/config"
)

func vecResponse(dim int) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req embedReq
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

func TestEngine_EncodeQuery_AuthorizationHeader(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("expected Authorization header, got %q", got)
		}
		vecResponse(4)(w, r)
	}))
	defer ts.Close()

	cfg := config.EmbeddingConfig{BaseURL: ts.URL, Model: "m", APIKeyHeader: "Authorization", APIKey: "secret", BatchSize: 8, CacheCapacity: 100}
	e := New(cfg)
	v, err := e.EncodeQuery(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v) != 4 {
		t.Fatalf("expected dim 4, got %d", len(v))
	}
}

func TestEngine_EncodeDocuments_BatchingAndCache(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		vecResponse(3)(w, r)
	}))
	defer ts.Close()

	cfg := config.EmbeddingConfig{BaseURL: ts.URL, Model: "m", BatchSize: 2, CacheCapacity: 100}
	e := New(cfg)
	texts := []string{"a", "b", "c"}
	vecs, err := e.EncodeDocuments(context.Background(), texts)
	if err != nil {
		t.Fatalf("encode documents: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vecs))
	}
	if calls != 2 {
		t.Fatalf("expected 2 batched calls (batch size 2 over 3 inputs), got %d", calls)
	}

	callsBefore := calls
	if _, err := e.EncodeDocuments(context.Background(), []string{"a"}); err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if calls != callsBefore {
		t.Fatalf("expected cache hit to avoid a new call, calls went from %d to %d", callsBefore, calls)
	}
}

func TestTruncateIntelligently_KeepsHeadAndTail(t *testing.T) {
	words := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		words = append(words, "w")
	}
	out := truncateIntelligently(joinWords(words), 5)
	if out == joinWords(words) {
		t.Fatalf("expected truncation to occur")
	}
}

func joinWords(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}

func TestCheckHealth_ReportsDimension(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(vecResponse(6)))
	defer ts.Close()
	cfg := config.EmbeddingConfig{BaseURL: ts.URL, Model: "m", BatchSize: 8, CacheCapacity: 10}
	e := New(cfg)
	res := e.CheckHealth(context.Background())
	if !res.Healthy || res.Dimension != 6 {
		t.Fatalf("unexpected health result: %#v", res)
	}
}
