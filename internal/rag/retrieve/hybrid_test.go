package retrieve

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/embedding"
	"github.com/wearforce/convo-core/internal/persistence/databases"
)

type fakeVectorStore struct {
	results []databases.VectorResult
}

func (f *fakeVectorStore) Upsert(context.Context, string, []float32, map[string]string) error { return nil }
func (f *fakeVectorStore) Delete(context.Context, string) error                               { return nil }
func (f *fakeVectorStore) SimilaritySearch(context.Context, []float32, int, map[string]string) ([]databases.VectorResult, error) {
	return f.results, nil
}

func newTestEmbeddingEngine(t *testing.T) *embedding.Engine {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		data := make([]map[string]any, len(req.Input))
		for i := range data {
			data[i] = map[string]any{"embedding": []float32{1, 0, 0}}
		}
		b, _ := json.Marshal(map[string]any{"data": data})
		_, _ = w.Write(b)
	}))
	t.Cleanup(ts.Close)
	return embedding.New(config.EmbeddingConfig{BaseURL: ts.URL, Model: "m", BatchSize: 8, CacheCapacity: 10})
}

func TestHybrid_FusesDenseAndSparse(t *testing.T) {
	eng := newTestEmbeddingEngine(t)
	vec := &fakeVectorStore{results: []databases.VectorResult{
		{ID: "doc1", Score: 0.9, Metadata: map[string]string{"title": "doc1"}},
		{ID: "doc2", Score: 0.5, Metadata: map[string]string{"title": "doc2"}},
	}}
	sparse := NewSparseIndex()
	sparse.Upsert("doc1", "order status shipped today", map[string]string{"title": "doc1"})
	sparse.Upsert("doc3", "completely unrelated cooking text", nil)

	cfg := config.RetrievalConfig{DenseWeight: 0.6, SparseWeight: 0.4, RRFK: 60, ExpansionFactor: 3}
	results, err := Hybrid(context.Background(), eng, vec, sparse, "order status", 10, 0, nil, cfg)
	if err != nil {
		t.Fatalf("hybrid: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected fused results")
	}
	if results[0].ID != "doc1" {
		t.Fatalf("expected doc1 (present in both branches) to rank first, got %#v", results)
	}
	if results[0].Metadata["fusion_type"] != "dense_sparse" {
		t.Fatalf("expected fusion_type dense_sparse for doc1, got %#v", results[0].Metadata)
	}
	for _, r := range results {
		if r.ID == "doc2" && r.Metadata["fusion_type"] != "dense_only" {
			t.Fatalf("expected doc2 fusion_type dense_only, got %#v", r.Metadata)
		}
	}
}

func TestHybridSearch_Dispatch(t *testing.T) {
	eng := newTestEmbeddingEngine(t)
	vec := &fakeVectorStore{results: []databases.VectorResult{{ID: "doc1", Score: 0.9}}}
	sparse := NewSparseIndex()
	sparse.Upsert("doc1", "hello world", nil)
	cfg := config.RetrievalConfig{DenseWeight: 0.6, SparseWeight: 0.4, RRFK: 60, ExpansionFactor: 3}
	hs := NewHybridSearch(eng, vec, sparse, cfg)

	if _, err := hs.Search(context.Background(), Params{Query: "hello", TopK: 5, Type: SearchDense}); err != nil {
		t.Fatalf("dense dispatch: %v", err)
	}
	if _, err := hs.Search(context.Background(), Params{Query: "hello", TopK: 5, Type: SearchSparse}); err != nil {
		t.Fatalf("sparse dispatch: %v", err)
	}
	if _, err := hs.Search(context.Background(), Params{Query: "hello", TopK: 5, Type: "bogus"}); err == nil {
		t.Fatal("expected error for unknown search type")
	}
}
