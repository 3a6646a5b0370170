package indexing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"

	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/documents"
	"github.com/wearforce/convo-core/internal/embedding"
	"github.com/wearforce/convo-core/internal/persistence/databases"
	"github.com/wearforce/convo-core/internal/rag/retrieve"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

type fakeVectorStore struct {
	upserted map[string]bool
	deleted  map[string]bool
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{upserted: map[string]bool{}, deleted: map[string]bool{}}
}

func (f *fakeVectorStore) Upsert(_ context.Context, id string, _ []float32, _ map[string]string) error {
	f.upserted[id] = true
	return nil
}
func (f *fakeVectorStore) Delete(_ context.Context, id string) error {
	f.deleted[id] = true
	delete(f.upserted, id)
	return nil
}
func (f *fakeVectorStore) SimilaritySearch(context.Context, []float32, int, map[string]string) ([]databases.VectorResult, error) {
	return nil, nil
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

func newTestManager(t *testing.T) (*Manager, *fakeVectorStore) {
	t.Helper()
	rdb := newTestRedis(t)
	vec := newFakeVectorStore()
	proc := documents.NewProcessor(config.DocumentConfig{ChunkSize: 50, ChunkOverlap: 0})
	eng := newTestEmbeddingEngine(t)
	sparse := retrieve.NewSparseIndex()
	cfg := config.IndexingConfig{Workers: 2, MaxRetries: 2, JanitorInterval: 1, JobRetentionSeconds: 1, BulkBatchPacingMS: 1, QueuePollInterval: 50}
	return New(rdb, proc, eng, vec, sparse, cfg), vec
}

func waitForDoc(t *testing.T, m *Manager, docID string, status DocumentStatus, timeout time.Duration) IndexedDocument {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		doc, ok := m.Document(context.Background(), docID)
		if ok && doc.Status == status {
			return doc
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("document %s never reached status %s", docID, status)
	return IndexedDocument{}
}

func TestSubmitDocumentReachesCompleted(t *testing.T) {
	m, vec := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop(time.Second)

	err := m.SubmitDocument(ctx, "doc1", documents.Document{ID: "doc1", Format: documents.FormatPlainText, Text: "hello world this is a test document with enough words to chunk"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	doc := waitForDoc(t, m, "doc1", StatusCompleted, 2*time.Second)
	if doc.ChunkCount == 0 {
		t.Fatal("expected chunk_count > 0")
	}
	if !vec.upserted["doc1_0"] {
		t.Fatal("expected chunk doc1_0 to be upserted into the vector store")
	}
}

func TestSubmitBulkAggregatesJob(t *testing.T) {
	m, _ := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop(time.Second)

	docs := map[string]documents.Document{
		"a": {ID: "a", Format: documents.FormatPlainText, Text: "alpha bravo charlie delta echo foxtrot"},
		"b": {ID: "b", Format: documents.FormatPlainText, Text: "golf hotel india juliet kilo lima"},
	}
	jobID, err := m.SubmitBulk(ctx, docs)
	if err != nil {
		t.Fatalf("submit bulk: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := m.Job(ctx, jobID)
		if ok && job.Done() {
			if job.Status != JobCompleted {
				t.Fatalf("expected job completed, got %#v", job)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never completed")
}

func TestDeleteRemovesAllChunks(t *testing.T) {
	m, vec := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop(time.Second)

	if err := m.SubmitDocument(ctx, "doc2", documents.Document{ID: "doc2", Format: documents.FormatPlainText, Text: "one two three four five six seven eight nine ten"}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	waitForDoc(t, m, "doc2", StatusCompleted, 2*time.Second)

	if err := m.Delete(ctx, "doc2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(vec.upserted) != 0 {
		t.Fatalf("expected all chunks deleted from vector store, still have %v", vec.upserted)
	}
	if _, ok := m.Document(ctx, "doc2"); ok {
		t.Fatal("expected document registry entry to be gone after delete")
	}
}

func TestIndexingJobDoneMatchesTotal(t *testing.T) {
	job := IndexingJob{Total: 3, SuccessCount: 2, FailureCount: 1}
	if !job.Done() {
		t.Fatal("expected job to be done when success+failure == total")
	}
	job.FailureCount = 0
	if job.Done() {
		t.Fatal("expected job not done when success+failure < total")
	}
}
