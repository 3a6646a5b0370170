package retrieve

import (
	"context"
	"testing"
)

func TestSparseIndex_UpsertSearchDelete(t *testing.T) {
	idx := NewSparseIndex()
	idx.Upsert("doc1", "the quick brown fox jumps over the lazy dog", map[string]string{"source": "a"})
	idx.Upsert("doc2", "completely unrelated text about cooking recipes", nil)

	ctx := context.Background()
	results, err := idx.Search(ctx, "quick fox", 10, 0, nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "doc1" {
		t.Fatalf("unexpected results: %#v", results)
	}

	idx.Delete("doc1")
	results, err = idx.Search(ctx, "quick fox", 10, 0, nil)
	if err != nil {
		t.Fatalf("search after delete: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results after delete, got %#v", results)
	}
}

func TestSparseIndex_FiltersAndThreshold(t *testing.T) {
	idx := NewSparseIndex()
	idx.Upsert("doc1", "order status shipped today", map[string]string{"tenant": "acme"})
	idx.Upsert("doc2", "order status shipped today", map[string]string{"tenant": "other"})

	ctx := context.Background()
	results, err := idx.Search(ctx, "order shipped", 10, 0, map[string]string{"tenant": "acme"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].ID != "doc1" {
		t.Fatalf("filter did not narrow results: %#v", results)
	}

	results, err = idx.Search(ctx, "order shipped", 10, 1000, nil)
	if err != nil {
		t.Fatalf("search with high threshold: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected threshold to exclude all results, got %#v", results)
	}
}

func TestTokenize_DropsShortAndStopWords(t *testing.T) {
	got := tokenize("The Quick Fox is at a Big House")
	want := map[string]bool{"quick": true, "fox": true, "big": true, "house": true}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for _, g := range got {
		if !want[g] {
			t.Fatalf("unexpected token %q in %v", g, got)
		}
	}
}
