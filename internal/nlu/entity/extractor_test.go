package entity

import "testing"

func TestExtractGenericAndBusiness(t *testing.T) {
	ex := New(nil, DefaultBusinessPatterns(), 0.5)
	entities, err := ex.Extract("Contact john@acme.com about order ORD-123456 due by 12/31/2023")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	labels := map[string]bool{}
	for _, e := range entities {
		labels[e.Label] = true
	}
	if !labels["EMAIL"] {
		t.Fatalf("expected EMAIL entity, got %#v", entities)
	}
	if !labels["ORDER_ID"] {
		t.Fatalf("expected ORDER_ID entity, got %#v", entities)
	}
}

func TestExtractDropsPureDigitsUnlessBusinessID(t *testing.T) {
	ex := New(nil, nil, 0.5)
	entities, err := ex.Extract("call me at 12345")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	for _, e := range entities {
		if e.Text == "12345" {
			t.Fatalf("expected pure-digit entity to be filtered, got %#v", e)
		}
	}
}

func TestMergeOverlappingKeepsHigherConfidence(t *testing.T) {
	merged := mergeOverlapping([]Entity{
		{Text: "ORD-123456", Label: "ORDER_ID", Start: 0, End: 10, Confidence: 0.85},
		{Text: "123456", Label: "NUMBER", Start: 4, End: 10, Confidence: 0.5},
	})
	if len(merged) != 1 {
		t.Fatalf("expected overlap to collapse to 1 entity, got %d", len(merged))
	}
	if merged[0].Label != "ORDER_ID" {
		t.Fatalf("expected higher-confidence entity to win, got %#v", merged[0])
	}
}

func TestMergeOverlappingResolvesTripleOverlapChain(t *testing.T) {
	// A-B overlap and B-C overlap, but A and C do not. B wins the highest
	// confidence, so A and C must both be dropped rather than B leaving C
	// (or A) as a leftover overlap in the output.
	merged := mergeOverlapping([]Entity{
		{Text: "A", Label: "A", Start: 0, End: 10, Confidence: 0.6},
		{Text: "B", Label: "B", Start: 5, End: 15, Confidence: 0.95},
		{Text: "C", Label: "C", Start: 12, End: 20, Confidence: 0.7},
	})
	if len(merged) != 1 {
		t.Fatalf("expected chain overlap to collapse to 1 entity, got %#v", merged)
	}
	if merged[0].Label != "B" {
		t.Fatalf("expected highest-confidence entity to win, got %#v", merged[0])
	}
	for i := 1; i < len(merged); i++ {
		if spansOverlap(merged[i-1], merged[i]) {
			t.Fatalf("merged output still contains overlapping spans: %#v", merged)
		}
	}
}

type stubNER struct{ entities []Entity }

func (s stubNER) Recognize(string) ([]Entity, error) { return s.entities, nil }

func TestModelNERConfidenceBoost(t *testing.T) {
	ex := New(stubNER{entities: []Entity{{Text: "Acme Corp", Label: "ORG", Start: 0, End: 9}}}, nil, 0.5)
	entities, err := ex.Extract("Acme Corp signed the deal")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	found := false
	for _, e := range entities {
		if e.Label == "ORG" {
			found = true
			if e.Confidence < 0.9 {
				t.Fatalf("expected boosted ORG confidence, got %f", e.Confidence)
			}
		}
	}
	if !found {
		t.Fatal("expected ORG entity from model NER")
	}
}
