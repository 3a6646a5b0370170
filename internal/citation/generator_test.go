package citation

import (
	"context"
	"testing"
	"time"
)

func TestGenerate_ScoresDedupesReindexes(t *testing.T) {
	now := time.Now()
	candidates := []Candidate{
		{
			ID: "a", Content: "Orders ship within two business days. Returns are accepted for 30 days.",
			Source: "doc-a", BaseScore: 0.9,
			Meta: SourceMeta{Title: "Shipping policy", URL: "https://acme.gov/shipping", IndexedAt: now.Format(time.RFC3339)},
		},
		{
			// duplicate of "a" by hash (same source/snippet/title)
			ID: "a-dup", Content: "Orders ship within two business days. Returns are accepted for 30 days.",
			Source: "doc-a", BaseScore: 0.5,
			Meta: SourceMeta{Title: "Shipping policy", URL: "https://acme.gov/shipping", IndexedAt: now.Format(time.RFC3339)},
		},
		{
			ID: "b", Content: "Unrelated cooking advice about seasoning cast iron pans.",
			Source: "doc-b", BaseScore: 0.3,
			Meta: SourceMeta{Title: "Cooking tips"},
		},
	}

	out := Generate(context.Background(), "orders shipping returns", candidates, GenerateOptions{MaxSnippetLength: 100, Style: StyleSimple, Numbered: true})
	if len(out) != 2 {
		t.Fatalf("expected dedup to drop the duplicate, got %d citations", len(out))
	}
	if out[0].Index != 1 || out[1].Index != 2 {
		t.Fatalf("expected reindexing from 1, got %#v", out)
	}
	if out[0].SourceIdentifier != "doc-a" {
		t.Fatalf("expected the higher-scoring doc-a citation to rank first, got %#v", out[0])
	}
	if out[0].FormattedCitation == "" {
		t.Fatal("expected a formatted citation")
	}
}

func TestGenerate_RespectsMaxCitations(t *testing.T) {
	candidates := make([]Candidate, 5)
	for i := range candidates {
		// distinct sources keep the dedup hashes apart, so only MaxCitations bounds the output
		candidates[i] = Candidate{ID: string(rune('a' + i)), Content: "some reasonably long passage of text here.", Source: "s" + string(rune('a'+i)), BaseScore: 0.5}
	}
	out := Generate(context.Background(), "passage", candidates, GenerateOptions{MaxCitations: 2})
	if len(out) != 2 {
		t.Fatalf("expected bound to 2, got %d", len(out))
	}
}

func TestSelectSnippet_FallsBackToTruncation(t *testing.T) {
	content := "This sentence has nothing in common with the search terms at all whatsoever really."
	got := SelectSnippet(content, "zzz yyy xxx", 20)
	if len(got) > 24 { // 20 + "..."
		t.Fatalf("expected truncated snippet, got %q", got)
	}
}

func TestFormat_StylesProduceNonEmptyOutput(t *testing.T) {
	meta := SourceMeta{Title: "A Study", Author: "J. Doe", Date: "2024", URL: "https://example.com/a"}
	for _, style := range []Style{StyleAPA, StyleMLA, StyleChicago, StyleIEEE, StyleHarvard, StyleSimple} {
		if got := Format(style, 1, true, meta); got == "" {
			t.Fatalf("style %s produced empty output", style)
		}
	}
}
