package citation

import (
	"context"
	"sort"
	"time"
)

// GenerateOptions bounds and formats a citation batch.
type GenerateOptions struct {
	MaxCitations     int
	MaxSnippetLength int
	Style            Style
	Numbered         bool
}

// Generate scores, snippets, dedupes, bounds and formats candidates into a
// final Citation list, reindexed from 1 after deduplication.
func Generate(ctx context.Context, query string, candidates []Candidate, opts GenerateOptions) []Citation {
	_ = ctx
	if opts.MaxSnippetLength <= 0 {
		opts.MaxSnippetLength = 280
	}
	if opts.Style == "" {
		opts.Style = StyleSimple
	}
	now := time.Now()

	citations := make([]Citation, 0, len(candidates))
	for _, c := range candidates {
		relevance := EnhancedScore(query, c, now)
		snippet := SelectSnippet(c.Content, query, opts.MaxSnippetLength)
		citations = append(citations, Citation{
			ID:               c.ID,
			ContentSnippet:   snippet,
			SourceIdentifier: c.Source,
			RelevanceScore:   relevance,
			ConfidenceScore:  clamp01(c.BaseScore),
			Metadata:         c.Meta,
			DedupHash:        dedupHash(c.Source, snippet, c.Meta.Title),
		})
	}

	sort.SliceStable(citations, func(i, j int) bool {
		return citations[i].RelevanceScore > citations[j].RelevanceScore
	})

	citations = dedupe(citations)

	if opts.MaxCitations > 0 && len(citations) > opts.MaxCitations {
		citations = citations[:opts.MaxCitations]
	}

	for i := range citations {
		citations[i].Index = i + 1
		citations[i].FormattedCitation = Format(opts.Style, citations[i].Index, opts.Numbered, citations[i].Metadata)
	}
	return citations
}
