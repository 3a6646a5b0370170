// Package retrieve implements HybridSearch: dense (vector KNN), sparse
// (BM25-like over an in-process inverted index) and hybrid retrieval,
// fusing both by weighted-sum plus reciprocal-rank fusion.
package retrieve

// SearchType selects which retrieval path to run.
type SearchType string

const (
	SearchDense  SearchType = "dense"
	SearchSparse SearchType = "sparse"
	SearchHybrid SearchType = "hybrid"
)

// SearchResult is one hit from any of the three retrieval paths. Metadata
// always carries whatever was indexed alongside the chunk; hybrid results
// additionally set dense_score/dense_rank/sparse_score/sparse_rank/fusion_type.
type SearchResult struct {
	ID       string
	Score    float64
	Snippet  string
	Text     string
	Metadata map[string]string
}

// Params bundles one search call's parameters, matching the C4 contract:
// search(query, top_k, type, threshold, filters).
type Params struct {
	Query     string
	TopK      int
	Type      SearchType
	Threshold float64
	Filters   map[string]string
}
