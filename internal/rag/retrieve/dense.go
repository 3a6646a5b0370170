package retrieve

import (
	"context"

	"github.com/wearforce/convo-core/internal/apperr"
	"github.com/wearforce/convo-core/internal/embedding"
	"github.com/wearforce/convo-core/internal/persistence/databases"
)

const component = "hybrid_search"

// Dense encodes query and runs a vector KNN search against store, keeping
// only hits scoring at least threshold.
func Dense(ctx context.Context, eng *embedding.Engine, store databases.VectorStore, query string, k int, threshold float64, filters map[string]string) ([]SearchResult, error) {
	vec, err := eng.EncodeQuery(ctx, query)
	if err != nil {
		return nil, apperr.Wrap(component, apperr.Upstream, "encode query", err)
	}
	hits, err := store.SimilaritySearch(ctx, vec, k, filters)
	if err != nil {
		return nil, apperr.Wrap(component, apperr.Upstream, "vector similarity search", err)
	}
	out := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		if h.Score < threshold {
			continue
		}
		out = append(out, SearchResult{ID: h.ID, Score: h.Score, Metadata: h.Metadata})
	}
	return out, nil
}
