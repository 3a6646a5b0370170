package retrieve

import (
	"context"

	"github.com/wearforce/convo-core/internal/apperr"
	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/embedding"
	"github.com/wearforce/convo-core/internal/persistence/databases"
)

// HybridSearch is C4: the single entry point search(query, top_k, type,
// threshold, filters) dispatches to the dense, sparse or hybrid path.
type HybridSearch struct {
	embedding *embedding.Engine
	vector    databases.VectorStore
	sparse    *SparseIndex
	cfg       config.RetrievalConfig
}

func NewHybridSearch(eng *embedding.Engine, vector databases.VectorStore, sparse *SparseIndex, cfg config.RetrievalConfig) *HybridSearch {
	return &HybridSearch{embedding: eng, vector: vector, sparse: sparse, cfg: cfg}
}

func (h *HybridSearch) Search(ctx context.Context, p Params) ([]SearchResult, error) {
	if p.TopK <= 0 {
		p.TopK = 10
	}
	switch p.Type {
	case SearchDense:
		return Dense(ctx, h.embedding, h.vector, p.Query, p.TopK, p.Threshold, p.Filters)
	case SearchSparse:
		return h.sparse.Search(ctx, p.Query, p.TopK, p.Threshold, p.Filters)
	case SearchHybrid, "":
		return Hybrid(ctx, h.embedding, h.vector, h.sparse, p.Query, p.TopK, p.Threshold, p.Filters, h.cfg)
	default:
		return nil, apperr.New(component, apperr.Validation, "unknown search type: "+string(p.Type))
	}
}
