package retrieve

import (
	"context"
	"sort"
	"sync"

	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/embedding"
	"github.com/wearforce/convo-core/internal/observability"
	"github.com/wearforce/convo-core/internal/persistence/databases"
)

const rrfK = 60
const rrfWeight = 0.1

// Hybrid runs dense and sparse concurrently with an expansion factor of 3x
// topK and a relaxed threshold of 0.6x, normalizes each set by its own max
// score, fuses by weighted-sum plus reciprocal-rank fusion, filters by the
// original threshold and returns the top topK.
func Hybrid(ctx context.Context, eng *embedding.Engine, store databases.VectorStore, sparse *SparseIndex, query string, topK int, threshold float64, filters map[string]string, cfg config.RetrievalConfig) ([]SearchResult, error) {
	log := observability.LoggerWithTrace(ctx)
	expanded := topK * cfg.ExpansionFactor
	if expanded <= 0 {
		expanded = topK * 3
	}
	relaxed := threshold * 0.6

	var denseRes, sparseRes []SearchResult
	var denseErr, sparseErr error
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		denseRes, denseErr = Dense(ctx, eng, store, query, expanded, relaxed, filters)
	}()
	go func() {
		defer wg.Done()
		sparseRes, sparseErr = sparse.Search(ctx, query, expanded, relaxed, filters)
	}()
	wg.Wait()

	if denseErr != nil {
		log.Warn().Err(denseErr).Msg("hybrid_search_dense_branch_failed")
		denseRes = nil
	}
	if sparseErr != nil {
		log.Warn().Err(sparseErr).Msg("hybrid_search_sparse_branch_failed")
		sparseRes = nil
	}
	if denseErr != nil && sparseErr != nil {
		log.Error().Msg("hybrid_search_both_branches_failed")
		return nil, nil
	}

	denseNorm, denseRank := normalizeAndRank(denseRes)
	sparseNorm, sparseRank := normalizeAndRank(sparseRes)

	ids := map[string]struct{}{}
	byID := map[string]SearchResult{}
	for _, r := range denseRes {
		ids[r.ID] = struct{}{}
		byID[r.ID] = r
	}
	for _, r := range sparseRes {
		ids[r.ID] = struct{}{}
		if _, ok := byID[r.ID]; !ok {
			byID[r.ID] = r
		}
	}

	fused := make([]SearchResult, 0, len(ids))
	for id := range ids {
		d := denseNorm[id]
		sp := sparseNorm[id]
		var rrf float64
		if rank, ok := denseRank[id]; ok {
			rrf += 1.0 / float64(rrfK+rank)
		}
		if rank, ok := sparseRank[id]; ok {
			rrf += 1.0 / float64(rrfK+rank)
		}
		score := cfg.DenseWeight*d + cfg.SparseWeight*sp + rrfWeight*rrf
		if score < threshold {
			continue
		}
		r := byID[id]
		r.Score = score
		meta := copyMetadata(r.Metadata)
		if rank, ok := denseRank[id]; ok {
			meta["dense_score"] = formatFloat(d)
			meta["dense_rank"] = formatInt(rank)
		}
		if rank, ok := sparseRank[id]; ok {
			meta["sparse_score"] = formatFloat(sp)
			meta["sparse_rank"] = formatInt(rank)
		}
		meta["fusion_type"] = fusionType(denseRank, sparseRank, id)
		r.Metadata = meta
		fused = append(fused, r)
	}

	sort.Slice(fused, func(i, j int) bool {
		if fused[i].Score != fused[j].Score {
			return fused[i].Score > fused[j].Score
		}
		return fused[i].ID < fused[j].ID
	})
	if topK > 0 && len(fused) > topK {
		fused = fused[:topK]
	}
	return fused, nil
}

// normalizeAndRank divides each result's score by the set's max (the
// normalization step) and returns 1-based ranks keyed by ID.
func normalizeAndRank(results []SearchResult) (norm map[string]float64, rank map[string]int) {
	norm = make(map[string]float64, len(results))
	rank = make(map[string]int, len(results))
	if len(results) == 0 {
		return norm, rank
	}
	max := results[0].Score
	for _, r := range results {
		if r.Score > max {
			max = r.Score
		}
	}
	if max == 0 {
		max = 1
	}
	for i, r := range results {
		norm[r.ID] = r.Score / max
		rank[r.ID] = i + 1
	}
	return norm, rank
}

func fusionType(denseRank, sparseRank map[string]int, id string) string {
	_, d := denseRank[id]
	_, s := sparseRank[id]
	switch {
	case d && s:
		return "dense_sparse"
	case d:
		return "dense_only"
	default:
		return "sparse_only"
	}
}

func copyMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}
