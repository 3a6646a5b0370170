package retrieve

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
)

const (
	bm25K1 = 1.2
	bm25B  = 0.75

	// maxIndexedDocs bounds the in-process inverted index; beyond this scale
	// a dedicated sparse index (Elasticsearch, tantivy, pg_trgm) belongs here
	// instead. Flagged in spec as an open question; this is the documented
	// ceiling rather than a guessed production design.
	maxIndexedDocs = 10000
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "have": {}, "had": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {}, "or": {}, "that": {},
	"the": {}, "their": {}, "they": {}, "this": {}, "to": {}, "was": {}, "were": {},
	"what": {}, "when": {}, "where": {}, "which": {}, "who": {}, "will": {}, "with": {},
}

// tokenize lower-cases, drops tokens shorter than 3 runes, and removes
// stop words.
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 3 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

type posting struct {
	docID string
	freq  int
}

// SparseIndex is a bounded in-process inverted index, rebuilt incrementally
// on Upsert/Delete.
type SparseIndex struct {
	mu       sync.RWMutex
	postings map[string][]posting
	docLen   map[string]int
	docText  map[string]string
	docMeta  map[string]map[string]string
	totalLen int
}

func NewSparseIndex() *SparseIndex {
	return &SparseIndex{
		postings: make(map[string][]posting),
		docLen:   make(map[string]int),
		docText:  make(map[string]string),
		docMeta:  make(map[string]map[string]string),
	}
}

// Upsert (re)indexes a document, first removing any prior posting entries
// for its ID.
func (s *SparseIndex) Upsert(id, text string, metadata map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
	if len(s.docLen) >= maxIndexedDocs {
		return
	}
	tokens := tokenize(text)
	freq := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	for term, n := range freq {
		s.postings[term] = append(s.postings[term], posting{docID: id, freq: n})
	}
	s.docLen[id] = len(tokens)
	s.docText[id] = text
	s.docMeta[id] = metadata
	s.totalLen += len(tokens)
}

// Delete removes a document from the index.
func (s *SparseIndex) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

func (s *SparseIndex) removeLocked(id string) {
	if _, ok := s.docLen[id]; !ok {
		return
	}
	s.totalLen -= s.docLen[id]
	delete(s.docLen, id)
	delete(s.docText, id)
	delete(s.docMeta, id)
	for term, plist := range s.postings {
		filtered := plist[:0]
		for _, p := range plist {
			if p.docID != id {
				filtered = append(filtered, p)
			}
		}
		if len(filtered) == 0 {
			delete(s.postings, term)
		} else {
			s.postings[term] = filtered
		}
	}
}

// Search scores candidate documents with BM25 and returns those scoring at
// least threshold, sorted by descending score.
func (s *SparseIndex) Search(_ context.Context, query string, topK int, threshold float64, filters map[string]string) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.docLen)
	if n == 0 {
		return nil, nil
	}
	avgDocLen := float64(s.totalLen) / float64(n)
	if avgDocLen == 0 {
		avgDocLen = 1
	}

	terms := tokenize(query)
	scores := make(map[string]float64)
	for _, term := range terms {
		plist := s.postings[term]
		if len(plist) == 0 {
			continue
		}
		idf := math.Log(1 + (float64(n)-float64(len(plist))+0.5)/(float64(len(plist))+0.5))
		for _, p := range plist {
			dl := float64(s.docLen[p.docID])
			tf := float64(p.freq)
			denom := tf + bm25K1*(1-bm25B+bm25B*dl/avgDocLen)
			scores[p.docID] += idf * (tf * (bm25K1 + 1)) / denom
		}
	}

	out := make([]SearchResult, 0, len(scores))
	for id, score := range scores {
		if score < threshold {
			continue
		}
		if !matchesFilters(s.docMeta[id], filters) {
			continue
		}
		out = append(out, SearchResult{ID: id, Score: score, Text: s.docText[id], Metadata: s.docMeta[id]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

func matchesFilters(metadata map[string]string, filters map[string]string) bool {
	for k, v := range filters {
		if metadata == nil || metadata[k] != v {
			return false
		}
	}
	return true
}
