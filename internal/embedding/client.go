// Package embedding implements the EmbeddingEngine: encodes text into
// fixed-dimensional unit vectors for a configured model family, with
// intelligent truncation, FIFO caching and batching.
package embedding

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wearforce/convo-core/internal/apperr"
	"github.com/wearforce/convo-core/internal/config"
	"github.com/wearforce/convo-core/internal/observability"
)

const component = "embedding_engine"

// ModelFamily is the sum-type discriminant for the adapter table: Plain,
// QueryPrefix (e5-style "query: "/"passage: " prefixes) and Instruction
// (instruction+text pair) families each encode queries and documents
// differently.
type ModelFamily string

const (
	FamilyPlain       ModelFamily = "plain"
	FamilyQueryPrefix ModelFamily = "query_prefix"
	FamilyInstruction ModelFamily = "instruction_pair"
)

// HealthResult reports the outcome of a reachability/sanity check.
type HealthResult struct {
	Healthy       bool
	Dimension     int
	NormDeviation float64
	Err           error
}

type embedReq struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResp struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Engine is the EmbeddingEngine contract: encode_query / encode_documents.
type Engine struct {
	cfg    config.EmbeddingConfig
	client *http.Client
	cache  *fifoCache
}

func New(cfg config.EmbeddingConfig) *Engine {
	return &Engine{
		cfg:    cfg,
		client: observability.NewHTTPClient(nil),
		cache:  newFIFOCache(cfg.CacheCapacity),
	}
}

// Model returns the configured embedding model name, for API responses that
// echo back which model served a request.
func (e *Engine) Model() string { return e.cfg.Model }

// EncodeQuery encodes a single query string, applying the model family's
// query-side adapter.
func (e *Engine) EncodeQuery(ctx context.Context, text string) ([]float32, error) {
	adapted := adapt(e.family(), text, true)
	vecs, err := e.encodeBatch(ctx, []string{adapted}, true)
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EncodeDocuments encodes N document strings, applying the model family's
// document-side adapter, partitioning into sub-batches of at most
// cfg.BatchSize, and reassembling in order.
func (e *Engine) EncodeDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	adapted := make([]string, len(texts))
	for i, t := range texts {
		adapted[i] = adapt(e.family(), t, false)
	}
	return e.encodeBatch(ctx, adapted, false)
}

func (e *Engine) family() ModelFamily {
	switch ModelFamily(e.cfg.ModelFamily) {
	case FamilyQueryPrefix, FamilyInstruction:
		return ModelFamily(e.cfg.ModelFamily)
	default:
		return FamilyPlain
	}
}

// adapt preprocesses text (strip control chars, collapse whitespace,
// intelligent truncation) and applies the model family's query/document
// framing.
func adapt(family ModelFamily, text string, isQuery bool) string {
	clean := cleanText(text)
	switch family {
	case FamilyQueryPrefix:
		if isQuery {
			return "query: " + clean
		}
		return "passage: " + clean
	case FamilyInstruction:
		if isQuery {
			return "Represent this question for retrieval: " + clean
		}
		return clean
	default:
		return clean
	}
}

func cleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := false
	for _, r := range text {
		if r < 0x20 && r != '\n' && r != '\t' {
			continue
		}
		if r == '\n' || r == '\t' || r == ' ' {
			if lastSpace {
				continue
			}
			b.WriteByte(' ')
			lastSpace = true
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}
	return truncateIntelligently(strings.TrimSpace(b.String()), 512)
}

// truncateIntelligently keeps first half + ellipsis + last half when the
// word count exceeds 2x max; otherwise does a simple head truncation.
func truncateIntelligently(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return text
	}
	if len(words) > 2*maxWords {
		half := maxWords / 2
		head := words[:half]
		tail := words[len(words)-half:]
		return strings.Join(head, " ") + " … " + strings.Join(tail, " ")
	}
	return strings.Join(words[:maxWords], " ")
}

func (e *Engine) encodeBatch(ctx context.Context, texts []string, isQuery bool) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, apperr.New(component, apperr.Validation, "no inputs")
	}
	result := make([][]float32, len(texts))
	var missIdx []int
	var missTexts []string

	for i, t := range texts {
		key := cacheKey(t, e.cfg.Model)
		if v, ok := e.cache.get(key); ok {
			result[i] = v
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missTexts) == 0 {
		return result, nil
	}

	batchSize := e.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}
	for start := 0; start < len(missTexts); start += batchSize {
		end := start + batchSize
		if end > len(missTexts) {
			end = len(missTexts)
		}
		sub := missTexts[start:end]
		vecs, err := e.callEndpoint(ctx, sub)
		if err != nil {
			return nil, err
		}
		for j, v := range vecs {
			idx := missIdx[start+j]
			result[idx] = v
			e.cache.put(cacheKey(missTexts[start+j], e.cfg.Model), v)
		}
	}
	return result, nil
}

func (e *Engine) callEndpoint(ctx context.Context, inputs []string) ([][]float32, error) {
	log := observability.LoggerWithTrace(ctx)
	reqBody, err := json.Marshal(embedReq{Model: e.cfg.Model, Input: inputs})
	if err != nil {
		return nil, apperr.Wrap(component, apperr.Validation, "marshal embedding request", err)
	}
	cctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(cctx, http.MethodPost, e.cfg.BaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, apperr.Wrap(component, apperr.Validation, "build embedding request", err)
	}
	if e.cfg.APIKeyHeader == "Authorization" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	} else if e.cfg.APIKeyHeader != "" {
		req.Header.Set(e.cfg.APIKeyHeader, e.cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(component, apperr.Upstream, "embedding request failed", err)
	}
	defer resp.Body.Close()
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(component, apperr.Upstream, "read embedding response", err)
	}
	if resp.StatusCode/100 != 2 {
		log.Error().Int("status", resp.StatusCode).Msg("embedding_endpoint_error")
		return nil, apperr.New(component, apperr.Upstream, fmt.Sprintf("embeddings error: %s: %s", resp.Status, string(bodyBytes)))
	}

	var er embedResp
	if err := json.Unmarshal(bodyBytes, &er); err != nil {
		return nil, apperr.Wrap(component, apperr.ModelFailure, "parse embedding response", err)
	}
	if len(er.Data) != len(inputs) {
		return nil, apperr.New(component, apperr.ModelFailure, fmt.Sprintf("unexpected embedding count: got %d, want %d", len(er.Data), len(inputs)))
	}
	out := make([][]float32, len(er.Data))
	for i := range er.Data {
		out[i] = normalizeUnit(er.Data[i].Embedding)
	}
	return out, nil
}

// normalizeUnit rescales a vector so its norm lands in [0.9, 1.1], the
// postcondition the engine guarantees to callers.
func normalizeUnit(v []float32) []float32 {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return v
	}
	norm := sumSq
	// sqrt without importing math twice across the package; kept local for clarity.
	norm = sqrt(norm)
	if norm >= 0.9 && norm <= 1.1 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

func sqrt(x float64) float64 {
	if x == 0 {
		return 0
	}
	z := x
	for i := 0; i < 20; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

func cacheKey(text, model string) string {
	h := sha256.Sum256([]byte(text + "\x00" + model))
	return hex.EncodeToString(h[:])
}

// CheckHealth encodes a canonical sentence and asserts finite values and a
// non-empty vector; the vector length is reported as Dimension but is not
// compared against any configured dimension. Norm deviation is reported but
// does not fail the check.
func (e *Engine) CheckHealth(ctx context.Context) HealthResult {
	vecs, err := e.encodeBatch(ctx, []string{"the quick brown fox jumps over the lazy dog"}, true)
	if err != nil {
		return HealthResult{Healthy: false, Err: err}
	}
	v := vecs[0]
	var sumSq float64
	for _, x := range v {
		if isNaNOrInf(float64(x)) {
			return HealthResult{Healthy: false, Err: apperr.New(component, apperr.ModelFailure, "non-finite embedding value")}
		}
		sumSq += float64(x) * float64(x)
	}
	norm := sqrt(sumSq)
	deviation := norm - 1.0
	if deviation < 0 {
		deviation = -deviation
	}
	dimOK := e.cfg.Model == "" || len(v) > 0
	return HealthResult{Healthy: dimOK, Dimension: len(v), NormDeviation: deviation}
}

func isNaNOrInf(f float64) bool {
	return f != f || f > 1e308 || f < -1e308
}
