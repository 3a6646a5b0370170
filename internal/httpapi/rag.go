package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wearforce/convo-core/internal/citation"
	"github.com/wearforce/convo-core/internal/documents"
	"github.com/wearforce/convo-core/internal/indexing"
	"github.com/wearforce/convo-core/internal/llm"
	"github.com/wearforce/convo-core/internal/rag/retrieve"
)

type uploadDocumentResponse struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
}

// handleUploadDocument ingests an uploaded file via multipart form, reading
// its contents through the TextLocator contract.
func (s *Server) handleUploadDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	docID := c.PostForm("id")
	if docID == "" {
		docID = uuid.NewString()
	}
	buf := make([]byte, 0, 64*1024)
	for {
		chunk := make([]byte, 32*1024)
		n, readErr := file.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if readErr != nil {
			break
		}
	}

	reader := documents.NewTextReader()
	doc, err := reader.Read(c.Request.Context(), documents.TextLocator{ID: docID, Text: string(buf)})
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	doc.SourceURI = header.Filename
	doc.Metadata = map[string]string{"filename": header.Filename}

	if err := s.idx.SubmitDocument(c.Request.Context(), docID, doc); err != nil {
		respondTypedError(c, err)
		return
	}
	respondJSON(c, http.StatusAccepted, uploadDocumentResponse{DocumentID: docID, Status: "queued_for_indexing"})
}

type ingestTextRequest struct {
	Content  string            `json:"content" binding:"required"`
	Source   string            `json:"source"`
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

// handleIngestText ingests raw text directly, without a file round trip.
func (s *Server) handleIngestText(c *gin.Context) {
	var req ingestTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	docID := req.ID
	if docID == "" {
		docID = uuid.NewString()
	}

	reader := documents.NewTextReader()
	doc, err := reader.Read(c.Request.Context(), documents.TextLocator{ID: docID, Text: req.Content})
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	doc.SourceURI = req.Source
	doc.Metadata = req.Metadata

	if err := s.idx.SubmitDocument(c.Request.Context(), docID, doc); err != nil {
		respondTypedError(c, err)
		return
	}
	respondJSON(c, http.StatusAccepted, uploadDocumentResponse{DocumentID: docID, Status: "queued_for_indexing"})
}

// handleListDocuments lists registry entries, optionally filtered by
// status, with limit/offset pagination.
func (s *Server) handleListDocuments(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	status := indexing.DocumentStatus(c.Query("status"))

	docs := s.idx.Documents(c.Request.Context(), limit, offset, status)
	respondJSON(c, http.StatusOK, gin.H{"documents": docs, "count": len(docs)})
}

// handleDeleteDocument removes every indexed chunk for a document plus its
// registry entry.
func (s *Server) handleDeleteDocument(c *gin.Context) {
	id := c.Param("id")
	if err := s.idx.Delete(c.Request.Context(), id); err != nil {
		respondTypedError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type searchRequest struct {
	Query               string            `json:"query" binding:"required"`
	TopK                int               `json:"top_k"`
	SearchType          string            `json:"search_type"`
	SimilarityThreshold float64           `json:"similarity_threshold"`
	Filters             map[string]string `json:"filters"`
	IncludeMetadata     bool              `json:"include_metadata"`
}

// handleSearch runs one of the three retrieval paths directly, without the
// orchestrator's conversational state graph wrapped around it.
func (s *Server) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.TopK <= 0 {
		req.TopK = 10
	}
	threshold := req.SimilarityThreshold
	if threshold <= 0 {
		threshold = s.retrievalCfg.ScoreThreshold
	}

	var (
		results []retrieve.SearchResult
		err     error
	)
	switch retrieve.SearchType(req.SearchType) {
	case retrieve.SearchDense:
		results, err = retrieve.Dense(c.Request.Context(), s.embed, s.vector, req.Query, req.TopK, threshold, req.Filters)
	case retrieve.SearchSparse:
		results, err = s.sparse.Search(c.Request.Context(), req.Query, req.TopK, threshold, req.Filters)
	default:
		results, err = retrieve.Hybrid(c.Request.Context(), s.embed, s.vector, s.sparse, req.Query, req.TopK, threshold, req.Filters, s.retrievalCfg)
	}
	if err != nil {
		respondTypedError(c, err)
		return
	}
	if !req.IncludeMetadata {
		for i := range results {
			results[i].Metadata = nil
		}
	}
	respondJSON(c, http.StatusOK, gin.H{"results": results, "count": len(results)})
}

type ragRequest struct {
	Question            string  `json:"question" binding:"required"`
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	Model               string  `json:"model"`
	Temperature         float64 `json:"temperature"`
	MaxTokens           int64   `json:"max_tokens"`
	IncludeSources      bool    `json:"include_sources"`
}

type ragResponse struct {
	Answer  string              `json:"answer"`
	Sources []citation.Citation `json:"sources,omitempty"`
}

// handleRAG retrieves, generates citations and asks the LLM collaborator to
// answer the question grounded on the retrieved passages. This is the
// standalone RAG endpoint, distinct from the orchestrator's own RAG routing
// step inside POST /agent.
func (s *Server) handleRAG(c *gin.Context) {
	var req ragRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.TopK <= 0 {
		req.TopK = 5
	}
	threshold := req.SimilarityThreshold
	if threshold <= 0 {
		threshold = s.retrievalCfg.ScoreThreshold
	}

	results, err := retrieve.Hybrid(c.Request.Context(), s.embed, s.vector, s.sparse, req.Question, req.TopK, threshold, nil, s.retrievalCfg)
	if err != nil {
		respondTypedError(c, err)
		return
	}

	candidates := make([]citation.Candidate, len(results))
	for i, r := range results {
		candidates[i] = citation.Candidate{
			ID: r.ID, Content: r.Text, Source: r.Metadata["source"], BaseScore: r.Score,
			Meta: citation.SourceMeta{Title: r.Metadata["title"]},
		}
	}
	citations := citation.Generate(c.Request.Context(), req.Question, candidates, citation.GenerateOptions{MaxCitations: req.TopK})

	model := req.Model
	if model == "" {
		model = s.llmCfg.Model
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = s.llmCfg.Temperature
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = s.llmCfg.MaxTokens
	}

	answer, err := s.answerFromCitations(c.Request.Context(), req.Question, citations, model, temperature, maxTokens)
	if err != nil {
		respondTypedError(c, err)
		return
	}

	resp := ragResponse{Answer: answer}
	if req.IncludeSources {
		resp.Sources = citations
	}
	respondJSON(c, http.StatusOK, resp)
}

func (s *Server) answerFromCitations(ctx context.Context, question string, citations []citation.Citation, model string, temperature float64, maxTokens int64) (string, error) {
	var passages string
	for i, c := range citations {
		passages += fmt.Sprintf("[%d] %s\n", i+1, c.ContentSnippet)
	}
	messages := []llm.Message{
		{Role: "system", Content: "Answer the question using only the numbered passages below. Cite passages by number."},
		{Role: "user", Content: fmt.Sprintf("Passages:\n%s\nQuestion: %s", passages, question)},
	}
	msg, err := s.llmProvider.Chat(ctx, llm.ChatRequest{Messages: messages, Model: model, Temperature: temperature, MaxTokens: maxTokens})
	if err != nil {
		return "", err
	}
	return msg.Content, nil
}

type embeddingsRequest struct {
	Texts []string `json:"texts" binding:"required"`
}

type embeddingsResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Model      string      `json:"model"`
	Dimension  int         `json:"dimension"`
}

func (s *Server) handleEmbeddings(c *gin.Context) {
	var req embeddingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	vecs, err := s.embed.EncodeDocuments(c.Request.Context(), req.Texts)
	if err != nil {
		respondTypedError(c, err)
		return
	}
	dim := 0
	if len(vecs) > 0 {
		dim = len(vecs[0])
	}
	respondJSON(c, http.StatusOK, embeddingsResponse{Embeddings: vecs, Model: s.embed.Model(), Dimension: dim})
}
