package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wearforce/convo-core/internal/conversation"
	"github.com/wearforce/convo-core/internal/nlu/entity"
	"github.com/wearforce/convo-core/internal/nlu/intent"
	"github.com/wearforce/convo-core/internal/orchestrator"
)

type nluRequest struct {
	Text            string `json:"text" binding:"required"`
	Language        string `json:"language"`
	ClassifyIntent  bool   `json:"classify_intent"`
	ExtractEntities bool   `json:"extract_entities"`
	ConversationID  string `json:"conversation_id"`
}

type nluResponse struct {
	Text           string          `json:"text"`
	Language       string          `json:"language"`
	Intent         *intent.Intent  `json:"intent,omitempty"`
	Entities       []entity.Entity `json:"entities"`
	ConversationID string          `json:"conversation_id,omitempty"`
	ProcessingTime time.Duration   `json:"processing_time"`
}

// handleNLU runs intent classification and/or entity extraction standalone,
// without the full orchestrator state graph.
func (s *Server) handleNLU(c *gin.Context) {
	var req nluRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Language == "" {
		req.Language = "en"
	}
	start := time.Now()
	resp := nluResponse{Text: req.Text, Language: req.Language, ConversationID: req.ConversationID, Entities: []entity.Entity{}}

	if req.ClassifyIntent {
		if result, err := s.orc.ClassifyIntent(req.Text); err == nil {
			resp.Intent = result
		}
	}
	if req.ExtractEntities {
		if ents, err := s.orc.ExtractEntities(req.Text); err == nil {
			resp.Entities = ents
		}
	}
	resp.ProcessingTime = time.Since(start)
	respondJSON(c, http.StatusOK, resp)
}

type agentRequest struct {
	Text           string         `json:"text" binding:"required"`
	ConversationID string         `json:"conversation_id"`
	UserID         string         `json:"user_id"`
	Context        map[string]any `json:"context"`
}

func (req agentRequest) toOrchestratorRequest() orchestrator.Request {
	id := req.ConversationID
	if id == "" {
		id = uuid.NewString()
	}
	return orchestrator.Request{Text: req.Text, ConversationID: id, UserID: req.UserID, Context: req.Context}
}

// handleAgent runs one request through the full orchestrator state graph.
func (s *Server) handleAgent(c *gin.Context) {
	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	resp, err := s.orc.Process(c.Request.Context(), req.toOrchestratorRequest())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondJSON(c, http.StatusOK, resp)
}

// handleAgentStream runs the same request but streams WorkflowFrames as an
// SSE frame sequence, terminated by the conventional "[DONE]" sentinel.
func (s *Server) handleAgentStream(c *gin.Context) {
	var req agentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	frames := s.orc.Stream(c.Request.Context(), req.toOrchestratorRequest())
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		frame, ok := <-frames
		if !ok {
			fmt.Fprint(w, "data: [DONE]\n\n")
			return false
		}
		b, err := json.Marshal(frame)
		if err != nil {
			return false
		}
		fmt.Fprintf(w, "data: %s\n\n", b)
		return true
	})
}

type conversationView struct {
	Summary conversation.Summary   `json:"summary"`
	History []conversation.Message `json:"history"`
}

// handleGetConversation returns the conversation's analytics summary plus
// recent history.
func (s *Server) handleGetConversation(c *gin.Context) {
	id := c.Param("id")
	convos := s.orc.Conversations()
	summary, err := convos.GetSummary(id)
	if err != nil {
		respondError(c, http.StatusNotFound, err)
		return
	}
	history, err := convos.GetHistory(c.Request.Context(), id, 50)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondJSON(c, http.StatusOK, conversationView{Summary: summary, History: history})
}

type postMessageRequest struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

func (s *Server) handlePostConversationMessage(c *gin.Context) {
	id := c.Param("id")
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	msg, err := s.orc.Conversations().AddMessage(c.Request.Context(), id, req.Role, req.Content, conversation.MessageOptions{})
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	respondJSON(c, http.StatusCreated, msg)
}

func (s *Server) handleDeleteConversation(c *gin.Context) {
	id := c.Param("id")
	if err := s.orc.Conversations().Delete(c.Request.Context(), id); err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleListTools(c *gin.Context) {
	respondJSON(c, http.StatusOK, gin.H{"tools": s.orc.Tools()})
}

type executeToolRequest struct {
	ToolName       string         `json:"tool_name" binding:"required"`
	Parameters     map[string]any `json:"parameters"`
	ConversationID string         `json:"conversation_id"`
}

func (s *Server) handleExecuteTool(c *gin.Context) {
	var req executeToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	result, err := s.orc.ExecuteTool(c.Request.Context(), req.ToolName, req.Parameters, req.ConversationID)
	if err != nil {
		respondTypedError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"result": result})
}

func (s *Server) handleListIntents(c *gin.Context) {
	respondJSON(c, http.StatusOK, gin.H{"intents": s.orc.Intents()})
}

func (s *Server) handleListEntityLabels(c *gin.Context) {
	respondJSON(c, http.StatusOK, gin.H{"labels": s.orc.EntityLabels()})
}

func (s *Server) handleStats(c *gin.Context) {
	respondJSON(c, http.StatusOK, gin.H{
		"intent_stats":         s.orc.IntentStats(),
		"active_conversations": len(s.orc.Conversations().GetActive()),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	health := s.embed.CheckHealth(c.Request.Context())
	toolsOK := s.orc.ToolHealth(c.Request.Context())
	status := http.StatusOK
	if !health.Healthy || !toolsOK {
		status = http.StatusServiceUnavailable
	}
	respondJSON(c, status, gin.H{
		"status":    statusString(status),
		"embedding": health,
		"tools":     toolsOK,
	})
}

func statusString(code int) string {
	if code == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
