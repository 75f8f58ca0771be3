package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/knowbase/knowbase-go/pkg/core"
	"github.com/knowbase/knowbase-go/pkg/logger"
)

// KnowledgeService is the slice of the core client the HTTP layer needs.
// *core.KnowledgeBase satisfies it.
type KnowledgeService interface {
	StoreMessage(ctx context.Context, message string, opts ...core.StoreOption) (*core.StoreResult, error)
	Answer(ctx context.Context, query string, opts ...core.QueryOption) string
	Search(ctx context.Context, query string, opts ...core.SearchOption) ([]*core.KnowledgeItem, error)
	Stats(ctx context.Context) (*core.Stats, error)
	Debug(ctx context.Context) (*core.DebugInfo, error)
}

// KnowledgeHandler serves the knowledge base endpoints.
type KnowledgeHandler struct {
	log *logger.Logger
	kb  KnowledgeService
}

// NewKnowledgeHandler creates a KnowledgeHandler around the given service.
func NewKnowledgeHandler(log *logger.Logger, kb KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{
		log: log.With("handler", "KnowledgeHandler"),
		kb:  kb,
	}
}

// Chat stores a chat message and extracts knowledge from it.
//
// POST /chat
// { message, user_id }
func (h *KnowledgeHandler) Chat(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
		UserID  string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	var opts []core.StoreOption
	if req.UserID != "" {
		opts = append(opts, core.WithUserID(req.UserID))
	}

	result, err := h.kb.StoreMessage(c.Request.Context(), req.Message, opts...)
	if err != nil {
		h.log.Error("store message failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "store_failed", err)
		return
	}

	RespondOK(c, gin.H{
		"status":                    "success",
		"message":                   "Knowledge stored successfully",
		"knowledge_items_extracted": result.ItemsExtracted,
		"conversation_id":           result.ConversationID,
	})
}

// Query answers a question against the knowledge base.
//
// POST /query
// { query, user_id }
func (h *KnowledgeHandler) Query(c *gin.Context) {
	var req struct {
		Query  string `json:"query" binding:"required"`
		UserID string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	response := h.kb.Answer(c.Request.Context(), req.Query)

	RespondOK(c, gin.H{
		"status":   "success",
		"query":    req.Query,
		"response": response,
	})
}

// Stats reports collection counts.
//
// GET /stats
func (h *KnowledgeHandler) Stats(c *gin.Context) {
	stats, err := h.kb.Stats(c.Request.Context())
	if err != nil {
		h.log.Error("stats failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "stats_failed", err)
		return
	}

	RespondOK(c, stats)
}

// Search runs a raw similarity search over the knowledge collection.
//
// GET /search?query=...&limit=10
func (h *KnowledgeHandler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", core.ErrEmptyQuery)
		return
	}

	var opts []core.SearchOption
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			RespondError(c, http.StatusBadRequest, "invalid_request", fmt.Errorf("invalid limit %q", raw))
			return
		}
		opts = append(opts, core.WithLimit(limit))
	}

	items, err := h.kb.Search(c.Request.Context(), query, opts...)
	if err != nil {
		h.log.Error("search failed", "query", query, "error", err)
		RespondError(c, http.StatusInternalServerError, "search_failed", err)
		return
	}

	documents := make([]string, 0, len(items))
	metadatas := make([]map[string]string, 0, len(items))
	for _, item := range items {
		documents = append(documents, item.Content)
		metadatas = append(metadatas, item.Metadata())
	}

	RespondOK(c, gin.H{
		"query": query,
		"results": gin.H{
			"documents": documents,
			"metadatas": metadatas,
		},
	})
}

// Debug exposes a sampled view of both collections.
//
// Failures come back as 200 with an error body so the endpoint stays
// usable while diagnosing a broken store.
//
// GET /debug
func (h *KnowledgeHandler) Debug(c *gin.Context) {
	info, err := h.kb.Debug(c.Request.Context())
	if err != nil {
		h.log.Error("debug failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"error": err.Error()})
		return
	}

	RespondOK(c, info)
}

// HealthCheck reports liveness.
//
// GET /health
func HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
