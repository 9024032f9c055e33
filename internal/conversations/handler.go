package conversations

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"support-backend/internal/shared/server/respond"
)

// Scheduler enqueues deferred analysis work for a conversation.
type Scheduler interface {
	ScheduleConversationAnalysis(conversationID string, delay time.Duration) (string, error)
}

// Handler serves conversation endpoints.
type Handler struct {
	Repo      Repo
	Scheduler Scheduler
}

type createRequest struct {
	UserID string `json:"userId"`
	Title  string `json:"title"`
}

// Create handles POST /api/v1/conversations.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "request body must be valid JSON", nil)
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "userId is required", nil)
		return
	}

	now := time.Now().UTC()
	conv := Conversation{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		Title:     strings.TrimSpace(req.Title),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Repo.Create(c.Request.Context(), conv); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create conversation", nil)
		return
	}
	c.Set("conversationId", conv.ID)
	respond.Created(c, conv)
}

// Get handles GET /api/v1/conversations/:id.
func (h *Handler) Get(c *gin.Context) {
	conv, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "conversation not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load conversation", nil)
		return
	}
	respond.JSON(c, http.StatusOK, conv)
}

// Analyze handles POST /api/v1/conversations/:id/analyze. It schedules an
// immediate analysis job for the conversation.
func (h *Handler) Analyze(c *gin.Context) {
	conversationID := c.Param("id")
	if _, err := h.Repo.GetByID(c.Request.Context(), conversationID); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "conversation not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load conversation", nil)
		return
	}

	jobID, err := h.Scheduler.ScheduleConversationAnalysis(conversationID, 0)
	if err != nil {
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "failed to schedule analysis", nil)
		return
	}
	c.Set("conversationId", conversationID)
	c.Set("jobId", jobID)
	respond.Accepted(c, gin.H{
		"conversationId": conversationID,
		"jobId":          jobID,
		"status":         "scheduled",
	})
}
