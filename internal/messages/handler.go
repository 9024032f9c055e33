package messages

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"support-backend/internal/conversations"
	"support-backend/internal/shared/server/respond"
)

// Handler serves message endpoints.
type Handler struct {
	Service   *Service
	Repo      Repo
	Scheduler Scheduler
}

type createRequest struct {
	ConversationID string `json:"conversationId"`
	SenderType     string `json:"senderType"`
	Content        string `json:"content"`
}

// Create handles POST /api/v1/messages.
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "request body must be valid JSON", nil)
		return
	}
	if req.ConversationID == "" {
		respond.Error(c, http.StatusBadRequest, "invalid_request", "conversationId is required", nil)
		return
	}

	msg, err := h.Service.Create(c.Request.Context(), req.ConversationID, req.SenderType, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, conversations.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "conversation not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create message", nil)
		}
		return
	}
	c.Set("messageId", msg.ID)
	c.Set("conversationId", msg.ConversationID)
	respond.Created(c, msg)
}

// Get handles GET /api/v1/messages/:id.
func (h *Handler) Get(c *gin.Context) {
	msg, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "message not found", nil)
		return
	}
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load message", nil)
		return
	}
	respond.JSON(c, http.StatusOK, msg)
}

// ListByConversation handles GET /api/v1/conversations/:id/messages.
func (h *Handler) ListByConversation(c *gin.Context) {
	msgs, err := h.Repo.ListByConversation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list messages", nil)
		return
	}
	if msgs == nil {
		msgs = []Message{}
	}
	respond.JSON(c, http.StatusOK, gin.H{"messages": msgs, "count": len(msgs)})
}

// Analyze handles POST /api/v1/messages/:id/analyze. It schedules an
// immediate analysis job for the message.
func (h *Handler) Analyze(c *gin.Context) {
	messageID := c.Param("id")
	if _, err := h.Repo.GetByID(c.Request.Context(), messageID); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "message not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load message", nil)
		return
	}

	jobID, err := h.Scheduler.ScheduleMessageAnalysis(messageID, 0)
	if err != nil {
		respond.Error(c, http.StatusServiceUnavailable, "queue_unavailable", "failed to schedule analysis", nil)
		return
	}
	c.Set("messageId", messageID)
	c.Set("jobId", jobID)
	respond.Accepted(c, gin.H{
		"messageId": messageID,
		"jobId":     jobID,
		"status":    "scheduled",
	})
}
