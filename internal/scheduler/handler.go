package scheduler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"support-backend/internal/shared/server/respond"
)

// ResultCache is the subset of the analysis cache the handler needs.
type ResultCache interface {
	Len() int
	Clear()
}

// Handler serves queue status and cache admin endpoints.
type Handler struct {
	Scheduler *Scheduler
	Cache     ResultCache
}

// Status handles GET /api/v1/analysis/status.
func (h *Handler) Status(c *gin.Context) {
	stats := h.Scheduler.GetStatus()
	respond.JSON(c, http.StatusOK, gin.H{
		"queue":       stats,
		"cachedCount": h.Cache.Len(),
	})
}

// ClearCache handles POST /api/v1/analysis/cache/clear.
func (h *Handler) ClearCache(c *gin.Context) {
	dropped := h.Cache.Len()
	h.Cache.Clear()
	respond.JSON(c, http.StatusOK, gin.H{"cleared": dropped})
}
