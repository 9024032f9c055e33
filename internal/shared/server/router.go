package server

import (
	"github.com/gin-gonic/gin"

	"support-backend/internal/conversations"
	"support-backend/internal/messages"
	"support-backend/internal/scheduler"
	"support-backend/internal/shared/config"
	"support-backend/internal/shared/metrics"
	"support-backend/internal/shared/server/middleware"
	"support-backend/internal/shared/server/respond"
)

// RouterDeps collects the handlers the router wires up.
type RouterDeps struct {
	Config        config.Config
	Conversations *conversations.Handler
	Messages      *messages.Handler
	Analysis      *scheduler.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.OK(c, gin.H{"ok": true})
	})

	api.POST("/conversations", deps.Conversations.Create)
	api.GET("/conversations/:id", deps.Conversations.Get)
	api.GET("/conversations/:id/messages", deps.Messages.ListByConversation)
	api.POST("/conversations/:id/analyze", deps.Conversations.Analyze)

	api.POST("/messages", deps.Messages.Create)
	api.GET("/messages/:id", deps.Messages.Get)
	api.POST("/messages/:id/analyze", deps.Messages.Analyze)

	api.GET("/analysis/status", deps.Analysis.Status)
	api.POST("/analysis/cache/clear", deps.Analysis.ClearCache)

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
