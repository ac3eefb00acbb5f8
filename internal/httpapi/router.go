package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Register mounts the API surface. Everything under /api except the
// auth endpoints requires a bearer token.
func Register(r *gin.Engine, h Handlers, requireUser gin.HandlerFunc) {
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/send-otp", h.SendOTP)
		authGroup.POST("/verify-otp", h.VerifyOTP)
		authGroup.GET("/me", requireUser, h.Me)
	}

	protected := api.Group("")
	protected.Use(requireUser)
	{
		protected.GET("/connections", h.ListConnections)
		protected.POST("/connections", h.CreateConnection)
		protected.DELETE("/connections/:connection_id", h.DeleteConnection)
		protected.POST("/connections/:connection_id/test", h.TestConnection)

		protected.GET("/threads", h.ListThreads)
		protected.GET("/threads/:thread_id/messages", h.ListMessages)
		protected.POST("/threads/:thread_id/messages", h.SendMessage)
		protected.PUT("/threads/:thread_id/status", h.UpdateThreadStatus)

		protected.GET("/threads/:thread_id/draft", h.GetDraft)
		protected.POST("/threads/:thread_id/draft", h.SaveDraft)
		protected.DELETE("/threads/:thread_id/draft", h.DeleteDraft)
	}
}
