package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the document routes on group (usually /api/v1). protected runs
// before every handler, in order: authentication first, then rate limiting.
func RegisterRoutes(group *gin.RouterGroup, h *Handler, protected ...gin.HandlerFunc) {
	docs := group.Group("", protected...)
	{
		docs.POST("/documents", h.Upload)
		docs.GET("/documents", h.ListUploads)
		docs.POST("/ask", h.Ask)
	}
}

// RegisterHealth mounts the liveness probe.
func RegisterHealth(engine *gin.Engine) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
