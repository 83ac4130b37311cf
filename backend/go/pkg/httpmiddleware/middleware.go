package httpmiddleware

import (
	"fmt"
	"net/http"
	"time"

	"DocChat/backend/go/internal/identity"
	"DocChat/backend/go/internal/models"
	"DocChat/backend/go/pkg/logger"
	"DocChat/backend/go/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// RateLimit applies one limiter per caller. Authenticated requests are keyed by user id,
// anonymous ones by client IP, so it must run after the auth middleware to be per-tenant.
func RateLimit(limiters *ratelimiter.Keyed) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if id, err := identity.FromContext(c.Request.Context()); err == nil {
			key = "user:" + id.ID
		}
		if !limiters.Allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, slow down"})
			return
		}
		c.Next()
	}
}

// RequestLogger logs one structured line per request once the handler chain returned.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		info := models.RequestInfo{
			Method:     c.Request.Method,
			Path:       c.FullPath(),
			RemoteAddr: c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			Status:     c.Writer.Status(),
			LatencyMs:  time.Since(start).Milliseconds(),
		}
		if info.Path == "" {
			info.Path = c.Request.URL.Path
		}
		l := log.WithRequest(info)
		if id, err := identity.FromContext(c.Request.Context()); err == nil {
			l = l.WithUser(id.ID)
		}

		switch {
		case info.Status >= http.StatusInternalServerError:
			l.Error("request failed")
		case info.Status >= http.StatusBadRequest:
			l.Warn("request rejected")
		default:
			l.Info("request served")
		}
	}
}

// Recovery turns a panic in a handler into a logged 500 with a generic body.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.WithError(models.ErrorInfo{
					Message:    fmt.Sprint(rec),
					Type:       "panic",
					StatusCode: http.StatusInternalServerError,
				}).WithField("path", c.Request.URL.Path).Error("handler panicked")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()
		c.Next()
	}
}
