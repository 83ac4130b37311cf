package api

import (
	"net/http"
	"strings"

	"DocChat/backend/go/internal/identity"

	"github.com/gin-gonic/gin"
)

// TokenVerifier 校验 bearer token 并返回其中的身份。
type TokenVerifier interface {
	VerifyToken(token string) (identity.Identity, error)
}

// ContextKeyUserID 是 gin.Context 中保存用户 ID 的键, 供日志和限流中间件读取。
const ContextKeyUserID = "userID"

// AuthMiddleware 创建一个 Gin 中间件，用于验证 JWT 并把身份写入请求上下文。
// 这是整个服务里唯一写入身份的地方。
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		// 我们期望的格式是 "Bearer <token>"
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "malformed authorization header"})
			return
		}

		id, err := verifier.VerifyToken(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), id))
		c.Set(ContextKeyUserID, id.ID)
		c.Next()
	}
}
