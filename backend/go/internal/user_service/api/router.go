package api

import "github.com/gin-gonic/gin"

// RegisterRoutes 把认证路由挂到给定的路由组上 (通常是 /api/v1)。
func RegisterRoutes(group *gin.RouterGroup, h *Handler) {
	auth := group.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}
