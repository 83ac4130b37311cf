package api

import (
	"errors"
	"net/http"

	"DocChat/backend/go/internal/models"
	"DocChat/backend/go/internal/user_service/service"
	"DocChat/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler 封装了认证相关 endpoint 的处理函数。
type Handler struct {
	service *service.Service
	log     *logger.Logger
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(s *service.Service, log *logger.Logger) *Handler {
	return &Handler{service: s, log: log}
}

// RegisterRequest 定义了邮箱注册请求的 JSON 结构。
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,max=20"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register 处理邮箱注册请求。
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"user_id": user.ID, "email": user.Email, "username": user.Username})
	case errors.Is(err, service.ErrAccountExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.log.WithError(models.ErrorInfo{Message: err.Error(), StatusCode: http.StatusInternalServerError}).Error("register failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed, please try again"})
	}
}

// LoginRequest 定义了邮箱登录请求的 JSON 结构。
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login 处理邮箱登录请求。
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"token": token})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		h.log.WithError(models.ErrorInfo{Message: err.Error(), StatusCode: http.StatusInternalServerError}).Error("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed, please try again"})
	}
}
