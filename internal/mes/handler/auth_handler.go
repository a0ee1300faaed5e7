package handler

import (
	"github.com/bitfantasy/nimo-mes/internal/mes/service"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc     *service.AuthService
	userSvc *service.UserService
}

func NewAuthHandler(svc *service.AuthService, userSvc *service.UserService) *AuthHandler {
	return &AuthHandler{svc: svc, userSvc: userSvc}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	user, pair, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		Unauthorized(c, err.Error())
		return
	}
	Success(c, gin.H{
		"user":   user,
		"tokens": pair,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Refresh POST /auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		Unauthorized(c, err.Error())
		return
	}
	Success(c, pair)
}

// Logout POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		h.svc.Logout(c.Request.Context(), req.RefreshToken)
	}
	Success(c, gin.H{"message": "已退出登录"})
}

// Me GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := GetUserID(c)
	if userID == "" {
		Unauthorized(c, "未登录")
		return
	}
	user, err := h.userSvc.Get(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err, "获取用户信息失败")
		return
	}
	Success(c, user)
}
