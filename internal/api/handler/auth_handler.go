package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Net-Geometry/otms-tidal-sub000/internal/dto"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/service"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/response"
)

// AuthHandler 认证接口
type AuthHandler struct {
	svc    service.AuthService
	logger *zap.Logger
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(svc service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

// Login POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数无效")
		return
	}

	result, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, 40110, err.Error())
			return
		}
		h.logger.Error("登录失败", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// RefreshToken POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数无效")
		return
	}

	result, err := h.svc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefresh) {
			response.Unauthorized(c, 40111, err.Error())
			return
		}
		h.logger.Error("刷新 token 失败", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// Logout POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Unauthorized(c, 40101, "缺少认证信息")
		return
	}
	if err := h.svc.Logout(c.Request.Context(), claims); err != nil {
		h.logger.Error("登出失败", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// ChangePassword PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数无效：新密码长度为 8-20 字符")
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), currentUserID(c), &req); err != nil {
		if errors.Is(err, service.ErrOldPasswordWrong) {
			response.BadRequest(c, 40012, err.Error())
			return
		}
		h.logger.Error("修改密码失败", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// Me GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.svc.GetCurrentUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.logger.Error("查询当前用户失败", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, user)
}
