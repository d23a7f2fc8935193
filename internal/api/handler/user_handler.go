package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Net-Geometry/otms-tidal-sub000/internal/dto"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/service"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/response"
)

// UserHandler 用户管理接口（管理员）
type UserHandler struct {
	svc    service.UserService
	logger *zap.Logger
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(svc service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// Create POST /api/v1/users
func (h *UserHandler) Create(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数无效")
		return
	}

	result, err := h.svc.Create(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmployeeNoExists),
			errors.Is(err, service.ErrEmailExists):
			response.Conflict(c, 40902, err.Error())
		case errors.Is(err, service.ErrSupervisorNotFound),
			errors.Is(err, service.ErrSupervisorWrongRole),
			errors.Is(err, service.ErrSupervisorIsRequired):
			response.BadRequest(c, 40013, err.Error())
		default:
			h.logger.Error("创建用户失败", zap.Error(err))
			response.InternalError(c)
		}
		return
	}
	response.Created(c, result)
}

// Get GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, 40402, "用户不存在")
			return
		}
		h.logger.Error("查询用户失败", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, user)
}

// List GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 40001, "查询参数无效")
		return
	}

	users, total, err := h.svc.List(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("查询用户列表失败", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}
