package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Net-Geometry/otms-tidal-sub000/internal/dto"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/service"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/response"
)

// NotificationHandler 站内通知接口
type NotificationHandler struct {
	svc    service.NotificationService
	logger *zap.Logger
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(svc service.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{svc: svc, logger: logger}
}

// List GET /api/v1/notifications?unread_only=true
func (h *NotificationHandler) List(c *gin.Context) {
	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 40001, "查询参数无效")
		return
	}
	unreadOnly := c.Query("unread_only") == "true"

	notifications, total, err := h.svc.List(c.Request.Context(), currentUserID(c), unreadOnly, &page)
	if err != nil {
		h.logger.Error("查询通知列表失败", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OKPage(c, notifications, total, page.GetPage(), page.GetPageSize())
}

// MarkRead POST /api/v1/notifications/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	var req dto.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数无效")
		return
	}

	if err := h.svc.MarkRead(c.Request.Context(), currentUserID(c), req.IDs); err != nil {
		h.logger.Error("标记通知已读失败", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}
