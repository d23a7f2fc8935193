package handler

import (
	"go.uber.org/zap"

	"github.com/Net-Geometry/otms-tidal-sub000/internal/service"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Overtime     *OvertimeHandler
	Notification *NotificationHandler
	Export       *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth, logger),
		User:         NewUserHandler(svc.User, logger),
		Overtime:     NewOvertimeHandler(svc.Overtime, logger),
		Notification: NewNotificationHandler(svc.Notification, logger),
		Export:       NewExportHandler(svc.Export, logger),
	}
}
