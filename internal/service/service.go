package service

import (
	"go.uber.org/zap"

	"github.com/Net-Geometry/otms-tidal-sub000/config"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/repository"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/jwt"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/redis"
)

// Sender 通知投递通道（邮件等），由 pkg/mail 提供实现。
// 投递失败只记录日志，绝不影响审批事务。
type Sender interface {
	Send(to, subject, body string) error
}

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Overtime     OvertimeService
	Notification NotificationService
	Export       ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	sender Sender,
	rates RateCalculator,
	logger *zap.Logger,
) *Service {
	notification := NewNotificationService(cfg, repo, sender, logger)
	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		User:         NewUserService(repo, logger),
		Overtime:     NewOvertimeService(repo, notification, rates, logger),
		Notification: notification,
		Export:       NewExportService(repo, logger),
	}
}
