package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Net-Geometry/otms-tidal-sub000/internal/model"
)

// NotificationRepository 站内通知数据访问接口
type NotificationRepository interface {
	BatchCreate(ctx context.Context, notifications []model.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, userID string, ids []string) error
}

// notificationRepo NotificationRepository 的 GORM 实现
type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo 创建 NotificationRepository 实例
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) BatchCreate(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&notifications).Error
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		db = db.Where("is_read = ?", false)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []model.Notification
	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, userID string, ids []string) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND notification_id IN ?", userID, ids).
		Update("is_read", true).Error
}

// ── 通知出箱 ──

// OutboxRepository 通知出箱数据访问接口
type OutboxRepository interface {
	BatchCreate(ctx context.Context, entries []model.NotificationOutbox) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.NotificationOutbox, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, attempts int, nextAttempt time.Time, lastError string, dead bool) error
}

// outboxRepo OutboxRepository 的 GORM 实现
type outboxRepo struct {
	db *gorm.DB
}

// NewOutboxRepo 创建 OutboxRepository 实例
func NewOutboxRepo(db *gorm.DB) OutboxRepository {
	return &outboxRepo{db: db}
}

func (r *outboxRepo) BatchCreate(ctx context.Context, entries []model.NotificationOutbox) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

func (r *outboxRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]model.NotificationOutbox, error) {
	var entries []model.NotificationOutbox
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", model.OutboxPending, now).
		Order("next_attempt_at").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *outboxRepo) MarkSent(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.NotificationOutbox{}).
		Where("outbox_id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.OutboxSent,
			"updated_at": time.Now(),
		}).Error
}

func (r *outboxRepo) MarkFailed(ctx context.Context, id string, attempts int, nextAttempt time.Time, lastError string, dead bool) error {
	status := model.OutboxPending
	if dead {
		status = model.OutboxDead
	}
	return r.db.WithContext(ctx).Model(&model.NotificationOutbox{}).
		Where("outbox_id = ?", id).
		Updates(map[string]interface{}{
			"status":          status,
			"attempts":        attempts,
			"next_attempt_at": nextAttempt,
			"last_error":      lastError,
			"updated_at":      time.Now(),
		}).Error
}
