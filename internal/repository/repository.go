package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	User         UserRepository
	Overtime     OvertimeRepository
	Notification NotificationRepository
	Outbox       OutboxRepository

	db *gorm.DB
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:         NewUserRepo(db),
		Overtime:     NewOvertimeRepo(db),
		Notification: NewNotificationRepo(db),
		Outbox:       NewOutboxRepo(db),
		db:           db,
	}
}

// BeginTx 开启事务，返回事务句柄
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到指定事务的 Repository 聚合
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{
		User:         NewUserRepo(tx),
		Overtime:     NewOvertimeRepo(tx),
		Notification: NewNotificationRepo(tx),
		Outbox:       NewOutboxRepo(tx),
		db:           tx,
	}
}
