package model

import "time"

// 通知类型常量（与审批流转一一对应）
const (
	NotificationSubmission            = "submission"
	NotificationVerificationPending   = "verification_pending"
	NotificationReadyForCertification = "ready_for_certification"
	NotificationReadyForApproval      = "ready_for_approval"
	NotificationApproved              = "approved"
	NotificationRejected              = "rejected"
	NotificationConfirmationRequested = "confirmation_requested"
	NotificationConfirmed             = "confirmed"
	NotificationDenied                = "denied"
)

// Notification 站内通知表 — 对应 notifications
type Notification struct {
	NotificationID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string  `gorm:"type:uuid;not null"                             json:"user_id"`
	Kind           string  `gorm:"type:varchar(50);not null"                      json:"kind"`
	Title          string  `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string  `gorm:"type:text;not null"                             json:"content"`
	IsRead         bool    `gorm:"not null;default:false"                         json:"is_read"`
	RelatedType    *string `gorm:"type:varchar(20)"                               json:"related_type,omitempty"` // overtime_request
	RelatedID      *string `gorm:"type:uuid"                                      json:"related_id,omitempty"`
	SoftDeleteModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// 出箱状态常量
const (
	OutboxPending = "pending"
	OutboxSent    = "sent"
	OutboxDead    = "dead"
)

// NotificationOutbox 通知出箱表 — 对应 notification_outbox
// 状态转移提交后入箱，异步投递；失败按指数退避重试，
// 超过最大尝试次数进入死信，绝不反向影响审批事务。
type NotificationOutbox struct {
	OutboxID      string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"outbox_id"`
	RecipientID   string    `gorm:"type:uuid;not null"                             json:"recipient_id"`
	Kind          string    `gorm:"type:varchar(50);not null"                      json:"kind"`
	Payload       string    `gorm:"type:jsonb;not null"                            json:"payload"`
	Status        string    `gorm:"type:varchar(20);not null;default:'pending';index:idx_outbox_status_next_attempt" json:"status"`
	Attempts      int       `gorm:"not null;default:0"                             json:"attempts"`
	NextAttemptAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_outbox_status_next_attempt" json:"next_attempt_at"`
	LastError     *string   `gorm:"type:text"                                      json:"last_error,omitempty"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (NotificationOutbox) TableName() string { return "notification_outbox" }
