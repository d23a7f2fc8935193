package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Net-Geometry/otms-tidal-sub000/internal/model"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/workflow"
	apperrors "github.com/Net-Geometry/otms-tidal-sub000/pkg/errors"
)

// OvertimeRepository 加班申请数据访问接口
type OvertimeRepository interface {
	BatchCreate(ctx context.Context, reqs []model.OvertimeRequest) error
	GetByID(ctx context.Context, id string) (*model.OvertimeRequest, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.OvertimeRequest, error)
	// ApplyTransition 以单个事务提交一个分区的状态转移；
	// 每行带乐观锁版本条件，任一行版本不匹配则整个分区回滚。
	ApplyTransition(ctx context.Context, reqs []*model.OvertimeRequest) error
	ListVisible(ctx context.Context, viewerID string, rule workflow.VisibilityRule, offset, limit int) ([]model.OvertimeRequest, int64, error)
	ListByStatuses(ctx context.Context, statuses []string, from, to time.Time) ([]model.OvertimeRequest, error)
}

// overtimeRepo OvertimeRepository 的 GORM 实现
type overtimeRepo struct {
	db *gorm.DB
}

// NewOvertimeRepo 创建 OvertimeRepository 实例
func NewOvertimeRepo(db *gorm.DB) OvertimeRepository {
	return &overtimeRepo{db: db}
}

func (r *overtimeRepo) BatchCreate(ctx context.Context, reqs []model.OvertimeRequest) error {
	return r.db.WithContext(ctx).Create(&reqs).Error
}

func (r *overtimeRepo) GetByID(ctx context.Context, id string) (*model.OvertimeRequest, error) {
	var req model.OvertimeRequest
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *overtimeRepo) ListByIDs(ctx context.Context, ids []string) ([]model.OvertimeRequest, error) {
	var reqs []model.OvertimeRequest
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("request_id IN ?", ids).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

// transitionUpdates 状态转移允许写入的列。
// 历史阶段的时间戳按不可覆盖约定由 workflow.Apply 维护，
// 仓库层照单全收，只负责版本守卫。
func transitionUpdates(req *model.OvertimeRequest) map[string]interface{} {
	return map[string]interface{}{
		"status":                               req.Status,
		"rejection_stage":                      req.RejectionStage,
		"supervisor_verified_at":               req.SupervisorVerifiedAt,
		"supervisor_remarks":                   req.SupervisorRemarks,
		"supervisor_confirmation_at":           req.SupervisorConfirmationAt,
		"supervisor_confirmation_remarks":      req.SupervisorConfirmationRemarks,
		"respective_supervisor_confirmed_at":   req.RespectiveSupervisorConfirmedAt,
		"respective_supervisor_remarks":        req.RespectiveSupervisorRemarks,
		"respective_supervisor_denied_at":      req.RespectiveSupervisorDeniedAt,
		"respective_supervisor_denial_remarks": req.RespectiveSupervisorDenialRemarks,
		"hr_approved_at":                       req.HRApprovedAt,
		"hr_id":                                req.HRID,
		"hr_remarks":                           req.HRRemarks,
		"management_reviewed_at":               req.ManagementReviewedAt,
		"management_remarks":                   req.ManagementRemarks,
		"updated_at":                           time.Now(),
		"updated_by":                           req.UpdatedBy,
		"version":                              gorm.Expr("version + 1"),
	}
}

func (r *overtimeRepo) ApplyTransition(ctx context.Context, reqs []*model.OvertimeRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, req := range reqs {
			res := tx.Model(&model.OvertimeRequest{}).
				Where("request_id = ? AND version = ?", req.RequestID, req.Version).
				Updates(transitionUpdates(req))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// 读到写之间该行已被其他操作修改
				return apperrors.ErrOptimisticLock
			}
		}
		return nil
	})
}

func statusStrings(statuses []workflow.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func (r *overtimeRepo) ListVisible(ctx context.Context, viewerID string, rule workflow.VisibilityRule, offset, limit int) ([]model.OvertimeRequest, int64, error) {
	db := r.db.WithContext(ctx).Model(&model.OvertimeRequest{})

	switch rule.Scope {
	case workflow.ScopeEmployee:
		db = db.Where("employee_id = ? AND status IN ?", viewerID, statusStrings(rule.Statuses))
	case workflow.ScopeSupervisor:
		// 直属与指示两种身份各自限定可见状态集
		db = db.Where(
			"(supervisor_id = ? AND status IN ?) OR (respective_supervisor_id = ? AND status IN ?)",
			viewerID, statusStrings(rule.DirectStatuses),
			viewerID, statusStrings(rule.RespectiveStatuses),
		)
	default:
		db = db.Where("status IN ?", statusStrings(rule.Statuses))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reqs []model.OvertimeRequest
	if err := db.Preload("Employee").
		Offset(offset).Limit(limit).
		Order("ot_date DESC, employee_id, start_time").
		Find(&reqs).Error; err != nil {
		return nil, 0, err
	}

	return reqs, total, nil
}

func (r *overtimeRepo) ListByStatuses(ctx context.Context, statuses []string, from, to time.Time) ([]model.OvertimeRequest, error) {
	var reqs []model.OvertimeRequest
	db := r.db.WithContext(ctx).
		Preload("Employee").
		Where("status IN ?", statuses)
	if !from.IsZero() {
		db = db.Where("ot_date >= ?", from)
	}
	if !to.IsZero() {
		db = db.Where("ot_date <= ?", to)
	}
	if err := db.Order("ot_date, employee_id, start_time").Find(&reqs).Error; err != nil {
		return nil, err
	}
	return reqs, nil
}
