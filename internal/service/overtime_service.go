package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Net-Geometry/otms-tidal-sub000/internal/dto"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/model"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/repository"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/workflow"
)

// ── 业务错误 ──

var (
	ErrNoSupervisorAssigned    = errors.New("员工未配置直属主管，无法提交加班申请")
	ErrRespectiveIsDirect      = errors.New("指示主管不能与直属主管为同一人")
	ErrRespectiveNotSupervisor = errors.New("指示主管必须是主管角色的用户")
	ErrInvalidOTDate           = errors.New("加班日期格式无效，应为 YYYY-MM-DD")
	ErrNoListView              = errors.New("该角色没有可用的申请列表视图")
	ErrUnknownStatus           = errors.New("未知的申请状态")
	ErrRequestNotFound         = errors.New("加班申请不存在")
)

// OvertimeService 加班申请业务接口。
// 七个审批动作共用同一条批处理管线：整批读取 → 全有或全无校验 →
// 按目标状态分区 → 逐分区事务写入 → 提交后通知。
type OvertimeService interface {
	Submit(ctx context.Context, employeeID string, req *dto.SubmitOTRequest) ([]dto.OTSessionResponse, error)
	List(ctx context.Context, actor workflow.Actor, req *dto.OTListRequest) ([]dto.GroupedOTRequest, int64, error)
	GetByID(ctx context.Context, actor workflow.Actor, id string) (*dto.OTSessionResponse, error)
	AllowedActions(role, status string) (*dto.AllowedActionsResponse, error)

	Approve(ctx context.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error)
	Reject(ctx context.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error)
	Confirm(ctx context.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error)
	RequestRespectiveConfirmation(ctx context.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error)
	ConfirmRespective(ctx context.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error)
	DenyRespective(ctx context.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error)
	Revise(ctx context.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error)
}

// overtimeService OvertimeService 实现
type overtimeService struct {
	repo     *repository.Repository
	notifier NotificationService
	rates    RateCalculator
	logger   *zap.Logger
}

// NewOvertimeService 创建 OvertimeService 实例
func NewOvertimeService(repo *repository.Repository, notifier NotificationService, rates RateCalculator, logger *zap.Logger) OvertimeService {
	return &overtimeService{repo: repo, notifier: notifier, rates: rates, logger: logger}
}

// ── 提交 ──

// Submit 员工提交一天的加班申请：每个连续时段一条记录，薪资字段由
// 费率计算器在此时一次性赋值，后续审批不再改动。
func (s *overtimeService) Submit(ctx context.Context, employeeID string, req *dto.SubmitOTRequest) ([]dto.OTSessionResponse, error) {
	employee, err := s.repo.User.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if employee.SupervisorID == nil || *employee.SupervisorID == "" {
		return nil, ErrNoSupervisorAssigned
	}

	otDate, err := time.Parse("2006-01-02", req.OTDate)
	if err != nil {
		return nil, ErrInvalidOTDate
	}

	// 指示主管可选；给出时必须是主管角色且不同于直属主管
	if req.RespectiveSupervisorID != nil && *req.RespectiveSupervisorID != "" {
		if *req.RespectiveSupervisorID == *employee.SupervisorID {
			return nil, ErrRespectiveIsDirect
		}
		respective, err := s.repo.User.GetByID(ctx, *req.RespectiveSupervisorID)
		if err != nil {
			return nil, err
		}
		if respective.Role != model.RoleSupervisor {
			return nil, ErrRespectiveNotSupervisor
		}
	}

	rows := make([]model.OvertimeRequest, 0, len(req.Sessions))
	for _, session := range req.Sessions {
		rate, err := s.rates.Calculate(otDate, session.StartTime, session.EndTime)
		if err != nil {
			return nil, err
		}
		rows = append(rows, model.OvertimeRequest{
			EmployeeID:             employeeID,
			OTDate:                 otDate,
			StartTime:              session.StartTime,
			EndTime:                session.EndTime,
			TotalHours:             rate.TotalHours,
			SupervisorID:           *employee.SupervisorID,
			RespectiveSupervisorID: req.RespectiveSupervisorID,
			Status:                 string(workflow.StatusPendingVerification),
			Reason:                 req.Reason,
			AttachmentURLs:         req.AttachmentURLs,
			DayType:                rate.DayType,
			ORP:                    rate.ORP,
			HRP:                    rate.HRP,
			OTAmount:               rate.Amount,
			VersionedModel: model.VersionedModel{
				SoftDeleteModel: model.SoftDeleteModel{
					BaseModel: model.BaseModel{CreatedBy: &employeeID},
				},
				Version: 1,
			},
		})
	}

	if err := s.repo.Overtime.BatchCreate(ctx, rows); err != nil {
		s.logger.Error("创建加班申请失败",
			zap.String("employee_id", employeeID),
			zap.String("ot_date", req.OTDate),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("加班申请已提交",
		zap.String("employee_id", employeeID),
		zap.String("ot_date", req.OTDate),
		zap.Int("sessions", len(rows)))

	for i := range rows {
		rows[i].Employee = employee
	}
	s.notifier.NotifySubmission(ctx, rows)

	responses := make([]dto.OTSessionResponse, len(rows))
	for i := range rows {
		responses[i] = toSessionResponse(&rows[i])
	}
	return responses, nil
}

// ── 批处理管线 ──

// partition 一个目标状态对应的写入分区
type partition struct {
	status workflow.Status
	reqs   []*model.OvertimeRequest
}

// runAction 所有审批动作的统一入口。
// 校验阶段全有或全无：任一成员无效则整批中止、零写入；
// 写入阶段按目标状态分区，每个分区一个事务，分区间按首次出现顺序提交。
func (s *overtimeService) runAction(ctx context.Context, actor workflow.Actor, action workflow.Action, in *dto.BatchActionRequest) (*dto.BatchActionResult, error) {
	rows, err := s.repo.Overtime.ListByIDs(ctx, in.RequestIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.OvertimeRequest, len(rows))
	for i := range rows {
		byID[rows[i].RequestID] = &rows[i]
	}

	if err := workflow.ValidateBatch(actor, action, in.RequestIDs, byID, in.Remarks); err != nil {
		s.logger.Warn("批量审批校验未通过",
			zap.String("actor_id", actor.ID),
			zap.String("action", string(action)),
			zap.Int("batch_size", len(in.RequestIDs)),
			zap.Error(err))
		return nil, err
	}

	// 转移逐条计算：同批内不同申请可能落到不同目标状态（例如 HR 驳回
	// 按来源路线退回），分区保持请求中的首次出现顺序，保证提交顺序确定。
	now := time.Now()
	seen := make(map[string]bool, len(in.RequestIDs))
	partIndex := make(map[workflow.Status]int)
	var parts []partition
	for _, id := range in.RequestIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		req := byID[id]
		next, ok := workflow.Apply(req, actor.ID, actor.Role, action, in.Remarks, now)
		if !ok {
			return nil, workflow.ErrUnknownAction
		}
		req.UpdatedBy = &actor.ID
		idx, exists := partIndex[next]
		if !exists {
			idx = len(parts)
			partIndex[next] = idx
			parts = append(parts, partition{status: next})
		}
		parts[idx].reqs = append(parts[idx].reqs, req)
	}

	result := &dto.BatchActionResult{
		Action:     string(action),
		RequestIDs: in.RequestIDs,
		Partitions: make([]dto.PartitionResult, len(parts)),
	}
	for i, part := range parts {
		ids := make([]string, len(part.reqs))
		for j, req := range part.reqs {
			ids[j] = req.RequestID
		}
		result.Partitions[i] = dto.PartitionResult{Status: string(part.status), RequestIDs: ids}
	}

	// 逐分区提交；某分区失败时已提交的分区保持提交，结果中如实标注，
	// 调用方据此向用户报告部分成功。
	var committed []*model.OvertimeRequest
	for i, part := range parts {
		if err := s.repo.Overtime.ApplyTransition(ctx, part.reqs); err != nil {
			s.logger.Error("分区状态转移失败",
				zap.String("actor_id", actor.ID),
				zap.String("action", string(action)),
				zap.String("target_status", string(part.status)),
				zap.Int("committed_partitions", i),
				zap.Error(err))
			if len(committed) > 0 {
				s.notifier.NotifyTransition(ctx, actor, action, committed)
			}
			return result, err
		}
		result.Partitions[i].Committed = true
		committed = append(committed, part.reqs...)
	}

	s.logger.Info("批量审批已提交",
		zap.String("actor_id", actor.ID),
		zap.String("role", actor.Role),
		zap.String("action", string(action)),
		zap.Int("batch_size", len(committed)),
		zap.Int("partitions", len(parts)))

	s.notifier.NotifyTransition(ctx, actor, action, committed)
	return result, nil
}

func (s *overtimeService) Approve(ctx context.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error) {
	return s.runAction(ctx, actor, workflow.ActionApprove, req)
}

func (s *overtimeService) Reject(ctx context.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error) {
	return s.runAction(ctx, actor, workflow.ActionReject, req)
}

func (s *overtimeService) Confirm(ctx context.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error) {
	return s.runAction(ctx, actor, workflow.ActionConfirm, req)
}

func (s *overtimeService) RequestRespectiveConfirmation(ctx context.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error) {
	return s.runAction(ctx, actor, workflow.ActionRequestRespectiveConfirmation, req)
}

func (s *overtimeService) ConfirmRespective(ctx context.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error) {
	return s.runAction(ctx, actor, workflow.ActionConfirmRespective, req)
}

func (s *overtimeService) DenyRespective(ctx context.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error) {
	return s.runAction(ctx, actor, workflow.ActionDenyRespective, req)
}

func (s *overtimeService) Revise(ctx context.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error) {
	return s.runAction(ctx, actor, workflow.ActionRevise, req)
}

// ── 查询 ──

// List 角色限定的申请列表：按声明式可见性规则查询，再按
// (employee_id, ot_date) 聚合为卡片。
func (s *overtimeService) List(ctx context.Context, actor workflow.Actor, req *dto.OTListRequest) ([]dto.GroupedOTRequest, int64, error) {
	rule, ok := workflow.Visibility(actor.Role, workflow.Filter(req.Filter))
	if !ok {
		return nil, 0, ErrNoListView
	}

	rows, total, err := s.repo.Overtime.ListVisible(ctx, actor.ID, rule, req.GetOffset(), req.GetPageSize())
	if err != nil {
		return nil, 0, err
	}
	return GroupRequests(rows), total, nil
}

func (s *overtimeService) GetByID(ctx context.Context, actor workflow.Actor, id string) (*dto.OTSessionResponse, error) {
	req, err := s.repo.Overtime.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// 员工只能查看本人申请；主管只能查看与自己相关的申请
	switch actor.Role {
	case model.RoleEmployee:
		if req.EmployeeID != actor.ID {
			return nil, ErrRequestNotFound
		}
	case model.RoleSupervisor:
		if req.SupervisorID != actor.ID &&
			(req.RespectiveSupervisorID == nil || *req.RespectiveSupervisorID != actor.ID) {
			return nil, ErrRequestNotFound
		}
	}
	resp := toSessionResponse(req)
	return &resp, nil
}

// AllowedActions 枚举 (role, status) 下可执行的动作，供前端渲染按钮
func (s *overtimeService) AllowedActions(role, status string) (*dto.AllowedActionsResponse, error) {
	st := workflow.Status(status)
	if !st.Valid() {
		return nil, ErrUnknownStatus
	}
	actions := workflow.AllowedActions(role, st)
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	return &dto.AllowedActionsResponse{Role: role, Status: status, Actions: names}, nil
}

// GroupRequests 将同一 (employee_id, ot_date) 的时段记录聚合为一张卡片，
// 保持输入顺序下的首次出现次序。对同一输入幂等。
func GroupRequests(rows []model.OvertimeRequest) []dto.GroupedOTRequest {
	type key struct {
		employeeID string
		otDate     string
	}
	index := make(map[key]int)
	groups := make([]dto.GroupedOTRequest, 0)

	for i := range rows {
		row := &rows[i]
		k := key{employeeID: row.EmployeeID, otDate: row.OTDate.Format("2006-01-02")}
		idx, exists := index[k]
		if !exists {
			idx = len(groups)
			index[k] = idx
			group := dto.GroupedOTRequest{
				EmployeeID: row.EmployeeID,
				OTDate:     k.otDate,
				Status:     row.Status,
			}
			if row.Employee != nil {
				group.EmployeeName = row.Employee.Name
				group.EmployeeNo = row.Employee.EmployeeNo
			}
			groups = append(groups, group)
		}
		g := &groups[idx]
		if g.Status != row.Status {
			// 同组时段状态不一致只会出现在并发写入的瞬间
			g.Status = "mixed"
		}
		g.TotalHours += row.TotalHours
		g.OTAmount += row.OTAmount
		g.RequestIDs = append(g.RequestIDs, row.RequestID)
		g.Sessions = append(g.Sessions, toSessionResponse(row))
	}
	return groups
}

func toSessionResponse(r *model.OvertimeRequest) dto.OTSessionResponse {
	return dto.OTSessionResponse{
		RequestID:      r.RequestID,
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		TotalHours:     r.TotalHours,
		Status:         r.Status,
		DayType:        r.DayType,
		ORP:            r.ORP,
		HRP:            r.HRP,
		OTAmount:       r.OTAmount,
		Reason:         r.Reason,
		AttachmentURLs: r.AttachmentURLs,
		RejectionStage: r.RejectionStage,
		DeniedAt:       r.RespectiveSupervisorDeniedAt,
		DenialRemarks:  r.RespectiveSupervisorDenialRemarks,
		Version:        r.Version,
	}
}
