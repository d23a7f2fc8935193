package workflow

import (
	"time"

	"github.com/Net-Geometry/otms-tidal-sub000/internal/model"
)

// 备注长度约束
const (
	RemarksMaxLen       = 500
	DenialRemarksMinLen = 10
)

// 驳回阶段（审计用）
const (
	StageSupervisor           = "supervisor"
	StageRespectiveSupervisor = "respective_supervisor"
	StageHR                   = "hr"
	StageManagement           = "management"
)

// RemarksPolicy 某一动作对备注的要求
type RemarksPolicy struct {
	Required bool
	MinLen   int
}

// Rule 状态机规则：一条 (role, action) 组合的完整转移规则。
// Next 按单条申请的字段计算实际目标状态——同一批内不同申请可能
// 落到不同分区，分区计算必须逐条进行。
type Rule struct {
	Role    string
	Action  Action
	Sources []Status
	Remarks RemarksPolicy

	// 关系要求：直属主管动作要求 supervisor_id == actor，
	// 指示主管动作要求 respective_supervisor_id == actor。
	RequiresDirect     bool
	RequiresRespective bool
	// RequiresRouteB 仅双主管路线的申请可执行
	RequiresRouteB bool

	Next  func(r *model.OvertimeRequest) Status
	apply func(r *model.OvertimeRequest, actorID, remarks string, now time.Time)
}

func strPtr(s string) *string { return &s }

func setRemarks(dst **string, remarks string) {
	if remarks != "" {
		*dst = strPtr(remarks)
	}
}

// rules 全部转移规则的枚举表
var rules = []Rule{
	// ── 直属主管 ──
	{
		// 验证：Route A 单步直达 supervisor_confirmed；
		// Route B 进入确认子流程
		Role:           model.RoleSupervisor,
		Action:         ActionApprove,
		Sources:        []Status{StatusPendingVerification},
		RequiresDirect: true,
		Next: func(r *model.OvertimeRequest) Status {
			if r.HasRespectiveSupervisor() {
				return StatusPendingSupervisorConfirmation
			}
			return StatusSupervisorConfirmed
		},
		apply: func(r *model.OvertimeRequest, actorID, remarks string, now time.Time) {
			r.SupervisorVerifiedAt = &now
			setRemarks(&r.SupervisorRemarks, remarks)
		},
	},
	{
		// 最终确认：指示主管已确认 → supervisor_verified，
		// 否则（无指示主管或尚未确认）→ supervisor_confirmed
		Role:           model.RoleSupervisor,
		Action:         ActionConfirm,
		Sources:        []Status{StatusPendingSupervisorConfirmation},
		RequiresDirect: true,
		Next: func(r *model.OvertimeRequest) Status {
			if r.HasRespectiveSupervisor() && r.RespectiveSupervisorConfirmedAt != nil {
				return StatusSupervisorVerified
			}
			return StatusSupervisorConfirmed
		},
		apply: func(r *model.OvertimeRequest, actorID, remarks string, now time.Time) {
			r.SupervisorConfirmationAt = &now
			setRemarks(&r.SupervisorConfirmationRemarks, remarks)
		},
	},
	{
		Role:           model.RoleSupervisor,
		Action:         ActionRequestRespectiveConfirmation,
		Sources:        []Status{StatusPendingSupervisorConfirmation},
		RequiresDirect: true,
		RequiresRouteB: true,
		Next:           func(*model.OvertimeRequest) Status { return StatusPendingRespectiveConfirmation },
		apply:          func(r *model.OvertimeRequest, actorID, remarks string, now time.Time) {},
	},
	{
		// 修订被指示主管拒绝的申请并重新送审；拒绝记录保留作审计
		Role:           model.RoleSupervisor,
		Action:         ActionRevise,
		Sources:        []Status{StatusPendingSupervisorReview},
		RequiresDirect: true,
		RequiresRouteB: true,
		Next:           func(*model.OvertimeRequest) Status { return StatusPendingRespectiveConfirmation },
		apply: func(r *model.OvertimeRequest, actorID, remarks string, now time.Time) {
			setRemarks(&r.SupervisorRemarks, remarks)
		},
	},
	{
		// 主管驳回为终态拒绝
		Role:           model.RoleSupervisor,
		Action:         ActionReject,
		Sources:        []Status{StatusPendingVerification, StatusPendingSupervisorConfirmation, StatusPendingSupervisorReview},
		Remarks:        RemarksPolicy{Required: true},
		RequiresDirect: true,
		Next:           func(*model.OvertimeRequest) Status { return StatusRejected },
		apply: func(r *model.OvertimeRequest, actorID, remarks string, now time.Time) {
			r.RejectionStage = strPtr(StageSupervisor)
			setRemarks(&r.SupervisorRemarks, remarks)
		},
	},

	// ── 指示主管（respective supervisor）──
	{
		Role:               model.RoleSupervisor,
		Action:             ActionConfirmRespective,
		Sources:            []Status{StatusPendingRespectiveConfirmation},
		RequiresRespective: true,
		RequiresRouteB:     true,
		Next:               func(*model.OvertimeRequest) Status { return StatusPendingSupervisorConfirmation },
		apply: func(r *model.OvertimeRequest, actorID, remarks string, now time.Time) {
			r.RespectiveSupervisorConfirmedAt = &now
			setRemarks(&r.RespectiveSupervisorRemarks, remarks)
		},
	},
	{
		// 指示主管拒绝退回直属主管修订，拒绝理由不少于 10 字符
		Role:               model.RoleSupervisor,
		Action:             ActionDenyRespective,
		Sources:            []Status{StatusPendingRespectiveConfirmation},
		Remarks:            RemarksPolicy{Required: true, MinLen: DenialRemarksMinLen},
		RequiresRespective: true,
		RequiresRouteB:     true,
		Next:               func(*model.OvertimeRequest) Status { return StatusPendingSupervisorReview },
		apply: func(r *model.OvertimeRequest, actorID, remarks string, now time.Time) {
			r.RespectiveSupervisorDeniedAt = &now
			r.RespectiveSupervisorDenialRemarks = strPtr(remarks)
			r.RejectionStage = strPtr(StageRespectiveSupervisor)
		},
	},

	// ── HR ──
	{
		Role:    model.RoleHR,
		Action:  ActionApprove,
		Sources: []Status{StatusSupervisorConfirmed, StatusSupervisorVerified, StatusPendingHRRecertification},
		Next:    func(*model.OvertimeRequest) Status { return StatusHRCertified },
		apply: func(r *model.OvertimeRequest, actorID, remarks string, now time.Time) {
			r.HRApprovedAt = &now
			r.HRID = strPtr(actorID)
			setRemarks(&r.HRRemarks, remarks)
		},
	},
	{
		// HR 驳回按来源路线退回：Route B 退回指示主管确认，
		// Route A 退回初始验证——同一批内按条分区
		Role:    model.RoleHR,
		Action:  ActionReject,
		Sources: []Status{StatusSupervisorConfirmed, StatusSupervisorVerified, StatusPendingHRRecertification},
		Remarks: RemarksPolicy{Required: true},
		Next: func(r *model.OvertimeRequest) Status {
			if r.HasRespectiveSupervisor() {
				return StatusPendingRespectiveConfirmation
			}
			return StatusPendingVerification
		},
		apply: func(r *model.OvertimeRequest, actorID, remarks string, now time.Time) {
			r.RejectionStage = strPtr(StageHR)
			r.HRID = strPtr(actorID)
			setRemarks(&r.HRRemarks, remarks)
		},
	},

	// ── 管理层 ──
	{
		Role:    model.RoleManagement,
		Action:  ActionApprove,
		Sources: []Status{StatusHRCertified},
		Next:    func(*model.OvertimeRequest) Status { return StatusManagementApproved },
		apply: func(r *model.OvertimeRequest, actorID, remarks string, now time.Time) {
			r.ManagementReviewedAt = &now
			setRemarks(&r.ManagementRemarks, remarks)
		},
	},
	{
		// 管理层驳回不是终态拒绝：退回 HR 重新认证
		Role:    model.RoleManagement,
		Action:  ActionReject,
		Sources: []Status{StatusHRCertified},
		Remarks: RemarksPolicy{Required: true},
		Next:    func(*model.OvertimeRequest) Status { return StatusPendingHRRecertification },
		apply: func(r *model.OvertimeRequest, actorID, remarks string, now time.Time) {
			r.ManagementReviewedAt = &now
			r.RejectionStage = strPtr(StageManagement)
			setRemarks(&r.ManagementRemarks, remarks)
		},
	},
}

// Lookup 查找 (role, action) 对应的转移规则
func Lookup(role string, action Action) (*Rule, bool) {
	for i := range rules {
		if rules[i].Role == role && rules[i].Action == action {
			return &rules[i], true
		}
	}
	return nil, false
}

// Apply 执行已通过校验的转移：写入阶段时间戳与备注并更新状态，
// 返回实际目标状态。调用方负责持久化（含乐观锁版本检查）。
func Apply(req *model.OvertimeRequest, actorID, role string, action Action, remarks string, now time.Time) (Status, bool) {
	rule, ok := Lookup(role, action)
	if !ok {
		return "", false
	}
	next := rule.Next(req)
	rule.apply(req, actorID, remarks, now)
	req.Status = string(next)
	return next, true
}

// AllowedActions 枚举某角色在某状态下可执行的动作。
// UI 据此渲染操作按钮，避免在多处重复推导权限组合。
// 关系与路线约束（直属/指示主管、Route B、旧数据）仍由校验器逐条裁决。
func AllowedActions(role string, status Status) []Action {
	var result []Action
	for _, action := range allActions {
		rule, ok := Lookup(role, action)
		if !ok {
			continue
		}
		for _, src := range rule.Sources {
			if src == status {
				result = append(result, action)
				break
			}
		}
	}
	return result
}
