package workflow

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Net-Geometry/otms-tidal-sub000/internal/model"
)

// ── 校验错误 ──

var (
	ErrUnknownAction = errors.New("该角色不支持此操作")
	ErrEmptyBatch    = errors.New("申请 ID 列表不能为空")
	// ErrLegacyRequest 旧数据：确认子流程上线前的 supervisor_verified 申请，
	// 确认/拒绝操作会破坏状态，必须以独立错误拒绝
	ErrLegacyRequest         = errors.New("该申请为旧流程数据，不支持确认或拒绝操作")
	ErrRemarksRequired       = errors.New("驳回/拒绝操作必须填写备注")
	ErrRemarksTooLong        = fmt.Errorf("备注不能超过 %d 字符", RemarksMaxLen)
	ErrDenialRemarksTooShort = fmt.Errorf("拒绝理由不能少于 %d 字符", DenialRemarksMinLen)
)

// Actor 发起操作的身份（鉴权层注入的 acting user identity）
type Actor struct {
	ID   string
	Role string
}

// ItemError 批量校验中单条申请的失败原因
type ItemError struct {
	RequestID string `json:"request_id"`
	Reason    string `json:"reason"`
}

// BatchError 批量校验的聚合错误：列出每一条无效申请及原因，
// 调用方可据此精确提示哪些选中项不合法。批处理全有或全无，
// 任一成员无效即中止整批、零写入。
type BatchError struct {
	Items []ItemError `json:"items"`
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		parts = append(parts, fmt.Sprintf("%s: %s", item.RequestID, item.Reason))
	}
	return "批量校验失败: " + strings.Join(parts, "; ")
}

// ── 校验 ──

// ValidateRemarks 校验备注是否满足动作的长度与必填要求
func ValidateRemarks(rule *Rule, remarks string) error {
	n := utf8.RuneCountInString(remarks)
	if rule.Remarks.Required && strings.TrimSpace(remarks) == "" {
		return ErrRemarksRequired
	}
	if rule.Remarks.MinLen > 0 && n < rule.Remarks.MinLen {
		return ErrDenialRemarksTooShort
	}
	if n > RemarksMaxLen {
		return ErrRemarksTooLong
	}
	return nil
}

// validateOne 对单条申请执行动作前置校验，返回失败原因（空串为通过）。
// 顺序：旧数据检测 → 状态检查 → 关系/路线鉴权。
func validateOne(actor Actor, rule *Rule, req *model.OvertimeRequest) string {
	// 旧数据对确认/拒绝类动作以独立错误拒绝，优先于普通状态错误
	if req.IsLegacy() {
		switch rule.Action {
		case ActionConfirm, ActionConfirmRespective, ActionDenyRespective:
			return ErrLegacyRequest.Error()
		}
	}

	statusOK := false
	for _, src := range rule.Sources {
		if Status(req.Status) == src {
			statusOK = true
			break
		}
	}
	if !statusOK {
		return fmt.Sprintf("当前状态 %s 不允许执行 %s", req.Status, rule.Action)
	}

	if rule.RequiresRouteB && !req.HasRespectiveSupervisor() {
		return "该申请无指示主管，不适用双主管流程操作"
	}
	if rule.RequiresDirect && req.SupervisorID != actor.ID {
		return "操作人不是该申请的直属主管"
	}
	if rule.RequiresRespective &&
		(req.RespectiveSupervisorID == nil || *req.RespectiveSupervisorID != actor.ID) {
		return "操作人不是该申请的指示主管"
	}

	return ""
}

// ValidateBatch 对整批申请执行校验。
// requested 为调用方给出的 ID 顺序，reqs 为实际读到的记录；
// 缺失的 ID 与逐条失败一并聚合为一个 BatchError。
func ValidateBatch(actor Actor, action Action, requested []string, reqs map[string]*model.OvertimeRequest, remarks string) error {
	if len(requested) == 0 {
		return ErrEmptyBatch
	}

	rule, ok := Lookup(actor.Role, action)
	if !ok {
		return ErrUnknownAction
	}

	// 备注约束对整批生效，先于逐条校验
	if err := ValidateRemarks(rule, remarks); err != nil {
		return err
	}

	var batchErr BatchError
	for _, id := range requested {
		req, found := reqs[id]
		if !found {
			batchErr.Items = append(batchErr.Items, ItemError{RequestID: id, Reason: "申请不存在"})
			continue
		}
		if reason := validateOne(actor, rule, req); reason != "" {
			batchErr.Items = append(batchErr.Items, ItemError{RequestID: id, Reason: reason})
		}
	}

	if len(batchErr.Items) > 0 {
		return &batchErr
	}
	return nil
}
