package workflow

// Action 审批动作
type Action string

const (
	// ActionApprove 批准：主管验证 / HR 认证 / 管理层核准（按角色分派）
	ActionApprove Action = "approve"
	// ActionReject 驳回：主管终态拒绝 / HR 按路线退回 / 管理层退回 HR 重审
	ActionReject Action = "reject"
	// ActionConfirm 直属主管最终确认（Route B 子流程）
	ActionConfirm Action = "confirm"
	// ActionRequestRespectiveConfirmation 请求指示主管确认
	ActionRequestRespectiveConfirmation Action = "request_respective_confirmation"
	// ActionConfirmRespective 指示主管确认
	ActionConfirmRespective Action = "confirm_respective"
	// ActionDenyRespective 指示主管拒绝（需 ≥10 字符拒绝理由）
	ActionDenyRespective Action = "deny_respective"
	// ActionRevise 直属主管修订被拒申请并重新送审
	ActionRevise Action = "revise"
)

// allActions 固定枚举顺序，用于生成 (role, status) → actions 表
var allActions = []Action{
	ActionApprove,
	ActionReject,
	ActionConfirm,
	ActionRequestRespectiveConfirmation,
	ActionConfirmRespective,
	ActionDenyRespective,
	ActionRevise,
}
