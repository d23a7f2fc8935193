package workflow

// Status 加班申请的审批状态
type Status string

const (
	// 待直属主管验证（员工提交后的初始状态）
	StatusPendingVerification Status = "pending_verification"
	// Route B：已验证，待直属主管最终确认
	StatusPendingSupervisorConfirmation Status = "pending_supervisor_confirmation"
	// Route B：待指示主管（respective supervisor）确认
	StatusPendingRespectiveConfirmation Status = "pending_respective_supervisor_confirmation"
	// Route B：指示主管拒绝后退回直属主管修订
	StatusPendingSupervisorReview Status = "pending_supervisor_review"
	// Route A 单步批准 / Route B 指示主管未确认时的确认结果
	StatusSupervisorConfirmed Status = "supervisor_confirmed"
	// Route B：双主管均已签核
	StatusSupervisorVerified Status = "supervisor_verified"
	// HR 已认证，待管理层审批
	StatusHRCertified Status = "hr_certified"
	// 管理层驳回，待 HR 重新认证
	StatusPendingHRRecertification Status = "pending_hr_recertification"
	// 管理层批准，可进入薪资结算（终态）
	StatusManagementApproved Status = "management_approved"
	// 已拒绝（终态，重新申请需要新记录）
	StatusRejected Status = "rejected"
)

// AllStatuses 全部状态的固定枚举顺序
var AllStatuses = []Status{
	StatusPendingVerification,
	StatusPendingSupervisorConfirmation,
	StatusPendingRespectiveConfirmation,
	StatusPendingSupervisorReview,
	StatusSupervisorConfirmed,
	StatusSupervisorVerified,
	StatusHRCertified,
	StatusPendingHRRecertification,
	StatusManagementApproved,
	StatusRejected,
}

// CompletedStatuses "已完成" 派生过滤器覆盖的状态集
var CompletedStatuses = []Status{
	StatusSupervisorVerified,
	StatusHRCertified,
	StatusManagementApproved,
}

// Valid 是否为合法状态值
func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal 是否为终态：rejected 死路，management_approved 进入薪资
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusManagementApproved
}
