package workflow

import "github.com/Net-Geometry/otms-tidal-sub000/internal/model"

// Filter 列表查询的状态过滤器（UI 的 tab）
type Filter string

const (
	FilterPending   Filter = "pending" // 默认：等待该角色处理的队列
	FilterCompleted Filter = "completed"
	FilterRejected  Filter = "rejected"
	FilterAll       Filter = "all"
)

// Scope 可见范围的限定方式
type Scope int

const (
	// ScopeEmployee 仅本人提交的申请
	ScopeEmployee Scope = iota
	// ScopeSupervisor 按直属/指示主管关系分别限定状态集
	ScopeSupervisor
	// ScopeGlobal 不按关系限定（HR / 管理层按状态集全量可见）
	ScopeGlobal
)

// VisibilityRule (role, filter) 的声明式可见性谓词。
// ScopeSupervisor 时 DirectStatuses / RespectiveStatuses 分别约束
// supervisor_id 与 respective_supervisor_id 匹配时可见的状态：
// 主管绝不能看到自己仅为直属主管、正在等待指示主管确认的申请。
type VisibilityRule struct {
	Scope              Scope
	Statuses           []Status // ScopeEmployee / ScopeGlobal 使用
	DirectStatuses     []Status // ScopeSupervisor：作为直属主管可见
	RespectiveStatuses []Status // ScopeSupervisor：作为指示主管可见
}

var supervisorPendingDirect = []Status{
	StatusPendingVerification,
	StatusPendingSupervisorConfirmation,
	StatusPendingSupervisorReview,
}

var visibilityTable = map[string]map[Filter]VisibilityRule{
	model.RoleEmployee: {
		FilterPending: {Scope: ScopeEmployee, Statuses: []Status{
			StatusPendingVerification, StatusPendingSupervisorConfirmation,
			StatusPendingRespectiveConfirmation, StatusPendingSupervisorReview,
			StatusSupervisorConfirmed, StatusSupervisorVerified,
			StatusHRCertified, StatusPendingHRRecertification,
		}},
		FilterCompleted: {Scope: ScopeEmployee, Statuses: CompletedStatuses},
		FilterRejected:  {Scope: ScopeEmployee, Statuses: []Status{StatusRejected}},
		FilterAll:       {Scope: ScopeEmployee, Statuses: AllStatuses},
	},
	model.RoleSupervisor: {
		FilterPending: {
			Scope:              ScopeSupervisor,
			DirectStatuses:     supervisorPendingDirect,
			RespectiveStatuses: []Status{StatusPendingRespectiveConfirmation},
		},
		FilterCompleted: {
			Scope:              ScopeSupervisor,
			DirectStatuses:     CompletedStatuses,
			RespectiveStatuses: CompletedStatuses,
		},
		FilterRejected: {
			Scope:              ScopeSupervisor,
			DirectStatuses:     []Status{StatusRejected},
			RespectiveStatuses: []Status{StatusRejected},
		},
		FilterAll: {
			Scope:              ScopeSupervisor,
			DirectStatuses:     AllStatuses,
			RespectiveStatuses: AllStatuses,
		},
	},
	model.RoleHR: {
		// supervisor_verified 同时覆盖旧流程数据（确认时间戳为空）
		FilterPending: {Scope: ScopeGlobal, Statuses: []Status{
			StatusSupervisorConfirmed, StatusSupervisorVerified, StatusPendingHRRecertification,
		}},
		FilterCompleted: {Scope: ScopeGlobal, Statuses: []Status{
			StatusHRCertified, StatusManagementApproved,
		}},
		FilterRejected: {Scope: ScopeGlobal, Statuses: []Status{StatusRejected}},
		FilterAll:      {Scope: ScopeGlobal, Statuses: AllStatuses},
	},
	model.RoleManagement: {
		FilterPending:   {Scope: ScopeGlobal, Statuses: []Status{StatusHRCertified}},
		FilterCompleted: {Scope: ScopeGlobal, Statuses: []Status{StatusManagementApproved}},
		FilterRejected:  {Scope: ScopeGlobal, Statuses: []Status{StatusRejected}},
		FilterAll:       {Scope: ScopeGlobal, Statuses: AllStatuses},
	},
}

// Visibility 查询 (role, filter) 的可见性规则；filter 为空按 pending
func Visibility(role string, filter Filter) (VisibilityRule, bool) {
	if filter == "" {
		filter = FilterPending
	}
	byFilter, ok := visibilityTable[role]
	if !ok {
		return VisibilityRule{}, false
	}
	rule, ok := byFilter[filter]
	return rule, ok
}
