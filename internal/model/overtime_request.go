package model

import "time"

// OvertimeRequest 加班申请表 — 对应 overtime_requests
// 一条记录对应员工提交的一个连续加班时段；同一天的多个时段是多条记录，
// 审批操作按 (employee_id, ot_date) 分组后对整组记录批量执行。
type OvertimeRequest struct {
	RequestID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	EmployeeID string    `gorm:"type:uuid;not null;index:idx_ot_requests_employee_date" json:"employee_id"`
	OTDate     time.Time `gorm:"type:date;not null;index:idx_ot_requests_employee_date" json:"ot_date"`
	StartTime  time.Time `gorm:"not null"                                       json:"start_time"`
	EndTime    time.Time `gorm:"not null"                                       json:"end_time"`
	TotalHours float64   `gorm:"type:numeric(5,2);not null"                     json:"total_hours"`

	// 路由：direct supervisor 来自员工档案；respective supervisor 为
	// 指示加班的主管（Route B），可为空（Route A）。
	SupervisorID           string  `gorm:"type:uuid;not null" json:"supervisor_id"`
	RespectiveSupervisorID *string `gorm:"type:uuid"          json:"respective_supervisor_id,omitempty"`

	// 工作流状态
	Status         string  `gorm:"type:varchar(50);not null;default:'pending_verification';index" json:"status"`
	RejectionStage *string `gorm:"type:varchar(20)" json:"rejection_stage,omitempty"` // supervisor | respective_supervisor | hr | management

	// 各审批阶段的时间戳 + 备注。时间戳一旦写入不可覆盖，修正通过新的
	// 阶段记录而非改写历史。
	SupervisorVerifiedAt              *time.Time `json:"supervisor_verified_at,omitempty"`
	SupervisorRemarks                 *string    `gorm:"type:varchar(500)" json:"supervisor_remarks,omitempty"`
	SupervisorConfirmationAt          *time.Time `json:"supervisor_confirmation_at,omitempty"`
	SupervisorConfirmationRemarks     *string    `gorm:"type:varchar(500)" json:"supervisor_confirmation_remarks,omitempty"`
	RespectiveSupervisorConfirmedAt   *time.Time `json:"respective_supervisor_confirmed_at,omitempty"`
	RespectiveSupervisorRemarks       *string    `gorm:"type:varchar(500)" json:"respective_supervisor_remarks,omitempty"`
	RespectiveSupervisorDeniedAt      *time.Time `json:"respective_supervisor_denied_at,omitempty"`
	RespectiveSupervisorDenialRemarks *string    `gorm:"type:varchar(500)" json:"respective_supervisor_denial_remarks,omitempty"`
	HRApprovedAt                      *time.Time `json:"hr_approved_at,omitempty"`
	HRID                              *string    `gorm:"type:uuid"         json:"hr_id,omitempty"`
	HRRemarks                         *string    `gorm:"type:varchar(500)" json:"hr_remarks,omitempty"`
	ManagementReviewedAt              *time.Time `json:"management_reviewed_at,omitempty"`
	ManagementRemarks                 *string    `gorm:"type:varchar(500)" json:"management_remarks,omitempty"`

	// 提交内容与薪资字段；薪资字段由外部费率计算器在提交时赋值，
	// 引擎不重新计算。
	Reason         string      `gorm:"type:text"         json:"reason"`
	AttachmentURLs StringArray `gorm:"type:text[]"       json:"attachment_urls,omitempty"` // 最多 5 个
	DayType        string      `gorm:"type:varchar(20)"  json:"day_type"`
	ORP            float64     `gorm:"type:numeric(10,4)" json:"orp"`
	HRP            float64     `gorm:"type:numeric(10,4)" json:"hrp"`
	OTAmount       float64     `gorm:"type:numeric(12,2)" json:"ot_amount"`

	VersionedModel

	// 关联
	Employee             *User `gorm:"foreignKey:EmployeeID;references:UserID"             json:"employee,omitempty"`
	Supervisor           *User `gorm:"foreignKey:SupervisorID;references:UserID"           json:"supervisor,omitempty"`
	RespectiveSupervisor *User `gorm:"foreignKey:RespectiveSupervisorID;references:UserID" json:"respective_supervisor,omitempty"`
}

// TableName 指定表名
func (OvertimeRequest) TableName() string { return "overtime_requests" }

// HasRespectiveSupervisor 是否走双主管路线（Route B）
func (r *OvertimeRequest) HasRespectiveSupervisor() bool {
	return r.RespectiveSupervisorID != nil && *r.RespectiveSupervisorID != ""
}

// IsLegacy 旧数据：确认子流程上线前已验证的申请，
// 特征为 supervisor_verified 状态但确认时间戳为空。
func (r *OvertimeRequest) IsLegacy() bool {
	return r.Status == "supervisor_verified" && r.SupervisorConfirmationAt == nil
}
