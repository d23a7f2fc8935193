package dto

import "time"

// ── 加班申请模块 DTO ──

// OTSessionInput 提交的单个连续加班时段
type OTSessionInput struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time"   binding:"required"`
}

// SubmitOTRequest 员工提交加班申请（一天内可含多个时段，逐时段成行）
type SubmitOTRequest struct {
	OTDate                 string           `json:"ot_date"  binding:"required"` // YYYY-MM-DD
	Sessions               []OTSessionInput `json:"sessions" binding:"required,min=1,max=10"`
	Reason                 string           `json:"reason"   binding:"required,max=1000"`
	AttachmentURLs         []string         `json:"attachment_urls" binding:"omitempty,max=5,dive,url"`
	RespectiveSupervisorID *string          `json:"respective_supervisor_id" binding:"omitempty,uuid"`
}

// BatchActionRequest 批量审批动作请求：一组申请 ID + 单一动作语义
type BatchActionRequest struct {
	RequestIDs []string `json:"request_ids" binding:"required,min=1,dive,uuid"`
	Remarks    string   `json:"remarks"     binding:"omitempty,max=500"`
}

// OTListRequest 列表查询参数
type OTListRequest struct {
	Filter string `form:"filter" binding:"omitempty,oneof=pending completed rejected all"`
	PaginationRequest
}

// ── 响应 ──

// OTSessionResponse 单条加班时段（一行记录）
type OTSessionResponse struct {
	RequestID      string     `json:"request_id"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	TotalHours     float64    `json:"total_hours"`
	Status         string     `json:"status"`
	DayType        string     `json:"day_type"`
	ORP            float64    `json:"orp"`
	HRP            float64    `json:"hrp"`
	OTAmount       float64    `json:"ot_amount"`
	Reason         string     `json:"reason"`
	AttachmentURLs []string   `json:"attachment_urls,omitempty"`
	RejectionStage *string    `json:"rejection_stage,omitempty"`
	DeniedAt       *time.Time `json:"respective_supervisor_denied_at,omitempty"`
	DenialRemarks  *string    `json:"respective_supervisor_denial_remarks,omitempty"`
	Version        int        `json:"version"`
}

// GroupedOTRequest 读模型：同一 (employee_id, ot_date) 的全部时段聚合为
// 一张卡片；批量动作作用于 request_ids 全集，整天原子处理。不落库。
type GroupedOTRequest struct {
	EmployeeID   string              `json:"employee_id"`
	EmployeeName string              `json:"employee_name"`
	EmployeeNo   string              `json:"employee_no"`
	OTDate       string              `json:"ot_date"`
	Status       string              `json:"status"`
	TotalHours   float64             `json:"total_hours"`
	OTAmount     float64             `json:"ot_amount"`
	RequestIDs   []string            `json:"request_ids"`
	Sessions     []OTSessionResponse `json:"sessions"`
}

// PartitionResult 批处理中一个分区的写入结果
type PartitionResult struct {
	Status     string   `json:"status"`
	RequestIDs []string `json:"request_ids"`
	Committed  bool     `json:"committed"`
}

// BatchActionResult 批量动作的执行结果：受影响的全部 ID 与
// 各分区的目标状态，调用方与通知器据此分支。
type BatchActionResult struct {
	Action     string            `json:"action"`
	RequestIDs []string          `json:"request_ids"`
	Partitions []PartitionResult `json:"partitions"`
}

// AllowedActionsResponse (role, status) → 可执行动作
type AllowedActionsResponse struct {
	Role    string   `json:"role"`
	Status  string   `json:"status"`
	Actions []string `json:"actions"`
}
