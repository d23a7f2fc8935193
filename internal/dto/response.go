package dto

// ── 认证模块响应 ──

// TokenResponse Token 对响应
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in"` // Access Token 有效期（秒）
	User         UserResponse `json:"user"`
}

// ── 用户模块 ──

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	EmployeeNo         string  `json:"employee_no"`
	Email              string  `json:"email"`
	Role               string  `json:"role"`
	SupervisorID       *string `json:"supervisor_id,omitempty"`
	SupervisorName     string  `json:"supervisor_name,omitempty"`
	MustChangePassword bool    `json:"must_change_password"`
}

// CreateUserRequest 创建员工（管理员）
type CreateUserRequest struct {
	Name         string  `json:"name"          binding:"required,min=2,max=50"`
	EmployeeNo   string  `json:"employee_no"   binding:"required"`
	Email        string  `json:"email"         binding:"required,email"`
	Role         string  `json:"role"          binding:"required,oneof=employee supervisor hr management admin"`
	SupervisorID *string `json:"supervisor_id" binding:"omitempty,uuid"`
}

// CreateUserResponse 创建结果（含初始密码）
type CreateUserResponse struct {
	User         *UserResponse `json:"user"`
	TempPassword string        `json:"temp_password"`
}

// UserListRequest 用户列表过滤
type UserListRequest struct {
	Role    string `form:"role"    binding:"omitempty,oneof=employee supervisor hr management admin"`
	Keyword string `form:"keyword" binding:"omitempty,max=50"`
	PaginationRequest
}

// ── 通知模块 ──

// NotificationResponse 站内通知
type NotificationResponse struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	IsRead      bool    `json:"is_read"`
	RelatedType *string `json:"related_type,omitempty"`
	RelatedID   *string `json:"related_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// MarkReadRequest 批量标记已读
type MarkReadRequest struct {
	IDs []string `json:"ids" binding:"required,min=1,dive,uuid"`
}

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
