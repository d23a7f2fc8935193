package model

// 角色常量
const (
	RoleEmployee   = "employee"
	RoleSupervisor = "supervisor"
	RoleHR         = "hr"
	RoleManagement = "management"
	RoleAdmin      = "admin"
)

// User 员工表 — 对应 users
type User struct {
	UserID             string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name               string  `gorm:"type:varchar(100);not null"                     json:"name"`
	EmployeeNo         string  `gorm:"type:varchar(50);not null;uniqueIndex"          json:"employee_no"`
	Email              string  `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash       string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role               string  `gorm:"type:varchar(20);not null;default:'employee'"   json:"role"` // employee | supervisor | hr | management | admin
	SupervisorID       *string `gorm:"type:uuid"                                      json:"supervisor_id,omitempty"`
	MustChangePassword bool    `gorm:"not null;default:true"                          json:"must_change_password"`
	VersionedModel

	// 关联
	Supervisor *User `gorm:"foreignKey:SupervisorID;references:UserID" json:"supervisor,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }
