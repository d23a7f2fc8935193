package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Net-Geometry/otms-tidal-sub000/internal/dto"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/model"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/repository"
)

// ── 用户管理错误 ──

var (
	ErrEmployeeNoExists     = errors.New("工号已存在")
	ErrEmailExists          = errors.New("邮箱已被使用")
	ErrSupervisorNotFound   = errors.New("指定的直属主管不存在")
	ErrSupervisorWrongRole  = errors.New("直属主管必须是主管角色的用户")
	ErrSupervisorIsRequired = errors.New("员工角色必须配置直属主管")
)

// UserService 用户管理业务接口（管理员）
type UserService interface {
	Create(ctx context.Context, creatorID string, req *dto.CreateUserRequest) (*dto.CreateUserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
}

// userService UserService 实现
type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// Create 创建员工账号：随机初始密码，首次登录强制修改
func (s *userService) Create(ctx context.Context, creatorID string, req *dto.CreateUserRequest) (*dto.CreateUserResponse, error) {
	if _, err := s.repo.User.GetByEmployeeNo(ctx, req.EmployeeNo); err == nil {
		return nil, ErrEmployeeNoExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if _, err := s.repo.User.GetByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 员工必须有直属主管，否则提交的申请无人验证
	if req.Role == model.RoleEmployee && (req.SupervisorID == nil || *req.SupervisorID == "") {
		return nil, ErrSupervisorIsRequired
	}
	if req.SupervisorID != nil && *req.SupervisorID != "" {
		supervisor, err := s.repo.User.GetByID(ctx, *req.SupervisorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSupervisorNotFound
			}
			return nil, err
		}
		if supervisor.Role != model.RoleSupervisor {
			return nil, ErrSupervisorWrongRole
		}
	}

	tempPassword, err := generateTempPassword()
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:               req.Name,
		EmployeeNo:         req.EmployeeNo,
		Email:              req.Email,
		PasswordHash:       string(hash),
		Role:               req.Role,
		SupervisorID:       req.SupervisorID,
		MustChangePassword: true,
	}
	user.CreatedBy = &creatorID

	if err := s.repo.User.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("创建员工账号",
		zap.String("user_id", user.UserID),
		zap.String("employee_no", user.EmployeeNo),
		zap.String("role", user.Role))

	return &dto.CreateUserResponse{
		User:         toUserResponse(user),
		TempPassword: tempPassword,
	}, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	filters := &repository.UserListFilters{Role: req.Role, Keyword: req.Keyword}
	users, total, err := s.repo.User.List(ctx, filters, req.GetOffset(), req.GetPageSize())
	if err != nil {
		return nil, 0, err
	}

	out := make([]dto.UserResponse, len(users))
	for i := range users {
		out[i] = *toUserResponse(&users[i])
	}
	return out, total, nil
}

// generateTempPassword 生成 12 位十六进制随机初始密码
func generateTempPassword() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func toUserResponse(user *model.User) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:                 user.UserID,
		Name:               user.Name,
		EmployeeNo:         user.EmployeeNo,
		Email:              user.Email,
		Role:               user.Role,
		SupervisorID:       user.SupervisorID,
		MustChangePassword: user.MustChangePassword,
	}
	if user.Supervisor != nil {
		resp.SupervisorName = user.Supervisor.Name
	}
	return resp
}
