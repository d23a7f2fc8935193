package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Net-Geometry/otms-tidal-sub000/config"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/dto"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/model"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/jwt"
)

func newTestAuthService(users ...*model.User) (AuthService, *mockUserRepo) {
	userRepo := newMockUserRepo(users...)
	cfg := &config.Config{Auth: config.AuthConfig{
		JWTSecret:               "test-secret-0123456789abcdef",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 168 * time.Hour,
	}}
	// Login / ChangePassword 不触达 Redis，测试传 nil
	svc := NewAuthService(cfg, testRepo(userRepo, newMockOvertimeRepo()),
		jwt.NewManager(&cfg.Auth), nil, zap.NewNop())
	return svc, userRepo
}

func hashedUser(employeeNo, password string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &model.User{
		UserID:             "user-" + employeeNo,
		Name:               "测试用户",
		EmployeeNo:         employeeNo,
		Email:              employeeNo + "@example.com",
		PasswordHash:       string(hash),
		Role:               model.RoleEmployee,
		MustChangePassword: true,
	}
}

func TestLogin_Success(t *testing.T) {
	svc, _ := newTestAuthService(hashedUser("E001", "secret123"))

	result, err := svc.Login(context.Background(), &dto.LoginRequest{
		EmployeeNo: "E001", Password: "secret123",
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("应签发 token 对")
	}
	if result.User.EmployeeNo != "E001" || !result.User.MustChangePassword {
		t.Errorf("用户信息错误: %+v", result.User)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestAuthService(hashedUser("E001", "secret123"))

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		EmployeeNo: "E001", Password: "wrong",
	})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际 %v", err)
	}
}

func TestLogin_UnknownEmployeeNo(t *testing.T) {
	svc, _ := newTestAuthService()

	_, err := svc.Login(context.Background(), &dto.LoginRequest{
		EmployeeNo: "E999", Password: "x",
	})
	// 工号不存在与密码错误同样报凭证错误
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("期望 ErrInvalidCredentials，实际 %v", err)
	}
}

func TestChangePassword_ClearsMustChangeFlag(t *testing.T) {
	user := hashedUser("E001", "oldpass123")
	svc, userRepo := newTestAuthService(user)

	err := svc.ChangePassword(context.Background(), user.UserID, &dto.ChangePasswordRequest{
		OldPassword: "oldpass123", NewPassword: "newpass456",
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, _ := userRepo.GetByID(context.Background(), user.UserID)
	if updated.MustChangePassword {
		t.Error("改密后应清除强制改密标记")
	}
	if bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newpass456")) != nil {
		t.Error("新密码未生效")
	}
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	user := hashedUser("E001", "oldpass123")
	svc, _ := newTestAuthService(user)

	err := svc.ChangePassword(context.Background(), user.UserID, &dto.ChangePasswordRequest{
		OldPassword: "nope", NewPassword: "newpass456",
	})
	if !errors.Is(err, ErrOldPasswordWrong) {
		t.Errorf("期望 ErrOldPasswordWrong，实际 %v", err)
	}
}
