package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/Net-Geometry/otms-tidal-sub000/config"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/dto"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/repository"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/jwt"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/redis"
)

// ── 认证错误 ──

var (
	ErrInvalidCredentials = errors.New("工号或密码错误")
	ErrInvalidRefresh     = errors.New("refresh token 无效")
	ErrOldPasswordWrong   = errors.New("原密码错误")
)

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, claims *jwt.Claims) error
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
	GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error)
}

// authService AuthService 实现
type authService struct {
	cfg    *config.AuthConfig
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	rdb    *redis.Client
	logger *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(cfg *config.Config, repo *repository.Repository, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) AuthService {
	return &authService{cfg: &cfg.Auth, repo: repo, jwtMgr: jwtMgr, rdb: rdb, logger: logger}
}

// Login 工号 + 密码登录，签发 Token 对
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.repo.User.GetByEmployeeNo(ctx, req.EmployeeNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 不区分工号不存在和密码错误
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("登录密码错误", zap.String("employee_no", req.EmployeeNo))
		return nil, ErrInvalidCredentials
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, req.RememberMe)
	if err != nil {
		return nil, err
	}

	s.logger.Info("用户登录",
		zap.String("user_id", user.UserID),
		zap.String("role", user.Role))

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.AccessTokenTTL.Seconds()),
		User:         *toUserResponse(user),
	}, nil
}

// RefreshToken 刷新 Token 对：旧 refresh token 立即加入黑名单（轮换）
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != "refresh" {
		return nil, ErrInvalidRefresh
	}

	blacklisted, err := s.rdb.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, ErrInvalidRefresh
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	accessToken, err := s.jwtMgr.GenerateAccessToken(user.UserID, user.Role)
	if err != nil {
		return nil, err
	}
	newRefresh, err := s.jwtMgr.GenerateRefreshToken(user.UserID, user.Role, claims.RememberMe)
	if err != nil {
		return nil, err
	}

	if err := s.rdb.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		s.logger.Warn("旧 refresh token 加入黑名单失败", zap.Error(err))
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefresh,
		ExpiresIn:    int(s.cfg.AccessTokenTTL.Seconds()),
		User:         *toUserResponse(user),
	}, nil
}

// Logout 将当前 access token 加入黑名单
func (s *authService) Logout(ctx context.Context, claims *jwt.Claims) error {
	return s.rdb.BlacklistToken(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

// ChangePassword 修改密码，并清除首次登录强制改密标记
func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrOldPasswordWrong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	user.PasswordHash = string(hash)
	user.MustChangePassword = false
	if err := s.repo.User.Update(ctx, user); err != nil {
		return err
	}

	s.logger.Info("用户修改密码", zap.String("user_id", userID))
	return nil
}

func (s *authService) GetCurrentUser(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}
