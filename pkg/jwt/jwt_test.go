package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/Net-Geometry/otms-tidal-sub000/config"
)

func testManager() *Manager {
	return NewManager(&config.AuthConfig{
		JWTSecret:               "test-secret-0123456789abcdef",
		AccessTokenTTL:          15 * time.Minute,
		RefreshTokenTTLDefault:  24 * time.Hour,
		RefreshTokenTTLRemember: 168 * time.Hour,
	})
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := testManager()

	token, err := m.GenerateAccessToken("user-1", "supervisor")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != "user-1" || claims.Role != "supervisor" || claims.TokenType != "access" {
		t.Errorf("claims 解析错误: %+v", claims)
	}
	if claims.ID == "" {
		t.Error("JWT ID 不应为空（黑名单依赖）")
	}
}

func TestRefreshTokenCarriesRememberMe(t *testing.T) {
	m := testManager()

	token, err := m.GenerateRefreshToken("user-1", "employee", true)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.TokenType != "refresh" || !claims.RememberMe {
		t.Errorf("refresh claims 错误: %+v", claims)
	}
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _ := testManager().GenerateAccessToken("user-1", "hr")

	other := NewManager(&config.AuthConfig{
		JWTSecret:      "another-secret-0123456789abcdef",
		AccessTokenTTL: 15 * time.Minute,
	})
	if _, err := other.ParseToken(token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("错误密钥应返回 ErrTokenInvalid，实际 %v", err)
	}
}

func TestParseToken_Garbage(t *testing.T) {
	if _, err := testManager().ParseToken("not.a.token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("非法 token 应返回 ErrTokenInvalid，实际 %v", err)
	}
}
