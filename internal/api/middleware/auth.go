package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Net-Geometry/otms-tidal-sub000/pkg/jwt"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/redis"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/response"
)

// 上下文键
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxClaims = "claims"
)

// JWTAuth JWT 鉴权中间件：校验 Bearer Token 并将身份注入上下文
func JWTAuth(jwtMgr *jwt.Manager, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.Unauthorized(c, 40101, "缺少认证信息")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			if err == jwt.ErrTokenExpired {
				response.Unauthorized(c, 40102, "token 已过期")
			} else {
				response.Unauthorized(c, 40103, "token 无效")
			}
			c.Abort()
			return
		}
		if claims.TokenType != "access" {
			response.Unauthorized(c, 40103, "token 无效")
			c.Abort()
			return
		}

		// 登出的 token 在黑名单中直到自然过期
		blacklisted, err := rdb.IsBlacklisted(c.Request.Context(), claims.ID)
		if err != nil || blacklisted {
			response.Unauthorized(c, 40104, "token 已失效")
			c.Abort()
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxClaims, claims)
		c.Next()
	}
}

// RoleAuth 角色鉴权中间件：仅允许指定角色访问
func RoleAuth(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		if !allowed[role] {
			response.Forbidden(c, 40301, "无权访问该资源")
			c.Abort()
			return
		}
		c.Next()
	}
}
