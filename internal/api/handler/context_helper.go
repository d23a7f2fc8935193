package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Net-Geometry/otms-tidal-sub000/internal/api/middleware"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/workflow"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/jwt"
)

// currentUserID 从上下文取当前用户 ID（鉴权中间件已注入）
func currentUserID(c *gin.Context) string {
	return c.GetString(middleware.CtxUserID)
}

// currentRole 从上下文取当前用户角色
func currentRole(c *gin.Context) string {
	return c.GetString(middleware.CtxRole)
}

// currentActor 组装工作流操作身份
func currentActor(c *gin.Context) workflow.Actor {
	return workflow.Actor{ID: currentUserID(c), Role: currentRole(c)}
}

// currentClaims 从上下文取 JWT Claims
func currentClaims(c *gin.Context) *jwt.Claims {
	if v, ok := c.Get(middleware.CtxClaims); ok {
		if claims, ok := v.(*jwt.Claims); ok {
			return claims
		}
	}
	return nil
}
