package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Net-Geometry/otms-tidal-sub000/config"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/api/handler"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/api/middleware"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/model"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/jwt"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/redis"
)

// New 组装路由
func New(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	if cfg.Log.Format != "console" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(&cfg.Server.CORS),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	auth := middleware.JWTAuth(jwtMgr, rdb)

	// ── 认证 ──
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.RefreshToken)
		authGroup.POST("/logout", auth, h.Auth.Logout)
		authGroup.PUT("/password", auth, h.Auth.ChangePassword)
		authGroup.GET("/me", auth, h.Auth.Me)
	}

	// ── 加班申请 ──
	ot := v1.Group("/overtime", auth)
	{
		ot.POST("", middleware.RoleAuth(model.RoleEmployee), h.Overtime.Submit)
		ot.GET("", h.Overtime.List)
		ot.GET("/actions", h.Overtime.AllowedActions)
		ot.GET("/export", middleware.RoleAuth(model.RoleHR), h.Export.ExportPayroll)
		ot.GET("/:id", h.Overtime.Get)

		// 批量审批动作；(role, action) 组合的细粒度裁决在工作流校验层
		reviewers := middleware.RoleAuth(model.RoleSupervisor, model.RoleHR, model.RoleManagement)
		supervisorOnly := middleware.RoleAuth(model.RoleSupervisor)
		ot.POST("/approve", reviewers, h.Overtime.Approve)
		ot.POST("/reject", reviewers, h.Overtime.Reject)
		ot.POST("/confirm", supervisorOnly, h.Overtime.Confirm)
		ot.POST("/request-respective-confirmation", supervisorOnly, h.Overtime.RequestRespectiveConfirmation)
		ot.POST("/confirm-respective", supervisorOnly, h.Overtime.ConfirmRespective)
		ot.POST("/deny-respective", supervisorOnly, h.Overtime.DenyRespective)
		ot.POST("/revise", supervisorOnly, h.Overtime.Revise)
	}

	// ── 站内通知 ──
	notifications := v1.Group("/notifications", auth)
	{
		notifications.GET("", h.Notification.List)
		notifications.POST("/read", h.Notification.MarkRead)
	}

	// ── 用户管理（管理员）──
	users := v1.Group("/users", auth, middleware.RoleAuth(model.RoleAdmin))
	{
		users.POST("", h.User.Create)
		users.GET("", h.User.List)
		users.GET("/:id", h.User.Get)
	}

	return r
}
