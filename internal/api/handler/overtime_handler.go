package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Net-Geometry/otms-tidal-sub000/internal/dto"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/service"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/workflow"
	apperrors "github.com/Net-Geometry/otms-tidal-sub000/pkg/errors"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/response"
)

// OvertimeHandler 加班申请接口
type OvertimeHandler struct {
	svc    service.OvertimeService
	logger *zap.Logger
}

// NewOvertimeHandler 创建 OvertimeHandler
func NewOvertimeHandler(svc service.OvertimeService, logger *zap.Logger) *OvertimeHandler {
	return &OvertimeHandler{svc: svc, logger: logger}
}

// Submit POST /api/v1/overtime
func (h *OvertimeHandler) Submit(c *gin.Context) {
	var req dto.SubmitOTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数无效")
		return
	}

	sessions, err := h.svc.Submit(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoSupervisorAssigned),
			errors.Is(err, service.ErrRespectiveIsDirect),
			errors.Is(err, service.ErrRespectiveNotSupervisor),
			errors.Is(err, service.ErrInvalidOTDate),
			errors.Is(err, service.ErrInvalidSession):
			response.BadRequest(c, 40010, err.Error())
		default:
			h.logger.Error("提交加班申请失败", zap.Error(err))
			response.InternalError(c)
		}
		return
	}
	response.Created(c, sessions)
}

// List GET /api/v1/overtime
func (h *OvertimeHandler) List(c *gin.Context) {
	var req dto.OTListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 40001, "查询参数无效")
		return
	}

	groups, total, err := h.svc.List(c.Request.Context(), currentActor(c), &req)
	if err != nil {
		if errors.Is(err, service.ErrNoListView) {
			response.Forbidden(c, 40302, err.Error())
			return
		}
		h.logger.Error("查询加班申请列表失败", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OKPage(c, groups, total, req.GetPage(), req.GetPageSize())
}

// Get GET /api/v1/overtime/:id
func (h *OvertimeHandler) Get(c *gin.Context) {
	result, err := h.svc.GetByID(c.Request.Context(), currentActor(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, service.ErrRequestNotFound) {
			response.NotFound(c, 40401, "加班申请不存在")
			return
		}
		h.logger.Error("查询加班申请失败", zap.Error(err))
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// AllowedActions GET /api/v1/overtime/actions?status=xxx
// 按当前角色与给定状态枚举可执行动作，供前端渲染操作按钮
func (h *OvertimeHandler) AllowedActions(c *gin.Context) {
	status := c.Query("status")
	result, err := h.svc.AllowedActions(currentRole(c), status)
	if err != nil {
		response.BadRequest(c, 40011, err.Error())
		return
	}
	response.OK(c, result)
}

// ── 批量审批动作 ──

type batchFn func(c *gin.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error)

// runBatch 七个审批动作共用的请求解析与错误映射
func (h *OvertimeHandler) runBatch(c *gin.Context, fn batchFn) {
	var req dto.BatchActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 40001, "请求参数无效")
		return
	}

	result, err := fn(c, currentActor(c), &req)
	if err != nil {
		h.batchError(c, result, err)
		return
	}
	response.OK(c, result)
}

// batchError 批处理错误映射。分区写入失败时 result 如实标注了
// 已提交的分区，随 409/500 一并返回。
func (h *OvertimeHandler) batchError(c *gin.Context, result *dto.BatchActionResult, err error) {
	var batchErr *workflow.BatchError
	switch {
	case errors.As(err, &batchErr):
		response.ErrorWithData(c, http.StatusBadRequest, 40020, "批量校验失败", batchErr.Items)
	case errors.Is(err, workflow.ErrUnknownAction):
		response.Forbidden(c, 40303, err.Error())
	case errors.Is(err, workflow.ErrEmptyBatch),
		errors.Is(err, workflow.ErrRemarksRequired),
		errors.Is(err, workflow.ErrRemarksTooLong),
		errors.Is(err, workflow.ErrDenialRemarksTooShort),
		errors.Is(err, workflow.ErrLegacyRequest):
		response.BadRequest(c, 40021, err.Error())
	case errors.Is(err, apperrors.ErrOptimisticLock):
		response.ErrorWithData(c, http.StatusConflict, 40901, err.Error(), result)
	default:
		h.logger.Error("批量审批失败", zap.Error(err))
		response.ErrorWithData(c, http.StatusInternalServerError, 50000, "服务器内部错误", result)
	}
}

// Approve POST /api/v1/overtime/approve
func (h *OvertimeHandler) Approve(c *gin.Context) {
	h.runBatch(c, func(c *gin.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error) {
		return h.svc.Approve(c.Request.Context(), actor, req)
	})
}

// Reject POST /api/v1/overtime/reject
func (h *OvertimeHandler) Reject(c *gin.Context) {
	h.runBatch(c, func(c *gin.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error) {
		return h.svc.Reject(c.Request.Context(), actor, req)
	})
}

// Confirm POST /api/v1/overtime/confirm
func (h *OvertimeHandler) Confirm(c *gin.Context) {
	h.runBatch(c, func(c *gin.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error) {
		return h.svc.Confirm(c.Request.Context(), actor, req)
	})
}

// RequestRespectiveConfirmation POST /api/v1/overtime/request-respective-confirmation
func (h *OvertimeHandler) RequestRespectiveConfirmation(c *gin.Context) {
	h.runBatch(c, func(c *gin.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error) {
		return h.svc.RequestRespectiveConfirmation(c.Request.Context(), actor, req)
	})
}

// ConfirmRespective POST /api/v1/overtime/confirm-respective
func (h *OvertimeHandler) ConfirmRespective(c *gin.Context) {
	h.runBatch(c, func(c *gin.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error) {
		return h.svc.ConfirmRespective(c.Request.Context(), actor, req)
	})
}

// DenyRespective POST /api/v1/overtime/deny-respective
func (h *OvertimeHandler) DenyRespective(c *gin.Context) {
	h.runBatch(c, func(c *gin.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error) {
		return h.svc.DenyRespective(c.Request.Context(), actor, req)
	})
}

// Revise POST /api/v1/overtime/revise
func (h *OvertimeHandler) Revise(c *gin.Context) {
	h.runBatch(c, func(c *gin.Context, actor workflow.Actor, req *dto.BatchActionRequest) (*dto.BatchActionResult, error) {
		return h.svc.Revise(c.Request.Context(), actor, req)
	})
}
