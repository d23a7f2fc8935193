package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Net-Geometry/otms-tidal-sub000/internal/service"
	"github.com/Net-Geometry/otms-tidal-sub000/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 薪资导出接口（HR）
type ExportHandler struct {
	svc    service.ExportService
	logger *zap.Logger
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(svc service.ExportService, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{svc: svc, logger: logger}
}

// ExportPayroll GET /api/v1/overtime/export?from=2026-08-01&to=2026-08-31
func (h *ExportHandler) ExportPayroll(c *gin.Context) {
	from, ok := parseDateParam(c, "from")
	if !ok {
		return
	}
	to, ok := parseDateParam(c, "to")
	if !ok {
		return
	}

	data, filename, err := h.svc.ExportPayroll(c.Request.Context(), from, to)
	if err != nil {
		h.logger.Error("导出薪资记录失败", zap.Error(err))
		response.InternalError(c)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// parseDateParam 解析可选的 YYYY-MM-DD 查询参数；未给出时为零值
func parseDateParam(c *gin.Context, name string) (time.Time, bool) {
	value := c.Query(name)
	if value == "" {
		return time.Time{}, true
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		response.BadRequest(c, 40001, name+" 日期格式无效，应为 YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}
