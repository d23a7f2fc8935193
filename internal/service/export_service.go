package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Net-Geometry/otms-tidal-sub000/internal/model"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/repository"
	"github.com/Net-Geometry/otms-tidal-sub000/internal/workflow"
)

// ExportService 薪资导出接口：HR 将已认证/已核准的加班记录导出为
// Excel 供薪资系统使用
type ExportService interface {
	ExportPayroll(ctx context.Context, from, to time.Time) ([]byte, string, error)
}

// exportService ExportService 实现
type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var payrollHeaders = []string{
	"工号", "姓名", "加班日期", "开始时间", "结束时间",
	"小时数", "日型", "加班倍率", "节假日倍率", "加班费", "状态",
}

// ExportPayroll 导出指定日期范围内已认证及已核准的加班记录
func (s *exportService) ExportPayroll(ctx context.Context, from, to time.Time) ([]byte, string, error) {
	statuses := []string{
		string(workflow.StatusHRCertified),
		string(workflow.StatusManagementApproved),
	}
	rows, err := s.repo.Overtime.ListByStatuses(ctx, statuses, from, to)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "加班记录"
	f.SetSheetName("Sheet1", sheet)

	for i, header := range payrollHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, "", err
		}
	}

	for i := range rows {
		row := &rows[i]
		values := []interface{}{
			employeeNo(row), employeeName(row),
			row.OTDate.Format("2006-01-02"),
			row.StartTime.Format("15:04"), row.EndTime.Format("15:04"),
			row.TotalHours, row.DayType, row.ORP, row.HRP, row.OTAmount, row.Status,
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, "", err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("overtime_payroll_%s.xlsx", time.Now().Format("20060102_150405"))
	s.logger.Info("导出薪资加班记录",
		zap.Int("rows", len(rows)),
		zap.String("filename", filename))

	return buf.Bytes(), filename, nil
}

func employeeNo(r *model.OvertimeRequest) string {
	if r.Employee != nil {
		return r.Employee.EmployeeNo
	}
	return ""
}

func employeeName(r *model.OvertimeRequest) string {
	if r.Employee != nil {
		return r.Employee.Name
	}
	return r.EmployeeID
}
