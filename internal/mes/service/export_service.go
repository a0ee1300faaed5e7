package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bitfantasy/nimo-mes/internal/mes/dateutil"
	"github.com/bitfantasy/nimo-mes/internal/mes/repository"
	"github.com/xuri/excelize/v2"
)

type ExportService struct {
	workOrders *repository.WorkOrderRepository
}

func NewExportService(workOrders *repository.WorkOrderRepository) *ExportService {
	return &ExportService{workOrders: workOrders}
}

var woExportHeaders = []string{
	"工单号", "船体编号", "产品SKU", "数量", "状态", "优先级",
	"计划开工", "计划完工", "当前工序下标", "创建时间",
}

var woPriorityLabels = map[int]string{
	0: "普通",
	1: "紧急",
	2: "特急",
}

// ExportWorkOrders 按筛选条件导出工单为xlsx
func (s *ExportService) ExportWorkOrders(ctx context.Context, params repository.WOListParams) (*excelize.File, string, error) {
	// 导出不分页，一次取全量
	params.Page = 1
	params.Size = 10000
	wos, _, err := s.workOrders.List(ctx, params)
	if err != nil {
		return nil, "", fmt.Errorf("查询工单失败: %w", err)
	}

	f := excelize.NewFile()
	sheet := "工单"
	f.SetSheetName("Sheet1", sheet)

	// 表头样式: 加粗
	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range woExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for rowIdx, wo := range wos {
		row := rowIdx + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), wo.WONumber)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), wo.HullID)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), wo.ProductSKU)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), wo.Qty)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), wo.Status)
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), woPriorityLabels[wo.Priority])
		if wo.PlannedStartDate != nil {
			f.SetCellValue(sheet, fmt.Sprintf("G%d", row), dateutil.Format(*wo.PlannedStartDate))
		}
		if wo.PlannedFinishDate != nil {
			f.SetCellValue(sheet, fmt.Sprintf("H%d", row), dateutil.Format(*wo.PlannedFinishDate))
		}
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), wo.CurrentStageIndex)
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), wo.CreatedAt.Format("2006-01-02 15:04"))
	}

	// 底部汇总
	summaryRow := len(wos) + 2
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "汇总")
	f.SetCellValue(sheet, fmt.Sprintf("C%d", summaryRow), fmt.Sprintf("总工单数: %d", len(wos)))
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("J%d", summaryRow), summaryStyle)

	colWidths := []float64{20, 16, 16, 8, 14, 8, 12, 12, 12, 18}
	for i, w := range colWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("工单导出_%s.xlsx", time.Now().Format("20060102_150405"))
	return f, filename, nil
}
