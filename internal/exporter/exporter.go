package exporter

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"accelodash/internal/model"
	"accelodash/internal/service/arrange"
	"accelodash/internal/service/budget"
)

// Exporter 仪表盘预算报表导出器
// 从零生成工作簿：按公司分组列出条目的预算类型、用量、额度与使用率
type Exporter struct{}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

const sheetName = "Budgets"

// Export 导出仪表盘为 Excel 工作簿
func (e *Exporter) Export(dashboardName string, state *model.DashboardState, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		_ = f.Close()
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	companyStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9E1F2"}},
	})
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	// 标题与表头
	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s — budget report %s", dashboardName, now.UTC().Format("2006-01-02")))
	headers := []string{"Company", "Item", "Kind", "Budget type", "Used", "Allowance", "Usage %", "Over budget", "Period"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 3)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		_ = f.SetCellValue(sheetName, cell, h)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	row := 4
	for _, group := range arrange.GroupByCompany(state) {
		companyCell := fmt.Sprintf("A%d", row)
		name := group.CompanyName
		if name == "" {
			name = group.CompanyID
		}
		_ = f.SetCellValue(sheetName, companyCell, name)
		_ = f.SetCellStyle(sheetName, companyCell, fmt.Sprintf("I%d", row), companyStyle)
		row++

		for i := range group.Items {
			e.writeItemRow(f, row, &group.Items[i], now)
			row++
		}
	}

	_ = f.SetColWidth(sheetName, "A", "B", 32)
	_ = f.SetColWidth(sheetName, "C", "H", 12)
	_ = f.SetColWidth(sheetName, "I", "I", 24)

	f.SetActiveSheet(0)
	return f, nil
}

func (e *Exporter) writeItemRow(f *excelize.File, row int, item *model.TrackedItem, now time.Time) {
	var used, allowance float64
	switch item.Budget.Type {
	case model.BudgetTime:
		used, allowance = item.Budget.UsedHours, item.Budget.AllowanceHours
	case model.BudgetValue:
		used, allowance = item.Budget.UsedValue, item.Budget.AllowanceValue
	default:
		used = item.Budget.UsedHours
	}

	period := ""
	if item.PeriodStart != "" || item.PeriodEnd != "" {
		period = fmt.Sprintf("%s ~ %s", item.PeriodStart, item.PeriodEnd)
	}

	_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), item.Title)
	_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), string(item.Kind))
	_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), string(item.Budget.Type))
	_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), used)
	if allowance > 0 {
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), allowance)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), fmt.Sprintf("%.1f%%", item.Percentage()))
	}
	if item.OverBudget() {
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), fmt.Sprintf("+%.1f", budget.Overage(item, now)))
	}
	if period != "" {
		_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), period)
	}
}

// FileName 导出文件名（仪表盘名 + 日期，空白压成连字符）
func FileName(dashboardName string, now time.Time) string {
	name := strings.ToLower(strings.TrimSpace(dashboardName))
	name = strings.Join(strings.Fields(name), "-")
	if name == "" {
		name = "dashboard"
	}
	return fmt.Sprintf("%s-budget-report-%s.xlsx", name, now.UTC().Format("2006-01-02"))
}
