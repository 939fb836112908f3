package budget

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"accelodash/internal/model"
)

// HoursFromSeconds 秒转小时，保留 1 位小数
func HoursFromSeconds(seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return math.Round(seconds/3600*10) / 10
}

// defaultAllowanceHours 无任何工时记录时的占位额度
const defaultAllowanceHours = 40

// heuristicAllowance 按已记录工时推导额度
// 仅在修正表与上游预算字段都拿不到额度时使用
func heuristicAllowance(logged float64) float64 {
	switch {
	case logged == 0:
		return defaultAllowanceHours
	case logged < 10:
		return math.Max(2*logged, 20)
	case logged < 50:
		return math.Ceil(logged * 1.15)
	case logged < 100:
		return math.Ceil(logged * 1.10)
	default:
		return math.Ceil(logged * 1.05)
	}
}

// heuristicCandidates 给定工时下各启发式公式的全部可能输出
func heuristicCandidates(logged float64) []float64 {
	return []float64{
		defaultAllowanceHours,
		math.Max(2*logged, 20),
		math.Ceil(logged * 1.15),
		math.Ceil(logged * 1.10),
		math.Ceil(logged * 1.05),
	}
}

// SuspiciousAllowance 额度是否疑似自动推导
// 条件：使用率 ≥ 90% 且额度恰好等于某个启发式公式的输出。
// 该标记仅用于界面警告，不影响任何计算
func SuspiciousAllowance(logged, allowance, used float64) bool {
	if allowance <= 0 || used/allowance < 0.9 {
		return false
	}
	for _, candidate := range heuristicCandidates(logged) {
		if allowance == candidate {
			return true
		}
	}
	return false
}

// Percentage 预算使用百分比
// 额度为 0 时返回 0（NoBudget 下百分比无定义，按禁用处理）；超支不截断
func Percentage(used, allowance float64) float64 {
	if allowance <= 0 {
		return 0
	}
	return used / allowance * 100
}

// CompanyRef 从原始记录解析所属公司
// 优先取展开的 company 对象，缺失时回退解析 against（形如 company/123）
func CompanyRef(company *model.RawCompany, against string) (id string, name string) {
	if company != nil && company.ID != 0 {
		return strconv.FormatInt(int64(company.ID), 10), company.Name
	}
	if rest, ok := strings.CutPrefix(against, "company/"); ok && rest != "" {
		return rest, ""
	}
	return "", ""
}

// NormalizeProject 把上游项目 + 工时汇总归一化为 TrackedItem
// 项目一律使用工时预算：额度先查修正表，再走启发式推导
func NormalizeProject(raw *model.RawProject, alloc *model.Allocations, now time.Time) model.TrackedItem {
	var billable, nonbillable float64
	if alloc != nil {
		billable = math.Max(0, float64(alloc.Billable))
		nonbillable = math.Max(0, float64(alloc.Nonbillable))
	}
	logged := HoursFromSeconds(billable + nonbillable)

	allowance, overridden := OverrideAllowance(int64(raw.ID))
	if !overridden {
		allowance = heuristicAllowance(logged)
	}

	companyID, companyName := CompanyRef(raw.Company, raw.Against)

	return model.TrackedItem{
		ID:          int64(raw.ID),
		Kind:        model.KindProject,
		Title:       raw.Title,
		CompanyID:   companyID,
		CompanyName: companyName,
		Budget: model.Budget{
			Type:           model.BudgetTime,
			AllowanceHours: allowance,
			UsedHours:      logged,
			Suspicious:     SuspiciousAllowance(logged, allowance, logged),
		},
		LastRefreshedAt: now,
	}
}

// formatPeriodDate Unix 秒转日期；0 表示上游未提供
func formatPeriodDate(unix int64) string {
	if unix <= 0 {
		return ""
	}
	return time.Unix(unix, 0).UTC().Format("2006-01-02")
}

// NormalizeAgreement 把上游服务协议 + 当前周期归一化为 TrackedItem
// 预算类型按当前周期判定：计费时长额度 > 金额额度 > 无预算
func NormalizeAgreement(raw *model.RawAgreement, periods []model.RawPeriod, now time.Time) model.TrackedItem {
	companyID, companyName := CompanyRef(raw.Company, raw.Against)

	item := model.TrackedItem{
		ID:              int64(raw.ID),
		Kind:            model.KindAgreement,
		Title:           raw.Title,
		CompanyID:       companyID,
		CompanyName:     companyName,
		Budget:          model.Budget{Type: model.BudgetNone},
		LastRefreshedAt: now,
	}

	period := SelectCurrentPeriod(periods, now)
	if period == nil {
		// 没有可用周期：全部预算字段留空
		return item
	}

	item.PeriodStart = formatPeriodDate(int64(period.CommencedAt))
	item.PeriodEnd = formatPeriodDate(int64(period.ExpiresAt))

	usedHours := HoursFromSeconds(math.Max(0, float64(period.BudgetUsed.Value)))
	usedValue := math.Max(0, float64(period.BudgetUsed.Amount))

	switch {
	case period.Allowance.Billable > 0:
		item.Budget = model.Budget{
			Type:           model.BudgetTime,
			AllowanceHours: HoursFromSeconds(float64(period.Allowance.Billable)),
			UsedHours:      usedHours,
		}
	case period.Allowance.Amount > 0:
		item.Budget = model.Budget{
			Type:           model.BudgetValue,
			AllowanceValue: float64(period.Allowance.Amount),
			UsedValue:      usedValue,
		}
	default:
		// 无预算协议仍展示已用工时
		item.Budget = model.Budget{
			Type:      model.BudgetNone,
			UsedHours: usedHours,
		}
	}

	return item
}

// RefreshErrorText 单条目刷新失败的展示文案
func RefreshErrorText(kind model.ItemKind, id int64, err error) string {
	return fmt.Sprintf("failed to refresh %s %d: %v", kind, id, err)
}
