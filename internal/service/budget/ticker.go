package budget

import (
	"time"

	"accelodash/internal/model"
)

// 超支外推速率。两次真实刷新之间，超支条目的展示值按
// 上次刷新以来的小时数线性递增，只影响展示，从不写回状态
const (
	timeOverageRatePerHour  = 1.0  // 工时预算：每小时涨 1 小时
	valueOverageRatePerHour = 0.25 // 金额预算：固定小速率，非真实计费速率
)

// Overage 计算条目在 now 时刻的超支展示值
// 未超支返回 0；真实刷新后基数重置，外推从新的 lastRefreshedAt 重新开始
func Overage(item *model.TrackedItem, now time.Time) float64 {
	if !item.OverBudget() {
		return 0
	}

	elapsed := now.Sub(item.LastRefreshedAt).Hours()
	if elapsed < 0 {
		elapsed = 0
	}

	rate := timeOverageRatePerHour
	if item.Budget.Type == model.BudgetValue {
		rate = valueOverageRatePerHour
	}
	return item.OverageBase() + elapsed*rate
}
