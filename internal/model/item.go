package model

import (
	"fmt"
	"time"
)

// ItemKind 条目类型
type ItemKind string

const (
	KindProject   ItemKind = "project"   // 项目
	KindAgreement ItemKind = "agreement" // 服务协议（retainer）
)

// ParseItemKind 解析条目类型
func ParseItemKind(s string) (ItemKind, error) {
	switch ItemKind(s) {
	case KindProject, KindAgreement:
		return ItemKind(s), nil
	}
	return "", fmt.Errorf("unknown item kind: %s", s)
}

// BudgetType 预算类型
type BudgetType string

const (
	BudgetTime  BudgetType = "time"  // 工时预算
	BudgetValue BudgetType = "value" // 金额预算
	BudgetNone  BudgetType = "none"  // 无预算（仍记录已用工时）
)

// Budget 预算信息
// Type 决定哪一组字段有效：time 用 allowanceHours/usedHours，
// value 用 allowanceValue/usedValue，none 仅 usedHours 供展示
type Budget struct {
	Type           BudgetType `json:"type"`
	AllowanceHours float64    `json:"allowanceHours,omitempty"`
	UsedHours      float64    `json:"usedHours,omitempty"`
	AllowanceValue float64    `json:"allowanceValue,omitempty"`
	UsedValue      float64    `json:"usedValue,omitempty"`
	Suspicious     bool       `json:"suspicious,omitempty"` // 额度疑似启发式推导（仅用于展示警告）
}

// TrackedItem 固定在仪表盘上的项目或服务协议
type TrackedItem struct {
	ID          int64    `json:"id"`
	Kind        ItemKind `json:"kind"`
	Title       string   `json:"title"`
	CompanyID   string   `json:"companyId"`
	CompanyName string   `json:"companyName"`

	Budget Budget `json:"budget"`

	// 仅服务协议有当前周期边界
	PeriodStart string `json:"periodStart,omitempty"`
	PeriodEnd   string `json:"periodEnd,omitempty"`

	LastRefreshedAt time.Time `json:"lastRefreshedAt"`
	RefreshError    string    `json:"refreshError,omitempty"` // 最近一次刷新失败原因（该条目降级展示）
}

// Key 条目唯一键（kind 内 id 唯一）
func (it *TrackedItem) Key() string {
	return fmt.Sprintf("%s:%d", it.Kind, it.ID)
}

// allowance 当前生效的额度
func (it *TrackedItem) allowance() float64 {
	switch it.Budget.Type {
	case BudgetTime:
		return it.Budget.AllowanceHours
	case BudgetValue:
		return it.Budget.AllowanceValue
	}
	return 0
}

// used 当前生效的已用量
func (it *TrackedItem) used() float64 {
	switch it.Budget.Type {
	case BudgetTime:
		return it.Budget.UsedHours
	case BudgetValue:
		return it.Budget.UsedValue
	}
	return 0
}

// Percentage 预算使用百分比
// 额度为 0 时返回 0（视为禁用，不产生 NaN）；超过 100 表示超支，不截断
func (it *TrackedItem) Percentage() float64 {
	allowance := it.allowance()
	if allowance <= 0 {
		return 0
	}
	return it.used() / allowance * 100
}

// OverBudget 是否超支
func (it *TrackedItem) OverBudget() bool {
	allowance := it.allowance()
	return allowance > 0 && it.used() > allowance
}

// OverageBase 最近一次真实刷新时的超支量
func (it *TrackedItem) OverageBase() float64 {
	if !it.OverBudget() {
		return 0
	}
	return it.used() - it.allowance()
}
