package model

// 上游 API 原始记录。上游响应不可信：字段缺失按零值处理，
// 数值字段用 FlexFloat/FlexInt 兼容字符串形式（见 flex.go）

// RawCompany 上游公司记录
type RawCompany struct {
	ID   FlexInt `json:"id"`
	Name string  `json:"name"`
}

// RawProject 上游项目记录
type RawProject struct {
	ID      FlexInt     `json:"id"`
	Title   string      `json:"title"`
	Against string      `json:"against"` // company/<id>
	Company *RawCompany `json:"company,omitempty"`
}

// RawAgreement 上游服务协议记录
type RawAgreement struct {
	ID      FlexInt     `json:"id"`
	Title   string      `json:"title"`
	Against string      `json:"against"`
	Company *RawCompany `json:"company,omitempty"`
}

// PeriodAllowance 周期额度
// Billable 为计费时长额度（秒），Amount 为金额额度
type PeriodAllowance struct {
	Billable FlexFloat `json:"billable"`
	Amount   FlexFloat `json:"amount"`
}

// PeriodBudgetUsed 周期已用量
// Value 为已用计费时长（秒），Amount 为已用金额（上游命名如此）
type PeriodBudgetUsed struct {
	Value  FlexFloat `json:"value"`
	Amount FlexFloat `json:"amount"`
}

// RawPeriod 服务协议的一个合同周期
type RawPeriod struct {
	ID          FlexInt          `json:"id"`
	Status      string           `json:"status"`         // opened/closed/...
	CommencedAt FlexInt          `json:"date_commenced"` // Unix 秒
	ExpiresAt   FlexInt          `json:"date_expires"`   // Unix 秒
	Allowance   PeriodAllowance  `json:"allowance"`
	BudgetUsed  PeriodBudgetUsed `json:"budget_used"`
}

// Allocations 项目工时汇总（含任务与里程碑，单位秒）
type Allocations struct {
	Billable    FlexFloat `json:"billable"`
	Nonbillable FlexFloat `json:"nonbillable"`
}
