package board

import (
	"errors"

	"accelodash/internal/model"
)

// DefaultDashboardName 首次运行自动建的仪表盘名
const DefaultDashboardName = "Main Dashboard"

// UntitledDashboardName 未命名仪表盘的默认名
const UntitledDashboardName = "Untitled Dashboard"

// ErrLastDashboard 最后一个仪表盘不允许删除
var ErrLastDashboard = errors.New("cannot delete last dashboard")

// ErrDashboardNotFound 仪表盘不存在
var ErrDashboardNotFound = errors.New("dashboard not found")

// ErrDuplicateItem 条目已固定在该仪表盘
var ErrDuplicateItem = errors.New("item already pinned to this dashboard")

// ErrItemNotPinned 条目未固定在该仪表盘
var ErrItemNotPinned = errors.New("item not pinned to this dashboard")

// legacyState 多仪表盘改造前的单仪表盘持久化格式（仅作迁移来源）
type legacyState struct {
	Items        []model.TrackedItem `json:"items"`
	CompanyOrder []string            `json:"companyOrder"`
}

// legacyColors 改造前独立存储的公司配色
type legacyColors map[string]model.CompanyColor
