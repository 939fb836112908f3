package model

import "time"

// CompanyColor 公司分组配色（按仪表盘独立）
type CompanyColor struct {
	Value    string `json:"value"`    // 背景色
	Contrast string `json:"contrast"` // 前景对比色
	Name     string `json:"name"`     // 配色名称
}

// DashboardState 单个仪表盘的持久化状态
type DashboardState struct {
	Items         []TrackedItem           `json:"items"`
	CompanyOrder  []string                `json:"companyOrder"`
	CompanyColors map[string]CompanyColor `json:"companyColors"`
	LastUpdated   time.Time               `json:"lastUpdated"`
}

// NewDashboardState 创建空仪表盘状态
func NewDashboardState() *DashboardState {
	return &DashboardState{
		Items:         []TrackedItem{},
		CompanyOrder:  []string{},
		CompanyColors: map[string]CompanyColor{},
	}
}

// FindItem 按 (kind, id) 查找条目，返回下标；不存在返回 -1
func (s *DashboardState) FindItem(kind ItemKind, id int64) int {
	for i := range s.Items {
		if s.Items[i].Kind == kind && s.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone 深拷贝（items/companyOrder/companyColors 全部复制）
func (s *DashboardState) Clone() *DashboardState {
	out := &DashboardState{
		Items:         make([]TrackedItem, len(s.Items)),
		CompanyOrder:  make([]string, len(s.CompanyOrder)),
		CompanyColors: make(map[string]CompanyColor, len(s.CompanyColors)),
		LastUpdated:   s.LastUpdated,
	}
	copy(out.Items, s.Items)
	copy(out.CompanyOrder, s.CompanyOrder)
	for k, v := range s.CompanyColors {
		out.CompanyColors[k] = v
	}
	return out
}

// DashboardSummary 仪表盘索引条目
type DashboardSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"createdAt"`
	LastUpdated  time.Time `json:"lastUpdated"`
	LastAccessed time.Time `json:"lastAccessed"`
}

// DashboardsIndex 仪表盘索引（与各仪表盘状态分开持久化）
type DashboardsIndex struct {
	Dashboards         []DashboardSummary `json:"dashboards"`
	CurrentDashboardID string             `json:"currentDashboardId"`
}
