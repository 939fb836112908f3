package store

import (
	"errors"

	"accelodash/internal/model"
)

// 键名布局：
//   dashboards_index   仪表盘索引（含 currentDashboardId）
//   dashboard:<id>     单个仪表盘状态
//   dashboard_state    迁移前的单仪表盘遗留数据（迁移后删除）
//   company_colors     迁移前的遗留配色（迁移后删除）
const (
	keyIndex        = "dashboards_index"
	keyDashboardPre = "dashboard:"
	KeyLegacyState  = "dashboard_state"
	KeyLegacyColors = "company_colors"
)

func dashboardKey(id string) string {
	return keyDashboardPre + id
}

// LoadIndex 读取仪表盘索引；尚无索引时返回空索引
func (s *Store) LoadIndex() (*model.DashboardsIndex, error) {
	idx := &model.DashboardsIndex{Dashboards: []model.DashboardSummary{}}
	err := s.GetJSON(keyIndex, idx)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return idx, nil
		}
		return nil, err
	}
	if idx.Dashboards == nil {
		idx.Dashboards = []model.DashboardSummary{}
	}
	return idx, nil
}

// SaveIndex 保存仪表盘索引
func (s *Store) SaveIndex(idx *model.DashboardsIndex) error {
	return s.SetJSON(keyIndex, idx)
}

// LoadDashboardState 读取单个仪表盘状态
func (s *Store) LoadDashboardState(id string) (*model.DashboardState, error) {
	state := model.NewDashboardState()
	if err := s.GetJSON(dashboardKey(id), state); err != nil {
		return nil, err
	}
	if state.Items == nil {
		state.Items = []model.TrackedItem{}
	}
	if state.CompanyOrder == nil {
		state.CompanyOrder = []string{}
	}
	if state.CompanyColors == nil {
		state.CompanyColors = map[string]model.CompanyColor{}
	}
	return state, nil
}

// SaveDashboardState 保存单个仪表盘状态
func (s *Store) SaveDashboardState(id string, state *model.DashboardState) error {
	return s.SetJSON(dashboardKey(id), state)
}

// DeleteDashboardState 删除单个仪表盘状态
func (s *Store) DeleteDashboardState(id string) error {
	return s.DeleteKey(dashboardKey(id))
}
