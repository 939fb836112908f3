package board

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"accelodash/internal/model"
	"accelodash/internal/service/arrange"
	"accelodash/internal/store"
)

// Manager 仪表盘管理器：负责索引维护、当前仪表盘指针、状态读写与一次性迁移
// 每次变更立即持久化；写入失败只记日志，会话内以内存状态为准，不重试
type Manager struct {
	store *store.Store

	mu    sync.Mutex
	index model.DashboardsIndex
	now   func() time.Time
}

// NewManager 创建管理器并完成启动流程：
// 读索引 → 迁移遗留单仪表盘数据 → 保证至少存在一个仪表盘与有效的当前指针
func NewManager(s *store.Store) (*Manager, error) {
	m := &Manager{
		store: s,
		now:   time.Now,
	}

	idx, err := s.LoadIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load dashboards index: %w", err)
	}
	m.index = *idx

	if migrated, err := m.migrateLegacyLocked(); err != nil {
		log.Printf("legacy migration failed: %v", err)
	} else if migrated {
		log.Printf("migrated legacy dashboard into %q", DefaultDashboardName)
	}

	if len(m.index.Dashboards) == 0 {
		if _, err := m.createLocked(DefaultDashboardName); err != nil {
			return nil, err
		}
	}
	m.ensureCurrentLocked()
	m.persistIndexLocked()

	return m, nil
}

func (m *Manager) persistIndexLocked() {
	if err := m.store.SaveIndex(&m.index); err != nil {
		log.Printf("failed to persist dashboards index: %v", err)
	}
}

// ensureCurrentLocked 保证当前指针指向存在的仪表盘
func (m *Manager) ensureCurrentLocked() {
	if _, ok := m.findLocked(m.index.CurrentDashboardID); ok {
		return
	}
	if len(m.index.Dashboards) > 0 {
		m.index.CurrentDashboardID = m.index.Dashboards[0].ID
	} else {
		m.index.CurrentDashboardID = ""
	}
}

func (m *Manager) findLocked(id string) (int, bool) {
	for i := range m.index.Dashboards {
		if m.index.Dashboards[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// migrateLegacyLocked 一次性迁移：存在遗留单仪表盘数据且尚无任何仪表盘时，
// 把遗留数据搬进新建的 Main Dashboard 并删除遗留键。
// 迁移完成的判定就是遗留键不存在，不设单独标记，因此天然只跑一次
func (m *Manager) migrateLegacyLocked() (bool, error) {
	if len(m.index.Dashboards) > 0 {
		return false, nil
	}

	hasLegacy, err := m.store.HasKey(store.KeyLegacyState)
	if err != nil {
		return false, err
	}
	if !hasLegacy {
		return false, nil
	}

	var legacy legacyState
	if err := m.store.GetJSON(store.KeyLegacyState, &legacy); err != nil {
		return false, err
	}

	colors := legacyColors{}
	if hasColors, _ := m.store.HasKey(store.KeyLegacyColors); hasColors {
		_ = m.store.GetJSON(store.KeyLegacyColors, &colors)
	}

	summary, err := m.createLocked(DefaultDashboardName)
	if err != nil {
		return false, err
	}

	state := model.NewDashboardState()
	if legacy.Items != nil {
		state.Items = legacy.Items
	}
	if legacy.CompanyOrder != nil {
		state.CompanyOrder = legacy.CompanyOrder
	}
	state.CompanyColors = map[string]model.CompanyColor(colors)
	if state.CompanyColors == nil {
		state.CompanyColors = map[string]model.CompanyColor{}
	}
	arrange.NormalizeCompanyOrder(state)
	state.LastUpdated = m.now()

	if err := m.store.SaveDashboardState(summary.ID, state); err != nil {
		return false, fmt.Errorf("failed to persist migrated state: %w", err)
	}

	// 删除遗留键即迁移完成信号
	if err := m.store.DeleteKey(store.KeyLegacyState); err != nil {
		return false, err
	}
	if err := m.store.DeleteKey(store.KeyLegacyColors); err != nil {
		return false, err
	}
	return true, nil
}

// createLocked 创建仪表盘并切换为当前
func (m *Manager) createLocked(name string) (model.DashboardSummary, error) {
	if name == "" {
		name = UntitledDashboardName
	}

	now := m.now()
	summary := model.DashboardSummary{
		ID:           fmt.Sprintf("d_%s", uuid.New().String()[:8]),
		Name:         name,
		CreatedAt:    now,
		LastUpdated:  now,
		LastAccessed: now,
	}

	state := model.NewDashboardState()
	state.LastUpdated = now
	if err := m.store.SaveDashboardState(summary.ID, state); err != nil {
		log.Printf("failed to persist new dashboard state: %v", err)
	}

	m.index.Dashboards = append(m.index.Dashboards, summary)
	m.index.CurrentDashboardID = summary.ID
	m.persistIndexLocked()
	return summary, nil
}

// List 返回索引副本
func (m *Manager) List() model.DashboardsIndex {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := model.DashboardsIndex{
		Dashboards:         make([]model.DashboardSummary, len(m.index.Dashboards)),
		CurrentDashboardID: m.index.CurrentDashboardID,
	}
	copy(out.Dashboards, m.index.Dashboards)
	return out
}

// Current 返回当前仪表盘摘要
func (m *Manager) Current() (model.DashboardSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.findLocked(m.index.CurrentDashboardID)
	if !ok {
		return model.DashboardSummary{}, ErrDashboardNotFound
	}
	return m.index.Dashboards[i], nil
}

// CreateDashboard 创建新仪表盘并切换为当前
func (m *Manager) CreateDashboard(name string) (model.DashboardSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(name)
}

// Rename 重命名仪表盘
func (m *Manager) Rename(id string, name string) (model.DashboardSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.findLocked(id)
	if !ok {
		return model.DashboardSummary{}, ErrDashboardNotFound
	}
	if name == "" {
		name = UntitledDashboardName
	}
	m.index.Dashboards[i].Name = name
	m.index.Dashboards[i].LastUpdated = m.now()
	m.persistIndexLocked()
	return m.index.Dashboards[i], nil
}

// SetCurrent 切换当前仪表盘
func (m *Manager) SetCurrent(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, ok := m.findLocked(id)
	if !ok {
		return ErrDashboardNotFound
	}
	m.index.Dashboards[i].LastAccessed = m.now()
	m.index.CurrentDashboardID = id
	m.persistIndexLocked()
	return nil
}

// DeleteDashboard 删除仪表盘
// 最后一个不允许删；删除当前仪表盘时先把当前指针改指到其他仪表盘再移除，
// 当前指针任何时刻都不会指向不存在的 id
func (m *Manager) DeleteDashboard(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.findLocked(id); !ok {
		return ErrDashboardNotFound
	}
	if len(m.index.Dashboards) <= 1 {
		return ErrLastDashboard
	}

	if m.index.CurrentDashboardID == id {
		for i := range m.index.Dashboards {
			if m.index.Dashboards[i].ID != id {
				m.index.CurrentDashboardID = m.index.Dashboards[i].ID
				break
			}
		}
	}

	next := make([]model.DashboardSummary, 0, len(m.index.Dashboards))
	for _, d := range m.index.Dashboards {
		if d.ID == id {
			continue
		}
		next = append(next, d)
	}
	m.index.Dashboards = next

	if err := m.store.DeleteDashboardState(id); err != nil {
		log.Printf("failed to delete dashboard state %s: %v", id, err)
	}
	m.persistIndexLocked()
	return nil
}

// LoadState 读取仪表盘状态；已登记但从未保存过状态时返回空状态
func (m *Manager) LoadState(id string) (*model.DashboardState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadStateLocked(id)
}

func (m *Manager) loadStateLocked(id string) (*model.DashboardState, error) {
	if _, ok := m.findLocked(id); !ok {
		return nil, ErrDashboardNotFound
	}
	state, err := m.store.LoadDashboardState(id)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return model.NewDashboardState(), nil
		}
		return nil, err
	}
	return state, nil
}

// SaveState 保存仪表盘状态
// 保存前先让公司顺序满足渲染不变量，并刷新索引上的更新时间
func (m *Manager) SaveState(id string, state *model.DashboardState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveStateLocked(id, state)
}

func (m *Manager) saveStateLocked(id string, state *model.DashboardState) error {
	i, ok := m.findLocked(id)
	if !ok {
		return ErrDashboardNotFound
	}

	arrange.NormalizeCompanyOrder(state)
	now := m.now()
	state.LastUpdated = now

	if err := m.store.SaveDashboardState(id, state); err != nil {
		log.Printf("failed to persist dashboard state %s: %v", id, err)
	}
	m.index.Dashboards[i].LastUpdated = now
	m.persistIndexLocked()
	return nil
}

// AddItem 固定条目到仪表盘；重复固定拒绝
func (m *Manager) AddItem(id string, item model.TrackedItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.loadStateLocked(id)
	if err != nil {
		return err
	}
	if state.FindItem(item.Kind, item.ID) >= 0 {
		return ErrDuplicateItem
	}
	state.Items = append(state.Items, item)
	return m.saveStateLocked(id, state)
}

// RemoveItem 从仪表盘移除条目，并清理不再出现的公司的配色
func (m *Manager) RemoveItem(id string, kind model.ItemKind, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.loadStateLocked(id)
	if err != nil {
		return err
	}
	idx := state.FindItem(kind, itemID)
	if idx < 0 {
		return ErrItemNotPinned
	}
	state.Items = append(state.Items[:idx], state.Items[idx+1:]...)

	present := make(map[string]bool)
	for i := range state.Items {
		present[state.Items[i].CompanyID] = true
	}
	for companyID := range state.CompanyColors {
		if !present[companyID] {
			delete(state.CompanyColors, companyID)
		}
	}
	return m.saveStateLocked(id, state)
}

// SetCompanyColor 设置公司配色（按仪表盘独立）
func (m *Manager) SetCompanyColor(id string, companyID string, color model.CompanyColor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, err := m.loadStateLocked(id)
	if err != nil {
		return err
	}
	if state.CompanyColors == nil {
		state.CompanyColors = map[string]model.CompanyColor{}
	}
	state.CompanyColors[companyID] = color
	return m.saveStateLocked(id, state)
}
