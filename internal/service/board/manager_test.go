package board

import (
	"errors"
	"path/filepath"
	"testing"

	"accelodash/internal/model"
	"accelodash/internal/store"
)

// newTestStore 在临时目录创建 sqlite 存储
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestNewManagerBootstrap 空库启动：自动创建默认仪表盘并设为当前
func TestNewManagerBootstrap(t *testing.T) {
	s := newTestStore(t)

	m, err := NewManager(s)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	idx := m.List()
	if len(idx.Dashboards) != 1 {
		t.Fatalf("expected 1 dashboard, got %d", len(idx.Dashboards))
	}
	if idx.Dashboards[0].Name != DefaultDashboardName {
		t.Errorf("expected default name %q, got %q", DefaultDashboardName, idx.Dashboards[0].Name)
	}
	if idx.CurrentDashboardID != idx.Dashboards[0].ID {
		t.Errorf("current pointer %q does not match only dashboard %q",
			idx.CurrentDashboardID, idx.Dashboards[0].ID)
	}
}

// TestCreateAndRename 创建切换当前；重命名空名回退为占位名
func TestCreateAndRename(t *testing.T) {
	s := newTestStore(t)
	m, err := NewManager(s)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	d, err := m.CreateDashboard("Client work")
	if err != nil {
		t.Fatalf("CreateDashboard failed: %v", err)
	}
	if cur, _ := m.Current(); cur.ID != d.ID {
		t.Errorf("new dashboard should become current, got %q", cur.ID)
	}

	renamed, err := m.Rename(d.ID, "")
	if err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if renamed.Name != UntitledDashboardName {
		t.Errorf("empty rename should fall back to %q, got %q", UntitledDashboardName, renamed.Name)
	}

	if _, err := m.Rename("nope", "x"); !errors.Is(err, ErrDashboardNotFound) {
		t.Errorf("expected ErrDashboardNotFound, got %v", err)
	}
}

// TestDeleteLastDashboardRejected 最后一个仪表盘不允许删除
func TestDeleteLastDashboardRejected(t *testing.T) {
	s := newTestStore(t)
	m, err := NewManager(s)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	only := m.List().Dashboards[0]
	if err := m.DeleteDashboard(only.ID); !errors.Is(err, ErrLastDashboard) {
		t.Fatalf("expected ErrLastDashboard, got %v", err)
	}
	if len(m.List().Dashboards) != 1 {
		t.Errorf("dashboard disappeared after rejected delete")
	}
}

// TestDeleteCurrentReassignsPointer 删除当前仪表盘时指针先切走
func TestDeleteCurrentReassignsPointer(t *testing.T) {
	s := newTestStore(t)
	m, err := NewManager(s)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	first := m.List().Dashboards[0]
	second, err := m.CreateDashboard("Second")
	if err != nil {
		t.Fatalf("CreateDashboard failed: %v", err)
	}
	// second 此刻为当前
	if err := m.DeleteDashboard(second.ID); err != nil {
		t.Fatalf("DeleteDashboard failed: %v", err)
	}

	idx := m.List()
	if len(idx.Dashboards) != 1 || idx.Dashboards[0].ID != first.ID {
		t.Fatalf("expected only first dashboard left, got %+v", idx.Dashboards)
	}
	if idx.CurrentDashboardID != first.ID {
		t.Errorf("current pointer should move to %q, got %q", first.ID, idx.CurrentDashboardID)
	}
	// 被删仪表盘的状态也应清除
	if _, err := s.LoadDashboardState(second.ID); !errors.Is(err, store.ErrKeyNotFound) {
		t.Errorf("expected deleted state to be gone, got %v", err)
	}
}

// TestAddRemoveItem 固定、重复固定、移除与配色清理
func TestAddRemoveItem(t *testing.T) {
	s := newTestStore(t)
	m, err := NewManager(s)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	id := m.List().CurrentDashboardID

	item := model.TrackedItem{ID: 1, Kind: model.KindProject, Title: "P1", CompanyID: "c1", CompanyName: "Acme"}
	if err := m.AddItem(id, item); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if err := m.AddItem(id, item); !errors.Is(err, ErrDuplicateItem) {
		t.Fatalf("expected ErrDuplicateItem, got %v", err)
	}
	if err := m.SetCompanyColor(id, "c1", model.CompanyColor{Value: "#EEE", Name: "Gray"}); err != nil {
		t.Fatalf("SetCompanyColor failed: %v", err)
	}

	state, err := m.LoadState(id)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if len(state.Items) != 1 || state.CompanyOrder[0] != "c1" {
		t.Fatalf("unexpected state after pin: %+v", state)
	}

	if err := m.RemoveItem(id, model.KindProject, 1); err != nil {
		t.Fatalf("RemoveItem failed: %v", err)
	}
	if err := m.RemoveItem(id, model.KindProject, 1); !errors.Is(err, ErrItemNotPinned) {
		t.Fatalf("expected ErrItemNotPinned, got %v", err)
	}

	state, err = m.LoadState(id)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if len(state.Items) != 0 || len(state.CompanyOrder) != 0 {
		t.Errorf("expected empty state after remove, got %+v", state)
	}
	if _, ok := state.CompanyColors["c1"]; ok {
		t.Errorf("orphan company color should be pruned")
	}
}

// TestLegacyMigration 遗留单仪表盘数据迁移且只迁移一次
func TestLegacyMigration(t *testing.T) {
	s := newTestStore(t)

	legacy := map[string]interface{}{
		"items": []model.TrackedItem{
			{ID: 1, Kind: model.KindProject, Title: "P1", CompanyID: "c1", CompanyName: "Acme"},
			{ID: 2, Kind: model.KindAgreement, Title: "A1", CompanyID: "c2", CompanyName: "Globex"},
		},
		"companyOrder": []string{"c2", "c1"},
	}
	if err := s.SetJSON(store.KeyLegacyState, legacy); err != nil {
		t.Fatalf("failed to seed legacy state: %v", err)
	}
	colors := map[string]model.CompanyColor{"c1": {Value: "#E3F2FD", Name: "Blue"}}
	if err := s.SetJSON(store.KeyLegacyColors, colors); err != nil {
		t.Fatalf("failed to seed legacy colors: %v", err)
	}

	m, err := NewManager(s)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	idx := m.List()
	if len(idx.Dashboards) != 1 || idx.Dashboards[0].Name != DefaultDashboardName {
		t.Fatalf("expected single migrated dashboard, got %+v", idx.Dashboards)
	}
	state, err := m.LoadState(idx.Dashboards[0].ID)
	if err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}
	if len(state.Items) != 2 {
		t.Fatalf("expected 2 migrated items, got %d", len(state.Items))
	}
	if state.CompanyOrder[0] != "c2" || state.CompanyOrder[1] != "c1" {
		t.Errorf("legacy company order not preserved: %v", state.CompanyOrder)
	}
	if state.CompanyColors["c1"].Name != "Blue" {
		t.Errorf("legacy colors not migrated: %+v", state.CompanyColors)
	}

	// 迁移完成后遗留键必须删除
	for _, key := range []string{store.KeyLegacyState, store.KeyLegacyColors} {
		if has, _ := s.HasKey(key); has {
			t.Errorf("legacy key %q still present after migration", key)
		}
	}

	// 再次启动不重复迁移、不新建仪表盘
	m2, err := NewManager(s)
	if err != nil {
		t.Fatalf("second NewManager failed: %v", err)
	}
	if got := len(m2.List().Dashboards); got != 1 {
		t.Errorf("expected migration to run once, got %d dashboards", got)
	}
}

// TestMigrationSkippedWhenDashboardsExist 已有仪表盘时遗留键不参与迁移
func TestMigrationSkippedWhenDashboardsExist(t *testing.T) {
	s := newTestStore(t)
	if _, err := NewManager(s); err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	// 事后冒出来的遗留键（异常场景）不触发迁移
	if err := s.SetJSON(store.KeyLegacyState, map[string]interface{}{"items": []model.TrackedItem{}}); err != nil {
		t.Fatalf("failed to seed legacy state: %v", err)
	}
	m, err := NewManager(s)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if got := len(m.List().Dashboards); got != 1 {
		t.Errorf("expected 1 dashboard, got %d", got)
	}
}

// TestLoadStateUnknownDashboard 未登记仪表盘
func TestLoadStateUnknownDashboard(t *testing.T) {
	s := newTestStore(t)
	m, err := NewManager(s)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, err := m.LoadState("d_missing"); !errors.Is(err, ErrDashboardNotFound) {
		t.Errorf("expected ErrDashboardNotFound, got %v", err)
	}
}

// TestSetCurrent 切换当前仪表盘
func TestSetCurrent(t *testing.T) {
	s := newTestStore(t)
	m, err := NewManager(s)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	first := m.List().Dashboards[0]
	if _, err := m.CreateDashboard("Second"); err != nil {
		t.Fatalf("CreateDashboard failed: %v", err)
	}

	if err := m.SetCurrent(first.ID); err != nil {
		t.Fatalf("SetCurrent failed: %v", err)
	}
	if cur, _ := m.Current(); cur.ID != first.ID {
		t.Errorf("expected current %q, got %q", first.ID, cur.ID)
	}
	if err := m.SetCurrent("nope"); !errors.Is(err, ErrDashboardNotFound) {
		t.Errorf("expected ErrDashboardNotFound, got %v", err)
	}
}
