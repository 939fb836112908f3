package arrange

import (
	"errors"
	"reflect"
	"testing"

	"accelodash/internal/model"
)

// newTestState 构造测试用仪表盘：两家公司交错排列
func newTestState() *model.DashboardState {
	state := model.NewDashboardState()
	state.Items = []model.TrackedItem{
		{ID: 1, Kind: model.KindProject, Title: "P1", CompanyID: "c1", CompanyName: "Acme"},
		{ID: 10, Kind: model.KindAgreement, Title: "A1", CompanyID: "c2", CompanyName: "Globex"},
		{ID: 2, Kind: model.KindProject, Title: "P2", CompanyID: "c1", CompanyName: "Acme"},
		{ID: 3, Kind: model.KindProject, Title: "P3", CompanyID: "c1", CompanyName: "Acme"},
	}
	state.CompanyOrder = []string{"c1", "c2"}
	return state
}

// itemKeys 取条目序列的 key 列表，便于断言顺序
func itemKeys(state *model.DashboardState) []string {
	keys := make([]string, 0, len(state.Items))
	for i := range state.Items {
		keys = append(keys, state.Items[i].Key())
	}
	return keys
}

// TestMoveItemWithinCompany 同公司内移动到 anchor 之后
func TestMoveItemWithinCompany(t *testing.T) {
	state := newTestState()

	err := MoveItem(state, ItemRef{Kind: model.KindProject, ID: 1}, "c1",
		&ItemRef{Kind: model.KindProject, ID: 3})
	if err != nil {
		t.Fatalf("MoveItem failed: %v", err)
	}

	want := []string{"agreement:10", "project:2", "project:3", "project:1"}
	if got := itemKeys(state); !reflect.DeepEqual(got, want) {
		t.Errorf("items = %v, want %v", got, want)
	}
}

// TestMoveItemAnchorBeforeSource anchor 在原位置之前时下标不偏移
func TestMoveItemAnchorBeforeSource(t *testing.T) {
	state := newTestState()

	err := MoveItem(state, ItemRef{Kind: model.KindProject, ID: 3}, "c1",
		&ItemRef{Kind: model.KindProject, ID: 1})
	if err != nil {
		t.Fatalf("MoveItem failed: %v", err)
	}

	want := []string{"project:1", "project:3", "agreement:10", "project:2"}
	if got := itemKeys(state); !reflect.DeepEqual(got, want) {
		t.Errorf("items = %v, want %v", got, want)
	}
}

// TestMoveItemNoAnchor 无 anchor 移到本公司子序列最前
func TestMoveItemNoAnchor(t *testing.T) {
	state := newTestState()

	err := MoveItem(state, ItemRef{Kind: model.KindProject, ID: 3}, "c1", nil)
	if err != nil {
		t.Fatalf("MoveItem failed: %v", err)
	}

	want := []string{"project:3", "project:1", "agreement:10", "project:2"}
	if got := itemKeys(state); !reflect.DeepEqual(got, want) {
		t.Errorf("items = %v, want %v", got, want)
	}
}

// TestMoveItemCrossCompanyRejected 跨公司移动被拒绝且状态完全不变
func TestMoveItemCrossCompanyRejected(t *testing.T) {
	state := newTestState()
	before := itemKeys(state)
	orderBefore := append([]string{}, state.CompanyOrder...)

	err := MoveItem(state, ItemRef{Kind: model.KindProject, ID: 1}, "c2", nil)
	if !errors.Is(err, ErrCrossCompanyMove) {
		t.Fatalf("expected ErrCrossCompanyMove, got %v", err)
	}
	if got := itemKeys(state); !reflect.DeepEqual(got, before) {
		t.Errorf("items mutated on rejected move: %v", got)
	}
	if !reflect.DeepEqual(state.CompanyOrder, orderBefore) {
		t.Errorf("companyOrder mutated on rejected move: %v", state.CompanyOrder)
	}
}

// TestMoveItemSelfAnchor 以自身为 anchor 是无变化的合法操作
func TestMoveItemSelfAnchor(t *testing.T) {
	state := newTestState()
	before := itemKeys(state)

	err := MoveItem(state, ItemRef{Kind: model.KindProject, ID: 2}, "c1",
		&ItemRef{Kind: model.KindProject, ID: 2})
	if err != nil {
		t.Fatalf("MoveItem failed: %v", err)
	}
	if got := itemKeys(state); !reflect.DeepEqual(got, before) {
		t.Errorf("items = %v, want unchanged %v", got, before)
	}
}

// TestMoveItemMissing 不存在的条目
func TestMoveItemMissing(t *testing.T) {
	state := newTestState()

	err := MoveItem(state, ItemRef{Kind: model.KindProject, ID: 999}, "c1", nil)
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

// TestMoveCompany 公司移动后 items 按新顺序重建，公司内顺序不变
func TestMoveCompany(t *testing.T) {
	state := newTestState()

	if err := MoveCompany(state, "c2", ""); err != nil {
		t.Fatalf("MoveCompany failed: %v", err)
	}

	if want := []string{"c2", "c1"}; !reflect.DeepEqual(state.CompanyOrder, want) {
		t.Errorf("companyOrder = %v, want %v", state.CompanyOrder, want)
	}
	want := []string{"agreement:10", "project:1", "project:2", "project:3"}
	if got := itemKeys(state); !reflect.DeepEqual(got, want) {
		t.Errorf("items = %v, want %v", got, want)
	}
}

// TestMoveCompanyAfterAnchor 移到指定公司之后
func TestMoveCompanyAfterAnchor(t *testing.T) {
	state := newTestState()
	state.Items = append(state.Items,
		model.TrackedItem{ID: 20, Kind: model.KindProject, Title: "P20", CompanyID: "c3", CompanyName: "Initech"})
	state.CompanyOrder = []string{"c1", "c2", "c3"}

	if err := MoveCompany(state, "c1", "c2"); err != nil {
		t.Fatalf("MoveCompany failed: %v", err)
	}
	if want := []string{"c2", "c1", "c3"}; !reflect.DeepEqual(state.CompanyOrder, want) {
		t.Errorf("companyOrder = %v, want %v", state.CompanyOrder, want)
	}
}

// TestMoveCompanyMissing 不存在的公司
func TestMoveCompanyMissing(t *testing.T) {
	state := newTestState()

	if err := MoveCompany(state, "nope", ""); !errors.Is(err, ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}
}

// TestCompanyOrderInvariant 任意操作序列后 companyOrder 与条目公司集合严格一致
func TestCompanyOrderInvariant(t *testing.T) {
	state := newTestState()

	ops := []func() error{
		func() error { return MoveItem(state, ItemRef{Kind: model.KindProject, ID: 1}, "c1", nil) },
		func() error { return MoveCompany(state, "c2", "") },
		func() error {
			return MoveItem(state, ItemRef{Kind: model.KindProject, ID: 2}, "c1",
				&ItemRef{Kind: model.KindProject, ID: 3})
		},
		func() error { return MoveCompany(state, "c1", "c2") },
	}
	for i, op := range ops {
		if err := op(); err != nil {
			t.Fatalf("op %d failed: %v", i, err)
		}
		assertOrderInvariant(t, state)
	}
}

// assertOrderInvariant companyOrder 无重复且与 items 中出现的公司集合相等
func assertOrderInvariant(t *testing.T, state *model.DashboardState) {
	t.Helper()

	present := make(map[string]bool)
	for i := range state.Items {
		present[state.Items[i].CompanyID] = true
	}

	seen := make(map[string]bool)
	for _, id := range state.CompanyOrder {
		if seen[id] {
			t.Fatalf("duplicate company %q in order %v", id, state.CompanyOrder)
		}
		seen[id] = true
		if !present[id] {
			t.Fatalf("company %q in order but has no items", id)
		}
	}
	for id := range present {
		if !seen[id] {
			t.Fatalf("company %q has items but missing from order %v", id, state.CompanyOrder)
		}
	}
}

// TestNormalizeCompanyOrder 剔除失效公司并追加新公司
func TestNormalizeCompanyOrder(t *testing.T) {
	state := newTestState()
	state.CompanyOrder = []string{"gone", "c2", "c2"}

	NormalizeCompanyOrder(state)

	if want := []string{"c2", "c1"}; !reflect.DeepEqual(state.CompanyOrder, want) {
		t.Errorf("companyOrder = %v, want %v", state.CompanyOrder, want)
	}
}

// TestGroupByCompany 分组只读，公司名取该组第一个条目
func TestGroupByCompany(t *testing.T) {
	state := newTestState()
	before := itemKeys(state)

	groups := GroupByCompany(state)

	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].CompanyID != "c1" || groups[0].CompanyName != "Acme" || len(groups[0].Items) != 3 {
		t.Errorf("unexpected first group: %+v", groups[0])
	}
	if groups[1].CompanyID != "c2" || len(groups[1].Items) != 1 {
		t.Errorf("unexpected second group: %+v", groups[1])
	}
	if got := itemKeys(state); !reflect.DeepEqual(got, before) {
		t.Errorf("GroupByCompany mutated state: %v", got)
	}
}
