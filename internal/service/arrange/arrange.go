package arrange

import (
	"errors"

	"accelodash/internal/model"
)

// 排序引擎：维护 companyOrder（公司展示顺序）与 items 内各公司
// 子序列的条目顺序。全部为纯状态变换，不做任何 IO，
// 拖拽手势由外部表现层翻译成这里的两个移动操作

// ErrCrossCompanyMove 条目只能在其所属公司内部重排
var ErrCrossCompanyMove = errors.New("items can only be reordered within their own company")

// ErrItemNotFound 条目不存在
var ErrItemNotFound = errors.New("item not found")

// ErrCompanyNotFound 公司不在当前仪表盘
var ErrCompanyNotFound = errors.New("company not found")

// ItemRef 条目引用（kind 内 id 唯一）
type ItemRef struct {
	Kind model.ItemKind `json:"kind"`
	ID   int64          `json:"id"`
}

// MoveItem 把条目移动到同公司内 anchor 之后；anchor 为 nil 表示移到该公司子序列最前
// 目标公司与条目所属公司不一致时拒绝且不产生任何变更
func MoveItem(state *model.DashboardState, ref ItemRef, targetCompanyID string, anchor *ItemRef) error {
	idx := state.FindItem(ref.Kind, ref.ID)
	if idx < 0 {
		return ErrItemNotFound
	}
	item := state.Items[idx]

	// 条目所属公司不可变，跨公司移动一律拒绝
	if targetCompanyID != "" && targetCompanyID != item.CompanyID {
		return ErrCrossCompanyMove
	}
	if anchor != nil && anchor.Kind == ref.Kind && anchor.ID == ref.ID {
		return nil
	}

	// 先移除，之后的下标都基于移除后的切片，避免 anchor 位置偏移
	items := append([]model.TrackedItem{}, state.Items[:idx]...)
	items = append(items, state.Items[idx+1:]...)

	insertAt := -1
	if anchor != nil {
		for i := range items {
			if items[i].Kind == anchor.Kind && items[i].ID == anchor.ID && items[i].CompanyID == item.CompanyID {
				insertAt = i + 1
				break
			}
		}
	}
	if insertAt < 0 {
		// 无 anchor（或 anchor 已不存在）：放到该公司子序列最前
		for i := range items {
			if items[i].CompanyID == item.CompanyID {
				insertAt = i
				break
			}
		}
	}
	if insertAt < 0 {
		// 该公司已无其他条目，保持原位置
		insertAt = idx
		if insertAt > len(items) {
			insertAt = len(items)
		}
	}

	items = append(items, model.TrackedItem{})
	copy(items[insertAt+1:], items[insertAt:])
	items[insertAt] = item

	state.Items = items
	NormalizeCompanyOrder(state)
	return nil
}

// MoveCompany 把公司移动到 anchorCompanyID 之后；anchor 为空表示移到最前
// 移动后按新的公司顺序重排 items，各公司内部条目相对顺序保持不变
func MoveCompany(state *model.DashboardState, companyID string, anchorCompanyID string) error {
	NormalizeCompanyOrder(state)

	found := false
	order := make([]string, 0, len(state.CompanyOrder))
	for _, id := range state.CompanyOrder {
		if id == companyID {
			found = true
			continue
		}
		order = append(order, id)
	}
	if !found {
		return ErrCompanyNotFound
	}
	if anchorCompanyID == companyID {
		anchorCompanyID = ""
	}

	insertAt := 0
	if anchorCompanyID != "" {
		for i, id := range order {
			if id == anchorCompanyID {
				insertAt = i + 1
				break
			}
		}
	}

	order = append(order, "")
	copy(order[insertAt+1:], order[insertAt:])
	order[insertAt] = companyID
	state.CompanyOrder = order

	// 按新公司顺序重建 items，公司内部顺序不动
	rebuilt := make([]model.TrackedItem, 0, len(state.Items))
	for _, id := range state.CompanyOrder {
		for i := range state.Items {
			if state.Items[i].CompanyID == id {
				rebuilt = append(rebuilt, state.Items[i])
			}
		}
	}
	state.Items = rebuilt
	return nil
}

// NormalizeCompanyOrder 让 companyOrder 与 items 中出现的公司集合严格一致
// 保留既有顺序，新公司按条目出现顺序追加，失效公司剔除。渲染前必须满足该不变量
func NormalizeCompanyOrder(state *model.DashboardState) {
	present := make(map[string]bool)
	presentOrder := []string{}
	for i := range state.Items {
		id := state.Items[i].CompanyID
		if !present[id] {
			present[id] = true
			presentOrder = append(presentOrder, id)
		}
	}

	seen := make(map[string]bool)
	order := make([]string, 0, len(presentOrder))
	for _, id := range state.CompanyOrder {
		if present[id] && !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}
	for _, id := range presentOrder {
		if !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}
	state.CompanyOrder = order
}

// CompanyGroup 按公司分组后的渲染数据
type CompanyGroup struct {
	CompanyID   string              `json:"companyId"`
	CompanyName string              `json:"companyName"`
	Items       []model.TrackedItem `json:"items"`
}

// GroupByCompany 按公司顺序分组条目（只读，不修改 state）
func GroupByCompany(state *model.DashboardState) []CompanyGroup {
	normalized := state.Clone()
	NormalizeCompanyOrder(normalized)

	groups := make([]CompanyGroup, 0, len(normalized.CompanyOrder))
	for _, id := range normalized.CompanyOrder {
		group := CompanyGroup{CompanyID: id, Items: []model.TrackedItem{}}
		for i := range normalized.Items {
			if normalized.Items[i].CompanyID == id {
				if group.CompanyName == "" {
					group.CompanyName = normalized.Items[i].CompanyName
				}
				group.Items = append(group.Items, normalized.Items[i])
			}
		}
		groups = append(groups, group)
	}
	return groups
}
