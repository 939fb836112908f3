package refresh

import (
	"context"
	"fmt"
	"log"
	"time"

	"accelodash/internal/model"
	"accelodash/internal/service/board"
	"accelodash/internal/service/budget"
	"accelodash/internal/upstream"
)

// Refresher 批量刷新器：串行重新拉取仪表盘上所有条目的用量数据
// 单条目失败只降级该条目并继续；凭据类错误中止整个批次
type Refresher struct {
	client *upstream.Client
	board  *board.Manager
	now    func() time.Time
}

// NewRefresher 创建刷新器
func NewRefresher(client *upstream.Client, boards *board.Manager) *Refresher {
	return &Refresher{
		client: client,
		board:  boards,
		now:    time.Now,
	}
}

// ItemError 单条目刷新失败记录
type ItemError struct {
	Kind    model.ItemKind `json:"kind"`
	ID      int64          `json:"id"`
	Message string         `json:"message"`
}

// Result 批量刷新结果
type Result struct {
	Refreshed int         `json:"refreshed"`
	Errors    []ItemError `json:"errors"`
}

// BuildItem 拉取并归一化一个条目（固定新条目时使用）
func (r *Refresher) BuildItem(ctx context.Context, kind model.ItemKind, id int64) (model.TrackedItem, error) {
	switch kind {
	case model.KindProject:
		raw, err := r.client.FetchProject(ctx, id)
		if err != nil {
			return model.TrackedItem{}, err
		}
		if raw.ID == 0 {
			return model.TrackedItem{}, fmt.Errorf("project %d not found upstream", id)
		}
		alloc, err := r.client.FetchAllocations(ctx, id)
		if err != nil {
			return model.TrackedItem{}, err
		}
		return budget.NormalizeProject(raw, alloc, r.now()), nil

	case model.KindAgreement:
		raw, err := r.client.FetchAgreement(ctx, id)
		if err != nil {
			return model.TrackedItem{}, err
		}
		if raw.ID == 0 {
			return model.TrackedItem{}, fmt.Errorf("agreement %d not found upstream", id)
		}
		periods, err := r.client.FetchPeriods(ctx, id)
		if err != nil {
			return model.TrackedItem{}, err
		}
		return budget.NormalizeAgreement(raw, periods, r.now()), nil
	}
	return model.TrackedItem{}, fmt.Errorf("unknown item kind: %s", kind)
}

// RefreshDashboard 刷新整个仪表盘
// 串行拉取并在相邻请求间等待固定间隔（上游限流约束）；结束后一次性保存
func (r *Refresher) RefreshDashboard(ctx context.Context, dashboardID string) (*Result, error) {
	state, err := r.board.LoadState(dashboardID)
	if err != nil {
		return nil, err
	}

	// 整体刷新前清空响应缓存，保证拿到新鲜数据
	r.client.ClearCache()

	result := &Result{Errors: []ItemError{}}
	for i := range state.Items {
		if i > 0 {
			if err := r.client.BatchDelay(ctx); err != nil {
				return result, err
			}
		}

		item := &state.Items[i]
		if err := r.refreshItem(ctx, item); err != nil {
			// 凭据问题影响所有条目，没有继续的意义
			if upstream.IsAuthError(err) {
				return result, err
			}
			item.RefreshError = budget.RefreshErrorText(item.Kind, item.ID, err)
			log.Printf("refresh skipped item %s: %v", item.Key(), err)
			result.Errors = append(result.Errors, ItemError{
				Kind:    item.Kind,
				ID:      item.ID,
				Message: item.RefreshError,
			})
			continue
		}
		result.Refreshed++
	}

	if err := r.board.SaveState(dashboardID, state); err != nil {
		return result, err
	}
	return result, nil
}

// refreshItem 重取单条目的用量数据并就地更新
// 公司归属不可变：归一化结果只取预算与周期字段，不碰公司字段
func (r *Refresher) refreshItem(ctx context.Context, item *model.TrackedItem) error {
	switch item.Kind {
	case model.KindProject:
		alloc, err := r.client.FetchAllocations(ctx, item.ID)
		if err != nil {
			return err
		}
		raw := &model.RawProject{ID: model.FlexInt(item.ID), Title: item.Title}
		normalized := budget.NormalizeProject(raw, alloc, r.now())
		item.Budget = normalized.Budget

	case model.KindAgreement:
		periods, err := r.client.FetchPeriods(ctx, item.ID)
		if err != nil {
			return err
		}
		raw := &model.RawAgreement{ID: model.FlexInt(item.ID), Title: item.Title}
		normalized := budget.NormalizeAgreement(raw, periods, r.now())
		item.Budget = normalized.Budget
		item.PeriodStart = normalized.PeriodStart
		item.PeriodEnd = normalized.PeriodEnd

	default:
		return fmt.Errorf("unknown item kind: %s", item.Kind)
	}

	item.LastRefreshedAt = r.now()
	item.RefreshError = ""
	return nil
}
