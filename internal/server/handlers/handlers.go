package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"accelodash/internal/model"
	"accelodash/internal/service/arrange"
	"accelodash/internal/service/board"
	"accelodash/internal/service/budget"
	"accelodash/internal/service/refresh"
	"accelodash/internal/store"
	"accelodash/internal/upstream"
)

// Handler API处理器
type Handler struct {
	store     *store.Store
	boards    *board.Manager
	client    *upstream.Client
	refresher *refresh.Refresher
	relay     *relayProxy
}

// NewHandler 创建处理器
func NewHandler(s *store.Store, boards *board.Manager, client *upstream.Client, refresher *refresh.Refresher, extraRelayHosts []string) *Handler {
	return &Handler{
		store:     s,
		boards:    boards,
		client:    client,
		refresher: refresher,
		relay:     newRelayProxy(s, extraRelayHosts),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 凭据配置
	router.GET("/settings", h.GetSettings)
	router.POST("/settings", h.SaveSettings)

	// 仪表盘管理
	router.GET("/dashboards", h.ListDashboards)
	router.POST("/dashboards", h.CreateDashboard)
	router.PATCH("/dashboards/:id", h.RenameDashboard)
	router.DELETE("/dashboards/:id", h.DeleteDashboard)
	router.POST("/dashboards/:id/select", h.SelectDashboard)

	// 仪表盘状态与条目
	router.GET("/dashboards/:id/state", h.GetDashboardState)
	router.POST("/dashboards/:id/items", h.PinItem)
	router.DELETE("/dashboards/:id/items/:kind/:itemId", h.UnpinItem)
	router.POST("/dashboards/:id/items/move", h.MoveItem)
	router.POST("/dashboards/:id/companies/move", h.MoveCompany)
	router.PUT("/dashboards/:id/companies/:companyId/color", h.SetCompanyColor)
	router.POST("/dashboards/:id/refresh", h.RefreshDashboard)
	router.GET("/dashboards/:id/export", h.ExportDashboard)

	// 上游搜索
	router.GET("/search", h.Search)

	// 上游 relay（给前端直连上游用的受限代理）
	router.GET("/relay", h.Relay)
	router.POST("/relay", h.Relay)
}

// writeError 统一错误映射
func writeError(c *gin.Context, err error) {
	var upstreamErr *upstream.UpstreamError

	switch {
	case errors.Is(err, upstream.ErrNotConfigured):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "not_configured"})
	case errors.Is(err, upstream.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "code": "token_expired"})
	case errors.As(err, &upstreamErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": upstreamErr.Error(), "upstreamStatus": upstreamErr.Status})
	case errors.Is(err, board.ErrDashboardNotFound),
		errors.Is(err, board.ErrItemNotPinned),
		errors.Is(err, arrange.ErrItemNotFound),
		errors.Is(err, arrange.ErrCompanyNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, board.ErrLastDashboard),
		errors.Is(err, board.ErrDuplicateItem),
		errors.Is(err, arrange.ErrCrossCompanyMove):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// StatusResponse 系统状态响应
type StatusResponse struct {
	Configured         bool   `json:"configured"`         // 是否已配置上游凭据
	TokenExpired       bool   `json:"tokenExpired"`       // token 是否已过期
	Dashboards         int    `json:"dashboards"`         // 仪表盘数量
	CurrentDashboardID string `json:"currentDashboardId"` // 当前仪表盘
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	settings, err := h.store.LoadSettings()
	if err != nil {
		writeError(c, err)
		return
	}

	index := h.boards.List()
	c.JSON(http.StatusOK, StatusResponse{
		Configured:         settings.Configured(),
		TokenExpired:       settings.Configured() && settings.TokenExpired(time.Now()),
		Dashboards:         len(index.Dashboards),
		CurrentDashboardID: index.CurrentDashboardID,
	})
}

// ==================== Dashboards ====================

// ListDashboards 获取仪表盘索引
// GET /api/dashboards
func (h *Handler) ListDashboards(c *gin.Context) {
	c.JSON(http.StatusOK, h.boards.List())
}

// CreateDashboard 新建仪表盘（并切换为当前）
// POST /api/dashboards
func (h *Handler) CreateDashboard(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	summary, err := h.boards.CreateDashboard(req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// RenameDashboard 重命名仪表盘
// PATCH /api/dashboards/:id
func (h *Handler) RenameDashboard(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	summary, err := h.boards.Rename(c.Param("id"), req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// DeleteDashboard 删除仪表盘（最后一个拒绝删除）
// DELETE /api/dashboards/:id
func (h *Handler) DeleteDashboard(c *gin.Context) {
	if err := h.boards.DeleteDashboard(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.boards.List())
}

// SelectDashboard 切换当前仪表盘
// POST /api/dashboards/:id/select
func (h *Handler) SelectDashboard(c *gin.Context) {
	if err := h.boards.SetCurrent(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.boards.List())
}

// ==================== State & items ====================

// itemView 条目渲染视图：持久化字段 + 实时计算字段
type itemView struct {
	model.TrackedItem
	Percentage float64 `json:"percentage"`
	Overage    float64 `json:"overage"` // 超支外推展示值，未超支为 0
}

type groupView struct {
	CompanyID   string             `json:"companyId"`
	CompanyName string             `json:"companyName"`
	Color       model.CompanyColor `json:"color"`
	Items       []itemView         `json:"items"`
}

type stateResponse struct {
	Dashboard     model.DashboardSummary        `json:"dashboard"`
	CompanyOrder  []string                      `json:"companyOrder"`
	CompanyColors map[string]model.CompanyColor `json:"companyColors"`
	Groups        []groupView                   `json:"groups"`
	GeneratedAt   time.Time                     `json:"generatedAt"`
}

// GetDashboardState 获取仪表盘状态（含分组与实时计算值）
// GET /api/dashboards/:id/state
func (h *Handler) GetDashboardState(c *gin.Context) {
	id := c.Param("id")

	summary, state, err := h.loadDashboard(id)
	if err != nil {
		writeError(c, err)
		return
	}

	now := time.Now()
	groups := []groupView{}
	for _, group := range arrange.GroupByCompany(state) {
		view := groupView{
			CompanyID:   group.CompanyID,
			CompanyName: group.CompanyName,
			Color:       state.CompanyColors[group.CompanyID],
			Items:       []itemView{},
		}
		for i := range group.Items {
			view.Items = append(view.Items, buildItemView(&group.Items[i], now))
		}
		groups = append(groups, view)
	}

	c.JSON(http.StatusOK, stateResponse{
		Dashboard:     summary,
		CompanyOrder:  state.CompanyOrder,
		CompanyColors: state.CompanyColors,
		Groups:        groups,
		GeneratedAt:   now,
	})
}

func (h *Handler) loadDashboard(id string) (model.DashboardSummary, *model.DashboardState, error) {
	var summary model.DashboardSummary
	found := false
	for _, d := range h.boards.List().Dashboards {
		if d.ID == id {
			summary = d
			found = true
			break
		}
	}
	if !found {
		return summary, nil, board.ErrDashboardNotFound
	}

	state, err := h.boards.LoadState(id)
	if err != nil {
		return summary, nil, err
	}
	return summary, state, nil
}

// PinItem 固定条目到仪表盘
// POST /api/dashboards/:id/items
func (h *Handler) PinItem(c *gin.Context) {
	var req struct {
		Kind string `json:"kind"`
		ID   int64  `json:"id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	kind, err := model.ParseItemKind(req.Kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.refresher.BuildItem(c.Request.Context(), kind, req.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	dashboardID := c.Param("id")
	if err := h.boards.AddItem(dashboardID, item); err != nil {
		writeError(c, err)
		return
	}

	// 新公司自动分配配色
	h.ensureCompanyColor(dashboardID, item.CompanyID)

	c.JSON(http.StatusCreated, buildItemView(&item, time.Now()))
}

// UnpinItem 从仪表盘移除条目
// DELETE /api/dashboards/:id/items/:kind/:itemId
func (h *Handler) UnpinItem(c *gin.Context) {
	kind, err := model.ParseItemKind(c.Param("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	itemID, err := strconv.ParseInt(c.Param("itemId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	if err := h.boards.RemoveItem(c.Param("id"), kind, itemID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MoveItem 公司内重排条目
// POST /api/dashboards/:id/items/move
func (h *Handler) MoveItem(c *gin.Context) {
	var req struct {
		Kind            string `json:"kind"`
		ID              int64  `json:"id"`
		TargetCompanyID string `json:"targetCompanyId"`
		Anchor          *struct {
			Kind string `json:"kind"`
			ID   int64  `json:"id"`
		} `json:"anchor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	kind, err := model.ParseItemKind(req.Kind)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var anchor *arrange.ItemRef
	if req.Anchor != nil {
		anchorKind, err := model.ParseItemKind(req.Anchor.Kind)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		anchor = &arrange.ItemRef{Kind: anchorKind, ID: req.Anchor.ID}
	}

	dashboardID := c.Param("id")
	state, err := h.boards.LoadState(dashboardID)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := arrange.MoveItem(state, arrange.ItemRef{Kind: kind, ID: req.ID}, req.TargetCompanyID, anchor); err != nil {
		writeError(c, err)
		return
	}
	if err := h.boards.SaveState(dashboardID, state); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companyOrder": state.CompanyOrder})
}

// MoveCompany 重排公司分组
// POST /api/dashboards/:id/companies/move
func (h *Handler) MoveCompany(c *gin.Context) {
	var req struct {
		CompanyID       string `json:"companyId"`
		AnchorCompanyID string `json:"anchorCompanyId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	dashboardID := c.Param("id")
	state, err := h.boards.LoadState(dashboardID)
	if err != nil {
		writeError(c, err)
		return
	}

	if err := arrange.MoveCompany(state, req.CompanyID, req.AnchorCompanyID); err != nil {
		writeError(c, err)
		return
	}
	if err := h.boards.SaveState(dashboardID, state); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"companyOrder": state.CompanyOrder})
}

// SetCompanyColor 设置公司配色；空请求体表示按默认色板自动分配
// PUT /api/dashboards/:id/companies/:companyId/color
func (h *Handler) SetCompanyColor(c *gin.Context) {
	var req model.CompanyColor
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	dashboardID := c.Param("id")
	companyID := c.Param("companyId")

	if req.Value == "" {
		state, err := h.boards.LoadState(dashboardID)
		if err != nil {
			writeError(c, err)
			return
		}
		req = pickPaletteColor(len(state.CompanyColors))
	}

	if err := h.boards.SetCompanyColor(dashboardID, companyID, req); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// RefreshDashboard 刷新仪表盘全部条目
// POST /api/dashboards/:id/refresh
func (h *Handler) RefreshDashboard(c *gin.Context) {
	result, err := h.refresher.RefreshDashboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ensureCompanyColor 公司首次出现时分配默认配色
func (h *Handler) ensureCompanyColor(dashboardID string, companyID string) {
	if companyID == "" {
		return
	}
	state, err := h.boards.LoadState(dashboardID)
	if err != nil {
		return
	}
	if _, ok := state.CompanyColors[companyID]; ok {
		return
	}
	_ = h.boards.SetCompanyColor(dashboardID, companyID, pickPaletteColor(len(state.CompanyColors)))
}

func buildItemView(item *model.TrackedItem, now time.Time) itemView {
	return itemView{
		TrackedItem: *item,
		Percentage:  item.Percentage(),
		Overage:     budget.Overage(item, now),
	}
}
