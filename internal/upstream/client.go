package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"accelodash/internal/model"
)

// SettingsSource 提供当前上游凭据（每次请求实时读取，不做快照）
type SettingsSource func() (*model.Settings, error)

// Options 客户端参数
type Options struct {
	RequestTimeout time.Duration // 单次请求超时
	CacheTTL       time.Duration // GET 缓存有效期
	BatchDelay     time.Duration // 批量拉取的串行间隔
}

// Client 上游 API 客户端
// 所有 GET 响应按完整 URL 缓存固定 TTL；请求前先本地校验 token 有效期
type Client struct {
	httpClient *http.Client
	settings   SettingsSource
	cache      *responseCache
	batchDelay time.Duration
	now        func() time.Time
}

// NewClient 创建上游客户端
func NewClient(settings SettingsSource, opts Options) *Client {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = 300 * time.Millisecond
	}
	return &Client{
		httpClient: &http.Client{Timeout: opts.RequestTimeout},
		settings:   settings,
		cache:      newResponseCache(opts.CacheTTL),
		batchDelay: opts.BatchDelay,
		now:        time.Now,
	}
}

// BaseURL 由部署名推导 API 根地址
// 支持三种写法：完整 URL、完整主机名、裸部署名
func BaseURL(deployment string) string {
	d := strings.TrimSuffix(strings.TrimSpace(deployment), "/")
	switch {
	case strings.Contains(d, "://"):
		return d + "/api/v0"
	case strings.Contains(d, "."):
		return "https://" + d + "/api/v0"
	default:
		return "https://" + d + ".api.accelo.com/api/v0"
	}
}

// ClearCache 清空响应缓存（用户主动整体刷新时调用）
func (c *Client) ClearCache() {
	c.cache.clear()
}

// BatchDelay 批量拉取时在相邻请求之间等待固定间隔
// 这是为规避上游限流的有意节流，不是可优化项
func (c *Client) BatchDelay(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.batchDelay):
		return nil
	}
}

// get 发起缓存化 GET 请求，返回原始响应体
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	settings, err := c.settings()
	if err != nil {
		return nil, err
	}
	if !settings.Configured() {
		return nil, ErrNotConfigured
	}
	// 过期 token 直接失败，不发请求也不尝试刷新
	if settings.TokenExpired(c.now()) {
		return nil, ErrTokenExpired
	}

	endpoint := BaseURL(settings.Deployment) + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	if body, ok := c.cache.get(endpoint, c.now()); ok {
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+settings.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &UpstreamError{
			Status:  resp.StatusCode,
			Message: envelopeMessage(body),
		}
	}

	c.cache.set(endpoint, body, c.now())
	return body, nil
}

// SearchCompanies 按关键字搜索公司
func (c *Client) SearchCompanies(ctx context.Context, keyword string) ([]model.RawCompany, error) {
	query := url.Values{}
	query.Set("_search", keyword)
	query.Set("_fields", "id,name")
	query.Set("_limit", "20")

	body, err := c.get(ctx, "companies", query)
	if err != nil {
		return nil, err
	}
	return decodeList[model.RawCompany](body, "companies"), nil
}

// SearchProjects 按关键字搜索项目
func (c *Client) SearchProjects(ctx context.Context, keyword string) ([]model.RawProject, error) {
	query := url.Values{}
	query.Set("_search", keyword)
	query.Set("_fields", "id,title,against,company(id,name)")
	query.Set("_limit", "20")

	body, err := c.get(ctx, "jobs", query)
	if err != nil {
		return nil, err
	}
	return decodeList[model.RawProject](body, "jobs", "projects"), nil
}

// SearchAgreements 按关键字搜索服务协议
func (c *Client) SearchAgreements(ctx context.Context, keyword string) ([]model.RawAgreement, error) {
	query := url.Values{}
	query.Set("_search", keyword)
	query.Set("_fields", "id,title,against,company(id,name)")
	query.Set("_limit", "20")

	body, err := c.get(ctx, "contracts", query)
	if err != nil {
		return nil, err
	}
	return decodeList[model.RawAgreement](body, "contracts", "agreements"), nil
}

// FetchProject 拉取单个项目
func (c *Client) FetchProject(ctx context.Context, id int64) (*model.RawProject, error) {
	query := url.Values{}
	query.Set("_fields", "id,title,against,company(id,name)")

	body, err := c.get(ctx, fmt.Sprintf("jobs/%d", id), query)
	if err != nil {
		return nil, err
	}
	project := &model.RawProject{}
	decodeObject(body, project)
	return project, nil
}

// FetchAgreement 拉取单个服务协议
func (c *Client) FetchAgreement(ctx context.Context, id int64) (*model.RawAgreement, error) {
	query := url.Values{}
	query.Set("_fields", "id,title,against,company(id,name)")

	body, err := c.get(ctx, fmt.Sprintf("contracts/%d", id), query)
	if err != nil {
		return nil, err
	}
	agreement := &model.RawAgreement{}
	decodeObject(body, agreement)
	return agreement, nil
}

// FetchAllocations 拉取项目工时汇总（上游已含任务/里程碑聚合）
func (c *Client) FetchAllocations(ctx context.Context, projectID int64) (*model.Allocations, error) {
	query := url.Values{}
	query.Set("against_type", "job")
	query.Set("against_id", fmt.Sprintf("%d", projectID))

	body, err := c.get(ctx, "activities/allocations", query)
	if err != nil {
		return nil, err
	}
	alloc := &model.Allocations{}
	decodeObject(body, alloc)
	return alloc, nil
}

// FetchPeriods 拉取服务协议的合同周期（按开始时间倒序）
func (c *Client) FetchPeriods(ctx context.Context, agreementID int64) ([]model.RawPeriod, error) {
	query := url.Values{}
	query.Set("_fields", "id,status,date_commenced,date_expires,allowance,budget_used")
	query.Set("_order_by", "date_commenced_desc")
	query.Set("_limit", "25")

	body, err := c.get(ctx, fmt.Sprintf("contracts/%d/periods", agreementID), query)
	if err != nil {
		return nil, err
	}
	return decodeList[model.RawPeriod](body, "periods", "contract_periods"), nil
}
