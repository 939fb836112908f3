package handlers

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"accelodash/internal/store"
	"accelodash/internal/upstream"
)

// relayHeaderTarget 目标地址走旁路 header，避免和网关自身的路由混在一起
const relayHeaderTarget = "X-Relay-Url"

// forwardedHeaders 仅转发这几个请求头，其余一概丢弃
var forwardedHeaders = []string{"Authorization", "Content-Type", "Accept"}

// relayProxy 受限上游代理：把前端请求转发到允许名单内的主机
// 上游状态码与响应体原样透传；网络失败统一返回 500 {"error": ...}
type relayProxy struct {
	store      *store.Store
	httpClient *http.Client
	extraHosts []string
}

func newRelayProxy(s *store.Store, extraHosts []string) *relayProxy {
	return &relayProxy{
		store:      s,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		extraHosts: extraHosts,
	}
}

// hostAllowed 目标主机是否在允许名单
// 名单 = 配置的部署主机 + *.api.accelo.com + 配置文件里的额外主机
func (p *relayProxy) hostAllowed(host string) bool {
	host = strings.ToLower(host)
	if strings.HasSuffix(host, ".api.accelo.com") {
		return true
	}

	if settings, err := p.store.LoadSettings(); err == nil && settings.Configured() {
		if deployed, err := url.Parse(upstream.BaseURL(settings.Deployment)); err == nil {
			if strings.EqualFold(deployed.Hostname(), host) {
				return true
			}
		}
	}

	for _, allowed := range p.extraHosts {
		if strings.EqualFold(allowed, host) {
			return true
		}
	}
	return false
}

// Relay 转发一次上游请求
// GET|POST /api/relay（目标地址在 X-Relay-Url 头）
func (h *Handler) Relay(c *gin.Context) {
	target := c.GetHeader(relayHeaderTarget)
	if target == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + relayHeaderTarget + " header"})
		return
	}

	parsed, err := url.Parse(target)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid relay target"})
		return
	}
	if !h.relay.hostAllowed(parsed.Hostname()) {
		c.JSON(http.StatusForbidden, gin.H{"error": "relay target host not allowed"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, target, c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	for _, name := range forwardedHeaders {
		if v := c.GetHeader(name); v != "" {
			req.Header.Set(name, v)
		}
	}

	resp, err := h.relay.httpClient.Do(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(resp.StatusCode, contentType, body)
}
