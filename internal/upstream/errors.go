package upstream

import (
	"errors"
	"fmt"
)

// ErrNotConfigured 尚未配置上游凭据
var ErrNotConfigured = errors.New("upstream not configured")

// ErrTokenExpired 本地判定 access token 已过期（请求未发出）
var ErrTokenExpired = errors.New("access token expired")

// UpstreamError 上游返回非 2xx
type UpstreamError struct {
	Status  int    // HTTP 状态码
	Message string // 上游 meta.message（若有）
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("upstream returned status %d", e.Status)
}

// IsAuthError 是否为需要重新配置凭据的错误
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrTokenExpired)
}
