package model

import "time"

// Settings 上游凭据配置（整体替换式存储）
type Settings struct {
	Deployment  string `json:"deployment"`  // Accelo 部署名或完整主机名
	AccessToken string `json:"accessToken"` // Bearer token
	TokenExpiry int64  `json:"tokenExpiry"` // 过期时间（Unix 秒），0 表示未知
	UserName    string `json:"userName,omitempty"`
	UserEmail   string `json:"userEmail,omitempty"`
}

// Configured 是否已配置凭据
func (s *Settings) Configured() bool {
	return s != nil && s.Deployment != "" && s.AccessToken != ""
}

// TokenExpired 本地判断 token 是否已过期
// 过期时间未知（0）时视为未过期，由上游返回 401 兜底
func (s *Settings) TokenExpired(now time.Time) bool {
	if s == nil || s.TokenExpiry == 0 {
		return false
	}
	return now.Unix() >= s.TokenExpiry
}
