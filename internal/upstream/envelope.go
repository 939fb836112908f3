package upstream

import (
	"bytes"
	"encoding/json"
)

// 上游的响应包裹并不稳定：多数接口返回 {meta, response}，response
// 可能是数组、对象、按资源名再包一层的对象，也可能整体缺失。
// 这里的解码一律把缺失当空、把坏形状当零值，绝不让上游形状问题冒泡。

type metaEnvelope struct {
	Meta struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"meta"`
	Response json.RawMessage `json:"response"`
}

// envelopeMessage 提取上游错误消息（若有）
func envelopeMessage(body []byte) string {
	var env metaEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Meta.Message
}

// unwrap 提取 response 字段；没有 envelope 时返回原始体
func unwrap(body []byte) json.RawMessage {
	var env metaEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return body
	}
	if len(env.Response) == 0 {
		return body
	}
	return env.Response
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || string(raw) == "null"
}

// decodeList 把响应解析为列表
// 依次尝试：response 本身是数组；response 是对象且候选字段为数组。
// 均不成立时返回空列表
func decodeList[T any](body []byte, fields ...string) []T {
	raw := unwrap(body)
	if isNull(raw) {
		return []T{}
	}

	var direct []T
	if err := json.Unmarshal(raw, &direct); err == nil {
		if direct == nil {
			return []T{}
		}
		return direct
	}

	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keyed); err != nil {
		return []T{}
	}
	for _, field := range fields {
		inner, ok := keyed[field]
		if !ok || isNull(inner) {
			continue
		}
		var out []T
		if err := json.Unmarshal(inner, &out); err == nil && out != nil {
			return out
		}
	}
	return []T{}
}

// decodeObject 把响应解析为单个对象；形状不符时保持 out 的零值
func decodeObject(body []byte, out interface{}) {
	raw := unwrap(body)
	if isNull(raw) {
		return
	}
	_ = json.Unmarshal(raw, out)
}
