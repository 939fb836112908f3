package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"accelodash/internal/model"
)

// GetSettings 读取上游凭据
// GET /api/settings（未配置返回 404，前端据此跳转配置页）
func (h *Handler) GetSettings(c *gin.Context) {
	settings, err := h.store.LoadSettings()
	if err != nil {
		writeError(c, err)
		return
	}
	if settings == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "settings not configured"})
		return
	}
	c.JSON(http.StatusOK, settings)
}

// SaveSettings 整体替换上游凭据；提交空对象表示清除
// POST /api/settings
func (h *Handler) SaveSettings(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if len(raw) == 0 {
		if err := h.store.ClearSettings(); err != nil {
			writeError(c, err)
			return
		}
		h.client.ClearCache()
		c.JSON(http.StatusOK, gin.H{"cleared": true})
		return
	}

	// body 只能读一次，从已解析的 map 再还原成结构体
	data, err := json.Marshal(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var settings model.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.store.SaveSettings(&settings); err != nil {
		writeError(c, err)
		return
	}
	// 换凭据后旧缓存一律作废
	h.client.ClearCache()
	c.JSON(http.StatusOK, &settings)
}
