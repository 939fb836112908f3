package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"accelodash/internal/exporter"
	"accelodash/internal/service/budget"
)

// searchRow 搜索结果的归一化行（前端无需理解上游包裹格式）
type searchRow struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	CompanyID   string `json:"companyId,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
}

// Search 上游搜索
// GET /api/search?kind=project|agreement|company&q=...
func (h *Handler) Search(c *gin.Context) {
	keyword := strings.TrimSpace(c.Query("q"))
	kind := strings.TrimSpace(c.Query("kind"))
	ctx := c.Request.Context()

	rows := []searchRow{}
	switch kind {
	case "company":
		companies, err := h.client.SearchCompanies(ctx, keyword)
		if err != nil {
			writeError(c, err)
			return
		}
		for _, company := range companies {
			rows = append(rows, searchRow{
				ID:    int64(company.ID),
				Kind:  kind,
				Title: company.Name,
			})
		}

	case "project":
		projects, err := h.client.SearchProjects(ctx, keyword)
		if err != nil {
			writeError(c, err)
			return
		}
		for i := range projects {
			companyID, companyName := budget.CompanyRef(projects[i].Company, projects[i].Against)
			rows = append(rows, searchRow{
				ID:          int64(projects[i].ID),
				Kind:        kind,
				Title:       projects[i].Title,
				CompanyID:   companyID,
				CompanyName: companyName,
			})
		}

	case "agreement":
		agreements, err := h.client.SearchAgreements(ctx, keyword)
		if err != nil {
			writeError(c, err)
			return
		}
		for i := range agreements {
			companyID, companyName := budget.CompanyRef(agreements[i].Company, agreements[i].Against)
			rows = append(rows, searchRow{
				ID:          int64(agreements[i].ID),
				Kind:        kind,
				Title:       agreements[i].Title,
				CompanyID:   companyID,
				CompanyName: companyName,
			})
		}

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be one of company, project, agreement"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": rows, "total": len(rows)})
}

// ExportDashboard 导出仪表盘预算报表
// GET /api/dashboards/:id/export
func (h *Handler) ExportDashboard(c *gin.Context) {
	summary, state, err := h.loadDashboard(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	now := time.Now()
	f, err := exporter.NewExporter().Export(summary.Name, state, now)
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", `attachment; filename="`+exporter.FileName(summary.Name, now)+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		// 响应头已写出，只能记日志
		log.Printf("failed to stream export: %v", err)
	}
}
