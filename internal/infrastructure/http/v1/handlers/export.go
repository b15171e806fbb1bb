package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"fletero/internal/core/period"
	"fletero/internal/domain/export"
)

// ExportHandler handles payment batch export endpoints.
type ExportHandler struct {
	*BaseHandler
	service *export.Service
}

// NewExportHandler creates a new export handler.
func NewExportHandler(base *BaseHandler, service *export.Service) *ExportHandler {
	return &ExportHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Download handles GET /periods/:period/export
// Streams the consolidated payment batch as a CSV attachment.
func (h *ExportHandler) Download(c *gin.Context) {
	p, err := period.ParseKey(c.Param("period"))
	if err != nil {
		h.Error(c, err)
		return
	}

	// Build into a buffer first; an error mid-write would otherwise leave
	// a truncated download with a 200 status.
	var buf bytes.Buffer
	totals, err := h.service.WriteBatch(c.Request.Context(), &buf, p)
	if err != nil {
		h.Error(c, err)
		return
	}

	filename := fmt.Sprintf("pagos_%s.csv", p.Key())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("X-Batch-Count", fmt.Sprintf("%d", totals.Count))
	c.Header("X-Batch-Total", fmt.Sprintf("%d", totals.TotalAmount))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// Preview handles GET /periods/:period/export/preview
// Returns the batch rows and totals as JSON for on-screen review.
func (h *ExportHandler) Preview(c *gin.Context) {
	p, err := period.ParseKey(c.Param("period"))
	if err != nil {
		h.Error(c, err)
		return
	}

	rows, totals, err := h.service.BuildBatch(c.Request.Context(), p)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{
		"items":  rows,
		"totals": totals,
	})
}

// RegisterRoutes registers export routes.
func (h *ExportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/periods/:period/export", h.Download)
	rg.GET("/periods/:period/export/preview", h.Preview)
}
