package handlers

import (
	"github.com/gin-gonic/gin"

	"fletero/internal/domain/stats"
)

// StatsHandler handles dashboard statistics endpoints.
type StatsHandler struct {
	*BaseHandler
	service *stats.Service
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(base *BaseHandler, service *stats.Service) *StatsHandler {
	return &StatsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Dashboard handles GET /stats/dashboard
func (h *StatsHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.service.GetDashboard(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dashboard)
}

// Summary handles GET /stats/summary
func (h *StatsHandler) Summary(c *gin.Context) {
	summary, err := h.service.GetSummary(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, summary)
}

// TopContractors handles GET /stats/top-contractors?limit=N
func (h *StatsHandler) TopContractors(c *gin.Context) {
	limit := h.ParseIntQuery(c, "limit", 0)

	top, err := h.service.GetTopContractors(c.Request.Context(), limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": top})
}

// RegisterRoutes registers stats routes.
func (h *StatsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.Dashboard)
	rg.GET("/summary", h.Summary)
	rg.GET("/top-contractors", h.TopContractors)
}
