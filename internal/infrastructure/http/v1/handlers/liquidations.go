package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fletero/internal/core/apperror"
	"fletero/internal/core/id"
	"fletero/internal/core/period"
	"fletero/internal/domain/liquidation"
	"fletero/internal/infrastructure/http/v1/dto"
)

// LiquidationHandler handles settlement endpoints.
type LiquidationHandler struct {
	*BaseHandler
	service *liquidation.Service
}

// NewLiquidationHandler creates a new settlement handler.
func NewLiquidationHandler(base *BaseHandler, service *liquidation.Service) *LiquidationHandler {
	return &LiquidationHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *LiquidationHandler) parsePeriod(c *gin.Context) (period.Period, bool) {
	p, err := period.ParseKey(c.Param("period"))
	if err != nil {
		h.Error(c, err)
		return period.Period{}, false
	}
	return p, true
}

func (h *LiquidationHandler) parseID(c *gin.Context, param string) (id.ID, bool) {
	parsed, err := id.Parse(c.Param(param))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").WithDetail("param", param))
		return id.Nil(), false
	}
	return parsed, true
}

// RecomputePeriod handles POST /periods/:period/recompute
func (h *LiquidationHandler) RecomputePeriod(c *gin.Context) {
	p, ok := h.parsePeriod(c)
	if !ok {
		return
	}

	count, err := h.service.RecomputePeriod(c.Request.Context(), p)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.RecomputeResponse{Period: p.Key(), Settlements: count})
}

// RecomputeVehicle handles POST /periods/:period/vehicles/:vehicleId/recompute
func (h *LiquidationHandler) RecomputeVehicle(c *gin.Context) {
	p, ok := h.parsePeriod(c)
	if !ok {
		return
	}
	vehicleID, ok := h.parseID(c, "vehicleId")
	if !ok {
		return
	}

	l, err := h.service.RecomputeVehicle(c.Request.Context(), p, vehicleID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, l)
}

// ListByPeriod handles GET /periods/:period/liquidations
func (h *LiquidationHandler) ListByPeriod(c *gin.Context) {
	p, ok := h.parsePeriod(c)
	if !ok {
		return
	}

	list, err := h.service.ListByPeriod(c.Request.Context(), p)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": list})
}

// SetPeriodStatus handles PUT /periods/:period/status
func (h *LiquidationHandler) SetPeriodStatus(c *gin.Context) {
	p, ok := h.parsePeriod(c)
	if !ok {
		return
	}

	var req dto.PeriodStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetPeriodStatus(c.Request.Context(), p, period.Status(req.Status)); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "period status updated")
}

// Get handles GET /liquidations/:id
func (h *LiquidationHandler) Get(c *gin.Context) {
	liquidationID, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	l, err := h.service.GetByID(c.Request.Context(), liquidationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, l)
}

// AddDeduction handles POST /liquidations/:id/deductions
func (h *LiquidationHandler) AddDeduction(c *gin.Context) {
	liquidationID, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req dto.AddDeductionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.service.AddDeduction(c.Request.Context(), liquidationID,
		liquidation.DeductionKind(req.Kind), req.Amount, req.Description)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, d)
}

// RemoveDeduction handles DELETE /liquidations/:id/deductions/:deductionId
func (h *LiquidationHandler) RemoveDeduction(c *gin.Context) {
	deductionID, ok := h.parseID(c, "deductionId")
	if !ok {
		return
	}

	if err := h.service.RemoveDeduction(c.Request.Context(), deductionID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// SetAdjustment handles PUT /liquidations/:id/adjustment
func (h *LiquidationHandler) SetAdjustment(c *gin.Context) {
	liquidationID, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	var req dto.AdjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	l, err := h.service.SetManualAdjustment(c.Request.Context(), liquidationID, req.Amount, req.Description)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, l)
}

// Approve handles POST /liquidations/:id/approve
func (h *LiquidationHandler) Approve(c *gin.Context) {
	liquidationID, ok := h.parseID(c, "id")
	if !ok {
		return
	}

	l, err := h.service.Approve(c.Request.Context(), liquidationID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, l)
}

// RegisterRoutes registers settlement routes.
func (h *LiquidationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	periods := rg.Group("/periods/:period")
	{
		periods.POST("/recompute", h.RecomputePeriod)
		periods.POST("/vehicles/:vehicleId/recompute", h.RecomputeVehicle)
		periods.GET("/liquidations", h.ListByPeriod)
		periods.PUT("/status", h.SetPeriodStatus)
	}

	liquidations := rg.Group("/liquidations/:id")
	{
		liquidations.GET("", h.Get)
		liquidations.POST("/deductions", h.AddDeduction)
		liquidations.DELETE("/deductions/:deductionId", h.RemoveDeduction)
		liquidations.PUT("/adjustment", h.SetAdjustment)
		liquidations.POST("/approve", h.Approve)
	}
}
