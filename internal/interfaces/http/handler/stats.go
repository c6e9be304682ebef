package handler

import (
	"time"

	"github.com/clinic/backend/internal/application/cashier"
	"github.com/clinic/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatsHandler handles the cashier dashboard stats endpoints
type StatsHandler struct {
	BaseHandler
	stats  *cashier.StatsService
	logger *zap.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(stats *cashier.StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		stats:  stats,
		logger: logger,
	}
}

// GetStats returns aggregate payment stats for a date range
func (h *StatsHandler) GetStats(c *gin.Context) {
	var req dto.StatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	stats, err := h.stats.Stats(c.Request.Context(), parseDate(req.DateFrom), parseDate(req.DateTo))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// GetHourlyStats returns the per-hour payment breakdown for one day,
// defaulting to today
func (h *StatsHandler) GetHourlyStats(c *gin.Context) {
	var req dto.HourlyStatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	targetDate := time.Now()
	if parsed := parseDate(req.Date); parsed != nil {
		targetDate = *parsed
	}

	hourly, err := h.stats.HourlyStats(c.Request.Context(), targetDate)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, hourly)
}

// RegisterRoutes registers stats routes under the cashier prefix
func (h *StatsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	statsGroup := rg.Group("/cashier/stats")
	{
		statsGroup.GET("", h.GetStats)
		statsGroup.GET("/hourly", h.GetHourlyStats)
	}
}
