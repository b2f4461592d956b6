package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/siqiongbil/blog-analytics/internal/service"
	"go.uber.org/zap"
)

type StatsHandler struct {
	service service.StatsService
	logger  *zap.Logger
}

func NewStatsHandler(service service.StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		service: service,
		logger:  logger,
	}
}

// GetTrends godoc
// @Summary Get daily visit trends
// @Description Visits and unique visitors per day over the window
// @Tags stats
// @Produce json
// @Param days query int false "Window in days" default(7)
// @Success 200 {array} models.TrendPoint
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/stats/trends [get]
func (h *StatsHandler) GetTrends(c *gin.Context) {
	days, ok := h.queryDays(c)
	if !ok {
		return
	}

	trends, err := h.service.GetTrends(c.Request.Context(), days)
	if err != nil {
		h.respondError(c, err, "Failed to get trends")
		return
	}

	c.JSON(http.StatusOK, trends)
}

// GetHotArticles godoc
// @Summary Get most visited articles
// @Description Top articles by visit count over the window
// @Tags stats
// @Produce json
// @Param limit query int false "Maximum articles" default(10)
// @Param days query int false "Window in days" default(7)
// @Success 200 {array} models.HotArticle
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/stats/hot-articles [get]
func (h *StatsHandler) GetHotArticles(c *gin.Context) {
	days, ok := h.queryDays(c)
	if !ok {
		return
	}

	limit, err := queryInt(c, "limit", 10)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_limit",
			Message: "Limit must be an integer",
		})
		return
	}

	articles, err := h.service.GetHotArticles(c.Request.Context(), limit, days)
	if err != nil {
		h.respondError(c, err, "Failed to get hot articles")
		return
	}

	c.JSON(http.StatusOK, articles)
}

// GetRefererStats godoc
// @Summary Get referrer breakdown
// @Description Visits grouped by direct / search engine / other source
// @Tags stats
// @Produce json
// @Param days query int false "Window in days" default(7)
// @Success 200 {array} models.RefererStat
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/stats/referers [get]
func (h *StatsHandler) GetRefererStats(c *gin.Context) {
	days, ok := h.queryDays(c)
	if !ok {
		return
	}

	stats, err := h.service.GetRefererStats(c.Request.Context(), days)
	if err != nil {
		h.respondError(c, err, "Failed to get referer stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetDeviceStats godoc
// @Summary Get device type breakdown
// @Description Visits grouped by device type with percentages
// @Tags stats
// @Produce json
// @Param days query int false "Window in days" default(7)
// @Success 200 {array} models.DeviceStat
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/stats/devices [get]
func (h *StatsHandler) GetDeviceStats(c *gin.Context) {
	days, ok := h.queryDays(c)
	if !ok {
		return
	}

	stats, err := h.service.GetDeviceStats(c.Request.Context(), days)
	if err != nil {
		h.respondError(c, err, "Failed to get device stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetHourlyStats godoc
// @Summary Get hourly visit distribution
// @Description Visits grouped by hour of day over the window
// @Tags stats
// @Produce json
// @Param days query int false "Window in days" default(7)
// @Success 200 {array} models.HourlyStat
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/stats/hourly [get]
func (h *StatsHandler) GetHourlyStats(c *gin.Context) {
	days, ok := h.queryDays(c)
	if !ok {
		return
	}

	stats, err := h.service.GetHourlyStats(c.Request.Context(), days)
	if err != nil {
		h.respondError(c, err, "Failed to get hourly stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetLocationStats godoc
// @Summary Get location breakdown
// @Description Visits grouped by country/region/city with percentages
// @Tags stats
// @Produce json
// @Param days query int false "Window in days" default(7)
// @Success 200 {array} models.LocationStat
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/stats/locations [get]
func (h *StatsHandler) GetLocationStats(c *gin.Context) {
	days, ok := h.queryDays(c)
	if !ok {
		return
	}

	stats, err := h.service.GetLocationStats(c.Request.Context(), days)
	if err != nil {
		h.respondError(c, err, "Failed to get location stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetCountryStats godoc
// @Summary Get country breakdown
// @Description Visits grouped by country with percentages
// @Tags stats
// @Produce json
// @Param days query int false "Window in days" default(7)
// @Success 200 {array} models.CountryStat
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/stats/countries [get]
func (h *StatsHandler) GetCountryStats(c *gin.Context) {
	days, ok := h.queryDays(c)
	if !ok {
		return
	}

	stats, err := h.service.GetCountryStats(c.Request.Context(), days)
	if err != nil {
		h.respondError(c, err, "Failed to get country stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// queryDays читает параметр окна; ошибка парсинга сразу отвечает 400
func (h *StatsHandler) queryDays(c *gin.Context) (int, bool) {
	days, err := queryInt(c, "days", 7)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_days",
			Message: "Days must be an integer",
		})
		return 0, false
	}
	return days, true
}

func (h *StatsHandler) respondError(c *gin.Context, err error, fallback string) {
	if service.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_parameter",
			Message: err.Error(),
		})
		return
	}
	h.logger.Error(fallback, zap.Error(err))
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: fallback,
	})
}
