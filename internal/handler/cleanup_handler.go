package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/siqiongbil/blog-analytics/internal/service"
	"go.uber.org/zap"
)

type CleanupHandler struct {
	service service.CleanupService
	logger  *zap.Logger
}

func NewCleanupHandler(service service.CleanupService, logger *zap.Logger) *CleanupHandler {
	return &CleanupHandler{
		service: service,
		logger:  logger,
	}
}

type CleanupRequest struct {
	MonthsToKeep int   `json:"months_to_keep" binding:"required"`
	DryRun       *bool `json:"dry_run"`
}

// Cleanup godoc
// @Summary Remove visit records older than the retention window
// @Description Dry-run by default: pass dry_run=false to actually delete
// @Tags cleanup
// @Accept json
// @Produce json
// @Param request body CleanupRequest true "Retention window"
// @Success 200 {object} models.CleanupReport
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/cleanup [post]
func (h *CleanupHandler) Cleanup(c *gin.Context) {
	var req CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	// Удаление требует явного dry_run=false
	dryRun := true
	if req.DryRun != nil {
		dryRun = *req.DryRun
	}

	report, err := h.service.Cleanup(c.Request.Context(), req.MonthsToKeep, dryRun)
	if err != nil {
		if service.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_months",
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("Cleanup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Cleanup failed",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetCleanupStats godoc
// @Summary Get storage overview for retention planning
// @Description Total records, date range and a 12-month histogram
// @Tags cleanup
// @Produce json
// @Success 200 {object} models.CleanupStats
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/cleanup/stats [get]
func (h *CleanupHandler) GetCleanupStats(c *gin.Context) {
	stats, err := h.service.GetCleanupStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get cleanup stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to get cleanup stats",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
