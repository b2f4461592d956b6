package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/siqiongbil/blog-analytics/internal/models"
	"github.com/siqiongbil/blog-analytics/internal/service"
	"go.uber.org/zap"
)

type VisitHandler struct {
	service    service.VisitService
	skipFilter *service.SkipFilter
	logger     *zap.Logger
}

func NewVisitHandler(service service.VisitService, skipFilter *service.SkipFilter, logger *zap.Logger) *VisitHandler {
	return &VisitHandler{
		service:    service,
		skipFilter: skipFilter,
		logger:     logger,
	}
}

type RecordVisitRequest struct {
	ArticleID    int64  `json:"article_id" binding:"required,gt=0"`
	ArticleTitle string `json:"article_title"`
	Referer      string `json:"referer"`
	SessionID    string `json:"session_id"`
}

type RecordVisitResponse struct {
	Tracked         bool   `json:"tracked"`
	SkipReason      string `json:"skip_reason,omitempty"`
	VisitID         int64  `json:"visit_id,omitempty"`
	IsUniqueVisitor bool   `json:"is_unique_visitor"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RecordVisit godoc
// @Summary Record an article visit
// @Description Record a visit event with geolocation and device enrichment
// @Tags visits
// @Accept json
// @Produce json
// @Param request body RecordVisitRequest true "Visit event"
// @Success 200 {object} RecordVisitResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/visits [post]
func (h *VisitHandler) RecordVisit(c *gin.Context) {
	var req RecordVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	referer := req.Referer
	if referer == "" {
		referer = c.Request.Referer()
	}

	// Internal traffic and bots are filtered out before any storage work
	if skip, reason := h.skipFilter.ShouldSkip(service.TrackingRequest{
		Host:      c.Request.Host,
		Referer:   referer,
		UserAgent: c.Request.UserAgent(),
		ClientIP:  c.ClientIP(),
	}); skip {
		h.logger.Debug("Visit skipped",
			zap.Int64("article_id", req.ArticleID),
			zap.String("reason", reason),
		)
		c.JSON(http.StatusOK, RecordVisitResponse{
			Tracked:    false,
			SkipReason: reason,
		})
		return
	}

	event := &models.VisitEvent{
		ArticleID:    req.ArticleID,
		ArticleTitle: req.ArticleTitle,
		VisitorIP:    c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
		Referer:      referer,
		SessionID:    req.SessionID,
	}

	result, err := h.service.Record(c.Request.Context(), event)
	if err != nil {
		h.logger.Error("Failed to record visit", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to record visit",
		})
		return
	}

	c.JSON(http.StatusOK, RecordVisitResponse{
		Tracked:         true,
		VisitID:         result.VisitID,
		IsUniqueVisitor: result.IsUniqueVisitor,
	})
}

// GetArticleStats godoc
// @Summary Get visit statistics for an article
// @Description Total, unique, today, week and month visit counts
// @Tags visits
// @Produce json
// @Param id path int true "Article ID"
// @Success 200 {object} models.ArticleVisitStats
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/articles/{id}/stats [get]
func (h *VisitHandler) GetArticleStats(c *gin.Context) {
	articleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_article_id",
			Message: "Article ID must be a positive integer",
		})
		return
	}

	stats, err := h.service.GetArticleStats(c.Request.Context(), articleID)
	if err != nil {
		h.respondError(c, err, "Failed to get article stats")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetVisitDetails godoc
// @Summary Get raw visit records for an article
// @Description Paginated visit details, newest first
// @Tags visits
// @Produce json
// @Param id path int true "Article ID"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} models.VisitDetailsPage
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/articles/{id}/visits [get]
func (h *VisitHandler) GetVisitDetails(c *gin.Context) {
	articleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_article_id",
			Message: "Article ID must be a positive integer",
		})
		return
	}

	page, err := queryInt(c, "page", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_page",
			Message: "Page must be an integer",
		})
		return
	}

	pageSize, err := queryInt(c, "page_size", 20)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_page_size",
			Message: "Page size must be an integer",
		})
		return
	}

	details, err := h.service.GetVisitDetails(c.Request.Context(), articleID, page, pageSize)
	if err != nil {
		h.respondError(c, err, "Failed to get visit details")
		return
	}

	c.JSON(http.StatusOK, details)
}

// respondError маппит ошибки валидации на 400, остальные на 500
func (h *VisitHandler) respondError(c *gin.Context, err error, fallback string) {
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

// queryInt читает целочисленный query-параметр с дефолтом
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
