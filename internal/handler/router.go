package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/siqiongbil/blog-analytics/internal/middleware"
	"github.com/siqiongbil/blog-analytics/internal/service"
	"go.uber.org/zap"
)

// HealthCheck godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /api/v1/health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func NewRouter(
	visitService service.VisitService,
	statsService service.StatsService,
	cleanupService service.CleanupService,
	skipFilter *service.SkipFilter,
	rateLimiter *middleware.RateLimiter,
	apiKeyMiddleware gin.HandlerFunc,
	logger *zap.Logger,
) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.Default()

	// Middleware для логгирования
	router.Use(func(c *gin.Context) {
		logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
		)
		c.Next()
	})

	// CORS: эндпоинт записи посещений дергается из браузера с фронта блога
	router.Use(cors.Default())

	// Rate limiting для всех запросов
	router.Use(rateLimiter.Middleware())

	// Инициализация обработчиков
	visitHandler := NewVisitHandler(visitService, skipFilter, logger)
	statsHandler := NewStatsHandler(statsService, logger)
	cleanupHandler := NewCleanupHandler(cleanupService, logger)

	// API v.1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", HealthCheck)

		// Запись посещений открыта: её вызывает публичный фронт блога
		v1.POST("/visits", visitHandler.RecordVisit)

		// Применяем API Key middleware только к защищенным эндпоинтам
		if apiKeyMiddleware != nil {
			v1.Use(apiKeyMiddleware)
		}

		v1.GET("/articles/:id/stats", visitHandler.GetArticleStats)
		v1.GET("/articles/:id/visits", visitHandler.GetVisitDetails)

		stats := v1.Group("/stats")
		{
			stats.GET("/trends", statsHandler.GetTrends)
			stats.GET("/hot-articles", statsHandler.GetHotArticles)
			stats.GET("/referers", statsHandler.GetRefererStats)
			stats.GET("/devices", statsHandler.GetDeviceStats)
			stats.GET("/hourly", statsHandler.GetHourlyStats)
			stats.GET("/locations", statsHandler.GetLocationStats)
			stats.GET("/countries", statsHandler.GetCountryStats)
		}

		v1.POST("/cleanup", cleanupHandler.Cleanup)
		v1.GET("/cleanup/stats", cleanupHandler.GetCleanupStats)
	}

	// Swagger документация (без аутентификации)
	AddSwaggerRoutes(router)

	return router
}
