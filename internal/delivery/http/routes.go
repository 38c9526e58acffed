package http

import (
	"github.com/catalogrank/backend/config"
	"github.com/catalogrank/backend/internal/domain"
	"github.com/catalogrank/backend/internal/infrastructure/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	logger = logging.OrNop(logger)

	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger.Named("http")))
	router.Use(RecoveryMiddleware(logger))
	router.Use(MetricsMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Operational endpoints
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		recommendations := api.Group("/recommendations")
		{
			recommendations.POST("/chat", handler.Chat)
		}

		analytics := api.Group("/analytics")
		{
			analytics.GET("/summary", handler.Summary)
			analytics.GET("/price-distribution", handler.PriceDistribution)
			analytics.GET("/top-brands", handler.TopValues(domain.ColumnBrand, "brand"))
			analytics.GET("/top-categories", handler.TopCategories)
			analytics.GET("/material-distribution", handler.TopValues(domain.ColumnMaterial, "material"))
			analytics.GET("/color-distribution", handler.TopValues(domain.ColumnColor, "color"))
			analytics.GET("/country-origin", handler.TopValues(domain.ColumnCountry, "country"))
			analytics.GET("/price-by-category", handler.PriceByCategory)
		}
	}

	return router
}
