// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"fletero/internal/domain/auth"
	"fletero/internal/domain/export"
	"fletero/internal/domain/liquidation"
	"fletero/internal/domain/stats"
	"fletero/internal/infrastructure/http/v1/handlers"
	"fletero/internal/infrastructure/http/v1/middleware"
	"fletero/internal/infrastructure/storage/postgres"
	"fletero/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Pool *postgres.Pool

	Logger *logger.Logger

	JWTValidator middleware.JWTValidator

	AuthService        *auth.Service
	LiquidationService *liquidation.Service
	StatsService       *stats.Service
	ExportService      *export.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	baseHandler := handlers.NewBaseHandler()

	// API v1
	v1 := router.Group("/api/v1")
	{
		authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

		publicAuth := v1.Group("/auth")

		protectedAuth := v1.Group("/auth")
		protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

		authHandler.RegisterRoutes(publicAuth, protectedAuth)

		// Protected endpoints
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		handlers.NewLiquidationHandler(baseHandler, cfg.LiquidationService).
			RegisterRoutes(protected)

		handlers.NewStatsHandler(baseHandler, cfg.StatsService).
			RegisterRoutes(protected.Group("/stats"))

		handlers.NewExportHandler(baseHandler, cfg.ExportService).
			RegisterRoutes(protected)
	}

	return router
}
