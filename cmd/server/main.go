// Package main is the entry point for the fletero API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"fletero/internal/domain/auth"
	"fletero/internal/domain/export"
	"fletero/internal/domain/liquidation"
	"fletero/internal/domain/stats"
	v1 "fletero/internal/infrastructure/http/v1"
	"fletero/internal/infrastructure/storage/postgres"
	"fletero/pkg/logger"
	"fletero/pkg/numerator"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting fletero server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Auth ---
	jwtSecret := mustEnv("JWT_SECRET")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	authService := auth.NewService(
		postgres.NewUserRepo(txManager),
		postgres.NewTokenRepo(txManager),
		jwtService,
		auth.DefaultServiceConfig(),
	)

	// --- Settlements ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	liquidationRepo := postgres.NewLiquidationRepo(txManager)
	periodRepo := postgres.NewPeriodRepo(txManager)
	tripRepo := postgres.NewTripRepo(txManager)
	fleetRepo := postgres.NewFleetRepo(txManager)

	liquidationService := liquidation.NewService(
		liquidationRepo,
		periodRepo,
		tripRepo,
		fleetRepo,
		numerator.New(txManager),
		txManager,
		auditService,
	)

	// --- Statistics and export ---
	statsService := stats.NewService(postgres.NewStatsRepo(txManager))
	exportService := export.NewService(liquidationService, fleetRepo)

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:               pool,
		Logger:             log,
		JWTValidator:       jwtService,
		AuthService:        authService,
		LiquidationService: liquidationService,
		StatsService:       statsService,
		ExportService:      exportService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s is not set\n", key)
		os.Exit(1)
	}
	return value
}
