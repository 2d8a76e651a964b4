package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"weather-forecast/internal/api"
	"weather-forecast/internal/config"
	"weather-forecast/internal/scheduler"
	"weather-forecast/internal/services"
)

func main() {
	// Bootstrap logger until LOG_LEVEL is known
	logger, _ := zap.NewProduction()
	zap.ReplaceGlobals(logger)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = config.ParseLevel(cfg.Server.LogLevel)
	if leveled, err := zapConfig.Build(); err == nil {
		logger = leveled
		zap.ReplaceGlobals(logger)
	}
	defer logger.Sync()

	logger.Info("Starting weather forecast service",
		zap.Int("forecast_days", cfg.WeatherAPI.ForecastDays),
		zap.String("default_city", cfg.WeatherAPI.DefaultCity))

	forecasts := services.NewForecastServiceFromConfig(cfg, logger)

	// Initialize digest scheduler
	digest := scheduler.NewScheduler(
		forecasts,
		cfg.Digest.Cities,
		cfg.Digest.Schedule,
		logger,
	)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: api.ErrorHandler(logger),
	})

	handler := api.NewHandler(forecasts, cfg.WeatherAPI.DefaultCity, logger)
	api.SetupRoutes(app, handler)

	// Start scheduler
	if err := digest.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop scheduler before draining connections
	digest.Stop()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
