package api

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"weather-forecast/internal/models"
	"weather-forecast/internal/services"
	"weather-forecast/pkg/client"
)

// ForecastProvider is the part of services.ForecastService the handlers use.
type ForecastProvider interface {
	GetWeatherDataDays(ctx context.Context, cityName string, days int) (*models.ForecastResponse, error)
	Days() int
	GetLastLookupTime() time.Time
	GetStats() map[string]interface{}
}

type Handler struct {
	forecasts   ForecastProvider
	defaultCity string
	logger      *zap.Logger
	startTime   time.Time
}

func NewHandler(forecasts ForecastProvider, defaultCity string, logger *zap.Logger) *Handler {
	return &Handler{
		forecasts:   forecasts,
		defaultCity: defaultCity,
		logger:      logger,
		startTime:   time.Now(),
	}
}

// GetWeather handles GET /api/v1/weather
//
// Without a city parameter the default city is used, matching the initial
// load of the UI. A present but blank city is rejected.
func (h *Handler) GetWeather(c *fiber.Ctx) error {
	city := h.defaultCity
	if c.Context().QueryArgs().Has("city") {
		city = strings.Clone(strings.TrimSpace(c.Query("city")))
		if city == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "City parameter is required",
			})
		}
	}

	days := h.forecasts.Days()
	if daysStr := c.Query("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed < 1 || parsed > client.MaxForecastDays {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Days parameter must be between 1 and " + strconv.Itoa(client.MaxForecastDays),
			})
		}
		days = parsed
	}

	h.logger.Info("Fetching forecast",
		zap.String("city", city),
		zap.Int("days", days))

	forecast, err := h.forecasts.GetWeatherDataDays(c.UserContext(), city, days)
	if err != nil {
		body := fiber.Map{"error": err.Error()}

		var fetchErr *services.FetchError
		if errors.As(err, &fetchErr) && fetchErr.NotFound() {
			body["not_found"] = true
		}

		return c.Status(fiber.StatusBadGateway).JSON(body)
	}

	return c.JSON(forecast)
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "healthy",
		"timestamp":   time.Now(),
		"last_lookup": h.forecasts.GetLastLookupTime(),
		"uptime":      time.Since(h.startTime).String(),
	})
}

// GetMetrics handles GET /api/v1/metrics
func (h *Handler) GetMetrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"metrics":   h.forecasts.GetStats(),
		"timestamp": time.Now(),
	})
}
