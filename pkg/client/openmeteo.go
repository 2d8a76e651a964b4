package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"weather-forecast/internal/models"
)

const (
	DefaultOpenMeteoURL = "https://api.open-meteo.com/v1"
	DefaultForecastDays = 7
	MaxForecastDays     = 16
)

var dailyFields = []string{"weathercode", "temperature_2m_max", "temperature_2m_min"}

type OpenMeteoClient struct {
	*BaseClient
	baseURL string
}

type OpenMeteoForecastResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
	Daily     *struct {
		Time             []string  `json:"time"`
		WeatherCode      []int     `json:"weathercode"`
		Temperature2MMax []float64 `json:"temperature_2m_max"`
		Temperature2MMin []float64 `json:"temperature_2m_min"`
	} `json:"daily"`
	DailyUnits struct {
		Temperature2MMax string `json:"temperature_2m_max"`
		Temperature2MMin string `json:"temperature_2m_min"`
	} `json:"daily_units"`
}

func NewOpenMeteoClient(baseURL string, config ClientConfig, logger *zap.Logger) *OpenMeteoClient {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	return &OpenMeteoClient{
		BaseClient: NewBaseClient("openmeteo", config, logger),
		baseURL:    baseURL,
	}
}

// FetchForecast requests the daily weather code and temperature range series
// for loc in the location's own timezone. days <= 0 means DefaultForecastDays.
func (c *OpenMeteoClient) FetchForecast(ctx context.Context, loc *models.Location, days int) (*models.RawForecast, error) {
	if days <= 0 {
		days = DefaultForecastDays
	}

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	params.Set("daily", strings.Join(dailyFields, ","))
	params.Set("timezone", "auto")
	params.Set("forecast_days", strconv.Itoa(days))

	var response OpenMeteoForecastResponse
	if err := c.GetJSON(ctx, "forecast", c.baseURL+"/forecast", params, &response); err != nil {
		return nil, err
	}

	if response.Daily == nil {
		return nil, payloadError("forecast", fmt.Errorf("response has no daily series"))
	}

	raw := &models.RawForecast{
		Time:           response.Daily.Time,
		WeatherCode:    response.Daily.WeatherCode,
		TemperatureMax: response.Daily.Temperature2MMax,
		TemperatureMin: response.Daily.Temperature2MMin,
	}

	if raw.Len() < 0 {
		return nil, payloadError("forecast", fmt.Errorf(
			"daily series length mismatch: time=%d weathercode=%d max=%d min=%d",
			len(raw.Time), len(raw.WeatherCode), len(raw.TemperatureMax), len(raw.TemperatureMin)))
	}

	c.logger.Debug("Forecast fetched",
		zap.Float64("latitude", loc.Latitude),
		zap.Float64("longitude", loc.Longitude),
		zap.String("timezone", response.Timezone),
		zap.Int("days", raw.Len()))

	return raw, nil
}
