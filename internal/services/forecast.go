package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"weather-forecast/internal/config"
	"weather-forecast/internal/models"
	"weather-forecast/internal/weathercode"
	"weather-forecast/pkg/client"
)

// FetchFailedMessage is the only error text callers of the pipeline see.
const FetchFailedMessage = "failed to fetch weather data, please check the city name"

var ErrInvalidDays = fmt.Errorf("days must be between 1 and %d", client.MaxForecastDays)

// FetchError is returned for any failed lookup. Error() is always
// FetchFailedMessage; the underlying *client.LookupError is reachable
// through errors.Is / errors.As.
type FetchError struct {
	City  string
	cause error
}

func (e *FetchError) Error() string {
	return FetchFailedMessage
}

func (e *FetchError) Unwrap() error {
	return e.cause
}

// NotFound reports whether the city had no geocoding match.
func (e *FetchError) NotFound() bool {
	return errors.Is(e.cause, client.ErrNotFound)
}

type Geocoder interface {
	Resolve(ctx context.Context, cityName string) (*models.Location, error)
}

type ForecastFetcher interface {
	FetchForecast(ctx context.Context, loc *models.Location, days int) (*models.RawForecast, error)
}

type ForecastService struct {
	geocoder Geocoder
	fetcher  ForecastFetcher
	days     int
	language string
	logger   *zap.Logger

	successCount atomic.Int64
	failureCount atomic.Int64
	lastLookup   atomic.Int64
}

func NewForecastService(geocoder Geocoder, fetcher ForecastFetcher, days int, logger *zap.Logger) *ForecastService {
	if days <= 0 {
		days = client.DefaultForecastDays
	}
	return &ForecastService{
		geocoder: geocoder,
		fetcher:  fetcher,
		days:     days,
		logger:   logger,
	}
}

// NewForecastServiceFromConfig wires the Open-Meteo geocoding and forecast
// clients.
func NewForecastServiceFromConfig(cfg *config.Config, logger *zap.Logger) *ForecastService {
	clientConfig := client.ClientConfig{
		Timeout:           cfg.HTTPClient.Timeout,
		Threshold:         cfg.CircuitBreaker.Threshold,
		BreakerTimeout:    cfg.CircuitBreaker.Timeout,
		RequestsPerSecond: cfg.HTTPClient.RequestsPerSecond,
		Burst:             cfg.HTTPClient.Burst,
	}

	geocoder := client.NewGeocodingClient(client.GeocodingOptions{
		BaseURL:        cfg.WeatherAPI.GeocodingURL,
		Language:       cfg.WeatherAPI.Language,
		DefaultCountry: cfg.WeatherAPI.DefaultCountry,
	}, clientConfig, logger)
	logger.Info("Geocoding client initialized", zap.String("url", cfg.WeatherAPI.GeocodingURL))

	fetcher := client.NewOpenMeteoClient(cfg.WeatherAPI.OpenMeteoURL, clientConfig, logger)
	logger.Info("Open-Meteo client initialized", zap.String("url", cfg.WeatherAPI.OpenMeteoURL))

	language := cfg.WeatherAPI.Language
	if language == "" {
		language = client.DefaultLanguage
	}

	return NewForecastService(geocoder, fetcher, cfg.WeatherAPI.ForecastDays, logger).
		WithLanguage(language)
}

// WithLanguage sets the language of weather descriptions. It should match
// the geocoding language so place names and descriptions agree.
func (s *ForecastService) WithLanguage(language string) *ForecastService {
	s.language = language
	return s
}

func (s *ForecastService) Days() int {
	return s.days
}

// GetWeatherData resolves cityName and returns the configured number of
// forecast days.
func (s *ForecastService) GetWeatherData(ctx context.Context, cityName string) (*models.ForecastResponse, error) {
	return s.GetWeatherDataDays(ctx, cityName, s.days)
}

// GetWeatherDataDays is GetWeatherData with an explicit horizon. A days
// value outside 1..MaxForecastDays fails before any request is made; the
// returned *FetchError then matches ErrInvalidDays.
func (s *ForecastService) GetWeatherDataDays(ctx context.Context, cityName string, days int) (*models.ForecastResponse, error) {
	if days < 1 || days > client.MaxForecastDays {
		return nil, &FetchError{City: cityName, cause: ErrInvalidDays}
	}

	logger := s.logger.With(
		zap.String("lookup_id", uuid.New().String()),
		zap.String("city", cityName),
		zap.Int("days", days))
	s.lastLookup.Store(time.Now().UnixNano())
	startTime := time.Now()

	response, err := s.lookup(ctx, cityName, days)
	if err != nil {
		s.failureCount.Add(1)
		logger.Error("Weather lookup failed",
			zap.Duration("duration", time.Since(startTime)),
			zap.String("kind", errorKind(err)),
			zap.Error(err))
		return nil, &FetchError{City: cityName, cause: err}
	}

	s.successCount.Add(1)
	logger.Info("Weather lookup completed",
		zap.String("resolved", response.City.Name),
		zap.String("country", response.City.Country),
		zap.Duration("duration", time.Since(startTime)))

	return response, nil
}

func (s *ForecastService) lookup(ctx context.Context, cityName string, days int) (*models.ForecastResponse, error) {
	location, err := s.geocoder.Resolve(ctx, cityName)
	if err != nil {
		return nil, fmt.Errorf("resolving city: %w", err)
	}

	raw, err := s.fetcher.FetchForecast(ctx, location, days)
	if err != nil {
		return nil, fmt.Errorf("fetching forecast: %w", err)
	}

	daily, err := assembleDaily(raw, days, s.language)
	if err != nil {
		return nil, fmt.Errorf("assembling forecast: %w", err)
	}

	return &models.ForecastResponse{
		Daily: daily,
		City: models.City{
			Name:    location.Name,
			Country: location.Country,
		},
	}, nil
}

// assembleDaily zips the provider series into entries. Either every
// requested day is produced or an InvalidPayload error is returned.
func assembleDaily(raw *models.RawForecast, days int, language string) ([]models.DailyForecastEntry, error) {
	n := raw.Len()
	if n < 0 {
		return nil, invalidPayload(errors.New("daily series are not index-aligned"))
	}
	if n != days {
		return nil, invalidPayload(fmt.Errorf("expected %d forecast days, got %d", days, n))
	}

	daily := make([]models.DailyForecastEntry, 0, n)
	var previous int64
	for i := 0; i < n; i++ {
		timestamp, err := parseDate(raw.Time[i])
		if err != nil {
			return nil, invalidPayload(err)
		}
		if i > 0 && timestamp <= previous {
			return nil, invalidPayload(fmt.Errorf("forecast dates not increasing at %q", raw.Time[i]))
		}
		previous = timestamp

		desc := weathercode.DescribeIn(language, raw.WeatherCode[i])
		high := roundHalfUp(raw.TemperatureMax[i])

		daily = append(daily, models.DailyForecastEntry{
			Timestamp: timestamp,
			Temperature: models.Temperature{
				// the provider has no daytime average; max stands in for it
				Day: high,
				Min: roundHalfUp(raw.TemperatureMin[i]),
				Max: high,
			},
			Weather: []models.Condition{{
				Main:        desc.Description,
				Description: desc.Description,
				Icon:        desc.Icon,
				IconURL:     weathercode.IconURL(desc.Icon),
			}},
		})
	}

	return daily, nil
}

// parseDate returns the epoch seconds of UTC midnight for a YYYY-MM-DD date.
func parseDate(value string) (int64, error) {
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		date, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return 0, fmt.Errorf("invalid forecast date %q: %w", value, err)
		}
	}
	return date.Unix(), nil
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

func invalidPayload(err error) *client.LookupError {
	return &client.LookupError{Kind: client.KindInvalidPayload, Op: "assemble", Err: err}
}

func errorKind(err error) string {
	var lookupErr *client.LookupError
	if errors.As(err, &lookupErr) {
		return lookupErr.Kind.String()
	}
	return "unknown"
}

func (s *ForecastService) GetLastLookupTime() time.Time {
	nanos := s.lastLookup.Load()
	if nanos == 0 {
		return time.Time{}
	}
	return time.Unix(0, nanos)
}

func (s *ForecastService) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"last_lookup_time": s.GetLastLookupTime(),
		"success_count":    s.successCount.Load(),
		"failure_count":    s.failureCount.Load(),
		"forecast_days":    s.days,
	}
}
