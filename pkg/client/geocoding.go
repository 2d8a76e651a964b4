package client

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	"weather-forecast/internal/models"
)

const (
	DefaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1"
	DefaultLanguage     = "zh"
	DefaultCountry      = "CN"
)

type GeocodingClient struct {
	*BaseClient
	baseURL        string
	language       string
	defaultCountry string
}

type GeocodingResponse struct {
	Results []GeocodingResult `json:"results"`
}

type GeocodingResult struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Country     string   `json:"country"`
	CountryCode string   `json:"country_code"`
	Timezone    string   `json:"timezone"`
}

type GeocodingOptions struct {
	BaseURL        string
	Language       string
	DefaultCountry string
}

func NewGeocodingClient(opts GeocodingOptions, config ClientConfig, logger *zap.Logger) *GeocodingClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGeocodingURL
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.DefaultCountry == "" {
		opts.DefaultCountry = DefaultCountry
	}

	return &GeocodingClient{
		BaseClient:     NewBaseClient("geocoding", config, logger),
		baseURL:        opts.BaseURL,
		language:       opts.Language,
		defaultCountry: opts.DefaultCountry,
	}
}

// Resolve returns the first match for cityName. The name is expected to be
// non-empty after trimming.
func (c *GeocodingClient) Resolve(ctx context.Context, cityName string) (*models.Location, error) {
	params := url.Values{}
	params.Set("name", cityName)
	params.Set("count", strconv.Itoa(1))
	params.Set("language", c.language)
	params.Set("format", "json")

	var response GeocodingResponse
	if err := c.GetJSON(ctx, "geocode", c.baseURL+"/search", params, &response); err != nil {
		return nil, err
	}

	if len(response.Results) == 0 {
		c.logger.Info("No geocoding match", zap.String("city", cityName))
		return nil, &LookupError{Kind: KindNotFound, Op: "geocode", Err: ErrNotFound}
	}

	first := response.Results[0]
	if first.Latitude == nil || first.Longitude == nil {
		return nil, payloadError("geocode", errors.New("result without coordinates"))
	}

	country := first.CountryCode
	if country == "" {
		country = first.Country
	}
	if country == "" {
		country = c.defaultCountry
	}

	location := &models.Location{
		Name:      first.Name,
		Country:   country,
		Latitude:  *first.Latitude,
		Longitude: *first.Longitude,
	}

	c.logger.Debug("City resolved",
		zap.String("city", cityName),
		zap.String("name", location.Name),
		zap.String("country", location.Country),
		zap.Float64("latitude", location.Latitude),
		zap.Float64("longitude", location.Longitude))

	return location, nil
}
