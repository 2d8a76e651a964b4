package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		LogLevel     string
	}

	WeatherAPI struct {
		GeocodingURL   string
		OpenMeteoURL   string
		Language       string
		DefaultCountry string
		DefaultCity    string
		ForecastDays   int
	}

	HTTPClient struct {
		Timeout           time.Duration
		RequestsPerSecond float64
		Burst             int
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}

	Digest struct {
		Schedule string
		Cities   []string
	}
}

var defaults = map[string]interface{}{
	"FIBER_PORT":                "8080",
	"FIBER_READ_TIMEOUT":        "10s",
	"FIBER_WRITE_TIMEOUT":       "10s",
	"LOG_LEVEL":                 "info",
	"GEOCODING_URL":             "https://geocoding-api.open-meteo.com/v1",
	"OPENMETEO_URL":             "https://api.open-meteo.com/v1",
	"GEOCODING_LANGUAGE":        "zh",
	"DEFAULT_COUNTRY":           "CN",
	"DEFAULT_CITY":              "Shanghai",
	"FORECAST_DAYS":             7,
	"HTTP_TIMEOUT":              "10s",
	"PROVIDER_RPS":              5,
	"PROVIDER_BURST":            5,
	"CIRCUIT_BREAKER_THRESHOLD": 3,
	"CIRCUIT_BREAKER_TIMEOUT":   "30s",
	"DIGEST_SCHEDULE":           "@every 1h",
	"DIGEST_CITIES":             "Shanghai,Beijing",
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	return v
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Server.Port = v.GetString("FIBER_PORT")
	cfg.Server.ReadTimeout = v.GetDuration("FIBER_READ_TIMEOUT")
	cfg.Server.WriteTimeout = v.GetDuration("FIBER_WRITE_TIMEOUT")
	cfg.Server.LogLevel = v.GetString("LOG_LEVEL")

	cfg.WeatherAPI.GeocodingURL = strings.TrimRight(v.GetString("GEOCODING_URL"), "/")
	cfg.WeatherAPI.OpenMeteoURL = strings.TrimRight(v.GetString("OPENMETEO_URL"), "/")
	cfg.WeatherAPI.Language = v.GetString("GEOCODING_LANGUAGE")
	cfg.WeatherAPI.DefaultCountry = v.GetString("DEFAULT_COUNTRY")
	cfg.WeatherAPI.DefaultCity = strings.TrimSpace(v.GetString("DEFAULT_CITY"))
	cfg.WeatherAPI.ForecastDays = v.GetInt("FORECAST_DAYS")

	cfg.HTTPClient.Timeout = v.GetDuration("HTTP_TIMEOUT")
	cfg.HTTPClient.RequestsPerSecond = v.GetFloat64("PROVIDER_RPS")
	cfg.HTTPClient.Burst = v.GetInt("PROVIDER_BURST")

	cfg.CircuitBreaker.Threshold = v.GetInt("CIRCUIT_BREAKER_THRESHOLD")
	cfg.CircuitBreaker.Timeout = v.GetDuration("CIRCUIT_BREAKER_TIMEOUT")

	cfg.Digest.Schedule = strings.TrimSpace(v.GetString("DIGEST_SCHEDULE"))
	cfg.Digest.Cities = splitList(v.GetString("DIGEST_CITIES"))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.WeatherAPI.ForecastDays < 1 || c.WeatherAPI.ForecastDays > 16 {
		return fmt.Errorf("FORECAST_DAYS must be between 1 and 16, got %d", c.WeatherAPI.ForecastDays)
	}
	if c.WeatherAPI.DefaultCity == "" {
		return fmt.Errorf("DEFAULT_CITY must not be empty")
	}
	if c.HTTPClient.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ParseLevel maps LOG_LEVEL onto a zap level, defaulting to info.
func ParseLevel(level string) zap.AtomicLevel {
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return lvl
}
