package config

import (
	"reflect"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(newViper())
	if err != nil {
		t.Fatalf("fromViper returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q", cfg.Server.Port)
	}
	if cfg.WeatherAPI.ForecastDays != 7 {
		t.Errorf("ForecastDays = %d, want 7", cfg.WeatherAPI.ForecastDays)
	}
	if cfg.WeatherAPI.Language != "zh" || cfg.WeatherAPI.DefaultCountry != "CN" {
		t.Errorf("unexpected locale defaults %+v", cfg.WeatherAPI)
	}
	if cfg.HTTPClient.Timeout != 10*time.Second {
		t.Errorf("Timeout = %s", cfg.HTTPClient.Timeout)
	}
	if cfg.WeatherAPI.DefaultCity != "Shanghai" {
		t.Errorf("DefaultCity = %q", cfg.WeatherAPI.DefaultCity)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("FORECAST_DAYS", "3")
	t.Setenv("OPENMETEO_URL", "http://localhost:9000/v1/")
	t.Setenv("DIGEST_CITIES", " London , ,Tokyo")
	t.Setenv("CIRCUIT_BREAKER_TIMEOUT", "1m")

	cfg, err := fromViper(newViper())
	if err != nil {
		t.Fatalf("fromViper returned error: %v", err)
	}

	if cfg.WeatherAPI.ForecastDays != 3 {
		t.Errorf("ForecastDays = %d, want 3", cfg.WeatherAPI.ForecastDays)
	}
	if cfg.WeatherAPI.OpenMeteoURL != "http://localhost:9000/v1" {
		t.Errorf("OpenMeteoURL = %q", cfg.WeatherAPI.OpenMeteoURL)
	}
	if !reflect.DeepEqual(cfg.Digest.Cities, []string{"London", "Tokyo"}) {
		t.Errorf("Cities = %v", cfg.Digest.Cities)
	}
	if cfg.CircuitBreaker.Timeout != time.Minute {
		t.Errorf("breaker timeout = %s", cfg.CircuitBreaker.Timeout)
	}
}

func TestValidation(t *testing.T) {
	t.Setenv("FORECAST_DAYS", "30")
	if _, err := fromViper(newViper()); err == nil {
		t.Fatal("expected error for FORECAST_DAYS=30")
	}
}

func TestParseLevel(t *testing.T) {
	if got := ParseLevel("DEBUG").Level(); got != zap.DebugLevel {
		t.Errorf("ParseLevel(DEBUG) = %s", got)
	}
	if got := ParseLevel("nonsense").Level(); got != zap.InfoLevel {
		t.Errorf("ParseLevel(nonsense) = %s", got)
	}
}
