package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"weather-forecast/internal/models"
	"weather-forecast/internal/services"
	"weather-forecast/pkg/client"
)

type fakeForecasts struct {
	response *models.ForecastResponse
	err      error
	gotCity  string
	gotDays  int
	calls    int
}

func (f *fakeForecasts) GetWeatherDataDays(ctx context.Context, cityName string, days int) (*models.ForecastResponse, error) {
	f.calls++
	f.gotCity = cityName
	f.gotDays = days
	return f.response, f.err
}

func (f *fakeForecasts) Days() int { return 7 }
func (f *fakeForecasts) GetLastLookupTime() time.Time { return time.Time{} }
func (f *fakeForecasts) GetStats() map[string]interface{} { return map[string]interface{}{"success_count": 2} }

func newTestApp(forecasts ForecastProvider) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
	SetupRoutes(app, NewHandler(forecasts, "Shanghai", zap.NewNop()))
	return app
}

func doGet(t *testing.T, app *fiber.App, target string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	if err != nil {
		t.Fatalf("app.Test(%s): %v", target, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("response is not JSON: %s", raw)
	}
	return resp.StatusCode, body
}

func sampleResponse() *models.ForecastResponse {
	return &models.ForecastResponse{
		Daily: []models.DailyForecastEntry{{
			Timestamp:   1714521600,
			Temperature: models.Temperature{Day: 25, Min: 17, Max: 25},
			Weather:     []models.Condition{{Main: "Clear sky", Description: "Clear sky", Icon: "01d"}},
		}},
		City: models.City{Name: "Shanghai", Country: "CN"},
	}
}

func TestGetWeatherReturnsForecast(t *testing.T) {
	fake := &fakeForecasts{response: sampleResponse()}
	app := newTestApp(fake)

	status, body := doGet(t, app, "/api/v1/weather?city="+url.QueryEscape("  Paris ")+"&days=3")
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if fake.gotCity != "Paris" || fake.gotDays != 3 {
		t.Fatalf("service called with %q/%d", fake.gotCity, fake.gotDays)
	}

	daily := body["daily"].([]interface{})
	first := daily[0].(map[string]interface{})
	if first["dt"].(float64) != 1714521600 {
		t.Fatalf("dt = %v", first["dt"])
	}
	weather := first["weather"].([]interface{})[0].(map[string]interface{})
	if weather["icon"] != "01d" {
		t.Fatalf("icon = %v", weather["icon"])
	}
	if city := body["city"].(map[string]interface{}); city["country"] != "CN" {
		t.Fatalf("city = %v", city)
	}
}

func TestGetWeatherDefaultsCityWhenAbsent(t *testing.T) {
	fake := &fakeForecasts{response: sampleResponse()}
	app := newTestApp(fake)

	status, _ := doGet(t, app, "/api/v1/weather")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if fake.gotCity != "Shanghai" || fake.gotDays != 7 {
		t.Fatalf("service called with %q/%d", fake.gotCity, fake.gotDays)
	}
}

func TestGetWeatherRejectsBlankCity(t *testing.T) {
	fake := &fakeForecasts{response: sampleResponse()}
	app := newTestApp(fake)

	for _, target := range []string{"/api/v1/weather?city=", "/api/v1/weather?city=%20%20"} {
		status, body := doGet(t, app, target)
		if status != http.StatusBadRequest {
			t.Fatalf("%s: status = %d", target, status)
		}
		if body["error"] != "City parameter is required" {
			t.Fatalf("%s: body = %v", target, body)
		}
	}
	if fake.calls != 0 {
		t.Fatal("service must not be called for a blank city")
	}
}

func TestGetWeatherRejectsBadDays(t *testing.T) {
	app := newTestApp(&fakeForecasts{response: sampleResponse()})

	for _, days := range []string{"0", "17", "abc"} {
		status, _ := doGet(t, app, "/api/v1/weather?city=Shanghai&days="+days)
		if status != http.StatusBadRequest {
			t.Fatalf("days=%s: status = %d", days, status)
		}
	}
}

func TestGetWeatherFailureUsesFixedMessage(t *testing.T) {
	notFound := &fakeForecasts{err: fetchError(t, &client.LookupError{Kind: client.KindNotFound, Err: client.ErrNotFound})}
	status, body := doGet(t, newTestApp(notFound), "/api/v1/weather?city=Atlantis")
	if status != http.StatusBadGateway {
		t.Fatalf("status = %d", status)
	}
	if body["error"] != services.FetchFailedMessage || body["not_found"] != true {
		t.Fatalf("body = %v", body)
	}

	transport := &fakeForecasts{err: fetchError(t, &client.LookupError{Kind: client.KindTransport, Err: &client.StatusError{StatusCode: 500}})}
	status, body = doGet(t, newTestApp(transport), "/api/v1/weather?city=Shanghai")
	if status != http.StatusBadGateway || body["error"] != services.FetchFailedMessage {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if _, ok := body["not_found"]; ok {
		t.Fatalf("transport failure flagged as not found: %v", body)
	}
}

// fetchError produces a real *services.FetchError by running the pipeline
// against stubs that fail with cause.
func fetchError(t *testing.T, cause error) error {
	t.Helper()
	svc := services.NewForecastService(failingGeocoder{cause}, nil, 7, zap.NewNop())
	_, err := svc.GetWeatherData(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error")
	}
	return err
}

type failingGeocoder struct{ err error }

func (g failingGeocoder) Resolve(context.Context, string) (*models.Location, error) {
	return nil, g.err
}

func TestHealthMetricsAndNotFound(t *testing.T) {
	app := newTestApp(&fakeForecasts{})

	status, body := doGet(t, app, "/api/v1/health")
	if status != http.StatusOK || body["status"] != "healthy" {
		t.Fatalf("health: %d %v", status, body)
	}

	status, body = doGet(t, app, "/api/v1/metrics")
	if status != http.StatusOK {
		t.Fatalf("metrics status = %d", status)
	}
	if metrics := body["metrics"].(map[string]interface{}); metrics["success_count"].(float64) != 2 {
		t.Fatalf("metrics = %v", metrics)
	}

	status, body = doGet(t, app, "/nope")
	if status != http.StatusNotFound || body["path"] != "/nope" {
		t.Fatalf("404: %d %v", status, body)
	}
}
