package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"weather-forecast/internal/models"
)

type Forecaster interface {
	GetWeatherData(ctx context.Context, cityName string) (*models.ForecastResponse, error)
}

// Scheduler periodically runs the lookup pipeline for a fixed set of cities
// and logs a digest line per city. Nothing is kept between runs.
type Scheduler struct {
	forecaster Forecaster
	logger     *zap.Logger
	cities     []string
	schedule   string
	timeout    time.Duration
	cron       *cron.Cron
	mu         sync.Mutex
	running    bool
	lastRun    time.Time
}

func NewScheduler(forecaster Forecaster, cities []string, schedule string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		forecaster: forecaster,
		logger:     logger,
		cities:     cities,
		schedule:   schedule,
		timeout:    60 * time.Second,
	}
}

// Start registers the digest job on a fresh cron, so a stopped scheduler can
// be started again. An empty schedule or city list disables it.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if s.schedule == "" || len(s.cities) == 0 {
		s.logger.Info("Forecast digest disabled")
		return nil
	}

	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	if _, err := c.AddFunc(s.schedule, s.RunOnce); err != nil {
		return fmt.Errorf("invalid digest schedule %q: %w", s.schedule, err)
	}

	c.Start()
	s.cron = c
	s.running = true

	s.logger.Info("Scheduler started",
		zap.String("schedule", s.schedule),
		zap.Strings("cities", s.cities))
	return nil
}

// RunOnce looks up every city sequentially and logs the result.
func (s *Scheduler) RunOnce() {
	s.mu.Lock()
	s.lastRun = time.Now()
	s.mu.Unlock()

	startTime := time.Now()
	for _, city := range s.cities {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		forecast, err := s.forecaster.GetWeatherData(ctx, city)
		cancel()

		if err != nil {
			s.logger.Warn("Forecast digest failed",
				zap.String("city", city),
				zap.Error(err))
			continue
		}

		s.logger.Info("Forecast digest",
			zap.String("city", forecast.City.Name),
			zap.String("country", forecast.City.Country),
			zap.String("summary", Summarize(forecast)))
	}

	s.logger.Info("Forecast digest completed",
		zap.Int("cities", len(s.cities)),
		zap.Duration("duration", time.Since(startTime)))
}

// Stop waits for a digest in progress to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	c := s.cron
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-c.Stop().Done()
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":  s.running,
		"schedule": s.schedule,
		"last_run": s.lastRun,
		"cities":   s.cities,
	}
	if s.running {
		if entries := s.cron.Entries(); len(entries) > 0 {
			status["next_run"] = entries[0].Next
		}
	}
	return status
}

// Summarize renders a forecast as "MM-DD desc min~max°C" items joined by "; ".
func Summarize(forecast *models.ForecastResponse) string {
	parts := make([]string, 0, len(forecast.Daily))
	for _, day := range forecast.Daily {
		date := time.Unix(day.Timestamp, 0).UTC().Format("01-02")
		parts = append(parts, fmt.Sprintf("%s %s %.0f~%.0f°C",
			date, day.Condition().Description, day.Temperature.Min, day.Temperature.Max))
	}
	return strings.Join(parts, "; ")
}
