package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/surveyroute/surveyroute/internal/geo"
	"github.com/surveyroute/surveyroute/internal/prefs"
	"github.com/surveyroute/surveyroute/internal/weather"
)

// WeatherSource supplies the weather lookups to warm. Satisfied by
// weather.Service.
type WeatherSource interface {
	GetWeather(ctx context.Context, coord geo.Coordinate) (*weather.Report, error)
	GetSunriseSunset(ctx context.Context, coord geo.Coordinate, date time.Time) (*weather.SunTimes, error)
}

// PlanSource lists the saved survey plans whose sites get warmed.
// Satisfied by prefs.Repository.
type PlanSource interface {
	ListAll(ctx context.Context) ([]*prefs.SurveyPlan, error)
}

// PrefetchJob warms the weather caches for saved survey plan sites so
// optimization requests hit warm caches instead of the provider.
type PrefetchJob struct {
	config PrefetchConfig
	logger zerolog.Logger

	// Sources (optional, nil if not configured)
	weatherSource WeatherSource
	planSource    PlanSource

	// Metrics
	metrics *PrefetchMetrics
}

// PrefetchMetrics tracks prefetch job statistics.
type PrefetchMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns          int64
	SuccessfulPoints   int64
	FailedPoints       int64
	WeatherPrefetches  int64
	SunTimesPrefetches int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// PrefetchJobConfig holds configuration for creating a PrefetchJob.
type PrefetchJobConfig struct {
	Config        PrefetchConfig
	Logger        zerolog.Logger
	WeatherSource WeatherSource
	PlanSource    PlanSource
}

// NewPrefetchJob creates a new prefetch job processor.
func NewPrefetchJob(cfg PrefetchJobConfig) *PrefetchJob {
	config := cfg.Config
	if config.Concurrency == 0 && config.Timeout == 0 {
		defaults := DefaultPrefetchConfig()
		defaults.Targets = config.Targets
		config = defaults
	}

	return &PrefetchJob{
		config:        config,
		logger:        cfg.Logger,
		weatherSource: cfg.WeatherSource,
		planSource:    cfg.PlanSource,
		metrics:       &PrefetchMetrics{},
	}
}

// PrefetchResult contains the result of a prefetch run.
type PrefetchResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalPoints int
	Successful  int
	Failed      int
	Errors      []PrefetchError
}

// PrefetchError represents an error during prefetch.
type PrefetchError struct {
	Operation string
	Point     geo.Coordinate
	Error     string
}

// Run executes the prefetch job for all targets. Targets configured
// statically take precedence; otherwise the saved survey plans are
// listed and every plan site is warmed.
func (j *PrefetchJob) Run(ctx context.Context) *PrefetchResult {
	startTime := time.Now()

	config := j.config
	if len(config.Targets) == 0 && j.planSource != nil {
		plans, err := j.planSource.ListAll(ctx)
		if err != nil {
			j.logger.Error().Err(err).Msg("failed to list survey plans, nothing to prefetch")
		} else {
			config.Targets = TargetsFromPlans(plans)
		}
	}

	result := &PrefetchResult{
		StartTime:   startTime,
		TotalPoints: config.TotalPoints(),
	}

	j.logger.Info().
		Int("total_points", result.TotalPoints).
		Int("targets", len(config.Targets)).
		Int("concurrency", config.Concurrency).
		Msg("starting weather prefetch job")

	points := config.AllPoints()

	pointsChan := make(chan geo.Coordinate, len(points))
	resultsChan := make(chan pointResult, len(points))

	var wg sync.WaitGroup
	for i := 0; i < config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.prefetchWorker(ctx, pointsChan, resultsChan)
		}()
	}

	for _, p := range points {
		pointsChan <- p
	}
	close(pointsChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for pr := range resultsChan {
		if pr.success {
			result.Successful++
		} else {
			result.Failed++
		}
		result.Errors = append(result.Errors, pr.errors...)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("weather prefetch job completed")

	return result
}

type pointResult struct {
	point   geo.Coordinate
	success bool
	errors  []PrefetchError
}

func (j *PrefetchJob) prefetchWorker(ctx context.Context, points <-chan geo.Coordinate, results chan<- pointResult) {
	for point := range points {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.prefetchPoint(ctx, point)
		}
	}
}

func (j *PrefetchJob) prefetchPoint(ctx context.Context, point geo.Coordinate) pointResult {
	result := pointResult{
		point:   point,
		success: true,
	}

	pointCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	if j.config.PrefetchWeather && j.weatherSource != nil {
		if _, err := j.weatherSource.GetWeather(pointCtx, point); err != nil {
			result.errors = append(result.errors, PrefetchError{
				Operation: "weather",
				Point:     point,
				Error:     err.Error(),
			})
			result.success = false
		} else {
			atomic.AddInt64(&j.metrics.WeatherPrefetches, 1)
		}
	}

	if j.config.PrefetchSunTimes && j.weatherSource != nil {
		if _, err := j.weatherSource.GetSunriseSunset(pointCtx, point, time.Now()); err != nil {
			result.errors = append(result.errors, PrefetchError{
				Operation: "suntimes",
				Point:     point,
				Error:     err.Error(),
			})
			// Sun time misses are non-fatal: the planner falls back to
			// the fixed start hour.
		} else {
			atomic.AddInt64(&j.metrics.SunTimesPrefetches, 1)
		}
	}

	return result
}

func (j *PrefetchJob) updateMetrics(result *PrefetchResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulPoints += int64(result.Successful)
	j.metrics.FailedPoints += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *PrefetchJob) GetMetrics() PrefetchMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return PrefetchMetrics{
		TotalRuns:          j.metrics.TotalRuns,
		SuccessfulPoints:   j.metrics.SuccessfulPoints,
		FailedPoints:       j.metrics.FailedPoints,
		WeatherPrefetches:  j.metrics.WeatherPrefetches,
		SunTimesPrefetches: j.metrics.SunTimesPrefetches,
		LastRunAt:          j.metrics.LastRunAt,
		LastRunDuration:    j.metrics.LastRunDuration,
		TotalDuration:      j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *PrefetchJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":          m.TotalRuns,
		"successful_points":   m.SuccessfulPoints,
		"failed_points":       m.FailedPoints,
		"weather_prefetches":  m.WeatherPrefetches,
		"suntimes_prefetches": m.SunTimesPrefetches,
		"last_run_at":         m.LastRunAt,
		"last_run_duration":   m.LastRunDuration.String(),
		"total_duration":      m.TotalDuration.String(),
	}
}
