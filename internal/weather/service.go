package weather

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/surveyroute/surveyroute/internal/geo"
)

// Default day-window fallbacks used when the provider cannot supply
// sunrise and sunset for a location.
const (
	FallbackSunriseHour = 7
	FallbackSunsetHour  = 19
)

// ServiceConfig holds configuration for the weather service.
type ServiceConfig struct {
	// Provider is the weather data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache weather reports (default: 15 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the rounding granularity for cache keys in degrees
	// (default: 0.01, roughly 1.1km). Points within the same cell share
	// cached data.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale data on provider errors
	// (default: 1 hour).
	StaleIfErrorTTL time.Duration
}

// Service provides weather reports with caching. Concurrent requests may
// race on the same cell; last writer wins, which is acceptable since any
// entry is at most CacheTTL stale.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration

	mu              sync.RWMutex
	reportCache     map[string]*cachedReport
	sunCache        map[string]*SunTimes
	lastCleanup     time.Time
	cleanupInterval time.Duration
}

type cachedReport struct {
	report    *Report
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new weather service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 15 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.01
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 1 * time.Hour
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		reportCache:     make(map[string]*cachedReport),
		sunCache:        make(map[string]*SunTimes),
		cleanupInterval: 5 * time.Minute,
	}
}

// GetWeather returns the current observation and hourly forecast for a
// location, using cached data if available and not expired.
func (s *Service) GetWeather(ctx context.Context, coord geo.Coordinate) (*Report, error) {
	if !coord.Valid() {
		return nil, ErrInvalidCoordinates
	}

	cacheKey := s.cacheKey(coord)

	s.mu.RLock()
	if cached, ok := s.reportCache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		return cached.report, nil
	}
	s.mu.RUnlock()

	return s.fetchReport(ctx, coord, cacheKey)
}

// GetSunriseSunset returns sunrise and sunset for a location and date.
// Provider failures return the fixed 07:00/19:00 work-day window along
// with the error, so callers can schedule regardless.
func (s *Service) GetSunriseSunset(ctx context.Context, coord geo.Coordinate, date time.Time) (*SunTimes, error) {
	fallback := &SunTimes{
		Sunrise: time.Date(date.Year(), date.Month(), date.Day(), FallbackSunriseHour, 0, 0, 0, date.Location()),
		Sunset:  time.Date(date.Year(), date.Month(), date.Day(), FallbackSunsetHour, 0, 0, 0, date.Location()),
	}

	if !coord.Valid() {
		return fallback, ErrInvalidCoordinates
	}

	cacheKey := s.cacheKey(coord) + ":" + date.Format("2006-01-02")

	s.mu.RLock()
	if cached, ok := s.sunCache[cacheKey]; ok {
		s.mu.RUnlock()
		return cached, nil
	}
	s.mu.RUnlock()

	sun, err := s.provider.GetSunriseSunset(ctx, coord, date)
	if err != nil {
		s.logger.Warn().Err(err).
			Float64("lat", coord.Lat).
			Float64("lon", coord.Lon).
			Msg("sunrise lookup failed, using fixed day window")
		return fallback, err
	}

	s.mu.Lock()
	s.sunCache[cacheKey] = sun
	s.mu.Unlock()

	return sun, nil
}

// fetchReport fetches a weather report from the provider and updates the
// cache.
func (s *Service) fetchReport(ctx context.Context, coord geo.Coordinate, cacheKey string) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache (prevents thundering herd)
	if cached, ok := s.reportCache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		return cached.report, nil
	}

	s.logger.Debug().
		Float64("lat", coord.Lat).
		Float64("lon", coord.Lon).
		Str("provider", s.provider.Name()).
		Msg("fetching weather from provider")

	report, err := s.provider.GetWeather(ctx, coord)
	if err != nil {
		s.logger.Error().Err(err).
			Float64("lat", coord.Lat).
			Float64("lon", coord.Lon).
			Msg("failed to fetch weather")

		// Stale-if-error: serve old data while the provider recovers.
		if cached, ok := s.reportCache[cacheKey]; ok {
			if time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
				s.logger.Warn().
					Time("fetched_at", cached.fetchedAt).
					Msg("serving stale weather data due to provider error")
				return cached.report, nil
			}
		}

		return nil, ErrProviderUnavailable
	}

	now := time.Now()
	s.reportCache[cacheKey] = &cachedReport{
		report:    report,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}

	s.cleanupIfNeeded()

	return report, nil
}

// cacheKey maps a coordinate to its grid cell. Keys are the integer
// cell indices so any configured grid size keeps its full resolution.
func (s *Service) cacheKey(coord geo.Coordinate) string {
	cellLat := int64(math.Floor(coord.Lat / s.cacheGridSize))
	cellLon := int64(math.Floor(coord.Lon / s.cacheGridSize))
	return fmt.Sprintf("%d:%d", cellLat, cellLon)
}

// cleanupIfNeeded removes expired entries if the cleanup interval has
// passed. Caller must hold the write lock.
func (s *Service) cleanupIfNeeded() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}

	s.lastCleanup = now
	expired := 0

	for key, cached := range s.reportCache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.reportCache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired weather cache entries")
	}
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportCache = make(map[string]*cachedReport)
	s.sunCache = make(map[string]*SunTimes)
}

// CacheStats contains cache statistics.
type CacheStats struct {
	TotalEntries int
	FreshEntries int
	Provider     string
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	fresh := 0
	for _, c := range s.reportCache {
		if now.Before(c.expiresAt) {
			fresh++
		}
	}

	return CacheStats{
		TotalEntries: len(s.reportCache),
		FreshEntries: fresh,
		Provider:     s.provider.Name(),
	}
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
