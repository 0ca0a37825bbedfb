package routing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/surveyroute/surveyroute/internal/geo"
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the directions provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache directions (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees
	// (default: 0.01 ~ 1.1km). Coordinates within the same grid cell
	// share cached directions.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale data on provider errors
	// (default: 15 minutes).
	StaleIfErrorTTL time.Duration
}

// Service provides directions with caching and pre-validation.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration

	mu          sync.RWMutex
	cache       map[string]*cachedRoute
	lastCleanup time.Time
}

type cachedRoute struct {
	response  *RouteResponse
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.01
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 15 * time.Minute
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cache:           make(map[string]*cachedRoute),
	}
}

// GetRoute returns driving directions through the given ordered
// coordinates, using cached data if available and not expired. Requests
// containing a leg over the provider ceiling are rejected before any
// provider call.
func (s *Service) GetRoute(ctx context.Context, coords []geo.Coordinate) (*RouteResponse, error) {
	if len(coords) < 2 {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "TOO_FEW_POINTS",
			Message:  "at least two coordinates are required",
			Err:      ErrInvalidCoordinates,
		}
	}

	for i, c := range coords {
		if !c.Valid() {
			return nil, &Error{
				Provider: s.provider.Name(),
				Code:     "INVALID_COORDINATE",
				Message:  fmt.Sprintf("coordinate %d is out of range", i),
				Err:      ErrInvalidCoordinates,
			}
		}
	}

	for i := 1; i < len(coords); i++ {
		if d := geo.Distance(coords[i-1], coords[i]); d > ProviderMaxLegMeters {
			return nil, &Error{
				Provider: s.provider.Name(),
				Code:     "LEG_TOO_LONG",
				Message:  fmt.Sprintf("leg %d is %.0fm, over the %dm provider ceiling", i, d, ProviderMaxLegMeters),
				Err:      ErrLegTooLong,
			}
		}
	}

	cacheKey := s.cacheKey(coords)

	s.mu.RLock()
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.logger.Debug().
			Str("cache_key", cacheKey).
			Msg("cache hit for directions")
		return cached.response, nil
	}
	s.mu.RUnlock()

	return s.fetchRoute(ctx, coords, cacheKey)
}

// fetchRoute fetches directions from the provider and updates the cache.
func (s *Service) fetchRoute(ctx context.Context, coords []geo.Coordinate, cacheKey string) (*RouteResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache (prevents thundering herd)
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		return cached.response, nil
	}

	s.logger.Debug().
		Int("coordinates", len(coords)).
		Str("provider", s.provider.Name()).
		Msg("fetching directions from provider")

	resp, err := s.provider.GetRoute(ctx, coords)
	if err != nil {
		s.logger.Error().Err(err).
			Int("coordinates", len(coords)).
			Msg("failed to fetch directions")

		if cached, ok := s.cache[cacheKey]; ok {
			if time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
				s.logger.Warn().
					Time("fetched_at", cached.fetchedAt).
					Str("cache_key", cacheKey).
					Msg("serving stale directions due to provider error")
				return cached.response, nil
			}
		}

		return nil, err
	}

	now := time.Now()
	s.cache[cacheKey] = &cachedRoute{
		response:  resp,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}

	s.cleanupIfNeeded()

	return resp, nil
}

// cacheKey quantizes every coordinate to its grid cell and joins them.
// Keys are the integer cell indices so any configured grid size keeps
// its full resolution.
func (s *Service) cacheKey(coords []geo.Coordinate) string {
	var b strings.Builder
	for i, c := range coords {
		if i > 0 {
			b.WriteByte('|')
		}
		cellLat := int64(math.Floor(c.Lat / s.cacheGridSize))
		cellLon := int64(math.Floor(c.Lon / s.cacheGridSize))
		fmt.Fprintf(&b, "%d,%d", cellLat, cellLon)
	}
	return b.String()
}

// cleanupIfNeeded removes entries past the stale-if-error window. Caller
// must hold the write lock.
func (s *Service) cleanupIfNeeded() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.cacheTTL {
		return
	}

	s.lastCleanup = now
	expired := 0

	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired routing cache entries")
	}
}

// InvalidateCache clears all cached data.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedRoute)
}

// ProviderName returns the name of the underlying provider.
func (s *Service) ProviderName() string {
	return s.provider.Name()
}
