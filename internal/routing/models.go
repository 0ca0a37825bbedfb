// Package routing provides driving directions between ordered survey
// stops.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/surveyroute/surveyroute/internal/geo"
)

// ProviderMaxLegMeters is the hard ceiling the directions provider
// enforces on a single leg. The sequencer's waypoint interpolation exists
// specifically to keep every leg under this limit before a request is
// ever made.
const ProviderMaxLegMeters = 3_000_000

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no drivable route exists between the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrLegTooLong indicates a requested leg exceeds the provider's maximum supported distance.
	ErrLegTooLong = errors.New("leg exceeds maximum supported distance")
)

// Provider defines the interface for directions providers.
type Provider interface {
	// GetRoute retrieves driving directions through the given ordered
	// coordinates. The response carries one leg per consecutive pair.
	GetRoute(ctx context.Context, coords []geo.Coordinate) (*RouteResponse, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Leg is the driving edge between two consecutive coordinates.
type Leg struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// RouteResponse is the directions result for one ordered coordinate list.
type RouteResponse struct {
	DistanceMeters   float64
	DurationSeconds  float64
	GeometryPolyline string
	Legs             []Leg
	Provider         string
	FetchedAt        time.Time
}

// Error provides detailed error information from the directions provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
