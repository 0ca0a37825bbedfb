// Package planner implements the route construction and scheduling
// engine: greedy sequencing of survey sites, daily segmentation under a
// driving-time budget, arrival-time weather alignment, and itinerary
// auditing.
package planner

import (
	"errors"
	"time"

	"github.com/surveyroute/surveyroute/internal/geo"
	"github.com/surveyroute/surveyroute/internal/weather"
)

// Planner errors.
var (
	ErrInsufficientLocations = errors.New("insufficient locations: at least a start and one destination are required")
	ErrTooManyLocations      = errors.New("too many locations for a single route request")
	ErrTooManySegments       = errors.New("segment cap exceeded: reduce the number of stops or increase the daily driving budget")
	ErrUnknownStrategy       = errors.New("unknown sequencing strategy")
	ErrRouteGeneration       = errors.New("route generation failed")
)

// Strategy selects the sequencing heuristic.
type Strategy string

const (
	// StrategyDistance picks the nearest unvisited site at every step.
	StrategyDistance Strategy = "distance"

	// StrategyWeather weighs flight-safety scores against distance at
	// every step.
	StrategyWeather Strategy = "weather"
)

// Valid reports whether the strategy is one of the supported variants.
func (s Strategy) Valid() bool {
	return s == StrategyDistance || s == StrategyWeather
}

// Default planning constants.
const (
	// DefaultMaxSegmentDistance is the maximum single-leg distance in
	// meters. Longer legs are split with interpolated waypoints. Kept
	// under the directions provider's own 3,000 km ceiling.
	DefaultMaxSegmentDistance = 2_800_000

	// DefaultMaxSegments caps the number of day segments one request
	// may produce.
	DefaultMaxSegments = 100

	// DefaultMaxLocations caps the number of sites per request.
	DefaultMaxLocations = 50

	// DefaultEstimateSpeedKMH is the assumed average driving speed used
	// for duration estimates before the directions provider is called.
	DefaultEstimateSpeedKMH = 65

	DefaultDailyDrivingHours = 8
	DefaultSiteVisitMinutes  = 30
	DefaultWorkDayStartHour  = 7
	DefaultWorkDayEndHour    = 19
	DefaultLateStartHour     = 17
)

// Config carries the tunable planning constraints for one request.
type Config struct {
	// DailyDrivingHours is the maximum driving time per day segment.
	DailyDrivingHours float64

	// SiteVisitMinutes is the fixed time spent at each real stop.
	SiteVisitMinutes int

	// WorkDayStartHour and WorkDayEndHour bound each day segment
	// (local wall clock). Sunrise data, when available, overrides the
	// start hour.
	WorkDayStartHour int
	WorkDayEndHour   int

	// LateStartHour is the cutoff after which the first driving leg
	// rolls to the next day.
	LateStartHour int

	// MaxSegmentDistance is the maximum single-leg distance in meters.
	MaxSegmentDistance float64

	// MaxSegments caps day segments per request.
	MaxSegments int

	// MaxLocations caps sites per request.
	MaxLocations int

	// EstimateSpeedKMH is the assumed driving speed for estimates.
	EstimateSpeedKMH float64

	// Thresholds are the flight-safety thresholds for scoring.
	Thresholds weather.Thresholds
}

// DefaultConfig returns the standard planning configuration.
func DefaultConfig() Config {
	return Config{
		DailyDrivingHours:  DefaultDailyDrivingHours,
		SiteVisitMinutes:   DefaultSiteVisitMinutes,
		WorkDayStartHour:   DefaultWorkDayStartHour,
		WorkDayEndHour:     DefaultWorkDayEndHour,
		LateStartHour:      DefaultLateStartHour,
		MaxSegmentDistance: DefaultMaxSegmentDistance,
		MaxSegments:        DefaultMaxSegments,
		MaxLocations:       DefaultMaxLocations,
		EstimateSpeedKMH:   DefaultEstimateSpeedKMH,
		Thresholds:         weather.DefaultThresholds(),
	}
}

// withDefaults fills zero-valued fields with the standard constants.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DailyDrivingHours == 0 {
		c.DailyDrivingHours = d.DailyDrivingHours
	}
	if c.SiteVisitMinutes == 0 {
		c.SiteVisitMinutes = d.SiteVisitMinutes
	}
	if c.WorkDayStartHour == 0 {
		c.WorkDayStartHour = d.WorkDayStartHour
	}
	if c.WorkDayEndHour == 0 {
		c.WorkDayEndHour = d.WorkDayEndHour
	}
	if c.LateStartHour == 0 {
		c.LateStartHour = d.LateStartHour
	}
	if c.MaxSegmentDistance == 0 {
		c.MaxSegmentDistance = d.MaxSegmentDistance
	}
	if c.MaxSegments == 0 {
		c.MaxSegments = d.MaxSegments
	}
	if c.MaxLocations == 0 {
		c.MaxLocations = d.MaxLocations
	}
	if c.EstimateSpeedKMH == 0 {
		c.EstimateSpeedKMH = d.EstimateSpeedKMH
	}
	if c.Thresholds == (weather.Thresholds{}) {
		c.Thresholds = d.Thresholds
	}
	return c
}

// visitDuration returns the per-stop site visit time.
func (c Config) visitDuration() time.Duration {
	return time.Duration(c.SiteVisitMinutes) * time.Minute
}

// drivingBudget returns the daily driving budget.
func (c Config) drivingBudget() time.Duration {
	return time.Duration(c.DailyDrivingHours * float64(time.Hour))
}

// estimateSpeedMS returns the estimate speed in meters per second.
func (c Config) estimateSpeedMS() float64 {
	return c.EstimateSpeedKMH * 1000 / 3600
}

// Location is a survey site to visit, or a synthetic waypoint inserted
// to keep legs under the single-leg ceiling.
type Location struct {
	// ID is an opaque identifier, unique within one request.
	ID string

	// Address is the human-readable label. Duplicate addresses within
	// one request are deduplicated before sequencing.
	Address string

	// Coord is the normalized coordinate pair.
	Coord geo.Coordinate

	// Weather is the attached observation bundle, populated by the
	// concurrent fan-out before sequencing. Nil when the fetch failed.
	Weather *weather.Report

	// IsWaypoint marks synthetic interpolated points. Waypoints are
	// driven through but not visited, and are excluded from stop
	// counts and safety aggregation.
	IsWaypoint bool
}

// Stop is a Location scheduled into an itinerary.
type Stop struct {
	Location

	ArrivalTime   time.Time
	DepartureTime time.Time

	// DistanceToNext and DurationToNext describe the onward driving
	// leg within the same day. Zero for the final stop of the
	// itinerary and for a day's closing stop, whose onward leg is
	// driven overnight.
	DistanceToNext float64
	DurationToNext float64

	// AlignedForecast is the forecast entry closest to the arrival
	// time, when the location carries a forecast. Nil otherwise.
	AlignedForecast *weather.ForecastEntry

	// SafetyScore is the 0-100 flight-safety score at the arrival
	// time, from the aligned forecast when present, else the current
	// observation.
	SafetyScore int
}

// HasWeather reports whether the stop carries any weather data.
func (s *Stop) HasWeather() bool {
	return s.Weather != nil
}

// DaySegment is one calendar day of the itinerary.
type DaySegment struct {
	// DayNumber is 1-based.
	DayNumber int

	// Stops visited this day, in driving order.
	Stops []Stop

	// StartTime and EndTime bound the working day.
	StartTime time.Time
	EndTime   time.Time

	// DrivingDistanceMeters and DrivingDurationSeconds cover the legs
	// driven within this day only.
	DrivingDistanceMeters  float64
	DrivingDurationSeconds float64
}

// Itinerary is the day-segmented, weather-annotated planning result.
// It is never mutated in place; realignment produces a fresh copy.
type Itinerary struct {
	Segments []DaySegment

	// TotalDistanceMeters and TotalDurationSeconds cover driving only,
	// site visit time excluded.
	TotalDistanceMeters  float64
	TotalDurationSeconds float64

	NumberOfDays int

	// SafetyPercentage is the aggregate flight-safety score across all
	// real stops, 0-100.
	SafetyPercentage int

	// GeometryPolyline is the encoded driving geometry: the provider's
	// polyline when directions were fetched, otherwise the encoded
	// stop sequence.
	GeometryPolyline string

	Strategy    Strategy
	GeneratedAt time.Time
}

// Stops returns the flattened, day-ordered stop sequence.
func (it *Itinerary) Stops() []Stop {
	var out []Stop
	for _, seg := range it.Segments {
		out = append(out, seg.Stops...)
	}
	return out
}

// RealStopCount returns the number of non-waypoint stops.
func (it *Itinerary) RealStopCount() int {
	n := 0
	for _, seg := range it.Segments {
		for _, s := range seg.Stops {
			if !s.IsWaypoint {
				n++
			}
		}
	}
	return n
}

// Leg is an annotated driving edge between consecutive sequence
// entries.
type Leg struct {
	DistanceMeters  float64
	DurationSeconds float64
}
