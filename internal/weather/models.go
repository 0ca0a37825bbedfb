// Package weather provides weather observations, arrival-window forecasts,
// and flight-safety scoring for survey planning.
package weather

import (
	"context"
	"errors"
	"time"

	"github.com/surveyroute/surveyroute/internal/geo"
)

// Weather errors.
var (
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrNoDataForLocation   = errors.New("no weather data for location")
	ErrInvalidCoordinates  = errors.New("invalid coordinates")
)

// Provider defines the interface for weather data providers.
//
// All values are converted to the planner's canonical units at this
// boundary: temperature in degrees Fahrenheit, wind speed in mph,
// precipitation rate in inches per hour, visibility in meters.
type Provider interface {
	// GetWeather fetches the current observation plus hourly forecast
	// for a location.
	GetWeather(ctx context.Context, coord geo.Coordinate) (*Report, error)

	// GetSunriseSunset fetches sunrise and sunset times for a location
	// on the given date.
	GetSunriseSunset(ctx context.Context, coord geo.Coordinate, date time.Time) (*SunTimes, error)

	// Name returns the provider name for logging.
	Name() string
}

// Observation represents weather at a specific point and time.
type Observation struct {
	// Temperature in degrees Fahrenheit.
	Temperature float64

	// WindSpeed in miles per hour.
	WindSpeed float64

	// Precipitation rate in inches per hour.
	Precipitation float64

	// Visibility in meters.
	Visibility float64

	// Humidity percentage (0-100).
	Humidity float64

	// Condition is the general weather condition.
	Condition Condition

	// Timestamps.
	ObservedAt time.Time
	FetchedAt  time.Time
}

// ForecastEntry represents forecast weather for a specific hour.
type ForecastEntry struct {
	Time          time.Time
	Temperature   float64
	WindSpeed     float64
	Precipitation float64
	Visibility    float64
	Condition     Condition
}

// Observation converts a forecast entry to an Observation so it can be
// scored with the same thresholds as current weather.
func (e ForecastEntry) Observation() Observation {
	return Observation{
		Temperature:   e.Temperature,
		WindSpeed:     e.WindSpeed,
		Precipitation: e.Precipitation,
		Visibility:    e.Visibility,
		Condition:     e.Condition,
		ObservedAt:    e.Time,
	}
}

// Report bundles the current observation with the hourly forecast for
// one location.
type Report struct {
	Coord     geo.Coordinate
	Current   Observation
	Forecast  []ForecastEntry
	Provider  string
	FetchedAt time.Time
}

// SunTimes holds sunrise and sunset for a location and date.
type SunTimes struct {
	Sunrise time.Time
	Sunset  time.Time
}

// Condition represents the general weather condition.
type Condition string

const (
	ConditionClear        Condition = "CLEAR"
	ConditionClouds       Condition = "CLOUDS"
	ConditionRain         Condition = "RAIN"
	ConditionDrizzle      Condition = "DRIZZLE"
	ConditionThunderstorm Condition = "THUNDERSTORM"
	ConditionSnow         Condition = "SNOW"
	ConditionMist         Condition = "MIST"
	ConditionFog          Condition = "FOG"
	ConditionHaze         Condition = "HAZE"
	ConditionUnknown      Condition = "UNKNOWN"
)
