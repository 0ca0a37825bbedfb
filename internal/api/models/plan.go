package models

import "encoding/json"

// RouteOptimizeRequest is the request body for POST /v1/routes:optimize.
type RouteOptimizeRequest struct {
	// Start is the fixed starting location.
	Start RouteLocation `json:"start" validate:"required"`

	// Locations are the survey sites to visit.
	Locations []RouteLocation `json:"locations" validate:"required,min=1,max=49"`

	// Strategy selects the sequencing heuristic. Defaults to distance.
	Strategy Strategy `json:"strategy,omitempty"`

	// StartTime is the departure time (RFC3339). Defaults to now.
	StartTime *Timestamp `json:"startTime,omitempty"`

	// Config overrides the default planning constraints.
	Config *PlanConfig `json:"config,omitempty"`
}

// RouteLocation is a raw location in a route request. Coordinates
// accepts any of the shapes the normalizer understands: a [lon, lat]
// array, a "lon,lat" string, or an object with lat/lng or
// latitude/longitude keys.
type RouteLocation struct {
	ID          string          `json:"id"`
	Address     string          `json:"address"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// PlanConfig carries the tunable planning constraints.
type PlanConfig struct {
	DailyDrivingHours *float64 `json:"dailyDrivingHours,omitempty" validate:"omitempty,gt=0,lte=16"`
	SiteVisitMinutes  *int     `json:"siteVisitMinutes,omitempty" validate:"omitempty,gte=5,lte=480"`
	WorkDayStartHour  *int     `json:"workDayStartHour,omitempty" validate:"omitempty,gte=0,lte=23"`
	WorkDayEndHour    *int     `json:"workDayEndHour,omitempty" validate:"omitempty,gte=1,lte=24"`
	UseSunrise        *bool    `json:"useSunrise,omitempty"`

	Thresholds *SafetyThresholds `json:"thresholds,omitempty"`
}

// SafetyThresholds carries the flight-safety thresholds.
type SafetyThresholds struct {
	MaxWindMPH          *float64 `json:"maxWindMph,omitempty"`
	MaxPrecipInHr       *float64 `json:"maxPrecipInHr,omitempty"`
	MinVisibilityMeters *float64 `json:"minVisibilityMeters,omitempty"`
	MinTempF            *float64 `json:"minTempF,omitempty"`
	MaxTempF            *float64 `json:"maxTempF,omitempty"`
}

// Itinerary is the day-segmented planning result.
type Itinerary struct {
	Segments             []DaySegment `json:"segments"`
	TotalDistanceMeters  float64      `json:"totalDistanceMeters"`
	TotalDurationSeconds float64      `json:"totalDurationSeconds"`
	NumberOfDays         int          `json:"numberOfDays"`
	SafetyPercentage     int          `json:"safetyPercentage"`
	GeometryPolyline     string       `json:"geometryPolyline,omitempty"`
	Strategy             Strategy     `json:"strategy"`
	GeneratedAt          Timestamp    `json:"generatedAt"`
}

// DaySegment is one calendar day of the itinerary.
type DaySegment struct {
	DayNumber              int       `json:"dayNumber"`
	Stops                  []Stop    `json:"stops"`
	StartTime              Timestamp `json:"startTime"`
	EndTime                Timestamp `json:"endTime"`
	DrivingDistanceMeters  float64   `json:"drivingDistanceMeters"`
	DrivingDurationSeconds float64   `json:"drivingDurationSeconds"`
}

// Stop is a scheduled stop within a day segment.
type Stop struct {
	ID             string    `json:"id"`
	Address        string    `json:"address,omitempty"`
	Point          Point     `json:"point"`
	IsWaypoint     bool      `json:"isWaypoint"`
	ArrivalTime    Timestamp `json:"arrivalTime"`
	DepartureTime  Timestamp `json:"departureTime"`
	DistanceToNext float64   `json:"distanceToNextMeters"`
	DurationToNext float64   `json:"durationToNextSeconds"`
	SafetyScore    int       `json:"safetyScore"`

	Weather *StopWeather `json:"weather,omitempty"`
}

// StopWeather is the arrival-aligned weather summary for a stop.
type StopWeather struct {
	TemperatureF      float64    `json:"temperatureF"`
	WindSpeedMPH      float64    `json:"windSpeedMph"`
	PrecipitationInHr float64    `json:"precipitationInHr"`
	VisibilityMeters  float64    `json:"visibilityMeters"`
	Condition         string     `json:"condition"`
	ForecastTime      *Timestamp `json:"forecastTime,omitempty"`
}

// RouteAuditRequest is the request body for POST /v1/routes:audit.
type RouteAuditRequest struct {
	Itinerary Itinerary `json:"itinerary" validate:"required"`
}

// AuditReport is the structured consistency report for an itinerary.
type AuditReport struct {
	OK     bool         `json:"ok"`
	Issues []string     `json:"issues"`
	Stops  []StopReport `json:"stops"`
}

// StopReport summarizes one scheduled stop for the audit report.
type StopReport struct {
	Address        string  `json:"address"`
	ArrivalTime    string  `json:"arrivalTime"`
	DistanceToNext float64 `json:"distanceToNextMeters"`
	DurationToNext float64 `json:"durationToNextSeconds"`
	HasWeather     bool    `json:"hasWeather"`
	IsWaypoint     bool    `json:"isWaypoint"`
}

// RouteRealignRequest is the request body for POST /v1/routes:realign.
type RouteRealignRequest struct {
	Itinerary     Itinerary `json:"itinerary" validate:"required"`
	NewStartTime  Timestamp `json:"newStartTime" validate:"required"`
	NewDailyHours *float64  `json:"newDailyHours,omitempty" validate:"omitempty,gt=0,lte=16"`
}
