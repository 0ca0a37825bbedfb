package handler

import (
	"time"

	"github.com/surveyroute/surveyroute/internal/api/models"
	"github.com/surveyroute/surveyroute/internal/geo"
	"github.com/surveyroute/surveyroute/internal/planner"
	"github.com/surveyroute/surveyroute/internal/weather"
)

// toAPIItinerary converts a planner itinerary to its API shape.
func toAPIItinerary(it *planner.Itinerary) models.Itinerary {
	out := models.Itinerary{
		Segments:             make([]models.DaySegment, 0, len(it.Segments)),
		TotalDistanceMeters:  it.TotalDistanceMeters,
		TotalDurationSeconds: it.TotalDurationSeconds,
		NumberOfDays:         it.NumberOfDays,
		SafetyPercentage:     it.SafetyPercentage,
		GeometryPolyline:     it.GeometryPolyline,
		Strategy:             models.Strategy(it.Strategy),
		GeneratedAt:          models.Timestamp(it.GeneratedAt),
	}
	for _, seg := range it.Segments {
		out.Segments = append(out.Segments, toAPISegment(seg))
	}
	return out
}

func toAPISegment(seg planner.DaySegment) models.DaySegment {
	out := models.DaySegment{
		DayNumber:              seg.DayNumber,
		Stops:                  make([]models.Stop, 0, len(seg.Stops)),
		StartTime:              models.Timestamp(seg.StartTime),
		EndTime:                models.Timestamp(seg.EndTime),
		DrivingDistanceMeters:  seg.DrivingDistanceMeters,
		DrivingDurationSeconds: seg.DrivingDurationSeconds,
	}
	for _, stop := range seg.Stops {
		out.Stops = append(out.Stops, toAPIStop(stop))
	}
	return out
}

func toAPIStop(stop planner.Stop) models.Stop {
	out := models.Stop{
		ID:             stop.ID,
		Address:        stop.Address,
		Point:          models.Point{Lat: stop.Coord.Lat, Lon: stop.Coord.Lon},
		IsWaypoint:     stop.IsWaypoint,
		ArrivalTime:    models.Timestamp(stop.ArrivalTime),
		DepartureTime:  models.Timestamp(stop.DepartureTime),
		DistanceToNext: stop.DistanceToNext,
		DurationToNext: stop.DurationToNext,
		SafetyScore:    stop.SafetyScore,
	}

	if obs, forecastTime, ok := stopObservation(stop); ok {
		sw := &models.StopWeather{
			TemperatureF:      obs.Temperature,
			WindSpeedMPH:      obs.WindSpeed,
			PrecipitationInHr: obs.Precipitation,
			VisibilityMeters:  obs.Visibility,
			Condition:         string(obs.Condition),
		}
		if forecastTime != nil {
			ts := models.Timestamp(*forecastTime)
			sw.ForecastTime = &ts
		}
		out.Weather = sw
	}
	return out
}

// stopObservation picks the observation to surface for a stop: the
// arrival-aligned forecast entry when present, else the current
// observation.
func stopObservation(stop planner.Stop) (weather.Observation, *time.Time, bool) {
	if stop.AlignedForecast != nil {
		t := stop.AlignedForecast.Time
		return stop.AlignedForecast.Observation(), &t, true
	}
	if stop.Weather != nil {
		return stop.Weather.Current, nil, true
	}
	return weather.Observation{}, nil, false
}

// toPlannerItinerary rebuilds a planner itinerary from its API shape.
// Stop weather round-trips as a synthetic report carrying the
// surfaced observation, enough for auditing and realignment.
func toPlannerItinerary(in *models.Itinerary) *planner.Itinerary {
	out := &planner.Itinerary{
		Segments:             make([]planner.DaySegment, 0, len(in.Segments)),
		TotalDistanceMeters:  in.TotalDistanceMeters,
		TotalDurationSeconds: in.TotalDurationSeconds,
		NumberOfDays:         in.NumberOfDays,
		SafetyPercentage:     in.SafetyPercentage,
		GeometryPolyline:     in.GeometryPolyline,
		Strategy:             planner.Strategy(in.Strategy),
		GeneratedAt:          in.GeneratedAt.Time(),
	}
	for _, seg := range in.Segments {
		out.Segments = append(out.Segments, toPlannerSegment(seg))
	}
	return out
}

func toPlannerSegment(in models.DaySegment) planner.DaySegment {
	out := planner.DaySegment{
		DayNumber:              in.DayNumber,
		Stops:                  make([]planner.Stop, 0, len(in.Stops)),
		StartTime:              in.StartTime.Time(),
		EndTime:                in.EndTime.Time(),
		DrivingDistanceMeters:  in.DrivingDistanceMeters,
		DrivingDurationSeconds: in.DrivingDurationSeconds,
	}
	for _, stop := range in.Stops {
		out.Stops = append(out.Stops, toPlannerStop(stop))
	}
	return out
}

func toPlannerStop(in models.Stop) planner.Stop {
	out := planner.Stop{
		Location: planner.Location{
			ID:         in.ID,
			Address:    in.Address,
			Coord:      geo.Coordinate{Lat: in.Point.Lat, Lon: in.Point.Lon},
			IsWaypoint: in.IsWaypoint,
		},
		ArrivalTime:    in.ArrivalTime.Time(),
		DepartureTime:  in.DepartureTime.Time(),
		DistanceToNext: in.DistanceToNext,
		DurationToNext: in.DurationToNext,
		SafetyScore:    in.SafetyScore,
	}

	if w := in.Weather; w != nil {
		obs := weather.Observation{
			Temperature:   w.TemperatureF,
			WindSpeed:     w.WindSpeedMPH,
			Precipitation: w.PrecipitationInHr,
			Visibility:    w.VisibilityMeters,
			Condition:     weather.Condition(w.Condition),
		}
		report := &weather.Report{
			Coord:   out.Coord,
			Current: obs,
		}
		if w.ForecastTime != nil {
			report.Forecast = []weather.ForecastEntry{{
				Time:          w.ForecastTime.Time(),
				Temperature:   w.TemperatureF,
				WindSpeed:     w.WindSpeedMPH,
				Precipitation: w.PrecipitationInHr,
				Visibility:    w.VisibilityMeters,
				Condition:     weather.Condition(w.Condition),
			}}
		}
		out.Weather = report
	}
	return out
}

// toAPIAuditReport converts a planner audit report to its API shape.
func toAPIAuditReport(in *planner.AuditReport) models.AuditReport {
	out := models.AuditReport{
		OK:     in.OK(),
		Issues: in.Issues,
		Stops:  make([]models.StopReport, 0, len(in.Stops)),
	}
	for _, s := range in.Stops {
		out.Stops = append(out.Stops, models.StopReport{
			Address:        s.Address,
			ArrivalTime:    s.ArrivalTime,
			DistanceToNext: s.DistanceToNext,
			DurationToNext: s.DurationToNext,
			HasWeather:     s.HasWeather,
			IsWaypoint:     s.IsWaypoint,
		})
	}
	return out
}
