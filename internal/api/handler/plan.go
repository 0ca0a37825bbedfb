// Package handler provides HTTP handlers for the SurveyRoute API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/surveyroute/surveyroute/internal/api/models"
	"github.com/surveyroute/surveyroute/internal/api/response"
	"github.com/surveyroute/surveyroute/internal/geo"
	"github.com/surveyroute/surveyroute/internal/planner"
	"github.com/surveyroute/surveyroute/internal/routing"
)

// PlanHandler handles route planning endpoints.
type PlanHandler struct {
	base planner.ServiceConfig
}

// NewPlanHandler creates a new PlanHandler. The base configuration
// supplies the weather and directions sources plus the default
// planning constraints; per-request config overrides are layered on
// top.
func NewPlanHandler(base planner.ServiceConfig) *PlanHandler {
	return &PlanHandler{base: base}
}

// OptimizeRoute handles POST /v1/routes:optimize - build a
// day-segmented, weather-annotated itinerary.
func (h *PlanHandler) OptimizeRoute(w http.ResponseWriter, r *http.Request) {
	var input models.RouteOptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if len(input.Locations) == 0 {
		response.BadRequest(w, r, "at least one location is required", []models.FieldError{
			{Field: "locations", Message: "must contain at least one location"},
		})
		return
	}

	strategy := planner.Strategy(input.Strategy)
	if strategy == "" {
		strategy = planner.StrategyDistance
	}
	if !strategy.Valid() {
		response.BadRequest(w, r, "unknown strategy", []models.FieldError{
			{Field: "strategy", Message: "must be one of: distance, weather"},
		})
		return
	}

	req := planner.OptimizeRequest{
		Start:     toLocationInput(input.Start),
		Strategy:  strategy,
		Locations: make([]planner.LocationInput, 0, len(input.Locations)),
	}
	for _, loc := range input.Locations {
		req.Locations = append(req.Locations, toLocationInput(loc))
	}
	if input.StartTime != nil {
		req.StartTime = input.StartTime.Time()
	}

	itinerary, err := h.service(input.Config).OptimizeRoute(r.Context(), req)
	if err != nil {
		writePlannerError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toAPIItinerary(itinerary))
}

// AuditRoute handles POST /v1/routes:audit - check an itinerary's
// scheduling invariants without modifying it.
func (h *PlanHandler) AuditRoute(w http.ResponseWriter, r *http.Request) {
	var input models.RouteAuditRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if len(input.Itinerary.Segments) == 0 {
		response.BadRequest(w, r, "itinerary has no segments", []models.FieldError{
			{Field: "itinerary.segments", Message: "must contain at least one segment"},
		})
		return
	}

	report := h.service(nil).Audit(toPlannerItinerary(&input.Itinerary))
	response.JSON(w, r, http.StatusOK, toAPIAuditReport(report))
}

// RealignRoute handles POST /v1/routes:realign - recompute arrival
// times for an existing itinerary under a new start time, preserving
// the stop sequence.
func (h *PlanHandler) RealignRoute(w http.ResponseWriter, r *http.Request) {
	var input models.RouteRealignRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.NewStartTime.Time().IsZero() {
		response.BadRequest(w, r, "newStartTime is required", []models.FieldError{
			{Field: "newStartTime", Message: "required"},
		})
		return
	}

	var newDailyHours float64
	if input.NewDailyHours != nil {
		if *input.NewDailyHours <= 0 || *input.NewDailyHours > 16 {
			response.BadRequest(w, r, "newDailyHours out of range", []models.FieldError{
				{Field: "newDailyHours", Message: "must be between 0 and 16"},
			})
			return
		}
		newDailyHours = *input.NewDailyHours
	}

	itinerary := toPlannerItinerary(&input.Itinerary)
	realigned, err := h.service(nil).Realign(r.Context(), itinerary, input.NewStartTime.Time(), newDailyHours)
	if err != nil {
		writePlannerError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toAPIItinerary(realigned))
}

// service builds a planner service with request overrides layered over
// the base configuration.
func (h *PlanHandler) service(overrides *models.PlanConfig) *planner.Service {
	cfg := h.base
	if overrides != nil {
		cfg.Planning = applyPlanConfig(cfg.Planning, overrides)
		if overrides.UseSunrise != nil {
			cfg.UseSunrise = *overrides.UseSunrise
		}
	}
	return planner.NewService(cfg)
}

// applyPlanConfig merges non-nil request overrides into the planning
// config.
func applyPlanConfig(cfg planner.Config, in *models.PlanConfig) planner.Config {
	if in.DailyDrivingHours != nil {
		cfg.DailyDrivingHours = *in.DailyDrivingHours
	}
	if in.SiteVisitMinutes != nil {
		cfg.SiteVisitMinutes = *in.SiteVisitMinutes
	}
	if in.WorkDayStartHour != nil {
		cfg.WorkDayStartHour = *in.WorkDayStartHour
	}
	if in.WorkDayEndHour != nil {
		cfg.WorkDayEndHour = *in.WorkDayEndHour
	}
	if t := in.Thresholds; t != nil {
		if t.MaxWindMPH != nil {
			cfg.Thresholds.MaxWindMPH = *t.MaxWindMPH
		}
		if t.MaxPrecipInHr != nil {
			cfg.Thresholds.MaxPrecipInHr = *t.MaxPrecipInHr
		}
		if t.MinVisibilityMeters != nil {
			cfg.Thresholds.MinVisibilityMeters = *t.MinVisibilityMeters
		}
		if t.MinTempF != nil {
			cfg.Thresholds.MinTempF = *t.MinTempF
		}
		if t.MaxTempF != nil {
			cfg.Thresholds.MaxTempF = *t.MaxTempF
		}
	}
	return cfg
}

// toLocationInput converts an API location into a planner input,
// keeping the raw coordinate payload for the normalizer to resolve.
func toLocationInput(in models.RouteLocation) planner.LocationInput {
	out := planner.LocationInput{
		ID:      in.ID,
		Address: in.Address,
	}
	if len(in.Coordinates) > 0 {
		var raw any
		if err := json.Unmarshal(in.Coordinates, &raw); err == nil {
			out.Coordinates = raw
		} else {
			out.Coordinates = string(in.Coordinates)
		}
	}
	return out
}

// writePlannerError maps planner and provider errors to Problem
// responses.
func writePlannerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, planner.ErrInsufficientLocations),
		errors.Is(err, planner.ErrTooManyLocations),
		errors.Is(err, planner.ErrTooManySegments),
		errors.Is(err, planner.ErrUnknownStrategy),
		errors.Is(err, geo.ErrUnresolvable),
		errors.Is(err, routing.ErrInvalidCoordinates),
		errors.Is(err, routing.ErrLegTooLong),
		errors.Is(err, routing.ErrNoRouteFound):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, routing.ErrRateLimitExceeded):
		response.TooManyRequests(w, r, "directions provider rate limit exceeded")
	case errors.Is(err, routing.ErrProviderUnavailable):
		response.ServiceUnavailable(w, r, "directions provider unavailable")
	default:
		response.InternalError(w, r, "route planning failed")
	}
}
