package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/surveyroute/surveyroute/internal/geo"
	"github.com/surveyroute/surveyroute/internal/routing"
	"github.com/surveyroute/surveyroute/internal/weather"
	"github.com/surveyroute/surveyroute/pkg/polyline"
)

// WeatherSource supplies observations, forecasts and sun times.
// Satisfied by weather.Service.
type WeatherSource interface {
	GetWeather(ctx context.Context, coord geo.Coordinate) (*weather.Report, error)
	GetSunriseSunset(ctx context.Context, coord geo.Coordinate, date time.Time) (*weather.SunTimes, error)
}

// DirectionsSource supplies driving directions for an ordered
// coordinate list. Satisfied by routing.Service.
type DirectionsSource interface {
	GetRoute(ctx context.Context, coords []geo.Coordinate) (*routing.RouteResponse, error)
}

// ServiceConfig holds configuration for the planner service.
type ServiceConfig struct {
	// Weather supplies per-location weather (required).
	Weather WeatherSource

	// Directions supplies driving legs (optional). When nil, legs are
	// estimated from great-circle distance at the configured average
	// speed.
	Directions DirectionsSource

	// Planning carries the planning constraints; zero fields take
	// defaults.
	Planning Config

	// UseSunrise enables sunrise-based day starts. The fixed start
	// hour remains the fallback when sun data is unavailable.
	UseSunrise bool

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service is the route planning pipeline: normalize, gather weather,
// sequence, fetch directions, segment into days, align forecasts.
type Service struct {
	weather    WeatherSource
	directions DirectionsSource
	cfg        Config
	useSunrise bool
	logger     zerolog.Logger
}

// NewService creates a planner service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		weather:    cfg.Weather,
		directions: cfg.Directions,
		cfg:        cfg.Planning.withDefaults(),
		useSunrise: cfg.UseSunrise,
		logger:     cfg.Logger,
	}
}

// LocationInput is a raw, unnormalized location as supplied by the
// caller. Coordinates accepts any of the shapes the normalizer
// understands.
type LocationInput struct {
	ID          string `json:"id"`
	Address     string `json:"address"`
	Coordinates any    `json:"coordinates"`
}

// OptimizeRequest describes one route optimization call.
type OptimizeRequest struct {
	Start     LocationInput
	Locations []LocationInput
	Strategy  Strategy
	StartTime time.Time
}

// OptimizeRoute runs the full planning pipeline and returns the
// day-segmented, weather-annotated itinerary.
func (s *Service) OptimizeRoute(ctx context.Context, req OptimizeRequest) (*Itinerary, error) {
	if len(req.Locations) < 1 {
		return nil, ErrInsufficientLocations
	}
	if len(req.Locations)+1 > s.cfg.MaxLocations {
		return nil, fmt.Errorf("%w: got %d, maximum is %d", ErrTooManyLocations, len(req.Locations)+1, s.cfg.MaxLocations)
	}

	start, err := normalizeInput(req.Start)
	if err != nil {
		return nil, err
	}
	locations := make([]Location, 0, len(req.Locations))
	for _, in := range req.Locations {
		loc, err := normalizeInput(in)
		if err != nil {
			return nil, err
		}
		locations = append(locations, loc)
	}

	startTime := req.StartTime
	if startTime.IsZero() {
		startTime = time.Now()
	}

	// Gather phase: concurrent weather fan-out. A failed fetch leaves
	// that location without a report; it degrades to the neutral score
	// during sequencing rather than failing the request.
	s.fetchWeather(ctx, &start, locations)

	sequencer := NewSequencer(s.cfg, s.logger)
	ordered, err := sequencer.Sequence(locations, start, req.Strategy)
	if err != nil {
		return nil, err
	}

	legs, geometry, err := s.resolveLegs(ctx, ordered)
	if err != nil {
		return nil, err
	}

	segmenter := NewSegmenter(s.cfg, s.dayStartFunc(ctx), s.logger)
	itinerary, err := segmenter.Split(ordered, legs, startTime)
	if err != nil {
		return nil, err
	}

	alignItinerary(itinerary, s.cfg.Thresholds)
	itinerary.Strategy = req.Strategy
	itinerary.GeometryPolyline = geometry

	s.logger.Info().
		Str("strategy", string(req.Strategy)).
		Int("stops", itinerary.RealStopCount()).
		Int("days", itinerary.NumberOfDays).
		Int("safety_pct", itinerary.SafetyPercentage).
		Msg("route optimized")

	return itinerary, nil
}

// Audit checks the itinerary's scheduling invariants.
func (s *Service) Audit(it *Itinerary) *AuditReport {
	return NewAuditor(s.cfg).Audit(it)
}

// Realign recomputes arrival times and forecast alignment for an
// existing itinerary under a new start time or daily budget, without
// re-sequencing. The input itinerary is not mutated; calling Realign
// twice with the same arguments yields identical schedules.
func (s *Service) Realign(ctx context.Context, it *Itinerary, newStart time.Time, newDailyHours float64) (*Itinerary, error) {
	stops := it.Stops()
	if len(stops) < 2 {
		return nil, ErrInsufficientLocations
	}

	ordered := make([]Location, 0, len(stops))
	legs := make([]Leg, 0, len(stops)-1)
	for i, stop := range stops {
		ordered = append(ordered, stop.Location)
		if i < len(stops)-1 {
			leg := Leg{
				DistanceMeters:  stop.DistanceToNext,
				DurationSeconds: stop.DurationToNext,
			}
			// A day-closing stop carries no onward leg; rebuild it
			// from the coordinates so the new schedule still covers
			// the overnight drive.
			if leg.DurationSeconds == 0 {
				d := geo.Distance(stop.Coord, stops[i+1].Coord)
				leg = Leg{
					DistanceMeters:  d,
					DurationSeconds: d / s.cfg.estimateSpeedMS(),
				}
			}
			legs = append(legs, leg)
		}
	}

	cfg := s.cfg
	if newDailyHours > 0 {
		cfg.DailyDrivingHours = newDailyHours
	}

	segmenter := NewSegmenter(cfg, s.dayStartFunc(ctx), s.logger)
	realigned, err := segmenter.Split(ordered, legs, newStart)
	if err != nil {
		return nil, err
	}

	alignItinerary(realigned, cfg.Thresholds)
	realigned.Strategy = it.Strategy
	realigned.GeometryPolyline = it.GeometryPolyline

	return realigned, nil
}

// fetchWeather attaches a weather report to the start and every
// location, one concurrent fetch per location.
func (s *Service) fetchWeather(ctx context.Context, start *Location, locations []Location) {
	var wg sync.WaitGroup

	fetch := func(loc *Location) {
		defer wg.Done()
		report, err := s.weather.GetWeather(ctx, loc.Coord)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("location", labelFor(*loc)).
				Msg("weather fetch failed, location degrades to neutral score")
			return
		}
		loc.Weather = report
	}

	wg.Add(1)
	go fetch(start)
	for i := range locations {
		wg.Add(1)
		go fetch(&locations[i])
	}
	wg.Wait()
}

// resolveLegs fetches driving legs and route geometry from the
// directions provider, or estimates them from great-circle distance
// when no provider is configured.
func (s *Service) resolveLegs(ctx context.Context, ordered []Location) ([]Leg, string, error) {
	if s.directions == nil {
		return s.estimateLegs(ordered), encodeGeometry(ordered), nil
	}

	coords := make([]geo.Coordinate, 0, len(ordered))
	for _, loc := range ordered {
		coords = append(coords, loc.Coord)
	}

	resp, err := s.directions.GetRoute(ctx, coords)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrRouteGeneration, err)
	}

	if len(resp.Legs) != len(ordered)-1 {
		s.logger.Warn().
			Int("expected", len(ordered)-1).
			Int("got", len(resp.Legs)).
			Msg("provider leg count mismatch, falling back to estimates")
		return s.estimateLegs(ordered), encodeGeometry(ordered), nil
	}

	legs := make([]Leg, 0, len(resp.Legs))
	for _, l := range resp.Legs {
		legs = append(legs, Leg{
			DistanceMeters:  l.DistanceMeters,
			DurationSeconds: l.DurationSeconds,
		})
	}
	return legs, resp.GeometryPolyline, nil
}

// encodeGeometry encodes the ordered stop coordinates as a polyline,
// used as the route geometry when no provider geometry is available.
func encodeGeometry(ordered []Location) string {
	coords := make([]polyline.Coordinate, 0, len(ordered))
	for _, loc := range ordered {
		coords = append(coords, polyline.Coordinate{Lat: loc.Coord.Lat, Lon: loc.Coord.Lon})
	}
	return polyline.Encode(coords)
}

// estimateLegs derives legs from great-circle distance at the
// configured average driving speed.
func (s *Service) estimateLegs(ordered []Location) []Leg {
	speed := s.cfg.estimateSpeedMS()
	legs := make([]Leg, 0, len(ordered)-1)
	for i := 1; i < len(ordered); i++ {
		d := geo.Distance(ordered[i-1].Coord, ordered[i].Coord)
		legs = append(legs, Leg{
			DistanceMeters:  d,
			DurationSeconds: d / speed,
		})
	}
	return legs
}

// dayStartFunc returns the segmenter's day-start resolver. With
// sunrise lookups enabled it asks the weather source for the stop's
// sunrise; the fixed start hour remains the fallback.
func (s *Service) dayStartFunc(ctx context.Context) DayStartFunc {
	if !s.useSunrise {
		return nil
	}
	return func(day time.Time, loc Location) time.Time {
		sun, err := s.weather.GetSunriseSunset(ctx, loc.Coord, day)
		if err != nil || sun == nil || sun.Sunrise.IsZero() {
			return atHour(day, s.cfg.WorkDayStartHour)
		}
		return sun.Sunrise
	}
}

// normalizeInput resolves the raw coordinate shape, failing loudly on
// anything unresolvable.
func normalizeInput(in LocationInput) (Location, error) {
	label := in.Address
	if label == "" {
		label = in.ID
	}
	coord, err := geo.Normalize(in.Coordinates, label)
	if err != nil {
		return Location{}, err
	}
	return Location{
		ID:      in.ID,
		Address: in.Address,
		Coord:   coord,
	}, nil
}
