package planner

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/surveyroute/surveyroute/internal/geo"
	"github.com/surveyroute/surveyroute/internal/weather"
)

// Sequencer orders an unvisited location set into a visiting sequence
// using a greedy best-next heuristic.
type Sequencer struct {
	cfg    Config
	logger zerolog.Logger
}

// NewSequencer creates a sequencer with the given configuration.
func NewSequencer(cfg Config, logger zerolog.Logger) *Sequencer {
	return &Sequencer{cfg: cfg.withDefaults(), logger: logger}
}

// candidatePicker selects the index of the best next location from the
// unvisited set, so new strategies can be added without touching the
// sequencing loop.
type candidatePicker interface {
	nextCandidate(current geo.Coordinate, unvisited []Location) int
}

// Sequence orders locations starting from start. Every real location
// appears exactly once; synthetic waypoints are inserted wherever a
// chosen leg exceeds the single-leg ceiling. Duplicate addresses are
// deduplicated before sequencing (first occurrence wins).
func (s *Sequencer) Sequence(locations []Location, start Location, strategy Strategy) ([]Location, error) {
	if !strategy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	unvisited := dedupeByAddress(locations, start)

	if len(unvisited) < 1 {
		return nil, ErrInsufficientLocations
	}
	if len(unvisited)+1 > s.cfg.MaxLocations {
		return nil, fmt.Errorf("%w: got %d, maximum is %d", ErrTooManyLocations, len(unvisited)+1, s.cfg.MaxLocations)
	}

	if !start.Coord.Valid() {
		return nil, fmt.Errorf("start location %q has no resolvable coordinates", labelFor(start))
	}
	for _, loc := range unvisited {
		if !loc.Coord.Valid() {
			return nil, fmt.Errorf("location %q has no resolvable coordinates", labelFor(loc))
		}
	}

	var picker candidatePicker
	switch strategy {
	case StrategyDistance:
		picker = &distancePicker{cfg: s.cfg}
	case StrategyWeather:
		picker = &weatherPicker{cfg: s.cfg, logger: s.logger}
	}

	ordered := make([]Location, 0, len(unvisited)+1)
	ordered = append(ordered, start)
	current := start.Coord
	waypointCount := 0

	for len(unvisited) > 0 {
		idx := picker.nextCandidate(current, unvisited)
		next := unvisited[idx]
		unvisited = append(unvisited[:idx], unvisited[idx+1:]...)

		if d := geo.Distance(current, next.Coord); d > s.cfg.MaxSegmentDistance {
			n := int(math.Ceil(d/s.cfg.MaxSegmentDistance)) - 1
			for _, wc := range geo.Interpolate(current, next.Coord, n) {
				waypointCount++
				ordered = append(ordered, Location{
					ID:         fmt.Sprintf("waypoint-%d", waypointCount),
					Address:    fmt.Sprintf("Waypoint %d", waypointCount),
					Coord:      wc,
					IsWaypoint: true,
				})
			}
			s.logger.Debug().
				Str("destination", labelFor(next)).
				Float64("distance_m", d).
				Int("waypoints", n).
				Msg("split long leg with interpolated waypoints")
		}

		ordered = append(ordered, next)
		current = next.Coord
	}

	return ordered, nil
}

// dedupeByAddress drops the start location and any duplicate addresses
// from the candidate set, preserving input order.
func dedupeByAddress(locations []Location, start Location) []Location {
	seen := map[string]bool{start.Address: true}
	out := make([]Location, 0, len(locations))
	for _, loc := range locations {
		if loc.ID != "" && loc.ID == start.ID {
			continue
		}
		if loc.Address != "" && seen[loc.Address] {
			continue
		}
		seen[loc.Address] = true
		out = append(out, loc)
	}
	return out
}

func labelFor(loc Location) string {
	if loc.Address != "" {
		return loc.Address
	}
	if loc.ID != "" {
		return loc.ID
	}
	return "Unknown"
}

// distancePicker picks the nearest unvisited location whose leg fits
// under the single-leg ceiling and whose estimated drive time fits the
// daily budget. When nothing qualifies it falls back to the globally
// nearest location; the sequencing loop then splits the leg.
type distancePicker struct {
	cfg Config
}

func (p *distancePicker) nextCandidate(current geo.Coordinate, unvisited []Location) int {
	budget := p.cfg.drivingBudget().Seconds()
	speed := p.cfg.estimateSpeedMS()

	bestQualified := -1
	bestQualifiedDist := math.MaxFloat64
	bestAny := 0
	bestAnyDist := math.MaxFloat64

	for i, loc := range unvisited {
		d := geo.Distance(current, loc.Coord)
		if d < bestAnyDist {
			bestAny = i
			bestAnyDist = d
		}
		if d <= p.cfg.MaxSegmentDistance && d/speed <= budget && d < bestQualifiedDist {
			bestQualified = i
			bestQualifiedDist = d
		}
	}

	if bestQualified >= 0 {
		return bestQualified
	}
	return bestAny
}

// weatherPicker weighs flight-safety scores against distance. Locations
// whose weather fetch failed carry no report and fall back to the
// neutral score so one failed fetch cannot poison the whole route.
type weatherPicker struct {
	cfg    Config
	logger zerolog.Logger
}

func (p *weatherPicker) nextCandidate(current geo.Coordinate, unvisited []Location) int {
	best := 0
	bestScore := math.Inf(-1)

	for i, loc := range unvisited {
		d := geo.Distance(current, loc.Coord)

		weatherScore := float64(weather.NeutralScore)
		if loc.Weather != nil {
			weatherScore = float64(weather.Score(&loc.Weather.Current, p.cfg.Thresholds))
		} else {
			p.logger.Warn().
				Str("location", labelFor(loc)).
				Msg("no weather data for location, using neutral score")
		}

		distanceScore := math.Max(0, 100*(1-d/p.cfg.MaxSegmentDistance))

		penalty := 1.0
		if d > p.cfg.MaxSegmentDistance {
			penalty = 0.1
		}

		combined := (weatherScore*0.7 + distanceScore*0.3) * penalty
		if combined > bestScore {
			best = i
			bestScore = combined
		}
	}

	return best
}
