// Package worker provides background job processing for SurveyRoute.
package worker

import (
	"time"

	"github.com/surveyroute/surveyroute/internal/geo"
	"github.com/surveyroute/surveyroute/internal/prefs"
)

// PrefetchTarget represents one saved survey plan's sites to warm.
type PrefetchTarget struct {
	// Name is the human-readable name of the target, usually the plan
	// name.
	Name string

	// Points are the site coordinates to prefetch.
	Points []geo.Coordinate

	// Priority determines prefetch order (lower = higher priority).
	Priority int
}

// PrefetchConfig holds configuration for the weather prefetch job.
type PrefetchConfig struct {
	// Targets are the site groups to prefetch. When empty, targets are
	// loaded from the saved survey plans at run time.
	Targets []PrefetchTarget

	// Concurrency is the number of concurrent prefetch operations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each point.
	// Default: 30 seconds
	Timeout time.Duration

	// PrefetchWeather enables current weather and forecast warming.
	// Default: true
	PrefetchWeather bool

	// PrefetchSunTimes enables sunrise/sunset warming for the current
	// day.
	// Default: true
	PrefetchSunTimes bool
}

// DefaultPrefetchConfig returns the default prefetch configuration.
func DefaultPrefetchConfig() PrefetchConfig {
	return PrefetchConfig{
		Concurrency:      3,
		Timeout:          30 * time.Second,
		PrefetchWeather:  true,
		PrefetchSunTimes: true,
	}
}

// TargetsFromPlans builds prefetch targets from saved survey plans,
// one target per plan.
func TargetsFromPlans(plans []*prefs.SurveyPlan) []PrefetchTarget {
	targets := make([]PrefetchTarget, 0, len(plans))
	for i, plan := range plans {
		target := PrefetchTarget{
			Name:     plan.Name,
			Priority: i + 1,
			Points:   make([]geo.Coordinate, 0, len(plan.Sites)),
		}
		for _, site := range plan.Sites {
			target.Points = append(target.Points, geo.Coordinate{Lon: site.Lon, Lat: site.Lat})
		}
		if len(target.Points) > 0 {
			targets = append(targets, target)
		}
	}
	return targets
}

// AllPoints returns all points from all targets, ordered by priority.
func (c PrefetchConfig) AllPoints() []geo.Coordinate {
	var points []geo.Coordinate
	for _, target := range c.Targets {
		points = append(points, target.Points...)
	}
	return points
}

// TotalPoints returns the total number of points to prefetch.
func (c PrefetchConfig) TotalPoints() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.Points)
	}
	return total
}
