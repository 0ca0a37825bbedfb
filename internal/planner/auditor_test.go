package planner

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wellFormedItinerary(t *testing.T) *Itinerary {
	t.Helper()

	ordered := []Location{
		withWeather(testLocation("a", "A", 0, 0), 5),
		withWeather(testLocation("b", "B", 0.1, 0), 5),
		withWeather(testLocation("c", "C", 0.2, 0), 5),
	}
	legs := uniformLegs(2, 20000, 1200)

	seg := NewSegmenter(DefaultConfig(), nil, zerolog.Nop())
	it, err := seg.Split(ordered, legs, morning(1))
	require.NoError(t, err)
	alignItinerary(it, DefaultConfig().Thresholds)
	return it
}

func TestAuditor_CleanItinerary(t *testing.T) {
	it := wellFormedItinerary(t)

	report := NewAuditor(DefaultConfig()).Audit(it)

	assert.True(t, report.OK())
	assert.Empty(t, report.Issues)
	assert.Len(t, report.Stops, 3)
	for _, sr := range report.Stops {
		assert.True(t, sr.HasWeather)
		assert.NotEqual(t, "unscheduled", sr.ArrivalTime)
	}
}

func TestAuditor_FlagsMissingWeather(t *testing.T) {
	it := wellFormedItinerary(t)
	it.Segments[0].Stops[1].Weather = nil

	report := NewAuditor(DefaultConfig()).Audit(it)

	assert.False(t, report.OK())
	require.Len(t, report.Issues, 1)
	assert.Contains(t, report.Issues[0], "no weather data")
	assert.Contains(t, report.Issues[0], "B")
}

func TestAuditor_IgnoresWaypointWeather(t *testing.T) {
	it := wellFormedItinerary(t)
	it.Segments[0].Stops[1].Weather = nil
	it.Segments[0].Stops[1].IsWaypoint = true

	report := NewAuditor(DefaultConfig()).Audit(it)

	assert.True(t, report.OK(), "waypoints never carry weather and must not be flagged")
}

func TestAuditor_FlagsMissingArrivalTime(t *testing.T) {
	it := wellFormedItinerary(t)
	it.Segments[0].Stops[2].ArrivalTime = time.Time{}

	report := NewAuditor(DefaultConfig()).Audit(it)

	assert.False(t, report.OK())
	found := false
	for _, issue := range report.Issues {
		if len(issue) > 4 && issue[:4] == "stop" {
			found = true
		}
	}
	assert.True(t, found, "expected a missing arrival time issue, got %v", report.Issues)
}

func TestAuditor_FlagsNonMonotonicArrivals(t *testing.T) {
	it := wellFormedItinerary(t)
	it.Segments[0].Stops[2].ArrivalTime = it.Segments[0].Stops[0].ArrivalTime

	report := NewAuditor(DefaultConfig()).Audit(it)

	assert.False(t, report.OK())
	found := false
	for _, issue := range report.Issues {
		if len(issue) > 0 && issue[:7] == "arrival" {
			found = true
		}
	}
	assert.True(t, found, "expected a non-monotonic arrival issue, got %v", report.Issues)
}

func TestAuditor_FlagsLateStartViolation(t *testing.T) {
	it := wellFormedItinerary(t)

	// Force every arrival onto the same evening, violating the
	// late-start rollover rule
	evening := time.Date(2026, time.June, 1, 18, 0, 0, 0, time.UTC)
	for i := range it.Segments[0].Stops {
		it.Segments[0].Stops[i].ArrivalTime = evening.Add(time.Duration(i) * time.Hour)
	}

	report := NewAuditor(DefaultConfig()).Audit(it)

	assert.False(t, report.OK())
	found := false
	for _, issue := range report.Issues {
		if len(issue) > 5 && issue[:5] == "start" {
			found = true
		}
	}
	assert.True(t, found, "expected a late-start issue, got %v", report.Issues)
}

func TestAuditor_DoesNotMutate(t *testing.T) {
	it := wellFormedItinerary(t)
	before := it.Stops()

	NewAuditor(DefaultConfig()).Audit(it)

	after := it.Stops()
	require.Equal(t, len(before), len(after))
	for i := range before {
		assert.Equal(t, before[i].ArrivalTime, after[i].ArrivalTime)
		assert.Equal(t, before[i].SafetyScore, after[i].SafetyScore)
	}
}
