package weather_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/surveyroute/surveyroute/internal/weather"
)

func calmObservation() weather.Observation {
	return weather.Observation{
		Temperature:   70,
		WindSpeed:     0,
		Precipitation: 0,
		Visibility:    10000,
		Condition:     weather.ConditionClear,
	}
}

func TestScore_PerfectConditions(t *testing.T) {
	obs := calmObservation()
	assert.Equal(t, 100, weather.Score(&obs, weather.DefaultThresholds()))
}

func TestScore_NilObservation(t *testing.T) {
	assert.Equal(t, 0, weather.Score(nil, weather.DefaultThresholds()))
}

func TestScore_DegradesWithWindSeverity(t *testing.T) {
	thresholds := weather.DefaultThresholds()

	mild := calmObservation()
	mild.WindSpeed = 10
	over := calmObservation()
	over.WindSpeed = 25
	severe := calmObservation()
	severe.WindSpeed = 40

	mildScore := weather.Score(&mild, thresholds)
	overScore := weather.Score(&over, thresholds)
	severeScore := weather.Score(&severe, thresholds)

	assert.Greater(t, mildScore, overScore)
	assert.Greater(t, overScore, severeScore)
	assert.Equal(t, 100, mildScore)
}

func TestScore_IndependentDeductions(t *testing.T) {
	thresholds := weather.DefaultThresholds()

	windy := calmObservation()
	windy.WindSpeed = 25

	windyAndWet := windy
	windyAndWet.Precipitation = 0.2

	assert.Less(t, weather.Score(&windyAndWet, thresholds), weather.Score(&windy, thresholds))
}

func TestScore_ZeroVisibility(t *testing.T) {
	obs := calmObservation()
	obs.Visibility = 0
	assert.Equal(t, 0, weather.Score(&obs, weather.DefaultThresholds()))
}

func TestScore_TemperatureOutOfRange(t *testing.T) {
	thresholds := weather.DefaultThresholds()

	cold := calmObservation()
	cold.Temperature = 20
	colder := calmObservation()
	colder.Temperature = -10
	hot := calmObservation()
	hot.Temperature = 100

	assert.Less(t, weather.Score(&cold, thresholds), 100)
	assert.Less(t, weather.Score(&colder, thresholds), weather.Score(&cold, thresholds))
	assert.Less(t, weather.Score(&hot, thresholds), 100)
}

func TestScore_ClampedToZero(t *testing.T) {
	obs := weather.Observation{
		Temperature:   -40,
		WindSpeed:     80,
		Precipitation: 2,
		Visibility:    100,
	}
	assert.Equal(t, 0, weather.Score(&obs, weather.DefaultThresholds()))
}

func TestIsSafe(t *testing.T) {
	thresholds := weather.DefaultThresholds()

	obs := calmObservation()
	assert.True(t, weather.IsSafe(&obs, thresholds))

	// Slightly degraded conditions score above zero but are still unsafe:
	// the predicate is stricter than the score.
	windy := calmObservation()
	windy.WindSpeed = 22
	assert.False(t, weather.IsSafe(&windy, thresholds))
	assert.Greater(t, weather.Score(&windy, thresholds), 0)

	assert.False(t, weather.IsSafe(nil, thresholds))
}

func TestIsSafe_BoundaryValues(t *testing.T) {
	thresholds := weather.DefaultThresholds()

	boundary := weather.Observation{
		Temperature:   95,
		WindSpeed:     20,
		Precipitation: 0.1,
		Visibility:    5000,
	}
	assert.True(t, weather.IsSafe(&boundary, thresholds))
}

func TestForecastEntryObservation(t *testing.T) {
	entry := weather.ForecastEntry{
		Temperature:   70,
		WindSpeed:     5,
		Precipitation: 0,
		Visibility:    10000,
		Condition:     weather.ConditionClear,
	}
	obs := entry.Observation()
	assert.Equal(t, 100, weather.Score(&obs, weather.DefaultThresholds()))
}
