package planner

import (
	"math"

	"github.com/surveyroute/surveyroute/internal/weather"
)

// alignStop selects the forecast entry closest to the stop's arrival
// time and derives the stop's safety score. Stops without a forecast
// keep their current observation for scoring; stops without any
// weather data carry no aligned forecast and score zero.
func alignStop(stop *Stop, thresholds weather.Thresholds) {
	stop.AlignedForecast = nil

	if stop.Weather == nil {
		stop.SafetyScore = 0
		return
	}

	if len(stop.Weather.Forecast) == 0 {
		obs := stop.Weather.Current
		stop.SafetyScore = weather.Score(&obs, thresholds)
		return
	}

	best := 0
	bestDelta := math.MaxFloat64
	for i, entry := range stop.Weather.Forecast {
		delta := math.Abs(entry.Time.Sub(stop.ArrivalTime).Seconds())
		if delta < bestDelta {
			best = i
			bestDelta = delta
		}
	}

	entry := stop.Weather.Forecast[best]
	stop.AlignedForecast = &entry
	obs := entry.Observation()
	stop.SafetyScore = weather.Score(&obs, thresholds)
}

// alignItinerary recomputes the aligned forecast and safety score for
// every stop, and the itinerary's aggregate safety percentage over all
// real stops. Waypoints are excluded from the aggregate.
func alignItinerary(it *Itinerary, thresholds weather.Thresholds) {
	scoreSum := 0
	scored := 0

	for si := range it.Segments {
		for i := range it.Segments[si].Stops {
			stop := &it.Segments[si].Stops[i]
			alignStop(stop, thresholds)
			if !stop.IsWaypoint {
				scoreSum += stop.SafetyScore
				scored++
			}
		}
	}

	if scored > 0 {
		it.SafetyPercentage = int(math.Round(float64(scoreSum) / float64(scored)))
	} else {
		it.SafetyPercentage = 0
	}
}
