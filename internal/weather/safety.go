package weather

import "math"

// NeutralScore is the documented fallback score substituted by the route
// sequencer for a location whose weather fetch failed, so a single failed
// fetch does not poison the whole route. It must not be used anywhere
// else; missing observations score 0.
const NeutralScore = 50

// Thresholds define the safe operating envelope for a survey flight.
type Thresholds struct {
	// MaxWindMPH is the maximum safe wind speed in mph.
	MaxWindMPH float64

	// MaxPrecipInHr is the maximum safe precipitation rate in in/h.
	MaxPrecipInHr float64

	// MinVisibilityMeters is the minimum safe visibility in meters.
	MinVisibilityMeters float64

	// MinTempF and MaxTempF bound the safe temperature range in °F.
	MinTempF float64
	MaxTempF float64
}

// DefaultThresholds returns the default safe operating envelope.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxWindMPH:          20,
		MaxPrecipInHr:       0.1,
		MinVisibilityMeters: 5000,
		MinTempF:            32,
		MaxTempF:            95,
	}
}

// Score maps an observation to a 0-100 safety score. Starting from 100,
// each violated axis (wind, precipitation, visibility, temperature)
// deducts independently, scaled by how far the observed value is past its
// threshold, so more extreme excess yields a worse score. A nil
// observation scores 0: unknown weather is never assumed safe.
func Score(obs *Observation, t Thresholds) int {
	if obs == nil {
		return 0
	}

	score := 100.0

	if obs.WindSpeed > t.MaxWindMPH {
		score -= 25 * (obs.WindSpeed / t.MaxWindMPH)
	}

	if obs.Precipitation > t.MaxPrecipInHr {
		score -= 25 * (obs.Precipitation / t.MaxPrecipInHr)
	}

	if obs.Visibility < t.MinVisibilityMeters {
		if obs.Visibility <= 0 {
			score -= 100
		} else {
			score -= 25 * (t.MinVisibilityMeters / obs.Visibility)
		}
	}

	span := t.MaxTempF - t.MinTempF
	if span <= 0 {
		span = 1
	}
	if obs.Temperature < t.MinTempF {
		score -= 25 * (1 + (t.MinTempF-obs.Temperature)/span)
	} else if obs.Temperature > t.MaxTempF {
		score -= 25 * (1 + (obs.Temperature-t.MaxTempF)/span)
	}

	return int(math.Round(math.Max(0, math.Min(100, score))))
}

// IsSafe reports whether all four axes are within threshold. This is
// stricter than Score, which degrades gracefully rather than
// binary-failing. A nil observation is unsafe.
func IsSafe(obs *Observation, t Thresholds) bool {
	if obs == nil {
		return false
	}
	return obs.WindSpeed <= t.MaxWindMPH &&
		obs.Precipitation <= t.MaxPrecipInHr &&
		obs.Visibility >= t.MinVisibilityMeters &&
		obs.Temperature >= t.MinTempF &&
		obs.Temperature <= t.MaxTempF
}
