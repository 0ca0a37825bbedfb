// Package geo provides coordinate normalization and great-circle math
// for route planning.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// earthRadiusMeters is the mean Earth radius used by the Haversine formula.
const earthRadiusMeters = 6371000

// ErrUnresolvable indicates a location shape that cannot be reduced to a
// longitude/latitude pair.
var ErrUnresolvable = errors.New("unresolvable coordinates")

// Coordinate is a canonical geographic point. Longitude first matches the
// GeoJSON convention used by the directions provider.
type Coordinate struct {
	Lon float64
	Lat float64
}

// Valid reports whether the coordinate is within geographic range.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Normalize reduces a heterogeneous location representation to a canonical
// Coordinate. Accepted shapes, in priority order:
//
//   - a 2-element numeric slice or array, interpreted as [lon, lat]
//   - a "lon,lat" string
//   - a map carrying "lat"/"lng" keys
//   - a map carrying "latitude"/"longitude" keys
//
// Any other shape, or a shape whose numeric parse yields NaN in either
// component, fails with an error naming the offending location. There is
// no silent defaulting to [0,0].
func Normalize(raw any, label string) (Coordinate, error) {
	if label == "" {
		label = "Unknown"
	}

	switch v := raw.(type) {
	case Coordinate:
		return checked(v, label)
	case [2]float64:
		return checked(Coordinate{Lon: v[0], Lat: v[1]}, label)
	case []float64:
		if len(v) != 2 {
			return Coordinate{}, fmt.Errorf("location %q: expected 2 coordinate components, got %d: %w", label, len(v), ErrUnresolvable)
		}
		return checked(Coordinate{Lon: v[0], Lat: v[1]}, label)
	case []any:
		if len(v) != 2 {
			return Coordinate{}, fmt.Errorf("location %q: expected 2 coordinate components, got %d: %w", label, len(v), ErrUnresolvable)
		}
		lon, okLon := toFloat(v[0])
		lat, okLat := toFloat(v[1])
		if !okLon || !okLat {
			return Coordinate{}, fmt.Errorf("location %q: non-numeric coordinate pair: %w", label, ErrUnresolvable)
		}
		return checked(Coordinate{Lon: lon, Lat: lat}, label)
	case string:
		parts := strings.Split(v, ",")
		if len(parts) != 2 {
			return Coordinate{}, fmt.Errorf("location %q: expected \"lon,lat\" string: %w", label, ErrUnresolvable)
		}
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errLon != nil || errLat != nil {
			return Coordinate{}, fmt.Errorf("location %q: non-numeric coordinate string %q: %w", label, v, ErrUnresolvable)
		}
		return checked(Coordinate{Lon: lon, Lat: lat}, label)
	case map[string]any:
		if lat, lon, ok := lookupPair(v, "lat", "lng"); ok {
			return checked(Coordinate{Lon: lon, Lat: lat}, label)
		}
		if lat, lon, ok := lookupPair(v, "latitude", "longitude"); ok {
			return checked(Coordinate{Lon: lon, Lat: lat}, label)
		}
		return Coordinate{}, fmt.Errorf("location %q: no recognizable lat/lng keys: %w", label, ErrUnresolvable)
	default:
		return Coordinate{}, fmt.Errorf("location %q: unsupported coordinate shape %T: %w", label, raw, ErrUnresolvable)
	}
}

func checked(c Coordinate, label string) (Coordinate, error) {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) {
		return Coordinate{}, fmt.Errorf("location %q: coordinate parsed to NaN: %w", label, ErrUnresolvable)
	}
	if !c.Valid() {
		return Coordinate{}, fmt.Errorf("location %q: coordinates (%f, %f) out of range: %w", label, c.Lon, c.Lat, ErrUnresolvable)
	}
	return c, nil
}

func lookupPair(m map[string]any, latKey, lonKey string) (lat, lon float64, ok bool) {
	rawLat, hasLat := m[latKey]
	rawLon, hasLon := m[lonKey]
	if !hasLat || !hasLon {
		return 0, 0, false
	}
	lat, okLat := toFloat(rawLat)
	lon, okLon := toFloat(rawLon)
	return lat, lon, okLat && okLon
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f)
	default:
		return 0, false
	}
}

// Distance calculates the great-circle distance between two points in
// meters using the Haversine formula.
func Distance(a, b Coordinate) float64 {
	lat1Rad := a.Lat * math.Pi / 180
	lat2Rad := b.Lat * math.Pi / 180
	deltaLat := (b.Lat - a.Lat) * math.Pi / 180
	deltaLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}

// Interpolate returns count points evenly spaced along the straight line
// between a and b, excluding the endpoints themselves. A count of zero or
// less returns nil.
func Interpolate(a, b Coordinate, count int) []Coordinate {
	if count <= 0 {
		return nil
	}

	points := make([]Coordinate, 0, count)
	for i := 1; i <= count; i++ {
		frac := float64(i) / float64(count+1)
		points = append(points, Coordinate{
			Lon: a.Lon + (b.Lon-a.Lon)*frac,
			Lat: a.Lat + (b.Lat-a.Lat)*frac,
		})
	}
	return points
}
