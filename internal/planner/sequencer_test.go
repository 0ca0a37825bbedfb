package planner

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveyroute/surveyroute/internal/geo"
	"github.com/surveyroute/surveyroute/internal/weather"
)

func testLocation(id, address string, lon, lat float64) Location {
	return Location{
		ID:      id,
		Address: address,
		Coord:   geo.Coordinate{Lon: lon, Lat: lat},
	}
}

func withWeather(loc Location, windMPH float64) Location {
	loc.Weather = &weather.Report{
		Coord: loc.Coord,
		Current: weather.Observation{
			Temperature: 70,
			WindSpeed:   windMPH,
			Visibility:  10000,
			ObservedAt:  time.Now(),
		},
	}
	return loc
}

func TestSequencer_VisitsEveryLocationOnce(t *testing.T) {
	start := testLocation("start", "Depot", 4.9041, 52.3676)
	locations := []Location{
		testLocation("a", "Site A", 5.1214, 52.0907),
		testLocation("b", "Site B", 4.4777, 51.9244),
		testLocation("c", "Site C", 5.2913, 52.1326),
		testLocation("d", "Site D", 4.3007, 52.0705),
	}

	for _, strategy := range []Strategy{StrategyDistance, StrategyWeather} {
		t.Run(string(strategy), func(t *testing.T) {
			seq := NewSequencer(DefaultConfig(), zerolog.Nop())
			ordered, err := seq.Sequence(locations, start, strategy)
			require.NoError(t, err)

			require.NotEmpty(t, ordered)
			assert.Equal(t, start.ID, ordered[0].ID, "sequence must begin at the start location")

			visited := map[string]int{}
			for _, loc := range ordered {
				if !loc.IsWaypoint {
					visited[loc.ID]++
				}
			}
			assert.Equal(t, 1, visited[start.ID])
			for _, loc := range locations {
				assert.Equal(t, 1, visited[loc.ID], "location %s must be visited exactly once", loc.ID)
			}
		})
	}
}

func TestSequencer_DistanceStrategyPicksNearest(t *testing.T) {
	start := testLocation("a", "A", 0, 0)
	near := testLocation("b", "B", 0.01, 0)
	far := testLocation("c", "C", 1.0, 0)

	seq := NewSequencer(DefaultConfig(), zerolog.Nop())
	ordered, err := seq.Sequence([]Location{far, near}, start, StrategyDistance)
	require.NoError(t, err)

	require.Len(t, ordered, 3)
	assert.Equal(t, "b", ordered[1].ID)
	assert.Equal(t, "c", ordered[2].ID)
}

func TestSequencer_LegLengthBound(t *testing.T) {
	// C is over 2,800 km from B, forcing waypoint insertion on that leg
	start := testLocation("a", "A", 0, 0)
	locations := []Location{
		testLocation("b", "B", 0.01, 0),
		testLocation("c", "C", 30, 0),
	}

	cfg := DefaultConfig()
	seq := NewSequencer(cfg, zerolog.Nop())
	ordered, err := seq.Sequence(locations, start, StrategyDistance)
	require.NoError(t, err)

	// A -> B -> waypoint(s) -> C
	assert.Equal(t, "a", ordered[0].ID)
	assert.Equal(t, "b", ordered[1].ID)
	assert.Equal(t, "c", ordered[len(ordered)-1].ID)
	assert.Greater(t, len(ordered), 3, "expected at least one interpolated waypoint")

	sawWaypoint := false
	for i := 1; i < len(ordered); i++ {
		d := geo.Distance(ordered[i-1].Coord, ordered[i].Coord)
		assert.LessOrEqual(t, d, cfg.MaxSegmentDistance,
			"leg %d exceeds the single-leg ceiling", i)
		if ordered[i].IsWaypoint {
			sawWaypoint = true
		}
	}
	assert.True(t, sawWaypoint)
}

func TestSequencer_WeatherStrategyPrefersSafeSites(t *testing.T) {
	start := withWeather(testLocation("start", "Depot", 0, 0), 5)

	// Equidistant sites: one calm, one stormy
	calm := withWeather(testLocation("calm", "Calm Site", 0.1, 0), 5)
	stormy := withWeather(testLocation("stormy", "Stormy Site", -0.1, 0), 45)

	seq := NewSequencer(DefaultConfig(), zerolog.Nop())
	ordered, err := seq.Sequence([]Location{stormy, calm}, start, StrategyWeather)
	require.NoError(t, err)

	require.Len(t, ordered, 3)
	assert.Equal(t, "calm", ordered[1].ID, "the safer site should be visited first")
}

func TestSequencer_MissingWeatherDegradesNotFails(t *testing.T) {
	start := withWeather(testLocation("start", "Depot", 0, 0), 5)
	noData := testLocation("nodata", "No Data Site", 0.1, 0)

	seq := NewSequencer(DefaultConfig(), zerolog.Nop())
	ordered, err := seq.Sequence([]Location{noData}, start, StrategyWeather)
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	assert.Equal(t, "nodata", ordered[1].ID)
}

func TestSequencer_DeduplicatesAddresses(t *testing.T) {
	start := testLocation("start", "Depot", 0, 0)
	locations := []Location{
		testLocation("a", "12 Main St", 0.1, 0),
		testLocation("b", "12 Main St", 0.1, 0),
		testLocation("c", "34 Oak Ave", 0.2, 0),
	}

	seq := NewSequencer(DefaultConfig(), zerolog.Nop())
	ordered, err := seq.Sequence(locations, start, StrategyDistance)
	require.NoError(t, err)

	assert.Len(t, ordered, 3, "duplicate address should be dropped")
}

func TestSequencer_KeepsLocationsWithoutIDs(t *testing.T) {
	start := testLocation("", "Depot", 0, 0)
	locations := []Location{
		testLocation("", "12 Main St", 0.1, 0),
		testLocation("", "34 Oak Ave", 0.2, 0),
	}

	seq := NewSequencer(DefaultConfig(), zerolog.Nop())
	ordered, err := seq.Sequence(locations, start, StrategyDistance)
	require.NoError(t, err)

	require.Len(t, ordered, 3, "locations without ids are distinct candidates")
	assert.Equal(t, "Depot", ordered[0].Address)
}

func TestSequencer_InsufficientLocations(t *testing.T) {
	start := testLocation("start", "Depot", 0, 0)

	seq := NewSequencer(DefaultConfig(), zerolog.Nop())
	_, err := seq.Sequence(nil, start, StrategyDistance)
	assert.ErrorIs(t, err, ErrInsufficientLocations)
}

func TestSequencer_TooManyLocations(t *testing.T) {
	start := testLocation("start", "Depot", 0, 0)
	locations := make([]Location, 0, 60)
	for i := 0; i < 60; i++ {
		locations = append(locations, testLocation(
			string(rune('a'+i%26))+string(rune('a'+i/26)),
			"",
			float64(i)*0.01, 0,
		))
	}

	seq := NewSequencer(DefaultConfig(), zerolog.Nop())
	_, err := seq.Sequence(locations, start, StrategyDistance)
	assert.ErrorIs(t, err, ErrTooManyLocations)
}

func TestSequencer_UnknownStrategy(t *testing.T) {
	start := testLocation("start", "Depot", 0, 0)
	locations := []Location{testLocation("a", "Site A", 0.1, 0)}

	seq := NewSequencer(DefaultConfig(), zerolog.Nop())
	_, err := seq.Sequence(locations, start, Strategy("fastest"))
	assert.ErrorIs(t, err, ErrUnknownStrategy)
}

func TestSequencer_InvalidCoordinateAborts(t *testing.T) {
	start := testLocation("start", "Depot", 0, 0)
	locations := []Location{
		testLocation("a", "Site A", 0.1, 0),
		testLocation("bad", "Bad Site", 200, 95),
	}

	seq := NewSequencer(DefaultConfig(), zerolog.Nop())
	_, err := seq.Sequence(locations, start, StrategyDistance)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad Site")
}
