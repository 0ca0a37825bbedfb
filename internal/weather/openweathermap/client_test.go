package openweathermap_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surveyroute/surveyroute/internal/geo"
	"github.com/surveyroute/surveyroute/internal/provider/resilience"
	"github.com/surveyroute/surveyroute/internal/weather"
	"github.com/surveyroute/surveyroute/internal/weather/openweathermap"
)

func currentWeatherBody(now time.Time) map[string]any {
	return map[string]any{
		"coord": map[string]float64{"lat": 52.370, "lon": 4.895},
		"weather": []map[string]any{
			{"id": 800, "main": "Clear", "description": "clear sky"},
		},
		"main":       map[string]float64{"temp": 68.2, "pressure": 1015.0, "humidity": 72.0},
		"visibility": 10000,
		"wind":       map[string]float64{"speed": 8.5, "deg": 220.0},
		"rain":       map[string]float64{"1h": 2.54},
		"sys": map[string]int64{
			"sunrise": now.Add(-4 * time.Hour).Unix(),
			"sunset":  now.Add(8 * time.Hour).Unix(),
		},
		"dt":   now.Unix(),
		"name": "Amsterdam",
	}
}

func oneCallBody(now time.Time) map[string]any {
	return map[string]any{
		"lat": 52.370,
		"lon": 4.895,
		"hourly": []map[string]any{
			{
				"dt":         now.Add(time.Hour).Unix(),
				"temp":       70.1,
				"humidity":   68.0,
				"visibility": 9000,
				"wind_speed": 6.0,
				"weather":    []map[string]any{{"id": 500, "main": "Rain", "description": "light rain"}},
				"rain":       map[string]float64{"1h": 0.254},
			},
		},
	}
}

func newTestServer(t *testing.T, now time.Time) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "imperial", r.URL.Query().Get("units"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/weather":
			_ = json.NewEncoder(w).Encode(currentWeatherBody(now))
		case "/onecall":
			_ = json.NewEncoder(w).Encode(oneCallBody(now))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestClient(server *httptest.Server) *openweathermap.Client {
	return openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		OneCallURL: server.URL + "/onecall",
		HTTPClient: resilience.NewClient(resilience.DefaultClientConfig("test")),
	})
}

func TestClient_GetWeather(t *testing.T) {
	now := time.Now()
	server := newTestServer(t, now)
	defer server.Close()

	client := newTestClient(server)

	report, err := client.GetWeather(context.Background(), geo.Coordinate{Lon: 4.895, Lat: 52.370})
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.InDelta(t, 68.2, report.Current.Temperature, 0.01)
	assert.InDelta(t, 8.5, report.Current.WindSpeed, 0.01)
	// 2.54 mm/h converts to 0.1 in/h.
	assert.InDelta(t, 0.1, report.Current.Precipitation, 0.001)
	assert.InDelta(t, 10000.0, report.Current.Visibility, 0.01)
	assert.Equal(t, weather.ConditionClear, report.Current.Condition)
	assert.Equal(t, openweathermap.ProviderName, report.Provider)

	require.Len(t, report.Forecast, 1)
	assert.InDelta(t, 70.1, report.Forecast[0].Temperature, 0.01)
	assert.InDelta(t, 0.01, report.Forecast[0].Precipitation, 0.001)
	assert.Equal(t, weather.ConditionRain, report.Forecast[0].Condition)
}

func TestClient_GetSunriseSunset(t *testing.T) {
	now := time.Now()
	server := newTestServer(t, now)
	defer server.Close()

	client := newTestClient(server)

	sun, err := client.GetSunriseSunset(context.Background(), geo.Coordinate{Lon: 4.895, Lat: 52.370}, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-4*time.Hour).Unix(), sun.Sunrise.Unix())
	assert.Equal(t, now.Add(8*time.Hour).Unix(), sun.Sunset.Unix())
}

func TestClient_GetSunriseSunset_FarDate(t *testing.T) {
	now := time.Now()
	server := newTestServer(t, now)
	defer server.Close()

	client := newTestClient(server)

	_, err := client.GetSunriseSunset(context.Background(), geo.Coordinate{Lon: 4.895, Lat: 52.370}, now.AddDate(0, 1, 0))
	assert.ErrorIs(t, err, weather.ErrNoDataForLocation)
}

func TestClient_GetWeather_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(server)

	_, err := client.GetWeather(context.Background(), geo.Coordinate{Lon: 4.895, Lat: 52.370})
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrProviderUnavailable)
}
