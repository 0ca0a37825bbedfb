// Package openweathermap provides a weather provider backed by the
// OpenWeatherMap API.
package openweathermap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/surveyroute/surveyroute/internal/geo"
	"github.com/surveyroute/surveyroute/internal/provider/resilience"
	"github.com/surveyroute/surveyroute/internal/weather"
)

const (
	// ProviderName identifies this weather provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

	// DefaultOneCallURL is the OpenWeatherMap OneCall API 3.0 base URL.
	DefaultOneCallURL = "https://api.openweathermap.org/data/3.0/onecall"

	// mmPerHourToInches converts OWM precipitation rates (mm/h) to the
	// planner's canonical in/h.
	mmPerHourToInches = 1.0 / 25.4
)

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional).
	BaseURL string

	// OneCallURL is the OneCall API URL (optional).
	OneCallURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeatherMap API client. Responses are requested in
// imperial units (°F, mph) and precipitation is converted from mm/h, so
// everything leaving this package is already in canonical units.
type Client struct {
	apiKey     string
	baseURL    string
	oneCallURL string
	httpClient *resilience.Client
	registry   *resilience.Registry
	logger     zerolog.Logger
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	oneCallURL := cfg.OneCallURL
	if oneCallURL == "" {
		oneCallURL = DefaultOneCallURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	if cfg.Registry != nil {
		cfg.Registry.Register(ProviderName, httpClient)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		oneCallURL: oneCallURL,
		httpClient: httpClient,
		registry:   cfg.Registry,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetWeather fetches the current observation plus hourly forecast for a
// location.
func (c *Client) GetWeather(ctx context.Context, coord geo.Coordinate) (*weather.Report, error) {
	current, err := c.getCurrent(ctx, coord)
	if err != nil {
		c.recordFailure(err)
		return nil, err
	}

	forecast, err := c.getForecast(ctx, coord)
	if err != nil {
		c.recordFailure(err)
		return nil, err
	}

	c.recordSuccess()

	return &weather.Report{
		Coord:     coord,
		Current:   *current,
		Forecast:  forecast,
		Provider:  ProviderName,
		FetchedAt: time.Now(),
	}, nil
}

// GetSunriseSunset fetches sunrise and sunset times for a location. OWM
// reports them on the current-weather endpoint; the date parameter is
// used to reject lookups for days the endpoint cannot answer.
func (c *Client) GetSunriseSunset(ctx context.Context, coord geo.Coordinate, date time.Time) (*weather.SunTimes, error) {
	url := fmt.Sprintf("%s/weather?lat=%.6f&lon=%.6f&appid=%s&units=imperial",
		c.baseURL, coord.Lat, coord.Lon, c.apiKey)

	var resp currentWeatherResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		c.recordFailure(err)
		return nil, err
	}

	sunrise := time.Unix(resp.Sys.Sunrise, 0)
	if dayDelta := date.Sub(sunrise); dayDelta > 48*time.Hour || dayDelta < -48*time.Hour {
		return nil, fmt.Errorf("sunrise data unavailable for %s: %w", date.Format("2006-01-02"), weather.ErrNoDataForLocation)
	}

	c.recordSuccess()

	return &weather.SunTimes{
		Sunrise: sunrise,
		Sunset:  time.Unix(resp.Sys.Sunset, 0),
	}, nil
}

// getCurrent fetches the current observation.
func (c *Client) getCurrent(ctx context.Context, coord geo.Coordinate) (*weather.Observation, error) {
	url := fmt.Sprintf("%s/weather?lat=%.6f&lon=%.6f&appid=%s&units=imperial",
		c.baseURL, coord.Lat, coord.Lon, c.apiKey)

	var resp currentWeatherResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	return c.toObservation(&resp), nil
}

// getForecast fetches the hourly forecast.
func (c *Client) getForecast(ctx context.Context, coord geo.Coordinate) ([]weather.ForecastEntry, error) {
	url := fmt.Sprintf("%s?lat=%.6f&lon=%.6f&appid=%s&units=imperial&exclude=minutely,daily,alerts",
		c.oneCallURL, coord.Lat, coord.Lon, c.apiKey)

	var resp oneCallResponse
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	entries := make([]weather.ForecastEntry, 0, len(resp.Hourly))
	for _, h := range resp.Hourly {
		entry := weather.ForecastEntry{
			Time:          time.Unix(h.Dt, 0),
			Temperature:   h.Temp,
			WindSpeed:     h.WindSpeed,
			Precipitation: h.Rain.OneHour * mmPerHourToInches,
			Visibility:    float64(h.Visibility),
		}
		if len(h.Weather) > 0 {
			entry.Condition = mapCondition(h.Weather[0].Main)
		} else {
			entry.Condition = weather.ConditionUnknown
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// getJSON executes a GET request and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code %d: %w", resp.StatusCode, weather.ErrProviderUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

// toObservation converts an OpenWeatherMap response to the domain model.
func (c *Client) toObservation(resp *currentWeatherResponse) *weather.Observation {
	obs := &weather.Observation{
		Temperature:   resp.Main.Temp,
		WindSpeed:     resp.Wind.Speed,
		Precipitation: resp.Rain.OneHour * mmPerHourToInches,
		Visibility:    float64(resp.Visibility),
		Humidity:      resp.Main.Humidity,
		ObservedAt:    time.Unix(resp.Dt, 0),
		FetchedAt:     time.Now(),
	}

	if len(resp.Weather) > 0 {
		obs.Condition = mapCondition(resp.Weather[0].Main)
	} else {
		obs.Condition = weather.ConditionUnknown
	}

	return obs
}

func (c *Client) recordSuccess() {
	if c.registry != nil {
		c.registry.RecordSuccess(ProviderName)
	}
}

func (c *Client) recordFailure(err error) {
	if c.registry != nil {
		c.registry.RecordFailure(ProviderName, err)
	}
}

// mapCondition maps an OpenWeatherMap condition to the domain condition.
func mapCondition(owmCondition string) weather.Condition {
	switch owmCondition {
	case "Clear":
		return weather.ConditionClear
	case "Clouds":
		return weather.ConditionClouds
	case "Rain":
		return weather.ConditionRain
	case "Drizzle":
		return weather.ConditionDrizzle
	case "Thunderstorm":
		return weather.ConditionThunderstorm
	case "Snow":
		return weather.ConditionSnow
	case "Mist":
		return weather.ConditionMist
	case "Fog":
		return weather.ConditionFog
	case "Haze", "Dust", "Sand", "Ash", "Squall", "Tornado":
		return weather.ConditionHaze
	default:
		return weather.ConditionUnknown
	}
}
