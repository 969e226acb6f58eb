// Package openweathermap implements airquality.Provider on top of the
// OpenWeatherMap Air Pollution API.
package openweathermap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/airwise/airwise/internal/airquality"
	"github.com/airwise/airwise/internal/provider/resilience"
)

const (
	// ProviderName identifies this air quality provider.
	ProviderName = "openweathermap"

	// DefaultBaseURL is the OpenWeatherMap API base URL.
	DefaultBaseURL = "https://api.openweathermap.org/data/2.5"
)

// ErrUnauthorized is returned when the API key is rejected.
var ErrUnauthorized = errors.New("openweathermap rejected api key")

// ClientConfig holds configuration for the OpenWeatherMap client.
type ClientConfig struct {
	// APIKey is the OpenWeatherMap API key (required).
	APIKey string

	// BaseURL is the API base URL (optional, defaults to OpenWeatherMap API).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient *resilience.Client

	// Clock stamps FetchedAt (optional).
	Clock clockwork.Clock

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenWeatherMap Air Pollution API client.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *resilience.Client
	clock      clockwork.Clock
	logger     zerolog.Logger
}

// NewClient creates a new OpenWeatherMap client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		clock:      clock,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GetCurrent fetches the current air pollution sample for a location.
func (c *Client) GetCurrent(ctx context.Context, lat, lon float64) (*airquality.Observation, error) {
	resp, err := c.fetch(ctx, "/air_pollution", lat, lon)
	if err != nil {
		return nil, err
	}
	if len(resp.List) == 0 {
		return nil, airquality.ErrNoMeasurements
	}

	return c.toObservation(resp, resp.List[0]), nil
}

// GetForecast fetches the hourly air pollution forecast for a location.
func (c *Client) GetForecast(ctx context.Context, lat, lon float64) ([]*airquality.Observation, error) {
	resp, err := c.fetch(ctx, "/air_pollution/forecast", lat, lon)
	if err != nil {
		return nil, err
	}
	if len(resp.List) == 0 {
		return nil, airquality.ErrNoMeasurements
	}

	observations := make([]*airquality.Observation, 0, len(resp.List))
	for _, item := range resp.List {
		observations = append(observations, c.toObservation(resp, item))
	}
	return observations, nil
}

func (c *Client) fetch(ctx context.Context, path string, lat, lon float64) (*airPollutionResponse, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', 6, 64))
	query.Set("appid", c.apiKey)
	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var owmResp airPollutionResponse
	if err := json.NewDecoder(resp.Body).Decode(&owmResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	c.logger.Debug().
		Str("path", path).
		Int("samples", len(owmResp.List)).
		Msg("fetched air pollution data")

	return &owmResp, nil
}

// toObservation converts an OpenWeatherMap sample to the domain model.
// Components missing from the payload become NaN so validation flags them.
func (c *Client) toObservation(resp *airPollutionResponse, item airPollutionItem) *airquality.Observation {
	comp := item.Components
	return &airquality.Observation{
		Lat:           resp.Coord.Lat,
		Lon:           resp.Coord.Lon,
		ProviderIndex: item.Main.AQI,
		Reading: airquality.Reading{
			CO:   valueOrNaN(comp.CO),
			NO:   valueOrNaN(comp.NO),
			NO2:  valueOrNaN(comp.NO2),
			O3:   valueOrNaN(comp.O3),
			SO2:  valueOrNaN(comp.SO2),
			PM25: valueOrNaN(comp.PM25),
			PM10: valueOrNaN(comp.PM10),
			NH3:  valueOrNaN(comp.NH3),
		},
		ObservedAt: time.Unix(item.Dt, 0).UTC(),
		FetchedAt:  c.clock.Now(),
		Provider:   ProviderName,
	}
}

func valueOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

// OpenWeatherMap API response structures.

type airPollutionResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	List []airPollutionItem `json:"list"`
}

type airPollutionItem struct {
	Main struct {
		AQI int `json:"aqi"`
	} `json:"main"`
	Components struct {
		CO   *float64 `json:"co"`
		NO   *float64 `json:"no"`
		NO2  *float64 `json:"no2"`
		O3   *float64 `json:"o3"`
		SO2  *float64 `json:"so2"`
		PM25 *float64 `json:"pm2_5"`
		PM10 *float64 `json:"pm10"`
		NH3  *float64 `json:"nh3"`
	} `json:"components"`
	Dt int64 `json:"dt"`
}
