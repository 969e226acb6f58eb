package openweathermap_test

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwise/airwise/internal/airquality"
	"github.com/airwise/airwise/internal/airquality/openweathermap"
	"github.com/airwise/airwise/internal/provider/resilience"
)

func sample(aqi int, dt int64) map[string]interface{} {
	return map[string]interface{}{
		"main": map[string]int{"aqi": aqi},
		"components": map[string]float64{
			"co":    201.94,
			"no":    0.02,
			"no2":   0.77,
			"o3":    68.66,
			"so2":   0.64,
			"pm2_5": 0.5,
			"pm10":  0.54,
			"nh3":   0.12,
		},
		"dt": dt,
	}
}

func fastClient() *resilience.Client {
	cfg := resilience.DefaultClientConfig("test")
	cfg.MaxRetries = 1
	cfg.InitialInterval = 5 * time.Millisecond
	cfg.MaxInterval = 10 * time.Millisecond
	return resilience.NewClient(cfg)
}

func TestClient_GetCurrent(t *testing.T) {
	observed := time.Date(2026, 5, 12, 14, 0, 0, 0, time.UTC)
	fetched := time.Date(2026, 5, 12, 14, 7, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/air_pollution", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("lat"), "29.760")
		assert.Contains(t, r.URL.Query().Get("lon"), "-95.370")
		assert.Equal(t, "****", r.URL.Query().Get("appid"))

		response := map[string]interface{}{
			"coord": map[string]float64{"lat": 29.76, "lon": -95.37},
			"list":  []map[string]interface{}{sample(2, observed.Unix())},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: fastClient(),
		Clock:      clockwork.NewFakeClockAt(fetched),
	})

	obs, err := client.GetCurrent(context.Background(), 29.76, -95.37)
	require.NoError(t, err)
	require.NotNil(t, obs)

	assert.Equal(t, 29.76, obs.Lat)
	assert.Equal(t, -95.37, obs.Lon)
	assert.Equal(t, 2, obs.ProviderIndex)
	assert.Equal(t, 201.94, obs.Reading.CO)
	assert.Equal(t, 0.02, obs.Reading.NO)
	assert.Equal(t, 0.77, obs.Reading.NO2)
	assert.Equal(t, 68.66, obs.Reading.O3)
	assert.Equal(t, 0.64, obs.Reading.SO2)
	assert.Equal(t, 0.5, obs.Reading.PM25)
	assert.Equal(t, 0.54, obs.Reading.PM10)
	assert.Equal(t, 0.12, obs.Reading.NH3)
	assert.Equal(t, observed, obs.ObservedAt)
	assert.Equal(t, fetched, obs.FetchedAt)
	assert.Equal(t, openweathermap.ProviderName, obs.Provider)
}

func TestClient_GetCurrent_MissingComponent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"coord":{"lat":1,"lon":2},"list":[{"main":{"aqi":1},"components":{"pm10":12},"dt":0}]}`))
	}))
	defer server.Close()

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: fastClient(),
	})

	obs, err := client.GetCurrent(context.Background(), 1, 2)
	require.NoError(t, err)

	assert.Equal(t, 12.0, obs.Reading.PM10)
	assert.True(t, math.IsNaN(obs.Reading.PM25))
	assert.ErrorIs(t, obs.Reading.Validate(), airquality.ErrInvalidReading)
}

func TestClient_GetCurrent_EmptyList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"coord":{"lat":1,"lon":2},"list":[]}`))
	}))
	defer server.Close()

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: fastClient(),
	})

	_, err := client.GetCurrent(context.Background(), 1, 2)
	assert.ErrorIs(t, err, airquality.ErrNoMeasurements)
}

func TestClient_GetForecast(t *testing.T) {
	base := time.Date(2026, 5, 12, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/air_pollution/forecast", r.URL.Path)

		response := map[string]interface{}{
			"coord": map[string]float64{"lat": 29.76, "lon": -95.37},
			"list": []map[string]interface{}{
				sample(1, base.Unix()),
				sample(3, base.Add(time.Hour).Unix()),
				sample(5, base.Add(2*time.Hour).Unix()),
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: fastClient(),
	})

	forecast, err := client.GetForecast(context.Background(), 29.76, -95.37)
	require.NoError(t, err)
	require.Len(t, forecast, 3)

	assert.Equal(t, 1, forecast[0].ProviderIndex)
	assert.Equal(t, 3, forecast[1].ProviderIndex)
	assert.Equal(t, 5, forecast[2].ProviderIndex)
	assert.Equal(t, base.Add(2*time.Hour), forecast[2].ObservedAt)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "500")
			},
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, openweathermap.ErrUnauthorized)
			},
		},
		{
			name:   "not found",
			status: http.StatusNotFound,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "404")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			client := openweathermap.NewClient(openweathermap.ClientConfig{
				APIKey:     "****",
				BaseURL:    server.URL,
				HTTPClient: fastClient(),
			})

			_, err := client.GetCurrent(context.Background(), 29.76, -95.37)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: fastClient(),
	})

	_, err := client.GetForecast(context.Background(), 29.76, -95.37)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding response")
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey:     "****",
		BaseURL:    server.URL,
		HTTPClient: fastClient(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetCurrent(ctx, 29.76, -95.37)
	require.Error(t, err)
}

func TestClient_Name(t *testing.T) {
	client := openweathermap.NewClient(openweathermap.ClientConfig{
		APIKey: "****",
	})

	assert.Equal(t, "openweathermap", client.Name())
}

func TestClient_ImplementsProvider(t *testing.T) {
	var _ airquality.Provider = openweathermap.NewClient(openweathermap.ClientConfig{})
}
