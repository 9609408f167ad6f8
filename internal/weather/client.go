package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/logger"
)

const openMeteoEndpoint = "https://api.open-meteo.com/v1/forecast"

// Provider fetches a weather report for coordinates. Satisfied by the
// open-meteo client and by test fakes.
type Provider interface {
	Fetch(ctx context.Context, lat, lon float64) (Report, error)
}

// OpenMeteoClient talks to the open-meteo forecast API.
type OpenMeteoClient struct {
	endpoint string
	client   *http.Client
	logger   *logger.Logger
}

// NewOpenMeteoClient creates a client with a 10 second request timeout.
func NewOpenMeteoClient(log *logger.Logger) *OpenMeteoClient {
	return &OpenMeteoClient{
		endpoint: openMeteoEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   log,
	}
}

// NewOpenMeteoClientWithEndpoint creates a client against a custom
// endpoint, used by tests with an httptest server.
func NewOpenMeteoClientWithEndpoint(endpoint string, log *logger.Logger) *OpenMeteoClient {
	c := NewOpenMeteoClient(log)
	c.endpoint = endpoint
	return c
}

// Fetch retrieves the current weather and the multi-day forecast for
// the given coordinates.
func (c *OpenMeteoClient) Fetch(ctx context.Context, lat, lon float64) (Report, error) {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("current", "temperature_2m,apparent_temperature,wind_speed_10m,weather_code")
	params.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_probability_max,sunrise,sunset")
	params.Set("timezone", "auto")
	params.Set("windspeed_unit", "ms")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return Report{}, fmt.Errorf("building weather request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Weather request failed", "error", err)
		return Report{}, domain.ErrWeatherUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Weather provider returned error", "status", resp.StatusCode)
		return Report{}, domain.ErrWeatherUnavailable
	}

	var payload openMeteoPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.logger.Error("Failed to decode weather response", "error", err)
		return Report{}, domain.ErrWeatherUnavailable
	}

	return payload.toReport(), nil
}
