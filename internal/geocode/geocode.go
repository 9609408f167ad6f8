package geocode

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

const nominatimEndpoint = "https://nominatim.openstreetmap.org/search"

// userAgent identifies the bot to the nominatim usage policy.
const userAgent = "WeatherBot/1.0"

// Place is a resolved city: coordinates plus a display label.
type Place struct {
	Lat   float64
	Lon   float64
	Label string
}

// Geocoder resolves a city name to coordinates. Satisfied by the
// nominatim client and by test fakes.
type Geocoder interface {
	GeocodeCity(ctx context.Context, city string) (Place, error)
}

// NominatimClient talks to the OpenStreetMap nominatim search API.
type NominatimClient struct {
	endpoint string
	client   *http.Client
	logger   *logger.Logger
}

// NewNominatimClient creates a client with a 10 second request timeout.
func NewNominatimClient(log *logger.Logger) *NominatimClient {
	return &NominatimClient{
		endpoint: nominatimEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   log,
	}
}

// NewNominatimClientWithEndpoint creates a client against a custom
// endpoint, used by tests with an httptest server.
func NewNominatimClientWithEndpoint(endpoint string, log *logger.Logger) *NominatimClient {
	c := NewNominatimClient(log)
	c.endpoint = endpoint
	return c
}

// GeocodeCity resolves a city name. domain.ErrCityNotFound is returned
// when the provider has no match; other failures are wrapped.
func (c *NominatimClient) GeocodeCity(ctx context.Context, city string) (Place, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return Place{}, fmt.Errorf("building geocode request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Geocode request failed", "city", city, "error", err)
		return Place{}, fmt.Errorf("geocoding %q: %w", city, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("Geocoder returned error", "city", city, "status", resp.StatusCode)
		return Place{}, fmt.Errorf("geocoding %q: unexpected status %d", city, resp.StatusCode)
	}

	var results []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Place{}, fmt.Errorf("decoding geocode response: %w", err)
	}
	if len(results) == 0 {
		return Place{}, domain.ErrCityNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Place{}, fmt.Errorf("parsing geocode latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Place{}, fmt.Errorf("parsing geocode longitude: %w", err)
	}

	label := results[0].DisplayName
	if label == "" {
		label = city
	}

	return Place{Lat: lat, Lon: lon, Label: label}, nil
}
