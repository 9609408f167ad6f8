package geocode_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/geocode"
	"github.com/akarpov/weatherbot/internal/logger"
)

func TestGeocodeCity(t *testing.T) {
	var gotUserAgent, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat": "52.5170365", "lon": "13.3888599", "display_name": "Berlin, Germany"}]`))
	}))
	defer server.Close()

	client := geocode.NewNominatimClientWithEndpoint(server.URL, logger.New("error"))
	place, err := client.GeocodeCity(context.Background(), "Berlin")
	if err != nil {
		t.Fatalf("Error geocoding: %v", err)
	}

	if gotUserAgent == "" {
		t.Error("Expected a User-Agent header, nominatim requires one")
	}
	if gotQuery != "Berlin" {
		t.Errorf("Expected query Berlin, got %q", gotQuery)
	}
	if place.Lat != 52.5170365 || place.Lon != 13.3888599 {
		t.Errorf("Unexpected coordinates %v/%v", place.Lat, place.Lon)
	}
	if place.Label != "Berlin, Germany" {
		t.Errorf("Unexpected label %q", place.Label)
	}
}

func TestGeocodeCityNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := geocode.NewNominatimClientWithEndpoint(server.URL, logger.New("error"))
	_, err := client.GeocodeCity(context.Background(), "Atlantis")
	if !errors.Is(err, domain.ErrCityNotFound) {
		t.Errorf("Expected ErrCityNotFound, got %v", err)
	}
}

func TestGeocodeCityEmptyLabelFallsBackToInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"lat": "1.0", "lon": "2.0", "display_name": ""}]`))
	}))
	defer server.Close()

	client := geocode.NewNominatimClientWithEndpoint(server.URL, logger.New("error"))
	place, err := client.GeocodeCity(context.Background(), "Somewhere")
	if err != nil {
		t.Fatalf("Error geocoding: %v", err)
	}
	if place.Label != "Somewhere" {
		t.Errorf("Expected input fallback label, got %q", place.Label)
	}
}

func TestGeocodeCityServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := geocode.NewNominatimClientWithEndpoint(server.URL, logger.New("error"))
	if _, err := client.GeocodeCity(context.Background(), "Berlin"); err == nil {
		t.Error("Expected error for 503 response")
	}
	if _, err := client.GeocodeCity(context.Background(), "Berlin"); errors.Is(err, domain.ErrCityNotFound) {
		t.Error("Server errors must not be reported as city-not-found")
	}
}
