package weather_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akarpov/weatherbot/internal/config"
	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/i18n"
	"github.com/akarpov/weatherbot/internal/logger"
	"github.com/akarpov/weatherbot/internal/weather"
)

const openMeteoResponse = `{
	"current": {
		"temperature_2m": 21.4,
		"apparent_temperature": 20.1,
		"wind_speed_10m": 3.6,
		"weather_code": 2
	},
	"daily": {
		"temperature_2m_max": [24.0, 22.5],
		"temperature_2m_min": [14.3, 13.0],
		"precipitation_probability_max": [35, 60],
		"sunrise": ["2024-06-01T04:48", "2024-06-02T04:47"],
		"sunset": ["2024-06-01T21:22", "2024-06-02T21:23"]
	}
}`

func TestFetch(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(openMeteoResponse))
	}))
	defer server.Close()

	client := weather.NewOpenMeteoClientWithEndpoint(server.URL, logger.New("error"))
	report, err := client.Fetch(context.Background(), 52.52, 13.405)
	if err != nil {
		t.Fatalf("Error fetching weather: %v", err)
	}

	if !strings.Contains(gotQuery, "latitude=52.52") || !strings.Contains(gotQuery, "longitude=13.405") {
		t.Errorf("Coordinates missing from query %q", gotQuery)
	}
	if !strings.Contains(gotQuery, "windspeed_unit=ms") {
		t.Errorf("Expected m/s wind unit in query %q", gotQuery)
	}

	if report.Current.Temperature == nil || *report.Current.Temperature != 21.4 {
		t.Errorf("Unexpected current temperature %v", report.Current.Temperature)
	}
	if report.Current.WeatherCode == nil || *report.Current.WeatherCode != 2 {
		t.Errorf("Unexpected weather code %v", report.Current.WeatherCode)
	}
	if len(report.Days) != 2 {
		t.Fatalf("Expected 2 forecast days, got %d", len(report.Days))
	}
	today := report.Day(0)
	if today.MaxTemperature == nil || *today.MaxTemperature != 24.0 {
		t.Errorf("Unexpected max temperature %v", today.MaxTemperature)
	}
	if today.Sunrise != "2024-06-01T04:48" {
		t.Errorf("Unexpected sunrise %q", today.Sunrise)
	}
	if report.Day(5) != nil {
		t.Error("Out-of-range day index should return nil")
	}
}

func TestFetchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := weather.NewOpenMeteoClientWithEndpoint(server.URL, logger.New("error"))
	_, err := client.Fetch(context.Background(), 52.52, 13.405)
	if !errors.Is(err, domain.ErrWeatherUnavailable) {
		t.Errorf("Expected ErrWeatherUnavailable, got %v", err)
	}
}

func TestFetchMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{broken"))
	}))
	defer server.Close()

	client := weather.NewOpenMeteoClientWithEndpoint(server.URL, logger.New("error"))
	if _, err := client.Fetch(context.Background(), 1, 2); !errors.Is(err, domain.ErrWeatherUnavailable) {
		t.Errorf("Expected ErrWeatherUnavailable, got %v", err)
	}
}

func TestFetchToleratesShortDailyLists(t *testing.T) {
	response := `{
		"current": {"temperature_2m": 10.0},
		"daily": {
			"temperature_2m_max": [15.0, 16.0],
			"temperature_2m_min": [5.0],
			"sunrise": ["2024-06-01T04:48"],
			"sunset": []
		}
	}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(response))
	}))
	defer server.Close()

	client := weather.NewOpenMeteoClientWithEndpoint(server.URL, logger.New("error"))
	report, err := client.Fetch(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("Error fetching weather: %v", err)
	}
	if len(report.Days) != 2 {
		t.Fatalf("Expected 2 days, got %d", len(report.Days))
	}
	second := report.Day(1)
	if second.MaxTemperature == nil || second.MinTemperature != nil {
		t.Errorf("Expected nil min on short list, got %+v", second)
	}
	if second.Sunrise != "" {
		t.Errorf("Expected empty sunrise on short list, got %q", second.Sunrise)
	}
}

func newFormatTranslator() *i18n.Translator {
	translator := i18n.NewWithConfig(config.New())
	i18n.LoadDefaultTranslations(translator)
	return translator
}

func TestFormat(t *testing.T) {
	temp := 21.4
	feels := 20.1
	wind := 3.6
	code := 0
	minT := 14.3
	maxT := 24.0
	precip := 35.0

	report := weather.Report{
		Current: weather.Current{
			Temperature:         &temp,
			ApparentTemperature: &feels,
			WindSpeed:           &wind,
			WeatherCode:         &code,
		},
		Days: []weather.Daily{{
			MinTemperature:           &minT,
			MaxTemperature:           &maxT,
			PrecipitationProbability: &precip,
			Sunrise:                  "2024-06-01T04:48",
			Sunset:                   "2024-06-01T21:22",
		}},
	}

	text := weather.Format(report, "Berlin", "en", newFormatTranslator())

	for _, want := range []string{
		"📍 Berlin",
		"clear sky",
		"<b>21.4°C</b>",
		"20.1°C",
		"3.6 m/s",
		"14.3…24°C",
		"35%",
		"04:48",
		"21:22",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Formatted text missing %q:\n%s", want, text)
		}
	}
}

func TestFormatSparseReport(t *testing.T) {
	text := weather.Format(weather.Report{}, "", "en", newFormatTranslator())

	if strings.Contains(text, "📍") {
		t.Errorf("Unexpected place header in %q", text)
	}
	if strings.Contains(text, "°C") {
		t.Errorf("Unexpected temperature line in %q", text)
	}
}

func TestDescribeCode(t *testing.T) {
	code := 95

	if got := weather.DescribeCode(&code, "ru"); got != "гроза ⛈" {
		t.Errorf("Unexpected description %q", got)
	}
	// Unsupported language falls back to English.
	if got := weather.DescribeCode(&code, "fr"); got != "thunderstorm ⛈" {
		t.Errorf("Unexpected fallback description %q", got)
	}
	if got := weather.DescribeCode(nil, "en"); got != "—" {
		t.Errorf("Unexpected nil-code description %q", got)
	}
	unknown := 42
	if got := weather.DescribeCode(&unknown, "en"); got != "—" {
		t.Errorf("Unexpected unknown-code description %q", got)
	}
}
