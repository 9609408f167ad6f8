package utils_test

import (
	"testing"
	"time"

	"github.com/akarpov/weatherbot/internal/utils"
)

func TestNormalizeCityInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Simple", "Berlin", "Berlin"},
		{"TrimEnds", "  Berlin  ", "Berlin"},
		{"CollapseInternal", "New   York", "New York"},
		{"TabsAndNewlines", "\tSan\n Francisco ", "San Francisco"},
		{"Empty", "", ""},
		{"OnlyWhitespace", "   ", ""},
		{"Cyrillic", "  Нижний   Новгород ", "Нижний Новгород"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := utils.NormalizeCityInput(tt.input); got != tt.expected {
				t.Errorf("NormalizeCityInput(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		hour   int
		minute int
		ok     bool
	}{
		{"HourAndMinute", "8:30", 8, 30, true},
		{"PaddedHour", "08:05", 8, 5, true},
		{"BareHour", "9", 9, 0, true},
		{"Trimmed", " 12:45 ", 12, 45, true},
		{"Empty", "", 0, 0, false},
		{"Letters", "ab:cd", 0, 0, false},
		{"MissingMinute", "8:", 0, 0, false},
		{"TooManyDigits", "123:00", 0, 0, false},
		{"Negative", "-1:30", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hour, minute, ok := utils.ParseClockTime(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseClockTime(%q) ok = %v, expected %v", tt.input, ok, tt.ok)
			}
			if !ok {
				return
			}
			if hour != tt.hour || minute != tt.minute {
				t.Errorf("ParseClockTime(%q) = %d:%d, expected %d:%d",
					tt.input, hour, minute, tt.hour, tt.minute)
			}
		})
	}
}

func TestFormatResetTime(t *testing.T) {
	resetAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("KnownZone", func(t *testing.T) {
		got := utils.FormatResetTime(resetAt, "Europe/Moscow")
		if got != "2024-06-01 15:00 MSK" {
			t.Errorf("Unexpected formatted time %q", got)
		}
	})

	t.Run("EmptyZoneFallsBackToUTC", func(t *testing.T) {
		got := utils.FormatResetTime(resetAt, "")
		if got != "2024-06-01 12:00 UTC" {
			t.Errorf("Unexpected formatted time %q", got)
		}
	})

	t.Run("UnknownZoneFallsBackToUTC", func(t *testing.T) {
		got := utils.FormatResetTime(resetAt, "Mars/Olympus")
		if got != "2024-06-01 12:00 UTC" {
			t.Errorf("Unexpected formatted time %q", got)
		}
	})
}
