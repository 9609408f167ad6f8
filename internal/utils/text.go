package utils

import (
	"strings"
)

// NormalizeCityInput cleans up a user-typed city name: trims the ends
// and collapses runs of internal whitespace.
func NormalizeCityInput(city string) string {
	return strings.Join(strings.Fields(city), " ")
}

// ParseClockTime splits "HH:MM" (or bare "HH") into hour and minute.
// Range validation is left to the caller.
func ParseClockTime(value string) (hour, minute int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) == 0 || parts[0] == "" {
		return 0, 0, false
	}
	hour, ok = parseDigits(parts[0])
	if !ok {
		return 0, 0, false
	}
	if len(parts) == 2 {
		minute, ok = parseDigits(parts[1])
		if !ok {
			return 0, 0, false
		}
	}
	return hour, minute, true
}

func parseDigits(s string) (int, bool) {
	if s == "" || len(s) > 2 {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
