package utils

import (
	"time"
)

// FormatResetTime renders a quota reset time in the given IANA timezone,
// falling back to UTC when the zone name is empty or unknown.
func FormatResetTime(resetAt time.Time, tzName string) string {
	if tzName != "" {
		if zone, err := time.LoadLocation(tzName); err == nil {
			return resetAt.In(zone).Format("2006-01-02 15:04 MST")
		}
	}
	return resetAt.UTC().Format("2006-01-02 15:04 UTC")
}
