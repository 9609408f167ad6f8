package weather

import (
	"fmt"
	"strings"

	"github.com/akarpov/weatherbot/internal/i18n"
)

// Format renders a report as an HTML message in the user's language.
// placeLabel, when non-empty, heads the message.
func Format(report Report, placeLabel, lang string, translator *i18n.Translator) string {
	var lines []string

	if placeLabel != "" {
		lines = append(lines, "📍 "+placeLabel, "")
	}

	desc := DescribeCode(report.Current.WeatherCode, lang)
	lines = append(lines, fmt.Sprintf("%s: %s", translator.T(lang, "weather_now"), desc))

	if report.Current.Temperature != nil {
		tempLine := fmt.Sprintf("🌡 <b>%s°C</b>", fmtValue(report.Current.Temperature))
		if report.Current.ApparentTemperature != nil {
			tempLine += fmt.Sprintf(" (%s %s°C)",
				translator.T(lang, "weather_feels_like"),
				fmtValue(report.Current.ApparentTemperature))
		}
		lines = append(lines, tempLine)
	}
	if report.Current.WindSpeed != nil {
		lines = append(lines, fmt.Sprintf("💨 %s: <b>%s m/s</b>",
			translator.T(lang, "weather_wind"), fmtValue(report.Current.WindSpeed)))
	}

	if today := report.Day(0); today != nil {
		lines = append(lines, "", translator.T(lang, "weather_today")+":")
		if today.MinTemperature != nil && today.MaxTemperature != nil {
			lines = append(lines, fmt.Sprintf("🌡 %s…%s°C",
				fmtValue(today.MinTemperature), fmtValue(today.MaxTemperature)))
		}
		if today.PrecipitationProbability != nil {
			lines = append(lines, fmt.Sprintf("☔ %s: %s%%",
				translator.T(lang, "weather_precipitation"),
				fmtValue(today.PrecipitationProbability)))
		}
		if today.Sunrise != "" && today.Sunset != "" {
			lines = append(lines, fmt.Sprintf("🌅 %s %s · 🌇 %s %s",
				translator.T(lang, "weather_sunrise"), clockPart(today.Sunrise),
				translator.T(lang, "weather_sunset"), clockPart(today.Sunset)))
		}
	}

	return strings.Join(lines, "\n")
}

func fmtValue(v *float64) string {
	if v == nil {
		return "—"
	}
	s := fmt.Sprintf("%.1f", *v)
	return strings.TrimSuffix(s, ".0")
}

// clockPart extracts HH:MM from an ISO timestamp like "2024-05-01T05:43".
func clockPart(iso string) string {
	if idx := strings.IndexByte(iso, 'T'); idx >= 0 && len(iso) >= idx+6 {
		return iso[idx+1 : idx+6]
	}
	return iso
}
