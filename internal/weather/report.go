package weather

// Current holds the present-moment observation. Pointer fields are nil
// when the provider omitted the value.
type Current struct {
	Temperature         *float64
	ApparentTemperature *float64
	WindSpeed           *float64
	WeatherCode         *int
}

// Daily holds one day of forecast data.
type Daily struct {
	MinTemperature           *float64
	MaxTemperature           *float64
	PrecipitationProbability *float64
	Sunrise                  string
	Sunset                   string
}

// Report is a provider-independent weather snapshot.
type Report struct {
	Current Current
	Days    []Daily
	Source  string
}

// Day returns the forecast for the given day index, or nil if the
// provider returned fewer days.
func (r *Report) Day(index int) *Daily {
	if index < 0 || index >= len(r.Days) {
		return nil
	}
	return &r.Days[index]
}

// openMeteoPayload mirrors the subset of the open-meteo response the
// bot consumes. Lists under "daily" are index-aligned per day.
type openMeteoPayload struct {
	Current struct {
		Temperature2m       *float64 `json:"temperature_2m"`
		ApparentTemperature *float64 `json:"apparent_temperature"`
		WindSpeed10m        *float64 `json:"wind_speed_10m"`
		WeatherCode         *int     `json:"weather_code"`
	} `json:"current"`
	Daily struct {
		Temperature2mMax            []*float64 `json:"temperature_2m_max"`
		Temperature2mMin            []*float64 `json:"temperature_2m_min"`
		PrecipitationProbabilityMax []*float64 `json:"precipitation_probability_max"`
		Sunrise                     []string   `json:"sunrise"`
		Sunset                      []string   `json:"sunset"`
	} `json:"daily"`
}

// toReport converts the raw payload, zipping the daily lists
// defensively: a short list just yields nil fields for that day.
func (p *openMeteoPayload) toReport() Report {
	report := Report{
		Current: Current{
			Temperature:         p.Current.Temperature2m,
			ApparentTemperature: p.Current.ApparentTemperature,
			WindSpeed:           p.Current.WindSpeed10m,
			WeatherCode:         p.Current.WeatherCode,
		},
		Source: "open-meteo",
	}

	days := len(p.Daily.Temperature2mMax)
	if n := len(p.Daily.Temperature2mMin); n > days {
		days = n
	}
	if n := len(p.Daily.PrecipitationProbabilityMax); n > days {
		days = n
	}
	if n := len(p.Daily.Sunrise); n > days {
		days = n
	}
	if n := len(p.Daily.Sunset); n > days {
		days = n
	}

	for i := 0; i < days; i++ {
		day := Daily{
			MaxTemperature:           floatAt(p.Daily.Temperature2mMax, i),
			MinTemperature:           floatAt(p.Daily.Temperature2mMin, i),
			PrecipitationProbability: floatAt(p.Daily.PrecipitationProbabilityMax, i),
		}
		if i < len(p.Daily.Sunrise) {
			day.Sunrise = p.Daily.Sunrise[i]
		}
		if i < len(p.Daily.Sunset) {
			day.Sunset = p.Daily.Sunset[i]
		}
		report.Days = append(report.Days, day)
	}

	return report
}

func floatAt(values []*float64, index int) *float64 {
	if index < 0 || index >= len(values) {
		return nil
	}
	return values[index]
}
