package weather

// WMO interpretation codes as used by open-meteo. Unknown codes fall
// back to a neutral description.
var wmoDescriptions = map[string]map[int]string{
	"en": {
		0: "clear sky ☀️", 1: "mainly clear 🌤", 2: "partly cloudy ⛅", 3: "overcast ☁️",
		45: "fog 🌫", 48: "depositing rime fog 🌫",
		51: "light drizzle 🌦", 53: "drizzle 🌦", 55: "dense drizzle 🌧",
		56: "freezing drizzle 🌧", 57: "dense freezing drizzle 🌧",
		61: "light rain 🌧", 63: "rain 🌧", 65: "heavy rain 🌧",
		66: "freezing rain 🌧", 67: "heavy freezing rain 🌧",
		71: "light snow 🌨", 73: "snow 🌨", 75: "heavy snow ❄️", 77: "snow grains ❄️",
		80: "light showers 🌦", 81: "showers 🌧", 82: "violent showers ⛈",
		85: "snow showers 🌨", 86: "heavy snow showers ❄️",
		95: "thunderstorm ⛈", 96: "thunderstorm with hail ⛈", 99: "thunderstorm with heavy hail ⛈",
	},
	"ru": {
		0: "ясно ☀️", 1: "преимущественно ясно 🌤", 2: "переменная облачность ⛅", 3: "пасмурно ☁️",
		45: "туман 🌫", 48: "изморозь 🌫",
		51: "лёгкая морось 🌦", 53: "морось 🌦", 55: "сильная морось 🌧",
		56: "ледяная морось 🌧", 57: "сильная ледяная морось 🌧",
		61: "небольшой дождь 🌧", 63: "дождь 🌧", 65: "сильный дождь 🌧",
		66: "ледяной дождь 🌧", 67: "сильный ледяной дождь 🌧",
		71: "небольшой снег 🌨", 73: "снег 🌨", 75: "сильный снег ❄️", 77: "снежная крупа ❄️",
		80: "небольшой ливень 🌦", 81: "ливень 🌧", 82: "сильный ливень ⛈",
		85: "снегопад 🌨", 86: "сильный снегопад ❄️",
		95: "гроза ⛈", 96: "гроза с градом ⛈", 99: "гроза с сильным градом ⛈",
	},
	"de": {
		0: "klarer Himmel ☀️", 1: "überwiegend klar 🌤", 2: "teilweise bewölkt ⛅", 3: "bedeckt ☁️",
		45: "Nebel 🌫", 48: "Reifnebel 🌫",
		51: "leichter Nieselregen 🌦", 53: "Nieselregen 🌦", 55: "starker Nieselregen 🌧",
		56: "gefrierender Nieselregen 🌧", 57: "starker gefrierender Nieselregen 🌧",
		61: "leichter Regen 🌧", 63: "Regen 🌧", 65: "starker Regen 🌧",
		66: "gefrierender Regen 🌧", 67: "starker gefrierender Regen 🌧",
		71: "leichter Schneefall 🌨", 73: "Schneefall 🌨", 75: "starker Schneefall ❄️", 77: "Schneegriesel ❄️",
		80: "leichte Schauer 🌦", 81: "Schauer 🌧", 82: "heftige Schauer ⛈",
		85: "Schneeschauer 🌨", 86: "starke Schneeschauer ❄️",
		95: "Gewitter ⛈", 96: "Gewitter mit Hagel ⛈", 99: "Gewitter mit starkem Hagel ⛈",
	},
}

// DescribeCode renders a WMO weather code as localized text.
func DescribeCode(code *int, lang string) string {
	table, ok := wmoDescriptions[lang]
	if !ok {
		table = wmoDescriptions["en"]
	}
	if code == nil {
		return "—"
	}
	if text, ok := table[*code]; ok {
		return text
	}
	return "—"
}
