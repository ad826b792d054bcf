package conditions

// Topic is a closed enumeration of narratable weather topics. Each topic maps
// to one narrative composer; the composer registry is keyed by Topic.
type Topic string

const (
	TopicRain        Topic = "rain"
	TopicSnow        Topic = "snow"
	TopicClouds      Topic = "clouds"
	TopicWind        Topic = "wind"
	TopicTemperature Topic = "temperature"
	TopicHumidity    Topic = "humidity"
	TopicAtmosphere  Topic = "atmosphere"
)

// CodeInfo describes one condition code: the topic it belongs to, its
// severity level used for ranking, and the spoken description.
type CodeInfo struct {
	Category    Topic
	Level       float64
	Description string
}

// CodeTable maps upstream condition codes (plus the internal 9xxx codes) to
// their topic, ranking level, and description. Injected into the classifier
// so deployments can extend or override it.
type CodeTable map[int]CodeInfo

// Internal condition codes for states the upstream code list does not carry.
const (
	CodeHot       = 9010
	CodeVeryHot   = 9011
	CodeHotHumid  = 9012
	CodeHumid     = 9013
	CodeCool      = 9015
	CodeCold      = 9016
	CodeColdNight = 9017
	CodeHalfMoon  = 9020
	CodeBrightSky = 9021
	CodeBreezy    = 9030
	CodeWindy     = 9031
	CodeVeryWindy = 9032
	CodeGale      = 9033
)

// DefaultCodeTable returns the built-in code table. Levels run 0-10 and are
// only used to rank conditions against each other, never displayed.
func DefaultCodeTable() CodeTable {
	return CodeTable{
		// Thunderstorms narrate as rain.
		200: {TopicRain, 6, "thunderstorms with light rain"},
		201: {TopicRain, 7, "thunderstorms with rain"},
		202: {TopicRain, 8.5, "thunderstorms with heavy rain"},
		210: {TopicRain, 5.5, "scattered thunderstorms"},
		211: {TopicRain, 7, "thunderstorms"},
		212: {TopicRain, 9, "strong thunderstorms"},
		221: {TopicRain, 8, "ragged thunderstorms"},
		230: {TopicRain, 6, "thunderstorms with drizzle"},
		231: {TopicRain, 6, "thunderstorms with drizzle"},
		232: {TopicRain, 6.5, "thunderstorms with heavy drizzle"},

		300: {TopicRain, 1, "light drizzle"},
		301: {TopicRain, 1.5, "drizzle"},
		302: {TopicRain, 2, "heavy drizzle"},
		310: {TopicRain, 1.5, "light drizzle"},
		311: {TopicRain, 2, "drizzle"},
		312: {TopicRain, 2.5, "heavy drizzle"},
		321: {TopicRain, 2.5, "drizzle showers"},

		500: {TopicRain, 3, "light rain"},
		501: {TopicRain, 5, "moderate rain"},
		502: {TopicRain, 6.5, "heavy rain"},
		503: {TopicRain, 7.5, "very heavy rain"},
		504: {TopicRain, 9, "extreme rain"},
		511: {TopicRain, 8, "freezing rain"},
		520: {TopicRain, 4, "light rain showers"},
		521: {TopicRain, 5, "rain showers"},
		522: {TopicRain, 6.5, "heavy rain showers"},
		531: {TopicRain, 5, "ragged rain showers"},

		600: {TopicSnow, 4, "light snow"},
		601: {TopicSnow, 6, "snow"},
		602: {TopicSnow, 9, "heavy snow"},
		611: {TopicSnow, 5, "sleet"},
		612: {TopicSnow, 4, "light sleet showers"},
		613: {TopicSnow, 4.5, "sleet showers"},
		615: {TopicSnow, 5, "light rain and snow"},
		616: {TopicSnow, 5.5, "rain and snow"},
		620: {TopicSnow, 4, "light snow showers"},
		621: {TopicSnow, 6, "snow showers"},
		622: {TopicSnow, 8, "heavy snow showers"},

		701: {TopicAtmosphere, 1, "mist"},
		711: {TopicAtmosphere, 3, "smoke"},
		721: {TopicAtmosphere, 1.5, "haze"},
		731: {TopicAtmosphere, 3, "blowing dust"},
		741: {TopicAtmosphere, 2.5, "fog"},
		751: {TopicAtmosphere, 3, "blowing sand"},
		761: {TopicAtmosphere, 3, "dust"},
		762: {TopicAtmosphere, 7, "volcanic ash"},
		771: {TopicAtmosphere, 7, "squalls"},
		781: {TopicAtmosphere, 10, "a tornado"},

		800: {TopicClouds, 0, "clear skies"},
		801: {TopicClouds, 0.5, "a few clouds"},
		802: {TopicClouds, 1, "scattered clouds"},
		803: {TopicClouds, 2, "broken clouds"},
		804: {TopicClouds, 3, "overcast skies"},

		CodeHot:       {TopicTemperature, 5, "hot"},
		CodeVeryHot:   {TopicTemperature, 8, "very hot"},
		CodeHotHumid:  {TopicTemperature, 7, "hot and muggy"},
		CodeHumid:     {TopicHumidity, 3, "muggy"},
		CodeCool:      {TopicTemperature, 4, "cooler than normal"},
		CodeCold:      {TopicTemperature, 6, "cold"},
		CodeColdNight: {TopicTemperature, 5, "a cold night"},

		CodeHalfMoon:  {TopicAtmosphere, 0.5, "a half moon"},
		CodeBrightSky: {TopicAtmosphere, 1, "a bright moon"},

		CodeBreezy:    {TopicWind, 1, "breezy"},
		CodeWindy:     {TopicWind, 3, "windy"},
		CodeVeryWindy: {TopicWind, 6, "very windy"},
		CodeGale:      {TopicWind, 9, "dangerously windy"},
	}
}
