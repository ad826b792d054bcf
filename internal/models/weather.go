package models

import "time"

// Payload is the normalized forecast payload produced by the upstream client.
// All narration is derived from one Payload per request; the core never
// partially consumes it.
type Payload struct {
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Timezone  string         `json:"timezone"` // IANA name, e.g. "America/New_York"
	Current   CurrentSample  `json:"current"`
	Hourly    []HourlySample `json:"hourly"` // at least 48 entries, hour granularity
	Daily     []DailySample  `json:"daily"`  // today through 7 days out
	Alerts    []Alert        `json:"alerts,omitempty"`
	FetchedAt time.Time      `json:"fetchedAt"`
}

// CurrentSample is the "right now" observation.
type CurrentSample struct {
	Time         int64    `json:"time"` // epoch seconds
	Temp         float64  `json:"temp"`
	FeelsLike    float64  `json:"feelsLike"`
	DewPoint     float64  `json:"dewPoint"`
	Humidity     float64  `json:"humidity"` // relative, 0-1
	WindSpeed    float64  `json:"windSpeed"`
	CloudCover   float64  `json:"cloudCover"` // percentage, 0-100
	Visibility   float64  `json:"visibility"`
	RainLastHour float64  `json:"rainLastHour,omitempty"` // mm over the last hour
	SnowLastHour float64  `json:"snowLastHour,omitempty"`
	Codes        []int    `json:"codes,omitempty"` // upstream condition codes
	MoonPhase    *float64 `json:"moonPhase,omitempty"`
}

// HourlySample is one hour of forecast data.
type HourlySample struct {
	Time              int64   `json:"time"`
	Temp              float64 `json:"temp"`
	FeelsLike         float64 `json:"feelsLike"`
	DewPoint          float64 `json:"dewPoint"`
	Humidity          float64 `json:"humidity"`
	WindSpeed         float64 `json:"windSpeed"`
	CloudCover        float64 `json:"cloudCover"`
	Visibility        float64 `json:"visibility"`
	PrecipProbability float64 `json:"precipProbability"` // 0-1
	PrecipIntensity   float64 `json:"precipIntensity"`   // amount per hour
	PrecipType        string  `json:"precipType,omitempty"`
	Codes             []int   `json:"codes,omitempty"`
}

// DailySample is one calendar day of aggregate forecast data.
type DailySample struct {
	Time                   int64    `json:"time"`
	TempMin                float64  `json:"tempMin"`
	TempMax                float64  `json:"tempMax"`
	TempDay                float64  `json:"tempDay"`   // midday reading
	TempNight              float64  `json:"tempNight"` // overnight reading
	TempMaxTime            int64    `json:"tempMaxTime,omitempty"`
	FeelsLikeMin           float64  `json:"feelsLikeMin"`
	FeelsLikeMax           float64  `json:"feelsLikeMax"`
	DewPoint               float64  `json:"dewPoint"`
	Humidity               float64  `json:"humidity"`
	WindSpeed              float64  `json:"windSpeed"`
	CloudCover             float64  `json:"cloudCover"`
	Visibility             float64  `json:"visibility"`
	PrecipProbability      float64  `json:"precipProbability"`
	PrecipIntensityMax     float64  `json:"precipIntensityMax"` // peak hourly amount
	PrecipIntensityMaxTime int64    `json:"precipIntensityMaxTime,omitempty"`
	PrecipType             string   `json:"precipType,omitempty"`
	Rain                   float64  `json:"rain,omitempty"` // mm over the day
	Snow                   float64  `json:"snow,omitempty"`
	MoonPhase              *float64 `json:"moonPhase,omitempty"` // 0-1, nil when absent
	Codes                  []int    `json:"codes,omitempty"`
}

// Alert is an active-weather-alert record from the upstream provider.
type Alert struct {
	Event       string `json:"event"`
	Start       int64  `json:"start"`
	End         int64  `json:"end"`
	Description string `json:"description,omitempty"`
}

// Active reports whether the alert's [start, end) interval contains t.
func (a Alert) Active(t int64) bool {
	return a.Start <= t && t < a.End
}

// Report is one rendered section of a forecast: the raw data it was built
// from, the per-topic sentences, and the joined narrative.
type Report struct {
	Data       any               `json:"data"`
	Conditions map[string]string `json:"conditions"`
	Forecast   string            `json:"forecast"`
}

// ForecastReport is the orchestrator's output for one requested date.
// Currently is nil unless the date is today; Detail is nil unless the date
// is today or tomorrow.
type ForecastReport struct {
	Date         time.Time `json:"date"`
	Currently    *Report   `json:"currently,omitempty"`
	DailySummary Report    `json:"dailySummary"`
	Detail       *Report   `json:"detail,omitempty"`
}
