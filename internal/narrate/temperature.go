package narrate

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/voxcast/forecast-narrator/internal/conditions"
	"github.com/voxcast/forecast-narrator/internal/models"
	"github.com/voxcast/forecast-narrator/internal/trend"
)

var temperatureHeadlines = []string{
	"Here's how the temperature looks {day}.",
	"Now for the temperature {day}.",
	"On the temperature front {day}.",
}

// temperatureComposer narrates the day's temperature trajectory. It uses
// the clock-band heuristic rather than regression: the hour of the daily
// maximum tells us whether the curve is still climbing, already falling,
// or shaped like a normal day.
type temperatureComposer struct {
	cfg Config
}

func newTemperatureComposer(cfg Config) *temperatureComposer {
	return &temperatureComposer{cfg: cfg}
}

func (c *temperatureComposer) Headline() string {
	return temperatureHeadlines[rand.Intn(len(temperatureHeadlines))]
}

// DailyText is the no-hourly-data mode. When the client derived the hour of
// the daily high it names it and classifies the day's shape from it;
// otherwise the direction comes from comparing the daily max against the
// midday reading.
func (c *temperatureComposer) DailyText(cond conditions.Condition, day models.DailySample, loc *time.Location) string {
	if day.TempMaxTime != 0 {
		if trend.ClassifyPeakHour(localHour(day.TempMaxTime, loc)) == trend.MorningPeak {
			return Collapse(fmt.Sprintf(
				"Temperatures will be heading down throughout {day}. The high of %d degrees will be hit early, around %s, and temps will get down to %d later in the day.",
				roundTemp(day.TempMax), spacedHourLabel(day.TempMaxTime, loc), roundTemp(day.TempMin)))
		}
		return Collapse(fmt.Sprintf(
			"The low {day} will be %d degrees and you should expect a high around %d at about %s.",
			roundTemp(day.TempMin), roundTemp(day.TempMax), spacedHourLabel(day.TempMaxTime, loc)))
	}
	if day.TempMax < day.TempDay {
		return Collapse(fmt.Sprintf(
			"Temperatures will be heading down throughout {day}. The high of %d degrees will be hit early and temps will get down to %d later in the day.",
			roundTemp(day.TempMax), roundTemp(day.TempMin)))
	}
	return Collapse(fmt.Sprintf(
		"The low {day} will be %d degrees and you should expect a high around %d later in the day.",
		roundTemp(day.TempMin), roundTemp(day.TempMax)))
}

// HourlyText is the hourly-aware mode. Spot readings for the end of the
// work day and late evening are appended when the series starts early
// enough for them to matter.
func (c *temperatureComposer) HourlyText(hours []models.HourlySample, day models.DailySample, loc *time.Location) string {
	if len(hours) == 0 {
		return ""
	}

	maxIdx, minIdx := 0, 0
	for i, h := range hours {
		if h.Temp > hours[maxIdx].Temp {
			maxIdx = i
		}
		if h.Temp < hours[minIdx].Temp {
			minIdx = i
		}
	}
	maxTemp := hours[maxIdx].Temp
	minTemp := hours[minIdx].Temp
	startHour := localHour(hours[0].Time, loc)

	var text []string
	switch trend.ClassifyPeakHour(localHour(hours[maxIdx].Time, loc)) {
	case trend.EveningPeak:
		text = append(text, fmt.Sprintf(
			"Temperatures {day} will be climbing through the evening, peaking at about %d degrees around %s.",
			roundTemp(maxTemp), spacedHourLabel(hours[maxIdx].Time, loc)))
		text = c.appendSpotReading(text, hours, loc, startHour, 17, "It'll be about %d at the end of the work day.")

	case trend.MorningPeak:
		text = append(text, fmt.Sprintf(
			"Temperatures will be heading down through {day} getting down to about %d degrees by %s.",
			roundTemp(minTemp), spacedHourLabel(hours[minIdx].Time, loc)))
		text = c.appendSpotReading(text, hours, loc, startHour, 17, "It'll be about %d at the end of the work day.")

	default:
		switch {
		case startHour < 11:
			text = append(text, fmt.Sprintf("You'll see a high of %d degrees {day} around %s.",
				roundTemp(maxTemp), spacedHourLabel(hours[maxIdx].Time, loc)))
			text = c.appendSpotReading(text, hours, loc, startHour, 17, "It'll be about %d at the end of the work day.")
		case startHour < 17:
			if t, ok := readingAt(hours, loc, 17); ok {
				text = append(text, fmt.Sprintf("It'll be about %d at the end of the work day", roundTemp(t)))
			}
			if t, ok := readingAt(hours, loc, 21); ok {
				text = append(text, fmt.Sprintf("and %d by 9 pm.", roundTemp(t)))
			}
		default:
			if t, ok := readingAt(hours, loc, 23); ok {
				text = append(text, fmt.Sprintf("It'll be %d around 11pm to finish out your day.", roundTemp(t)))
			}
		}
	}

	return Collapse(strings.Join(text, " "))
}

// appendSpotReading adds the clock-hour reading when the series started
// before the configured cutoff.
func (c *temperatureComposer) appendSpotReading(text []string, hours []models.HourlySample, loc *time.Location, startHour, at int, format string) []string {
	if startHour >= c.cfg.WorkdayCutoffHour {
		return text
	}
	if t, ok := readingAt(hours, loc, at); ok {
		text = append(text, fmt.Sprintf(format, roundTemp(t)))
	}
	return text
}

// readingAt returns the temperature of the first sample landing on the
// given local clock hour.
func readingAt(hours []models.HourlySample, loc *time.Location, clockHour int) (float64, bool) {
	for _, h := range hours {
		if localHour(h.Time, loc) == clockHour {
			return h.Temp, true
		}
	}
	return 0, false
}

func roundTemp(t float64) int {
	return int(math.Round(t))
}
