package narrate

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/voxcast/forecast-narrator/internal/conditions"
	"github.com/voxcast/forecast-narrator/internal/episode"
	"github.com/voxcast/forecast-narrator/internal/models"
	"github.com/voxcast/forecast-narrator/internal/trend"
)

var rainHeadlines = []string{
	"Don't forget your umbrella {day}!",
	"Remember the umbrella {day}.",
	"Prepare for some wet weather {day}.",
	"It's going to be wet {day}.",
	"You'll need the umbrella {day}.",
}

type rainComposer struct {
	cfg Config
}

func newRainComposer(cfg Config) *rainComposer {
	return &rainComposer{cfg: cfg}
}

func (c *rainComposer) Headline() string {
	return rainHeadlines[rand.Intn(len(rainHeadlines))]
}

// DailyText narrates a day's rain from its aggregate sample. Days below the
// narration threshold get no rain sentence at all.
func (c *rainComposer) DailyText(cond conditions.Condition, day models.DailySample, loc *time.Location) string {
	if day.PrecipProbability < c.cfg.RainNarrationMinProb {
		return ""
	}

	precipType := day.PrecipType
	if precipType == "" {
		precipType = "rain"
	}
	peak := hourLabel(day.PrecipIntensityMaxTime, loc)
	return Collapse(fmt.Sprintf(
		"You should expect %s %s peaking at around %s. There is a %d percent chance overall.",
		intensityWord(day.PrecipIntensityMax), precipType, peak,
		roundPct(day.PrecipProbability),
	))
}

// HourlyText narrates a day's rain hour by hour: one trend sentence at most,
// a multiple-chances note, one sentence per episode, and a closing sentence
// at the hour of the globally heaviest episode.
func (c *rainComposer) HourlyText(hours []models.HourlySample, day models.DailySample, loc *time.Location) string {
	var text []string

	var xs, ys []float64
	var firstActive, lastActive int64
	for _, h := range hours {
		if h.PrecipProbability > c.cfg.RainTrendMinProb {
			xs = append(xs, float64(localHour(h.Time, loc)))
			ys = append(ys, h.PrecipProbability)
			if firstActive == 0 {
				firstActive = h.Time
			}
			lastActive = h.Time
		}
	}

	episodes := episode.Detect(hours, func(h models.HourlySample) bool {
		if h.PrecipType == "snow" || h.PrecipType == "sleet" {
			return false
		}
		return h.PrecipProbability > c.cfg.RainActiveProb &&
			h.PrecipIntensity > c.cfg.RainActiveIntensity
	}, loc)

	if s := c.trendSentence(xs, ys, firstActive, lastActive, loc); s != "" {
		text = append(text, s)
	}

	if len(episodes) > 1 {
		text = append(text, "It looks like there will be multiple rain chances {day}.")
	}

	var heaviest *episode.Episode
	for i := range episodes {
		ep := &episodes[i]
		if i == 0 {
			s := fmt.Sprintf("Chances are good for rain starting about %s with a %d percent chance",
				ep.StartHour, roundPct(ep.StartProbability))
			if ep.StartHour == ep.PeakProbabilityHour || ep.StartProbability == ep.PeakProbability {
				s += "."
			} else {
				s += fmt.Sprintf(" rising to %d percent at %s.",
					roundPct(ep.PeakProbability), ep.PeakProbabilityHour)
			}
			text = append(text, s)
		} else {
			text = append(text, fmt.Sprintf(
				"There's another chance beginning about %s peaking at %s with a %d percent chance.",
				ep.StartHour, ep.PeakProbabilityHour, roundPct(ep.PeakProbability)))
		}
		if heaviest == nil || ep.PeakIntensity > heaviest.PeakIntensity {
			heaviest = ep
		}
	}
	if heaviest != nil {
		text = append(text, fmt.Sprintf("The heaviest bit should be around %s.", heaviest.PeakIntensityHour))
	}

	return Collapse(strings.Join(text, " "))
}

// trendSentence fits the filtered probability series and speaks at most one
// trend claim. Fit-quality failures and the unclassified movement band both
// fall through silently.
func (c *rainComposer) trendSentence(xs, ys []float64, firstActive, lastActive int64, loc *time.Location) string {
	if len(xs) < 2 {
		return ""
	}
	fit, err := trend.FitLine(xs, ys)
	if err != nil {
		return ""
	}
	switch trend.Classify(fit, xs[0], xs[len(xs)-1], c.cfg.Gates) {
	case trend.Increasing:
		return "There is an increasing rain chance through {day}."
	case trend.Decreasing:
		return "Rain chances decrease through {day}."
	case trend.Steady:
		return fmt.Sprintf("Chances for rain are pretty steady from about %s through %s.",
			hourLabel(firstActive, loc), hourLabel(lastActive, loc))
	}
	return ""
}

// intensityWord maps a peak hourly intensity to its spoken weight. The
// table is ordered; first match wins.
func intensityWord(intensity float64) string {
	switch {
	case intensity > 0.7:
		return "extremely heavy"
	case intensity > 0.2:
		return "heavy"
	case intensity > 0.07:
		return "moderate"
	case intensity > 0.01:
		return "light"
	case intensity > 0:
		return "drizzling"
	}
	return "no"
}

func roundPct(p float64) int {
	return int(math.Round(p * 100))
}
