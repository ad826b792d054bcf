// Package episode groups contiguous qualifying hours of a forecast series
// into discrete episodes, tracking each episode's peaks and timing.
package episode

import (
	"time"

	"github.com/voxcast/forecast-narrator/internal/models"
)

// Episode is a maximal contiguous run of hours where the activity predicate
// held. Peak fields track the strongest hour in the run; ties favor the
// later hour.
type Episode struct {
	StartTime        int64
	StartHour        string // local clock label, e.g. "7am"
	StartProbability float64
	Hours            int

	PeakProbability     float64
	PeakProbabilityTime int64
	PeakProbabilityHour string

	PeakIntensity     float64
	PeakIntensityTime int64
	PeakIntensityHour string
}

// ActiveFunc reports whether one hour qualifies as active for a topic.
type ActiveFunc func(models.HourlySample) bool

// HourLabel formats an epoch timestamp as a spoken clock label ("3pm") in
// the given location.
func HourLabel(epoch int64, loc *time.Location) string {
	return time.Unix(epoch, 0).In(loc).Format("3pm")
}

// Detect scans hours in order and returns the non-overlapping episodes where
// active held. An episode still open when the series ends is emitted. Every
// returned episode spans at least one hour.
func Detect(hours []models.HourlySample, active ActiveFunc, loc *time.Location) []Episode {
	var episodes []Episode
	var open *Episode

	for _, h := range hours {
		if !active(h) {
			if open != nil {
				episodes = append(episodes, *open)
				open = nil
			}
			continue
		}

		label := HourLabel(h.Time, loc)
		if open == nil {
			open = &Episode{
				StartTime:           h.Time,
				StartHour:           label,
				StartProbability:    h.PrecipProbability,
				Hours:               1,
				PeakProbability:     h.PrecipProbability,
				PeakProbabilityTime: h.Time,
				PeakProbabilityHour: label,
				PeakIntensity:       h.PrecipIntensity,
				PeakIntensityTime:   h.Time,
				PeakIntensityHour:   label,
			}
			continue
		}

		open.Hours++
		if h.PrecipIntensity >= open.PeakIntensity {
			open.PeakIntensity = h.PrecipIntensity
			open.PeakIntensityTime = h.Time
			open.PeakIntensityHour = label
		}
		if h.PrecipProbability >= open.PeakProbability {
			open.PeakProbability = h.PrecipProbability
			open.PeakProbabilityTime = h.Time
			open.PeakProbabilityHour = label
		}
	}

	if open != nil {
		episodes = append(episodes, *open)
	}
	return episodes
}
