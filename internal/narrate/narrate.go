// Package narrate turns classified conditions and hourly series into
// spoken-style forecast sentences. Each topic has a composer; composers are
// looked up through a static registry built at startup.
package narrate

import (
	"time"

	"go.uber.org/zap"

	"github.com/voxcast/forecast-narrator/internal/conditions"
	"github.com/voxcast/forecast-narrator/internal/models"
	"github.com/voxcast/forecast-narrator/internal/trend"
)

// Composer renders narration for one topic. Headline returns a template
// containing the {day} placeholder; DailyText and HourlyText return
// sentences that may also carry {day}, expanded later by the orchestrator
// in a single substitution pass. HourlyText may return "" when a topic has
// no hour-by-hour treatment; callers fall back to DailyText.
type Composer interface {
	Headline() string
	DailyText(cond conditions.Condition, day models.DailySample, loc *time.Location) string
	HourlyText(hours []models.HourlySample, day models.DailySample, loc *time.Location) string
}

// Config holds the narration tunables. These shifted between iterations of
// the reference behavior, so they are configuration rather than constants.
type Config struct {
	// RainNarrationMinProb is the daily probability below which rain gets
	// no narration at all.
	RainNarrationMinProb float64
	// RainActiveProb and RainActiveIntensity define an "active" rain hour
	// for episode detection.
	RainActiveProb      float64
	RainActiveIntensity float64
	// RainTrendMinProb filters negligible hours out of the regression.
	RainTrendMinProb float64
	// WorkdayCutoffHour gates the end-of-work-day spot reading: it is only
	// spoken when the series starts before this local hour.
	WorkdayCutoffHour int
	// Gates are the trend fit-quality and movement thresholds.
	Gates trend.Gates
}

// DefaultConfig returns the reference narration tunables.
func DefaultConfig() Config {
	return Config{
		RainNarrationMinProb: 0.1,
		RainActiveProb:       0.33,
		RainActiveIntensity:  0.03,
		RainTrendMinProb:     0.05,
		WorkdayCutoffHour:    16,
		Gates:                trend.DefaultGates(),
	}
}

// Registry is the static topic-to-composer dispatch table. A lookup miss is
// a classification gap handled by the caller, never a panic.
type Registry struct {
	composers map[conditions.Topic]Composer
	logger    *zap.Logger
}

// NewRegistry builds the dispatch table for all supported topics.
func NewRegistry(cfg Config, logger *zap.Logger) *Registry {
	return &Registry{
		logger: logger,
		composers: map[conditions.Topic]Composer{
			conditions.TopicRain:        newRainComposer(cfg),
			conditions.TopicTemperature: newTemperatureComposer(cfg),
			conditions.TopicSnow:        newGenericComposer(conditions.TopicSnow),
			conditions.TopicClouds:      newGenericComposer(conditions.TopicClouds),
			conditions.TopicWind:        newGenericComposer(conditions.TopicWind),
			conditions.TopicHumidity:    newGenericComposer(conditions.TopicHumidity),
			conditions.TopicAtmosphere:  newGenericComposer(conditions.TopicAtmosphere),
		},
	}
}

// Lookup returns the composer for a topic. A miss is logged so missing
// narration degrades one sentence, not the whole report.
func (r *Registry) Lookup(topic conditions.Topic) (Composer, bool) {
	c, ok := r.composers[topic]
	if !ok && r.logger != nil {
		r.logger.Debug("no composer for topic", zap.String("topic", string(topic)))
	}
	return c, ok
}
