// Package forecast sequences classification, episode/trend analysis, and
// narration into the final multi-part report for one requested date.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/voxcast/forecast-narrator/internal/conditions"
	"github.com/voxcast/forecast-narrator/internal/models"
	"github.com/voxcast/forecast-narrator/internal/narrate"
	"github.com/voxcast/forecast-narrator/internal/observability"
	"github.com/voxcast/forecast-narrator/internal/validation"
)

// ErrNoData is returned when the payload's daily data does not cover the
// requested date.
var ErrNoData = errors.New("forecast data does not cover the requested date")

// Options holds orchestrator tunables.
type Options struct {
	// QuietCutoffHour: after this local hour on the current day, the
	// quiet-day fallback switches to "the rest of today" phrasing.
	QuietCutoffHour int
}

// DefaultOptions returns the reference orchestrator tunables.
func DefaultOptions() Options {
	return Options{QuietCutoffHour: 12}
}

// Builder assembles forecast reports. It is stateless across requests: all
// per-request state lives on the stack of Build.
type Builder struct {
	classifier *conditions.Classifier
	registry   *narrate.Registry
	opts       Options
	clock      clockwork.Clock
	logger     *zap.Logger
}

// NewBuilder wires a Builder. clock is injectable so today/tomorrow logic
// is testable; pass clockwork.NewRealClock() in production.
func NewBuilder(classifier *conditions.Classifier, registry *narrate.Registry, opts Options, clock clockwork.Clock, logger *zap.Logger) *Builder {
	if opts.QuietCutoffHour == 0 {
		opts.QuietCutoffHour = DefaultOptions().QuietCutoffHour
	}
	return &Builder{
		classifier: classifier,
		registry:   registry,
		opts:       opts,
		clock:      clock,
		logger:     logger,
	}
}

// Build validates the requested date, selects the report modes it needs,
// and assembles the result. dateInput may be empty, meaning today. Fatal
// errors return no partial report.
func (b *Builder) Build(payload models.Payload, dateInput string) (models.ForecastReport, error) {
	loc, err := time.LoadLocation(payload.Timezone)
	if err != nil {
		return models.ForecastReport{}, fmt.Errorf("payload timezone %q: %w", payload.Timezone, err)
	}

	now := b.clock.Now().In(loc)
	date, err := validation.ParseDate(dateInput, now, loc)
	if err != nil {
		return models.ForecastReport{}, err
	}
	if err := validation.ValidateRange(date, now, loc); err != nil {
		return models.ForecastReport{}, err
	}

	daily, ok := dailyFor(payload.Daily, date, loc)
	if !ok {
		return models.ForecastReport{}, fmt.Errorf("%w: %s", ErrNoData, date.Format("2006-01-02"))
	}

	isToday := sameLocalDate(now, date)
	isTomorrow := sameLocalDate(now.AddDate(0, 0, 1), date)
	dayLabel := narrate.DayLabel(date, now, loc)

	report := models.ForecastReport{
		Date:         date,
		DailySummary: b.narrative(daily, nil, loc, dayLabel, isToday, now),
	}

	if isToday || isTomorrow {
		if hours := sliceDay(payload.Hourly, date, loc); len(hours) > 0 {
			detail := b.narrative(daily, hours, loc, dayLabel, isToday, now)
			report.Detail = &detail
		}
	}
	if isToday {
		current := b.currently(payload, loc)
		report.Currently = &current
	}

	if b.logger != nil {
		b.logger.Debug("forecast built",
			zap.String("date", date.Format("2006-01-02")),
			zap.Bool("currently", report.Currently != nil),
			zap.Bool("detail", report.Detail != nil),
		)
	}
	return report, nil
}

// narrative builds one report section. With hours nil it is the daily
// summary; with hours present it is the hour-by-hour detail. Only the
// top-ranked condition contributes a headline; the temperature composer's
// output is always appended last, quiet day or not.
func (b *Builder) narrative(daily models.DailySample, hours []models.HourlySample, loc *time.Location, dayLabel string, isToday bool, now time.Time) models.Report {
	conds := b.classifier.Daily(daily, "")

	var parts []string
	condTexts := make(map[string]string)
	headlined := false

	for _, cond := range conds {
		if cond.Topic == conditions.TopicTemperature {
			continue
		}
		if _, done := condTexts[string(cond.Topic)]; done {
			continue
		}
		comp, ok := b.registry.Lookup(cond.Topic)
		if !ok {
			observability.ClassificationGapsTotal.WithLabelValues(string(cond.Topic)).Inc()
			continue
		}

		txt := b.topicText(comp, cond, daily, hours, loc)
		if txt == "" {
			continue
		}
		if !headlined {
			parts = append(parts, comp.Headline())
			headlined = true
		}
		parts = append(parts, txt)
		condTexts[string(cond.Topic)] = narrate.RenderDay(txt, dayLabel)
	}

	if len(parts) == 0 {
		parts = append(parts, b.quietSentence(isToday, now))
	}

	if comp, ok := b.registry.Lookup(conditions.TopicTemperature); ok {
		txt := b.topicText(comp, conditions.Condition{Topic: conditions.TopicTemperature}, daily, hours, loc)
		if txt != "" {
			parts = append(parts, txt)
			condTexts[string(conditions.TopicTemperature)] = narrate.RenderDay(txt, dayLabel)
		}
	}

	var data any = daily
	if hours != nil {
		data = hours
	}
	return models.Report{
		Data:       data,
		Conditions: condTexts,
		Forecast:   narrate.RenderDay(narrate.Collapse(strings.Join(parts, " ")), dayLabel),
	}
}

// topicText prefers the hourly renderer in detail mode and falls back to
// the daily renderer for topics without hour-by-hour treatment.
func (b *Builder) topicText(comp narrate.Composer, cond conditions.Condition, daily models.DailySample, hours []models.HourlySample, loc *time.Location) string {
	if hours != nil {
		if txt := comp.HourlyText(hours, daily, loc); txt != "" {
			return txt
		}
	}
	return comp.DailyText(cond, daily, loc)
}

func (b *Builder) quietSentence(isToday bool, now time.Time) string {
	if isToday && now.Hour() >= b.opts.QuietCutoffHour {
		return "The rest of today will be pretty quiet weather wise."
	}
	return "Looks like {day} will be pretty quiet weather wise."
}

// currently builds the right-now section: classified current conditions
// plus any active alerts, de-duplicated by event type.
func (b *Builder) currently(payload models.Payload, loc *time.Location) models.Report {
	current := payload.Current
	conds := b.classifier.Current(current, "")

	condTexts := make(map[string]string)
	desc := "clear skies"
	if len(conds) > 0 {
		desc = conds[0].Description
	}
	for _, c := range conds {
		if _, ok := condTexts[string(c.Topic)]; !ok {
			condTexts[string(c.Topic)] = c.Description
		}
	}

	parts := []string{fmt.Sprintf("Right now it's %d degrees with %s.", roundTemp(current.Temp), desc)}
	if math.Abs(current.FeelsLike-current.Temp) > 5 {
		parts = append(parts, fmt.Sprintf("It feels more like %d.", roundTemp(current.FeelsLike)))
	}

	seen := make(map[string]bool)
	for _, a := range payload.Alerts {
		if !a.Active(current.Time) || a.Event == "" || seen[a.Event] {
			continue
		}
		seen[a.Event] = true
		parts = append(parts, fmt.Sprintf("There is a %s in effect.", a.Event))
	}

	return models.Report{
		Data:       current,
		Conditions: condTexts,
		Forecast:   narrate.Collapse(strings.Join(parts, " ")),
	}
}

// dailyFor finds the daily sample whose local calendar date matches.
func dailyFor(daily []models.DailySample, date time.Time, loc *time.Location) (models.DailySample, bool) {
	for _, d := range daily {
		if sameLocalDate(time.Unix(d.Time, 0).In(loc), date) {
			return d, true
		}
	}
	return models.DailySample{}, false
}

// sliceDay returns the contiguous hourly run belonging to the target local
// calendar day: scan for the first match, then stop at the first mismatch.
func sliceDay(hours []models.HourlySample, date time.Time, loc *time.Location) []models.HourlySample {
	var out []models.HourlySample
	matched := false
	for _, h := range hours {
		if sameLocalDate(time.Unix(h.Time, 0).In(loc), date) {
			matched = true
			out = append(out, h)
			continue
		}
		if matched {
			break
		}
	}
	return out
}

func sameLocalDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func roundTemp(t float64) int {
	return int(math.Round(t))
}
