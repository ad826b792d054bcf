package narrate

import (
	"strings"
	"testing"
	"time"

	"github.com/voxcast/forecast-narrator/internal/conditions"
	"github.com/voxcast/forecast-narrator/internal/models"
)

func tempHourAt(h int, temp float64) models.HourlySample {
	return models.HourlySample{Time: base + int64(h)*3600, Temp: temp}
}

func TestTemperatureDailyText(t *testing.T) {
	c := newTemperatureComposer(DefaultConfig())

	normal := models.DailySample{TempMin: 55.4, TempMax: 78.6, TempDay: 74}
	got := c.DailyText(conditions.Condition{}, normal, time.UTC)
	want := "The low {day} will be 55 degrees and you should expect a high around 79 later in the day."
	if got != want {
		t.Errorf("DailyText = %q, want %q", got, want)
	}

	falling := models.DailySample{TempMin: 40, TempMax: 60, TempDay: 65}
	got = c.DailyText(conditions.Condition{}, falling, time.UTC)
	if !strings.Contains(got, "heading down throughout {day}") ||
		!strings.Contains(got, "high of 60 degrees will be hit early") ||
		!strings.Contains(got, "down to 40 later in the day") {
		t.Errorf("DailyText = %q, want falling-day wording", got)
	}
}

// TestTemperatureDailyText_PeakHour verifies the derived hour of the daily
// high, when present, names the peak and picks the day's shape.
func TestTemperatureDailyText_PeakHour(t *testing.T) {
	c := newTemperatureComposer(DefaultConfig())

	afternoon := models.DailySample{
		TempMin:     55,
		TempMax:     78,
		TempDay:     74,
		TempMaxTime: base + 15*3600,
	}
	got := c.DailyText(conditions.Condition{}, afternoon, time.UTC)
	want := "The low {day} will be 55 degrees and you should expect a high around 78 at about 3 pm."
	if got != want {
		t.Errorf("DailyText = %q, want %q", got, want)
	}

	morning := models.DailySample{
		TempMin:     40,
		TempMax:     60,
		TempDay:     55,
		TempMaxTime: base + 9*3600,
	}
	got = c.DailyText(conditions.Condition{}, morning, time.UTC)
	if !strings.Contains(got, "heading down throughout {day}") ||
		!strings.Contains(got, "high of 60 degrees will be hit early, around 9 am") {
		t.Errorf("DailyText = %q, want morning-peak wording with the hour", got)
	}
}

// TestTemperatureHourlyText_EveningPeak covers the still-climbing shape: the
// high lands after 17:00 local.
func TestTemperatureHourlyText_EveningPeak(t *testing.T) {
	c := newTemperatureComposer(DefaultConfig())
	var hours []models.HourlySample
	for h := 8; h <= 21; h++ {
		hours = append(hours, tempHourAt(h, 50+float64(h))) // max at 9pm
	}
	got := c.HourlyText(hours, models.DailySample{}, time.UTC)
	if !strings.Contains(got, "climbing through the evening, peaking at about 71 degrees around 9 pm") {
		t.Errorf("HourlyText = %q, want evening-peak wording", got)
	}
	if !strings.Contains(got, "It'll be about 67 at the end of the work day.") {
		t.Errorf("HourlyText = %q, want 5pm spot reading", got)
	}
}

// TestTemperatureHourlyText_MorningPeak covers the heading-down shape.
func TestTemperatureHourlyText_MorningPeak(t *testing.T) {
	c := newTemperatureComposer(DefaultConfig())
	var hours []models.HourlySample
	for h := 8; h <= 21; h++ {
		hours = append(hours, tempHourAt(h, 80-float64(h))) // max at 8am, min at 9pm
	}
	got := c.HourlyText(hours, models.DailySample{}, time.UTC)
	if !strings.Contains(got, "heading down through {day} getting down to about 59 degrees by 9 pm") {
		t.Errorf("HourlyText = %q, want morning-peak wording", got)
	}
	if !strings.Contains(got, "It'll be about 63 at the end of the work day.") {
		t.Errorf("HourlyText = %q, want 5pm spot reading", got)
	}
}

// TestTemperatureHourlyText_MiddayPeak covers the ordinary shape with an
// early series start.
func TestTemperatureHourlyText_MiddayPeak(t *testing.T) {
	c := newTemperatureComposer(DefaultConfig())
	var hours []models.HourlySample
	for h := 7; h <= 21; h++ {
		temp := 60.0
		if h == 15 {
			temp = 82
		}
		hours = append(hours, tempHourAt(h, temp))
	}
	got := c.HourlyText(hours, models.DailySample{}, time.UTC)
	if !strings.Contains(got, "You'll see a high of 82 degrees {day} around 3 pm.") {
		t.Errorf("HourlyText = %q, want midday-peak wording", got)
	}
	if !strings.Contains(got, "It'll be about 60 at the end of the work day.") {
		t.Errorf("HourlyText = %q, want 5pm spot reading", got)
	}
}

// TestTemperatureHourlyText_AfternoonStart covers a series starting mid-day:
// spot readings only, no high announcement.
func TestTemperatureHourlyText_AfternoonStart(t *testing.T) {
	c := newTemperatureComposer(DefaultConfig())
	var hours []models.HourlySample
	for h := 13; h <= 23; h++ {
		hours = append(hours, tempHourAt(h, 90-float64(h))) // falling afternoon
	}
	got := c.HourlyText(hours, models.DailySample{}, time.UTC)
	want := "It'll be about 73 at the end of the work day and 69 by 9 pm."
	if got != want {
		t.Errorf("HourlyText = %q, want %q", got, want)
	}
}

// TestTemperatureHourlyText_EveningStart covers the late-day remainder: only
// the 11pm reading is worth speaking.
func TestTemperatureHourlyText_EveningStart(t *testing.T) {
	c := newTemperatureComposer(DefaultConfig())
	var hours []models.HourlySample
	for h := 18; h <= 23; h++ {
		hours = append(hours, tempHourAt(h, 80-float64(h)))
	}
	got := c.HourlyText(hours, models.DailySample{}, time.UTC)
	want := "It'll be 57 around 11pm to finish out your day."
	if got != want {
		t.Errorf("HourlyText = %q, want %q", got, want)
	}
}

func TestTemperatureHourlyText_Empty(t *testing.T) {
	c := newTemperatureComposer(DefaultConfig())
	if got := c.HourlyText(nil, models.DailySample{}, time.UTC); got != "" {
		t.Errorf("HourlyText = %q, want empty for no hours", got)
	}
}

// TestTemperatureSpotReadingCutoff verifies the work-day reading is dropped
// when the series starts at or after the cutoff hour.
func TestTemperatureSpotReadingCutoff(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorkdayCutoffHour = 10
	c := newTemperatureComposer(cfg)
	var hours []models.HourlySample
	for h := 10; h <= 21; h++ {
		hours = append(hours, tempHourAt(h, 50+float64(h))) // evening peak
	}
	got := c.HourlyText(hours, models.DailySample{}, time.UTC)
	if strings.Contains(got, "end of the work day") {
		t.Errorf("HourlyText = %q, spot reading should be dropped past the cutoff", got)
	}
}

func TestGenericDailyText(t *testing.T) {
	tests := []struct {
		name string
		cond conditions.Condition
		want string
	}{
		{
			"probabilistic",
			conditions.Condition{Description: "snow", Probability: 0.4, Level: 6},
			"There is a 40 percent chance of snow {day}.",
		},
		{
			"severe certain",
			conditions.Condition{Description: "dangerously windy", Probability: 1, Level: 9},
			"Expect dangerously windy {day}, so plan ahead.",
		},
		{
			"moderate certain",
			conditions.Condition{Description: "overcast skies", Probability: 1, Level: 3},
			"Expect overcast skies {day}.",
		},
		{
			"mild certain",
			conditions.Condition{Description: "a half moon", Probability: 1, Level: 0.5},
			"You may notice a half moon {day}.",
		},
		{
			"no description",
			conditions.Condition{Probability: 1, Level: 5},
			"",
		},
	}
	c := newGenericComposer(conditions.TopicWind)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.DailyText(tt.cond, models.DailySample{}, time.UTC); got != tt.want {
				t.Errorf("DailyText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry(DefaultConfig(), nil)
	for _, topic := range []conditions.Topic{
		conditions.TopicRain, conditions.TopicSnow, conditions.TopicClouds,
		conditions.TopicWind, conditions.TopicTemperature,
		conditions.TopicHumidity, conditions.TopicAtmosphere,
	} {
		if _, ok := r.Lookup(topic); !ok {
			t.Errorf("no composer registered for %v", topic)
		}
	}
	if _, ok := r.Lookup(conditions.Topic("seismic")); ok {
		t.Error("unknown topic should miss")
	}
}
