package narrate

import (
	"fmt"
	"time"

	"github.com/voxcast/forecast-narrator/internal/conditions"
	"github.com/voxcast/forecast-narrator/internal/models"
)

var genericHeadlines = map[conditions.Topic]string{
	conditions.TopicSnow:       "Bundle up, there's snow coming {day}!",
	conditions.TopicClouds:     "Look for some clouds {day}.",
	conditions.TopicWind:       "Hold onto your hat {day}!",
	conditions.TopicHumidity:   "It's going to feel sticky {day}.",
	conditions.TopicAtmosphere: "Keep an eye on the sky {day}.",
}

// genericComposer renders single-sentence narration for topics that need
// no episode or trend machinery: the sentence comes straight from the
// condition's description, probability, and level.
type genericComposer struct {
	topic conditions.Topic
}

func newGenericComposer(topic conditions.Topic) *genericComposer {
	return &genericComposer{topic: topic}
}

func (c *genericComposer) Headline() string {
	if h, ok := genericHeadlines[c.topic]; ok {
		return h
	}
	return "Some weather is headed your way {day}."
}

func (c *genericComposer) DailyText(cond conditions.Condition, day models.DailySample, loc *time.Location) string {
	if cond.Description == "" {
		return ""
	}
	if cond.Probability < 1 {
		return fmt.Sprintf("There is a %d percent chance of %s {day}.",
			roundPct(cond.Probability), cond.Description)
	}
	switch {
	case cond.Level >= 6:
		return fmt.Sprintf("Expect %s {day}, so plan ahead.", cond.Description)
	case cond.Level >= 3:
		return fmt.Sprintf("Expect %s {day}.", cond.Description)
	}
	return fmt.Sprintf("You may notice %s {day}.", cond.Description)
}

// HourlyText returns ""; generic topics have no hour-by-hour treatment and
// callers fall back to DailyText.
func (c *genericComposer) HourlyText(hours []models.HourlySample, day models.DailySample, loc *time.Location) string {
	return ""
}
