package narrate

import (
	"regexp"
	"strings"
	"time"
)

// dayToken is the only placeholder the narration templates use. Expansion
// is a literal replace, not a template engine.
const dayToken = "{day}"

var multiSpace = regexp.MustCompile(`\s{2,}`)

// RenderDay substitutes the {day} placeholder with the resolved day label.
func RenderDay(text, day string) string {
	return strings.ReplaceAll(text, dayToken, day)
}

// Collapse squeezes runs of whitespace (including newlines left by sentence
// assembly) into single spaces and trims the ends.
func Collapse(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(strings.ReplaceAll(s, "\n", " "), " "))
}

// DayLabel resolves a date to its spoken label: "today", "tomorrow", a
// weekday name within the next week, or "that day".
func DayLabel(date, now time.Time, loc *time.Location) string {
	d := date.In(loc)
	n := now.In(loc)
	switch {
	case sameDate(d, n):
		return "today"
	case sameDate(d, n.AddDate(0, 0, 1)):
		return "tomorrow"
	case d.Sub(n) < 7*24*time.Hour:
		return d.Weekday().String()
	}
	return "that day"
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// hourLabel formats an epoch timestamp as "3pm" local time.
func hourLabel(epoch int64, loc *time.Location) string {
	return time.Unix(epoch, 0).In(loc).Format("3pm")
}

// spacedHourLabel formats an epoch timestamp as "3 pm" local time.
func spacedHourLabel(epoch int64, loc *time.Location) string {
	return time.Unix(epoch, 0).In(loc).Format("3 pm")
}

// localHour returns the local clock hour (0-23) of an epoch timestamp.
func localHour(epoch int64, loc *time.Location) int {
	return time.Unix(epoch, 0).In(loc).Hour()
}
