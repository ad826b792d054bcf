package validation

import (
	"errors"
	"fmt"
	"time"
)

// MaxForecastDays is how far ahead the upstream forecast data extends.
const MaxForecastDays = 7

// ErrDateInvalid is returned when the requested date cannot be parsed.
var ErrDateInvalid = errors.New("please provide a valid date to check the weather for")

// ErrDateRange is returned when the requested date is parseable but outside
// the window the upstream data covers.
var ErrDateRange = errors.New("requested date out of range")

// dateLayouts are accepted request-date formats, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"1/2/2006",
}

// ParseDate parses a requested forecast date. An empty input means "today".
// The returned time is midnight local in loc.
func ParseDate(input string, now time.Time, loc *time.Location) (time.Time, error) {
	if input == "" {
		n := now.In(loc)
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrDateInvalid, input)
}

// ValidateRange rejects dates in the past or more than MaxForecastDays
// ahead of now. Errors are fatal to the request; messages carry the
// offending date.
func ValidateRange(date, now time.Time, loc *time.Location) error {
	n := now.In(loc)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, loc)
	d := date.In(loc)
	day := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)

	if day.Before(today) {
		return fmt.Errorf("%w: unable to get weather forecast for date in the past (%s)", ErrDateRange, day.Format("2006-01-02"))
	}
	if day.After(today.AddDate(0, 0, MaxForecastDays)) {
		return fmt.Errorf("%w: only able to get weather for dates within %d days of now (%s)", ErrDateRange, MaxForecastDays, day.Format("2006-01-02"))
	}
	return nil
}
