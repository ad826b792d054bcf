package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, time.June, 10, 14, 30, 0, 0, time.UTC)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"iso date", "2026-06-12", time.Date(2026, time.June, 12, 0, 0, 0, 0, time.UTC)},
		{"rfc3339", "2026-06-12T09:30:00Z", time.Date(2026, time.June, 12, 0, 0, 0, 0, time.UTC)},
		{"us slashes", "6/12/2026", time.Date(2026, time.June, 12, 0, 0, 0, 0, time.UTC)},
		{"empty means today", "", time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input, testNow, time.UTC)
			if err != nil {
				t.Fatalf("ParseDate(%q): %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate_TruncatesToMidnight(t *testing.T) {
	got, err := ParseDate("2026-06-12T18:45:00Z", testNow, time.UTC)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("ParseDate = %v, want midnight", got)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, input := range []string{"not-a-date", "06-12", "12th of June", "2026/06/12"} {
		_, err := ParseDate(input, testNow, time.UTC)
		if !errors.Is(err, ErrDateInvalid) {
			t.Errorf("ParseDate(%q): err = %v, want ErrDateInvalid", input, err)
		}
		if err != nil && !strings.Contains(err.Error(), "valid date") {
			t.Errorf("ParseDate(%q): message %q should ask for a valid date", input, err)
		}
	}
}

func TestValidateRange(t *testing.T) {
	day := func(offset int) time.Time {
		return time.Date(2026, time.June, 10+offset, 0, 0, 0, 0, time.UTC)
	}
	tests := []struct {
		name        string
		date        time.Time
		wantErr     bool
		wantMessage string
	}{
		{"today", day(0), false, ""},
		{"tomorrow", day(1), false, ""},
		{"window edge", day(7), false, ""},
		{"yesterday", day(-1), true, "past"},
		{"last month", time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC), true, "past"},
		{"past the window", day(8), true, "7 days"},
		{"far future", time.Date(2027, time.January, 1, 0, 0, 0, 0, time.UTC), true, "7 days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRange(tt.date, testNow, time.UTC)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("ValidateRange: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrDateRange) {
				t.Fatalf("err = %v, want ErrDateRange", err)
			}
			if !strings.Contains(err.Error(), tt.wantMessage) {
				t.Errorf("message %q should mention %q", err, tt.wantMessage)
			}
			if !strings.Contains(err.Error(), tt.date.Format("2006-01-02")) {
				t.Errorf("message %q should carry the offending date", err)
			}
		})
	}
}

// TestValidateRange_TimeOfDayIgnored verifies the comparison happens on
// calendar days, so late evening today never reads as the past.
func TestValidateRange_TimeOfDayIgnored(t *testing.T) {
	almostMidnight := time.Date(2026, time.June, 10, 23, 59, 0, 0, time.UTC)
	today := time.Date(2026, time.June, 10, 0, 0, 0, 0, time.UTC)
	if err := ValidateRange(today, almostMidnight, time.UTC); err != nil {
		t.Errorf("ValidateRange: %v, want nil for today at any clock time", err)
	}
}
