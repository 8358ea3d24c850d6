package util

import (
	"fmt"
	"time"
)

// DateLayout is the ISO 8601 calendar date format accepted on every input.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO 8601 calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders t as an ISO 8601 calendar date in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// DaysBetween returns the whole number of calendar days from start to end.
func DaysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}
