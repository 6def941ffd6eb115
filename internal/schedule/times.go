package schedule

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ParseClock accepts HH:MM or HH:MM:SS.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		t, err = time.Parse("15:04:05", s)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid time %q", s)
		}
	}
	return t.Hour(), t.Minute(), nil
}

// CombineDateTime builds the class start instant from a calendar date and a
// slot clock time. Dates and times are kept in UTC; the gym's wall-clock
// convention is applied when rows are written, not when they are compared.
func CombineDateTime(date time.Time, clock string) (time.Time, error) {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC), nil
}
