package reconcile

import (
	"fmt"
	"time"
)

// DateLayout is the calendar key format used for every date in the system.
const DateLayout = "2006-01-02"

// LocalDateKey returns t's calendar date in the process's local time zone.
func LocalDateKey(t time.Time) string {
	return DateKeyIn(t, time.Local)
}

// DateKeyIn returns t's calendar date as seen in loc.
func DateKeyIn(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

// ParseDateKey validates a YYYY-MM-DD key. The returned time is midnight UTC and
// is only meant for calendar arithmetic.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.Parse(DateLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", key, err)
	}
	return t, nil
}

// AddDays shifts a date key by n calendar days.
func AddDays(key string, n int) (string, error) {
	t, err := ParseDateKey(key)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// RangeForLastNDays returns the inclusive [start, end] range that ends at asOf and
// starts n days earlier.
func RangeForLastNDays(n int, asOf string) (string, string, error) {
	if n < 0 {
		return "", "", fmt.Errorf("days must be non-negative, got %d", n)
	}
	start, err := AddDays(asOf, -n)
	if err != nil {
		return "", "", err
	}
	return start, asOf, nil
}
