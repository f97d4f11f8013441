// Package txcache implements the incremental transaction cache: normalization
// of raw explorer records, the (block, txIndex, hash) cursor order, daily and
// hourly aggregation, day completeness classification, gap detection, and the
// versioned on-disk cache artifact.
package txcache

import (
	"fmt"
	"time"
)

const (
	dayKeyLayout   = "2006-01-02"
	monthKeyLayout = "2006-01"
)

// DayKey returns the UTC calendar-day key (YYYY-MM-DD) for an instant.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayKeyLayout)
}

// MonthKey returns the UTC year-month key (YYYY-MM) for an instant.
func MonthKey(t time.Time) string {
	return t.UTC().Format(monthKeyLayout)
}

// HourOf returns the UTC hour (0-23) for an instant.
func HourOf(t time.Time) int {
	return t.UTC().Hour()
}

// MonthOfDay returns the year-month key a day key belongs to.
func MonthOfDay(dayKey string) string {
	if len(dayKey) < len(monthKeyLayout) {
		return dayKey
	}
	return dayKey[:len(monthKeyLayout)]
}

// ParseDayKey parses a YYYY-MM-DD key as midnight UTC.
func ParseDayKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(dayKeyLayout, key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q: %w", key, err)
	}
	return t, nil
}

// AddDays shifts a day key by n calendar days. Invalid keys are returned
// unchanged; callers only ever feed keys this package produced.
func AddDays(key string, n int) string {
	t, err := ParseDayKey(key)
	if err != nil {
		return key
	}
	return DayKey(t.AddDate(0, 0, n))
}

// DaysBetween returns the number of calendar days from a to b (positive when
// b is later). Both arguments are day keys.
func DaysBetween(a, b string) int {
	ta, errA := ParseDayKey(a)
	tb, errB := ParseDayKey(b)
	if errA != nil || errB != nil {
		return 0
	}
	return int(tb.Sub(ta).Hours() / 24)
}

// DayLabel renders a day key for humans, e.g. "Aug 7, 2025".
func DayLabel(key string) string {
	t, err := ParseDayKey(key)
	if err != nil {
		return key
	}
	return t.Format("Jan 2, 2006")
}

// MonthLabel renders a month key for humans, e.g. "August 2025".
func MonthLabel(key string) string {
	t, err := time.ParseInLocation(monthKeyLayout, key, time.UTC)
	if err != nil {
		return key
	}
	return t.Format("January 2006")
}
