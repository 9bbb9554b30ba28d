// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/loan-tracker/pkg/constants"
)

const (
	// DateLayout is the format expected in config files and API payloads.
	DateLayout = constants.DateLayout

	// MonthLayout is the format used for month labels.
	MonthLayout = constants.MonthLayout
)

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	t, err := time.ParseInLocation(DateLayout, trimmed, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
	}
	return t, nil
}

// MustParseDate parses a date string and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseDate(value string) time.Time {
	t, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return t
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddMonths returns the date the given number of whole months after t. Day
// overflow normalizes forward, so Jan 31 plus one month lands in early March.
func AddMonths(t time.Time, months int) time.Time {
	return t.AddDate(0, months, 0)
}

// MonthWindow returns the half-open interval [from, to) covered by the given
// 1-based period of a schedule anchored at start.
func MonthWindow(start time.Time, period int) (from, to time.Time) {
	return AddMonths(start, period-1), AddMonths(start, period)
}

// InWindow reports whether date falls in the half-open interval [from, to).
func InWindow(date, from, to time.Time) bool {
	return !date.Before(from) && date.Before(to)
}

// IsProjected reports whether date lies strictly after the calendar day of asOf.
func IsProjected(date, asOf time.Time) bool {
	return Day(date).After(Day(asOf))
}

// FormatDate renders a date as YYYY-MM-DD, or "-" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(DateLayout)
}

// FormatMonth renders a date as YYYY-MM, or "-" for the zero time.
func FormatMonth(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(MonthLayout)
}
