// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"
	"time"

	"github.com/iwvelando/loan-tracker/pkg/constants"
	"github.com/iwvelando/loan-tracker/pkg/loans"
	"github.com/iwvelando/loan-tracker/pkg/mathutil"
)

// FindEntry finds the schedule entry paid on date.
// Returns a pointer to the entry if found, nil otherwise.
func FindEntry(schedule []loans.PaymentEntry, date time.Time) *loans.PaymentEntry {
	for i := range schedule {
		if schedule[i].Date.Equal(date) {
			return &schedule[i]
		}
	}
	return nil
}

// FindHistoryEvent finds the first history event of the given kind on date.
// Returns a pointer to the event if found, nil otherwise.
func FindHistoryEvent(history []loans.HistoryEvent, kind loans.EventKind, date time.Time) *loans.HistoryEvent {
	for i := range history {
		if history[i].Kind == kind && history[i].Date.Equal(date) {
			return &history[i]
		}
	}
	return nil
}

// WithinCent reports whether two amounts differ by at most one cent.
func WithinCent(a, b float64) bool {
	return mathutil.Round(math.Abs(a-b)) <= constants.CurrencyTolerance
}
