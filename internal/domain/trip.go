// Package domain contains the core data types for the trip planner.
// It is imported by every other internal package (repo, itinerary, handler).
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used for trip and day dates
// everywhere they cross a boundary (JSON, remote rows, day identifiers).
const DateLayout = "2006-01-02"

// Trip is a user's planned journey: a date range, a budget, and one Day per
// calendar date in that range.
//
// SpentAmount is derived. It always equals Spent() after Recalculate; code that
// mutates Days must call Recalculate before publishing the trip.
type Trip struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Destination string          `json:"destination"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	Budget      decimal.Decimal `json:"budget"`
	SpentAmount decimal.Decimal `json:"spent_amount"`
	Days        []Day           `json:"days"`
	Preferences Preferences     `json:"preferences"`
}

// Day is one calendar date within a trip. Its ID is derived from the date so
// rebuilding the day sequence (e.g. after a reload) yields the same IDs.
type Day struct {
	ID         string     `json:"id"`
	Date       time.Time  `json:"date"`
	Activities []Activity `json:"activities"`
	Notes      string     `json:"notes"`
}

// NewTrip carries the fields a caller supplies when creating a trip.
type NewTrip struct {
	Title       string
	Destination string
	StartDate   time.Time
	EndDate     time.Time
	Budget      decimal.Decimal
}

// DayID returns the deterministic identifier for the day on the given date.
func DayID(date time.Time) string {
	return "day-" + date.Format(DateLayout)
}

// TruncateDate drops the wall-clock part of t and returns midnight UTC of the
// same calendar date.
func TruncateDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BuildDays returns one empty Day for every calendar date in [start, end].
// A single-day trip (start == end) yields exactly one day; an inverted range
// yields none.
func BuildDays(start, end time.Time) []Day {
	start, end = TruncateDate(start), TruncateDate(end)
	if end.Before(start) {
		return nil
	}
	days := make([]Day, 0, DayNumber(start, end))
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, Day{
			ID:         DayID(d),
			Date:       d,
			Activities: []Activity{},
		})
	}
	return days
}

// DayNumber returns the 1-based offset of date from start: the start date is
// day 1. The remote store indexes activities by this number.
func DayNumber(start, date time.Time) int {
	// Both operands are UTC midnights, so the difference is whole days.
	diff := TruncateDate(date).Sub(TruncateDate(start))
	return int(diff.Hours()/24) + 1
}

// Spent returns the sum of Cost over every activity on every day.
func (t Trip) Spent() decimal.Decimal {
	return lo.Reduce(t.Days, func(sum decimal.Decimal, d Day, _ int) decimal.Decimal {
		return sum.Add(d.Cost())
	}, decimal.Zero)
}

// Remaining returns the part of the budget not yet allocated to activities.
// It is negative when the trip is over budget.
func (t Trip) Remaining() decimal.Decimal {
	return t.Budget.Sub(t.Spent())
}

// Recalculate refreshes the derived SpentAmount field.
func (t *Trip) Recalculate() {
	t.SpentAmount = t.Spent()
}

// DayIndex returns the position of the day with the given ID, or -1.
func (t Trip) DayIndex(dayID string) int {
	_, i, ok := lo.FindIndexOf(t.Days, func(d Day) bool { return d.ID == dayID })
	if !ok {
		return -1
	}
	return i
}

// Clone returns a deep copy of the trip so callers can read it without
// racing later mutations.
func (t Trip) Clone() Trip {
	out := t
	out.Days = lo.Map(t.Days, func(d Day, _ int) Day {
		d.Activities = append([]Activity{}, d.Activities...)
		return d
	})
	out.Preferences = t.Preferences.Clone()
	return out
}

// Cost returns the sum of Cost over the day's activities.
func (d Day) Cost() decimal.Decimal {
	return lo.Reduce(d.Activities, func(sum decimal.Decimal, a Activity, _ int) decimal.Decimal {
		return sum.Add(a.Cost)
	}, decimal.Zero)
}

// ActivityIndex returns the position of the activity with the given ID, or -1.
func (d Day) ActivityIndex(activityID string) int {
	_, i, ok := lo.FindIndexOf(d.Activities, func(a Activity) bool { return a.ID == activityID })
	if !ok {
		return -1
	}
	return i
}

// DefaultMaxTripDays caps the length of a new trip when no limit is configured.
const DefaultMaxTripDays = 366

// ValidateNewTrip enforces the trip-creation rules.
//   - Title and destination must be non-empty (whitespace-only is rejected).
//   - Both dates are required and the end date must not precede the start date.
//   - The trip may span at most maxDays days; maxDays <= 0 means DefaultMaxTripDays.
//   - Budget must be greater than zero, in whole cents, and fit the store.
func ValidateNewTrip(in NewTrip, maxDays int) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(in.Destination) == "" {
		return fmt.Errorf("%w: destination is required", ErrValidation)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", ErrValidation)
	}
	if TruncateDate(in.EndDate).Before(TruncateDate(in.StartDate)) {
		return fmt.Errorf("%w: end_date must not be before start_date", ErrValidation)
	}
	if maxDays <= 0 {
		maxDays = DefaultMaxTripDays
	}
	if DayNumber(in.StartDate, in.EndDate) > maxDays {
		return fmt.Errorf("%w: a trip may span at most %d days", ErrValidation, maxDays)
	}
	if !in.Budget.IsPositive() {
		return fmt.Errorf("%w: budget must be greater than 0", ErrValidation)
	}
	return checkAmount("budget", in.Budget)
}
