package assistant

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/pkordes/tripplanner/internal/domain"
)

// TravelContext is the read-only snapshot of a trip the assistant answers about.
type TravelContext struct {
	Destination        string
	Budget             decimal.Decimal
	SpentAmount        decimal.Decimal
	StartDate          string
	EndDate            string
	SelectedDay        string
	ExistingActivities []string // "Name (HH:MM)"
}

// Remaining returns the budget left after the planned activities.
func (c TravelContext) Remaining() decimal.Decimal {
	return c.Budget.Sub(c.SpentAmount)
}

// ContextFromTrip snapshots trip for the assistant. selectedDayID may be empty.
func ContextFromTrip(trip domain.Trip, selectedDayID string) TravelContext {
	existing := lo.FlatMap(trip.Days, func(d domain.Day, _ int) []string {
		return lo.Map(d.Activities, func(a domain.Activity, _ int) string {
			return fmt.Sprintf("%s (%s)", a.Name, a.StartTime)
		})
	})
	return TravelContext{
		Destination:        trip.Destination,
		Budget:             trip.Budget,
		SpentAmount:        trip.SpentAmount,
		StartDate:          trip.StartDate.Format(domain.DateLayout),
		EndDate:            trip.EndDate.Format(domain.DateLayout),
		SelectedDay:        selectedDayID,
		ExistingActivities: existing,
	}
}
