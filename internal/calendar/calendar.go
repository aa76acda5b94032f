// Package calendar renders a trip itinerary as an iCalendar document.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/pkordes/tripplanner/internal/domain"
)

const productID = "-//tripplanner//itinerary//EN"

// Export returns the trip as an iCalendar feed with one event per activity.
// Trips carry no time zone, so start times are written as UTC wall-clock.
// now is used as the DTSTAMP of every event.
func Export(trip domain.Trip, now time.Time) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(trip.Title)

	for _, day := range trip.Days {
		for _, a := range day.Activities {
			start, err := startOf(day.Date, a.StartTime)
			if err != nil {
				return "", fmt.Errorf("calendar.Export: activity %s: %w", a.ID, err)
			}

			ev := cal.AddEvent(a.ID + "@tripplanner")
			ev.SetDtStampTime(now.UTC())
			ev.SetStartAt(start)
			ev.SetEndAt(start.Add(time.Duration(a.Duration) * time.Minute))
			ev.SetSummary(a.Name)
			if a.Location != "" {
				ev.SetLocation(a.Location)
			}
			if desc := describe(a); desc != "" {
				ev.SetDescription(desc)
			}
		}
	}
	return cal.Serialize(), nil
}

// startOf combines a day's date with an "HH:MM" start time.
func startOf(date time.Time, hhmm string) (time.Time, error) {
	clock, err := time.Parse(domain.TimeLayout, hhmm)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: start_time %q", domain.ErrValidation, hhmm)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, time.UTC), nil
}

func describe(a domain.Activity) string {
	var parts []string
	if a.Description != "" {
		parts = append(parts, a.Description)
	}
	if a.Cost.IsPositive() {
		parts = append(parts, "Cost: "+a.Cost.StringFixed(2))
	}
	if a.Notes != "" {
		parts = append(parts, "Notes: "+a.Notes)
	}
	return strings.Join(parts, "\n")
}
