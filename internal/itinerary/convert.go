package itinerary

import (
	"github.com/pkordes/tripplanner/internal/domain"
)

// Defaults for activity fields the remote store leaves NULL or does not keep.
const (
	defaultStartTime = "09:00"
	defaultDuration  = 60
	defaultType      = domain.ActivityAttraction
)

// tripFromRecord rebuilds a Trip from its row and its activity rows.
// Activities are placed on the day whose number matches their day_number;
// rows pointing outside the trip's date range are skipped and counted.
func tripFromRecord(rec domain.TripRecord, acts []domain.ActivityRecord, prefs domain.Preferences) (domain.Trip, int) {
	t := domain.Trip{
		ID:          rec.ID,
		Title:       rec.Name,
		Destination: rec.Destination,
		StartDate:   domain.TruncateDate(rec.StartDate),
		EndDate:     domain.TruncateDate(rec.EndDate),
		Budget:      rec.Budget,
		Days:        domain.BuildDays(rec.StartDate, rec.EndDate),
		Preferences: prefs,
	}

	dropped := 0
	for _, a := range acts {
		i := a.DayNumber - 1
		if i < 0 || i >= len(t.Days) {
			dropped++
			continue
		}
		t.Days[i].Activities = append(t.Days[i].Activities, activityFromRecord(a))
	}
	t.Recalculate()
	return t, dropped
}

func activityFromRecord(rec domain.ActivityRecord) domain.Activity {
	a := domain.Activity{
		ID:        rec.ID,
		Name:      rec.Name,
		Type:      defaultType,
		Location:  rec.Location,
		StartTime: rec.StartTime,
		Duration:  rec.Duration,
		Cost:      rec.EstimatedCost,
		Notes:     rec.Notes,
	}
	if a.StartTime == "" {
		a.StartTime = defaultStartTime
	}
	if a.Duration <= 0 {
		a.Duration = defaultDuration
	}
	return a
}

// activityRecord is the row written for a on the given day of trip tripID.
func activityRecord(a domain.Activity, tripID string, dayNumber, order int) domain.ActivityRecord {
	return domain.ActivityRecord{
		ID:            a.ID,
		TripID:        tripID,
		Name:          a.Name,
		Location:      a.Location,
		DayNumber:     dayNumber,
		StartTime:     a.StartTime,
		Duration:      a.Duration,
		EstimatedCost: a.Cost,
		Notes:         a.Notes,
		OrderIndex:    order,
	}
}

func tripRecord(t domain.Trip, userID string) domain.TripRecord {
	return domain.TripRecord{
		ID:          t.ID,
		UserID:      userID,
		Name:        t.Title,
		Destination: t.Destination,
		StartDate:   t.StartDate,
		EndDate:     t.EndDate,
		Budget:      t.Budget,
	}
}
