package domain

// ExportRow is a single row in the flat itinerary export.
// It is a denormalized view: one row per activity, with trip and day fields
// repeated for every activity. Days with no activities are omitted; a trip
// with no activities at all yields one row with empty day and activity fields.
type ExportRow struct {
	// Trip fields, repeated for every activity on the trip.
	TripID        string
	TripTitle     string
	Destination   string
	TripStartDate string // "2006-01-02"
	TripEndDate   string // "2006-01-02"

	// Day fields, empty when the trip has no activities.
	DayNumber int
	DayDate   string

	// Activity fields, zero values when the trip has no activities.
	ActivityName string
	ActivityType string
	Location     string
	StartTime    string
	Duration     int
	Cost         string
	Notes        string
}

// ExportRows flattens a trip into export rows, ordered by day then by the
// activity order within the day.
func ExportRows(t Trip) []ExportRow {
	base := ExportRow{
		TripID:        t.ID,
		TripTitle:     t.Title,
		Destination:   t.Destination,
		TripStartDate: t.StartDate.Format(DateLayout),
		TripEndDate:   t.EndDate.Format(DateLayout),
	}

	rows := []ExportRow{}
	for _, d := range t.Days {
		for _, a := range d.Activities {
			r := base
			r.DayNumber = DayNumber(t.StartDate, d.Date)
			r.DayDate = d.Date.Format(DateLayout)
			r.ActivityName = a.Name
			r.ActivityType = string(a.Type)
			r.Location = a.Location
			r.StartTime = a.StartTime
			r.Duration = a.Duration
			r.Cost = a.Cost.StringFixed(2)
			r.Notes = a.Notes
			rows = append(rows, r)
		}
	}
	if len(rows) == 0 {
		rows = append(rows, base)
	}
	return rows
}
