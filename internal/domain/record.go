package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TripRecord is one row of the remote trips table. It is the persistence
// shape, not the in-memory Trip: it has no days and no derived totals.
type TripRecord struct {
	ID          string
	UserID      string
	Name        string
	Destination string
	StartDate   time.Time
	EndDate     time.Time
	Budget      decimal.Decimal
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ActivityRecord is one row of the remote activities table.
// DayNumber is the 1-based offset of the activity's day from the trip start;
// the remote schema has no notion of day identifiers.
// Zero values stand in for NULL columns.
type ActivityRecord struct {
	ID            string
	TripID        string
	Name          string
	Location      string
	DayNumber     int
	StartTime     string
	Duration      int
	EstimatedCost decimal.Decimal
	Notes         string
	OrderIndex    int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
