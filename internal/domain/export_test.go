package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripplanner/internal/domain"
)

func TestExportRows(t *testing.T) {
	start := date(2024, 6, 1)
	trip := domain.Trip{
		ID: "trip-1", Title: "Tokyo Week", Destination: "Tokyo, Japan",
		StartDate: start, EndDate: date(2024, 6, 3),
		Days: domain.BuildDays(start, date(2024, 6, 3)),
	}
	trip.Days[1].Activities = []domain.Activity{
		{Name: "Meiji Shrine", Type: domain.ActivityCultural, StartTime: "10:00", Duration: 90, Cost: decimal.NewFromInt(50)},
		{Name: "Harajuku", Type: domain.ActivityShopping, StartTime: "13:00", Duration: 120, Cost: decimal.RequireFromString("12.5")},
	}
	trip.Days[2].Activities = []domain.Activity{
		{Name: "Ramen", Type: domain.ActivityRestaurant, StartTime: "19:00", Duration: 45, Notes: "cash only"},
	}

	rows := domain.ExportRows(trip)

	require.Len(t, rows, 3)
	assert.Equal(t, "Tokyo Week", rows[0].TripTitle)
	assert.Equal(t, "2024-06-01", rows[0].TripStartDate)
	assert.Equal(t, 2, rows[0].DayNumber)
	assert.Equal(t, "2024-06-02", rows[0].DayDate)
	assert.Equal(t, "50.00", rows[0].Cost)
	assert.Equal(t, "Harajuku", rows[1].ActivityName)
	assert.Equal(t, "12.50", rows[1].Cost)
	assert.Equal(t, 3, rows[2].DayNumber)
	assert.Equal(t, "restaurant", rows[2].ActivityType)
	assert.Equal(t, "cash only", rows[2].Notes)
}

func TestExportRows_NoActivities(t *testing.T) {
	trip := domain.Trip{
		ID: "trip-1", Title: "Empty", StartDate: date(2024, 6, 1), EndDate: date(2024, 6, 1),
		Days: domain.BuildDays(date(2024, 6, 1), date(2024, 6, 1)),
	}

	rows := domain.ExportRows(trip)

	require.Len(t, rows, 1)
	assert.Equal(t, "trip-1", rows[0].TripID)
	assert.Empty(t, rows[0].ActivityName)
	assert.Zero(t, rows[0].DayNumber)
}
