package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ActivityType is the category of a planned activity.
type ActivityType string

const (
	ActivityAttraction     ActivityType = "attraction"
	ActivityRestaurant     ActivityType = "restaurant"
	ActivityAccommodation  ActivityType = "accommodation"
	ActivityTransportation ActivityType = "transportation"
	ActivityEntertainment  ActivityType = "entertainment"
	ActivityShopping       ActivityType = "shopping"
	ActivityOutdoor        ActivityType = "outdoor"
	ActivityCultural       ActivityType = "cultural"
)

// ActivityTypes lists every valid ActivityType in display order.
var ActivityTypes = []ActivityType{
	ActivityAttraction,
	ActivityRestaurant,
	ActivityAccommodation,
	ActivityTransportation,
	ActivityEntertainment,
	ActivityShopping,
	ActivityOutdoor,
	ActivityCultural,
}

// Valid reports whether t is one of the known categories.
func (t ActivityType) Valid() bool {
	for _, v := range ActivityTypes {
		if t == v {
			return true
		}
	}
	return false
}

// MinActivityDuration is the shortest duration, in minutes, an activity may have.
const MinActivityDuration = 15

// TimeLayout is the wall-clock format of Activity.StartTime.
const TimeLayout = "15:04"

// Activity is a single planned event within a Day. It is owned by exactly one
// Day and carries no back-reference to it.
type Activity struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Type             ActivityType    `json:"type"`
	Description      string          `json:"description"`
	Location         string          `json:"location"`
	StartTime        string          `json:"start_time"` // "15:04", no date
	Duration         int             `json:"duration"`   // minutes
	Cost             decimal.Decimal `json:"cost"`
	Notes            string          `json:"notes"`
	IsRecommendation bool            `json:"is_recommendation,omitempty"`
}

// ValidateActivity enforces business rules common to adding and editing an activity.
//   - Name must be non-empty (whitespace-only names are rejected).
//   - Type must be one of ActivityTypes.
//   - StartTime must be a "HH:MM" wall-clock time.
//   - Duration must be at least MinActivityDuration minutes.
//   - Cost must not be negative, must be in whole cents, and must fit the store.
func ValidateActivity(a Activity) error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("%w: unknown activity type %q", ErrValidation, a.Type)
	}
	if _, err := time.Parse(TimeLayout, a.StartTime); err != nil {
		return fmt.Errorf("%w: start_time must be HH:MM", ErrValidation)
	}
	if a.Duration < MinActivityDuration {
		return fmt.Errorf("%w: duration must be at least %d minutes", ErrValidation, MinActivityDuration)
	}
	if a.Cost.IsNegative() {
		return fmt.Errorf("%w: cost cannot be negative", ErrValidation)
	}
	return checkAmount("cost", a.Cost)
}
