package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the requested trip, day, or activity does not
// exist, either in the in-memory itinerary or in the remote store.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (e.g. missing required field, end date before start date, negative cost).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrNoOpenTrip is returned by activity and preference operations when the
// caller has not opened a trip yet.
var ErrNoOpenTrip = errors.New("no trip is open")

// ErrUnauthenticated is returned when an operation requires a signed-in user
// and none is present, or when the identity provider rejects the credentials.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrSyncFailed wraps the final error of a remote call that exhausted its
// retries. The local change it belonged to has been rolled back.
var ErrSyncFailed = errors.New("remote sync failed")

// validationf builds an ErrValidation-wrapped error with a formatted detail message.
func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
