package itinerary

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/pkordes/tripplanner/internal/domain"
)

// Op names the kind of local mutation awaiting remote confirmation.
type Op string

const (
	OpCreateTrip     Op = "create_trip"
	OpAddActivity    Op = "add_activity"
	OpEditActivity   Op = "edit_activity"
	OpRemoveActivity Op = "remove_activity"
)

// Mutation is a local change that has been applied to the mirror and whose
// remote call has not finished yet. IDs are as they were when the change was
// made, so they may be placeholders.
type Mutation struct {
	ID         uint64    `json:"id"`
	Op         Op        `json:"op"`
	TripID     string    `json:"trip_id"`
	ActivityID string    `json:"activity_id,omitempty"`
	IssuedAt   time.Time `json:"issued_at"`
}

// SyncError reports a mutation whose remote call failed for good.
// By the time it is delivered the local change has been rolled back.
type SyncError struct {
	Mutation Mutation
	Err      error
}

func (e SyncError) Error() string {
	return fmt.Sprintf("itinerary: %s %s: %v", e.Mutation.Op, e.Mutation.TripID, e.Err)
}

// Unwrap exposes both domain.ErrSyncFailed and the store error to errors.Is.
func (e SyncError) Unwrap() []error {
	return []error{domain.ErrSyncFailed, e.Err}
}

// Pending returns the mutations still awaiting remote confirmation, oldest first.
func (m *Manager) Pending() []Mutation {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Mutation, 0, len(m.pending))
	for _, mut := range m.pending {
		out = append(out, mut)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

const (
	tripIDPrefix     = "trip-"
	activityIDPrefix = "activity-"
)

// newPlaceholderID returns a locally unique id for an entity the store has
// not assigned an id to yet.
func newPlaceholderID(prefix string) string {
	return prefix + uuid.NewString()
}

// IsPlaceholder reports whether id was generated locally and has not been
// replaced by a store id.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, tripIDPrefix) || strings.HasPrefix(id, activityIDPrefix)
}

// errNotPersisted means a queued call depends on an entity whose own insert
// failed. That failure has already been reported and rolled back.
var errNotPersisted = errors.New("entity was never persisted")

// enqueue records mut as pending and schedules call behind every call already
// queued for the entry's trip. rollback undoes the local change if call fails
// for good; it runs with m.mu held.
// Callers must hold m.mu.
func (m *Manager) enqueue(e *entry, mut Mutation, call func(ctx context.Context) error, rollback func()) {
	m.seq++
	mut.ID = m.seq
	mut.IssuedAt = time.Now().UTC()
	m.pending[mut.ID] = mut
	e.lastSeq = mut.ID

	prev := e.tail
	done := make(chan struct{})
	e.tail = done
	m.outstanding[done] = struct{}{}

	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.pending, mut.ID)
			delete(m.outstanding, done)
			m.mu.Unlock()
			close(done)
		}()

		if prev != nil {
			<-prev
		}

		ctx, cancel := context.WithTimeout(context.Background(), m.opts.Timeout)
		defer cancel()

		if err := m.withRetry(ctx, call); err != nil {
			m.fail(e, mut, err, rollback)
		}
	}()
}

// withRetry runs call, retrying transient failures with exponential backoff.
func (m *Manager) withRetry(ctx context.Context, call func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(m.opts.MaxRetries, retry.NewExponential(m.opts.Backoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := call(ctx)
		if err == nil || !retryable(err) {
			return err
		}
		return retry.RetryableError(err)
	})
}

// retryable reports whether another attempt could succeed. Missing rows,
// rejected input, and unpersisted dependencies will not fix themselves.
func retryable(err error) bool {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, errNotPersisted),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// fail rolls back a mutation whose remote call failed for good and reports it.
func (m *Manager) fail(e *entry, mut Mutation, err error, rollback func()) {
	m.mu.Lock()
	if e.removed || errors.Is(err, errNotPersisted) {
		m.mu.Unlock()
		// The trip is gone or the entity never reached the store; the
		// original failure was reported already.
		m.log.Debug("itinerary sync skipped",
			"op", mut.Op, "trip_id", mut.TripID, "activity_id", mut.ActivityID, "error", err)
		return
	}
	rollback()
	m.mu.Unlock()

	m.log.Error("itinerary sync failed, local change rolled back",
		"op", mut.Op,
		"trip_id", mut.TripID,
		"activity_id", mut.ActivityID,
		"error", err,
	)
	if m.opts.OnSyncError != nil {
		m.opts.OnSyncError(SyncError{Mutation: mut, Err: err})
	}
}

// storeTripID returns the store id of the entry's trip.
func (m *Manager) storeTripID(e *entry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if IsPlaceholder(e.trip.ID) {
		return "", fmt.Errorf("trip %s: %w", e.trip.ID, errNotPersisted)
	}
	return e.trip.ID, nil
}

// storeActivityID maps an activity id, possibly a placeholder, to its store id.
func (m *Manager) storeActivityID(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id = m.resolve(id)
	if IsPlaceholder(id) {
		return "", fmt.Errorf("activity %s: %w", id, errNotPersisted)
	}
	return id, nil
}

// reconcileTrip replaces a trip's placeholder id with the store id.
func (m *Manager) reconcileTrip(e *entry, placeholder, storeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.aliases[placeholder] = storeID
	if e.trip.ID == placeholder {
		e.trip.ID = storeID
	}
	if m.currentID == placeholder {
		m.currentID = storeID
	}
}

// reconcileActivity replaces an activity's placeholder id with the store id,
// wherever in the trip the activity currently is.
func (m *Manager) reconcileActivity(e *entry, placeholder, storeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.aliases[placeholder] = storeID
	for di := range e.trip.Days {
		acts := e.trip.Days[di].Activities
		if ai := e.trip.Days[di].ActivityIndex(placeholder); ai >= 0 {
			acts[ai].ID = storeID
			return
		}
	}
}
