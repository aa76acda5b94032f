package itinerary

import (
	"context"
	"errors"
	"fmt"

	"github.com/pkordes/tripplanner/internal/domain"
)

// AddActivity appends an activity to a day of the open trip and returns it
// with its placeholder id. The remote insert runs in the background.
func (m *Manager) AddActivity(dayID string, a domain.Activity) (domain.Activity, error) {
	if err := domain.ValidateActivity(a); err != nil {
		return domain.Activity{}, fmt.Errorf("itinerary.Manager.AddActivity: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, di, err := m.openDay(dayID)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("itinerary.Manager.AddActivity: %w", err)
	}

	a.ID = newPlaceholderID(activityIDPrefix)
	day := e.trip.Days[di]
	dayNumber := domain.DayNumber(e.trip.StartDate, day.Date)
	order := len(day.Activities)

	m.mutate(e, func(t *domain.Trip) {
		t.Days[di].Activities = append(t.Days[di].Activities, a)
	})

	placeholder := a.ID
	m.enqueue(e, Mutation{Op: OpAddActivity, TripID: e.trip.ID, ActivityID: placeholder},
		func(ctx context.Context) error {
			tripID, err := m.storeTripID(e)
			if err != nil {
				return err
			}
			created, err := m.activities.Create(ctx, activityRecord(a, tripID, dayNumber, order))
			if err != nil {
				return err
			}
			m.reconcileActivity(e, placeholder, created.ID)
			return nil
		},
		func() { m.removeActivity(e, m.resolve(placeholder)) },
	)

	return a, nil
}

// RemoveActivity deletes an activity from a day of the open trip. Removing an
// activity or day that does not exist changes nothing and is not an error.
func (m *Manager) RemoveActivity(dayID, activityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, di, err := m.openDay(dayID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("itinerary.Manager.RemoveActivity: %w", err)
	}

	ai := e.trip.Days[di].ActivityIndex(m.resolve(activityID))
	if ai < 0 {
		return nil
	}
	removed := e.trip.Days[di].Activities[ai]
	m.removeActivity(e, removed.ID)

	m.enqueue(e, Mutation{Op: OpRemoveActivity, TripID: e.trip.ID, ActivityID: removed.ID},
		func(ctx context.Context) error {
			id, err := m.storeActivityID(removed.ID)
			if err != nil {
				return err
			}
			err = m.activities.Delete(ctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				// Already gone remotely, which is the outcome we wanted.
				return nil
			}
			return err
		},
		func() { m.restoreActivity(e, e.trip.DayIndex(dayID), ai, removed) },
	)
	return nil
}

// EditActivity replaces an activity of the open trip with a, keeping its id.
// Returns domain.ErrNotFound if the day or the activity does not exist.
func (m *Manager) EditActivity(dayID, activityID string, a domain.Activity) error {
	if err := domain.ValidateActivity(a); err != nil {
		return fmt.Errorf("itinerary.Manager.EditActivity: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, di, err := m.openDay(dayID)
	if err != nil {
		return fmt.Errorf("itinerary.Manager.EditActivity: %w", err)
	}
	ai := e.trip.Days[di].ActivityIndex(m.resolve(activityID))
	if ai < 0 {
		return fmt.Errorf("itinerary.Manager.EditActivity: activity %s: %w", activityID, domain.ErrNotFound)
	}

	prev := e.trip.Days[di].Activities[ai]
	a.ID = prev.ID
	m.mutate(e, func(t *domain.Trip) {
		t.Days[di].Activities[ai] = a
	})

	m.enqueue(e, Mutation{Op: OpEditActivity, TripID: e.trip.ID, ActivityID: a.ID},
		func(ctx context.Context) error {
			id, err := m.storeActivityID(a.ID)
			if err != nil {
				return err
			}
			rec := activityRecord(a, "", 0, 0)
			rec.ID = id
			_, err = m.activities.Update(ctx, rec)
			return err
		},
		func() { m.revertActivity(e, dayID, a, prev) },
	)
	return nil
}

// openDay returns the open trip's entry and the index of the given day in it.
// Callers must hold m.mu.
func (m *Manager) openDay(dayID string) (*entry, int, error) {
	e := m.current()
	if e == nil {
		return nil, 0, domain.ErrNoOpenTrip
	}
	di := e.trip.DayIndex(dayID)
	if di < 0 {
		return nil, 0, fmt.Errorf("day %s: %w", dayID, domain.ErrNotFound)
	}
	return e, di, nil
}

// removeActivity drops the activity with the given id from whichever day
// holds it. Callers must hold m.mu.
func (m *Manager) removeActivity(e *entry, id string) {
	for di := range e.trip.Days {
		if ai := e.trip.Days[di].ActivityIndex(id); ai >= 0 {
			m.mutate(e, func(t *domain.Trip) {
				acts := t.Days[di].Activities
				t.Days[di].Activities = append(acts[:ai:ai], acts[ai+1:]...)
			})
			return
		}
	}
}

// restoreActivity puts a removed activity back at its old position, or at
// the end of the day if the day has since shrunk. Callers must hold m.mu.
func (m *Manager) restoreActivity(e *entry, di, ai int, a domain.Activity) {
	if di < 0 {
		return
	}
	m.mutate(e, func(t *domain.Trip) {
		acts := t.Days[di].Activities
		ai = min(ai, len(acts))
		out := make([]domain.Activity, 0, len(acts)+1)
		out = append(out, acts[:ai]...)
		out = append(out, a)
		t.Days[di].Activities = append(out, acts[ai:]...)
	})
}

// revertActivity undoes an edit unless a later edit has replaced it already.
// Callers must hold m.mu.
func (m *Manager) revertActivity(e *entry, dayID string, applied, prev domain.Activity) {
	di := e.trip.DayIndex(dayID)
	if di < 0 {
		return
	}
	ai := e.trip.Days[di].ActivityIndex(m.resolve(applied.ID))
	if ai < 0 || !sameActivity(e.trip.Days[di].Activities[ai], applied) {
		return
	}
	m.mutate(e, func(t *domain.Trip) {
		prev.ID = t.Days[di].Activities[ai].ID
		t.Days[di].Activities[ai] = prev
	})
}

// sameActivity compares two activities field by field, ignoring their ids.
func sameActivity(x, y domain.Activity) bool {
	return x.Name == y.Name &&
		x.Type == y.Type &&
		x.Description == y.Description &&
		x.Location == y.Location &&
		x.StartTime == y.StartTime &&
		x.Duration == y.Duration &&
		x.Cost.Equal(y.Cost) &&
		x.Notes == y.Notes &&
		x.IsRecommendation == y.IsRecommendation
}
