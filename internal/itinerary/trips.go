package itinerary

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/pkordes/tripplanner/internal/domain"
)

// CreateTrip adds a new trip to the front of the list and opens it.
// The trip is usable at once under a placeholder id; the remote insert runs
// in the background and swaps in the store id when it succeeds.
func (m *Manager) CreateTrip(in domain.NewTrip) (domain.Trip, error) {
	if err := domain.ValidateNewTrip(in, m.opts.MaxTripDays); err != nil {
		return domain.Trip{}, fmt.Errorf("itinerary.Manager.CreateTrip: %w", err)
	}

	t := domain.Trip{
		ID:          newPlaceholderID(tripIDPrefix),
		Title:       in.Title,
		Destination: in.Destination,
		StartDate:   domain.TruncateDate(in.StartDate),
		EndDate:     domain.TruncateDate(in.EndDate),
		Budget:      in.Budget,
		Days:        domain.BuildDays(in.StartDate, in.EndDate),
		Preferences: domain.DefaultPreferences(),
	}
	t.Recalculate()

	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{trip: t}
	m.state = append([]*entry{e}, m.state...)
	m.currentID = t.ID

	placeholder := t.ID
	rec := tripRecord(t, m.userID)
	m.enqueue(e, Mutation{Op: OpCreateTrip, TripID: placeholder},
		func(ctx context.Context) error {
			created, err := m.trips.Create(ctx, rec)
			if err != nil {
				return err
			}
			m.reconcileTrip(e, placeholder, created.ID)
			return nil
		},
		func() { m.drop(e) },
	)

	return t.Clone(), nil
}

// DeleteTrip removes a trip from the store and then from the mirror.
// Unlike other mutations it waits for the store: if the remote delete fails
// the trip stays in the list and the error is returned.
func (m *Manager) DeleteTrip(ctx context.Context, id string) error {
	m.setLoading(1)
	defer m.setLoading(-1)

	m.mu.Lock()
	e := m.find(id)
	if e == nil {
		m.mu.Unlock()
		return fmt.Errorf("itinerary.Manager.DeleteTrip: %w", domain.ErrNotFound)
	}
	tail := e.tail
	m.mu.Unlock()

	// Let queued calls for this trip land first so the store id is known
	// and no insert races the delete.
	if tail != nil {
		select {
		case <-tail:
		case <-ctx.Done():
			return fmt.Errorf("itinerary.Manager.DeleteTrip: %w", ctx.Err())
		}
	}

	m.mu.Lock()
	storeID := e.trip.ID
	gone := e.removed || IsPlaceholder(storeID)
	m.mu.Unlock()
	if gone {
		return fmt.Errorf("itinerary.Manager.DeleteTrip: %w", domain.ErrNotFound)
	}

	if err := m.trips.Delete(ctx, storeID, m.userID); err != nil {
		m.log.Error("trip delete failed", "trip_id", storeID, "error", err)
		return fmt.Errorf("itinerary.Manager.DeleteTrip: %w", err)
	}

	m.mu.Lock()
	if !e.removed {
		m.drop(e)
	}
	// A load that fetched before the delete must not bring the trip back.
	m.seq++
	m.deleted[storeID] = m.seq
	m.mu.Unlock()
	return nil
}

// LoadTrips replaces the mirror with the user's trips as stored remotely,
// newest first. Queued remote calls are drained before the fetch. Trips
// changed while the fetch is in flight keep their local state. Concurrent
// calls share a single fetch.
//
// Preferences are not stored remotely, so a trip that was already in the
// mirror keeps its preferences. If no trip is open afterwards, the newest
// trip is opened unless Options.DisableAutoOpen is set.
func (m *Manager) LoadTrips(ctx context.Context) error {
	_, err, _ := m.loads.Do("load", func() (any, error) {
		return nil, m.load(ctx)
	})
	return err
}

func (m *Manager) load(ctx context.Context) error {
	m.setLoading(1)
	defer m.setLoading(-1)

	seq, err := m.drain(ctx)
	if err != nil {
		return fmt.Errorf("itinerary.Manager.LoadTrips: flush: %w", err)
	}

	recs, err := m.trips.ListByUser(ctx, m.userID)
	if err != nil {
		return fmt.Errorf("itinerary.Manager.LoadTrips: trips: %w", err)
	}
	ids := lo.Map(recs, func(r domain.TripRecord, _ int) string { return r.ID })
	acts, err := m.activities.ListByTripIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("itinerary.Manager.LoadTrips: activities: %w", err)
	}
	byTrip := lo.GroupBy(acts, func(a domain.ActivityRecord) string { return a.TripID })

	m.mu.Lock()
	defer m.mu.Unlock()

	// Entries touched after the drain were changed while the fetch was in
	// flight, so the rows may predate them. Their local state wins.
	newer := func(e *entry) bool { return e.lastSeq > seq }

	existing := make(map[string]*entry, len(m.state))
	next := make([]*entry, 0, len(recs))
	for _, e := range m.state {
		// Created since the flush; the store does not know about it yet.
		if IsPlaceholder(e.trip.ID) {
			next = append(next, e)
			continue
		}
		existing[e.trip.ID] = e
	}

	// Confirmed by the store after the fetch started, so possibly missing
	// from the rows. Newest first, like the rows.
	for _, e := range m.state {
		if IsPlaceholder(e.trip.ID) || !newer(e) {
			continue
		}
		if !lo.ContainsBy(recs, func(r domain.TripRecord) bool { return r.ID == e.trip.ID }) {
			next = append(next, e)
			delete(existing, e.trip.ID)
		}
	}

	for _, rec := range recs {
		if at, ok := m.deleted[rec.ID]; ok && at > seq {
			continue
		}

		prefs := domain.DefaultPreferences()
		e, ok := existing[rec.ID]
		if ok {
			prefs = e.trip.Preferences
			delete(existing, rec.ID)
			if newer(e) {
				next = append(next, e)
				continue
			}
		}

		t, dropped := tripFromRecord(rec, byTrip[rec.ID], prefs)
		if dropped > 0 {
			m.log.Warn("activities outside trip date range skipped",
				"trip_id", rec.ID, "count", dropped)
		}

		if ok {
			e.trip = t
		} else {
			e = &entry{trip: t}
		}
		next = append(next, e)
	}

	for _, e := range existing {
		e.removed = true
	}
	m.state = next

	for id, at := range m.deleted {
		if at <= seq {
			delete(m.deleted, id)
		}
	}

	if m.currentID != "" && m.current() == nil {
		m.currentID = ""
	}
	if m.currentID == "" && !m.opts.DisableAutoOpen && len(m.state) > 0 {
		m.currentID = m.state[0].trip.ID
	}

	m.log.Debug("trips loaded", "trips", len(recs), "activities", len(acts))
	return nil
}

// UpdatePreferences merges patch into the open trip's preferences and
// returns the result. Preferences are kept in memory only.
func (m *Manager) UpdatePreferences(patch domain.PreferencesPatch) (domain.Preferences, error) {
	if err := patch.Validate(); err != nil {
		return domain.Preferences{}, fmt.Errorf("itinerary.Manager.UpdatePreferences: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.current()
	if e == nil {
		return domain.Preferences{}, fmt.Errorf("itinerary.Manager.UpdatePreferences: %w", domain.ErrNoOpenTrip)
	}
	e.trip.Preferences = patch.Apply(e.trip.Preferences)
	return e.trip.Preferences.Clone(), nil
}
