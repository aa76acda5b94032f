package itinerary_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/internal/repo"
)

// memStore is an in-memory stand-in for the remote trip store.
// It implements repo.TripRepo; activityStore wraps it as repo.ActivityRepo. Each on* hook, when
// set, runs before the store applies the call; a non-nil error is returned to
// the caller and the store is left unchanged. afterListByUser runs once the
// trip rows have been read, before they are returned.
type memStore struct {
	mu    sync.Mutex
	clock time.Time
	trips map[string]domain.TripRecord
	acts  map[string]domain.ActivityRecord
	calls []string

	onCreateTrip     func(rec domain.TripRecord) error
	onDeleteTrip     func(tripID string) error
	onListByUser     func() error
	afterListByUser  func()
	onCreateActivity func(rec domain.ActivityRecord) error
	onUpdateActivity func(rec domain.ActivityRecord) error
	onDeleteActivity func(activityID string) error
}

func newMemStore() *memStore {
	return &memStore{
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		trips: map[string]domain.TripRecord{},
		acts:  map[string]domain.ActivityRecord{},
	}
}

// compile-time check: memStore must satisfy repo.TripRepo.
var _ repo.TripRepo = (*memStore)(nil)

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

// Calls returns the names of the store methods invoked so far, in order.
func (s *memStore) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.calls...)
}

func (s *memStore) Create(_ context.Context, rec domain.TripRecord) (domain.TripRecord, error) {
	s.record("trips.Create")
	if s.onCreateTrip != nil {
		if err := s.onCreateTrip(rec); err != nil {
			return domain.TripRecord{}, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.tick()
	rec.UpdatedAt = rec.CreatedAt
	s.trips[rec.ID] = rec
	return rec, nil
}

func (s *memStore) ListByUser(_ context.Context, userID string) ([]domain.TripRecord, error) {
	s.record("trips.ListByUser")
	if s.onListByUser != nil {
		if err := s.onListByUser(); err != nil {
			return nil, err
		}
	}
	s.mu.Lock()
	out := []domain.TripRecord{}
	for _, t := range s.trips {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if s.afterListByUser != nil {
		s.afterListByUser()
	}
	return out, nil
}

func (s *memStore) Delete(_ context.Context, tripID, userID string) error {
	s.record("trips.Delete")
	if s.onDeleteTrip != nil {
		if err := s.onDeleteTrip(tripID); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[tripID]
	if !ok || t.UserID != userID {
		return domain.ErrNotFound
	}
	delete(s.trips, tripID)
	for id, a := range s.acts {
		if a.TripID == tripID {
			delete(s.acts, id)
		}
	}
	return nil
}

// activityStore adapts memStore to repo.ActivityRepo, whose method names
// collide with repo.TripRepo's.
type activityStore struct{ *memStore }

var _ repo.ActivityRepo = activityStore{}

func (a activityStore) Create(_ context.Context, rec domain.ActivityRecord) (domain.ActivityRecord, error) {
	s := a.memStore
	s.record("activities.Create")
	if s.onCreateActivity != nil {
		if err := s.onCreateActivity(rec); err != nil {
			return domain.ActivityRecord{}, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trips[rec.TripID]; !ok {
		return domain.ActivityRecord{}, domain.ErrNotFound
	}
	rec.ID = uuid.NewString()
	rec.CreatedAt = s.tick()
	rec.UpdatedAt = rec.CreatedAt
	s.acts[rec.ID] = rec
	return rec, nil
}

func (a activityStore) ListByTripIDs(_ context.Context, tripIDs []string) ([]domain.ActivityRecord, error) {
	s := a.memStore
	s.record("activities.ListByTripIDs")
	s.mu.Lock()
	defer s.mu.Unlock()
	want := map[string]bool{}
	for _, id := range tripIDs {
		want[id] = true
	}
	out := []domain.ActivityRecord{}
	for _, rec := range s.acts {
		if want[rec.TripID] {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DayNumber != out[j].DayNumber {
			return out[i].DayNumber < out[j].DayNumber
		}
		if out[i].OrderIndex != out[j].OrderIndex {
			return out[i].OrderIndex < out[j].OrderIndex
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (a activityStore) Update(_ context.Context, rec domain.ActivityRecord) (domain.ActivityRecord, error) {
	s := a.memStore
	s.record("activities.Update")
	if s.onUpdateActivity != nil {
		if err := s.onUpdateActivity(rec); err != nil {
			return domain.ActivityRecord{}, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.acts[rec.ID]
	if !ok {
		return domain.ActivityRecord{}, domain.ErrNotFound
	}
	cur.Name = rec.Name
	cur.Location = rec.Location
	cur.StartTime = rec.StartTime
	cur.Duration = rec.Duration
	cur.EstimatedCost = rec.EstimatedCost
	cur.Notes = rec.Notes
	cur.UpdatedAt = s.tick()
	s.acts[rec.ID] = cur
	return cur, nil
}

func (a activityStore) Delete(_ context.Context, activityID string) error {
	s := a.memStore
	s.record("activities.Delete")
	if s.onDeleteActivity != nil {
		if err := s.onDeleteActivity(activityID); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.acts[activityID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.acts, activityID)
	return nil
}

// Activities returns a copy of every stored activity row.
func (s *memStore) Activities() []domain.ActivityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ActivityRecord, 0, len(s.acts))
	for _, a := range s.acts {
		out = append(out, a)
	}
	return out
}

// TripCount returns the number of stored trip rows.
func (s *memStore) TripCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trips)
}
