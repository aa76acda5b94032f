package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/internal/itinerary"
	"github.com/pkordes/tripplanner/internal/repo"
	"github.com/pkordes/tripplanner/internal/session"
)

// mockTripRepo is a hand-written test double for repo.TripRepo.
// Each method is a function field; set only the ones your test needs.
type mockTripRepo struct {
	create     func(ctx context.Context, trip domain.TripRecord) (domain.TripRecord, error)
	listByUser func(ctx context.Context, userID string) ([]domain.TripRecord, error)
	delete     func(ctx context.Context, tripID, userID string) error
}

func (m *mockTripRepo) Create(ctx context.Context, trip domain.TripRecord) (domain.TripRecord, error) {
	return m.create(ctx, trip)
}
func (m *mockTripRepo) ListByUser(ctx context.Context, userID string) ([]domain.TripRecord, error) {
	return m.listByUser(ctx, userID)
}
func (m *mockTripRepo) Delete(ctx context.Context, tripID, userID string) error {
	return m.delete(ctx, tripID, userID)
}

var _ repo.TripRepo = (*mockTripRepo)(nil)

// emptyActivities is a repo.ActivityRepo with no rows.
type emptyActivities struct{ repo.ActivityRepo }

func (emptyActivities) ListByTripIDs(context.Context, []string) ([]domain.ActivityRecord, error) {
	return []domain.ActivityRecord{}, nil
}

func newRegistry(t *testing.T, trips repo.TripRepo, ttl time.Duration) *session.Registry {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := session.NewRegistry(ttl, func(userID string) *itinerary.Manager {
		return itinerary.NewManager(userID, trips, emptyActivities{}, itinerary.Options{Logger: log})
	}, log)
	t.Cleanup(r.Close)
	return r
}

func TestRegistry_Get_LoadsOnce(t *testing.T) {
	var loads atomic.Int32
	trips := &mockTripRepo{
		listByUser: func(_ context.Context, userID string) ([]domain.TripRecord, error) {
			loads.Add(1)
			return []domain.TripRecord{{
				ID: "a1b2", UserID: userID, Name: "Lisbon",
				StartDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2024, 9, 2, 0, 0, 0, 0, time.UTC),
			}}, nil
		},
	}
	r := newRegistry(t, trips, time.Minute)

	m1, err := r.Get(context.Background(), "user-1")
	require.NoError(t, err)
	m2, err := r.Get(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Same(t, m1, m2)
	assert.Equal(t, int32(1), loads.Load())
	assert.Len(t, m1.Trips(), 1)
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_Get_SeparateUsers(t *testing.T) {
	trips := &mockTripRepo{
		listByUser: func(context.Context, string) ([]domain.TripRecord, error) {
			return []domain.TripRecord{}, nil
		},
	}
	r := newRegistry(t, trips, time.Minute)

	a, err := r.Get(context.Background(), "user-a")
	require.NoError(t, err)
	b, err := r.Get(context.Background(), "user-b")
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, "user-a", a.UserID())
	assert.Equal(t, "user-b", b.UserID())
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_Get_RetriesFailedLoad(t *testing.T) {
	var calls atomic.Int32
	trips := &mockTripRepo{
		listByUser: func(context.Context, string) ([]domain.TripRecord, error) {
			if calls.Add(1) == 1 {
				return nil, errors.New("connection refused")
			}
			return []domain.TripRecord{}, nil
		},
	}
	r := newRegistry(t, trips, time.Minute)

	_, err := r.Get(context.Background(), "user-1")
	require.Error(t, err)

	_, err = r.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRegistry_Drop(t *testing.T) {
	var loads atomic.Int32
	trips := &mockTripRepo{
		listByUser: func(context.Context, string) ([]domain.TripRecord, error) {
			loads.Add(1)
			return []domain.TripRecord{}, nil
		},
	}
	r := newRegistry(t, trips, time.Minute)
	ctx := context.Background()

	_, err := r.Get(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, r.Drop(ctx, "user-1"))
	assert.Equal(t, 0, r.Len())
	require.NoError(t, r.Drop(ctx, "never-seen"))

	_, err = r.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), loads.Load())
}

func TestRegistry_FlushAll(t *testing.T) {
	trips := &mockTripRepo{
		listByUser: func(context.Context, string) ([]domain.TripRecord, error) {
			return []domain.TripRecord{}, nil
		},
		create: func(_ context.Context, rec domain.TripRecord) (domain.TripRecord, error) {
			rec.ID = "9a8b7c6d-0000-4000-8000-000000000001"
			return rec, nil
		},
	}
	r := newRegistry(t, trips, time.Minute)
	ctx := context.Background()

	m, err := r.Get(ctx, "user-1")
	require.NoError(t, err)
	_, err = m.CreateTrip(domain.NewTrip{
		Title: "Porto", Destination: "Porto, Portugal",
		StartDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 9, 3, 0, 0, 0, 0, time.UTC),
		Budget:    decimalOf(500),
	})
	require.NoError(t, err)

	require.NoError(t, r.FlushAll(ctx))
	assert.Empty(t, m.Pending())
	got, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "9a8b7c6d-0000-4000-8000-000000000001", got.ID)
}

func TestRegistry_KeepsSessionWithPendingSyncs(t *testing.T) {
	release := make(chan struct{})
	trips := &mockTripRepo{
		listByUser: func(context.Context, string) ([]domain.TripRecord, error) {
			return []domain.TripRecord{}, nil
		},
		create: func(_ context.Context, rec domain.TripRecord) (domain.TripRecord, error) {
			<-release
			rec.ID = "9a8b7c6d-0000-4000-8000-000000000002"
			return rec, nil
		},
	}
	const ttl = 20 * time.Millisecond
	r := newRegistry(t, trips, ttl)
	ctx := context.Background()

	m, err := r.Get(ctx, "user-1")
	require.NoError(t, err)
	_, err = m.CreateTrip(domain.NewTrip{
		Title: "Porto", Destination: "Porto, Portugal",
		StartDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 9, 3, 0, 0, 0, 0, time.UTC),
		Budget:    decimalOf(500),
	})
	require.NoError(t, err)

	time.Sleep(4 * ttl)
	again, err := r.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Same(t, m, again, "session with an unconfirmed insert must survive its ttl")
	assert.Len(t, again.Trips(), 1)

	close(release)
	require.NoError(t, m.Flush(ctx))
	assert.Eventually(t, func() bool { return r.Len() == 0 }, time.Second, ttl,
		"idle session with nothing pending should expire")
}

func TestRegistry_Drop_DoesNotKeepPendingSession(t *testing.T) {
	release := make(chan struct{})
	trips := &mockTripRepo{
		listByUser: func(context.Context, string) ([]domain.TripRecord, error) {
			return []domain.TripRecord{}, nil
		},
		create: func(_ context.Context, rec domain.TripRecord) (domain.TripRecord, error) {
			<-release
			rec.ID = "9a8b7c6d-0000-4000-8000-000000000003"
			return rec, nil
		},
	}
	r := newRegistry(t, trips, time.Minute)
	ctx := context.Background()

	m, err := r.Get(ctx, "user-1")
	require.NoError(t, err)
	_, err = m.CreateTrip(domain.NewTrip{
		Title: "Porto", Destination: "Porto, Portugal",
		StartDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
		Budget:    decimalOf(100),
	})
	require.NoError(t, err)

	dropped := make(chan error, 1)
	go func() { dropped <- r.Drop(ctx, "user-1") }()
	close(release)
	require.NoError(t, <-dropped)

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, m.Pending())
}

func decimalOf(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}
