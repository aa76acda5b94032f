// Package itinerary keeps an in-memory mirror of one user's trips and keeps
// it in step with the remote trip store.
//
// Mutations are applied locally first, so callers see the result
// immediately, and confirmed remotely afterwards. Remote calls for one trip
// run one at a time in the order they were issued. A call that still fails
// after its retries has its local change rolled back and is reported through
// Options.OnSyncError.
package itinerary

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pkordes/tripplanner/internal/domain"
	"github.com/pkordes/tripplanner/internal/repo"
)

// Options tunes how a Manager talks to the remote store.
// The zero value is usable; unset fields take the defaults noted below.
type Options struct {
	// Logger receives sync failures and load warnings. Defaults to slog.Default().
	Logger *slog.Logger

	// MaxRetries is how many times a failed remote call is retried before the
	// local change is rolled back. Zero means a single attempt.
	MaxRetries uint64

	// Backoff is the base delay of the exponential retry backoff. Defaults to 200ms.
	Backoff time.Duration

	// Timeout bounds each remote call attempt sequence. Defaults to 15s.
	Timeout time.Duration

	// OnSyncError, if set, is called once for every mutation whose remote call
	// failed for good. It runs on the sync goroutine after the rollback.
	OnSyncError func(SyncError)

	// DisableAutoOpen stops LoadTrips from opening the newest trip when no
	// trip is open.
	DisableAutoOpen bool

	// MaxTripDays caps the length of trips created through CreateTrip.
	// Defaults to domain.DefaultMaxTripDays.
	MaxTripDays int
}

const (
	defaultBackoff = 200 * time.Millisecond
	defaultTimeout = 15 * time.Second
)

// entry is one trip in the mirror plus its sync bookkeeping.
type entry struct {
	trip domain.Trip

	// tail is closed when the most recently queued remote call for this trip
	// has finished. nil means nothing was ever queued.
	tail chan struct{}

	// removed is set once the entry has left the trip list, either by a
	// confirmed delete or by rolling back its creation.
	removed bool

	// lastSeq is the id of the newest mutation queued for this trip.
	lastSeq uint64
}

// Manager owns the itinerary state of a single signed-in user.
// All methods are safe for concurrent use.
type Manager struct {
	userID     string
	trips      repo.TripRepo
	activities repo.ActivityRepo
	log        *slog.Logger
	opts       Options

	mu          sync.Mutex
	state       []*entry
	currentID   string
	loading     int
	aliases     map[string]string // placeholder id -> store id
	pending     map[uint64]Mutation
	seq         uint64
	outstanding map[chan struct{}]struct{}
	deleted     map[string]uint64 // store id -> seq at which the delete was confirmed

	loads singleflight.Group
}

// NewManager constructs a Manager for userID backed by the given repos.
// The mirror starts empty; call LoadTrips to fill it from the store.
func NewManager(userID string, trips repo.TripRepo, activities repo.ActivityRepo, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Manager{
		userID:      userID,
		trips:       trips,
		activities:  activities,
		log:         opts.Logger.With("user_id", userID),
		opts:        opts,
		aliases:     map[string]string{},
		pending:     map[uint64]Mutation{},
		outstanding: map[chan struct{}]struct{}{},
		deleted:     map[string]uint64{},
	}
}

// UserID returns the identifier of the user whose trips this Manager holds.
func (m *Manager) UserID() string {
	return m.userID
}

// Trips returns a snapshot of every trip in the mirror, newest first.
func (m *Manager) Trips() []domain.Trip {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Trip, 0, len(m.state))
	for _, e := range m.state {
		out = append(out, e.trip.Clone())
	}
	return out
}

// Trip returns a snapshot of one trip. Placeholder ids keep working after the
// trip has been confirmed by the store.
// Returns domain.ErrNotFound if the trip is not in the mirror.
func (m *Manager) Trip(id string) (domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.find(id)
	if e == nil {
		return domain.Trip{}, fmt.Errorf("itinerary.Manager.Trip: %w", domain.ErrNotFound)
	}
	return e.trip.Clone(), nil
}

// Current returns a snapshot of the open trip, if any.
func (m *Manager) Current() (domain.Trip, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.current()
	if e == nil {
		return domain.Trip{}, false
	}
	return e.trip.Clone(), true
}

// OpenTrip makes the trip with the given id the open trip.
// Returns domain.ErrNotFound if the trip is not in the mirror.
func (m *Manager) OpenTrip(id string) (domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := m.find(id)
	if e == nil {
		return domain.Trip{}, fmt.Errorf("itinerary.Manager.OpenTrip: %w", domain.ErrNotFound)
	}
	m.currentID = e.trip.ID
	return e.trip.Clone(), nil
}

// CloseTrip clears the open trip.
func (m *Manager) CloseTrip() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentID = ""
}

// Loading reports whether a load or a trip deletion is in progress.
func (m *Manager) Loading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading > 0
}

func (m *Manager) setLoading(delta int) {
	m.mu.Lock()
	m.loading += delta
	m.mu.Unlock()
}

// Flush blocks until every remote call queued so far has finished, or ctx is done.
func (m *Manager) Flush(ctx context.Context) error {
	_, err := m.drain(ctx)
	return err
}

// drain waits for the calls outstanding right now and returns the newest
// mutation id at that moment. Every mutation up to that id has finished its
// remote call when drain returns without error.
func (m *Manager) drain(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	seq := m.seq
	waits := make([]chan struct{}, 0, len(m.outstanding))
	for ch := range m.outstanding {
		waits = append(waits, ch)
	}
	m.mu.Unlock()

	for _, ch := range waits {
		select {
		case <-ch:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	return seq, nil
}

// resolve maps a placeholder id to the store id that replaced it, if any.
// Callers must hold m.mu.
func (m *Manager) resolve(id string) string {
	if storeID, ok := m.aliases[id]; ok {
		return storeID
	}
	return id
}

// find returns the entry for a trip id or placeholder, or nil.
// Callers must hold m.mu.
func (m *Manager) find(id string) *entry {
	id = m.resolve(id)
	for _, e := range m.state {
		if e.trip.ID == id {
			return e
		}
	}
	return nil
}

// current returns the open trip's entry, or nil.
// Callers must hold m.mu.
func (m *Manager) current() *entry {
	if m.currentID == "" {
		return nil
	}
	return m.find(m.currentID)
}

// mutate applies fn to the entry's trip and refreshes its derived totals.
// Every change to a trip's days goes through here.
// Callers must hold m.mu.
func (m *Manager) mutate(e *entry, fn func(t *domain.Trip)) {
	fn(&e.trip)
	e.trip.Recalculate()
}

// drop removes the entry from the trip list and closes it if it was open.
// Callers must hold m.mu.
func (m *Manager) drop(e *entry) {
	for i, s := range m.state {
		if s == e {
			m.state = append(m.state[:i], m.state[i+1:]...)
			break
		}
	}
	if m.currentID == e.trip.ID {
		m.currentID = ""
	}
	e.removed = true
}
