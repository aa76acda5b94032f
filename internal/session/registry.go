// Package session keeps one itinerary.Manager per signed-in user.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/pkordes/tripplanner/internal/itinerary"
)

// Factory builds the Manager for a user the first time they are seen.
type Factory func(userID string) *itinerary.Manager

type session struct {
	m       *itinerary.Manager
	loaded  atomic.Bool
	dropped atomic.Bool
}

// Registry hands out per-user Managers. A Manager is created lazily, filled
// from the store on first use, and forgotten after ttl without requests.
// A session whose Manager still has unconfirmed changes is not forgotten
// until they have been confirmed or rolled back.
type Registry struct {
	mu      sync.Mutex // guards lookups against evictions
	items   *cache.Cache
	factory Factory
	log     *slog.Logger

	stop      chan struct{}
	closeOnce sync.Once
}

// NewRegistry returns a Registry whose idle sessions expire after ttl.
// Call Close to stop its background sweep.
func NewRegistry(ttl time.Duration, factory Factory, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	r := &Registry{
		// No janitor: sweep evicts under r.mu instead.
		items:   cache.New(ttl, 0),
		factory: factory,
		log:     log,
		stop:    make(chan struct{}),
	}
	r.items.OnEvicted(r.evicted)
	if ttl > 0 {
		go r.sweep(ttl)
	}
	return r
}

// evicted runs for every session leaving the cache, always with r.mu held.
// An expired session with pending syncs goes straight back in.
func (r *Registry) evicted(userID string, v any) {
	s := v.(*session)
	if !s.dropped.Load() {
		if n := len(s.m.Pending()); n > 0 {
			r.items.SetDefault(userID, s)
			r.log.Debug("session kept open for pending syncs", "user_id", userID, "pending", n)
			return
		}
	}
	r.log.Debug("session closed", "user_id", userID)
}

func (r *Registry) sweep(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			r.mu.Lock()
			r.items.DeleteExpired()
			r.mu.Unlock()
		case <-r.stop:
			return
		}
	}
}

// Close stops the background sweep. Sessions stay usable.
func (r *Registry) Close() {
	r.closeOnce.Do(func() { close(r.stop) })
}

// Get returns the user's Manager, creating it and loading their trips if
// this is the first request since the session started or expired.
func (r *Registry) Get(ctx context.Context, userID string) (*itinerary.Manager, error) {
	s := r.lookup(userID)
	if s.loaded.Load() {
		return s.m, nil
	}
	if err := s.m.LoadTrips(ctx); err != nil {
		return nil, fmt.Errorf("session.Registry.Get: %w", err)
	}
	s.loaded.Store(true)
	return s.m, nil
}

// lookup returns the user's session, creating it if needed, and resets its
// idle timer.
func (r *Registry) lookup(userID string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.items.Get(userID)
	if !ok {
		// Get ignores expired items the sweep has not reached yet; evict
		// them now so a session with pending syncs is found again.
		r.items.DeleteExpired()
		v, ok = r.items.Get(userID)
	}
	if ok {
		s := v.(*session)
		r.items.SetDefault(userID, s)
		return s
	}
	s := &session{m: r.factory(userID)}
	r.items.SetDefault(userID, s)
	r.log.Debug("session started", "user_id", userID)
	return s
}

// Drop waits for the user's queued syncs and forgets their Manager.
// Dropping an unknown user is a no-op.
func (r *Registry) Drop(ctx context.Context, userID string) error {
	r.mu.Lock()
	r.items.DeleteExpired()
	v, ok := r.items.Get(userID)
	if ok {
		v.(*session).dropped.Store(true)
		r.items.Delete(userID)
	}
	r.mu.Unlock()
	if !ok {
		return nil
	}
	if err := v.(*session).m.Flush(ctx); err != nil {
		return fmt.Errorf("session.Registry.Drop: %w", err)
	}
	return nil
}

// FlushAll waits for the queued syncs of every live session.
func (r *Registry) FlushAll(ctx context.Context) error {
	r.mu.Lock()
	r.items.DeleteExpired()
	items := r.items.Items()
	r.mu.Unlock()

	for userID, item := range items {
		if err := item.Object.(*session).m.Flush(ctx); err != nil {
			return fmt.Errorf("session.Registry.FlushAll: %s: %w", userID, err)
		}
	}
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.items.ItemCount()
}
