// Package session keeps one store per browser session.
//
// A session store is hydrated from persistence the first time it is used and
// then lives in memory, writing every cart and favorites change through to
// storage. Idle sessions are evicted; the next request hydrates them again.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/language"

	"github.com/xenking/florist-storefront/internal/persist"
	"github.com/xenking/florist-storefront/internal/store"
)

// DefaultIdleTTL is how long an unused session stays in memory.
const DefaultIdleTTL = 30 * time.Minute

// Options configures a Registry.
type Options struct {
	// IdleTTL evicts sessions not used for this long. Zero selects
	// DefaultIdleTTL.
	IdleTTL         time.Duration
	// SweepInterval is how often Run evicts idle sessions. Zero selects half
	// of IdleTTL.
	SweepInterval   time.Duration
	CartMaxAge      time.Duration
	FavoritesMaxAge time.Duration
	Locale          language.Tag
	Logger          *zap.Logger
	Metrics         *persist.Metrics
}

type entry struct {
	store    *store.Store
	lastSeen time.Time
}

// Registry maps session ids to their stores.
type Registry struct {
	storage persist.Storage
	markers persist.Markers
	opts    Options
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
	group    singleflight.Group
}

// NewRegistry returns a Registry persisting through storage and markers.
func NewRegistry(storage persist.Storage, markers persist.Markers, opts Options) *Registry {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = DefaultIdleTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = opts.IdleTTL / 2
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Locale == language.Und {
		opts.Locale = language.English
	}
	return &Registry{
		storage:  storage,
		markers:  markers,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

// Get returns the store for id, hydrating it on first use. Concurrent first
// calls for the same id share one hydration.
func (r *Registry) Get(ctx context.Context, id string) *store.Store {
	if st, ok := r.lookup(id); ok {
		return st
	}

	v, _, _ := r.group.Do(id, func() (any, error) {
		if st, ok := r.lookup(id); ok {
			return st, nil
		}
		st := r.hydrate(context.WithoutCancel(ctx), id)

		r.mu.Lock()
		r.sessions[id] = &entry{store: st, lastSeen: r.now()}
		r.mu.Unlock()
		return st, nil
	})
	return v.(*store.Store)
}

// Len returns the number of sessions held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) lookup(id string) (*store.Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.store, true
}

func (r *Registry) hydrate(ctx context.Context, id string) *store.Store {
	lg := r.opts.Logger.With(zap.String("session", id))
	adapter := persist.New(r.storage, r.markers, persist.Options{
		Keys:            persist.SessionKeys(id),
		CartMaxAge:      r.opts.CartMaxAge,
		FavoritesMaxAge: r.opts.FavoritesMaxAge,
		Logger:          lg,
		Metrics:         r.opts.Metrics,
	})
	state := adapter.Hydrate(ctx)
	lg.Debug("Session hydrated",
		zap.Int("cart_lines", len(state.Cart)),
		zap.Int("favorites", len(state.Favorites)),
	)
	return store.New(state,
		store.WithObserver(adapter),
		store.WithLogger(lg),
		store.WithLocale(r.opts.Locale),
	)
}

// Sweep drops sessions idle since before now minus the idle TTL and returns
// how many were dropped. Their durable state is untouched.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, e := range r.sessions {
		if now.Sub(e.lastSeen) >= r.opts.IdleTTL {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps idle sessions periodically until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := r.Sweep(now); n > 0 {
				r.opts.Logger.Debug("Idle sessions evicted", zap.Int("count", n))
			}
		}
	}
}
