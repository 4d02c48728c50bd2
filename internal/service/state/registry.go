package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/elisaschroeder/eventease/internal/domain"
	"github.com/elisaschroeder/eventease/internal/service/session"
	"github.com/elisaschroeder/eventease/internal/storage"
)

type visitor struct {
	mu          sync.Mutex
	store       *Store
	initialized bool
	lastSeen    time.Time
}

// Registry keeps one Store per visitor. Calls for the same visitor run one
// at a time; different visitors proceed in parallel.
type Registry struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	kv        storage.KV
	catalog   Catalog
	logger    *slog.Logger
	now       func() time.Time
	idleAfter time.Duration
}

type RegistryOptions struct {
	Now       func() time.Time
	IdleAfter time.Duration
}

func NewRegistry(kv storage.KV, c Catalog, logger *slog.Logger, opts RegistryOptions) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IdleAfter <= 0 {
		opts.IdleAfter = domain.SessionTimeout
	}

	return &Registry{
		visitors:  make(map[string]*visitor),
		kv:        kv,
		catalog:   c,
		logger:    logger,
		now:       opts.Now,
		idleAfter: opts.IdleAfter,
	}
}

// Do runs fn against the visitor's store, creating and initializing the
// store on first use.
//
// Parameters:
//   - ctx: request-scoped context.
//   - clientID: the visitor; its persisted documents live under this prefix.
//   - fn: the work to run while holding the visitor.
//
// Returns:
//   - error: whatever fn returns.
func (r *Registry) Do(ctx context.Context, clientID string, fn func(s *Store) error) error {
	v := r.visitor(clientID)

	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.initialized {
		v.store.Initialize(ctx)
		v.initialized = true
	}
	v.lastSeen = r.now()

	return fn(v.store)
}

func (r *Registry) visitor(clientID string) *visitor {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.visitors[clientID]
	if !ok {
		tracker := session.NewTracker(
			storage.Scoped(r.kv, clientID),
			r.logger.With(slog.String("client_id", clientID)),
			session.Options{Now: r.now},
		)
		v = &visitor{store: NewStore(tracker, r.catalog, r.logger), lastSeen: r.now()}
		r.visitors[clientID] = v
	}

	return v
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.visitors)
}

// Sweep extends the sessions of visitors seen within the idle window and
// forgets the rest. It returns how many visitors were dropped.
func (r *Registry) Sweep(ctx context.Context) int {
	r.mu.Lock()
	ids := make([]string, 0, len(r.visitors))
	for id := range r.visitors {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	now := r.now()
	dropped := 0

	for _, id := range ids {
		r.mu.Lock()
		v, ok := r.visitors[id]
		r.mu.Unlock()
		if !ok {
			continue
		}

		v.mu.Lock()
		idle := now.Sub(v.lastSeen) > r.idleAfter
		if !idle && v.initialized {
			v.store.Tick(ctx)
		}
		v.mu.Unlock()

		if idle {
			r.mu.Lock()
			delete(r.visitors, id)
			r.mu.Unlock()
			dropped++
		}
	}

	if dropped > 0 {
		r.logger.DebugContext(ctx, "dropped idle visitors", "count", dropped)
	}

	return dropped
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		every = session.KeepAliveInterval
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}
