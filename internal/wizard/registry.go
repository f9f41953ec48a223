package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"willvault/api/internal/persist"
)

var ErrSessionNotFound = errors.New("wizard session not found")

// Registry owns the live stores of one process, keyed by session id.
type Registry struct {
	deps Deps

	mu     sync.Mutex
	stores map[string]*Store
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps.withDefaults(), stores: make(map[string]*Store)}
}

// Open returns the live store for sessionID, creating and restoring one when
// needed. An empty sessionID starts a fresh session.
func (r *Registry) Open(ctx context.Context, sessionID string, who persist.Identity) (*Store, bool) {
	if sessionID != "" {
		r.mu.Lock()
		existing, ok := r.stores[sessionID]
		r.mu.Unlock()
		if ok {
			// a signed-in session never changes hands
			if cur := existing.Identity(); !cur.Authenticated || cur.UserID == who.UserID {
				existing.SetAuthStatus(who.Authenticated, who.UserID)
			}
			return existing, true
		}
	}

	store := New(r.deps)
	store.SetAuthStatus(who.Authenticated, who.UserID)
	restored := store.InitializeSession(ctx, sessionID)

	r.mu.Lock()
	defer r.mu.Unlock()
	id := store.SessionID()
	if existing, ok := r.stores[id]; ok {
		// lost a race with a concurrent Open of the same id
		go store.Dispose(context.Background())
		return existing, true
	}
	r.stores[id] = store
	return store, restored
}

func (r *Registry) Get(sessionID string) (*Store, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return store, nil
}

// Clear wipes the session's state and snapshot and forgets the store.
func (r *Registry) Clear(ctx context.Context, sessionID string) error {
	r.mu.Lock()
	store, ok := r.stores[sessionID]
	delete(r.stores, sessionID)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	err := store.ClearSession(ctx)
	store.Dispose(ctx)
	return err
}

// Close disposes the store but keeps its snapshot for a later resume.
func (r *Registry) Close(ctx context.Context, sessionID string) {
	r.mu.Lock()
	store, ok := r.stores[sessionID]
	delete(r.stores, sessionID)
	r.mu.Unlock()
	if ok {
		store.Dispose(ctx)
	}
}

// EvictIdle disposes stores untouched for longer than maxIdle and returns how
// many were evicted. Their snapshots remain resumable.
func (r *Registry) EvictIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := r.deps.Clock.Now().Add(-maxIdle)
	r.mu.Lock()
	var idle []*Store
	for id, store := range r.stores {
		if store.LastAccess().Before(cutoff) {
			idle = append(idle, store)
			delete(r.stores, id)
		}
	}
	r.mu.Unlock()

	for _, store := range idle {
		store.Dispose(ctx)
	}
	if len(idle) > 0 {
		r.deps.Logger.Info("evicted idle wizard sessions", zap.Int("count", len(idle)))
	}
	return len(idle)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// CloseAll disposes every store, flushing their queued saves.
func (r *Registry) CloseAll(ctx context.Context) {
	r.mu.Lock()
	stores := make([]*Store, 0, len(r.stores))
	for id, store := range r.stores {
		stores = append(stores, store)
		delete(r.stores, id)
	}
	r.mu.Unlock()
	for _, store := range stores {
		store.Dispose(ctx)
	}
}
