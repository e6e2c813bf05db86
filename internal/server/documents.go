package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/AmyLu0828/the-resume-hub/internal/generation"
	"github.com/AmyLu0828/the-resume-hub/internal/store"
)

// defaultDocumentTTL applies when no TTL is configured
const defaultDocumentTTL = time.Hour

type liveDocument struct {
	d        *generation.Dispatcher
	lastUsed time.Time
}

// registry holds the live document instances. Each dispatcher serializes its
// own operations; the registry only guards the map. Instances unused for ttl
// are evicted; with a store they are restored on the next access.
type registry struct {
	mu    sync.Mutex
	docs  map[uuid.UUID]*liveDocument
	build func(id uuid.UUID) *generation.Dispatcher
	store store.Store
	ttl   time.Duration

	cleanupStop chan struct{}
	stopOnce    sync.Once
}

func newRegistry(build func(id uuid.UUID) *generation.Dispatcher, st store.Store, ttl time.Duration) *registry {
	if ttl <= 0 {
		ttl = defaultDocumentTTL
	}
	r := &registry{
		docs:        make(map[uuid.UUID]*liveDocument),
		build:       build,
		store:       st,
		ttl:         ttl,
		cleanupStop: make(chan struct{}),
	}
	go r.cleanup(ttl / 2)
	return r
}

// create registers a fresh document instance
func (r *registry) create() *generation.Dispatcher {
	d := r.build(uuid.New())
	r.mu.Lock()
	r.docs[d.ID()] = &liveDocument{d: d, lastUsed: time.Now()}
	r.mu.Unlock()
	return d
}

// get returns the live instance for id, restoring it from the store when it
// is not in memory.
func (r *registry) get(ctx context.Context, id uuid.UUID) (*generation.Dispatcher, error) {
	r.mu.Lock()
	live, ok := r.docs[id]
	if ok {
		live.lastUsed = time.Now()
	}
	r.mu.Unlock()
	if ok {
		return live.d, nil
	}
	if r.store == nil {
		return nil, &ErrDocumentNotFound{ID: id}
	}

	d := r.build(id)
	found, err := d.Restore(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, &ErrDocumentNotFound{ID: id}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// another request may have restored it meanwhile
	if existing, ok := r.docs[id]; ok {
		existing.lastUsed = time.Now()
		return existing.d, nil
	}
	r.docs[id] = &liveDocument{d: d, lastUsed: time.Now()}
	return d, nil
}

// remove drops the instance and its persisted state
func (r *registry) remove(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	_, live := r.docs[id]
	delete(r.docs, id)
	r.mu.Unlock()

	if r.store != nil {
		return r.store.Delete(ctx, id)
	}
	if !live {
		return &ErrDocumentNotFound{ID: id}
	}
	return nil
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.docs)
}

func (r *registry) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.evictIdle(time.Now())
		case <-r.cleanupStop:
			return
		}
	}
}

// evictIdle drops instances unused for longer than the TTL and reports how
// many were dropped. Persisted state is kept.
func (r *registry) evictIdle(now time.Time) int {
	cutoff := now.Add(-r.ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, live := range r.docs {
		if live.lastUsed.Before(cutoff) {
			delete(r.docs, id)
			evicted++
		}
	}
	if evicted > 0 {
		log.Debug().Int("evicted", evicted).Int("live", len(r.docs)).Msg("Evicted idle documents")
	}
	return evicted
}

// stop ends the cleanup goroutine
func (r *registry) stop() {
	r.stopOnce.Do(func() {
		close(r.cleanupStop)
	})
}

// newDispatcher builds a document instance wired to the server's collaborators
func (s *Server) newDispatcher(id uuid.UUID) *generation.Dispatcher {
	opts := []generation.Option{
		generation.WithID(id),
		generation.WithRenderTimeout(s.cfg.RenderTimeout),
		generation.WithRequiredPackages(s.cfg.RequiredPackages...),
	}
	if s.deps.Store != nil {
		opts = append(opts, generation.WithStore(s.deps.Store))
	}
	return generation.New(s.deps.Template, s.deps.Renderer, opts...)
}

// oneShotDispatcher builds an instance that is neither registered nor
// persisted, for requests that do not hand a document id back.
func (s *Server) oneShotDispatcher() *generation.Dispatcher {
	return generation.New(s.deps.Template, s.deps.Renderer,
		generation.WithRenderTimeout(s.cfg.RenderTimeout),
		generation.WithRequiredPackages(s.cfg.RequiredPackages...),
	)
}
