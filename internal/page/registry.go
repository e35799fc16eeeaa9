package page

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/rentrisk/internal/graph"
	"github.com/sells-group/rentrisk/internal/region"
)

// ErrNotFound is returned for an unknown page id.
var ErrNotFound = eris.New("page: not found")

// RecomputeHook is called after a page recomputes a dataset.
type RecomputeHook func(region string, ds graph.Dataset, elapsed time.Duration, result any)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRecomputeHook registers a hook for every page's recomputations.
func WithRecomputeHook(h RecomputeHook) RegistryOption {
	return func(r *Registry) {
		r.hook = h
	}
}

// WithIDGenerator replaces the uuid page id generator.
func WithIDGenerator(fn func() string) RegistryOption {
	return func(r *Registry) {
		r.newID = fn
	}
}

// WithSizeHook is called with the page count after every create or delete.
func WithSizeHook(fn func(n int)) RegistryOption {
	return func(r *Registry) {
		r.onSize = fn
	}
}

// Registry holds the live pages. When full, creating a page evicts the
// least recently used one.
type Registry struct {
	mu     sync.RWMutex
	pages  map[string]*Page
	limit  int
	newID  func() string
	hook   RecomputeHook
	onSize func(n int)
}

// NewRegistry returns a registry holding at most limit pages.
func NewRegistry(limit int, opts ...RegistryOption) *Registry {
	if limit < 1 {
		limit = 1
	}
	r := &Registry{
		pages: make(map[string]*Page),
		limit: limit,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create opens a page for reg with default filters.
func (r *Registry) Create(reg *region.Region) (*Page, error) {
	var opts []graph.Option
	if r.hook != nil {
		key := reg.Key
		hook := r.hook
		opts = append(opts, graph.WithObserver(func(ds graph.Dataset, elapsed time.Duration, result any) {
			hook(key, ds, elapsed, result)
		}))
	}

	p, err := New(r.newID(), reg, opts...)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, dup := r.pages[p.ID]; dup {
		r.mu.Unlock()
		return nil, eris.Errorf("page: duplicate id %s", p.ID)
	}
	if len(r.pages) >= r.limit {
		r.evictLocked()
	}
	r.pages[p.ID] = p
	n := len(r.pages)
	r.mu.Unlock()

	r.sized(n)
	return p, nil
}

// Get returns the page with the given id.
func (r *Registry) Get(id string) (*Page, error) {
	r.mu.RLock()
	p, ok := r.pages[id]
	r.mu.RUnlock()
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "page %s", id)
	}
	return p, nil
}

// Delete drops the page with the given id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	if _, ok := r.pages[id]; !ok {
		r.mu.Unlock()
		return eris.Wrapf(ErrNotFound, "page %s", id)
	}
	delete(r.pages, id)
	n := len(r.pages)
	r.mu.Unlock()

	r.sized(n)
	return nil
}

// Len returns the number of live pages.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pages)
}

func (r *Registry) evictLocked() {
	var oldest *Page
	var oldestAt time.Time
	for _, p := range r.pages {
		at := p.LastUsed()
		if oldest == nil || at.Before(oldestAt) {
			oldest, oldestAt = p, at
		}
	}
	if oldest != nil {
		delete(r.pages, oldest.ID)
		zap.L().Debug("page: evicted", zap.String("page", oldest.ID), zap.Time("last_used", oldestAt))
	}
}

func (r *Registry) sized(n int) {
	if r.onSize != nil {
		r.onSize(n)
	}
}
