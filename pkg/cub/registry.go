package cub

import (
	"slices"
	"sync"
)

// Constructor wraps a decoded base object into its typed model.
type Constructor func(obj *Object) Model

// Registry maps discriminator values to constructors. It is filled once at
// startup and only read afterwards.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// DefaultRegistry holds every model kind defined in this package.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register makes a constructor available under kind. It panics if kind is
// empty, ctor is nil or kind is already registered.
func (r *Registry) Register(kind string, ctor Constructor) {
	if kind == "" {
		panic("cub: Register with empty kind")
	}

	if ctor == nil {
		panic("cub: Register constructor is nil for " + kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.constructors[kind]; dup {
		panic("cub: Register called twice for " + kind)
	}

	r.constructors[kind] = ctor
}

// Lookup returns the constructor registered under kind.
func (r *Registry) Lookup(kind string) (Constructor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ctor, ok := r.constructors[kind]

	return ctor, ok
}

// Kinds returns the registered discriminators in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.constructors))
	for kind := range r.constructors {
		kinds = append(kinds, kind)
	}

	slices.Sort(kinds)

	return kinds
}

// Clone returns an independent copy, handy for adding kinds without touching
// the shared registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clone := NewRegistry()
	for kind, ctor := range r.constructors {
		clone.constructors[kind] = ctor
	}

	return clone
}
