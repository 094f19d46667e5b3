// Package registry is the priority-ordered, re-enumerable registration point
// every context manager and observer joins. Go has no classpath
// service-loader scan, so discovery here is adapted to explicit
// registration: the concrete managers register themselves from their New
// constructors (via runtime.Runtime), rather than from init functions as the
// teacher's pkg/plugin package does.
package registry

import (
	"fmt"
	"sort"
	"sync"
)

// Prioritized is implemented by anything that wants explicit control over its
// position in registration order. Lower values sort first. Entries that don't
// implement Prioritized sort after every prioritized entry, in registration
// order.
type Prioritized interface {
	Priority() int
}

// Entry is anything that can be registered under a stable, unique name.
type Entry interface {
	Name() string
}

// Registry holds a named, priority-ordered collection of entries of type T.
// It is safe for concurrent use. The ordered view is cached after the first
// read and invalidated on every mutation, mirroring the teacher's
// registration-then-enumerate lifecycle in pkg/plugin/plugin_registry.go.
type Registry[T Entry] struct {
	mu      sync.RWMutex
	entries map[string]T
	order   []string // registration order, used as a tiebreak for equal priority
	cache   []T
	dirty   bool
}

// New returns an empty Registry.
func New[T Entry]() *Registry[T] {
	return &Registry[T]{
		entries: make(map[string]T),
	}
}

// Register adds entry under its Name(). Registering a duplicate name returns
// an error and leaves the registry unchanged.
func (r *Registry[T]) Register(entry T) error {
	name := entry.Name()
	if name == "" {
		return fmt.Errorf("registry: entry name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("registry: %q already registered", name)
	}

	r.entries[name] = entry
	r.order = append(r.order, name)
	r.dirty = true
	return nil
}

// MustRegister registers entry, panicking on failure. Intended for use from
// init functions, where a duplicate name is a programming error.
func (r *Registry[T]) MustRegister(entry T) {
	if err := r.Register(entry); err != nil {
		panic(err)
	}
}

// Unregister removes the named entry, if present.
func (r *Registry[T]) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; !exists {
		return
	}
	delete(r.entries, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.dirty = true
}

// Get returns the named entry, if registered.
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	return entry, ok
}

// List returns every registered entry, priority-sorted: entries implementing
// Prioritized first (ascending Priority()), then the rest in registration
// order. The result is cached until the next mutation, so repeated calls
// between registrations are cheap.
func (r *Registry[T]) List() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.dirty && r.cache != nil {
		out := make([]T, len(r.cache))
		copy(out, r.cache)
		return out
	}

	ordered := make([]T, 0, len(r.order))
	for _, name := range r.order {
		ordered = append(ordered, r.entries[name])
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		pi, iok := any(ordered[i]).(Prioritized)
		pj, jok := any(ordered[j]).(Prioritized)
		switch {
		case iok && jok:
			return pi.Priority() < pj.Priority()
		case iok && !jok:
			return true
		case !iok && jok:
			return false
		default:
			return false // preserve registration order
		}
	})

	r.cache = ordered
	r.dirty = false

	out := make([]T, len(ordered))
	copy(out, ordered)
	return out
}

// Count returns the number of registered entries.
func (r *Registry[T]) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Reload invalidates the cached ordered view, forcing the next List() call
// to recompute it. Exposed mainly for tests that register/unregister entries
// and need to observe the effect immediately without relying on List()'s
// internal cache-busting on mutation.
func (r *Registry[T]) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirty = true
}

// Clear removes every registered entry. Intended for use in tests.
func (r *Registry[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]T)
	r.order = nil
	r.cache = nil
	r.dirty = true
}
