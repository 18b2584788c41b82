// Package handler maps event types to pure state-transition functions.
//
// A lookup never fails: an event type with no registered handler resolves to
// Identity, so unknown events are harmless no-ops.
package handler

import (
	"sort"
	"sync"

	"github.com/dshills/flux/internal/event"
	"github.com/dshills/flux/internal/state"
)

// Func computes the next state from the current state and an event.
// It must not modify anything reachable from its arguments. Returning the
// zero Snapshot leaves the state unchanged.
type Func func(s state.Snapshot, evt event.Event) (state.Snapshot, error)

// Identity returns the state unchanged.
func Identity(s state.Snapshot, _ event.Event) (state.Snapshot, error) {
	return s, nil
}

// Registry maps event types to handlers with last-write-wins semantics.
// It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[event.Type]Func
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[event.Type]Func),
	}
}

// Set registers fn under t, replacing any previous handler.
// A nil fn registers Identity. The registered handler is returned.
func (r *Registry) Set(t event.Type, fn Func) Func {
	if fn == nil {
		fn = Identity
	}

	r.mu.Lock()
	r.handlers[t] = fn
	r.mu.Unlock()

	return fn
}

// Get returns the handler registered for t, or Identity.
func (r *Registry) Get(t event.Type) Func {
	fn, _ := r.Lookup(t)
	return fn
}

// Lookup returns the handler for t and whether one was registered.
func (r *Registry) Lookup(t event.Type) (Func, bool) {
	r.mu.RLock()
	fn, ok := r.handlers[t]
	r.mu.RUnlock()

	if !ok {
		return Identity, false
	}
	return fn, true
}

// Apply runs the handler for evt.Type against s.
func (r *Registry) Apply(s state.Snapshot, evt event.Event) (state.Snapshot, error) {
	return r.Get(evt.Type)(s, evt)
}

// Types returns the registered event types in sorted order.
func (r *Registry) Types() []event.Type {
	r.mu.RLock()
	types := make([]event.Type, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	r.mu.RUnlock()

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
