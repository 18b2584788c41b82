// Package intent names the actions an application can perform.
//
// An intent is called with a single payload. Unless a custom function is
// registered for its name, calling an intent dispatches an event of the same
// type carrying that payload. Call sites can therefore invoke named actions
// without knowing whether they are plain dispatches or composite logic.
package intent

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/flux/internal/event"
)

// Intent is a named action.
type Intent func(payload any) error

// Dispatcher submits events. *store.Store implements it.
type Dispatcher interface {
	Dispatch(t event.Type, payload any) (event.Event, error)
}

// Registry maps intent names to functions. Later registrations replace
// earlier ones; there is no removal.
type Registry struct {
	dispatcher Dispatcher

	mu      sync.RWMutex
	intents map[event.Type]Intent
}

// NewRegistry creates a registry whose default intents dispatch through d.
func NewRegistry(d Dispatcher) *Registry {
	return &Registry{
		dispatcher: d,
		intents:    make(map[event.Type]Intent),
	}
}

// Set registers fn under t and returns the intent now registered.
// A nil fn registers the default intent, which dispatches t.
func (r *Registry) Set(t event.Type, fn Intent) Intent {
	if fn == nil {
		fn = r.dispatchIntent(t)
	}
	r.mu.Lock()
	r.intents[t] = fn
	r.mu.Unlock()
	return fn
}

// Get returns the intent registered under t. When none is registered it
// returns a default intent for t without storing it.
func (r *Registry) Get(t event.Type) Intent {
	r.mu.RLock()
	fn, ok := r.intents[t]
	r.mu.RUnlock()
	if ok {
		return fn
	}
	return r.dispatchIntent(t)
}

// Has reports whether a custom or explicit default intent is registered under t.
func (r *Registry) Has(t event.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.intents[t]
	return ok
}

// Call invokes the intent for t with payload.
func (r *Registry) Call(t event.Type, payload any) error {
	if err := r.Get(t)(payload); err != nil {
		return fmt.Errorf("intent %s: %w", t, err)
	}
	return nil
}

// Names returns the registered intent names in sorted order.
func (r *Registry) Names() []event.Type {
	r.mu.RLock()
	names := make([]event.Type, 0, len(r.intents))
	for t := range r.intents {
		names = append(names, t)
	}
	r.mu.RUnlock()

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func (r *Registry) dispatchIntent(t event.Type) Intent {
	return func(payload any) error {
		_, err := r.dispatcher.Dispatch(t, payload)
		return err
	}
}
