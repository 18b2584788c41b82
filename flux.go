package flux

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/dshills/flux/internal/bind"
	"github.com/dshills/flux/internal/event"
	"github.com/dshills/flux/internal/handler"
	"github.com/dshills/flux/internal/intent"
	"github.com/dshills/flux/internal/logging"
	"github.com/dshills/flux/internal/script"
	"github.com/dshills/flux/internal/state"
	"github.com/dshills/flux/internal/store"
)

type (
	// Snapshot is an immutable state document.
	Snapshot = state.Snapshot
	// Getter reads values out of the state.
	Getter = state.Getter
	// Path addresses a value inside a Snapshot. The empty path is the root.
	Path = state.Path
	// Event is a dispatched action.
	Event = event.Event
	// Type identifies an event or intent.
	Type = event.Type
	// HandlerFunc computes the next state for an event.
	HandlerFunc = handler.Func
	// IntentFunc is a named action.
	IntentFunc = intent.Intent
	// Props are component inputs.
	Props = bind.Props
	// Component renders from props.
	Component = bind.Component
	// ComponentFunc adapts a function to Component.
	ComponentFunc = bind.ComponentFunc
	// MapProps derives props from state.
	MapProps = bind.MapProps
	// Connector wraps components.
	Connector = bind.Connector
	// Connected is a component bound to a Flux.
	Connected = bind.Connected
)

// P builds a Path.
func P(keys ...string) Path {
	return state.P(keys...)
}

// Parse builds a Snapshot from JSON text.
func Parse(doc string) (Snapshot, error) {
	return state.Parse(doc)
}

// MustParse is like Parse but panics on invalid input.
func MustParse(doc string) Snapshot {
	return state.MustParse(doc)
}

// FromValue encodes a Go value as a Snapshot.
func FromValue(v any) (Snapshot, error) {
	return state.FromValue(v)
}

// Typed adapts a handler that takes a typed payload.
func Typed[T any](fn func(s Snapshot, payload T) (Snapshot, error)) HandlerFunc {
	return handler.Typed(fn)
}

// Flux wires a state holder, handler and intent registries, a store, a
// standalone event bus and a component binder together.
type Flux struct {
	holder   *state.Holder
	handlers *handler.Registry
	intents  *intent.Registry
	store    *store.Store
	bus      *event.Bus
	binder   *bind.Binder
	logger   *slog.Logger

	scriptOpts []script.Option

	mu      sync.Mutex
	scripts *script.Engine
}

// New creates a Flux holding initial. The zero Snapshot starts with an
// empty object.
func New(initial Snapshot, opts ...Option) *Flux {
	o := options{
		logger: slog.Default(),
		source: "flux",
	}
	for _, opt := range opts {
		opt(&o)
	}

	f := &Flux{
		holder:     state.NewHolder(initial),
		handlers:   handler.NewRegistry(),
		logger:     o.logger,
		scriptOpts: o.scriptOpts,
	}
	f.store = store.New(f.holder, f.handlers,
		store.WithLogger(logging.Component(o.logger, "store")),
		store.WithSource(o.source),
	)
	f.intents = intent.NewRegistry(f.store)
	f.bus = event.NewBus(
		event.WithLogger(logging.Component(o.logger, "bus")),
		event.WithSource(o.source),
	)
	binderOpts := append([]bind.Option{bind.WithLogger(logging.Component(o.logger, "bind"))}, o.binderOpts...)
	f.binder = bind.New(storeSource{f.store}, f.holder, binderOpts...)
	return f
}

// Dispatch submits an event. See store.Store.DispatchEvent for ordering
// and failure rules.
func (f *Flux) Dispatch(t Type, payload any) (Event, error) {
	return f.store.Dispatch(t, payload)
}

// GetState returns the value at path, or fallback when it is absent.
// An empty path returns the whole Snapshot.
func (f *Flux) GetState(path Path, fallback any) any {
	return f.holder.Get(path, fallback)
}

// Snapshot returns the current state.
func (f *Flux) Snapshot() Snapshot {
	return f.holder.Snapshot()
}

// Subscribe calls fn with the committed state after every processed event.
func (f *Flux) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	return f.store.Subscribe(fn)
}

// Handle registers fn for events of type t, replacing any earlier handler.
// A nil fn registers the identity handler. It returns the handler now
// registered.
func (f *Flux) Handle(t Type, fn HandlerFunc) HandlerFunc {
	return f.handlers.Set(t, fn)
}

// Handler is Handle.
func (f *Flux) Handler(t Type, fn HandlerFunc) HandlerFunc {
	return f.Handle(t, fn)
}

// Intent registers fn under t, replacing any earlier intent. A nil fn
// registers an intent that dispatches t.
func (f *Flux) Intent(t Type, fn IntentFunc) IntentFunc {
	return f.intents.Set(t, fn)
}

// Intents returns the intent for t, or one that dispatches t when none is
// registered.
func (f *Flux) Intents(t Type) IntentFunc {
	return f.intents.Get(t)
}

// Call invokes the intent for t.
func (f *Flux) Call(t Type, payload any) error {
	return f.intents.Call(t, payload)
}

// Connect returns a Connector for components whose props are derived by
// mapProps.
func (f *Flux) Connect(mapProps MapProps) Connector {
	return f.binder.Connect(mapProps)
}

// Store returns the underlying store.
func (f *Flux) Store() *store.Store {
	return f.store
}

// Bus returns the standalone event bus. It is not connected to the store.
func (f *Flux) Bus() *event.Bus {
	return f.bus
}

// LoadScript runs the Lua script at path, registering its handlers and
// intents.
func (f *Flux) LoadScript(path string) error {
	return f.engine().Load(path)
}

// LoadScriptString runs Lua code as the script called name.
func (f *Flux) LoadScriptString(name, code string) error {
	return f.engine().LoadString(name, code)
}

func (f *Flux) engine() *script.Engine {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.scripts == nil {
		opts := append([]script.Option{script.WithLogger(logging.Component(f.logger, "script"))}, f.scriptOpts...)
		f.scripts = script.New(f, opts...)
	}
	return f.scripts
}

// Close releases the script engine and closes the bus.
func (f *Flux) Close() error {
	f.mu.Lock()
	scripts := f.scripts
	f.mu.Unlock()

	var errs []error
	if scripts != nil {
		errs = append(errs, scripts.Close())
	}
	f.bus.Close()
	return errors.Join(errs...)
}

// storeSource adapts a store to bind.Source.
type storeSource struct {
	s *store.Store
}

func (src storeSource) Fingerprint() uint64 {
	return src.s.Snapshot().Fingerprint()
}

func (src storeSource) Subscribe(fn func(state.Fingerprinter)) func() {
	return src.s.Subscribe(func(snap state.Snapshot) { fn(snap) })
}

var _ script.Host = (*Flux)(nil)
