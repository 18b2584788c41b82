package bind

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dshills/flux/internal/state"
)

// Source reports state changes.
type Source interface {
	// Fingerprint returns the fingerprint of the current state.
	Fingerprint() uint64

	// Subscribe calls fn after every state change and returns a function
	// that stops the calls.
	Subscribe(fn func(state.Fingerprinter)) (unsubscribe func())
}

// Binder connects components to a Source.
type Binder struct {
	src      Source
	getter   state.Getter
	schedule Scheduler
	onError  ErrorHandler
	logger   *slog.Logger
}

// New creates a Binder. mapProps functions read state through getter.
func New(src Source, getter state.Getter, opts ...Option) *Binder {
	b := &Binder{
		src:      src,
		getter:   getter,
		schedule: immediate,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Connector wraps a component. key names the prop that identifies the
// instance among siblings; it may be empty.
type Connector func(c Component, key string) *Connected

// Connect returns a Connector whose components receive mapProps output
// merged over their own props. A nil mapProps contributes no props.
func (b *Binder) Connect(mapProps MapProps) Connector {
	if mapProps == nil {
		mapProps = emptyProps
	}
	return func(c Component, key string) *Connected {
		return &Connected{
			binder:    b,
			component: c,
			mapProps:  mapProps,
			key:       key,
		}
	}
}

// Connected is a component bound to a store.
type Connected struct {
	binder    *Binder
	component Component
	mapProps  MapProps
	key       string

	mu    sync.Mutex
	own   Props
	unsub func()

	mounted atomic.Bool
	last    atomic.Uint64
	renders atomic.Uint64
}

// Mount sets the own props, subscribes to state changes and renders once.
func (c *Connected) Mount(own Props) error {
	if c.component == nil {
		return ErrNilComponent
	}

	// mu covers the flag and unsub together so Unmount always sees the
	// subscription of a mounted component.
	c.mu.Lock()
	if !c.mounted.CompareAndSwap(false, true) {
		c.mu.Unlock()
		return ErrAlreadyMounted
	}
	c.own = own.Clone()
	c.last.Store(c.binder.src.Fingerprint())
	c.unsub = c.binder.src.Subscribe(c.changed)
	c.mu.Unlock()

	return c.Render()
}

// Unmount unsubscribes. Renders scheduled but not yet run are skipped.
// Calling Unmount on an unmounted component does nothing.
func (c *Connected) Unmount() {
	c.mu.Lock()
	if !c.mounted.CompareAndSwap(true, false) {
		c.mu.Unlock()
		return
	}
	unsub := c.unsub
	c.unsub = nil
	c.mu.Unlock()

	unsub()
}

// SetProps replaces the own props and renders if mounted.
func (c *Connected) SetProps(own Props) error {
	c.mu.Lock()
	c.own = own.Clone()
	c.mu.Unlock()

	if !c.mounted.Load() {
		return nil
	}
	return c.Render()
}

// Render renders the component with its current props.
func (c *Connected) Render() error {
	if c.component == nil {
		return ErrNilComponent
	}
	props := c.Props()
	c.renders.Add(1)
	return c.component.Render(props)
}

// Props returns the own props overlaid with the mapProps output.
func (c *Connected) Props() Props {
	c.mu.Lock()
	own := c.own.Clone()
	c.mu.Unlock()

	return own.Merge(c.mapProps(c.binder.getter, own))
}

// Key returns the value of the key prop, or nil when no key was given.
func (c *Connected) Key() any {
	if c.key == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.own[c.key]
}

// Renders returns the number of renders so far.
func (c *Connected) Renders() uint64 {
	return c.renders.Load()
}

// Mounted reports whether the component is mounted.
func (c *Connected) Mounted() bool {
	return c.mounted.Load()
}

func (c *Connected) changed(s state.Fingerprinter) {
	if !c.mounted.Load() {
		return
	}
	fp := s.Fingerprint()
	if c.last.Swap(fp) == fp {
		return
	}

	c.binder.schedule(func() {
		if !c.mounted.Load() {
			return
		}
		if err := c.Render(); err != nil {
			c.renderFailed(err)
		}
	})
}

func (c *Connected) renderFailed(err error) {
	if c.binder.onError != nil {
		c.binder.onError(c, err)
		return
	}
	c.binder.logger.Warn("render failed", "key", c.Key(), "error", err)
}
