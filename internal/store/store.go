package store

import (
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/dshills/flux/internal/event"
	"github.com/dshills/flux/internal/state"
)

// Applier computes the next state for an event.
type Applier interface {
	Apply(s state.Snapshot, evt event.Event) (state.Snapshot, error)
}

// Holder owns the committed state.
type Holder interface {
	Snapshot() state.Snapshot
	Set(next state.Snapshot) state.Snapshot
}

// Subscriber is called with the committed state after every processed event.
type Subscriber func(s state.Snapshot)

// Phase is the processing phase of a Store.
type Phase int32

const (
	// PhaseAwaiting means the store is idle and the next Dispatch drains.
	PhaseAwaiting Phase = iota

	// PhaseProcessing means a goroutine is draining the queue.
	PhaseProcessing
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseAwaiting:
		return "awaiting"
	case PhaseProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// Stats contains store statistics.
type Stats struct {
	// Dispatched is the number of events accepted by Dispatch.
	Dispatched uint64

	// Processed is the number of events fully processed.
	Processed uint64

	// Failed is the number of events aborted by a handler or subscriber.
	Failed uint64

	// Deferred is the number of events queued behind a running drain.
	Deferred uint64

	// Notifications is the number of subscriber calls that returned normally.
	Notifications uint64

	// Subscribers is the current number of subscribers.
	Subscribers int

	// Pending is the current queue length.
	Pending int
}

type subscription struct {
	fn     Subscriber
	active atomic.Bool
}

// Store applies events to state one at a time and notifies subscribers.
type Store struct {
	holder   Holder
	handlers Applier
	logger   *slog.Logger
	source   string

	mu    sync.Mutex
	queue []event.Event
	phase Phase

	subMu sync.RWMutex
	subs  []*subscription

	seq atomic.Uint64

	dispatched    atomic.Uint64
	processed     atomic.Uint64
	failed        atomic.Uint64
	deferred      atomic.Uint64
	notifications atomic.Uint64
}

// New creates a store over holder and handlers. The store starts awaiting.
func New(holder Holder, handlers Applier, opts ...Option) *Store {
	s := &Store{
		holder:   holder,
		handlers: handlers,
		logger:   slog.Default(),
		source:   "store",
		phase:    PhaseAwaiting,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch creates an event of type t and submits it.
// See DispatchEvent.
func (s *Store) Dispatch(t event.Type, payload any) (event.Event, error) {
	return s.DispatchEvent(event.New(t, payload, s.source))
}

// DispatchEvent submits evt and returns it with its sequence number set.
//
// When the store is awaiting, DispatchEvent processes evt and everything
// queued behind it before returning, and the returned error joins every
// *DispatchError raised while draining. When the store is already
// processing, evt is queued and DispatchEvent returns nil immediately.
func (s *Store) DispatchEvent(evt event.Event) (event.Event, error) {
	evt = evt.WithSeq(s.seq.Add(1))
	s.dispatched.Add(1)

	s.mu.Lock()
	s.queue = append(s.queue, evt)
	if s.phase == PhaseProcessing {
		s.mu.Unlock()
		s.deferred.Add(1)
		s.logger.Debug("event deferred", "type", evt.Type, "seq", evt.Metadata.Seq)
		return evt, nil
	}
	s.phase = PhaseProcessing
	s.mu.Unlock()

	return evt, s.drain()
}

// drain processes queued events until the queue is empty.
func (s *Store) drain() error {
	var errs []error
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.queue = nil
			s.phase = PhaseAwaiting
			s.mu.Unlock()
			return errors.Join(errs...)
		}
		evt := s.queue[0]
		s.queue[0] = event.Event{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		if err := s.process(evt); err != nil {
			s.failed.Add(1)
			s.logger.Warn("dispatch failed",
				"type", evt.Type,
				"seq", evt.Metadata.Seq,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
}

// process applies, commits and fans out a single event.
func (s *Store) process(evt event.Event) error {
	next, err := s.apply(s.holder.Snapshot(), evt)
	if err != nil {
		return &DispatchError{Event: evt, Stage: StageHandler, Err: err}
	}

	committed := s.holder.Set(next)
	s.logger.Debug("event processed",
		"type", evt.Type,
		"seq", evt.Metadata.Seq,
		"fingerprint", committed.Fingerprint(),
	)

	s.subMu.RLock()
	subs := s.subs
	s.subMu.RUnlock()

	for _, sub := range subs {
		// Skip subscribers removed earlier in this fan-out.
		if !sub.active.Load() {
			continue
		}
		if err := s.notify(sub, committed); err != nil {
			return &DispatchError{Event: evt, Stage: StageNotify, Err: err}
		}
		s.notifications.Add(1)
	}

	s.processed.Add(1)
	return nil
}

func (s *Store) apply(cur state.Snapshot, evt event.Event) (next state.Snapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return s.handlers.Apply(cur, evt)
}

func (s *Store) notify(sub *subscription, committed state.Snapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	sub.fn(committed)
	return nil
}

// Subscribe appends fn to the subscriber list and returns a function that
// removes it. Calling the returned function more than once has no further
// effect. A nil fn is ignored.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	sub := &subscription{fn: fn}
	sub.active.Store(true)

	s.subMu.Lock()
	// Copy on write so a fan-out in progress keeps its own slice.
	s.subs = append(s.subs[:len(s.subs):len(s.subs)], sub)
	s.subMu.Unlock()

	return func() {
		if !sub.active.CompareAndSwap(true, false) {
			return
		}
		s.subMu.Lock()
		defer s.subMu.Unlock()
		for i, cur := range s.subs {
			if cur == sub {
				next := make([]*subscription, 0, len(s.subs)-1)
				next = append(next, s.subs[:i]...)
				s.subs = append(next, s.subs[i+1:]...)
				return
			}
		}
	}
}

// Snapshot returns the committed state.
func (s *Store) Snapshot() state.Snapshot {
	return s.holder.Snapshot()
}

// Phase returns the current processing phase.
func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Ready reports whether the next Dispatch will be processed immediately.
func (s *Store) Ready() bool {
	return s.Phase() == PhaseAwaiting
}

// Pending returns the number of queued events not yet processed.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Stats returns current store statistics.
func (s *Store) Stats() Stats {
	s.subMu.RLock()
	subs := len(s.subs)
	s.subMu.RUnlock()

	return Stats{
		Dispatched:    s.dispatched.Load(),
		Processed:     s.processed.Load(),
		Failed:        s.failed.Load(),
		Deferred:      s.deferred.Load(),
		Notifications: s.notifications.Load(),
		Subscribers:   subs,
		Pending:       s.Pending(),
	}
}
