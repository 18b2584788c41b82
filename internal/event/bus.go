package event

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Bus is a fire-and-forget publish/subscribe channel.
type Bus struct {
	mu   sync.RWMutex
	subs []*Subscription

	closed atomic.Bool
	config busConfig

	// Stats
	eventsPublished atomic.Uint64
	eventsDelivered atomic.Uint64
	eventsDropped   atomic.Uint64
	handlerPanics   atomic.Uint64
}

// NewBus creates a new event bus with the given options.
func NewBus(opts ...BusOption) *Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Bus{config: config}
}

// Subscribe registers a handler for events whose type matches pattern.
func (b *Bus) Subscribe(pattern string, h Handler, opts ...SubscriptionOption) (*Subscription, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	return b.add(pattern, h, nil, opts)
}

// SubscribeChan registers a channel subscription with the given buffer size.
// Deliveries that find the buffer full are dropped.
func (b *Bus) SubscribeChan(pattern string, size int, opts ...SubscriptionOption) (*Subscription, error) {
	if size < 0 {
		size = 0
	}
	return b.add(pattern, nil, make(chan Event, size), opts)
}

func (b *Bus) add(pattern string, h Handler, ch chan Event, opts []SubscriptionOption) (*Subscription, error) {
	if pattern == "" {
		return nil, ErrInvalidPattern
	}
	if b.closed.Load() {
		return nil, ErrBusClosed
	}

	sub := newSubscription(b, uuid.NewString(), pattern, h, ch, opts)

	b.mu.Lock()
	// Copy on write so Publish can iterate without holding the lock.
	b.subs = append(b.subs[:len(b.subs):len(b.subs)], sub)
	b.mu.Unlock()

	return sub, nil
}

func (b *Bus) remove(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, s := range b.subs {
		if s == sub {
			next := make([]*Subscription, 0, len(b.subs)-1)
			next = append(next, b.subs[:i]...)
			b.subs = append(next, b.subs[i+1:]...)
			return
		}
	}
}

// Publish creates an event and delivers it to every matching subscriber.
func (b *Bus) Publish(ctx context.Context, t Type, payload any) (Event, error) {
	evt := New(t, payload, b.config.source)
	return evt, b.PublishEvent(ctx, evt)
}

// PublishEvent delivers an existing event to every matching subscriber.
// Delivery stops early if ctx is cancelled.
func (b *Bus) PublishEvent(ctx context.Context, evt Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	if evt.Type == "" {
		return ErrInvalidEvent
	}

	b.eventsPublished.Add(1)

	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !sub.matches(evt) {
			continue
		}

		// A once subscription is claimed before delivery so concurrent
		// publishers cannot both deliver to it.
		claimed := false
		if sub.config.once {
			if !sub.claim() {
				continue
			}
			claimed = true
		}

		if sub.ch != nil {
			if sub.offer(evt, claimed) {
				b.eventsDelivered.Add(1)
			} else {
				b.eventsDropped.Add(1)
			}
		} else if b.deliver(ctx, sub, evt) {
			b.eventsDelivered.Add(1)
		}

		if claimed {
			sub.release()
		}
	}

	return nil
}

// deliver runs a handler with panic recovery.
func (b *Bus) deliver(ctx context.Context, sub *Subscription, evt Event) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			b.handlerPanics.Add(1)
			b.reportPanic(evt, &PanicError{
				SubscriptionID: sub.id,
				Type:           evt.Type,
				Value:          r,
				Stack:          debug.Stack(),
			})
		}
	}()

	sub.handler(ctx, evt)
	return true
}

func (b *Bus) reportPanic(evt Event, perr *PanicError) {
	// Don't let a panicking panic handler escape.
	defer func() { _ = recover() }()

	if b.config.panicHandler != nil {
		b.config.panicHandler(evt, perr)
		return
	}
	b.config.logger.Error("event handler panicked",
		"type", evt.Type,
		"subscription", perr.SubscriptionID,
		"panic", perr.Value,
	)
}

// Close cancels every subscription. Publishing on a closed bus fails.
func (b *Bus) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}

	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.Cancel()
	}
}

// IsClosed reports whether Close has been called.
func (b *Bus) IsClosed() bool {
	return b.closed.Load()
}

// Stats returns current bus statistics.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	active := len(b.subs)
	b.mu.RUnlock()

	return Stats{
		EventsPublished:   b.eventsPublished.Load(),
		EventsDelivered:   b.eventsDelivered.Load(),
		EventsDropped:     b.eventsDropped.Load(),
		HandlerPanics:     b.handlerPanics.Load(),
		ActiveSubscribers: active,
	}
}
