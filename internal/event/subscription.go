package event

import (
	"sync"
	"sync/atomic"

	"github.com/tidwall/match"
)

// Subscription is a registration on a Bus.
// It is delivered either to a handler or into a channel, never both.
type Subscription struct {
	id      string
	pattern string
	handler Handler
	config  subscriptionConfig
	bus     *Bus

	// mu guards ch against a send racing with close.
	mu     sync.Mutex
	ch     chan Event
	active atomic.Bool
}

func newSubscription(b *Bus, id, pattern string, h Handler, ch chan Event, opts []SubscriptionOption) *Subscription {
	s := &Subscription{
		id:      id,
		pattern: pattern,
		handler: h,
		ch:      ch,
		bus:     b,
	}
	for _, opt := range opts {
		opt(&s.config)
	}
	s.active.Store(true)
	return s
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string {
	return s.id
}

// Pattern returns the subscribed type pattern.
func (s *Subscription) Pattern() string {
	return s.pattern
}

// IsActive returns true if the subscription can receive events.
func (s *Subscription) IsActive() bool {
	return s.active.Load()
}

// C returns the delivery channel of a channel subscription, nil otherwise.
// The channel is closed when the subscription is cancelled.
func (s *Subscription) C() <-chan Event {
	return s.ch
}

// Cancel removes the subscription from its bus.
// Calling Cancel more than once has no further effect.
func (s *Subscription) Cancel() {
	if s.claim() {
		s.release()
	}
}

// claim deactivates the subscription and reports whether this call did so.
func (s *Subscription) claim() bool {
	return s.active.CompareAndSwap(true, false)
}

// release removes a claimed subscription from its bus and closes its channel.
func (s *Subscription) release() {
	s.bus.remove(s)

	s.mu.Lock()
	if s.ch != nil {
		close(s.ch)
	}
	s.mu.Unlock()
}

// matches reports whether evt should be delivered to this subscription.
func (s *Subscription) matches(evt Event) bool {
	if !s.active.Load() {
		return false
	}
	if !match.Match(string(evt.Type), s.pattern) {
		return false
	}
	if s.config.filter != nil && !s.config.filter(evt) {
		return false
	}
	return true
}

// offer sends evt to a channel subscription without blocking.
// It returns false when the buffer is full or the subscription is gone.
// A claimed subscription is still open until released.
func (s *Subscription) offer(evt Event, claimed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !claimed && !s.active.Load() {
		return false
	}
	select {
	case s.ch <- evt:
		return true
	default:
		return false
	}
}
