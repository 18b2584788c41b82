package event

import "context"

// Publisher publishes on a bus under a fixed source.
type Publisher struct {
	bus    *Bus
	source string
}

// NewPublisher creates a new Publisher wrapping the given bus.
// The source parameter identifies where events originate (e.g., "terminal").
func NewPublisher(bus *Bus, source string) *Publisher {
	return &Publisher{
		bus:    bus,
		source: source,
	}
}

// Publish creates an event stamped with the publisher's source and
// delivers it.
func (p *Publisher) Publish(ctx context.Context, t Type, payload any) (Event, error) {
	evt := New(t, payload, p.source)
	return evt, p.bus.PublishEvent(ctx, evt)
}

// Source returns the publisher's source identifier.
func (p *Publisher) Source() string {
	return p.source
}

// Bus returns the underlying bus.
func (p *Publisher) Bus() *Bus {
	return p.bus
}
