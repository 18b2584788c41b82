package event

import "context"

// Handler processes an event delivered by the bus.
type Handler func(ctx context.Context, evt Event)

// FilterFunc is a predicate for filtering events.
// Return true to allow the event, false to filter it out.
type FilterFunc func(evt Event) bool

// PanicHandler is called when a handler panics.
type PanicHandler func(evt Event, err *PanicError)

// Stats contains event bus statistics.
type Stats struct {
	// EventsPublished is the total number of events published.
	EventsPublished uint64

	// EventsDelivered is the total number of deliveries to handlers and channels.
	EventsDelivered uint64

	// EventsDropped is the number of channel deliveries dropped on a full buffer.
	EventsDropped uint64

	// HandlerPanics is the number of handlers that panicked.
	HandlerPanics uint64

	// ActiveSubscribers is the current number of active subscriptions.
	ActiveSubscribers int
}
