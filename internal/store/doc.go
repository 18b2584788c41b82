// Package store serializes events through a single processing loop.
//
// A Store is either awaiting an event or processing one; Phase reports which.
// Dispatch appends the event to a FIFO queue. If the store is awaiting, the
// calling goroutine becomes the consumer and drains the queue. For every
// event the consumer:
//
//  1. applies the handler for the event type to the current state,
//  2. commits the result to the state holder,
//  3. calls every current subscriber, in subscription order, with the
//     committed state,
//
// and only then takes the next event. Once the queue is empty the store
// returns to awaiting and Dispatch returns.
//
// # Re-entrant Dispatch
//
// A handler or subscriber that dispatches does not interrupt the event being
// processed. The nested event is queued and processed after the current
// event's subscribers have all been called. The same holds for a Dispatch
// from another goroutine while a drain is running: it returns once the event
// is queued, and the draining goroutine processes it.
//
// # Failures
//
// A handler that returns an error or panics aborts its event: the state is
// not committed and no subscriber is called. A subscriber that panics aborts
// the remaining calls for that event; the state stays committed. Failures are
// returned from the Dispatch call that drained them and are never retried.
package store
