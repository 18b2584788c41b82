// Package event defines the events that flow through a flux store and a
// standalone publish/subscribe Bus.
//
// An Event is a named action with a single typed payload:
//
//	evt := event.New("todo.added", AddTodo{Title: "milk"}, "ui")
//
// The store consumes events one at a time; the Bus fans them out to
// subscribers and is not connected to any store.
//
// # Bus Patterns
//
// Subscriptions match event types with glob patterns:
//
//	*           - every event
//	todo.*      - todo.added, todo.toggled, todo.a.b
//	*.changed   - config.changed, cursor.changed
//	todo.?dded  - single character wildcard
//
// # Delivery
//
// Handler subscriptions run synchronously in the publisher's goroutine, in
// subscription order. Channel subscriptions receive into a buffered channel;
// when the buffer is full the event is dropped for that subscriber and counted
// in Stats.
//
// A handler that panics does not stop delivery to the remaining subscribers.
// The panic is passed to the bus panic handler, which logs it by default.
//
// # Thread Safety
//
// Bus and Subscription are safe for concurrent use. Handlers may subscribe,
// cancel or publish from inside a handler.
package event
