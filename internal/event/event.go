package event

import (
	"time"

	"github.com/google/uuid"
)

// Type identifies an event, e.g. "counter.inc_by".
type Type string

// String returns the type name.
func (t Type) String() string {
	return string(t)
}

// Event represents a named action submitted to a store or a bus.
// Events are immutable once created; the With* methods return copies.
type Event struct {
	// Type selects the handler that processes the event.
	Type Type

	// Payload is the event argument. Handlers type-assert it;
	// nil means the event carries no argument.
	Payload any

	// Metadata contains standard event information.
	Metadata Metadata
}

// Metadata contains standard information attached to every event.
type Metadata struct {
	// ID is a unique identifier for this event instance.
	ID string

	// Timestamp is when the event was created.
	Timestamp time.Time

	// Source identifies who created the event.
	Source string

	// Seq is the position assigned by the store that accepted the event.
	// Zero until the event is accepted.
	Seq uint64
}

// New creates a new event with the given type and payload.
func New(t Type, payload any, source string) Event {
	return Event{
		Type:    t,
		Payload: payload,
		Metadata: Metadata{
			ID:        uuid.NewString(),
			Timestamp: time.Now(),
			Source:    source,
		},
	}
}

// IsZero reports whether e is the zero Event.
func (e Event) IsZero() bool {
	return e.Type == "" && e.Payload == nil && e.Metadata.ID == ""
}

// WithSource returns a copy of the event with a different source.
func (e Event) WithSource(source string) Event {
	e.Metadata.Source = source
	return e
}

// WithSeq returns a copy of the event with a sequence number set.
func (e Event) WithSeq(seq uint64) Event {
	e.Metadata.Seq = seq
	return e
}
