package event

import (
	"errors"
	"fmt"
)

// Sentinel errors for the event bus.
var (
	// ErrBusClosed is returned when operations are attempted on a closed bus.
	ErrBusClosed = errors.New("event bus is closed")

	// ErrInvalidEvent is returned when an event has no type.
	ErrInvalidEvent = errors.New("invalid event")

	// ErrInvalidPattern is returned when a subscription pattern is empty.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrNilHandler is returned when a nil handler is provided.
	ErrNilHandler = errors.New("handler cannot be nil")

	// ErrHandlerPanic is matched by PanicError.
	ErrHandlerPanic = errors.New("handler panicked")
)

// PanicError wraps a panic raised by a bus handler.
type PanicError struct {
	// SubscriptionID is the ID of the subscription whose handler panicked.
	SubscriptionID string

	// Type is the event type being delivered.
	Type Type

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("handler panic for subscription %s on %s: %v", e.SubscriptionID, e.Type, e.Value)
}

// Is allows errors.Is to match PanicError with ErrHandlerPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrHandlerPanic
}
