package store

import (
	"errors"
	"fmt"

	"github.com/dshills/flux/internal/event"
)

// ErrPanic is matched by PanicError.
var ErrPanic = errors.New("panic during dispatch")

// Stage identifies where processing of an event failed.
type Stage int

const (
	// StageHandler means the handler failed and nothing was committed.
	StageHandler Stage = iota

	// StageNotify means a subscriber failed after the state was committed.
	StageNotify
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageHandler:
		return "handler"
	case StageNotify:
		return "notify"
	default:
		return "unknown"
	}
}

// DispatchError records the failure of a single event.
type DispatchError struct {
	Event event.Event
	Stage Stage
	Err   error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s (seq %d): %s: %v", e.Event.Type, e.Event.Metadata.Seq, e.Stage, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// PanicError wraps a value recovered from a handler or subscriber.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Is allows errors.Is to match PanicError with ErrPanic.
func (e *PanicError) Is(target error) bool {
	return target == ErrPanic
}
