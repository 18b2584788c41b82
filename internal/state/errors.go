package state

import (
	"errors"
	"fmt"
)

// Sentinel errors for state operations.
var (
	// ErrInvalidDocument is returned when text is not a valid JSON document.
	ErrInvalidDocument = errors.New("invalid state document")

	// ErrEmptyPath is returned by operations that need at least one key.
	ErrEmptyPath = errors.New("empty state path")

	// ErrNotFound is returned by Decode when the path does not exist.
	ErrNotFound = errors.New("state path not found")
)

// PathError records a failed operation on a Snapshot path.
type PathError struct {
	Op   string // "set", "delete", "decode"
	Path Path
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("state %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}
