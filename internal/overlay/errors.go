package overlay

import (
	"errors"
	"fmt"
)

var (
	// ErrReadOnly is matched by every ReadOnlyError.
	ErrReadOnly = errors.New("document is read-only")
	// ErrEmptySelection is returned when a comment targets an empty range.
	ErrEmptySelection = errors.New("selection is empty")
	// ErrUnknownMode is returned by ParseMode.
	ErrUnknownMode = errors.New("unknown mode")
)

// ReadOnlyError is returned for a mutation attempted in viewing mode.
type ReadOnlyError struct {
	Op string
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("%s: document is read-only in viewing mode", e.Op)
}

func (e *ReadOnlyError) Is(target error) bool {
	return target == ErrReadOnly
}
