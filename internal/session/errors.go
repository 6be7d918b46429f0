package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrPersistence is matched by every PersistenceError.
	ErrPersistence = errors.New("persistence failed")
	// ErrClosed is returned for mutations on a closed session.
	ErrClosed = errors.New("session is closed")
	// ErrEmptyComment is returned when a comment has no text.
	ErrEmptyComment = errors.New("comment text is empty")
)

// NotFoundError reports a document or comment id that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PersistenceError wraps a failure of a repository call. The in-memory
// document is never rolled back because of it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
