package service

import (
	"errors"

	"github.com/emrgen/redline/internal/model"
	"github.com/emrgen/redline/internal/session"
)

var (
	// ErrServiceClosed is returned after Close.
	ErrServiceClosed = errors.New("document service is closed")
	// ErrInvalidVersion is returned for a negative backup version.
	ErrInvalidVersion = errors.New("backup version must not be negative")
)

// notFound turns a store miss into a session.NotFoundError so callers match
// a single error regardless of whether the session was open.
func notFound(kind, id string, err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return &session.NotFoundError{Kind: kind, ID: id}
	}
	return err
}
