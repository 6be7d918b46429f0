package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/emrgen/redline/internal/doctree"
	"github.com/emrgen/redline/internal/overlay"
	"github.com/emrgen/redline/internal/service"
	"github.com/emrgen/redline/internal/session"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// ErrBadRequest is returned for a request body or parameter that cannot be read.
var ErrBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, doctree.ErrRange),
		errors.Is(err, doctree.ErrContent),
		errors.Is(err, doctree.ErrUnknownStep),
		errors.Is(err, doctree.ErrUnknownMark),
		errors.Is(err, doctree.ErrUnknownNode),
		errors.Is(err, overlay.ErrEmptySelection),
		errors.Is(err, overlay.ErrUnknownMode),
		errors.Is(err, session.ErrEmptyComment),
		errors.Is(err, service.ErrInvalidVersion):
		return http.StatusBadRequest
	case errors.Is(err, overlay.ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, session.ErrClosed):
		return http.StatusConflict
	case errors.Is(err, service.ErrServiceClosed),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests),
		errors.Is(err, session.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		logrus.Errorf("request failed: %v", err)
	}
	respondJSON(w, errorResponse{Error: err.Error()}, status)
}

func respondJSON(w http.ResponseWriter, body any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Warnf("error writing response: %v", err)
	}
}
