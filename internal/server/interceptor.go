package server

import (
	"net/http"
	"time"

	"github.com/emrgen/redline/internal/session"
	"github.com/sirupsen/logrus"
)

const (
	userIDHeader   = "X-User-Id"
	userNameHeader = "X-User-Name"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestTimeMiddleware logs the method, path, status and duration of
// every request.
func RequestTimeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logrus.Infof("request time: %s %s %d: %v", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// UserMiddleware puts the user named by the identity headers into the
// request context. Requests without X-User-Id stay anonymous.
func UserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(userIDHeader)
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		user := &session.User{ID: id, DisplayName: r.Header.Get(userNameHeader)}
		next.ServeHTTP(w, r.WithContext(session.WithUser(r.Context(), user)))
	})
}
