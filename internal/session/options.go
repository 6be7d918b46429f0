package session

import (
	"time"

	"github.com/emrgen/redline/internal/queue"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultSaveDelay is the quiet period before edited content is saved.
const DefaultSaveDelay = time.Second

type options struct {
	saveDelay time.Duration
	onError   func(*PersistenceError)
	reanchor  bool
	newID     func() string
	now       func() time.Time
	events    queue.DocumentQueue
}

func defaultOptions() *options {
	return &options{
		saveDelay: DefaultSaveDelay,
		onError: func(err *PersistenceError) {
			logrus.Errorf("session: %v", err)
		},
		newID: uuid.NewString,
		now:   time.Now,
	}
}

type Option func(*options)

// WithSaveDelay sets the debounce delay of content saves.
func WithSaveDelay(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.saveDelay = d
		}
	}
}

// WithErrorHandler receives every failed background write.
func WithErrorHandler(f func(*PersistenceError)) Option {
	return func(o *options) {
		if f != nil {
			o.onError = f
		}
	}
}

// WithReanchoring moves stored comment anchors along with the edits. By
// default anchors keep the offsets they were created with.
func WithReanchoring() Option {
	return func(o *options) {
		o.reanchor = true
	}
}

// WithIDGenerator replaces the generator of comment and suggestion ids.
func WithIDGenerator(f func() string) Option {
	return func(o *options) {
		o.newID = f
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithEvents publishes document events to q after successful writes.
func WithEvents(q queue.DocumentQueue) Option {
	return func(o *options) {
		o.events = q
	}
}
