package store

import (
	"context"
	"errors"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/redline/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// BreakerStore stops calling the store after repeated failures so that
// saves fail fast while the database is down. Missing records do not count
// as failures.
type BreakerStore struct {
	Store
	cb *gobreaker.CircuitBreaker
}

var _ Store = (*BreakerStore)(nil)

type BreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		FailureRatio: 0.6,
		MinRequests:  5,
	}
}

func NewBreakerStore(store Store, config BreakerConfig) *BreakerStore {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "store",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= config.MinRequests && ratio >= config.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logrus.Warnf("circuit breaker %s: %s -> %s", name, from, to)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, model.ErrNotFound) || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerStore{Store: store, cb: cb}
}

func execute[T any](b *BreakerStore, f func() (T, error)) (T, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return f()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

func (b *BreakerStore) call(f func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, f()
	})
	return err
}

func (b *BreakerStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	return b.call(func() error { return b.Store.CreateDocument(ctx, doc) })
}

func (b *BreakerStore) LoadDocument(ctx context.Context, id string) (*model.Document, error) {
	return execute(b, func() (*model.Document, error) { return b.Store.LoadDocument(ctx, id) })
}

func (b *BreakerStore) ListDocuments(ctx context.Context, userID string) ([]*model.Document, error) {
	return execute(b, func() ([]*model.Document, error) { return b.Store.ListDocuments(ctx, userID) })
}

func (b *BreakerStore) SaveDocumentContent(ctx context.Context, id string, content []byte, updatedAt time.Time) error {
	return b.call(func() error { return b.Store.SaveDocumentContent(ctx, id, content, updatedAt) })
}

func (b *BreakerStore) SaveDocumentTitle(ctx context.Context, id, title string) error {
	return b.call(func() error { return b.Store.SaveDocumentTitle(ctx, id, title) })
}

func (b *BreakerStore) DeleteDocument(ctx context.Context, id string) error {
	return b.call(func() error { return b.Store.DeleteDocument(ctx, id) })
}

func (b *BreakerStore) ListComments(ctx context.Context, documentID string) ([]*model.Comment, error) {
	return execute(b, func() ([]*model.Comment, error) { return b.Store.ListComments(ctx, documentID) })
}

func (b *BreakerStore) InsertComment(ctx context.Context, comment *model.Comment) error {
	return b.call(func() error { return b.Store.InsertComment(ctx, comment) })
}

func (b *BreakerStore) UpdateComment(ctx context.Context, id string, resolved bool) error {
	return b.call(func() error { return b.Store.UpdateComment(ctx, id, resolved) })
}

func (b *BreakerStore) UpdateCommentAnchor(ctx context.Context, id string, from, to int) error {
	return b.call(func() error { return b.Store.UpdateCommentAnchor(ctx, id, from, to) })
}

func (b *BreakerStore) DeleteComment(ctx context.Context, id string) error {
	return b.call(func() error { return b.Store.DeleteComment(ctx, id) })
}

func (b *BreakerStore) ListDocumentBackups(ctx context.Context, docID string) ([]*model.DocumentBackup, error) {
	return execute(b, func() ([]*model.DocumentBackup, error) { return b.Store.ListDocumentBackups(ctx, docID) })
}

func (b *BreakerStore) GetDocumentBackup(ctx context.Context, docID string, version int64) (*model.DocumentBackup, error) {
	return execute(b, func() (*model.DocumentBackup, error) { return b.Store.GetDocumentBackup(ctx, docID, version) })
}

func (b *BreakerStore) ListDocumentBackupsByTime(ctx context.Context, from, to time.Time) ([]*model.DocumentBackup, error) {
	return execute(b, func() ([]*model.DocumentBackup, error) { return b.Store.ListDocumentBackupsByTime(ctx, from, to) })
}

func (b *BreakerStore) DeleteDocumentBackups(ctx context.Context, backups map[string]mapset.Set[int64]) error {
	return b.call(func() error { return b.Store.DeleteDocumentBackups(ctx, backups) })
}

func (b *BreakerStore) RestoreDocument(ctx context.Context, docID string, version int64, restoredAt time.Time) (*model.Document, error) {
	return execute(b, func() (*model.Document, error) { return b.Store.RestoreDocument(ctx, docID, version, restoredAt) })
}

// Transaction runs f as one breaker call against the unguarded store.
func (b *BreakerStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return b.call(func() error { return b.Store.Transaction(ctx, f) })
}
