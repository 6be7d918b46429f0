package store

import (
	"context"
	"time"

	"github.com/emrgen/redline/internal/cache"
	"github.com/emrgen/redline/internal/model"
	"github.com/sirupsen/logrus"
)

// CachedStore reads documents through a cache. Every write evicts the
// document; cache failures fall back to the store.
type CachedStore struct {
	Store
	cache cache.DocumentCache
}

var _ Store = (*CachedStore)(nil)

func NewCachedStore(store Store, cache cache.DocumentCache) *CachedStore {
	return &CachedStore{Store: store, cache: cache}
}

func (c *CachedStore) LoadDocument(ctx context.Context, id string) (*model.Document, error) {
	doc, err := c.cache.GetDocument(ctx, id)
	if err != nil {
		logrus.Warnf("cache: %v", err)
	}
	if doc != nil {
		return doc, nil
	}

	doc, err = c.Store.LoadDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetDocument(ctx, doc); err != nil {
		logrus.Warnf("cache: %v", err)
	}
	return doc, nil
}

func (c *CachedStore) evict(ctx context.Context, id string) {
	if err := c.cache.DeleteDocument(ctx, id); err != nil {
		logrus.Warnf("cache: %v", err)
	}
}

func (c *CachedStore) SaveDocumentContent(ctx context.Context, id string, content []byte, updatedAt time.Time) error {
	defer c.evict(ctx, id)
	return c.Store.SaveDocumentContent(ctx, id, content, updatedAt)
}

func (c *CachedStore) SaveDocumentTitle(ctx context.Context, id, title string) error {
	defer c.evict(ctx, id)
	return c.Store.SaveDocumentTitle(ctx, id, title)
}

func (c *CachedStore) DeleteDocument(ctx context.Context, id string) error {
	defer c.evict(ctx, id)
	return c.Store.DeleteDocument(ctx, id)
}

func (c *CachedStore) RestoreDocument(ctx context.Context, docID string, version int64, restoredAt time.Time) (*model.Document, error) {
	defer c.evict(ctx, docID)
	return c.Store.RestoreDocument(ctx, docID, version, restoredAt)
}

func (c *CachedStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return c.Store.Transaction(ctx, func(tx Store) error {
		return f(&CachedStore{Store: tx, cache: c.cache})
	})
}
