package cache

import (
	"context"

	"github.com/emrgen/redline/internal/model"
)

// DocumentCache is a cache for documents.
type DocumentCache interface {
	// GetDocumentVersion gets the cached version of a document, 0 when it is not cached.
	GetDocumentVersion(ctx context.Context, id string) (int64, error)
	// GetDocument gets a document from the cache, nil when it is not cached.
	GetDocument(ctx context.Context, id string) (*model.Document, error)
	// SetDocument sets a document in the cache.
	SetDocument(ctx context.Context, doc *model.Document) error
	// DeleteDocument deletes a document from the cache.
	DeleteDocument(ctx context.Context, id string) error
}
