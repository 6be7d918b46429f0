package store

import (
	"context"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/redline/internal/model"
)

// Store persists documents, their comments and their backups. Content
// passed in and returned is the uncompressed snapshot; compression is an
// implementation detail of the store.
type Store interface {
	DocumentStore
	CommentStore
	DocumentBackupStore
	Transaction(ctx context.Context, f func(tx Store) error) error
	Migrate() error
}

type DocumentStore interface {
	// CreateDocument creates a new document. An empty ID is filled in.
	CreateDocument(ctx context.Context, doc *model.Document) error
	// LoadDocument retrieves a document by ID.
	LoadDocument(ctx context.Context, id string) (*model.Document, error)
	// ListDocuments retrieves the documents of a user without content.
	ListDocuments(ctx context.Context, userID string) ([]*model.Document, error)
	// SaveDocumentContent replaces the content and keeps the old one as a backup.
	SaveDocumentContent(ctx context.Context, id string, content []byte, updatedAt time.Time) error
	// SaveDocumentTitle updates the title.
	SaveDocumentTitle(ctx context.Context, id, title string) error
	// DeleteDocument deletes a document with its comments and backups.
	DeleteDocument(ctx context.Context, id string) error
}

type CommentStore interface {
	ListComments(ctx context.Context, documentID string) ([]*model.Comment, error)
	InsertComment(ctx context.Context, comment *model.Comment) error
	UpdateComment(ctx context.Context, id string, resolved bool) error
	UpdateCommentAnchor(ctx context.Context, id string, from, to int) error
	DeleteComment(ctx context.Context, id string) error
}

type DocumentBackupStore interface {
	// ListDocumentBackups lists the backups of a document newest first, without content.
	ListDocumentBackups(ctx context.Context, docID string) ([]*model.DocumentBackup, error)
	// GetDocumentBackup retrieves a backup by document ID and version.
	GetDocumentBackup(ctx context.Context, docID string, version int64) (*model.DocumentBackup, error)
	// ListDocumentBackupsByTime lists the backups created in [from, to).
	ListDocumentBackupsByTime(ctx context.Context, from, to time.Time) ([]*model.DocumentBackup, error)
	// DeleteDocumentBackups deletes the given versions per document ID.
	DeleteDocumentBackups(ctx context.Context, backups map[string]mapset.Set[int64]) error
	// RestoreDocument makes a backup the current content, backing up the current one first.
	RestoreDocument(ctx context.Context, docID string, version int64, restoredAt time.Time) (*model.Document, error)
}
