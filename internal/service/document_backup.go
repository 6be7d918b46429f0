package service

import (
	"context"
	"time"

	"github.com/emrgen/redline/internal/model"
)

// ListBackups lists the saved versions of a document, newest first.
func (d *DocumentService) ListBackups(ctx context.Context, id string) ([]*model.DocumentBackup, error) {
	if _, err := d.store.LoadDocument(ctx, id); err != nil {
		return nil, notFound("document", id, err)
	}
	return d.store.ListDocumentBackups(ctx, id)
}

// GetBackup returns one saved version with its content.
func (d *DocumentService) GetBackup(ctx context.Context, id string, version int64) (*model.DocumentBackup, error) {
	if version < 0 {
		return nil, ErrInvalidVersion
	}
	backup, err := d.store.GetDocumentBackup(ctx, id, version)
	if err != nil {
		return nil, notFound("backup", id, err)
	}
	return backup, nil
}

// RestoreBackup makes a saved version the current content. An open session
// is closed first, which saves its pending edits as a newer backup; the
// next request opens the restored content.
func (d *DocumentService) RestoreBackup(ctx context.Context, id string, version int64) (*model.Document, error) {
	if version < 0 {
		return nil, ErrInvalidVersion
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrServiceClosed
	}
	d.sessions.Remove(id)

	doc, err := d.store.RestoreDocument(ctx, id, version, time.Now())
	if err != nil {
		return nil, notFound("backup", id, err)
	}
	return doc, nil
}
