package store

import (
	"context"
	"errors"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/redline/internal/compress"
	"github.com/emrgen/redline/internal/model"
	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func NewGormStore(db *gorm.DB, encoder compress.Compress) *GormStore {
	if encoder == nil {
		encoder = compress.NewNop()
	}
	return &GormStore{
		db:      db,
		encoder: encoder,
	}
}

var _ Store = (*GormStore)(nil)

type GormStore struct {
	db      *gorm.DB
	encoder compress.Compress
}

// wrap annotates storage failures. ErrNotFound is returned as is.
func wrap(err error, msg string) error {
	if err == nil || errors.Is(err, model.ErrNotFound) {
		return err
	}
	return pkgerrors.Wrap(err, msg)
}

func (g *GormStore) decode(doc *model.Document) error {
	decoder, err := compress.Lookup(doc.Compression)
	if err != nil {
		return pkgerrors.Wrapf(err, "document %s compressed with %q", doc.ID, doc.Compression)
	}
	content, err := decoder.Decode(doc.Content)
	if err != nil {
		return pkgerrors.Wrapf(err, "decode document %s", doc.ID)
	}
	doc.Content = content
	doc.Compression = ""
	return nil
}

func (g *GormStore) CreateDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	content, err := g.encoder.Encode(doc.Content)
	if err != nil {
		return pkgerrors.Wrap(err, "encode document")
	}

	row := *doc
	row.Content = content
	row.Compression = g.encoder.Name()
	if err := model.CreateDocument(g.db.WithContext(ctx), &row); err != nil {
		return pkgerrors.Wrap(err, "create document")
	}
	doc.CreatedAt, doc.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

func (g *GormStore) LoadDocument(ctx context.Context, id string) (*model.Document, error) {
	doc, err := model.GetDocument(g.db.WithContext(ctx), id)
	if err != nil {
		return nil, wrap(err, "load document")
	}
	if err := g.decode(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (g *GormStore) ListDocuments(ctx context.Context, userID string) ([]*model.Document, error) {
	docs, err := model.GetDocuments(g.db.WithContext(ctx).Omit("content"), userID)
	return docs, wrap(err, "list documents")
}

// SaveDocumentContent backs up the stored content and bumps the version.
func (g *GormStore) SaveDocumentContent(ctx context.Context, id string, content []byte, updatedAt time.Time) error {
	encoded, err := g.encoder.Encode(content)
	if err != nil {
		return pkgerrors.Wrap(err, "encode document")
	}

	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := model.GetDocument(tx, id)
		if err != nil {
			return err
		}
		if len(current.Content) > 0 {
			if err := model.SaveDocumentBackup(tx, model.BackupOf(current, updatedAt)); err != nil {
				return err
			}
		}

		return tx.Model(&model.Document{}).Where("id = ?", id).Updates(map[string]any{
			"content":     encoded,
			"compression": g.encoder.Name(),
			"version":     current.Version + 1,
			"updated_at":  updatedAt,
		}).Error
	})
	return wrap(err, "save document content")
}

func (g *GormStore) SaveDocumentTitle(ctx context.Context, id, title string) error {
	res := g.db.WithContext(ctx).Model(&model.Document{}).Where("id = ?", id).Update("title", title)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "save document title")
	}
	if res.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (g *GormStore) DeleteDocument(ctx context.Context, id string) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := model.DeleteDocument(tx, id); err != nil {
			return err
		}
		if err := model.DeleteDocumentComments(tx, id); err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&model.DocumentBackup{}).Error
	})
	if err == nil {
		logrus.Infof("deleted document %s", id)
	}
	return wrap(err, "delete document")
}

func (g *GormStore) ListComments(ctx context.Context, documentID string) ([]*model.Comment, error) {
	comments, err := model.ListComments(g.db.WithContext(ctx), documentID)
	return comments, wrap(err, "list comments")
}

func (g *GormStore) InsertComment(ctx context.Context, comment *model.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	return wrap(model.CreateComment(g.db.WithContext(ctx), comment), "insert comment")
}

func (g *GormStore) UpdateComment(ctx context.Context, id string, resolved bool) error {
	err := model.UpdateComment(g.db.WithContext(ctx), id, map[string]any{"resolved": resolved})
	return wrap(err, "update comment")
}

func (g *GormStore) UpdateCommentAnchor(ctx context.Context, id string, from, to int) error {
	err := model.UpdateComment(g.db.WithContext(ctx), id, map[string]any{
		"position_from": from,
		"position_to":   to,
	})
	return wrap(err, "update comment anchor")
}

func (g *GormStore) DeleteComment(ctx context.Context, id string) error {
	return wrap(model.DeleteComment(g.db.WithContext(ctx), id), "delete comment")
}

func (g *GormStore) ListDocumentBackups(ctx context.Context, docID string) ([]*model.DocumentBackup, error) {
	backups, err := model.ListDocumentBackups(g.db.WithContext(ctx), docID)
	return backups, wrap(err, "list document backups")
}

// GetDocumentBackup returns the backup with its content decoded.
func (g *GormStore) GetDocumentBackup(ctx context.Context, docID string, version int64) (*model.DocumentBackup, error) {
	backup, err := model.GetDocumentBackup(g.db.WithContext(ctx), docID, version)
	if err != nil {
		return nil, wrap(err, "get document backup")
	}
	decoder, err := compress.Lookup(backup.Compression)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "backup %s@%d", docID, version)
	}
	if backup.Content, err = decoder.Decode(backup.Content); err != nil {
		return nil, pkgerrors.Wrapf(err, "decode backup %s@%d", docID, version)
	}
	backup.Compression = ""
	return backup, nil
}

func (g *GormStore) ListDocumentBackupsByTime(ctx context.Context, from, to time.Time) ([]*model.DocumentBackup, error) {
	backups, err := model.ListDocumentBackupsByTime(g.db.WithContext(ctx), from, to)
	return backups, wrap(err, "list document backups by time")
}

func (g *GormStore) DeleteDocumentBackups(ctx context.Context, backups map[string]mapset.Set[int64]) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for id, versions := range backups {
			if err := model.DeleteDocumentBackups(tx, id, versions.ToSlice()); err != nil {
				return err
			}
		}
		return nil
	})
	return wrap(err, "delete document backups")
}

// RestoreDocument copies a backup over the current content. The current
// content is backed up first so a restore can be undone.
func (g *GormStore) RestoreDocument(ctx context.Context, docID string, version int64, restoredAt time.Time) (*model.Document, error) {
	var restored *model.Document
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		backup, err := model.GetDocumentBackup(tx, docID, version)
		if err != nil {
			return err
		}
		current, err := model.GetDocument(tx, docID)
		if err != nil {
			return err
		}
		if err := model.SaveDocumentBackup(tx, model.BackupOf(current, restoredAt)); err != nil {
			return err
		}

		err = tx.Model(&model.Document{}).Where("id = ?", docID).Updates(map[string]any{
			"content":     backup.Content,
			"compression": backup.Compression,
			"version":     current.Version + 1,
			"updated_at":  restoredAt,
		}).Error
		if err != nil {
			return err
		}

		current.Content, current.Compression = backup.Content, backup.Compression
		current.Version++
		current.UpdatedAt = restoredAt
		restored = current
		return nil
	})
	if err != nil {
		return nil, wrap(err, "restore document")
	}

	logrus.Infof("restored document %s to version %d", docID, version)
	if err := g.decode(restored); err != nil {
		return nil, err
	}
	return restored, nil
}

func (g *GormStore) Migrate() error {
	return model.Migrate(g.db)
}

func (g *GormStore) Transaction(ctx context.Context, f func(tx Store) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return f(&GormStore{db: tx, encoder: g.encoder})
	})
}
