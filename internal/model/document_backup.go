package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// DocumentBackup is the stored content of a document at one version. A
// backup of the previous content is written every time the content is
// saved, so the history can be listed and restored.
type DocumentBackup struct {
	ID          string `gorm:"primaryKey;uuid"`
	Version     int64  `gorm:"primaryKey;autoIncrement:false"`
	Title       string
	Content     []byte
	Compression string
	CreatedAt   time.Time `gorm:"index"`
}

func (DocumentBackup) TableName() string {
	return "document_backups"
}

// BackupOf copies the stored state of doc.
func BackupOf(doc *Document, at time.Time) *DocumentBackup {
	return &DocumentBackup{
		ID:          doc.ID,
		Version:     doc.Version,
		Title:       doc.Title,
		Content:     doc.Content,
		Compression: doc.Compression,
		CreatedAt:   at,
	}
}

// SaveDocumentBackup inserts the backup, replacing one with the same
// version.
func SaveDocumentBackup(db *gorm.DB, backup *DocumentBackup) error {
	return db.Save(backup).Error
}

// ListDocumentBackups returns the backups of a document newest first
// without their content.
func ListDocumentBackups(db *gorm.DB, id string) ([]*DocumentBackup, error) {
	backups := make([]*DocumentBackup, 0)
	err := db.Omit("content").Where("id = ?", id).Order("version desc").Find(&backups).Error
	return backups, err
}

func GetDocumentBackup(db *gorm.DB, id string, version int64) (*DocumentBackup, error) {
	backup := &DocumentBackup{}
	err := db.Where("id = ? AND version = ?", id, version).First(backup).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return backup, nil
}

// ListDocumentBackupsByTime returns the backups created in [from, to)
// ordered by document and creation time, without their content.
func ListDocumentBackupsByTime(db *gorm.DB, from, to time.Time) ([]*DocumentBackup, error) {
	backups := make([]*DocumentBackup, 0)
	err := db.Omit("content").
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("id, created_at").
		Find(&backups).Error
	return backups, err
}

func DeleteDocumentBackups(db *gorm.DB, id string, versions []int64) error {
	if len(versions) == 0 {
		return nil
	}
	return db.Where("id = ? AND version IN ?", id, versions).Delete(&DocumentBackup{}).Error
}
