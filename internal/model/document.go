package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrNotFound is returned by every lookup of a missing record.
var ErrNotFound = errors.New("record not found")

type Document struct {
	ID          string `gorm:"primaryKey;uuid;not null;"`
	UserID      string `gorm:"uuid;not null;index"`
	Title       string `gorm:"not null;default:''"`
	Content     []byte // the json document tree, compressed with Compression
	Compression string // the compression algorithm used to compress the document content
	Version     int64  `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func CreateDocument(db *gorm.DB, document *Document) error {
	return db.Create(document).Error
}

func GetDocument(db *gorm.DB, id string) (*Document, error) {
	document := &Document{}
	err := db.Where("id = ?", id).First(document).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		logrus.Errorf("Error getting document: %v", err)
		return nil, err
	}

	return document, nil
}

func GetDocuments(db *gorm.DB, userID string) ([]*Document, error) {
	documents := make([]*Document, 0)
	err := db.Where("user_id = ?", userID).Order("updated_at desc").Find(&documents).Error
	if err != nil {
		return nil, err
	}

	return documents, nil
}

func DeleteDocument(db *gorm.DB, id string) error {
	res := db.Where("id = ?", id).Delete(&Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (d *Document) MarshalBinary() ([]byte, error) {
	return json.Marshal(d)
}

func (d *Document) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, d)
}
