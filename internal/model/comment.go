package model

import (
	"time"

	"gorm.io/gorm"
)

// Comment is a remark anchored to a range of a document. The anchor is the
// range at the time the comment was created.
type Comment struct {
	ID           string `gorm:"primaryKey;uuid;not null"`
	DocumentID   string `gorm:"uuid;not null;index"`
	UserID       string `gorm:"not null"`
	UserName     string
	Content      string `gorm:"not null"`
	PositionFrom int
	PositionTo   int
	Resolved     bool `gorm:"not null;default:false"`
	CreatedAt    time.Time
}

// Author is the name shown for the comment.
func (c *Comment) Author() string {
	if c.UserName != "" {
		return c.UserName
	}
	return c.UserID
}

func CreateComment(db *gorm.DB, comment *Comment) error {
	return db.Create(comment).Error
}

// ListComments returns the comments of a document oldest first.
func ListComments(db *gorm.DB, documentID string) ([]*Comment, error) {
	comments := make([]*Comment, 0)
	err := db.Where("document_id = ?", documentID).Order("created_at, id").Find(&comments).Error
	return comments, err
}

func UpdateComment(db *gorm.DB, id string, values map[string]any) error {
	res := db.Model(&Comment{}).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func DeleteComment(db *gorm.DB, id string) error {
	res := db.Where("id = ?", id).Delete(&Comment{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDocumentComments removes every comment of a document.
func DeleteDocumentComments(db *gorm.DB, documentID string) error {
	return db.Where("document_id = ?", documentID).Delete(&Comment{}).Error
}
