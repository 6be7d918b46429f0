package server

import (
	"encoding/json"
	"time"

	"github.com/emrgen/redline/internal/model"
)

type documentResponse struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Title     string          `json:"title"`
	Version   int64           `json:"version"`
	Content   json.RawMessage `json:"content,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func documentOf(doc *model.Document) *documentResponse {
	return &documentResponse{
		ID:        doc.ID,
		UserID:    doc.UserID,
		Title:     doc.Title,
		Version:   doc.Version,
		Content:   rawContent(doc.Content),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

func documentsOf(docs []*model.Document) []*documentResponse {
	out := make([]*documentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, documentOf(doc))
	}
	return out
}

type backupResponse struct {
	ID        string          `json:"id"`
	Version   int64           `json:"version"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func backupOf(backup *model.DocumentBackup) *backupResponse {
	return &backupResponse{
		ID:        backup.ID,
		Version:   backup.Version,
		Title:     backup.Title,
		Content:   rawContent(backup.Content),
		CreatedAt: backup.CreatedAt,
	}
}

func backupsOf(backups []*model.DocumentBackup) []*backupResponse {
	out := make([]*backupResponse, 0, len(backups))
	for _, backup := range backups {
		out = append(out, backupOf(backup))
	}
	return out
}

type commentResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Content   string    `json:"content"`
	From      int       `json:"from"`
	To        int       `json:"to"`
	Resolved  bool      `json:"resolved"`
	CreatedAt time.Time `json:"createdAt"`
}

func commentOf(c *model.Comment) *commentResponse {
	return &commentResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		UserName:  c.UserName,
		Content:   c.Content,
		From:      c.PositionFrom,
		To:        c.PositionTo,
		Resolved:  c.Resolved,
		CreatedAt: c.CreatedAt,
	}
}

func commentsOf(comments []*model.Comment) []*commentResponse {
	out := make([]*commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentOf(c))
	}
	return out
}

func rawContent(content []byte) json.RawMessage {
	if len(content) == 0 || !json.Valid(content) {
		return nil
	}
	return content
}
