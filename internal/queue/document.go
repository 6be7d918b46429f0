package queue

import (
	"context"
	"time"
)

// DocumentEventTopic is the default topic document events are published to.
var DocumentEventTopic = "document.events"

type EventType string

const (
	EventContentSaved        EventType = "content_saved"
	EventTitleChanged        EventType = "title_changed"
	EventCommentAdded        EventType = "comment_added"
	EventCommentResolved     EventType = "comment_resolved"
	EventCommentDeleted      EventType = "comment_deleted"
	EventSuggestionsResolved EventType = "suggestions_resolved"
	EventDocumentDeleted     EventType = "document_deleted"
)

// DocumentEvent describes something that happened to a document.
type DocumentEvent struct {
	Type       EventType `json:"type"`
	DocumentID string    `json:"documentId"`
	UserID     string    `json:"userId,omitempty"`
	// SubjectID is the comment or suggestion the event is about, if any.
	SubjectID string    `json:"subjectId,omitempty"`
	At        time.Time `json:"at"`
}

type DocumentQueue interface {
	// Publish appends an event to the queue.
	Publish(ctx context.Context, event *DocumentEvent) error
	// Close flushes pending events and releases the queue.
	Close() error
}
