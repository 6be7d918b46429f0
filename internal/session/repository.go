package session

import (
	"context"
	"time"

	"github.com/emrgen/redline/internal/model"
)

// User is the person editing. A nil *User is an anonymous session.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Name is the display name, falling back to the id.
func (u *User) Name() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.ID
}

type UserProvider interface {
	CurrentUser(ctx context.Context) (*User, error)
}

// DocumentRepository persists documents. LoadDocument returns an error
// matching model.ErrNotFound for a missing document.
type DocumentRepository interface {
	LoadDocument(ctx context.Context, id string) (*model.Document, error)
	SaveDocumentContent(ctx context.Context, id string, content []byte, updatedAt time.Time) error
	SaveDocumentTitle(ctx context.Context, id, title string) error
	DeleteDocument(ctx context.Context, id string) error
}

type CommentRepository interface {
	ListComments(ctx context.Context, documentID string) ([]*model.Comment, error)
	InsertComment(ctx context.Context, comment *model.Comment) error
	UpdateComment(ctx context.Context, id string, resolved bool) error
	DeleteComment(ctx context.Context, id string) error
}

// AnchorUpdater is implemented by comment repositories that can store moved
// comment anchors.
type AnchorUpdater interface {
	UpdateCommentAnchor(ctx context.Context, id string, from, to int) error
}

type userKey struct{}

// WithUser returns a context carrying user.
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// UserFromContext returns the user stored by WithUser.
func UserFromContext(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(userKey{}).(*User)
	return user, ok && user != nil
}

// ContextUsers reads the current user from the request context.
type ContextUsers struct{}

func (ContextUsers) CurrentUser(ctx context.Context) (*User, error) {
	user, _ := UserFromContext(ctx)
	return user, nil
}

var _ UserProvider = ContextUsers{}
