package service

import (
	"context"

	"github.com/emrgen/redline/internal/doctree"
	"github.com/emrgen/redline/internal/model"
	"github.com/emrgen/redline/internal/overlay"
	"github.com/emrgen/redline/internal/session"
)

// AddComment anchors a comment by the user of ctx to r.
func (d *DocumentService) AddComment(ctx context.Context, id string, r doctree.Range, text string) (*model.Comment, error) {
	var comment *model.Comment
	err := d.withSession(ctx, id, func(s *session.Session) (err error) {
		comment, err = s.AddComment(r, text)
		return err
	})
	return comment, err
}

// ResolveComment toggles the resolved flag of a comment.
func (d *DocumentService) ResolveComment(ctx context.Context, id, commentID string) (*model.Comment, error) {
	var comment *model.Comment
	err := d.withSession(ctx, id, func(s *session.Session) (err error) {
		comment, err = s.ResolveComment(commentID)
		return err
	})
	return comment, err
}

func (d *DocumentService) DeleteComment(ctx context.Context, id, commentID string) error {
	return d.withSession(ctx, id, func(s *session.Session) error {
		return s.DeleteComment(commentID)
	})
}

func (d *DocumentService) ListComments(ctx context.Context, id string) ([]*model.Comment, error) {
	var comments []*model.Comment
	err := d.withSession(ctx, id, func(s *session.Session) error {
		comments = s.Comments()
		return nil
	})
	return comments, err
}

// ListSuggestions lists the pending suggestions in document order.
func (d *DocumentService) ListSuggestions(ctx context.Context, id string) ([]overlay.Suggestion, error) {
	var suggestions []overlay.Suggestion
	err := d.withSession(ctx, id, func(s *session.Session) error {
		suggestions = s.Suggestions()
		return nil
	})
	return suggestions, err
}

// AcceptSuggestion applies one suggestion and reports whether it existed.
func (d *DocumentService) AcceptSuggestion(ctx context.Context, id, suggestionID string) (bool, error) {
	var found bool
	err := d.withSession(ctx, id, func(s *session.Session) (err error) {
		found, err = s.Accept(suggestionID)
		return err
	})
	return found, err
}

// RejectSuggestion drops one suggestion and reports whether it existed.
func (d *DocumentService) RejectSuggestion(ctx context.Context, id, suggestionID string) (bool, error) {
	var found bool
	err := d.withSession(ctx, id, func(s *session.Session) (err error) {
		found, err = s.Reject(suggestionID)
		return err
	})
	return found, err
}

// ResolveAll accepts or rejects every suggestion and returns how many.
func (d *DocumentService) ResolveAll(ctx context.Context, id string, accept bool) (int, error) {
	var count int
	err := d.withSession(ctx, id, func(s *session.Session) (err error) {
		if accept {
			count, err = s.AcceptAll()
		} else {
			count, err = s.RejectAll()
		}
		return err
	})
	return count, err
}
