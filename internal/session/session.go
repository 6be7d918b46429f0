package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/emrgen/redline/internal/debounce"
	"github.com/emrgen/redline/internal/doctree"
	"github.com/emrgen/redline/internal/markdown"
	"github.com/emrgen/redline/internal/model"
	"github.com/emrgen/redline/internal/overlay"
	"github.com/emrgen/redline/internal/queue"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

const writeTimeout = 30 * time.Second

// Session is the single writer of one document. It owns the editor, the
// comments of the document and the persistence of both.
type Session struct {
	mu sync.Mutex

	id       string
	title    string
	user     *User
	editor   *overlay.Editor
	comments []*model.Comment
	// names maps user ids to the display names seen in this session.
	names map[string]string

	docs  DocumentRepository
	notes CommentRepository
	opts  *options

	saver  *debounce.Debouncer
	saveMu sync.Mutex
	writes writer

	revision  uint64
	saved     uint64
	savedAt   time.Time
	lastError error
	closed    bool
}

// Status describes how far the stored content is behind the editor.
type Status struct {
	Revision      uint64
	SavedRevision uint64
	SavedAt       time.Time
	LastError     error
}

// Dirty reports whether there are edits not yet saved.
func (s Status) Dirty() bool {
	return s.Revision != s.SavedRevision
}

// Open loads the document id with its comments and starts a session for the
// current user.
func Open(ctx context.Context, id string, docs DocumentRepository, notes CommentRepository, users UserProvider, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	var user *User
	if users != nil {
		u, err := users.CurrentUser(ctx)
		if err != nil {
			return nil, fmt.Errorf("current user: %w", err)
		}
		user = u
	}

	record, err := docs.LoadDocument(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, &NotFoundError{Kind: "document", ID: id}
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load document", Err: err}
	}

	var root *doctree.Node
	if len(record.Content) > 0 {
		root = &doctree.Node{}
		if err := json.Unmarshal(record.Content, root); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", id, err)
		}
	}

	comments, err := notes.ListComments(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "list comments", Err: err}
	}

	s := &Session{
		id:       id,
		title:    record.Title,
		user:     user,
		comments: comments,
		names:    map[string]string{},
		docs:     docs,
		notes:    notes,
		opts:     o,
		savedAt:  record.UpdatedAt,
	}
	for _, c := range comments {
		if c.UserName != "" {
			s.names[c.UserID] = c.UserName
		}
	}
	s.rememberUser(user)

	s.editor = overlay.NewEditor(doctree.NewDocument(root), user.id(),
		overlay.WithIDGenerator(o.newID),
		overlay.WithChangeHook(s.changed),
	)
	s.saver = debounce.New(o.saveDelay, s.saveLater)

	logrus.Infof("session: opened document %s", id)
	return s, nil
}

func (u *User) id() string {
	if u == nil {
		return ""
	}
	return u.ID
}

func (s *Session) rememberUser(u *User) {
	if u != nil && u.ID != "" {
		s.names[u.ID] = u.Name()
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Session) Mode() overlay.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Mode()
}

// SetMode switches between editing, suggesting and viewing.
func (s *Session) SetMode(m overlay.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.editor.SetMode(m)
	return nil
}

// SetUser changes who new comments and suggestions are attributed to.
func (s *Session) SetUser(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
	s.rememberUser(u)
	s.editor.SetUser(u.id())
}

// Snapshot returns a copy of the document tree.
func (s *Session) Snapshot() *doctree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Document().Snapshot()
}

func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Document().Text()
}

func (s *Session) Projection() *html.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Document().Projection()
}

// Apply runs a transaction through the editor.
func (s *Session) Apply(tx *doctree.Transaction) (*doctree.Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.editor.Apply(tx)
}

// Replace swaps the whole content. Comment entities are kept even when
// their marks are gone.
func (s *Session) Replace(root *doctree.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.editor.Replace(root)
}

// Import replaces the content with the parsed markdown text.
func (s *Session) Import(text string) error {
	return s.Replace(doctree.FromProjection(markdown.Parse(text)))
}

// changed runs under s.mu from the editor's change hook.
func (s *Session) changed(m *doctree.Mapping) {
	s.revision++
	if s.opts.reanchor && m.Len() > 0 {
		s.reanchor(m)
	}
	s.saver.Trigger()
}

func (s *Session) reanchor(m *doctree.Mapping) {
	updater, _ := s.notes.(AnchorUpdater)
	for _, c := range s.comments {
		r := m.MapRange(doctree.Range{From: c.PositionFrom, To: c.PositionTo})
		if r.From == c.PositionFrom && r.To == c.PositionTo {
			continue
		}
		c.PositionFrom, c.PositionTo = r.From, r.To
		if updater == nil {
			continue
		}
		id := c.ID
		s.enqueue("update comment anchor", func(ctx context.Context) error {
			return updater.UpdateCommentAnchor(ctx, id, r.From, r.To)
		}, nil)
	}
}

// enqueue schedules a repository write. Failures go to the error handler,
// success publishes event.
func (s *Session) enqueue(op string, f func(ctx context.Context) error, event *queue.DocumentEvent) {
	s.writes.enqueue(func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := f(ctx); err != nil {
			s.report(&PersistenceError{Op: op, Err: err})
			return
		}
		s.publish(ctx, event)
	})
}

// notify publishes event after the writes enqueued before it.
func (s *Session) notify(event *queue.DocumentEvent) {
	s.enqueue("publish", func(context.Context) error { return nil }, event)
}

func (s *Session) report(err *PersistenceError) {
	s.mu.Lock()
	s.lastError = err
	s.mu.Unlock()
	s.opts.onError(err)
}

func (s *Session) publish(ctx context.Context, event *queue.DocumentEvent) {
	if event == nil || s.opts.events == nil {
		return
	}
	if err := s.opts.events.Publish(ctx, event); err != nil {
		logrus.Warnf("session: publish %s for %s: %v", event.Type, s.id, err)
	}
}

// event runs under s.mu.
func (s *Session) event(t queue.EventType, subject string) *queue.DocumentEvent {
	return &queue.DocumentEvent{
		Type:       t,
		DocumentID: s.id,
		UserID:     s.user.id(),
		SubjectID:  subject,
		At:         s.opts.now(),
	}
}

// saveLater is the debounced save.
func (s *Session) saveLater() {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.save(ctx); err != nil {
		s.opts.onError(err)
	}
}

func (s *Session) save(ctx context.Context) *PersistenceError {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.revision == s.saved {
		s.mu.Unlock()
		return nil
	}
	revision := s.revision
	content, err := json.Marshal(s.editor.Document().Root())
	event := s.event(queue.EventContentSaved, "")
	s.mu.Unlock()
	if err != nil {
		return &PersistenceError{Op: "encode document", Err: err}
	}

	now := s.opts.now()
	if err := s.docs.SaveDocumentContent(ctx, s.id, content, now); err != nil {
		perr := &PersistenceError{Op: "save document", Err: err}
		s.mu.Lock()
		s.lastError = perr
		s.mu.Unlock()
		return perr
	}

	s.mu.Lock()
	s.saved = revision
	s.savedAt = now
	s.lastError = nil
	s.mu.Unlock()

	s.publish(ctx, event)
	return nil
}

// Flush saves pending content now.
func (s *Session) Flush(ctx context.Context) error {
	s.saver.Cancel()
	if err := s.save(ctx); err != nil {
		return err
	}
	return nil
}

// Wait blocks until the comment and title writes issued so far finished.
func (s *Session) Wait() {
	s.writes.wait()
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Revision:      s.revision,
		SavedRevision: s.saved,
		SavedAt:       s.savedAt,
		LastError:     s.lastError,
	}
}

// Close cancels the scheduled save, writes pending content once and waits
// for in-flight writes. Nothing is written after Close returns.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	err := s.Flush(ctx)
	s.Wait()
	logrus.Infof("session: closed document %s", s.id)
	return err
}

// Delete removes the document and ends the session.
func (s *Session) Delete(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	event := s.event(queue.EventDocumentDeleted, "")
	s.mu.Unlock()

	s.saver.Cancel()
	s.Wait()
	if err := s.docs.DeleteDocument(ctx, s.id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return &NotFoundError{Kind: "document", ID: s.id}
		}
		return &PersistenceError{Op: "delete document", Err: err}
	}
	s.publish(ctx, event)
	return nil
}

// SetTitle changes the title and saves it right away.
func (s *Session) SetTitle(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.editor.Mode() == overlay.ModeViewing {
		return &overlay.ReadOnlyError{Op: "set title"}
	}
	title = strings.TrimSpace(title)
	s.title = title
	s.enqueue("save title", func(ctx context.Context) error {
		return s.docs.SaveDocumentTitle(ctx, s.id, title)
	}, s.event(queue.EventTitleChanged, ""))
	return nil
}

// AddComment marks r and stores a new comment for it.
func (s *Session) AddComment(r doctree.Range, text string) (*model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyComment
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	id := s.opts.newID()
	if err := s.editor.AttachComment(r, id); err != nil {
		return nil, err
	}
	comment := &model.Comment{
		ID:           id,
		DocumentID:   s.id,
		UserID:       s.user.id(),
		UserName:     s.user.Name(),
		Content:      text,
		PositionFrom: r.From,
		PositionTo:   r.To,
		CreatedAt:    s.opts.now(),
	}
	s.comments = append(s.comments, comment)

	stored := *comment
	s.enqueue("insert comment", func(ctx context.Context) error {
		return s.notes.InsertComment(ctx, &stored)
	}, s.event(queue.EventCommentAdded, id))

	out := *comment
	return &out, nil
}

// ResolveComment toggles the resolved flag. The highlight stays.
func (s *Session) ResolveComment(id string) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	c := s.comment(id)
	if c == nil {
		return nil, &NotFoundError{Kind: "comment", ID: id}
	}
	c.Resolved = !c.Resolved

	resolved := c.Resolved
	s.enqueue("update comment", func(ctx context.Context) error {
		return s.notes.UpdateComment(ctx, id, resolved)
	}, s.event(queue.EventCommentResolved, id))

	out := *c
	return &out, nil
}

// DeleteComment deletes the comment and removes its highlight.
func (s *Session) DeleteComment(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	index := -1
	for i, c := range s.comments {
		if c.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return &NotFoundError{Kind: "comment", ID: id}
	}
	if _, err := s.editor.DetachComment(id); err != nil {
		return err
	}
	s.comments = append(s.comments[:index], s.comments[index+1:]...)

	s.enqueue("delete comment", func(ctx context.Context) error {
		return s.notes.DeleteComment(ctx, id)
	}, s.event(queue.EventCommentDeleted, id))
	return nil
}

func (s *Session) comment(id string) *model.Comment {
	for _, c := range s.comments {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Comment returns a copy of the comment id.
func (s *Session) Comment(id string) (*model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.comment(id)
	if c == nil {
		return nil, &NotFoundError{Kind: "comment", ID: id}
	}
	out := *c
	return &out, nil
}

// Comments returns copies of the comments in creation order.
func (s *Session) Comments() []*model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Comment, len(s.comments))
	for i, c := range s.comments {
		cp := *c
		out[i] = &cp
	}
	return out
}

func (s *Session) Suggestions() []overlay.Suggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return overlay.Suggestions(s.editor.Document().Root())
}

// Accept applies the suggestion id. Unknown ids report false.
func (s *Session) Accept(id string) (bool, error) {
	return s.resolveOne(id, s.editor.Accept)
}

// Reject drops the suggestion id. Unknown ids report false.
func (s *Session) Reject(id string) (bool, error) {
	return s.resolveOne(id, s.editor.Reject)
}

func (s *Session) resolveOne(id string, f func(string) (bool, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	found, err := f(id)
	if err != nil || !found {
		return found, err
	}
	s.notify(s.event(queue.EventSuggestionsResolved, id))
	return true, nil
}

func (s *Session) AcceptAll() (int, error) {
	return s.resolveAll(s.editor.AcceptAll)
}

func (s *Session) RejectAll() (int, error) {
	return s.resolveAll(s.editor.RejectAll)
}

func (s *Session) resolveAll(f func() (int, error)) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	n, err := f()
	if err != nil || n == 0 {
		return n, err
	}
	s.notify(s.event(queue.EventSuggestionsResolved, ""))
	return n, nil
}

// Markdown exports the content without annotations.
func (s *Session) Markdown() string {
	return markdown.ToMarkdown(s.Projection())
}

// AnnotatedMarkdown exports the content with suggestions and comment
// references inline and the comment and suggestion details appended.
func (s *Session) AnnotatedMarkdown() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	comments := make([]markdown.CommentData, 0, len(s.comments))
	for _, c := range s.comments {
		comments = append(comments, markdown.CommentData{
			ID:       c.ID,
			Content:  c.Content,
			Author:   c.Author(),
			Resolved: c.Resolved,
		})
	}

	root := s.editor.Document().Root()
	var suggestions []markdown.SuggestionData
	for _, sg := range overlay.Suggestions(root) {
		suggestions = append(suggestions, markdown.SuggestionData{
			ID:      sg.ID,
			Type:    string(sg.Type),
			Content: sg.Content,
			Author:  s.authorName(sg.UserID),
		})
	}

	return markdown.ToAnnotatedMarkdown(doctree.ToProjection(root), comments, suggestions)
}

func (s *Session) authorName(userID string) string {
	if name, ok := s.names[userID]; ok {
		return name
	}
	return userID
}
