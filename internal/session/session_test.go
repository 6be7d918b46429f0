package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emrgen/redline/internal/doctree"
	"github.com/emrgen/redline/internal/model"
	"github.com/emrgen/redline/internal/overlay"
	"github.com/emrgen/redline/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu        sync.Mutex
	documents map[string]*model.Document
	comments  map[string]*model.Comment
	saves     int
	fail      error
	anchors   map[string][2]int
}

var (
	_ DocumentRepository = (*memRepo)(nil)
	_ CommentRepository  = (*memRepo)(nil)
	_ AnchorUpdater      = (*memRepo)(nil)
)

func newRepo(t *testing.T, id string, root *doctree.Node) *memRepo {
	content, err := json.Marshal(root)
	require.NoError(t, err)
	return &memRepo{
		documents: map[string]*model.Document{id: {ID: id, Title: "Notes", Content: content}},
		comments:  map[string]*model.Comment{},
		anchors:   map[string][2]int{},
	}
}

func (r *memRepo) setFail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail = err
}

func (r *memRepo) LoadDocument(_ context.Context, id string) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.documents[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := *doc
	return &out, nil
}

func (r *memRepo) SaveDocumentContent(_ context.Context, id string, content []byte, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.saves++
	r.documents[id].Content = content
	r.documents[id].UpdatedAt = updatedAt
	return nil
}

func (r *memRepo) SaveDocumentTitle(_ context.Context, id, title string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.documents[id].Title = title
	return nil
}

func (r *memRepo) DeleteDocument(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.documents[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.documents, id)
	return nil
}

func (r *memRepo) ListComments(_ context.Context, documentID string) ([]*model.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Comment
	for _, c := range r.comments {
		if c.DocumentID == documentID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) InsertComment(_ context.Context, c *model.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	cp := *c
	r.comments[c.ID] = &cp
	return nil
}

func (r *memRepo) UpdateComment(_ context.Context, id string, resolved bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	r.comments[id].Resolved = resolved
	return nil
}

func (r *memRepo) DeleteComment(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.comments, id)
	return nil
}

func (r *memRepo) UpdateCommentAnchor(_ context.Context, id string, from, to int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.anchors[id] = [2]int{from, to}
	return nil
}

func (r *memRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func (r *memRepo) storedText(t *testing.T, id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	root := &doctree.Node{}
	require.NoError(t, json.Unmarshal(r.documents[id].Content, root))
	return root.TextBetween(0, root.ContentSize(), "\n")
}

type fixedUser struct{ user *User }

func (f fixedUser) CurrentUser(context.Context) (*User, error) { return f.user, nil }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%08d-0000-0000-0000-000000000000", n)
	}
}

func openHello(t *testing.T, opts ...Option) (*Session, *memRepo) {
	return openDoc(t, doctree.Doc(doctree.Paragraph(doctree.Text("Hello world"))), opts...)
}

func openDoc(t *testing.T, root *doctree.Node, opts ...Option) (*Session, *memRepo) {
	repo := newRepo(t, "doc1", root)
	opts = append([]Option{WithSaveDelay(20 * time.Millisecond), WithIDGenerator(sequentialIDs())}, opts...)
	s, err := Open(context.TODO(), "doc1", repo, repo, fixedUser{&User{ID: "u1", DisplayName: "A"}}, opts...)
	require.NoError(t, err)
	return s, repo
}

func TestOpen_NotFound(t *testing.T) {
	repo := newRepo(t, "doc1", doctree.Doc())
	_, err := Open(context.TODO(), "missing", repo, repo, nil)

	assert.ErrorIs(t, err, ErrNotFound)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "document", nf.Kind)
}

func TestOpen_EmptyContent(t *testing.T) {
	repo := &memRepo{documents: map[string]*model.Document{"d": {ID: "d"}}, comments: map[string]*model.Comment{}}
	s, err := Open(context.TODO(), "d", repo, repo, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Snapshot().ContentSize())
	assert.Nil(t, s.User())
}

func TestSession_CommentLifecycle(t *testing.T) {
	s, repo := openDoc(t, doctree.Doc(doctree.Text("Hello world")))
	defer s.Close(context.TODO())

	c, err := s.AddComment(doctree.Range{From: 6, To: 11}, "fix this")
	require.NoError(t, err)
	assert.Equal(t, 6, c.PositionFrom)
	assert.Equal(t, 11, c.PositionTo)
	assert.False(t, c.Resolved)
	assert.Equal(t, "A", c.UserName)

	c, err = s.ResolveComment(c.ID)
	require.NoError(t, err)
	assert.True(t, c.Resolved)

	s.Wait()
	assert.True(t, repo.comments[c.ID].Resolved)

	out := s.AnnotatedMarkdown()
	assert.Contains(t, out, "## Resolved Comments\n\n- ~~[00000001]: \"fix this\" — *A*~~")
	assert.NotContains(t, out, "## Comments\n")
	assert.Contains(t, out, "Hello world<!-- COMMENT_REF[00000001-0000-0000-0000-000000000000] -->")
}

func TestSession_AddCommentValidation(t *testing.T) {
	s, _ := openHello(t)
	defer s.Close(context.TODO())

	_, err := s.AddComment(doctree.Range{From: 1, To: 3}, "  ")
	assert.ErrorIs(t, err, ErrEmptyComment)

	_, err = s.AddComment(doctree.Range{From: 3, To: 3}, "note")
	assert.ErrorIs(t, err, overlay.ErrEmptySelection)

	_, err = s.AddComment(doctree.Range{From: 1, To: 99}, "note")
	assert.ErrorIs(t, err, doctree.ErrRange)

	_, err = s.ResolveComment("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Empty(t, s.Comments())
}

func TestSession_DeleteCommentRemovesMark(t *testing.T) {
	s, repo := openHello(t)
	defer s.Close(context.TODO())

	c, err := s.AddComment(doctree.Range{From: 1, To: 6}, "hi")
	require.NoError(t, err)
	require.NoError(t, s.DeleteComment(c.ID))
	s.Wait()

	assert.Empty(t, s.Comments())
	assert.Empty(t, repo.comments)
	marks, err := doctree.MarksAt(s.Snapshot(), 3)
	require.NoError(t, err)
	assert.False(t, marks.Has(doctree.MarkComment))

	assert.ErrorIs(t, s.DeleteComment(c.ID), ErrNotFound)
}

func TestSession_DebouncedSave(t *testing.T) {
	s, repo := openHello(t)
	defer s.Close(context.TODO())

	for i, ch := range "!!!" {
		_, err := s.Apply(doctree.NewTransaction().InsertText(12+i, string(ch)))
		require.NoError(t, err)
	}
	assert.True(t, s.Status().Dirty())

	assert.Eventually(t, func() bool { return !s.Status().Dirty() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, repo.saveCount())
	assert.Equal(t, "Hello world!!!", repo.storedText(t, "doc1"))
}

func TestSession_SaveFailureKeepsEdits(t *testing.T) {
	var mu sync.Mutex
	var reported []*PersistenceError
	s, repo := openHello(t, WithErrorHandler(func(err *PersistenceError) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, err)
	}))
	defer s.Close(context.TODO())

	repo.setFail(errors.New("db down"))
	_, err := s.Apply(doctree.NewTransaction().InsertText(12, "!"))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reported) == 1
	}, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, reported[0], ErrPersistence)
	assert.Equal(t, "Hello world!", s.Text())
	assert.True(t, s.Status().Dirty())
	assert.ErrorIs(t, s.Status().LastError, ErrPersistence)

	// the next edit retries
	repo.setFail(nil)
	_, err = s.Apply(doctree.NewTransaction().InsertText(13, "?"))
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return !s.Status().Dirty() }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Hello world!?", repo.storedText(t, "doc1"))
	assert.NoError(t, s.Status().LastError)
}

func TestSession_CloseFlushesAndRejectsEdits(t *testing.T) {
	s, repo := openHello(t, WithSaveDelay(time.Hour))

	_, err := s.Apply(doctree.NewTransaction().Delete(6, 12))
	require.NoError(t, err)
	require.NoError(t, s.Close(context.TODO()))

	assert.Equal(t, "Hello", repo.storedText(t, "doc1"))
	_, err = s.Apply(doctree.NewTransaction().InsertText(1, "x"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSession_SuggestingScenario(t *testing.T) {
	s, _ := openHello(t)
	defer s.Close(context.TODO())
	require.NoError(t, s.SetMode(overlay.ModeSuggesting))

	_, err := s.Apply(doctree.NewTransaction().Delete(7, 12))
	require.NoError(t, err)
	assert.Equal(t, "Hello world", s.Text())

	suggestions := s.Suggestions()
	require.Len(t, suggestions, 1)
	assert.Equal(t, overlay.SuggestionDelete, suggestions[0].Type)
	assert.Equal(t, "world", suggestions[0].Content)
	assert.Contains(t, s.AnnotatedMarkdown(), "- **DELETE** [00000001]: \"world\" — *A*")

	found, err := s.Reject(suggestions[0].ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Hello world", s.Text())
	assert.Empty(t, s.Suggestions())

	_, err = s.Apply(doctree.NewTransaction().Delete(7, 12))
	require.NoError(t, err)
	n, err := s.AcceptAll()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Hello ", s.Text())

	found, err = s.Accept("unknown")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestSession_ViewingIsReadOnly(t *testing.T) {
	s, _ := openHello(t)
	defer s.Close(context.TODO())
	require.NoError(t, s.SetMode(overlay.ModeViewing))

	_, err := s.Apply(doctree.NewTransaction().InsertText(1, "x"))
	assert.ErrorIs(t, err, overlay.ErrReadOnly)
	_, err = s.AddComment(doctree.Range{From: 1, To: 3}, "note")
	assert.ErrorIs(t, err, overlay.ErrReadOnly)
	assert.ErrorIs(t, s.SetTitle("x"), overlay.ErrReadOnly)
	assert.ErrorIs(t, s.Import("# x"), overlay.ErrReadOnly)
}

func TestSession_SetTitleAndEvents(t *testing.T) {
	events := queue.NewMemoryQueue(16)
	ch := events.Subscribe()
	s, repo := openHello(t, WithEvents(events))
	defer s.Close(context.TODO())

	require.NoError(t, s.SetTitle("  Plans "))
	s.Wait()

	assert.Equal(t, "Plans", s.Title())
	assert.Equal(t, "Plans", repo.documents["doc1"].Title)

	ev := <-ch
	assert.Equal(t, queue.EventTitleChanged, ev.Type)
	assert.Equal(t, "doc1", ev.DocumentID)
	assert.Equal(t, "u1", ev.UserID)
}

func TestSession_Reanchoring(t *testing.T) {
	s, repo := openHello(t, WithReanchoring())
	defer s.Close(context.TODO())

	c, err := s.AddComment(doctree.Range{From: 7, To: 12}, "fix this")
	require.NoError(t, err)
	_, err = s.Apply(doctree.NewTransaction().InsertText(1, "Oh, "))
	require.NoError(t, err)
	s.Wait()

	got, err := s.Comment(c.ID)
	require.NoError(t, err)
	assert.Equal(t, 11, got.PositionFrom)
	assert.Equal(t, 16, got.PositionTo)
	assert.Equal(t, [2]int{11, 16}, repo.anchors[c.ID])
}

func TestSession_AnchorsStayWithoutReanchoring(t *testing.T) {
	s, _ := openHello(t)
	defer s.Close(context.TODO())

	c, err := s.AddComment(doctree.Range{From: 7, To: 12}, "fix this")
	require.NoError(t, err)
	_, err = s.Apply(doctree.NewTransaction().InsertText(1, "Oh, "))
	require.NoError(t, err)

	got, err := s.Comment(c.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.PositionFrom)
	assert.Equal(t, 12, got.PositionTo)
}

func TestSession_Paste(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "plain", text: "big ", want: "Hello big world"},
		{name: "markdown inline", text: "**big**", want: "Hello bigworld"},
		{name: "markdown blocks", text: "# Title\n- one", want: "Hello Title\noneworld"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := openHello(t)
			defer s.Close(context.TODO())

			_, err := s.Paste(7, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Text())
		})
	}
}

func TestSession_PasteKeepsFormatting(t *testing.T) {
	s, _ := openHello(t)
	defer s.Close(context.TODO())

	_, err := s.Paste(7, "**big**")
	require.NoError(t, err)

	marks, err := doctree.MarksAt(s.Snapshot(), 8)
	require.NoError(t, err)
	assert.True(t, marks.Has(doctree.MarkBold))
}

func TestSession_ImportAndExport(t *testing.T) {
	s, _ := openHello(t)
	defer s.Close(context.TODO())

	require.NoError(t, s.Import("# Title\n\nSome **bold** text"))
	assert.Equal(t, "# Title\n\nSome **bold** text", s.Markdown())
	assert.True(t, strings.HasPrefix(s.AnnotatedMarkdown(), "<!--\nDOCUMENT METADATA FOR LLM:\n"))
}

func TestSession_Delete(t *testing.T) {
	events := queue.NewMemoryQueue(4)
	ch := events.Subscribe()
	s, repo := openHello(t, WithEvents(events))

	require.NoError(t, s.Delete(context.TODO()))
	assert.Empty(t, repo.documents)
	assert.Equal(t, queue.EventDocumentDeleted, (<-ch).Type)
	assert.ErrorIs(t, s.Delete(context.TODO()), ErrClosed)
}
