package overlay

import (
	"github.com/emrgen/redline/internal/doctree"
	"github.com/google/uuid"
)

// Editor applies edits to a document according to the current mode and
// manages the comment and suggestion overlays stored as marks.
type Editor struct {
	doc      *doctree.Document
	mode     Mode
	tracking bool
	userID   string
	newID    func() string
	onChange func(*doctree.Mapping)
}

type Option func(*Editor)

// WithIDGenerator replaces the generator used for new suggestion ids.
func WithIDGenerator(f func() string) Option {
	return func(e *Editor) {
		e.newID = f
	}
}

// WithChangeHook registers f to run after every successful mutation with
// the mapping of the applied transaction.
func WithChangeHook(f func(*doctree.Mapping)) Option {
	return func(e *Editor) {
		e.onChange = f
	}
}

// NewEditor returns an editor in editing mode acting for userID.
func NewEditor(doc *doctree.Document, userID string, opts ...Option) *Editor {
	e := &Editor{
		doc:    doc,
		mode:   ModeEditing,
		userID: userID,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Editor) Document() *doctree.Document { return e.doc }
func (e *Editor) Mode() Mode                  { return e.mode }
func (e *Editor) UserID() string              { return e.userID }

// TrackChanges reports whether edits are currently recorded as suggestions.
func (e *Editor) TrackChanges() bool { return e.tracking }

// SetUser changes the user new suggestions are attributed to.
func (e *Editor) SetUser(userID string) {
	e.userID = userID
}

// SetMode switches the mode. Existing marks are left as they are.
func (e *Editor) SetMode(m Mode) {
	e.mode = m
	e.tracking = m == ModeSuggesting
}

// Apply runs tx against the document. In suggesting mode insertions and
// deletions are recorded as tracked changes instead.
func (e *Editor) Apply(tx *doctree.Transaction) (*doctree.Mapping, error) {
	if e.mode == ModeViewing {
		return nil, &ReadOnlyError{Op: "apply"}
	}
	var filter doctree.StepFilter
	if e.tracking {
		filter = e.capture
	}
	return e.apply(tx, filter)
}

// Replace swaps the whole document content.
func (e *Editor) Replace(root *doctree.Node) error {
	if e.mode == ModeViewing {
		return &ReadOnlyError{Op: "replace"}
	}
	e.doc.Replace(root)
	e.changed(&doctree.Mapping{})
	return nil
}

func (e *Editor) apply(tx *doctree.Transaction, filter doctree.StepFilter) (*doctree.Mapping, error) {
	mapping, err := e.doc.ApplyFiltered(tx, filter)
	if err != nil {
		return nil, err
	}
	if !tx.Empty() {
		e.changed(mapping)
	}
	return mapping, nil
}

func (e *Editor) changed(m *doctree.Mapping) {
	if e.onChange != nil {
		e.onChange(m)
	}
}

// AttachComment marks r with the comment id.
func (e *Editor) AttachComment(r doctree.Range, commentID string) error {
	if e.mode == ModeViewing {
		return &ReadOnlyError{Op: "add comment"}
	}
	if r.Empty() {
		return ErrEmptySelection
	}
	_, err := e.apply(doctree.NewTransaction().AddMark(r.From, r.To, doctree.Comment{CommentID: commentID}), nil)
	return err
}

// DetachComment removes every mark of the comment id. It reports whether
// any mark was found.
func (e *Editor) DetachComment(commentID string) (bool, error) {
	if e.mode == ModeViewing {
		return false, &ReadOnlyError{Op: "delete comment"}
	}
	runs := doctree.MarkRuns(e.doc.Root(), doctree.MarkComment, matchID(commentID))
	if len(runs) == 0 {
		return false, nil
	}
	tx := doctree.NewTransaction()
	for _, run := range runs {
		tx.RemoveMarkID(run.From, run.To, doctree.MarkComment, commentID)
	}
	_, err := e.apply(tx, nil)
	return err == nil, err
}

// CommentRanges returns the ranges currently marked with the comment id.
func (e *Editor) CommentRanges(commentID string) []doctree.Range {
	var out []doctree.Range
	for _, run := range doctree.MarkRuns(e.doc.Root(), doctree.MarkComment, matchID(commentID)) {
		out = append(out, run.Range)
	}
	return out
}

func matchID(id string) func(doctree.Mark) bool {
	return func(m doctree.Mark) bool {
		return doctree.MarkID(m) == id
	}
}
