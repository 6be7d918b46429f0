package overlay

import (
	"errors"
	"fmt"
	"testing"

	"github.com/emrgen/redline/internal/doctree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequence(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func newEditor(root *doctree.Node, mode Mode) *Editor {
	e := NewEditor(doctree.NewDocument(root), "user-a", WithIDGenerator(sequence("s")))
	e.SetMode(mode)
	return e
}

func TestEditor_SuggestDeleteThenResolve(t *testing.T) {
	e := newEditor(doctree.Doc(doctree.Text("Hello world")), ModeSuggesting)

	_, err := e.Apply(doctree.NewTransaction().Delete(6, 11))
	require.NoError(t, err)
	assert.Equal(t, "Hello world", e.Document().Text())

	marks, err := e.Document().MarksAt(8)
	require.NoError(t, err)
	m, ok := marks.Get(doctree.MarkTrackDelete)
	require.True(t, ok)
	assert.Equal(t, doctree.TrackDelete{SuggestionID: "s1", UserID: "user-a", OriginalText: "world"}, m)

	found, err := e.Reject("s1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Hello world", e.Document().Text())
	assert.Empty(t, Suggestions(e.Document().Root()))

	_, err = e.Apply(doctree.NewTransaction().Delete(6, 11))
	require.NoError(t, err)
	found, err = e.Accept("s2")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Hello ", e.Document().Text())
}

func TestEditor_AcceptInsertMatchesDirectInsert(t *testing.T) {
	tests := []struct {
		name string
		pos  int
		text string
	}{
		{name: "start", pos: 1, text: "Oh, "},
		{name: "middle", pos: 6, text: " there"},
		{name: "end", pos: 12, text: "!"},
		{name: "unicode", pos: 3, text: "éé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			direct := newEditor(doctree.Doc(doctree.Paragraph(doctree.Text("Hello world"))), ModeEditing)
			_, err := direct.Apply(doctree.NewTransaction().InsertText(tt.pos, tt.text))
			require.NoError(t, err)

			tracked := newEditor(doctree.Doc(doctree.Paragraph(doctree.Text("Hello world"))), ModeSuggesting)
			_, err = tracked.Apply(doctree.NewTransaction().InsertText(tt.pos, tt.text))
			require.NoError(t, err)
			assert.Equal(t, direct.Document().Text(), tracked.Document().Text())

			found, err := tracked.Accept("s1")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, direct.Document().Text(), tracked.Document().Text())
			assert.Empty(t, Suggestions(tracked.Document().Root()))

			rejected := newEditor(doctree.Doc(doctree.Paragraph(doctree.Text("Hello world"))), ModeSuggesting)
			_, err = rejected.Apply(doctree.NewTransaction().InsertText(tt.pos, tt.text))
			require.NoError(t, err)
			found, err = rejected.Reject("s1")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, "Hello world", rejected.Document().Text())
			assert.Len(t, rejected.Document().Root().Content[0].Content, 1)
		})
	}
}

func TestEditor_AcceptAllIsOrderIndependent(t *testing.T) {
	deletes := [][2]int{{2, 4}, {7, 9}, {5, 6}}
	orders := [][]int{{0, 1, 2}, {2, 1, 0}, {1, 0, 2}}

	for _, order := range orders {
		t.Run(fmt.Sprint(order), func(t *testing.T) {
			e := newEditor(doctree.Doc(doctree.Paragraph(doctree.Text("abcdefghij"))), ModeSuggesting)
			for _, i := range order {
				_, err := e.Apply(doctree.NewTransaction().Delete(deletes[i][0], deletes[i][1]))
				require.NoError(t, err)
			}
			assert.Len(t, Suggestions(e.Document().Root()), 3)

			count, err := e.AcceptAll()
			require.NoError(t, err)
			assert.Equal(t, 3, count)
			assert.Equal(t, "adfij", e.Document().Text())
		})
	}
}

func TestEditor_RejectAll(t *testing.T) {
	e := newEditor(doctree.Doc(doctree.Paragraph(doctree.Text("abc"))), ModeSuggesting)

	_, err := e.Apply(doctree.NewTransaction().
		InsertText(4, "d").
		InsertText(1, "_").
		Delete(3, 4))
	require.NoError(t, err)
	assert.Equal(t, "_abcd", e.Document().Text())

	count, err := e.RejectAll()
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, "abc", e.Document().Text())
	assert.Empty(t, Suggestions(e.Document().Root()))
}

func TestEditor_DeleteRetractsPendingInsert(t *testing.T) {
	e := newEditor(doctree.Doc(doctree.Paragraph(doctree.Text("abc"))), ModeSuggesting)

	_, err := e.Apply(doctree.NewTransaction().InsertText(2, "XY"))
	require.NoError(t, err)
	assert.Equal(t, "aXYbc", e.Document().Text())

	_, err = e.Apply(doctree.NewTransaction().Delete(1, 5))
	require.NoError(t, err)
	assert.Equal(t, "abc", e.Document().Text())

	suggestions := Suggestions(e.Document().Root())
	require.Len(t, suggestions, 1)
	assert.Equal(t, SuggestionDelete, suggestions[0].Type)
	assert.Equal(t, "ab", suggestions[0].Content)
	assert.Equal(t, []doctree.Range{{From: 1, To: 3}}, suggestions[0].Ranges)
}

func TestEditor_UnknownSuggestionIsNoop(t *testing.T) {
	e := newEditor(doctree.Doc(doctree.Paragraph(doctree.Text("abc"))), ModeEditing)

	found, err := e.Accept("missing")
	assert.NoError(t, err)
	assert.False(t, found)

	count, err := e.RejectAll()
	assert.NoError(t, err)
	assert.Zero(t, count)
}

func TestEditor_ViewingRejectsMutations(t *testing.T) {
	e := newEditor(doctree.Doc(doctree.Paragraph(doctree.Text("abc", doctree.TrackInsert{SuggestionID: "x"}))), ModeViewing)

	_, err := e.Apply(doctree.NewTransaction().InsertText(1, "z"))
	assert.True(t, errors.Is(err, ErrReadOnly))

	err = e.AttachComment(doctree.Range{From: 1, To: 2}, "c1")
	assert.True(t, errors.Is(err, ErrReadOnly))

	_, err = e.Accept("x")
	var readOnly *ReadOnlyError
	require.ErrorAs(t, err, &readOnly)
	assert.Equal(t, "accept suggestion", readOnly.Op)

	assert.Equal(t, "abc", e.Document().Text())
}

func TestEditor_ModeSwitchKeepsMarks(t *testing.T) {
	e := newEditor(doctree.Doc(doctree.Paragraph(doctree.Text("abc"))), ModeEditing)

	e.SetMode(ModeSuggesting)
	assert.True(t, e.TrackChanges())
	assert.Empty(t, Suggestions(e.Document().Root()))

	_, err := e.Apply(doctree.NewTransaction().InsertText(4, "d"))
	require.NoError(t, err)

	e.SetMode(ModeEditing)
	assert.False(t, e.TrackChanges())
	_, err = e.Apply(doctree.NewTransaction().InsertText(1, "_"))
	require.NoError(t, err)

	suggestions := Suggestions(e.Document().Root())
	require.Len(t, suggestions, 1)
	assert.Equal(t, SuggestionInsert, suggestions[0].Type)
	assert.Equal(t, "d", suggestions[0].Content)
	assert.Equal(t, "user-a", suggestions[0].UserID)
}

func TestEditor_Comments(t *testing.T) {
	e := newEditor(doctree.Doc(doctree.Text("Hello world")), ModeEditing)

	assert.ErrorIs(t, e.AttachComment(doctree.Range{From: 6, To: 6}, "c1"), ErrEmptySelection)
	require.NoError(t, e.AttachComment(doctree.Range{From: 6, To: 11}, "c1"))
	assert.Equal(t, []doctree.Range{{From: 6, To: 11}}, e.CommentRanges("c1"))

	found, err := e.DetachComment("c1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, e.CommentRanges("c1"))

	found, err = e.DetachComment("c1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEditor_ChangeHook(t *testing.T) {
	var calls int
	e := NewEditor(doctree.NewDocument(doctree.Doc(doctree.Paragraph(doctree.Text("abc")))), "u",
		WithChangeHook(func(m *doctree.Mapping) { calls++ }))

	_, err := e.Apply(doctree.NewTransaction().InsertText(1, "x"))
	require.NoError(t, err)
	_, err = e.Apply(doctree.NewTransaction().Delete(0, 100))
	assert.Error(t, err)
	_, err = e.Accept("none")
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeEditing, ModeSuggesting, ModeViewing} {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, parsed)
	}
	_, err := ParseMode("drafting")
	assert.ErrorIs(t, err, ErrUnknownMode)
}
