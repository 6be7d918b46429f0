package doctree

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func render(t *testing.T, n *html.Node) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, html.Render(&b, n))
	return b.String()
}

func TestToProjection(t *testing.T) {
	tests := []struct {
		name string
		root *Node
		want string
	}{
		{
			name: "marks",
			root: Doc(Paragraph(
				Text("plain "),
				Text("bold", Bold{}),
				Text(" and "),
				Text("link", Link{Href: "https://example.com"}),
			)),
			want: `<p>plain <strong>bold</strong> and <a href="https://example.com">link</a></p>`,
		},
		{
			name: "shared wrapper",
			root: Doc(Paragraph(Text("a", Bold{}), Text("b", Bold{}, Italic{}))),
			want: `<p><strong>a<em>b</em></strong></p>`,
		},
		{
			name: "comment wraps formatting",
			root: Doc(Paragraph(Text("x", Bold{}, Comment{CommentID: "c1"}))),
			want: `<p><span class="comment-highlight" data-comment-id="c1"><strong>x</strong></span></p>`,
		},
		{
			name: "suggestion",
			root: Doc(Paragraph(Text("new", TrackInsert{SuggestionID: "s1", UserID: "u1"}))),
			want: `<p><span class="track-insert" data-suggestion-id="s1" data-user-id="u1">new</span></p>`,
		},
		{
			name: "blocks",
			root: Doc(
				Heading(2, Text("Title")),
				OrderedList(3, ListItem(Paragraph(Text("item")))),
				CodeBlock("go", "x := 1"),
				HorizontalRule(),
			),
			want: `<h2>Title</h2><ol start="3"><li><p>item</p></li></ol><pre><code class="language-go">x := 1</code></pre><hr/>`,
		},
		{
			name: "root inline content",
			root: Doc(Text("Hello"), HardBreak(), Text("world")),
			want: `Hello<br/>world`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, ToProjection(tt.root)))
		})
	}
}

func TestFromProjection_RoundTrip(t *testing.T) {
	root := Doc(
		Heading(1, Text("Title")),
		Paragraph(
			Text("Some "),
			Text("bold", Bold{}),
			Text(" text", Italic{}, Comment{CommentID: "c1"}),
			HardBreak(),
			Text("next line", TrackDelete{SuggestionID: "s1", UserID: "u1", OriginalText: "next line"}),
		),
		BulletList(
			ListItem(Paragraph(Text("one"))),
			ListItem(Paragraph(Text("two")), BulletList(ListItem(Paragraph(Text("nested"))))),
		),
		Blockquote(Paragraph(Text("quoted ", Underline{}), Text("code", Code{}))),
		CodeBlock("go", "func main() {\n\tprintln(1)\n}"),
		HorizontalRule(),
		Paragraph(Image("a.png", "alt", ""), Text("end", Strike{}, Link{Href: "https://example.com", Title: "t"})),
	)

	got := FromProjection(ToProjection(root))

	want, err := json.Marshal(root)
	require.NoError(t, err)
	have, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(have))
}

func TestFromProjection_LooseHTML(t *testing.T) {
	n, err := html.Parse(strings.NewReader("<h5>deep</h5><div><p>a  <b>b</b>\n</p></div>loose <i>tail</i>"))
	require.NoError(t, err)

	root := FromProjection(n)

	require.Len(t, root.Content, 3)
	assert.Equal(t, NodeHeading, root.Content[0].Type)
	assert.Equal(t, MaxHeadingLevel, root.Content[0].Attrs.Level)
	assert.Equal(t, "a b", root.Content[1].TextContent())
	assert.Equal(t, NodeParagraph, root.Content[2].Type)
	assert.Equal(t, "loose tail", root.Content[2].TextContent())
}

func TestNode_JSON(t *testing.T) {
	root := Doc(Paragraph(Text("Hi", Bold{})), Heading(2, Text("T")))

	data, err := json.Marshal(root)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"doc","content":[
		{"type":"paragraph","content":[{"type":"text","text":"Hi","marks":[{"type":"bold"}]}]},
		{"type":"heading","attrs":{"level":2},"content":[{"type":"text","text":"T"}]}
	]}`, string(data))

	var decoded Node
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, root, &decoded)

	err = json.Unmarshal([]byte(`{"type":"table"}`), &decoded)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestTransaction_JSON(t *testing.T) {
	tx := NewTransaction().
		InsertText(1, "x", Bold{}).
		AddMark(1, 2, Comment{CommentID: "c"}).
		RemoveMarkID(1, 2, MarkTrackInsert, "s").
		SetBlockType(1, 1, NodeHeading, Attrs{Level: 1}).
		SplitBlock(2).
		Delete(1, 2)

	data, err := json.Marshal(tx)
	require.NoError(t, err)

	var decoded Transaction
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, tx.Steps, decoded.Steps)

	err = json.Unmarshal([]byte(`{"steps":[{"type":"wrap"}]}`), &decoded)
	assert.ErrorIs(t, err, ErrUnknownStep)
}
