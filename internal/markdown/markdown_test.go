package markdown

import (
	"strings"
	"testing"

	"github.com/emrgen/redline/internal/doctree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const normalized = "# Title\n\n" +
	"Some **bold** and _italic_ and ~~strike~~.\n\n" +
	"- one\n- two\n\n" +
	"1. first\n2. second\n\n" +
	"> quoted\n\n" +
	"```go\nfmt.Println(1)\n```\n\n" +
	"---\n\n" +
	"A <u>under</u> [link](https://example.com) and `code`."

func TestToMarkdown_RoundTrip(t *testing.T) {
	assert.Equal(t, normalized, ToMarkdown(Parse(normalized)))
}

func TestToMarkdown_Idempotent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "setext heading and star bullets",
			input: "Title\n=====\n\n* one\n* two\n\n*em* and __strong__",
			want:  "# Title\n\n- one\n- two\n\n_em_ and **strong**",
		},
		{
			name:  "single newline is a line break",
			input: "line one\nline two",
			want:  "line one\nline two",
		},
		{
			name:  "nested list",
			input: "- a\n  - b\n- c",
			want:  "- a\n  - b\n- c",
		},
		{
			name:  "literal syntax is escaped",
			input: `a \*not bold\* and 1\. item`,
			want:  `a \*not bold\* and 1. item`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := ToMarkdown(Parse(tt.input))
			assert.Equal(t, tt.want, first)
			assert.Equal(t, first, ToMarkdown(Parse(first)))
		})
	}
}

func TestParse_LoadsIntoTree(t *testing.T) {
	root := doctree.FromProjection(Parse("## Heading\n\nText with <u>underline</u>\n\n#### Deep"))

	require.Len(t, root.Content, 3)
	assert.Equal(t, doctree.NodeHeading, root.Content[0].Type)
	assert.Equal(t, 2, root.Content[0].Attrs.Level)

	para := root.Content[1]
	require.Len(t, para.Content, 2)
	assert.True(t, para.Content[1].Marks.Has(doctree.MarkUnderline))

	assert.Equal(t, doctree.MaxHeadingLevel, root.Content[2].Attrs.Level)
}

func TestParse_NeverFails(t *testing.T) {
	for _, input := range []string{"", "[unclosed](", "<div>", "```\nno end", "\x00\xff"} {
		assert.NotPanics(t, func() {
			root := doctree.FromProjection(Parse(input))
			assert.NotNil(t, root)
		})
	}
}

func annotatedDoc() *doctree.Node {
	return doctree.Doc(
		doctree.Paragraph(
			doctree.Text("Hello "),
			doctree.Text("world", doctree.Comment{CommentID: "c0ffee00-1111-2222"}),
			doctree.Text(" and "),
			doctree.Text("more", doctree.TrackInsert{SuggestionID: "5a11ad00-aaaa", UserID: "u1"}),
		),
		doctree.Paragraph(
			doctree.Text("old", doctree.TrackDelete{SuggestionID: "de1e7e00-bbbb", UserID: "u2", OriginalText: "old"}),
			doctree.Text(" text", doctree.Bold{}),
		),
	)
}

func TestToMarkdown_DropsAnnotations(t *testing.T) {
	out := ToMarkdown(doctree.ToProjection(annotatedDoc()))

	assert.Equal(t, "Hello world and more\n\nold **text**", out)
	assert.NotContains(t, out, "<!--")
}

func TestToAnnotatedMarkdown(t *testing.T) {
	comments := []CommentData{
		{ID: "c0ffee00-1111-2222", Content: "fix this", Author: "A", Resolved: true},
		{ID: "abcdef0123", Content: "open one"},
	}
	suggestions := []SuggestionData{
		{ID: "5a11ad00-aaaa", Type: "insert", Content: "more", Author: "B"},
		{ID: "de1e7e00-bbbb", Type: "delete", Content: "old"},
	}

	out := ToAnnotatedMarkdown(doctree.ToProjection(annotatedDoc()), comments, suggestions)

	assert.True(t, strings.HasPrefix(out, "<!--\nDOCUMENT METADATA FOR LLM:\n"+
		"- Total comments: 2\n- Active comments: 1\n- Resolved comments: 1\n- Pending suggestions: 2\n\n"+
		"ANNOTATION FORMAT:\n"))
	assert.Contains(t, out, "Hello world<!-- COMMENT_REF[c0ffee00-1111-2222] --> and <!-- SUGGESTION(insert): more -->")
	assert.Contains(t, out, "<!-- SUGGESTION(delete): old --> **text**")
	assert.Equal(t, 2+2, strings.Count(out, "SUGGESTION("), "legend plus one per run")
	assert.Equal(t, 1+1, strings.Count(out, "COMMENT_REF["), "legend plus one per run")

	assert.Contains(t, out, "## Comments\n\n- **[abcdef01]**: \"open one\"\n")
	assert.Contains(t, out, "## Resolved Comments\n\n- ~~[c0ffee00]: \"fix this\" — *A*~~\n")
	assert.Contains(t, out, "## Pending Suggestions\n\n- **INSERT** [5a11ad00]: \"more\" — *B*\n- **DELETE** [de1e7e00]: \"old\"\n")

	activeSection := out[strings.Index(out, "## Comments"):strings.Index(out, "## Resolved Comments")]
	assert.NotContains(t, activeSection, "fix this")
}

func TestToAnnotatedMarkdown_OmitsEmptySections(t *testing.T) {
	out := ToAnnotatedMarkdown(Parse("just text"), nil, nil)

	assert.True(t, strings.HasSuffix(out, "-->\n\njust text\n"))
	assert.NotContains(t, out, "## ")
	assert.NotContains(t, out, "\n---\n")
}

func TestLooksLikeMarkdown(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{text: "plain sentence.", want: false},
		{text: "# Title\n- item", want: true},
		{text: "see [docs](https://example.com)", want: true},
		{text: "use `go test`", want: true},
		{text: "> quoted", want: true},
		{text: "3. third", want: true},
		{text: "2 * 3 = 6", want: false},
		{text: "#hashtag", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, LooksLikeMarkdown(tt.text))
		})
	}
}

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "my_notes__v2_.md", ExportFileName("My Notes (v2)", false))
	assert.Equal(t, "draft_annotated.md", ExportFileName("Draft", true))
}
