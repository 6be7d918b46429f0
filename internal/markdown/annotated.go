package markdown

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// CommentData is a comment listed in the footer of an annotated export.
type CommentData struct {
	ID       string
	Content  string
	Author   string
	Resolved bool
}

// SuggestionData is a pending suggestion listed in the footer of an
// annotated export. Type is "insert" or "delete".
type SuggestionData struct {
	ID      string
	Type    string
	Content string
	Author  string
}

const legend = `ANNOTATION FORMAT:
- <!-- SUGGESTION(insert): text --> = Suggested insertion
- <!-- SUGGESTION(delete): text --> = Suggested deletion
- <!-- COMMENT_REF[id] --> = Reference to comment with given ID`

// ToAnnotatedMarkdown converts a projection into markdown meant for a
// language model: suggestions and comment anchors stay inline as html
// comments, a metadata header gives the counts and the comment and
// suggestion details follow the body.
func ToAnnotatedMarkdown(projection *html.Node, comments []CommentData, suggestions []SuggestionData) string {
	c := &converter{annotated: true}
	body := strings.TrimRight(c.document(projection), "\n")

	var active, resolved []CommentData
	for _, cm := range comments {
		if cm.Resolved {
			resolved = append(resolved, cm)
		} else {
			active = append(active, cm)
		}
	}

	var b strings.Builder
	b.WriteString("<!--\n")
	b.WriteString("DOCUMENT METADATA FOR LLM:\n")
	fmt.Fprintf(&b, "- Total comments: %d\n", len(comments))
	fmt.Fprintf(&b, "- Active comments: %d\n", len(active))
	fmt.Fprintf(&b, "- Resolved comments: %d\n", len(resolved))
	fmt.Fprintf(&b, "- Pending suggestions: %d\n", len(suggestions))
	b.WriteString("\n")
	b.WriteString(legend)
	b.WriteString("\n-->\n\n")
	b.WriteString(body)

	var sections []string
	if len(active) > 0 {
		items := make([]string, len(active))
		for i, cm := range active {
			items[i] = fmt.Sprintf(`- **[%s]**: "%s"%s`, shortID(cm.ID), cm.Content, byline(cm.Author))
		}
		sections = append(sections, section("Comments", items))
	}
	if len(resolved) > 0 {
		items := make([]string, len(resolved))
		for i, cm := range resolved {
			items[i] = fmt.Sprintf(`- ~~[%s]: "%s"%s~~`, shortID(cm.ID), cm.Content, byline(cm.Author))
		}
		sections = append(sections, section("Resolved Comments", items))
	}
	if len(suggestions) > 0 {
		items := make([]string, len(suggestions))
		for i, s := range suggestions {
			items[i] = fmt.Sprintf(`- **%s** [%s]: "%s"%s`, strings.ToUpper(s.Type), shortID(s.ID), s.Content, byline(s.Author))
		}
		sections = append(sections, section("Pending Suggestions", items))
	}
	if len(sections) > 0 {
		b.WriteString("\n\n---\n\n")
		b.WriteString(strings.Join(sections, "\n\n"))
	}
	b.WriteString("\n")
	return b.String()
}

func section(title string, items []string) string {
	return "## " + title + "\n\n" + strings.Join(items, "\n")
}

func shortID(id string) string {
	if r := []rune(id); len(r) > 8 {
		return string(r[:8])
	}
	return id
}

func byline(author string) string {
	if author == "" {
		return ""
	}
	return " — *" + author + "*"
}
