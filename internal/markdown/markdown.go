package markdown

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/emrgen/redline/internal/doctree"
	"golang.org/x/net/html"
)

// ToMarkdown converts a projection into markdown. Comment and suggestion
// wrappers are dropped, their text kept.
func ToMarkdown(projection *html.Node) string {
	c := &converter{}
	return c.document(projection)
}

type converter struct {
	annotated bool
}

func (c *converter) document(n *html.Node) string {
	return strings.Join(c.blocks(n), "\n\n")
}

var blockTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "blockquote": true, "pre": true, "hr": true,
	"div": true, "section": true, "article": true, "header": true, "footer": true,
	"main": true, "nav": true, "aside": true, "table": true, "thead": true, "tbody": true,
	"tr": true, "td": true, "th": true, "html": true, "body": true, "head": true,
}

func isBlock(n *html.Node) bool {
	return n.Type == html.ElementNode && blockTags[n.Data]
}

// blocks renders the children of n, one string per block. Loose inline
// content between blocks becomes a block of its own.
func (c *converter) blocks(n *html.Node) []string {
	var out []string
	var pending []*html.Node
	flush := func() {
		if len(pending) == 0 {
			return
		}
		if text := c.inline(pending); text != "" {
			out = append(out, text)
		}
		pending = nil
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if isBlock(ch) {
			flush()
			out = append(out, c.block(ch)...)
			continue
		}
		pending = append(pending, ch)
	}
	flush()
	return out
}

func (c *converter) block(el *html.Node) []string {
	switch el.Data {
	case "p":
		if text := c.inline(children(el)); text != "" {
			return []string{text}
		}
		return nil
	case "h1", "h2", "h3", "h4", "h5", "h6":
		text := strings.ReplaceAll(c.inline(children(el)), "\n", " ")
		return []string{strings.Repeat("#", int(el.Data[1]-'0')) + " " + text}
	case "ul", "ol":
		return []string{c.list(el)}
	case "li":
		return []string{c.listItem(el, "- ")}
	case "blockquote":
		return []string{quote(strings.Join(c.blocks(el), "\n\n"))}
	case "pre":
		return []string{c.codeBlock(el)}
	case "hr":
		return []string{"---"}
	case "head":
		return nil
	default:
		return c.blocks(el)
	}
}

func children(el *html.Node) []*html.Node {
	var out []*html.Node
	for ch := el.FirstChild; ch != nil; ch = ch.NextSibling {
		out = append(out, ch)
	}
	return out
}

func (c *converter) list(el *html.Node) string {
	ordered := el.Data == "ol"
	start := 1
	if ordered {
		if n, err := strconv.Atoi(doctree.Attr(el, "start")); err == nil {
			start = n
		}
	}
	var items []string
	for ch := el.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type != html.ElementNode || ch.Data != "li" {
			continue
		}
		marker := "- "
		if ordered {
			marker = strconv.Itoa(start+len(items)) + ". "
		}
		items = append(items, c.listItem(ch, marker))
	}
	return strings.Join(items, "\n")
}

// listItem renders the item's blocks under marker, continuation lines
// indented to the marker width. A nested list follows its paragraph
// without a blank line.
func (c *converter) listItem(li *html.Node, marker string) string {
	var b strings.Builder
	var prev *html.Node
	for ch := li.FirstChild; ch != nil; {
		var parts []string
		if isBlock(ch) {
			parts = c.block(ch)
			prev, ch = ch, ch.NextSibling
		} else {
			var run []*html.Node
			for ch != nil && !isBlock(ch) {
				run = append(run, ch)
				ch = ch.NextSibling
			}
			if text := c.inline(run); text != "" {
				parts = []string{text}
			}
			prev = nil
		}
		for _, part := range parts {
			if b.Len() > 0 {
				if prev != nil && (prev.Data == "ul" || prev.Data == "ol") {
					b.WriteString("\n")
				} else {
					b.WriteString("\n\n")
				}
			}
			b.WriteString(part)
		}
	}
	indent := strings.Repeat(" ", len(marker))
	lines := strings.Split(b.String(), "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return marker + strings.Join(lines, "\n")
}

func quote(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n")
}

func (c *converter) codeBlock(pre *html.Node) string {
	source := pre
	language := ""
	for ch := pre.FirstChild; ch != nil; ch = ch.NextSibling {
		if ch.Type == html.ElementNode && ch.Data == "code" {
			source = ch
			for _, class := range strings.Fields(doctree.Attr(ch, "class")) {
				if lang, ok := strings.CutPrefix(class, "language-"); ok {
					language = lang
				}
			}
			break
		}
	}
	content := strings.TrimSuffix(c.codeText(source), "\n")
	fence := "```"
	for strings.Contains(content, fence) {
		fence += "`"
	}
	return fence + language + "\n" + content + "\n" + fence
}

// codeText returns the literal text of a code block, with annotation
// comments in annotated mode.
func (c *converter) codeText(n *html.Node) string {
	var b strings.Builder
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		switch {
		case ch.Type == html.TextNode:
			b.WriteString(ch.Data)
		case ch.Type == html.ElementNode && ch.Data == "br":
			b.WriteString("\n")
		case ch.Type == html.ElementNode:
			b.WriteString(c.annotate(ch, c.codeText(ch)))
		}
	}
	return b.String()
}

// inline renders a run of inline nodes.
func (c *converter) inline(nodes []*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(c.inlineNode(n))
	}
	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.Trim(line, " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func (c *converter) inlineNode(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return escape(collapse(n.Data))
	case html.ElementNode:
	default:
		return ""
	}
	content := func() string {
		var b strings.Builder
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			b.WriteString(c.inlineNode(ch))
		}
		return b.String()
	}
	switch n.Data {
	case "br":
		return "\n"
	case "img":
		return "![" + escape(doctree.Attr(n, "alt")) + "](" + destination(doctree.Attr(n, "src"), doctree.Attr(n, "title")) + ")"
	case "strong", "b":
		return delimit("**", content())
	case "em", "i":
		return delimit("_", content())
	case "s", "del", "strike":
		return delimit("~~", content())
	case "u":
		if text := content(); text != "" {
			return "<u>" + text + "</u>"
		}
		return ""
	case "code", "kbd", "samp":
		return codeSpan(textOf(n))
	case "a":
		text := content()
		href := doctree.Attr(n, "href")
		if href == "" {
			return text
		}
		return "[" + text + "](" + destination(href, doctree.Attr(n, "title")) + ")"
	case "span":
		return c.annotate(n, content())
	case "script", "style":
		return ""
	default:
		return content()
	}
}

// annotate wraps the rendered content of an annotation span. Outside
// annotated mode, and for other elements, the content passes unchanged.
func (c *converter) annotate(n *html.Node, content string) string {
	if !c.annotated || n.Data != "span" {
		return content
	}
	switch {
	case doctree.HasClass(n, doctree.ClassTrackInsert):
		return fmt.Sprintf("<!-- SUGGESTION(insert): %s -->", content)
	case doctree.HasClass(n, doctree.ClassTrackDelete):
		return fmt.Sprintf("<!-- SUGGESTION(delete): %s -->", content)
	case doctree.HasClass(n, doctree.ClassComment):
		return fmt.Sprintf("%s<!-- COMMENT_REF[%s] -->", content, doctree.Attr(n, doctree.AttrCommentID))
	default:
		return content
	}
}

// delimit wraps content in a delimiter, moving edge whitespace outside so
// the delimiters stay flanking.
func delimit(delim, content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return content
	}
	lead := content[:len(content)-len(strings.TrimLeft(content, " "))]
	trail := content[len(strings.TrimRight(content, " ")):]
	return lead + delim + trimmed + delim + trail
}

func codeSpan(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	fence := strings.Repeat("`", longest+1)
	if strings.HasPrefix(text, "`") || strings.HasSuffix(text, "`") {
		text = " " + text + " "
	}
	return fence + text + fence
}

func destination(url, title string) string {
	url = strings.NewReplacer("(", "%28", ")", "%29", " ", "%20").Replace(url)
	if title == "" {
		return url
	}
	return url + ` "` + strings.ReplaceAll(title, `"`, `\"`) + `"`
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		b.WriteString(textOf(ch))
	}
	return b.String()
}

var spaces = regexp.MustCompile(`[ \t\r\n\f]+`)

func collapse(s string) string {
	return spaces.ReplaceAllString(s, " ")
}

var (
	inlineEscaper = strings.NewReplacer(
		`\`, `\\`,
		`*`, `\*`,
		`_`, `\_`,
		"`", "\\`",
		`[`, `\[`,
		`]`, `\]`,
		`~`, `\~`,
	)
	lineStart = []struct {
		pattern *regexp.Regexp
		replace string
	}{
		{regexp.MustCompile(`^( *)(#{1,6}) `), `$1\$2 `},
		{regexp.MustCompile(`^( *)-`), `$1\-`},
		{regexp.MustCompile(`^( *)\+ `), `$1\+ `},
		{regexp.MustCompile(`^( *)(=+)`), `$1\$2`},
		{regexp.MustCompile(`^( *)>`), `$1\>`},
		{regexp.MustCompile(`^( *)(\d+)\. `), `$1$2\. `},
	}
)

// escape backslash escapes the characters markdown would read as syntax.
func escape(text string) string {
	text = inlineEscaper.Replace(text)
	for _, e := range lineStart {
		text = e.pattern.ReplaceAllString(text, e.replace)
	}
	return text
}
