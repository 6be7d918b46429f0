package doctree

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Class names and data attributes of the annotation wrapper spans.
const (
	ClassComment     = "comment-highlight"
	ClassTrackInsert = "track-insert"
	ClassTrackDelete = "track-delete"

	AttrCommentID    = "data-comment-id"
	AttrSuggestionID = "data-suggestion-id"
	AttrUserID       = "data-user-id"
	AttrOriginalText = "data-original-text"
)

// ToProjection renders root into a document html node whose children are
// the rendered top level nodes.
func ToProjection(root *Node) *html.Node {
	out := &html.Node{Type: html.DocumentNode}
	renderContent(out, root)
	return out
}

func renderContent(parent *html.Node, n *Node) {
	if n.hasInlineContent() {
		renderInline(parent, n.Content)
		return
	}
	for _, child := range n.Content {
		renderBlock(parent, child)
	}
}

func renderBlock(parent *html.Node, n *Node) {
	var el *html.Node
	switch n.Type {
	case NodeParagraph:
		el = element("p")
	case NodeHeading:
		el = element("h" + strconv.Itoa(clampLevel(n.Attrs.Level)))
	case NodeBulletList:
		el = element("ul")
	case NodeOrderedList:
		el = element("ol")
		if n.Attrs.Start > 1 {
			setAttr(el, "start", strconv.Itoa(n.Attrs.Start))
		}
	case NodeListItem:
		el = element("li")
	case NodeBlockquote:
		el = element("blockquote")
	case NodeCodeBlock:
		el = element("pre")
		code := element("code")
		if n.Attrs.Language != "" {
			setAttr(code, "class", "language-"+n.Attrs.Language)
		}
		el.AppendChild(code)
		renderInline(code, n.Content)
		parent.AppendChild(el)
		return
	case NodeHorizontalRule:
		parent.AppendChild(element("hr"))
		return
	default:
		renderInline(parent, []*Node{n})
		return
	}
	parent.AppendChild(el)
	renderContent(el, n)
}

// renderInline wraps inline nodes in mark elements. Neighbours sharing a
// prefix of their mark list share the wrapper elements of that prefix.
func renderInline(parent *html.Node, content []*Node) {
	type open struct {
		mark Mark
		el   *html.Node
	}
	var stack []open
	top := func() *html.Node {
		if len(stack) == 0 {
			return parent
		}
		return stack[len(stack)-1].el
	}
	for _, child := range content {
		keep := 0
		for keep < len(stack) && keep < len(child.Marks) && stack[keep].mark == child.Marks[keep] {
			keep++
		}
		stack = stack[:keep]
		for _, m := range child.Marks[keep:] {
			el := markElement(m)
			top().AppendChild(el)
			stack = append(stack, open{mark: m, el: el})
		}
		top().AppendChild(inlineElement(child))
	}
}

func inlineElement(n *Node) *html.Node {
	switch n.Type {
	case NodeHardBreak:
		return element("br")
	case NodeImage:
		el := element("img")
		setAttr(el, "src", n.Attrs.Src)
		if n.Attrs.Alt != "" {
			setAttr(el, "alt", n.Attrs.Alt)
		}
		if n.Attrs.Title != "" {
			setAttr(el, "title", n.Attrs.Title)
		}
		return el
	default:
		return &html.Node{Type: html.TextNode, Data: n.Text}
	}
}

func markElement(m Mark) *html.Node {
	switch m := m.(type) {
	case Bold:
		return element("strong")
	case Italic:
		return element("em")
	case Underline:
		return element("u")
	case Strike:
		return element("s")
	case Code:
		return element("code")
	case Link:
		el := element("a")
		setAttr(el, "href", m.Href)
		if m.Title != "" {
			setAttr(el, "title", m.Title)
		}
		return el
	case Comment:
		el := element("span")
		setAttr(el, "class", ClassComment)
		setAttr(el, AttrCommentID, m.CommentID)
		return el
	case TrackInsert:
		el := element("span")
		setAttr(el, "class", ClassTrackInsert)
		setAttr(el, AttrSuggestionID, m.SuggestionID)
		setAttr(el, AttrUserID, m.UserID)
		return el
	case TrackDelete:
		el := element("span")
		setAttr(el, "class", ClassTrackDelete)
		setAttr(el, AttrSuggestionID, m.SuggestionID)
		setAttr(el, AttrUserID, m.UserID)
		if m.OriginalText != "" {
			setAttr(el, AttrOriginalText, m.OriginalText)
		}
		return el
	default:
		return element("span")
	}
}

func element(tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
}

func setAttr(n *html.Node, key, val string) {
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Attr returns the value of the attribute key of n.
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasClass reports whether the class attribute of n lists class.
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// FromProjection loads an html node tree into a doc node. Unknown elements
// are looked through, loose inline content at block level is wrapped in
// paragraphs, and headings deeper than the model allows are clamped.
func FromProjection(n *html.Node) *Node {
	doc := Doc(loadBlocks(n)...)
	if len(doc.Content) == 0 {
		doc.Content = []*Node{Paragraph()}
	}
	return doc
}

// loadBlocks turns the children of n into block nodes.
func loadBlocks(n *html.Node) []*Node {
	var blocks []*Node
	var pending []*Node
	flush := func() {
		if inline := trimInline(pending); len(inline) > 0 {
			blocks = append(blocks, Paragraph(inline...))
		}
		pending = nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isBlockElement(c) {
			flush()
			blocks = append(blocks, loadBlock(c)...)
			continue
		}
		if c.Type == html.TextNode && len(pending) == 0 && strings.TrimSpace(c.Data) == "" {
			continue
		}
		pending = append(pending, loadInline(c, nil, false)...)
	}
	flush()
	return blocks
}

var blockTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"ul": true, "ol": true, "li": true, "blockquote": true, "pre": true, "hr": true,
	"div": true, "section": true, "article": true, "header": true, "footer": true,
	"main": true, "nav": true, "aside": true, "table": true, "thead": true, "tbody": true,
	"tr": true, "td": true, "th": true, "dl": true, "dt": true, "dd": true, "figure": true,
	"html": true, "body": true, "head": true,
}

func isBlockElement(n *html.Node) bool {
	return n.Type == html.ElementNode && blockTags[n.Data]
}

func loadBlock(el *html.Node) []*Node {
	switch el.Data {
	case "p":
		return []*Node{Paragraph(trimInline(loadChildrenInline(el, nil, false))...)}
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(el.Data[1] - '0')
		return []*Node{Heading(level, trimInline(loadChildrenInline(el, nil, false))...)}
	case "ul", "ol":
		var list *Node
		if el.Data == "ul" {
			list = BulletList()
		} else {
			start, err := strconv.Atoi(Attr(el, "start"))
			if err != nil {
				start = 1
			}
			list = OrderedList(start)
		}
		for c := el.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.ElementNode && c.Data == "li":
				list.Content = append(list.Content, loadListItem(c))
			case c.Type == html.TextNode && strings.TrimSpace(c.Data) == "":
			case isBlockElement(c):
				list.Content = append(list.Content, ListItem(loadBlock(c)...))
			default:
				if inline := trimInline(loadInline(c, nil, false)); len(inline) > 0 {
					list.Content = append(list.Content, ListItem(Paragraph(inline...)))
				}
			}
		}
		return []*Node{list}
	case "li":
		return []*Node{BulletList(loadListItem(el))}
	case "blockquote":
		return []*Node{Blockquote(loadBlocks(el)...)}
	case "pre":
		return []*Node{loadCodeBlock(el)}
	case "hr":
		return []*Node{HorizontalRule()}
	case "head":
		return nil
	default:
		return loadBlocks(el)
	}
}

func loadListItem(el *html.Node) *Node {
	item := ListItem(loadBlocks(el)...)
	if len(item.Content) == 0 {
		item.Content = []*Node{Paragraph()}
	}
	return item
}

func loadCodeBlock(pre *html.Node) *Node {
	block := CodeBlock("", "")
	source := pre
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "code" {
			source = c
			for _, class := range strings.Fields(Attr(c, "class")) {
				if lang, ok := strings.CutPrefix(class, "language-"); ok {
					block.Attrs.Language = lang
				}
			}
			break
		}
	}
	content := loadChildrenInline(source, nil, true)
	if n := len(content); n > 0 && content[n-1].Type == NodeText {
		last := content[n-1]
		last.Text = strings.TrimSuffix(last.Text, "\n")
	}
	block.Content = normalizeInline(content)
	return block
}

func loadChildrenInline(el *html.Node, marks MarkSet, pre bool) []*Node {
	var out []*Node
	for c := el.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, loadInline(c, marks, pre)...)
	}
	return out
}

func loadInline(n *html.Node, marks MarkSet, pre bool) []*Node {
	switch n.Type {
	case html.TextNode:
		text := n.Data
		if !pre {
			text = collapseSpace(text)
		}
		if text == "" {
			return nil
		}
		return []*Node{{Type: NodeText, Text: text, Marks: marks}}
	case html.ElementNode:
	default:
		return nil
	}
	switch n.Data {
	case "br":
		if pre {
			return []*Node{{Type: NodeText, Text: "\n", Marks: marks}}
		}
		return []*Node{{Type: NodeHardBreak, Marks: marks}}
	case "img":
		if pre {
			return nil
		}
		img := Image(Attr(n, "src"), Attr(n, "alt"), Attr(n, "title"))
		img.Marks = marks
		return []*Node{img}
	case "script", "style":
		return nil
	}
	if m := elementMark(n); m != nil && (!pre || m.Kind().IsAnnotation()) {
		marks = marks.Add(m)
	}
	return loadChildrenInline(n, marks, pre)
}

func elementMark(n *html.Node) Mark {
	switch n.Data {
	case "strong", "b":
		return Bold{}
	case "em", "i":
		return Italic{}
	case "u", "ins":
		return Underline{}
	case "s", "del", "strike":
		return Strike{}
	case "code", "kbd", "samp":
		return Code{}
	case "a":
		if href := Attr(n, "href"); href != "" {
			return Link{Href: href, Title: Attr(n, "title")}
		}
	case "span", "mark":
		switch {
		case HasClass(n, ClassComment):
			return Comment{CommentID: Attr(n, AttrCommentID)}
		case HasClass(n, ClassTrackInsert):
			return TrackInsert{SuggestionID: Attr(n, AttrSuggestionID), UserID: Attr(n, AttrUserID)}
		case HasClass(n, ClassTrackDelete):
			return TrackDelete{
				SuggestionID: Attr(n, AttrSuggestionID),
				UserID:       Attr(n, AttrUserID),
				OriginalText: Attr(n, AttrOriginalText),
			}
		}
	}
	return nil
}

func collapseSpace(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' || r == '\f' {
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}

// trimInline removes the whitespace html rendering would not show: at the
// edges of a block and around hard breaks.
func trimInline(content []*Node) []*Node {
	for i, n := range content {
		if n.Type != NodeText {
			continue
		}
		if i == 0 || content[i-1].Type == NodeHardBreak {
			n.Text = strings.TrimLeft(n.Text, " ")
		}
		if i > 0 && content[i-1].Type == NodeText && strings.HasSuffix(content[i-1].Text, " ") {
			n.Text = strings.TrimLeft(n.Text, " ")
		}
		if i == len(content)-1 || content[i+1].Type == NodeHardBreak {
			n.Text = strings.TrimRight(n.Text, " ")
		}
	}
	return normalizeInline(content)
}
