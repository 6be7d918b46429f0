package doctree

import (
	"strings"
	"unicode/utf8"
)

// NodeType is the closed set of node kinds a document can hold.
type NodeType int

const (
	NodeDoc NodeType = iota
	NodeParagraph
	NodeHeading
	NodeBulletList
	NodeOrderedList
	NodeListItem
	NodeBlockquote
	NodeCodeBlock
	NodeHorizontalRule
	NodeText
	NodeHardBreak
	NodeImage
)

var nodeTypeNames = [...]string{
	NodeDoc:            "doc",
	NodeParagraph:      "paragraph",
	NodeHeading:        "heading",
	NodeBulletList:     "bulletList",
	NodeOrderedList:    "orderedList",
	NodeListItem:       "listItem",
	NodeBlockquote:     "blockquote",
	NodeCodeBlock:      "codeBlock",
	NodeHorizontalRule: "horizontalRule",
	NodeText:           "text",
	NodeHardBreak:      "hardBreak",
	NodeImage:          "image",
}

func (t NodeType) String() string {
	if t < 0 || int(t) >= len(nodeTypeNames) {
		return "unknown"
	}
	return nodeTypeNames[t]
}

// ParseNodeType returns the node type with the given json name.
func ParseNodeType(name string) (NodeType, bool) {
	for t, n := range nodeTypeNames {
		if n == name {
			return NodeType(t), true
		}
	}
	return 0, false
}

// IsTextblock reports whether nodes of this type hold inline content.
func (t NodeType) IsTextblock() bool {
	return t == NodeParagraph || t == NodeHeading || t == NodeCodeBlock
}

// IsInline reports whether nodes of this type live inside textblocks.
func (t NodeType) IsInline() bool {
	return t == NodeText || t == NodeHardBreak || t == NodeImage
}

// IsLeaf reports whether nodes of this type never have children.
func (t NodeType) IsLeaf() bool {
	return t.IsInline() || t == NodeHorizontalRule
}

// MaxHeadingLevel is the deepest heading the document model supports.
const MaxHeadingLevel = 3

// Attrs holds the per-type attributes of a node. Only the fields relevant to
// the node's type are set.
type Attrs struct {
	Level    int    `json:"level,omitempty"`
	Start    int    `json:"start,omitempty"`
	Language string `json:"language,omitempty"`
	Src      string `json:"src,omitempty"`
	Alt      string `json:"alt,omitempty"`
	Title    string `json:"title,omitempty"`
}

func (a Attrs) isZero() bool {
	return a == Attrs{}
}

// Node is an element of the document tree. Text nodes carry Text and Marks,
// container nodes carry Content.
type Node struct {
	Type    NodeType
	Attrs   Attrs
	Text    string
	Marks   MarkSet
	Content []*Node
}

func Doc(children ...*Node) *Node {
	return &Node{Type: NodeDoc, Content: children}
}

func Paragraph(children ...*Node) *Node {
	return &Node{Type: NodeParagraph, Content: children}
}

func Heading(level int, children ...*Node) *Node {
	return &Node{Type: NodeHeading, Attrs: Attrs{Level: clampLevel(level)}, Content: children}
}

func BulletList(items ...*Node) *Node {
	return &Node{Type: NodeBulletList, Content: items}
}

func OrderedList(start int, items ...*Node) *Node {
	if start < 1 {
		start = 1
	}
	return &Node{Type: NodeOrderedList, Attrs: Attrs{Start: start}, Content: items}
}

func ListItem(children ...*Node) *Node {
	return &Node{Type: NodeListItem, Content: children}
}

func Blockquote(children ...*Node) *Node {
	return &Node{Type: NodeBlockquote, Content: children}
}

// CodeBlock returns a code block holding the given text. An empty text gives
// an empty block.
func CodeBlock(language, text string) *Node {
	n := &Node{Type: NodeCodeBlock, Attrs: Attrs{Language: language}}
	if text != "" {
		n.Content = []*Node{Text(text)}
	}
	return n
}

func HorizontalRule() *Node {
	return &Node{Type: NodeHorizontalRule}
}

func Text(text string, marks ...Mark) *Node {
	return &Node{Type: NodeText, Text: text, Marks: NewMarkSet(marks...)}
}

func HardBreak() *Node {
	return &Node{Type: NodeHardBreak}
}

func Image(src, alt, title string) *Node {
	return &Node{Type: NodeImage, Attrs: Attrs{Src: src, Alt: alt, Title: title}}
}

func clampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > MaxHeadingLevel {
		return MaxHeadingLevel
	}
	return level
}

func (n *Node) IsText() bool      { return n.Type == NodeText }
func (n *Node) IsTextblock() bool { return n.Type.IsTextblock() }
func (n *Node) IsInline() bool    { return n.Type.IsInline() }
func (n *Node) IsLeaf() bool      { return n.Type.IsLeaf() }

// Size is the number of positions the node occupies in its parent.
func (n *Node) Size() int {
	switch {
	case n.Type == NodeText:
		return utf8.RuneCountInString(n.Text)
	case n.Type.IsLeaf():
		return 1
	default:
		return 2 + n.ContentSize()
	}
}

// ContentSize is the number of positions inside the node.
func (n *Node) ContentSize() int {
	size := 0
	for _, child := range n.Content {
		size += child.Size()
	}
	return size
}

// Copy returns a deep copy of the node.
func (n *Node) Copy() *Node {
	if n == nil {
		return nil
	}
	cp := &Node{Type: n.Type, Attrs: n.Attrs, Text: n.Text}
	if len(n.Marks) > 0 {
		cp.Marks = append(MarkSet(nil), n.Marks...)
	}
	if len(n.Content) > 0 {
		cp.Content = make([]*Node, len(n.Content))
		for i, child := range n.Content {
			cp.Content[i] = child.Copy()
		}
	}
	return cp
}

// TextContent concatenates the text of every descendant, hard breaks
// included as newlines.
func (n *Node) TextContent() string {
	if n.Type == NodeText {
		return n.Text
	}
	if n.Type == NodeHardBreak {
		return "\n"
	}
	var b strings.Builder
	for _, child := range n.Content {
		b.WriteString(child.TextContent())
	}
	return b.String()
}

// hasInlineContent reports whether the node holds inline children, or could.
func (n *Node) hasInlineContent() bool {
	if n.Type.IsTextblock() {
		return true
	}
	if n.Type != NodeDoc {
		return false
	}
	for _, child := range n.Content {
		if !child.IsInline() {
			return false
		}
	}
	return true
}

// acceptsBlock reports whether a block of type t may be a child of n.
func (n *Node) acceptsBlock(t NodeType) bool {
	switch n.Type {
	case NodeBulletList, NodeOrderedList:
		return t == NodeListItem
	case NodeDoc, NodeListItem, NodeBlockquote:
		return !t.IsInline() && t != NodeListItem && t != NodeDoc
	default:
		return false
	}
}

// Descendants calls f for every node below n, in document order, with the
// node's start position relative to the start of n's content. Returning
// false from f skips the node's children.
func (n *Node) Descendants(f func(node *Node, pos int, parent *Node, index int) bool) {
	n.descend(0, f)
}

func (n *Node) descend(start int, f func(node *Node, pos int, parent *Node, index int) bool) {
	pos := start
	for i, child := range n.Content {
		if f(child, pos, n, i) && len(child.Content) > 0 {
			child.descend(pos+1, f)
		}
		pos += child.Size()
	}
}

// TextBetween returns the text in [from, to). blockSep is written between
// textblocks, hard breaks become newlines.
func (n *Node) TextBetween(from, to int, blockSep string) string {
	var b strings.Builder
	n.Descendants(func(node *Node, pos int, _ *Node, _ int) bool {
		end := pos + node.Size()
		if end <= from || pos >= to {
			return false
		}
		switch {
		case node.Type == NodeText:
			runes := []rune(node.Text)
			b.WriteString(string(runes[max(from, pos)-pos : min(to, end)-pos]))
		case node.Type == NodeHardBreak:
			b.WriteString("\n")
		case node.IsTextblock() && b.Len() > 0:
			b.WriteString(blockSep)
		}
		return true
	})
	return b.String()
}

// normalizeInline drops empty text nodes and merges neighbouring text nodes
// that carry the same marks.
func normalizeInline(content []*Node) []*Node {
	out := content[:0]
	for _, child := range content {
		if child.Type == NodeText && child.Text == "" {
			continue
		}
		if len(out) > 0 {
			last := out[len(out)-1]
			if last.Type == NodeText && child.Type == NodeText && last.Marks.Equal(child.Marks) {
				last.Text += child.Text
				continue
			}
		}
		out = append(out, child)
	}
	for i := len(out); i < len(content); i++ {
		content[i] = nil
	}
	return out
}

// splitText splits a text node at the given rune offset.
func splitText(n *Node, at int) (*Node, *Node) {
	runes := []rune(n.Text)
	left := &Node{Type: NodeText, Text: string(runes[:at]), Marks: n.Marks}
	right := &Node{Type: NodeText, Text: string(runes[at:]), Marks: n.Marks}
	return left, right
}
