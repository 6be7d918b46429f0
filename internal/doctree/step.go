package doctree

import "unicode/utf8"

// Step is one primitive change to a document. The set of steps is closed;
// build them through a Transaction.
type Step interface {
	apply(root *Node, m *Mapping) error
	name() string
}

// InsertText inserts text carrying marks at Pos.
type InsertText struct {
	Pos   int
	Text  string
	Marks []Mark
}

// DeleteRange removes the content in [From, To). Blocks entirely inside the
// range go away, partially covered blocks keep their structure, and two
// textblocks cut by the range are joined.
type DeleteRange struct {
	From int
	To   int
}

// AddMark adds Mark to every inline node in [From, To).
type AddMark struct {
	From int
	To   int
	Mark Mark
}

// RemoveMark removes marks of Kind from [From, To). A non-empty ID limits
// removal to annotation marks carrying that id.
type RemoveMark struct {
	From int
	To   int
	Kind MarkKind
	ID   string
}

// SetBlockType changes every textblock touching [From, To) to Type.
type SetBlockType struct {
	From  int
	To    int
	Type  NodeType
	Attrs Attrs
}

// SplitBlock splits the textblock around Pos in two.
type SplitBlock struct {
	Pos int
}

func (InsertText) name() string   { return "insertText" }
func (DeleteRange) name() string  { return "deleteRange" }
func (AddMark) name() string      { return "addMark" }
func (RemoveMark) name() string   { return "removeMark" }
func (SetBlockType) name() string { return "setBlockType" }
func (SplitBlock) name() string   { return "splitBlock" }

func (s InsertText) apply(root *Node, m *Mapping) error {
	rp, err := Resolve(root, s.Pos)
	if err != nil {
		return err
	}
	if s.Text == "" {
		m.append(EmptyStepMap)
		return nil
	}
	parent := rp.Parent
	if !parent.hasInlineContent() {
		return &ContentError{Pos: s.Pos, Node: parent.Type, Reason: "text is not allowed here"}
	}
	marks := NewMarkSet(s.Marks...)
	if parent.Type == NodeCodeBlock {
		marks = marks.Annotations()
	}
	text := &Node{Type: NodeText, Text: s.Text, Marks: marks}
	index, offset := rp.Index()
	if offset > 0 {
		left, right := splitText(parent.Content[index], offset)
		parent.Content = splice(parent.Content, index, 1, left, text, right)
	} else {
		parent.Content = splice(parent.Content, index, 0, text)
	}
	parent.Content = normalizeInline(parent.Content)
	m.append(insertionMap(s.Pos, utf8.RuneCountInString(s.Text)))
	return nil
}

func (s DeleteRange) apply(root *Node, m *Mapping) error {
	if err := checkRange(root, s.From, s.To); err != nil {
		return err
	}
	if s.From == s.To {
		m.append(EmptyStepMap)
		return nil
	}
	start, _ := Resolve(root, s.From)
	end, _ := Resolve(root, s.To)
	join := start.Parent != end.Parent && start.Parent.IsTextblock() && end.Parent.IsTextblock()

	var spans []Range
	deleteIn(root, 0, s.From, s.To, &spans)
	m.append(deletionMap(spans))
	if join {
		if ok := joinAfter(root, s.From); ok {
			m.append(deletionMap([]Range{{From: s.From, To: s.From + 2}}))
		}
	}
	return nil
}

func deleteIn(parent *Node, start, from, to int, spans *[]Range) {
	pos := start
	kept := make([]*Node, 0, len(parent.Content))
	for _, child := range parent.Content {
		end := pos + child.Size()
		switch {
		case end <= from || pos >= to:
			kept = append(kept, child)
		case from <= pos && end <= to:
			*spans = append(*spans, Range{From: pos, To: end})
		case child.Type == NodeText:
			runes := []rune(child.Text)
			a, b := max(from, pos)-pos, min(to, end)-pos
			*spans = append(*spans, Range{From: pos + a, To: pos + b})
			child.Text = string(runes[:a]) + string(runes[b:])
			kept = append(kept, child)
		default:
			deleteIn(child, pos+1, from, to, spans)
			kept = append(kept, child)
		}
		pos = end
	}
	parent.Content = normalizeInline(kept)
}

// joinAfter merges the textblock ending at pos with the textblock right
// after it when both share a parent.
func joinAfter(root *Node, pos int) bool {
	rp, err := Resolve(root, pos)
	if err != nil || !rp.Parent.IsTextblock() || rp.ParentOffset() != rp.Parent.ContentSize() {
		return false
	}
	block := rp.Parent
	grand := rp.Path[len(rp.Path)-2]
	i := indexOf(grand.Content, block)
	if i < 0 || i+1 >= len(grand.Content) || !grand.Content[i+1].IsTextblock() {
		return false
	}
	next := grand.Content[i+1]
	if block.Type == NodeCodeBlock {
		stripFormatting(next)
	}
	block.Content = normalizeInline(append(append([]*Node(nil), block.Content...), next.Content...))
	grand.Content = splice(grand.Content, i+1, 1)
	return true
}

func (s AddMark) apply(root *Node, m *Mapping) error {
	if err := checkRange(root, s.From, s.To); err != nil {
		return err
	}
	if s.Mark == nil {
		return &ContentError{Pos: s.From, Node: root.Type, Reason: "missing mark"}
	}
	updateInline(root, 0, s.From, s.To, func(parent *Node, marks MarkSet) MarkSet {
		if parent.Type == NodeCodeBlock && !s.Mark.Kind().IsAnnotation() {
			return marks
		}
		return marks.Add(s.Mark)
	})
	m.append(EmptyStepMap)
	return nil
}

func (s RemoveMark) apply(root *Node, m *Mapping) error {
	if err := checkRange(root, s.From, s.To); err != nil {
		return err
	}
	updateInline(root, 0, s.From, s.To, func(_ *Node, marks MarkSet) MarkSet {
		return marks.Remove(s.Kind, s.ID)
	})
	m.append(EmptyStepMap)
	return nil
}

// updateInline rewrites the marks of every inline node overlapping
// [from, to), splitting text nodes at the range edges.
func updateInline(parent *Node, start, from, to int, f func(parent *Node, marks MarkSet) MarkSet) {
	if from >= to {
		return
	}
	pos := start
	out := make([]*Node, 0, len(parent.Content))
	for _, child := range parent.Content {
		end := pos + child.Size()
		switch {
		case end <= from || pos >= to:
			out = append(out, child)
		case !child.IsInline():
			if len(child.Content) > 0 {
				updateInline(child, pos+1, from, to, f)
			}
			out = append(out, child)
		case child.Type == NodeText && (pos < from || end > to):
			runes := []rune(child.Text)
			a, b := max(from, pos)-pos, min(to, end)-pos
			if a > 0 {
				out = append(out, &Node{Type: NodeText, Text: string(runes[:a]), Marks: child.Marks})
			}
			out = append(out, &Node{Type: NodeText, Text: string(runes[a:b]), Marks: f(parent, child.Marks)})
			if b < len(runes) {
				out = append(out, &Node{Type: NodeText, Text: string(runes[b:]), Marks: child.Marks})
			}
		default:
			child.Marks = f(parent, child.Marks)
			out = append(out, child)
		}
		pos = end
	}
	parent.Content = normalizeInline(out)
}

func (s SetBlockType) apply(root *Node, m *Mapping) error {
	if err := checkRange(root, s.From, s.To); err != nil {
		return err
	}
	attrs, err := blockAttrs(s.Type, s.Attrs)
	if err != nil {
		return &ContentError{Pos: s.From, Node: s.Type, Reason: err.Error()}
	}
	touches := func(pos, end int) bool {
		if s.From == s.To {
			return pos < s.From && s.From < end
		}
		return pos < s.To && end > s.From
	}
	found := false
	root.Descendants(func(node *Node, pos int, _ *Node, _ int) bool {
		end := pos + node.Size()
		if node.IsLeaf() || !touches(pos, end) {
			return false
		}
		if !node.IsTextblock() {
			return true
		}
		found = true
		node.Type, node.Attrs = s.Type, attrs
		if s.Type == NodeCodeBlock {
			stripFormatting(node)
		}
		return false
	})
	if !found {
		return &ContentError{Pos: s.From, Node: root.Type, Reason: "no textblock in range"}
	}
	m.append(EmptyStepMap)
	return nil
}

type attrError string

func (e attrError) Error() string { return string(e) }

func blockAttrs(t NodeType, a Attrs) (Attrs, error) {
	switch t {
	case NodeParagraph:
		return Attrs{}, nil
	case NodeHeading:
		if a.Level < 1 || a.Level > MaxHeadingLevel {
			return Attrs{}, attrError("heading level must be between 1 and 3")
		}
		return Attrs{Level: a.Level}, nil
	case NodeCodeBlock:
		return Attrs{Language: a.Language}, nil
	default:
		return Attrs{}, attrError("not a textblock type")
	}
}

func stripFormatting(block *Node) {
	for _, child := range block.Content {
		child.Marks = child.Marks.Annotations()
	}
	block.Content = normalizeInline(block.Content)
}

func (s SplitBlock) apply(root *Node, m *Mapping) error {
	rp, err := Resolve(root, s.Pos)
	if err != nil {
		return err
	}
	block := rp.Parent
	if !block.IsTextblock() {
		return &ContentError{Pos: s.Pos, Node: block.Type, Reason: "only textblocks can be split"}
	}
	grand := rp.Path[len(rp.Path)-2]
	index, offset := rp.Index()
	var left, right []*Node
	left = append(left, block.Content[:index]...)
	rest := block.Content[index:]
	if offset > 0 {
		l, r := splitText(block.Content[index], offset)
		left = append(left, l)
		right = append(right, r)
		rest = rest[1:]
	}
	right = append(right, rest...)

	next := &Node{Type: block.Type, Attrs: block.Attrs, Content: right}
	if block.Type == NodeHeading && len(right) == 0 {
		next.Type, next.Attrs = NodeParagraph, Attrs{}
	}
	block.Content = left
	i := indexOf(grand.Content, block)
	grand.Content = splice(grand.Content, i+1, 0, next)
	m.append(insertionMap(s.Pos, 2))
	return nil
}

func splice(s []*Node, at, del int, ins ...*Node) []*Node {
	out := make([]*Node, 0, len(s)-del+len(ins))
	out = append(out, s[:at]...)
	out = append(out, ins...)
	return append(out, s[at+del:]...)
}

func indexOf(nodes []*Node, n *Node) int {
	for i, c := range nodes {
		if c == n {
			return i
		}
	}
	return -1
}
