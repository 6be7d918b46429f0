package doctree

// Range is a half-open interval [From, To) of document positions.
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (r Range) Empty() bool { return r.From >= r.To }
func (r Range) Len() int    { return r.To - r.From }

// Contains reports whether pos lies inside the range.
func (r Range) Contains(pos int) bool {
	return pos >= r.From && pos < r.To
}

// Overlaps reports whether the two ranges share at least one position.
func (r Range) Overlaps(o Range) bool {
	return r.From < o.To && o.From < r.To
}

// ResolvedPos describes where a position falls in the tree.
type ResolvedPos struct {
	Pos int
	// Path holds the nodes from the root down to Parent.
	Path []*Node
	// Parent is the deepest node whose content contains Pos.
	Parent *Node
	// Start is the position of the first content slot of Parent.
	Start int
}

// Depth is the number of ancestors between the root and Parent.
func (r *ResolvedPos) Depth() int { return len(r.Path) - 1 }

// ParentOffset is the position relative to the start of Parent's content.
func (r *ResolvedPos) ParentOffset() int { return r.Pos - r.Start }

// Index returns the index of the child of Parent at the position and the
// offset into that child. When the position sits between two children the
// offset is zero and the index names the child after it.
func (r *ResolvedPos) Index() (int, int) {
	offset := r.ParentOffset()
	pos := 0
	for i, child := range r.Parent.Content {
		if offset == pos {
			return i, 0
		}
		end := pos + child.Size()
		if offset < end {
			return i, offset - pos
		}
		pos = end
	}
	return len(r.Parent.Content), 0
}

// Resolve locates pos in the tree rooted at root.
func Resolve(root *Node, pos int) (*ResolvedPos, error) {
	if err := checkRange(root, pos, pos); err != nil {
		return nil, err
	}
	node, start := root, 0
	path := []*Node{root}
	for {
		next := -1
		offset := start
		for i, child := range node.Content {
			size := child.Size()
			if !child.IsLeaf() && pos > offset && pos < offset+size {
				next = i
				break
			}
			offset += size
		}
		if next < 0 {
			break
		}
		node = node.Content[next]
		start = offset + 1
		path = append(path, node)
	}
	return &ResolvedPos{Pos: pos, Path: path, Parent: node, Start: start}, nil
}

// MarksAt returns the marks that apply at pos: those of the inline node
// before it, or of the node after it at the start of a textblock.
func MarksAt(root *Node, pos int) (MarkSet, error) {
	rp, err := Resolve(root, pos)
	if err != nil {
		return nil, err
	}
	index, offset := rp.Index()
	content := rp.Parent.Content
	if offset > 0 {
		return content[index].Marks, nil
	}
	if index > 0 && content[index-1].IsInline() {
		return content[index-1].Marks, nil
	}
	if index < len(content) && content[index].IsInline() {
		return content[index].Marks, nil
	}
	return nil, nil
}

// BlockTypeAt returns the type and attributes of the innermost node around
// pos.
func BlockTypeAt(root *Node, pos int) (NodeType, Attrs, error) {
	rp, err := Resolve(root, pos)
	if err != nil {
		return 0, Attrs{}, err
	}
	return rp.Parent.Type, rp.Parent.Attrs, nil
}

// ShiftRangesAfter moves every range endpoint at or after position by delta.
// With a negative delta the endpoints inside the removed span collapse onto
// position. Callers holding ranges outside the tree apply it themselves; no
// step does it for them.
func ShiftRangesAfter(ranges []Range, position, delta int) []Range {
	shift := func(p int) int {
		if p < position {
			return p
		}
		return max(position, p+delta)
	}
	out := make([]Range, len(ranges))
	for i, r := range ranges {
		out[i] = Range{From: shift(r.From), To: shift(r.To)}
	}
	return out
}

// MarkRun is a maximal stretch of inline nodes inside one parent that carry
// the same mark.
type MarkRun struct {
	Range
	Mark Mark
	Text string
}

// MarkRuns returns the runs of marks of the given kind that satisfy match, in
// document order. A nil match accepts every mark of the kind.
func MarkRuns(root *Node, kind MarkKind, match func(Mark) bool) []MarkRun {
	var runs []MarkRun
	var visit func(parent *Node, start int)
	visit = func(parent *Node, start int) {
		var cur *MarkRun
		pos := start
		for _, child := range parent.Content {
			size := child.Size()
			if !child.IsInline() {
				cur = nil
				if len(child.Content) > 0 {
					visit(child, pos+1)
				}
				pos += size
				continue
			}
			m, ok := child.Marks.Get(kind)
			if !ok || (match != nil && !match(m)) {
				cur = nil
				pos += size
				continue
			}
			if cur != nil && cur.Mark == m && cur.To == pos {
				cur.To += size
				cur.Text += child.TextContent()
			} else {
				runs = append(runs, MarkRun{Range: Range{From: pos, To: pos + size}, Mark: m, Text: child.TextContent()})
				cur = &runs[len(runs)-1]
			}
			pos += size
		}
	}
	visit(root, 0)
	return runs
}
