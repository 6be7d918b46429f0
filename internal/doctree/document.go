package doctree

import (
	"fmt"

	"golang.org/x/net/html"
)

// Document owns a tree and is the single entry point for changing it.
type Document struct {
	root *Node
}

// NewDocument wraps root, which must be a doc node. A nil root gives a
// document with one empty paragraph.
func NewDocument(root *Node) *Document {
	if root == nil {
		root = Doc(Paragraph())
	}
	if root.Type != NodeDoc {
		root = Doc(root)
	}
	return &Document{root: root}
}

// Root returns the live tree. Callers must not modify it.
func (d *Document) Root() *Node {
	return d.root
}

// Snapshot returns a deep copy of the tree.
func (d *Document) Snapshot() *Node {
	return d.root.Copy()
}

// Size is the number of positions in the document content.
func (d *Document) Size() int {
	return d.root.ContentSize()
}

// Text returns the plain text of the document, textblocks separated by
// newlines.
func (d *Document) Text() string {
	return d.root.TextBetween(0, d.Size(), "\n")
}

func (d *Document) TextBetween(from, to int) (string, error) {
	if err := checkRange(d.root, from, to); err != nil {
		return "", err
	}
	return d.root.TextBetween(from, to, "\n"), nil
}

func (d *Document) Resolve(pos int) (*ResolvedPos, error) {
	return Resolve(d.root, pos)
}

func (d *Document) MarksAt(pos int) (MarkSet, error) {
	return MarksAt(d.root, pos)
}

func (d *Document) BlockTypeAt(pos int) (NodeType, Attrs, error) {
	return BlockTypeAt(d.root, pos)
}

func (d *Document) Descendants(f func(node *Node, pos int, parent *Node, index int) bool) {
	d.root.Descendants(f)
}

// Projection renders the tree as an html node tree.
func (d *Document) Projection() *html.Node {
	return ToProjection(d.root)
}

// Apply runs every step of tx. Either all steps succeed and the document
// changes, or the first failing step's error is returned and the document
// is left untouched.
func (d *Document) Apply(tx *Transaction) (*Mapping, error) {
	return d.ApplyFiltered(tx, nil)
}

// ApplyFiltered is Apply with every step passed through filter first.
func (d *Document) ApplyFiltered(tx *Transaction, filter StepFilter) (*Mapping, error) {
	mapping := &Mapping{}
	if tx.Empty() {
		return mapping, nil
	}
	working := d.root.Copy()
	for i, step := range tx.Steps {
		steps := []Step{step}
		if filter != nil {
			var err error
			if steps, err = filter(working, step); err != nil {
				return nil, err
			}
		}
		for _, s := range steps {
			if err := s.apply(working, mapping); err != nil {
				return nil, fmt.Errorf("step %d (%s): %w", i, s.name(), err)
			}
		}
	}
	d.root = working
	return mapping, nil
}

// Replace swaps the whole tree.
func (d *Document) Replace(root *Node) {
	d.root = NewDocument(root).root
}
