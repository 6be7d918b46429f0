package session

import (
	"github.com/emrgen/redline/internal/doctree"
	"github.com/emrgen/redline/internal/markdown"
)

// Paste inserts text at pos. Text that looks like markdown is parsed and
// inserted block by block with its formatting; anything else goes in as
// plain text.
func (s *Session) Paste(pos int, text string) (*doctree.Mapping, error) {
	return s.Apply(pasteTransaction(pos, text))
}

func pasteTransaction(pos int, text string) *doctree.Transaction {
	tx := doctree.NewTransaction()
	if !markdown.LooksLikeMarkdown(text) {
		return tx.InsertText(pos, text)
	}

	root := doctree.FromProjection(markdown.Parse(text))
	for i, block := range textblocks(root) {
		if i > 0 {
			tx.SplitBlock(pos)
			pos += 2
		}
		start := pos
		for _, n := range block.Content {
			switch n.Type {
			case doctree.NodeText:
				tx.InsertText(pos, n.Text, n.Marks...)
				pos += n.Size()
			case doctree.NodeHardBreak:
				tx.SplitBlock(pos)
				pos += 2
				start = pos
			case doctree.NodeImage:
				if n.Attrs.Alt != "" {
					tx.InsertText(pos, n.Attrs.Alt)
					pos += len([]rune(n.Attrs.Alt))
				}
			}
		}
		if i > 0 && block.Type != doctree.NodeParagraph {
			tx.SetBlockType(start, pos, block.Type, block.Attrs)
		}
	}
	return tx
}

// textblocks lists the textblocks of root in document order. An inline
// root counts as one paragraph.
func textblocks(root *doctree.Node) []*doctree.Node {
	if len(root.Content) > 0 && root.Content[0].IsInline() {
		return []*doctree.Node{doctree.Paragraph(root.Content...)}
	}
	var out []*doctree.Node
	root.Descendants(func(node *doctree.Node, _ int, _ *doctree.Node, _ int) bool {
		if node.IsTextblock() {
			out = append(out, node)
			return false
		}
		return true
	})
	return out
}
