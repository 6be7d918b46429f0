package overlay

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/emrgen/redline/internal/doctree"
)

// capture turns insertions and deletions into tracked changes.
func (e *Editor) capture(working *doctree.Node, step doctree.Step) ([]doctree.Step, error) {
	switch s := step.(type) {
	case doctree.InsertText:
		if s.Text == "" {
			return []doctree.Step{s}, nil
		}
		var marks []doctree.Mark
		for _, m := range s.Marks {
			if k := m.Kind(); k != doctree.MarkTrackInsert && k != doctree.MarkTrackDelete {
				marks = append(marks, m)
			}
		}
		end := s.Pos + utf8.RuneCountInString(s.Text)
		return []doctree.Step{
			doctree.InsertText{Pos: s.Pos, Text: s.Text, Marks: marks},
			doctree.AddMark{From: s.Pos, To: end, Mark: doctree.TrackInsert{SuggestionID: e.newID(), UserID: e.userID}},
		}, nil
	case doctree.DeleteRange:
		return e.captureDelete(working, s)
	default:
		return []doctree.Step{step}, nil
	}
}

type segment struct {
	doctree.Range
	parent  *doctree.Node
	pending bool
	text    string
}

// captureDelete marks the range as a pending deletion. Text that is itself a
// pending insertion is removed outright.
func (e *Editor) captureDelete(working *doctree.Node, s doctree.DeleteRange) ([]doctree.Step, error) {
	if s.From < 0 || s.To < s.From || s.To > working.ContentSize() {
		return nil, &doctree.RangeError{From: s.From, To: s.To, Size: working.ContentSize()}
	}
	var segments []segment
	working.Descendants(func(node *doctree.Node, pos int, parent *doctree.Node, _ int) bool {
		end := pos + node.Size()
		if end <= s.From || pos >= s.To {
			return false
		}
		if !node.IsInline() {
			return true
		}
		r := doctree.Range{From: max(pos, s.From), To: min(end, s.To)}
		seg := segment{
			Range:   r,
			parent:  parent,
			pending: node.Marks.Has(doctree.MarkTrackInsert),
			text:    inlineText(node, r.From-pos, r.To-pos),
		}
		if n := len(segments); n > 0 {
			last := &segments[n-1]
			if last.parent == parent && last.pending == seg.pending && last.To == seg.From {
				last.To = seg.To
				last.text += seg.text
				return false
			}
		}
		segments = append(segments, seg)
		return false
	})
	if len(segments) == 0 {
		return nil, nil
	}

	var original strings.Builder
	var parent *doctree.Node
	for _, seg := range segments {
		if seg.pending {
			continue
		}
		if parent != nil && seg.parent != parent {
			original.WriteString("\n")
		}
		parent = seg.parent
		original.WriteString(seg.text)
	}

	id := e.newID()
	var steps, retracted []doctree.Step
	for _, seg := range segments {
		if seg.pending {
			retracted = append(retracted, doctree.DeleteRange{From: seg.From, To: seg.To})
			continue
		}
		steps = append(steps, doctree.AddMark{From: seg.From, To: seg.To, Mark: doctree.TrackDelete{
			SuggestionID: id,
			UserID:       e.userID,
			OriginalText: original.String(),
		}})
	}
	sort.Slice(retracted, func(i, j int) bool {
		return retracted[i].(doctree.DeleteRange).From > retracted[j].(doctree.DeleteRange).From
	})
	return append(steps, retracted...), nil
}

func inlineText(node *doctree.Node, from, to int) string {
	if !node.IsText() {
		return node.TextContent()
	}
	runes := []rune(node.Text)
	return string(runes[from:to])
}
