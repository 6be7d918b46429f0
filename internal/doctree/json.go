package doctree

import (
	"encoding/json"
	"fmt"
)

type jsonMark struct {
	Type  string            `json:"type"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

type jsonNode struct {
	Type    string      `json:"type"`
	Attrs   *Attrs      `json:"attrs,omitempty"`
	Text    string      `json:"text,omitempty"`
	Marks   []jsonMark  `json:"marks,omitempty"`
	Content []*jsonNode `json:"content,omitempty"`
}

func encodeMark(m Mark) jsonMark {
	out := jsonMark{Type: m.Kind().String()}
	switch m := m.(type) {
	case Link:
		out.Attrs = map[string]string{"href": m.Href}
		if m.Title != "" {
			out.Attrs["title"] = m.Title
		}
	case Comment:
		out.Attrs = map[string]string{"commentId": m.CommentID}
	case TrackInsert:
		out.Attrs = map[string]string{"suggestionId": m.SuggestionID, "userId": m.UserID}
	case TrackDelete:
		out.Attrs = map[string]string{"suggestionId": m.SuggestionID, "userId": m.UserID}
		if m.OriginalText != "" {
			out.Attrs["originalText"] = m.OriginalText
		}
	}
	return out
}

func decodeMark(j jsonMark) (Mark, error) {
	kind, ok := ParseMarkKind(j.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMark, j.Type)
	}
	a := j.Attrs
	switch kind {
	case MarkBold:
		return Bold{}, nil
	case MarkItalic:
		return Italic{}, nil
	case MarkUnderline:
		return Underline{}, nil
	case MarkStrike:
		return Strike{}, nil
	case MarkCode:
		return Code{}, nil
	case MarkLink:
		return Link{Href: a["href"], Title: a["title"]}, nil
	case MarkComment:
		return Comment{CommentID: a["commentId"]}, nil
	case MarkTrackInsert:
		return TrackInsert{SuggestionID: a["suggestionId"], UserID: a["userId"]}, nil
	default:
		return TrackDelete{SuggestionID: a["suggestionId"], UserID: a["userId"], OriginalText: a["originalText"]}, nil
	}
}

func encodeNode(n *Node) *jsonNode {
	out := &jsonNode{Type: n.Type.String(), Text: n.Text}
	if !n.Attrs.isZero() {
		attrs := n.Attrs
		out.Attrs = &attrs
	}
	for _, m := range n.Marks {
		out.Marks = append(out.Marks, encodeMark(m))
	}
	for _, c := range n.Content {
		out.Content = append(out.Content, encodeNode(c))
	}
	return out
}

func decodeNode(j *jsonNode) (*Node, error) {
	t, ok := ParseNodeType(j.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNode, j.Type)
	}
	n := &Node{Type: t, Text: j.Text}
	if j.Attrs != nil {
		n.Attrs = *j.Attrs
	}
	if t == NodeHeading {
		n.Attrs.Level = clampLevel(n.Attrs.Level)
	}
	for _, jm := range j.Marks {
		m, err := decodeMark(jm)
		if err != nil {
			return nil, err
		}
		n.Marks = n.Marks.Add(m)
	}
	for _, jc := range j.Content {
		c, err := decodeNode(jc)
		if err != nil {
			return nil, err
		}
		n.Content = append(n.Content, c)
	}
	if n.hasInlineContent() {
		n.Content = normalizeInline(n.Content)
	}
	return n, nil
}

// MarshalJSON encodes the node in the tiptap json content format.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(encodeNode(n))
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var j jsonNode
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	decoded, err := decodeNode(&j)
	if err != nil {
		return err
	}
	*n = *decoded
	return nil
}

type jsonStep struct {
	Type     string     `json:"type"`
	Pos      int        `json:"pos,omitempty"`
	From     int        `json:"from,omitempty"`
	To       int        `json:"to,omitempty"`
	Text     string     `json:"text,omitempty"`
	Marks    []jsonMark `json:"marks,omitempty"`
	Mark     *jsonMark  `json:"mark,omitempty"`
	MarkType string     `json:"markType,omitempty"`
	ID       string     `json:"id,omitempty"`
	NodeType string     `json:"nodeType,omitempty"`
	Attrs    *Attrs     `json:"attrs,omitempty"`
}

func encodeStep(s Step) jsonStep {
	out := jsonStep{Type: s.name()}
	switch s := s.(type) {
	case InsertText:
		out.Pos, out.Text = s.Pos, s.Text
		for _, m := range s.Marks {
			out.Marks = append(out.Marks, encodeMark(m))
		}
	case DeleteRange:
		out.From, out.To = s.From, s.To
	case AddMark:
		out.From, out.To = s.From, s.To
		if s.Mark != nil {
			jm := encodeMark(s.Mark)
			out.Mark = &jm
		}
	case RemoveMark:
		out.From, out.To, out.MarkType, out.ID = s.From, s.To, s.Kind.String(), s.ID
	case SetBlockType:
		out.From, out.To, out.NodeType = s.From, s.To, s.Type.String()
		if !s.Attrs.isZero() {
			attrs := s.Attrs
			out.Attrs = &attrs
		}
	case SplitBlock:
		out.Pos = s.Pos
	}
	return out
}

func decodeStep(j jsonStep) (Step, error) {
	switch j.Type {
	case "insertText":
		s := InsertText{Pos: j.Pos, Text: j.Text}
		for _, jm := range j.Marks {
			m, err := decodeMark(jm)
			if err != nil {
				return nil, err
			}
			s.Marks = append(s.Marks, m)
		}
		return s, nil
	case "deleteRange":
		return DeleteRange{From: j.From, To: j.To}, nil
	case "addMark":
		if j.Mark == nil {
			return nil, fmt.Errorf("%w: addMark without mark", ErrUnknownMark)
		}
		m, err := decodeMark(*j.Mark)
		if err != nil {
			return nil, err
		}
		return AddMark{From: j.From, To: j.To, Mark: m}, nil
	case "removeMark":
		kind, ok := ParseMarkKind(j.MarkType)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMark, j.MarkType)
		}
		return RemoveMark{From: j.From, To: j.To, Kind: kind, ID: j.ID}, nil
	case "setBlockType":
		t, ok := ParseNodeType(j.NodeType)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNode, j.NodeType)
		}
		s := SetBlockType{From: j.From, To: j.To, Type: t}
		if j.Attrs != nil {
			s.Attrs = *j.Attrs
		}
		return s, nil
	case "splitBlock":
		return SplitBlock{Pos: j.Pos}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, j.Type)
	}
}

type jsonTransaction struct {
	Steps []jsonStep `json:"steps"`
}

// MarshalJSON encodes the transaction as {"steps": [...]}.
func (tx *Transaction) MarshalJSON() ([]byte, error) {
	out := jsonTransaction{Steps: make([]jsonStep, 0, len(tx.Steps))}
	for _, s := range tx.Steps {
		out.Steps = append(out.Steps, encodeStep(s))
	}
	return json.Marshal(out)
}

func (tx *Transaction) UnmarshalJSON(data []byte) error {
	var j jsonTransaction
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	steps := make([]Step, 0, len(j.Steps))
	for i, js := range j.Steps {
		s, err := decodeStep(js)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		steps = append(steps, s)
	}
	tx.Steps = steps
	return nil
}
