package doctree

import "sort"

// MarkKind identifies a mark variant. The order is the nesting order used
// when rendering: earlier kinds wrap later ones.
type MarkKind int

const (
	MarkComment MarkKind = iota
	MarkTrackInsert
	MarkTrackDelete
	MarkLink
	MarkBold
	MarkItalic
	MarkUnderline
	MarkStrike
	MarkCode
)

var markKindNames = [...]string{
	MarkComment:     "comment",
	MarkTrackInsert: "trackInsert",
	MarkTrackDelete: "trackDelete",
	MarkLink:        "link",
	MarkBold:        "bold",
	MarkItalic:      "italic",
	MarkUnderline:   "underline",
	MarkStrike:      "strike",
	MarkCode:        "code",
}

func (k MarkKind) String() string {
	if k < 0 || int(k) >= len(markKindNames) {
		return "unknown"
	}
	return markKindNames[k]
}

// ParseMarkKind returns the mark kind with the given json name.
func ParseMarkKind(name string) (MarkKind, bool) {
	for k, n := range markKindNames {
		if n == name {
			return MarkKind(k), true
		}
	}
	return 0, false
}

// IsAnnotation reports whether the kind belongs to the comment or
// suggestion overlays rather than to formatting.
func (k MarkKind) IsAnnotation() bool {
	return k == MarkComment || k == MarkTrackInsert || k == MarkTrackDelete
}

// Mark is a formatting or annotation mark attached to inline content. The
// set of implementations is closed.
type Mark interface {
	Kind() MarkKind
	isMark()
}

type Bold struct{}
type Italic struct{}
type Underline struct{}
type Strike struct{}
type Code struct{}

type Link struct {
	Href  string
	Title string
}

// Comment anchors a comment to the marked text.
type Comment struct {
	CommentID string
}

// TrackInsert marks text proposed for insertion.
type TrackInsert struct {
	SuggestionID string
	UserID       string
}

// TrackDelete marks text proposed for deletion. The text stays in the
// document until the suggestion is accepted.
type TrackDelete struct {
	SuggestionID string
	UserID       string
	OriginalText string
}

func (Bold) Kind() MarkKind        { return MarkBold }
func (Italic) Kind() MarkKind      { return MarkItalic }
func (Underline) Kind() MarkKind   { return MarkUnderline }
func (Strike) Kind() MarkKind      { return MarkStrike }
func (Code) Kind() MarkKind        { return MarkCode }
func (Link) Kind() MarkKind        { return MarkLink }
func (Comment) Kind() MarkKind     { return MarkComment }
func (TrackInsert) Kind() MarkKind { return MarkTrackInsert }
func (TrackDelete) Kind() MarkKind { return MarkTrackDelete }

func (Bold) isMark()        {}
func (Italic) isMark()      {}
func (Underline) isMark()   {}
func (Strike) isMark()      {}
func (Code) isMark()        {}
func (Link) isMark()        {}
func (Comment) isMark()     {}
func (TrackInsert) isMark() {}
func (TrackDelete) isMark() {}

// MarkID returns the comment or suggestion id of an annotation mark, and ""
// for formatting marks.
func MarkID(m Mark) string {
	switch m := m.(type) {
	case Comment:
		return m.CommentID
	case TrackInsert:
		return m.SuggestionID
	case TrackDelete:
		return m.SuggestionID
	default:
		return ""
	}
}

// MarkSet is an ordered set of marks holding at most one mark per kind.
// Sets are treated as values: every operation returns a new set.
type MarkSet []Mark

// NewMarkSet builds a set from marks, later marks replacing earlier ones of
// the same kind.
func NewMarkSet(marks ...Mark) MarkSet {
	var s MarkSet
	for _, m := range marks {
		s = s.Add(m)
	}
	return s
}

// Add returns the set with m added. A mark of the same kind is replaced;
// TrackInsert and TrackDelete exclude each other.
func (s MarkSet) Add(m Mark) MarkSet {
	if m == nil {
		return s
	}
	out := make(MarkSet, 0, len(s)+1)
	for _, e := range s {
		if e.Kind() == m.Kind() || excludes(e.Kind(), m.Kind()) {
			continue
		}
		out = append(out, e)
	}
	out = append(out, m)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Kind() < out[j].Kind() })
	return out
}

func excludes(a, b MarkKind) bool {
	return (a == MarkTrackInsert && b == MarkTrackDelete) || (a == MarkTrackDelete && b == MarkTrackInsert)
}

// Remove returns the set without the mark of the given kind. When id is not
// empty only a mark carrying that id is removed.
func (s MarkSet) Remove(kind MarkKind, id string) MarkSet {
	if !s.hasMatch(kind, id) {
		return s
	}
	out := make(MarkSet, 0, len(s))
	for _, e := range s {
		if e.Kind() == kind && (id == "" || MarkID(e) == id) {
			continue
		}
		out = append(out, e)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (s MarkSet) hasMatch(kind MarkKind, id string) bool {
	m, ok := s.Get(kind)
	return ok && (id == "" || MarkID(m) == id)
}

// Get returns the mark of the given kind.
func (s MarkSet) Get(kind MarkKind) (Mark, bool) {
	for _, e := range s {
		if e.Kind() == kind {
			return e, true
		}
	}
	return nil, false
}

func (s MarkSet) Has(kind MarkKind) bool {
	_, ok := s.Get(kind)
	return ok
}

// Formatting returns the set without annotation marks.
func (s MarkSet) Formatting() MarkSet {
	var out MarkSet
	for _, e := range s {
		if !e.Kind().IsAnnotation() {
			out = append(out, e)
		}
	}
	return out
}

// Annotations returns only the annotation marks of the set.
func (s MarkSet) Annotations() MarkSet {
	var out MarkSet
	for _, e := range s {
		if e.Kind().IsAnnotation() {
			out = append(out, e)
		}
	}
	return out
}

func (s MarkSet) Equal(o MarkSet) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}
