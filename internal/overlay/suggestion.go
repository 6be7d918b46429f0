package overlay

import (
	"sort"

	"github.com/emrgen/redline/internal/doctree"
)

type SuggestionType string

const (
	SuggestionInsert SuggestionType = "insert"
	SuggestionDelete SuggestionType = "delete"
)

// Suggestion is a pending tracked change collected from the marks sharing
// one suggestion id.
type Suggestion struct {
	ID      string          `json:"id"`
	Type    SuggestionType  `json:"type"`
	UserID  string          `json:"userId"`
	Content string          `json:"content"`
	Ranges  []doctree.Range `json:"ranges"`
}

// Suggestions lists the pending suggestions of root in document order.
func Suggestions(root *doctree.Node) []Suggestion {
	runs := trackRuns(root, nil)
	var out []Suggestion
	index := map[string]int{}
	for _, run := range runs {
		id := doctree.MarkID(run.Mark)
		i, ok := index[id]
		if !ok {
			s := Suggestion{ID: id}
			switch m := run.Mark.(type) {
			case doctree.TrackInsert:
				s.Type, s.UserID = SuggestionInsert, m.UserID
			case doctree.TrackDelete:
				s.Type, s.UserID = SuggestionDelete, m.UserID
			}
			out = append(out, s)
			i = len(out) - 1
			index[id] = i
		}
		out[i].Content += run.Text
		out[i].Ranges = append(out[i].Ranges, run.Range)
	}
	return out
}

// trackRuns returns the insert and delete runs matching match, sorted by
// position.
func trackRuns(root *doctree.Node, match func(doctree.Mark) bool) []doctree.MarkRun {
	runs := append(
		doctree.MarkRuns(root, doctree.MarkTrackInsert, match),
		doctree.MarkRuns(root, doctree.MarkTrackDelete, match)...,
	)
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].From < runs[j].From })
	return runs
}

// Accept applies the suggestion: inserted text stays, deleted text goes.
// It reports false when no mark carries the id.
func (e *Editor) Accept(id string) (bool, error) {
	return e.resolve("accept suggestion", matchID(id), true)
}

// Reject reverts the suggestion: inserted text goes, deleted text stays.
func (e *Editor) Reject(id string) (bool, error) {
	return e.resolve("reject suggestion", matchID(id), false)
}

// AcceptAll accepts every pending suggestion and returns how many there were.
func (e *Editor) AcceptAll() (int, error) {
	return e.resolveAll("accept all suggestions", true)
}

// RejectAll rejects every pending suggestion and returns how many there were.
func (e *Editor) RejectAll() (int, error) {
	return e.resolveAll("reject all suggestions", false)
}

func (e *Editor) resolveAll(op string, accept bool) (int, error) {
	if e.mode == ModeViewing {
		return 0, &ReadOnlyError{Op: op}
	}
	count := len(Suggestions(e.doc.Root()))
	if count == 0 {
		return 0, nil
	}
	if _, err := e.resolve(op, nil, accept); err != nil {
		return 0, err
	}
	return count, nil
}

func (e *Editor) resolve(op string, match func(doctree.Mark) bool, accept bool) (bool, error) {
	if e.mode == ModeViewing {
		return false, &ReadOnlyError{Op: op}
	}
	runs := trackRuns(e.doc.Root(), match)
	if len(runs) == 0 {
		return false, nil
	}
	_, err := e.apply(resolution(runs, accept), nil)
	return err == nil, err
}

// resolution removes the marks of the kept runs first, then deletes the
// dropped runs from the end of the document backwards so earlier positions
// stay valid.
func resolution(runs []doctree.MarkRun, accept bool) *doctree.Transaction {
	tx := doctree.NewTransaction()
	var drop []doctree.MarkRun
	for _, run := range runs {
		kind := run.Mark.Kind()
		keep := (kind == doctree.MarkTrackInsert) == accept
		if keep {
			tx.RemoveMarkID(run.From, run.To, kind, doctree.MarkID(run.Mark))
		} else {
			drop = append(drop, run)
		}
	}
	sort.Slice(drop, func(i, j int) bool { return drop[i].From > drop[j].From })
	for _, run := range drop {
		tx.Delete(run.From, run.To)
	}
	return tx
}
