package doctree

// replaced is one replaced interval of a step, in the coordinates of the
// document before the step.
type replaced struct {
	start   int
	oldSize int
	newSize int
}

// StepMap records how one step moved positions around.
type StepMap struct {
	ranges []replaced
}

// EmptyStepMap maps every position to itself.
var EmptyStepMap = StepMap{}

func insertionMap(pos, size int) StepMap {
	if size == 0 {
		return EmptyStepMap
	}
	return StepMap{ranges: []replaced{{start: pos, newSize: size}}}
}

// deletionMap builds a map from ascending, non-overlapping deleted spans.
func deletionMap(spans []Range) StepMap {
	var m StepMap
	for _, s := range spans {
		if s.Empty() {
			continue
		}
		if n := len(m.ranges); n > 0 && m.ranges[n-1].start+m.ranges[n-1].oldSize == s.From {
			m.ranges[n-1].oldSize += s.Len()
			continue
		}
		m.ranges = append(m.ranges, replaced{start: s.From, oldSize: s.Len()})
	}
	return m
}

// Map returns the position pos moves to. assoc decides the side a position
// sticks to when content is inserted exactly at it: negative stays before
// the insertion, positive moves after it.
func (m StepMap) Map(pos, assoc int) int {
	diff := 0
	for _, r := range m.ranges {
		if r.start > pos {
			break
		}
		end := r.start + r.oldSize
		if pos <= end {
			side := assoc
			if r.oldSize > 0 {
				if pos == r.start {
					side = -1
				} else if pos == end {
					side = 1
				}
			}
			if side < 0 {
				return r.start + diff
			}
			return r.start + diff + r.newSize
		}
		diff += r.newSize - r.oldSize
	}
	return pos + diff
}

// Mapping composes the step maps of a transaction.
type Mapping struct {
	maps []StepMap
}

func (m *Mapping) append(sm StepMap) {
	m.maps = append(m.maps, sm)
}

// Map maps pos through every step in order.
func (m *Mapping) Map(pos, assoc int) int {
	if m == nil {
		return pos
	}
	for _, sm := range m.maps {
		pos = sm.Map(pos, assoc)
	}
	return pos
}

// MapRange maps a range so that content inserted at its edges stays
// outside of it.
func (m *Mapping) MapRange(r Range) Range {
	from := m.Map(r.From, 1)
	to := m.Map(r.To, -1)
	if to < from {
		to = from
	}
	return Range{From: from, To: to}
}

// Len is the number of recorded step maps.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.maps)
}
