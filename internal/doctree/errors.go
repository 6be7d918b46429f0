package doctree

import (
	"errors"
	"fmt"
)

var (
	// ErrRange is matched by every RangeError.
	ErrRange = errors.New("position out of range")
	// ErrContent is matched by every ContentError.
	ErrContent = errors.New("invalid content")
	// ErrUnknownStep is returned when decoding a step of an unknown type.
	ErrUnknownStep = errors.New("unknown step type")
	// ErrUnknownMark is returned when decoding a mark of an unknown type.
	ErrUnknownMark = errors.New("unknown mark type")
	// ErrUnknownNode is returned when decoding a node of an unknown type.
	ErrUnknownNode = errors.New("unknown node type")
)

// RangeError reports a position or range outside the document.
type RangeError struct {
	From int
	To   int
	Size int
}

func (e *RangeError) Error() string {
	if e.From == e.To {
		return fmt.Sprintf("position %d outside document of size %d", e.From, e.Size)
	}
	return fmt.Sprintf("range [%d, %d) outside document of size %d", e.From, e.To, e.Size)
}

func (e *RangeError) Is(target error) bool {
	return target == ErrRange
}

// ContentError reports a step that does not fit the node at its target.
type ContentError struct {
	Pos    int
	Node   NodeType
	Reason string
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("%s at %d (%s)", e.Reason, e.Pos, e.Node)
}

func (e *ContentError) Is(target error) bool {
	return target == ErrContent
}

func checkRange(root *Node, from, to int) error {
	size := root.ContentSize()
	if from < 0 || to < from || to > size {
		return &RangeError{From: from, To: to, Size: size}
	}
	return nil
}
