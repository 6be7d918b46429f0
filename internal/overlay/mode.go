package overlay

import "fmt"

// Mode decides how edits reach the document.
type Mode int

const (
	// ModeEditing applies edits directly.
	ModeEditing Mode = iota
	// ModeSuggesting records edits as tracked changes.
	ModeSuggesting
	// ModeViewing rejects every edit.
	ModeViewing
)

func (m Mode) String() string {
	switch m {
	case ModeEditing:
		return "editing"
	case ModeSuggesting:
		return "suggesting"
	case ModeViewing:
		return "viewing"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses the name of a mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "editing":
		return ModeEditing, nil
	case "suggesting":
		return ModeSuggesting, nil
	case "viewing":
		return ModeViewing, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
