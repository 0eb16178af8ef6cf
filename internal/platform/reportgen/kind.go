package reportgen

import (
	"errors"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind selects which sections a patient document contains.
type Kind string

const (
	KindFull    Kind = "full"
	KindCurrent Kind = "current"
	KindVisit   Kind = "visit"
)

var ErrUnknownKind = errors.New("unknown report kind")

// ParseKind accepts full, current or visit. An empty string means full.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "":
		return KindFull, nil
	case KindFull, KindCurrent, KindVisit:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q (want full, current or visit)", ErrUnknownKind, s)
	}
}

// Title is the display name used in the document footer, e.g. "Visit".
func (k Kind) Title() string {
	return cases.Title(language.English).String(string(k))
}

// includesHistory reports whether prescriptions and reports are rendered.
// Current documents carry the same sections as full ones.
func (k Kind) includesHistory() bool {
	return k != KindVisit
}
