package classify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/editmine/pkg/token"
)

// Mode selects which diff set the change predicates inspect.
type Mode uint8

// Diff set modes.
const (
	ModeLCS Mode = iota
	ModeMultiset
	ModeLevenshtein
)

// ErrUnknownMode is returned when a mode name is not recognized.
var ErrUnknownMode = errors.New("unknown diff mode")

var modeNames = [...]string{
	ModeLCS:         "lcs",
	ModeMultiset:    "multiset",
	ModeLevenshtein: "levenshtein",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}

	return fmt.Sprintf("mode(%d)", uint8(m))
}

// ParseMode resolves a mode name.
func ParseMode(name string) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	for i, n := range modeNames {
		if n == key {
			return Mode(i), nil
		}
	}

	if key == "dup" || key == "notdup" {
		return ModeMultiset, nil
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// MarshalText encodes the mode name.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText decodes a mode name.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}

// IsStringChange reports whether any token of diff is a string literal.
func IsStringChange(diff token.Sequence) bool {
	return diff.Any(classIs(token.String))
}

// IsNameChange reports whether any token of diff is an identifier.
func IsNameChange(diff token.Sequence) bool {
	return diff.Any(classIs(token.Identifier))
}

// IsNumberChange reports whether any token of diff is a number literal.
func IsNumberChange(diff token.Sequence) bool {
	return diff.Any(classIs(token.Number))
}

// IsOperatorChange reports whether the content of any token of diff is in
// the operator lexicon, regardless of its class.
func IsOperatorChange(diff token.Sequence) bool {
	return diff.Any(func(tok token.Token) bool { return token.IsOperator(tok.Content) })
}

func classIs(class token.Class) func(token.Token) bool {
	return func(tok token.Token) bool { return tok.Class == class }
}
