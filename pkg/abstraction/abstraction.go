// Package abstraction generalizes a before/after token pair into an edit
// template: identifiers and literals judged to be the same entity on both
// sides are replaced by numbered placeholders.
package abstraction

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/editmine/pkg/token"
)

const (
	newlineMarker = "\n"
	indentMarker  = "\t"
	callOpen      = "("
)

// Pattern is a parameterized edit template. Condition and Consequent hold
// the reconstructed code of each side split into lines. Placeholders maps a
// placeholder id to the literal text it stands for.
type Pattern struct {
	Condition    []string       `json:"condition"              yaml:"condition"`
	Consequent   []string       `json:"consequent"             yaml:"consequent"`
	Placeholders map[int]string `json:"placeholders,omitempty" yaml:"placeholders,omitempty"`
	Rename       bool           `json:"rename,omitempty"       yaml:"rename,omitempty"`
}

// IsZero reports a pattern produced from an empty side.
func (p Pattern) IsZero() bool {
	return len(p.Condition) == 0 && len(p.Consequent) == 0
}

// IsDegenerate reports a pattern without placeholders: a pure rename, an
// unchanged pair, or no generalizable edit at all.
func (p Pattern) IsDegenerate() bool {
	return len(p.Placeholders) == 0
}

// ConditionText joins the condition lines.
func (p Pattern) ConditionText() string {
	return strings.Join(p.Condition, "\n")
}

// ConsequentText joins the consequent lines.
func (p Pattern) ConsequentText() string {
	return strings.Join(p.Consequent, "\n")
}

// Placeholder formats the text of a placeholder.
func Placeholder(id int, literal string) string {
	return fmt.Sprintf("${%d:%s}", id, literal)
}

type slot struct {
	text    string
	class   token.Class
	leading int
	bound   bool
}

// Abstract builds the edit template of before and after.
//
// Identifier, string and number tokens of before are visited left to right.
// A token whose text already owns a placeholder takes it. Otherwise, unless
// it is a call target (followed by an opening parenthesis), the first token
// of after with the same class and text binds both to the next placeholder.
// When exactly one remaining identifier is unique to each side and renaming
// it turns before into after, the result collapses to that pure rename.
func Abstract(before, after token.Sequence) Pattern {
	a, b := canonicalize(before), canonicalize(after)
	if len(a) == 0 || len(b) == 0 {
		return Pattern{}
	}

	if sameSlots(a, b) && realCode(a) == realCode(b) {
		code := lines(realCode(a))

		return Pattern{Condition: code, Consequent: slices.Clone(code)}
	}

	ids := make(map[string]int)
	literals := make(map[int]string)

	for i := range a {
		tok := &a[i]
		if !tok.class.IsLiteral() {
			continue
		}

		if id, ok := ids[tok.text]; ok {
			tok.bind(id)

			continue
		}

		if i+1 < len(a) && a[i+1].text == callOpen {
			continue
		}

		if !hasPartner(b, tok) {
			continue
		}

		id := len(ids) + 1
		ids[tok.text] = id
		literals[id] = tok.text
		tok.bind(id)
	}

	for i := range b {
		tok := &b[i]
		if id, ok := ids[tok.text]; ok && tok.class.IsLiteral() {
			tok.bind(id)
		}
	}

	realBefore, realAfter := realCode(a), realCode(b)

	if from, to, ok := soleRename(a, b); ok && strings.ReplaceAll(realBefore, from, to) == realAfter {
		return Pattern{Condition: []string{from}, Consequent: []string{to}, Rename: true}
	}

	return Pattern{
		Condition:    lines(realBefore),
		Consequent:   lines(realAfter),
		Placeholders: literals,
	}
}

func (s *slot) bind(id int) {
	s.text = Placeholder(id, s.text)
	s.bound = true
}

func hasPartner(b []slot, tok *slot) bool {
	for _, other := range b {
		if other.class == tok.class && other.text == tok.text {
			return true
		}
	}

	return false
}

func canonicalize(seq token.Sequence) []slot {
	out := make([]slot, 0, len(seq))

	for _, tok := range seq {
		s := slot{text: tok.Content, class: tok.Class, leading: tok.LeadingSpace}

		switch tok.Class {
		case token.Dedent:
			continue
		case token.Newline:
			s.text, s.leading = newlineMarker, 0
		case token.Indent:
			s.text, s.leading = indentMarker, 0
		}

		out = append(out, s)
	}

	return out
}

// sameSlots compares text and class only; spacing is checked by the caller.
func sameSlots(a, b []slot) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i].text != b[i].text || a[i].class != b[i].class {
			return false
		}
	}

	return true
}

// soleRename returns the only unbound identifier unique to each side.
func soleRename(a, b []slot) (string, string, bool) {
	left, right := freeIdentifiers(a), freeIdentifiers(b)

	var from, to []string

	for name := range left {
		if _, ok := right[name]; !ok {
			from = append(from, name)
		}
	}

	for name := range right {
		if _, ok := left[name]; !ok {
			to = append(to, name)
		}
	}

	if len(from) != 1 || len(to) != 1 {
		return "", "", false
	}

	return from[0], to[0], true
}

func freeIdentifiers(slots []slot) map[string]struct{} {
	out := make(map[string]struct{})

	for _, s := range slots {
		if s.class == token.Identifier && !s.bound {
			out[s.text] = struct{}{}
		}
	}

	return out
}

func realCode(slots []slot) string {
	var sb strings.Builder

	for _, s := range slots {
		sb.WriteString(strings.Repeat(" ", s.leading))
		sb.WriteString(s.text)
	}

	return sb.String()
}

func lines(code string) []string {
	return strings.Split(code, newlineMarker)
}

