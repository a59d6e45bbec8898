package token

import "strings"

// Sequence is an ordered run of tokens from one snapshot, in source order.
type Sequence []Token

// Significant returns the tokens that are not layout pseudo-tokens.
func (s Sequence) Significant() Sequence {
	out := make(Sequence, 0, len(s))

	for _, tok := range s {
		if !tok.Class.IsLayout() {
			out = append(out, tok)
		}
	}

	return out
}

// Equal reports whether both sequences hold the same keys in the same order.
func (s Sequence) Equal(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}

	for i := range s {
		if !s[i].Equal(other[i]) {
			return false
		}
	}

	return true
}

// Contents returns the literal text of each token.
func (s Sequence) Contents() []string {
	out := make([]string, len(s))

	for i, tok := range s {
		out[i] = tok.Content
	}

	return out
}

// Count returns the number of tokens of the given class.
func (s Sequence) Count(class Class) int {
	n := 0

	for _, tok := range s {
		if tok.Class == class {
			n++
		}
	}

	return n
}

// Any reports whether any token satisfies fn.
func (s Sequence) Any(fn func(Token) bool) bool {
	for _, tok := range s {
		if fn(tok) {
			return true
		}
	}

	return false
}

// Join concatenates token contents separated by sep.
func (s Sequence) Join(sep string) string {
	return strings.Join(s.Contents(), sep)
}
