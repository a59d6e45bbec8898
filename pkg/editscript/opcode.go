// Package editscript aligns two token sequences into contiguous opcode runs
// and renders them as human-readable change records.
package editscript

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/editmine/pkg/token"
)

// Tag is the kind of an opcode run.
type Tag uint8

// ErrUnknownTag is returned when decoding a tag name that is not defined.
var ErrUnknownTag = errors.New("unknown opcode tag")

// Opcode tags.
const (
	Equal Tag = iota
	Insert
	Delete
	Replace
)

var tagNames = [...]string{
	Equal:   "equal",
	Insert:  "insert",
	Delete:  "delete",
	Replace: "replace",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}

	return fmt.Sprintf("tag(%d)", uint8(t))
}

// Symbol returns the one-character record prefix of the tag.
func (t Tag) Symbol() string {
	switch t {
	case Insert:
		return "+"
	case Delete:
		return "-"
	case Replace:
		return "*"
	default:
		return "="
	}
}

// MarshalText encodes the tag name.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tag name.
func (t *Tag) UnmarshalText(text []byte) error {
	name := string(text)

	for i, n := range tagNames {
		if n == name {
			*t = Tag(i)

			return nil
		}
	}

	return fmt.Errorf("%w: %q", ErrUnknownTag, name)
}

// Opcode transforms a[I1:I2] into b[J1:J2].
type Opcode struct {
	Tag Tag `json:"tag"`
	I1  int `json:"i1"`
	I2  int `json:"i2"`
	J1  int `json:"j1"`
	J2  int `json:"j2"`
}

// Opcodes aligns a and b by longest common subsequence. Runs cover both
// sequences completely and in order; a deletion adjacent to an insertion is
// reported as one Replace run.
func Opcodes(a, b token.Sequence) []Opcode {
	src, dst := encode(a, b)

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	diffs := dmp.DiffMainRunes(src, dst, false)

	ops := make([]Opcode, 0, len(diffs))
	i, j := 0, 0

	for _, d := range diffs {
		n := utf8.RuneCountInString(d.Text)
		if n == 0 {
			continue
		}

		var op Opcode

		switch d.Type {
		case diffmatchpatch.DiffEqual:
			op = Opcode{Tag: Equal, I1: i, I2: i + n, J1: j, J2: j + n}
			i += n
			j += n
		case diffmatchpatch.DiffDelete:
			op = Opcode{Tag: Delete, I1: i, I2: i + n, J1: j, J2: j}
			i += n
		case diffmatchpatch.DiffInsert:
			op = Opcode{Tag: Insert, I1: i, I2: i, J1: j, J2: j + n}
			j += n
		}

		ops = appendMerged(ops, op)
	}

	return ops
}

func appendMerged(ops []Opcode, op Opcode) []Opcode {
	if len(ops) == 0 {
		return append(ops, op)
	}

	last := &ops[len(ops)-1]

	switch {
	case last.Tag == Delete && op.Tag == Insert,
		last.Tag == Insert && op.Tag == Delete,
		last.Tag == Replace && (op.Tag == Insert || op.Tag == Delete):
		last.Tag = Replace
		last.I2 = op.I2
		last.J2 = op.J2

		return ops
	}

	return append(ops, op)
}

// encode maps every distinct token key to one rune so the character differ
// can align tokens. Surrogate code points are skipped because they do not
// survive the string conversions inside the differ.
func encode(a, b token.Sequence) ([]rune, []rune) {
	runes := make(map[token.Key]rune)
	next := rune(1)

	conv := func(seq token.Sequence) []rune {
		out := make([]rune, len(seq))

		for i, tok := range seq {
			key := tok.Key()

			r, ok := runes[key]
			if !ok {
				if next >= 0xD800 && next <= 0xDFFF {
					next = 0xE000
				}

				r = next
				runes[key] = r
				next++
			}

			out[i] = r
		}

		return out
	}

	return conv(a), conv(b)
}
