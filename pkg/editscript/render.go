package editscript

import (
	"strings"

	"github.com/Sumatoshi-tech/editmine/pkg/token"
)

const replaceArrow = "-->"

// Chunks splits seq on layout tokens. Empty chunks are dropped.
func Chunks(seq token.Sequence) []token.Sequence {
	var (
		out []token.Sequence
		cur token.Sequence
	)

	for _, tok := range seq {
		if tok.Class.IsLayout() {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}

			continue
		}

		cur = append(cur, tok)
	}

	if len(cur) > 0 {
		out = append(out, cur)
	}

	return out
}

// Render turns opcodes over a and b into records: "= tokens" for kept
// chunks, "- tokens" and "+ tokens" for removed and added chunks, and
// "* before --> after" for a replacement whose sides are one chunk each.
func Render(a, b token.Sequence, ops []Opcode) []string {
	var out []string

	for _, op := range ops {
		left, right := a[op.I1:op.I2], b[op.J1:op.J2]

		switch op.Tag {
		case Equal:
			out = appendChunks(out, Equal.Symbol(), Chunks(right))
		case Delete:
			out = appendChunks(out, Delete.Symbol(), Chunks(left))
		case Insert:
			out = appendChunks(out, Insert.Symbol(), Chunks(right))
		case Replace:
			before, after := Chunks(left), Chunks(right)
			if len(before) == 1 && len(after) == 1 {
				out = append(out, strings.Join([]string{
					Replace.Symbol(), before[0].Join(" "), replaceArrow, after[0].Join(" "),
				}, " "))

				continue
			}

			out = appendChunks(out, Delete.Symbol(), before)
			out = appendChunks(out, Insert.Symbol(), after)
		}
	}

	return out
}

func appendChunks(out []string, symbol string, chunks []token.Sequence) []string {
	for _, chunk := range chunks {
		out = append(out, symbol+" "+chunk.Join(" "))
	}

	return out
}

// ChangeSet aligns a and b and renders the records. It reports false when
// either side is empty or both sides hold the same tokens.
func ChangeSet(a, b token.Sequence) ([]string, bool) {
	if len(a) == 0 || len(b) == 0 || a.Equal(b) {
		return nil, false
	}

	return Render(a, b, Opcodes(a, b)), true
}
