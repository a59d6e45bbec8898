// Package classify compares two token sequences as multisets and as
// subsequences and derives boolean change predicates from the differences.
package classify

import (
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/editmine/pkg/token"
)

// NotDup returns the symmetric multiset difference of a and b: the tokens
// of a not matched by an equal token of b, followed by the tokens of b not
// matched in a, each in source order.
func NotDup(a, b token.Sequence) token.Sequence {
	out := token.Excess(a, token.BagOf(b))

	return append(out, token.Excess(b, token.BagOf(a))...)
}

// LCS returns one longest common subsequence of a and b. The backtrace
// prefers stepping back in a when several branches keep the length.
func LCS(a, b token.Sequence) token.Sequence {
	rows, cols := len(a)+1, len(b)+1
	table := make([]int, rows*cols)

	at := func(row, col int) int { return row*cols + col }

	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			if a[i-1].Equal(b[j-1]) {
				table[at(i, j)] = table[at(i-1, j-1)] + 1
			} else {
				table[at(i, j)] = max(table[at(i-1, j)], table[at(i, j-1)])
			}
		}
	}

	out := make(token.Sequence, 0, table[at(len(a), len(b))])

	for x, y := len(a), len(b); x > 0 && y > 0; {
		switch cur := table[at(x, y)]; {
		case table[at(x-1, y)] == cur:
			x--
		case table[at(x, y-1)] == cur:
			y--
		default:
			if !a[x-1].Equal(b[y-1]) {
				panic(fmt.Sprintf("classify: lcs backtrace matched %s with %s", a[x-1], b[y-1]))
			}

			out = append(out, a[x-1])
			x--
			y--
		}
	}

	slices.Reverse(out)

	return out
}

// NotLCS returns every token of a or b that the common subsequence does not
// explain, counted with excess multiplicity.
func NotLCS(a, b token.Sequence) token.Sequence {
	return notExplained(a, b, LCS(a, b))
}

func notExplained(a, b, common token.Sequence) token.Sequence {
	bag := token.BagOf(common)
	out := token.Excess(a, bag)

	return append(out, token.Excess(b, bag)...)
}
