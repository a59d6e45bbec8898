// Package levenshtein computes exact token-level edit scripts: the tokens
// edited along one optimal Levenshtein path, not only the scalar distance.
package levenshtein

import (
	"fmt"

	"github.com/Sumatoshi-tech/editmine/pkg/token"
)

type step uint8

const (
	stepDiagonal step = iota
	stepInsert
	stepDelete
)

// Context holds the DP buffers so repeated calls do not reallocate them.
// A Context is not safe for concurrent use; the zero value is ready.
type Context struct {
	dist  []int
	steps []step
}

func (ctx *Context) buffers(size int) ([]int, []step) {
	if cap(ctx.dist) < size {
		ctx.dist = make([]int, size)
		ctx.steps = make([]step, size)
	}

	return ctx.dist[:size], ctx.steps[:size]
}

// Script returns the tokens edited along one optimal path transforming a
// into b. Substitutions and insertions report the token of b, deletions the
// token of a. On equal costs substitution wins over insertion, insertion
// over deletion.
func (ctx *Context) Script(a, b token.Sequence) token.Sequence {
	rows, cols := len(a)+1, len(b)+1
	dist, steps := ctx.buffers(rows * cols)

	at := func(row, col int) int { return row*cols + col }

	dist[0] = 0

	for row := 1; row < rows; row++ {
		dist[at(row, 0)] = row
		steps[at(row, 0)] = stepDelete
	}

	for col := 1; col < cols; col++ {
		dist[at(0, col)] = col
		steps[at(0, col)] = stepInsert
	}

	for row := 1; row < rows; row++ {
		for col := 1; col < cols; col++ {
			cost := 1
			if a[row-1].Equal(b[col-1]) {
				cost = 0
			}

			substitution := dist[at(row-1, col-1)] + cost
			insertion := dist[at(row, col-1)] + 1
			deletion := dist[at(row-1, col)] + 1

			best, choice := substitution, stepDiagonal
			if insertion < best {
				best, choice = insertion, stepInsert
			}

			if deletion < best {
				best, choice = deletion, stepDelete
			}

			dist[at(row, col)] = best
			steps[at(row, col)] = choice
		}
	}

	return backtrack(a, b, dist, steps, cols)
}

func backtrack(a, b token.Sequence, dist []int, steps []step, cols int) token.Sequence {
	row, col := len(a), len(b)
	out := make(token.Sequence, 0, dist[row*cols+col])

	for row > 0 || col > 0 {
		cell := row*cols + col

		switch steps[cell] {
		case stepInsert:
			out = append(out, b[col-1])
			col--
		case stepDelete:
			out = append(out, a[row-1])
			row--
		case stepDiagonal:
			prev := dist[(row-1)*cols+col-1]

			switch dist[cell] - prev {
			case 1:
				out = append(out, b[col-1])
			case 0:
				if !a[row-1].Equal(b[col-1]) {
					panic(fmt.Sprintf("levenshtein: match step on %s and %s", a[row-1], b[col-1]))
				}
			default:
				panic(fmt.Sprintf("levenshtein: inconsistent cost at (%d, %d)", row, col))
			}

			row--
			col--
		}
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return out
}

// Distance returns the number of edits along the optimal path.
func (ctx *Context) Distance(a, b token.Sequence) int {
	return len(ctx.Script(a, b))
}

// Script is a convenience wrapper that allocates a fresh Context.
func Script(a, b token.Sequence) token.Sequence {
	var ctx Context

	return ctx.Script(a, b)
}

// Distance is a convenience wrapper that allocates a fresh Context.
func Distance(a, b token.Sequence) int {
	var ctx Context

	return ctx.Distance(a, b)
}
