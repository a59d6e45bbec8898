// Package linediff diffs two snapshots line by line first and re-tokenizes
// only the changed runs, aligning paired runs at token granularity.
package linediff

import (
	"context"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/editmine/pkg/editscript"
	"github.com/Sumatoshi-tech/editmine/pkg/token"
)

// Tokenizer turns a source fragment into tokens. Failures yield an empty
// sequence.
type Tokenizer interface {
	Tokenize(ctx context.Context, source string) token.Sequence
}

// Hunk is one run of the line diff. Line ranges are zero-based and
// half-open. Equal hunks carry no tokens.
type Hunk struct {
	Kind        editscript.Tag      `json:"kind"`
	BeforeStart int                 `json:"before_start"`
	BeforeEnd   int                 `json:"before_end"`
	AfterStart  int                 `json:"after_start"`
	AfterEnd    int                 `json:"after_end"`
	Before      token.Sequence      `json:"before,omitempty"`
	After       token.Sequence      `json:"after,omitempty"`
	Ops         []editscript.Opcode `json:"ops,omitempty"`
}

type run struct {
	text       string
	start, end int
	present    bool
}

type differ struct {
	ctx    context.Context
	tk     Tokenizer
	out    []Hunk
	del    run
	ins    run
	before int
	after  int
}

// Diff aligns before and after by lines. A deleted run next to an inserted
// run becomes one Replace hunk aligned with editscript.Opcodes; unpaired
// runs are emitted as Delete or Insert hunks. Runs without tokens are
// dropped.
func Diff(ctx context.Context, tk Tokenizer, before, after string) []Hunk {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0

	src, dst, lines := dmp.DiffLinesToRunes(terminated(before), terminated(after))
	diffs := dmp.DiffMainRunes(src, dst, false)

	d := &differ{ctx: ctx, tk: tk}

	for _, diff := range diffs {
		text, n := joinLines(diff.Text, lines)
		if n == 0 {
			continue
		}

		switch diff.Type {
		case diffmatchpatch.DiffEqual:
			d.flush()
			d.out = append(d.out, Hunk{
				Kind:        editscript.Equal,
				BeforeStart: d.before,
				BeforeEnd:   d.before + n,
				AfterStart:  d.after,
				AfterEnd:    d.after + n,
			})
			d.before += n
			d.after += n
		case diffmatchpatch.DiffDelete:
			d.del = extend(d.del, text, d.before, n)
			d.before += n
		case diffmatchpatch.DiffInsert:
			d.ins = extend(d.ins, text, d.after, n)
			d.after += n
		}
	}

	d.flush()

	return d.out
}

// terminated appends a final line break so the last line compares equal
// whether or not the snapshot ended with one.
func terminated(text string) string {
	if text == "" || strings.HasSuffix(text, "\n") {
		return text
	}

	return text + "\n"
}

func joinLines(encoded string, lines []string) (string, int) {
	var (
		sb strings.Builder
		n  int
	)

	for _, r := range encoded {
		sb.WriteString(lines[r])
		n++
	}

	return sb.String(), n
}

func extend(r run, text string, at, n int) run {
	if !r.present {
		return run{text: text, start: at, end: at + n, present: true}
	}

	r.text += text
	r.end += n

	return r
}

func (d *differ) flush() {
	del, ins := d.del, d.ins
	d.del, d.ins = run{}, run{}

	var before, after token.Sequence
	if del.present {
		before = d.tk.Tokenize(d.ctx, del.text)
	}

	if ins.present {
		after = d.tk.Tokenize(d.ctx, ins.text)
	}

	switch {
	case len(before) > 0 && len(after) > 0:
		d.out = append(d.out, Hunk{
			Kind:        editscript.Replace,
			BeforeStart: del.start,
			BeforeEnd:   del.end,
			AfterStart:  ins.start,
			AfterEnd:    ins.end,
			Before:      before,
			After:       after,
			Ops:         editscript.Opcodes(before, after),
		})
	case len(before) > 0:
		d.out = append(d.out, Hunk{
			Kind:        editscript.Delete,
			BeforeStart: del.start,
			BeforeEnd:   del.end,
			AfterStart:  d.after - ins.span(),
			AfterEnd:    d.after - ins.span(),
			Before:      before,
		})
	case len(after) > 0:
		d.out = append(d.out, Hunk{
			Kind:        editscript.Insert,
			BeforeStart: d.before - del.span(),
			BeforeEnd:   d.before - del.span(),
			AfterStart:  ins.start,
			AfterEnd:    ins.end,
			After:       after,
		})
	}
}

func (r run) span() int {
	return r.end - r.start
}

// Changed returns the hunks that are not Equal.
func Changed(hunks []Hunk) []Hunk {
	out := make([]Hunk, 0, len(hunks))

	for _, h := range hunks {
		if h.Kind != editscript.Equal {
			out = append(out, h)
		}
	}

	return out
}

// Render formats the changed hunks as edit records: replacements through
// editscript.Render, unpaired runs as "-" and "+" chunks.
func Render(hunks []Hunk) []string {
	var out []string

	for _, h := range hunks {
		switch h.Kind {
		case editscript.Replace:
			out = append(out, editscript.Render(h.Before, h.After, h.Ops)...)
		case editscript.Delete:
			out = append(out, editscript.Render(h.Before, nil,
				[]editscript.Opcode{{Tag: editscript.Delete, I2: len(h.Before)}})...)
		case editscript.Insert:
			out = append(out, editscript.Render(nil, h.After,
				[]editscript.Opcode{{Tag: editscript.Insert, J2: len(h.After)}})...)
		}
	}

	return out
}
