// Package detector binds a language tokenizer to the classification,
// edit-script, line-diff and abstraction engines behind one traced entry
// point, and rejects snapshots too large to align.
package detector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/editmine/pkg/abstraction"
	"github.com/Sumatoshi-tech/editmine/pkg/classify"
	"github.com/Sumatoshi-tech/editmine/pkg/editscript"
	"github.com/Sumatoshi-tech/editmine/pkg/lang"
	"github.com/Sumatoshi-tech/editmine/pkg/linediff"
	"github.com/Sumatoshi-tech/editmine/pkg/observability"
	"github.com/Sumatoshi-tech/editmine/pkg/token"
)

// DefaultMaxTokens bounds each side of a comparison unless overridden.
const DefaultMaxTokens = 2000

// ErrTooManyTokens is returned when a snapshot exceeds the token limit.
var ErrTooManyTokens = errors.New("snapshot exceeds token limit")

// Detector compares snapshots of one language. It is safe for concurrent
// use.
type Detector struct {
	tokenizer *lang.Tokenizer
	logger    *slog.Logger
	tracer    trace.Tracer
	red       *observability.REDMetrics
	maxTokens int
	mode      classify.Mode
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) { d.logger = logger }
}

// WithTracer sets the tracer used for per-operation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Detector) { d.tracer = tracer }
}

// WithMetrics records every operation in red.
func WithMetrics(red *observability.REDMetrics) Option {
	return func(d *Detector) { d.red = red }
}

// WithMaxTokens sets the per-side limit on significant tokens.
func WithMaxTokens(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.maxTokens = n
		}
	}
}

// WithMode selects the diff set behind Result.Flags.
func WithMode(mode classify.Mode) Option {
	return func(d *Detector) { d.mode = mode }
}

// New creates a Detector for l.
func New(l lang.Language, opts ...Option) (*Detector, error) {
	d := &Detector{
		logger:    slog.New(slog.DiscardHandler),
		tracer:    nooptrace.NewTracerProvider().Tracer("detector"),
		maxTokens: DefaultMaxTokens,
		mode:      classify.ModeLCS,
	}

	for _, opt := range opts {
		opt(d)
	}

	tk, err := lang.NewTokenizer(l, lang.WithLogger(d.logger))
	if err != nil {
		return nil, fmt.Errorf("new detector: %w", err)
	}

	d.tokenizer = tk

	return d, nil
}

// Language returns the language of the detector.
func (d *Detector) Language() lang.Language {
	return d.tokenizer.Language()
}

// Tokenizer exposes the underlying tokenizer.
func (d *Detector) Tokenizer() *lang.Tokenizer {
	return d.tokenizer
}

// Mode returns the diff set selected for flags.
func (d *Detector) Mode() classify.Mode {
	return d.mode
}

// Result is the outcome of Compare.
type Result struct {
	Before     token.Sequence       `json:"before"`
	After      token.Sequence       `json:"after"`
	Comparison *classify.Comparison `json:"-"`
	Flags      classify.Flags       `json:"flags"`
	Records    []string             `json:"records,omitempty"`
}

// Tokenize returns the tokens of source. Oversized input fails with
// ErrTooManyTokens.
func (d *Detector) Tokenize(ctx context.Context, source string) (token.Sequence, error) {
	var seq token.Sequence

	err := d.run(ctx, "tokenize", func(ctx context.Context, span trace.Span) error {
		seq = d.tokenizer.Tokenize(ctx, source)
		span.SetAttributes(attribute.Int("editmine.tokens", len(seq)))

		return d.checkSize("source", seq)
	})

	return seq, err
}

// Compare tokenizes both snapshots and computes every diff set, the flags
// of the configured mode and the rendered change records.
func (d *Detector) Compare(ctx context.Context, before, after string) (*Result, error) {
	var res *Result

	err := d.run(ctx, "compare", func(ctx context.Context, span trace.Span) error {
		a, b, err := d.pair(ctx, before, after)
		if err != nil {
			return err
		}

		cmp := classify.Compare(a, b)
		records, _ := editscript.ChangeSet(a.Significant(), b.Significant())

		res = &Result{
			Before:     a,
			After:      b,
			Comparison: cmp,
			Flags:      cmp.Flags(d.mode),
			Records:    records,
		}

		span.SetAttributes(
			attribute.Bool("editmine.comparable", cmp.Comparable()),
			attribute.Int("editmine.not_lcs", len(cmp.NotLCS())),
		)

		return nil
	})

	return res, err
}

// Abstract tokenizes both snapshots and builds their edit template.
func (d *Detector) Abstract(ctx context.Context, before, after string) (abstraction.Pattern, error) {
	var p abstraction.Pattern

	err := d.run(ctx, "abstract", func(ctx context.Context, span trace.Span) error {
		a, b, err := d.pair(ctx, before, after)
		if err != nil {
			return err
		}

		p = abstraction.Abstract(a, b)
		span.SetAttributes(
			attribute.Int("editmine.placeholders", len(p.Placeholders)),
			attribute.Bool("editmine.rename", p.Rename),
		)

		return nil
	})

	return p, err
}

// Lines diffs the snapshots by line and aligns the changed runs.
func (d *Detector) Lines(ctx context.Context, before, after string) ([]linediff.Hunk, error) {
	var hunks []linediff.Hunk

	err := d.run(ctx, "lines", func(ctx context.Context, span trace.Span) error {
		if _, _, err := d.pair(ctx, before, after); err != nil {
			return err
		}

		hunks = linediff.Diff(ctx, d.tokenizer, before, after)
		span.SetAttributes(attribute.Int("editmine.hunks", len(hunks)))

		return nil
	})

	return hunks, err
}

func (d *Detector) pair(ctx context.Context, before, after string) (token.Sequence, token.Sequence, error) {
	a := d.tokenizer.Tokenize(ctx, before)
	if err := d.checkSize("before", a); err != nil {
		return nil, nil, err
	}

	b := d.tokenizer.Tokenize(ctx, after)
	if err := d.checkSize("after", b); err != nil {
		return nil, nil, err
	}

	return a, b, nil
}

func (d *Detector) checkSize(side string, seq token.Sequence) error {
	if n := len(seq.Significant()); n > d.maxTokens {
		return fmt.Errorf("%w: %s has %d tokens, limit %d", ErrTooManyTokens, side, n, d.maxTokens)
	}

	return nil
}

func (d *Detector) run(ctx context.Context, op string, fn func(context.Context, trace.Span) error) error {
	ctx, span := d.tracer.Start(ctx, "editmine."+op,
		trace.WithAttributes(attribute.String("editmine.language", d.Language().String())))
	defer span.End()

	done := d.red.Observe(ctx, op)

	err := fn(ctx, span)
	done(err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.logger.DebugContext(ctx, "operation rejected", slog.String("op", op), slog.Any("error", err))
	}

	return err
}
