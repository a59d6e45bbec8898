// Package miner runs a corpus through the detector: it reads the index,
// tokenizes every changed hunk, optionally classifies and abstracts it, and
// writes the resulting records in numbered batches.
package miner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/editmine/pkg/abstraction"
	"github.com/Sumatoshi-tech/editmine/pkg/changeset"
	"github.com/Sumatoshi-tech/editmine/pkg/classify"
	"github.com/Sumatoshi-tech/editmine/pkg/config"
	"github.com/Sumatoshi-tech/editmine/pkg/corpus"
	"github.com/Sumatoshi-tech/editmine/pkg/detector"
	"github.com/Sumatoshi-tech/editmine/pkg/observability"
	"github.com/Sumatoshi-tech/editmine/pkg/output"
	"github.com/Sumatoshi-tech/editmine/pkg/safeconv"
)

// Pair outcomes recorded in metrics.
const (
	OutcomeMined    = "mined"
	OutcomeRejected = "rejected"
)

// Summary describes a finished run.
type Summary struct {
	corpus.Stats

	Mined    int           `json:"mined"`
	Rejected int           `json:"rejected"`
	Files    []string      `json:"files"`
	Bytes    uint64        `json:"bytes"`
	Elapsed  time.Duration `json:"elapsed"`
}

// String renders the summary for humans.
func (s *Summary) String() string {
	return fmt.Sprintf("mined %s pairs (%s rejected) from %s rows into %d files (%s) in %s",
		humanize.Comma(int64(s.Mined)),
		humanize.Comma(int64(s.Rejected)),
		humanize.Comma(int64(s.Rows)),
		len(s.Files),
		humanize.Bytes(s.Bytes),
		s.Elapsed.Round(time.Millisecond),
	)
}

// Miner mines one corpus configuration.
type Miner struct {
	cfg      *config.Config
	detector *detector.Detector
	source   *corpus.Source
	logger   *slog.Logger
	tracer   trace.Tracer
	red      *observability.REDMetrics
	metrics  *observability.MiningMetrics
	workers  int
}

// Option configures a Miner.
type Option func(*Miner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Miner) { m.logger = logger }
}

// WithTracer sets the tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Miner) { m.tracer = tracer }
}

// WithMetrics records pairs and written records on mm and detector
// operations on red. Either may be nil.
func WithMetrics(red *observability.REDMetrics, mm *observability.MiningMetrics) Option {
	return func(m *Miner) {
		m.red = red
		m.metrics = mm
	}
}

// New builds a miner from cfg.
func New(cfg *config.Config, opts ...Option) (*Miner, error) {
	m := &Miner{
		cfg:    cfg,
		logger: slog.New(slog.DiscardHandler),
		tracer: nooptrace.NewTracerProvider().Tracer("miner"),
	}

	for _, opt := range opts {
		opt(m)
	}

	l, err := cfg.ParsedLanguage()
	if err != nil {
		return nil, err
	}

	mode, err := cfg.ParsedMode()
	if err != nil {
		return nil, err
	}

	m.detector, err = detector.New(l,
		detector.WithLogger(m.logger),
		detector.WithTracer(m.tracer),
		detector.WithMetrics(m.red),
		detector.WithMaxTokens(cfg.Limits.MaxTokens),
		detector.WithMode(mode),
	)
	if err != nil {
		return nil, err
	}

	resolver, err := corpus.NewResolver(cfg.RevisionDirs, cfg.Cache.RevisionEntries)
	if err != nil {
		return nil, err
	}

	m.source = corpus.NewSource(l, resolver, corpus.WithSourceLogger(m.logger))

	m.workers = cfg.Mine.Workers
	if m.workers == 0 {
		m.workers = runtime.GOMAXPROCS(0)
	}

	return m, nil
}

// Run mines the corpus index at indexPath. Records get sequential ids
// starting at 1 in index order; pairs over the token limit are dropped.
func (m *Miner) Run(ctx context.Context, indexPath string) (*Summary, error) {
	start := time.Now()

	ctx, span := m.tracer.Start(ctx, "editmine.mine", trace.WithAttributes(
		attribute.String("editmine.index", indexPath),
		attribute.String("editmine.language", m.detector.Language().String()),
	))
	defer span.End()

	summary, err := m.run(ctx, indexPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return summary, err
	}

	summary.Elapsed = time.Since(start)
	span.SetAttributes(
		attribute.Int("editmine.mined", summary.Mined),
		attribute.Int("editmine.rejected", summary.Rejected),
	)
	m.logger.InfoContext(ctx, "mining finished",
		slog.Int("rows", summary.Rows),
		slog.Int("mined", summary.Mined),
		slog.Int("rejected", summary.Rejected),
		slog.Int("files", len(summary.Files)),
		slog.Duration("elapsed", summary.Elapsed),
	)

	return summary, nil
}

func (m *Miner) run(ctx context.Context, indexPath string) (*Summary, error) {
	out := m.cfg.Output

	writer, err := output.NewBatchWriter[changeset.Record](out.Dir, out.Prefix, out.BatchSize,
		output.CodecFor(out.Compress), output.WithMetrics(m.metrics))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		summary Summary
		srcErr  error
	)

	pairs := make(chan corpus.Pair, m.workers)
	produced := make(chan struct{})

	go func() {
		defer close(produced)
		defer close(pairs)

		summary.Stats, srcErr = m.source.IterateFile(ctx, indexPath, func(p corpus.Pair) error {
			select {
			case pairs <- p:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	var writeErr error

	for s := range newPipeline(m.workers, m.build).process(ctx, pairs) {
		if writeErr != nil {
			continue
		}

		if s.err != nil {
			summary.Rejected++
			m.metrics.RecordPair(ctx, OutcomeRejected, 0)
			m.logger.DebugContext(ctx, "pair rejected",
				slog.String("ch_id", s.pair.Row.ChangeID),
				slog.String("file", s.pair.Row.FileName),
				slog.Int("line", s.pair.Line),
				slog.Any("error", s.err),
			)

			continue
		}

		summary.Mined++
		s.record.ID = strconv.Itoa(summary.Mined)

		writeErr = writer.Write(ctx, s.record)
		if writeErr != nil {
			cancel()
		}
	}

	<-produced

	if writeErr != nil {
		return &summary, fmt.Errorf("write records: %w", writeErr)
	}

	if srcErr != nil {
		return &summary, fmt.Errorf("read corpus: %w", srcErr)
	}

	if err := writer.Close(ctx); err != nil {
		return &summary, fmt.Errorf("write records: %w", err)
	}

	summary.Files = writer.Files()
	summary.Bytes = totalSize(summary.Files)

	return &summary, nil
}

func (m *Miner) build(ctx context.Context, p corpus.Pair) (changeset.Record, error) {
	a, err := m.detector.Tokenize(ctx, p.Before)
	if err != nil {
		return changeset.Record{}, err
	}

	b, err := m.detector.Tokenize(ctx, p.After)
	if err != nil {
		return changeset.Record{}, err
	}

	rec := changeset.Record{
		ChangeID:         p.Row.ChangeID,
		ChangeKey:        p.Row.ChangeKey,
		AuthorAccountID:  p.Row.AuthorAccountID,
		RevisionChangeID: p.Row.RevisionChangeID,
		FileName:         p.Row.FileName,
		ChangeSet:        changeset.New(p.Before, p.After, a, b),
	}

	if m.cfg.Mine.Classify {
		flags := classify.Compare(a, b).Flags(m.detector.Mode())
		rec.Flags = &flags
	}

	if m.cfg.Mine.Abstract {
		pattern := abstraction.Abstract(a, b)
		rec.Pattern = &pattern
	}

	m.metrics.RecordPair(ctx, OutcomeMined, len(a.Significant())+len(b.Significant()))

	return rec, nil
}

func totalSize(files []string) uint64 {
	var n uint64

	for _, f := range files {
		if info, err := os.Stat(f); err == nil {
			n += safeconv.MustInt64ToUint64(info.Size())
		}
	}

	return n
}
