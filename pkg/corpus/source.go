package corpus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Sumatoshi-tech/editmine/pkg/lang"
)

// Pair is one changed hunk of a corpus file.
type Pair struct {
	Row Row
	Hunk
}

// Stats counts what happened to the rows of one pass.
type Stats struct {
	Rows        int `json:"rows"`
	Filtered    int `json:"filtered"`
	Missing     int `json:"missing"`
	Invalid     int `json:"invalid"`
	NotModified int `json:"not_modified"`
	Elided      int `json:"elided"`
	Pairs       int `json:"pairs"`
}

// Source walks a corpus index and yields the pairs of one language.
type Source struct {
	language lang.Language
	resolver *Resolver
	logger   *slog.Logger
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithSourceLogger sets the logger.
func WithSourceLogger(logger *slog.Logger) SourceOption {
	return func(s *Source) { s.logger = logger }
}

// NewSource creates a source yielding pairs of files in language l.
func NewSource(l lang.Language, resolver *Resolver, opts ...SourceOption) *Source {
	s := &Source{
		language: l,
		resolver: resolver,
		logger:   slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Iterate reads the index from r and calls fn for every pair in order.
// Rows of other languages, unresolvable rows and unusable documents are
// counted and skipped. Iteration stops at the first error from fn or when
// ctx is done.
func (s *Source) Iterate(ctx context.Context, r io.Reader, fn func(Pair) error) (Stats, error) {
	var stats Stats

	rows, err := NewRowReader(r)
	if err != nil {
		return stats, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		row, err := rows.Next()
		if errors.Is(err, io.EOF) {
			return stats, nil
		}

		if err != nil {
			return stats, err
		}

		stats.Rows++

		hunks, ok := s.hunks(row, &stats)
		if !ok {
			continue
		}

		for _, h := range hunks {
			stats.Pairs++

			if err := fn(Pair{Row: row, Hunk: h}); err != nil {
				return stats, err
			}
		}
	}
}

// IterateFile is Iterate over the index file at path.
func (s *Source) IterateFile(ctx context.Context, path string, fn func(Pair) error) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("open index: %w", err)
	}
	defer f.Close()

	return s.Iterate(ctx, f, fn)
}

func (s *Source) hunks(row Row, stats *Stats) ([]Hunk, bool) {
	if l, err := lang.Detect(row.FileName, nil); err != nil || l != s.language {
		stats.Filtered++

		return nil, false
	}

	path, ok := s.resolver.Resolve(row)
	if !ok {
		stats.Missing++

		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		stats.Missing++
		s.logger.Warn("read revision document", slog.String("path", path), slog.Any("error", err))

		return nil, false
	}

	doc, err := ParseDocument(data)
	if err != nil {
		stats.Invalid++
		s.logger.Debug("skip revision document", slog.String("path", path), slog.Any("error", err))

		return nil, false
	}

	if !doc.Modified() {
		stats.NotModified++

		return nil, false
	}

	if doc.Elided() {
		stats.Elided++

		return nil, false
	}

	return doc.Hunks(), true
}
