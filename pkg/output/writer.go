package output

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Sumatoshi-tech/editmine/pkg/observability"
)

// DefaultBatchSize is the number of records per file used when none is given.
const DefaultBatchSize = 1000

// ErrClosed is returned when writing to a closed BatchWriter.
var ErrClosed = errors.New("batch writer closed")

// BatchWriter buffers items and writes them in batches of a fixed size to
// <dir>/<prefix>_<n><ext>, numbering files from 0. It is not safe for
// concurrent use.
type BatchWriter[T any] struct {
	dir     string
	prefix  string
	size    int
	codec   Codec
	metrics *observability.MiningMetrics

	batch   []T
	files   []string
	written int
	closed  bool
}

// Option configures a BatchWriter.
type Option func(*settings)

type settings struct {
	metrics *observability.MiningMetrics
}

// WithMetrics counts written records on mm.
func WithMetrics(mm *observability.MiningMetrics) Option {
	return func(s *settings) { s.metrics = mm }
}

// NewBatchWriter creates dir if needed and returns a writer for it.
func NewBatchWriter[T any](dir, prefix string, size int, codec Codec, opts ...Option) (*BatchWriter[T], error) {
	if size <= 0 {
		size = DefaultBatchSize
	}

	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	err := os.MkdirAll(dir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	return &BatchWriter[T]{
		dir:     dir,
		prefix:  prefix,
		size:    size,
		codec:   codec,
		metrics: s.metrics,
		batch:   make([]T, 0, size),
	}, nil
}

// Write buffers item and flushes the batch once it is full.
func (w *BatchWriter[T]) Write(ctx context.Context, item T) error {
	if w.closed {
		return ErrClosed
	}

	w.batch = append(w.batch, item)
	if len(w.batch) < w.size {
		return nil
	}

	return w.flush(ctx)
}

// Close flushes the final partial batch. Closing twice is a no-op.
func (w *BatchWriter[T]) Close(ctx context.Context) error {
	if w.closed {
		return nil
	}

	w.closed = true

	if len(w.batch) == 0 {
		return nil
	}

	return w.flush(ctx)
}

// Files returns the paths written so far, in order.
func (w *BatchWriter[T]) Files() []string {
	return w.files
}

// Written returns the number of items flushed to disk.
func (w *BatchWriter[T]) Written() int {
	return w.written
}

func (w *BatchWriter[T]) flush(ctx context.Context) error {
	name := w.prefix + "_" + strconv.Itoa(len(w.files)) + w.codec.Extension()
	path := filepath.Join(w.dir, name)

	err := saveFile(path, w.codec, w.batch)
	if err != nil {
		return err
	}

	n := len(w.batch)
	w.files = append(w.files, path)
	w.written += n
	w.batch = w.batch[:0]
	w.metrics.RecordWritten(ctx, n)

	return nil
}

func saveFile(path string, codec Codec, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create batch file: %w", err)
	}

	err = codec.Encode(file, v)
	if err != nil {
		file.Close()

		return fmt.Errorf("encode batch: %w", err)
	}

	err = file.Close()
	if err != nil {
		return fmt.Errorf("close batch file: %w", err)
	}

	return nil
}

// LoadFile decodes the batch at path into v.
func LoadFile(path string, codec Codec, v any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open batch file: %w", err)
	}
	defer file.Close()

	err = codec.Decode(file, v)
	if err != nil {
		return fmt.Errorf("decode batch: %w", err)
	}

	return nil
}
