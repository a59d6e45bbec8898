package detector_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/editmine/pkg/classify"
	"github.com/Sumatoshi-tech/editmine/pkg/detector"
	"github.com/Sumatoshi-tech/editmine/pkg/editscript"
	"github.com/Sumatoshi-tech/editmine/pkg/lang"
)

func newDetector(t *testing.T, opts ...detector.Option) *detector.Detector {
	t.Helper()

	d, err := detector.New(lang.Python, opts...)
	require.NoError(t, err)

	return d
}

func TestCompare(t *testing.T) {
	t.Parallel()

	res, err := newDetector(t).Compare(context.Background(), "foo = 0", "bar += 1")
	require.NoError(t, err)

	assert.True(t, res.Flags.Comparable)
	assert.True(t, res.Flags.NameChange)
	assert.True(t, res.Flags.NumberChange)
	assert.True(t, res.Flags.OperatorChange)
	assert.Equal(t, 6, res.Flags.NotLCS)
	assert.Equal(t, []string{"* foo = 0 --> bar += 1"}, res.Records)
}

func TestCompare_ModeSelectsFlags(t *testing.T) {
	t.Parallel()

	d := newDetector(t, detector.WithMode(classify.ModeMultiset))

	res, err := d.Compare(context.Background(), "if a > b:", "if b > a:")
	require.NoError(t, err)

	assert.Equal(t, classify.ModeMultiset, res.Flags.Mode)
	assert.False(t, res.Flags.NameChange)
	assert.True(t, res.Comparison.IsNameChange(classify.ModeLCS))
}

func TestCompare_EmptySideIsNotComparable(t *testing.T) {
	t.Parallel()

	res, err := newDetector(t).Compare(context.Background(), "", "x = 1")
	require.NoError(t, err)

	assert.False(t, res.Flags.Comparable)
	assert.Empty(t, res.Records)
}

func TestCompare_TooManyTokens(t *testing.T) {
	t.Parallel()

	d := newDetector(t, detector.WithMaxTokens(3))

	_, err := d.Compare(context.Background(), "a = 1", "a = 1 + 2")
	require.ErrorIs(t, err, detector.ErrTooManyTokens)
	assert.Contains(t, err.Error(), "after")

	_, err = d.Tokenize(context.Background(), "x = y + z")
	require.ErrorIs(t, err, detector.ErrTooManyTokens)
}

func TestAbstract(t *testing.T) {
	t.Parallel()

	p, err := newDetector(t).Abstract(context.Background(), "foo = 1", "bar = 1")
	require.NoError(t, err)

	assert.True(t, p.Rename)
	assert.Equal(t, []string{"foo"}, p.Condition)
	assert.Equal(t, []string{"bar"}, p.Consequent)
}

func TestLines(t *testing.T) {
	t.Parallel()

	hunks, err := newDetector(t).Lines(context.Background(), "a = 1\nb = 2\n", "a = 1\nb = 3\n")
	require.NoError(t, err)

	require.Len(t, hunks, 2)
	assert.Equal(t, editscript.Replace, hunks[1].Kind)
}

func TestDetector_RecordsSpans(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { require.NoError(t, tp.Shutdown(context.Background())) })

	d := newDetector(t, detector.WithTracer(tp.Tracer("test")), detector.WithMaxTokens(2))

	_, err := d.Compare(context.Background(), "x", "y")
	require.NoError(t, err)

	_, err = d.Abstract(context.Background(), "x = 1", "y")
	require.Error(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "editmine.compare", spans[0].Name)
	assert.Equal(t, "editmine.abstract", spans[1].Name)
	assert.True(t, strings.Contains(spans[1].Status.Description, "token limit"))
}

func TestNew_UnsupportedLanguage(t *testing.T) {
	t.Parallel()

	_, err := detector.New(lang.Language(42))
	require.ErrorIs(t, err, lang.ErrUnsupportedLanguage)
}

func TestRegistry_ReusesDetectors(t *testing.T) {
	t.Parallel()

	reg := detector.NewRegistry(detector.WithMaxTokens(5))

	py, err := reg.Lookup("py")
	require.NoError(t, err)
	assert.Equal(t, lang.Python, py.Language())

	again, err := reg.For(lang.Python)
	require.NoError(t, err)
	assert.Same(t, py, again)

	java, err := reg.Lookup("Java")
	require.NoError(t, err)
	assert.NotSame(t, py, java)

	_, err = py.Tokenize(context.Background(), "a = b + c + d")
	require.ErrorIs(t, err, detector.ErrTooManyTokens)
}

func TestRegistry_UnknownLanguage(t *testing.T) {
	t.Parallel()

	_, err := detector.NewRegistry().Lookup("cobol")
	assert.ErrorIs(t, err, lang.ErrUnsupportedLanguage)
}
