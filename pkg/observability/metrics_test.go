package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/editmine/pkg/observability"
)

func newReader(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()

	reader := sdkmetric.NewManualReader()

	return reader, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumOf(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()

	require.NotNil(t, m)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestREDMetrics_RecordRequest(t *testing.T) {
	t.Parallel()

	reader, mp := newReader(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	red.RecordRequest(context.Background(), "compare", observability.StatusOK, 100*time.Millisecond)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "editmine.requests.total")))
	assert.NotNil(t, findMetric(rm, "editmine.request.duration.seconds"))
	assert.Nil(t, findMetric(rm, "editmine.errors.total"))
}

func TestREDMetrics_ObserveError(t *testing.T) {
	t.Parallel()

	reader, mp := newReader(t)

	red, err := observability.NewREDMetrics(mp.Meter("test"))
	require.NoError(t, err)

	done := red.Observe(context.Background(), "abstract")
	done(errors.New("boom"))

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(1), sumOf(t, findMetric(rm, "editmine.errors.total")))
	assert.Equal(t, int64(0), sumOf(t, findMetric(rm, "editmine.inflight.requests")))
}

func TestREDMetrics_NilReceiver(t *testing.T) {
	t.Parallel()

	var red *observability.REDMetrics

	assert.NotPanics(t, func() {
		red.RecordRequest(context.Background(), "x", observability.StatusOK, time.Second)
		red.Observe(context.Background(), "x")(nil)
	})
}

func TestMiningMetrics(t *testing.T) {
	t.Parallel()

	reader, mp := newReader(t)

	mm, err := observability.NewMiningMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	mm.RecordPair(ctx, "kept", 40)
	mm.RecordPair(ctx, "too_large", 0)
	mm.RecordWritten(ctx, 2)
	mm.RecordWritten(ctx, 0)

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), sumOf(t, findMetric(rm, "editmine.pairs.total")))
	assert.Equal(t, int64(2), sumOf(t, findMetric(rm, "editmine.records.written.total")))
	assert.NotNil(t, findMetric(rm, "editmine.pair.tokens"))

	var nilMetrics *observability.MiningMetrics
	assert.NotPanics(t, func() { nilMetrics.RecordPair(ctx, "kept", 1) })
}
