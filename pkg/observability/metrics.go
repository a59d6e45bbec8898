package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricRequestsTotal    = "editmine.requests.total"
	metricRequestDuration  = "editmine.request.duration.seconds"
	metricErrorsTotal      = "editmine.errors.total"
	metricInflightRequests = "editmine.inflight.requests"
	metricPairsTotal       = "editmine.pairs.total"
	metricPairTokens       = "editmine.pair.tokens"
	metricRecordsWritten   = "editmine.records.written.total"

	attrOp      = "op"
	attrStatus  = "status"
	attrOutcome = "outcome"

	// StatusOK marks a successful request.
	StatusOK = "ok"
	// StatusError marks a failed request.
	StatusError = "error"
)

// durationBuckets covers sub-millisecond comparisons up to whole corpus runs.
var durationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120, 600}

var tokenBuckets = []float64{8, 16, 32, 64, 128, 256, 512, 1024, 2048, 4096}

// REDMetrics holds the rate, error and duration instruments shared by the
// CLI, the MCP tools and the HTTP API.
type REDMetrics struct {
	requestsTotal    metric.Int64Counter
	requestDuration  metric.Float64Histogram
	errorsTotal      metric.Int64Counter
	inflightRequests metric.Int64UpDownCounter
}

// NewREDMetrics creates the RED instruments on mt.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	reqTotal, err := mt.Int64Counter(metricRequestsTotal,
		metric.WithDescription("Total number of requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestsTotal, err)
	}

	reqDuration, err := mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestDuration, err)
	}

	errTotal, err := mt.Int64Counter(metricErrorsTotal,
		metric.WithDescription("Total number of failed requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricErrorsTotal, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflightRequests,
		metric.WithDescription("Number of in-flight requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflightRequests, err)
	}

	return &REDMetrics{
		requestsTotal:    reqTotal,
		requestDuration:  reqDuration,
		errorsTotal:      errTotal,
		inflightRequests: inflight,
	}, nil
}

// RecordRequest records one finished request.
func (rm *REDMetrics) RecordRequest(ctx context.Context, op, status string, duration time.Duration) {
	if rm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrOp, op), attribute.String(attrStatus, status))

	rm.requestsTotal.Add(ctx, 1, attrs)
	rm.requestDuration.Record(ctx, duration.Seconds(), attrs)

	if status == StatusError {
		rm.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOp, op)))
	}
}

// TrackInflight increments the in-flight gauge and returns its decrement.
func (rm *REDMetrics) TrackInflight(ctx context.Context, op string) func() {
	if rm == nil {
		return func() {}
	}

	attrs := metric.WithAttributes(attribute.String(attrOp, op))
	rm.inflightRequests.Add(ctx, 1, attrs)

	return func() { rm.inflightRequests.Add(ctx, -1, attrs) }
}

// Observe starts timing op. The returned function records the request with
// a status derived from err.
func (rm *REDMetrics) Observe(ctx context.Context, op string) func(err error) {
	start := time.Now()
	done := rm.TrackInflight(ctx, op)

	return func(err error) {
		done()

		status := StatusOK
		if err != nil {
			status = StatusError
		}

		rm.RecordRequest(ctx, op, status, time.Since(start))
	}
}

// MiningMetrics holds the instruments of corpus runs and comparisons.
type MiningMetrics struct {
	pairsTotal     metric.Int64Counter
	pairTokens     metric.Int64Histogram
	recordsWritten metric.Int64Counter
}

// NewMiningMetrics creates the mining instruments on mt.
func NewMiningMetrics(mt metric.Meter) (*MiningMetrics, error) {
	pairs, err := mt.Int64Counter(metricPairsTotal,
		metric.WithDescription("Before/after pairs seen, by outcome"),
		metric.WithUnit("{pair}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPairsTotal, err)
	}

	tokens, err := mt.Int64Histogram(metricPairTokens,
		metric.WithDescription("Significant tokens per compared pair"),
		metric.WithUnit("{token}"),
		metric.WithExplicitBucketBoundaries(tokenBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPairTokens, err)
	}

	written, err := mt.Int64Counter(metricRecordsWritten,
		metric.WithDescription("Output records written"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRecordsWritten, err)
	}

	return &MiningMetrics{pairsTotal: pairs, pairTokens: tokens, recordsWritten: written}, nil
}

// RecordPair counts one pair with its outcome and token count. Safe on a
// nil receiver.
func (mm *MiningMetrics) RecordPair(ctx context.Context, outcome string, tokens int) {
	if mm == nil {
		return
	}

	mm.pairsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))

	if tokens > 0 {
		mm.pairTokens.Record(ctx, int64(tokens))
	}
}

// RecordWritten counts flushed output records. Safe on a nil receiver.
func (mm *MiningMetrics) RecordWritten(ctx context.Context, n int) {
	if mm == nil || n <= 0 {
		return
	}

	mm.recordsWritten.Add(ctx, int64(n))
}
