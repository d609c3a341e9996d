package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Surfaces a request can arrive on.
const (
	SurfaceHTTP = "http"
	SurfaceMCP  = "mcp"
)

// Request outcomes.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

const (
	metricRequests        = "dendrotime.requests.total"
	metricRequestDuration = "dendrotime.request.duration.seconds"
	metricInflight        = "dendrotime.inflight.requests"
)

// requestBuckets spans cached view reads up to full report renders.
var requestBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Request is one finished dashboard or tool request.
type Request struct {
	Surface  string
	Op       string
	Status   string
	Duration time.Duration
}

func (r Request) attributes() metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("surface", r.Surface),
		attribute.String("op", r.Op),
		attribute.String("status", r.Status),
	)
}

// REDMetrics counts requests per surface and operation. Errors are the
// requests recorded with StatusError.
type REDMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	inflight metric.Int64UpDownCounter
}

// NewREDMetrics creates the request instruments on mt.
func NewREDMetrics(mt metric.Meter) (*REDMetrics, error) {
	requests, err := mt.Int64Counter(metricRequests,
		metric.WithDescription("Requests served, by surface, operation and status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequests, err)
	}

	duration, err := mt.Float64Histogram(metricRequestDuration,
		metric.WithDescription("Time to serve a request"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(requestBuckets...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricRequestDuration, err)
	}

	inflight, err := mt.Int64UpDownCounter(metricInflight,
		metric.WithDescription("Requests being served, by surface"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricInflight, err)
	}

	return &REDMetrics{requests: requests, duration: duration, inflight: inflight}, nil
}

// RecordRequest records a finished request.
func (rm *REDMetrics) RecordRequest(ctx context.Context, req Request) {
	attrs := req.attributes()

	rm.requests.Add(ctx, 1, attrs)
	rm.duration.Record(ctx, req.Duration.Seconds(), attrs)
}

// TrackInflight counts a request on surface as in flight until the returned
// func is called.
func (rm *REDMetrics) TrackInflight(ctx context.Context, surface string) func() {
	attrs := metric.WithAttributes(attribute.String("surface", surface))
	rm.inflight.Add(ctx, 1, attrs)

	return func() {
		rm.inflight.Add(ctx, -1, attrs)
	}
}
