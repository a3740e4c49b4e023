// Package observe provides observability primitives for the verification
// agent: OpenTelemetry metrics with a Prometheus exporter bridge so the
// /metrics endpoint can be scraped as usual.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/karienad/dental-insurance-ai-agent"

// Metrics holds all OpenTelemetry metric instruments for the agent.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// TurnDuration tracks end-to-end processing time of one dialogue turn.
	TurnDuration metric.Float64Histogram

	// OracleDuration tracks extraction-oracle (LLM) call latency.
	OracleDuration metric.Float64Histogram

	// CorrectionDuration tracks correction-index lookup latency.
	CorrectionDuration metric.Float64Histogram

	// Turns counts processed turns. Use with attribute:
	//   attribute.String("phase", ...)
	Turns metric.Int64Counter

	// Extractions counts field extraction attempts. Use with attributes:
	//   attribute.String("kind", ...), attribute.String("status", ...)
	Extractions metric.Int64Counter

	// CorrectionLookups counts correction-index lookups. Use with attribute:
	//   attribute.String("outcome", ...) with values "corrected", "rejected",
	//   "low_confidence", "empty", or "error"
	CorrectionLookups metric.Int64Counter

	// OracleErrors counts failed oracle calls by prompt kind.
	OracleErrors metric.Int64Counter

	// ActiveSessions tracks the number of live verification sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// LLM-backed dialogue turns.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TurnDuration, err = m.Float64Histogram("verify.turn.duration",
		metric.WithDescription("End-to-end latency of one dialogue turn."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.OracleDuration, err = m.Float64Histogram("verify.oracle.duration",
		metric.WithDescription("Latency of semantic extraction oracle calls."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.CorrectionDuration, err = m.Float64Histogram("verify.correction.duration",
		metric.WithDescription("Latency of correction-index lookups."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.Turns, err = m.Int64Counter("verify.turns",
		metric.WithDescription("Total processed dialogue turns by phase."),
	); err != nil {
		return nil, err
	}
	if met.Extractions, err = m.Int64Counter("verify.extractions",
		metric.WithDescription("Total field extraction attempts by value kind and status."),
	); err != nil {
		return nil, err
	}
	if met.CorrectionLookups, err = m.Int64Counter("verify.correction.lookups",
		metric.WithDescription("Total correction-index lookups by outcome."),
	); err != nil {
		return nil, err
	}
	if met.OracleErrors, err = m.Int64Counter("verify.oracle.errors",
		metric.WithDescription("Total failed oracle calls by prompt kind."),
	); err != nil {
		return nil, err
	}

	if met.ActiveSessions, err = m.Int64UpDownCounter("verify.active_sessions",
		metric.WithDescription("Number of live verification sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Panics if instrument creation
// fails (should not happen with the global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordTurn records one processed turn in the given dialogue phase.
func (m *Metrics) RecordTurn(ctx context.Context, phase string, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("phase", phase))
	m.Turns.Add(ctx, 1, attrs)
	m.TurnDuration.Record(ctx, seconds, attrs)
}

// RecordExtraction records a field extraction attempt with its outcome.
func (m *Metrics) RecordExtraction(ctx context.Context, kind, status string) {
	m.Extractions.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordCorrectionLookup records a correction-index lookup outcome.
func (m *Metrics) RecordCorrectionLookup(ctx context.Context, outcome string, seconds float64) {
	m.CorrectionLookups.Add(ctx, 1,
		metric.WithAttributes(attribute.String("outcome", outcome)))
	m.CorrectionDuration.Record(ctx, seconds)
}

// SessionStarted increments the live-session gauge.
func (m *Metrics) SessionStarted(ctx context.Context) {
	m.ActiveSessions.Add(ctx, 1)
}

// SessionEnded decrements the live-session gauge.
func (m *Metrics) SessionEnded(ctx context.Context) {
	m.ActiveSessions.Add(ctx, -1)
}

// RecordOracleDuration records the latency of one oracle call.
func (m *Metrics) RecordOracleDuration(ctx context.Context, promptKind string, seconds float64) {
	m.OracleDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("prompt_kind", promptKind)))
}

// RecordOracleError records a failed oracle call.
func (m *Metrics) RecordOracleError(ctx context.Context, promptKind string) {
	m.OracleErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("prompt_kind", promptKind)))
}
