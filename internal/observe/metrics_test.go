package observe_test

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/karienad/dental-insurance-ai-agent/internal/observe"
)

// newTestMetrics wires Metrics to a ManualReader so recorded values can be
// collected and inspected.
func newTestMetrics(t *testing.T) (*observe.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics() = %v", err)
	}
	return m, reader
}

// collect returns all metric instruments currently exported by reader,
// keyed by instrument name.
func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() = %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestRecordTurn(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordTurn(ctx, "verification", 0.42)
	m.RecordTurn(ctx, "verification", 0.08)
	m.RecordTurn(ctx, "patient_info", 0.15)

	got := collect(t, reader)

	turns, ok := got["verify.turns"].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("verify.turns missing or wrong data type: %T", got["verify.turns"].Data)
	}
	var total int64
	for _, dp := range turns.DataPoints {
		total += dp.Value
	}
	if total != 3 {
		t.Errorf("verify.turns total = %d, want 3", total)
	}
	if len(turns.DataPoints) != 2 {
		t.Errorf("verify.turns has %d phase series, want 2", len(turns.DataPoints))
	}

	hist, ok := got["verify.turn.duration"].Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("verify.turn.duration missing or wrong data type: %T", got["verify.turn.duration"].Data)
	}
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	if count != 3 {
		t.Errorf("verify.turn.duration count = %d, want 3", count)
	}
}

func TestSessionGauge(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.SessionStarted(ctx)
	m.SessionStarted(ctx)
	m.SessionEnded(ctx)

	got := collect(t, reader)
	sessions, ok := got["verify.active_sessions"].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("verify.active_sessions missing or wrong data type: %T", got["verify.active_sessions"].Data)
	}
	if len(sessions.DataPoints) != 1 {
		t.Fatalf("verify.active_sessions has %d data points, want 1", len(sessions.DataPoints))
	}
	if v := sessions.DataPoints[0].Value; v != 1 {
		t.Errorf("verify.active_sessions = %d, want 1", v)
	}
}

func TestOracleInstruments(t *testing.T) {
	t.Parallel()

	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordOracleDuration(ctx, "date", 0.9)
	m.RecordOracleError(ctx, "date")
	m.RecordExtraction(ctx, "date", "extracted")
	m.RecordCorrectionLookup(ctx, "corrected", 0.002)

	got := collect(t, reader)
	for _, name := range []string{
		"verify.oracle.duration",
		"verify.oracle.errors",
		"verify.extractions",
		"verify.correction.lookups",
		"verify.correction.duration",
	} {
		if _, ok := got[name]; !ok {
			t.Errorf("instrument %q recorded nothing", name)
		}
	}
}

func TestDefaultMetricsIsSingleton(t *testing.T) {
	t.Parallel()

	if observe.DefaultMetrics() != observe.DefaultMetrics() {
		t.Error("DefaultMetrics() returned different instances")
	}
}
