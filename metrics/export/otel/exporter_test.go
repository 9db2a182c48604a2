package otel

import (
	"context"
	"testing"

	autologin "github.com/elgranjm3000/controlagenda-sub000"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	snapshot autologin.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() autologin.MetricsSnapshot { return f.snapshot }
func (f *fakeSource) AuditDropped() uint64                       { return f.dropped }

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	values := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] = dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					values[m.Name] = dp.Value
				}
			}
		}
	}
	return values
}

func TestExporterObservesCountersOnCollect(t *testing.T) {
	source := &fakeSource{
		snapshot: autologin.MetricsSnapshot{
			Counters: map[autologin.MetricID]uint64{
				autologin.MetricReconcileStarted:    4,
				autologin.MetricReconcileSuccess:    3,
				autologin.MetricDuplicateSuppressed: 1,
			},
			Histograms: map[autologin.MetricID][]uint64{
				autologin.MetricReconcileLatency: {2, 1, 0, 0, 0, 0, 0, 0},
			},
		},
		dropped: 9,
	}

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	exporter, err := NewOTelExporterFromSource(provider.Meter("test"), source)
	if err != nil {
		t.Fatalf("exporter: %v", err)
	}
	defer func() { _ = exporter.Close() }()

	values := collect(t, reader)

	if got := values["autologin_reconcile_started_total"]; got != 4 {
		t.Fatalf("started = %d, want 4", got)
	}
	if got := values["autologin_duplicate_suppressed_total"]; got != 1 {
		t.Fatalf("suppressed = %d, want 1", got)
	}
	if got := values["autologin_audit_dropped_total"]; got != 9 {
		t.Fatalf("dropped = %d, want 9", got)
	}

	// Histogram gauges are cumulative.
	if got := values["autologin_reconcile_latency_seconds_bucket_le_0_005"]; got != 2 {
		t.Fatalf("first bucket = %d, want 2", got)
	}
	if got := values["autologin_reconcile_latency_seconds_bucket_le_inf"]; got != 3 {
		t.Fatalf("inf bucket = %d, want 3", got)
	}
	if got := values["autologin_reconcile_latency_seconds_count"]; got != 3 {
		t.Fatalf("count = %d, want 3", got)
	}
}

func TestExporterTracksLiveSource(t *testing.T) {
	source := &fakeSource{
		snapshot: autologin.MetricsSnapshot{
			Counters:   map[autologin.MetricID]uint64{autologin.MetricReconcileStarted: 1},
			Histograms: map[autologin.MetricID][]uint64{},
		},
	}

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	exporter, err := NewOTelExporterFromSource(provider.Meter("test"), source)
	if err != nil {
		t.Fatalf("exporter: %v", err)
	}
	defer func() { _ = exporter.Close() }()

	if got := collect(t, reader)["autologin_reconcile_started_total"]; got != 1 {
		t.Fatalf("first collect = %d, want 1", got)
	}

	source.snapshot.Counters[autologin.MetricReconcileStarted] = 6
	if got := collect(t, reader)["autologin_reconcile_started_total"]; got != 6 {
		t.Fatalf("second collect = %d, want 6", got)
	}
}

func TestExporterNilGuards(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	if _, err := NewOTelExporterFromSource(nil, &fakeSource{}); err != ErrNilMeter {
		t.Fatalf("expected ErrNilMeter, got %v", err)
	}
	if _, err := NewOTelExporterFromSource(provider.Meter("test"), nil); err != ErrNilSource {
		t.Fatalf("expected ErrNilSource, got %v", err)
	}

	var exporter *OTelExporter
	if err := exporter.Close(); err != nil {
		t.Fatalf("nil exporter close: %v", err)
	}
}
