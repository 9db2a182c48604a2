package autologin

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsIncAndValue(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricReconcileStarted)
	m.Inc(MetricReconcileStarted)
	m.Inc(MetricSessionSaved)

	if got := m.Value(MetricReconcileStarted); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
	if got := m.Value(MetricSessionSaved); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}
	if got := m.Value(MetricLogout); got != 0 {
		t.Fatalf("untouched counter must be 0, got %d", got)
	}
}

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricReconcileStarted)
	m.Observe(MetricReconcileLatency, time.Millisecond)

	if got := m.Value(MetricReconcileStarted); got != 0 {
		t.Fatalf("disabled metrics must not count, got %d", got)
	}
	snap := m.Snapshot()
	if len(snap.Counters) != 0 || len(snap.Histograms) != 0 {
		t.Fatalf("disabled snapshot must be empty, got %+v", snap)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricReconcileStarted)
	m.Observe(MetricReconcileLatency, time.Millisecond)
	if m.Value(MetricReconcileStarted) != 0 {
		t.Fatalf("nil metrics Value must be 0")
	}
	if m.Enabled() || m.LatencyEnabled() {
		t.Fatalf("nil metrics must report disabled")
	}
}

func TestMetricsOutOfRangeID(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(metricIDCount)
	m.Inc(metricIDCount + 100)
	if got := m.Value(metricIDCount); got != 0 {
		t.Fatalf("out-of-range id must be ignored, got %d", got)
	}
}

func TestObserveOnlyLatencyMetric(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricSessionSaved, time.Millisecond)
	m.Observe(MetricReconcileLatency, time.Millisecond)

	snap := m.Snapshot()
	buckets, ok := snap.Histograms[MetricReconcileLatency]
	if !ok {
		t.Fatalf("expected latency histogram in snapshot")
	}
	var total uint64
	for _, b := range buckets {
		total += b
	}
	if total != 1 {
		t.Fatalf("expected one observation, got %d", total)
	}
	if _, found := snap.Histograms[MetricSessionSaved]; found {
		t.Fatalf("non-latency histogram must not exist")
	}
}

func TestObserveRequiresLatencyEnabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: false})
	m.Observe(MetricReconcileLatency, time.Millisecond)
	if _, found := m.Snapshot().Histograms[MetricReconcileLatency]; found {
		t.Fatalf("histograms disabled must yield no snapshot entry")
	}
}

func TestBucketIndexBoundaries(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{5 * time.Millisecond, 0},
		{6 * time.Millisecond, 1},
		{10 * time.Millisecond, 1},
		{25 * time.Millisecond, 2},
		{50 * time.Millisecond, 3},
		{100 * time.Millisecond, 4},
		{250 * time.Millisecond, 5},
		{500 * time.Millisecond, 6},
		{501 * time.Millisecond, 7},
		{time.Minute, 7},
	}
	for _, tc := range cases {
		if got := bucketIndex(tc.d); got != tc.want {
			t.Fatalf("bucketIndex(%s) = %d, want %d", tc.d, got, tc.want)
		}
	}
}

func TestMetricsSnapshotIsCopy(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricReconcileStarted)

	snap := m.Snapshot()
	snap.Counters[MetricReconcileStarted] = 999

	if got := m.Value(MetricReconcileStarted); got != 1 {
		t.Fatalf("snapshot mutation leaked into live metrics: %d", got)
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers = 8
	const perWorker = 1000
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				m.Inc(MetricReconcileStarted)
			}
		}()
	}
	wg.Wait()

	if got := m.Value(MetricReconcileStarted); got != workers*perWorker {
		t.Fatalf("expected %d, got %d", workers*perWorker, got)
	}
}
