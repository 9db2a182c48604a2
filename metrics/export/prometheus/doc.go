// Package prometheus provides a Prometheus text exposition exporter for the
// reconciliation engine's metrics.
//
// [NewPrometheusExporter] accepts an [autologin.Engine] and exposes an
// [http.Handler] that renders all engine counters and histograms. Counter
// names are prefixed autologin_*_total; the single histogram is
// autologin_reconcile_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
