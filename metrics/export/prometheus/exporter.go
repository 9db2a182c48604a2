package prometheus

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	autologin "github.com/elgranjm3000/controlagenda-sub000"
	"github.com/elgranjm3000/controlagenda-sub000/metrics/export/internaldefs"
)

const droppedHelp = "Dropped audit events due to dispatcher backpressure."

type metricsSource interface {
	MetricsSnapshot() autologin.MetricsSnapshot
	AuditDropped() uint64
}

// PrometheusExporter renders reconciliation metrics in Prometheus text
// exposition format.
//
//	Docs: docs/metrics.md
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates a Prometheus exporter that reads from the
// given [autologin.Engine].
//
//	Docs: docs/metrics.md
func NewPrometheusExporter(engine *autologin.Engine) *PrometheusExporter {
	return &PrometheusExporter{source: engine}
}

// NewPrometheusExporterFromSource creates a Prometheus exporter from a
// custom metrics source.
//
//	Docs: docs/metrics.md
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler returns an http.Handler that serves Prometheus metrics.
//
//	Docs: docs/metrics.md
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render writes the current metrics in Prometheus text exposition format.
//
//	Docs: docs/metrics.md
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var buf bytes.Buffer

	for _, def := range internaldefs.CounterDefs {
		counter(&buf, def.Name, def.Help, snapshot.Counters[def.ID])
	}
	for _, def := range internaldefs.HistogramDefs {
		histogram(&buf, def.Name, def.Help,
			internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[def.ID])))
	}
	counter(&buf, "autologin_audit_dropped_total", droppedHelp, dropped)

	return buf.String()
}

func counter(buf *bytes.Buffer, name, help string, value uint64) {
	header(buf, name, help, "counter")
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func histogram(buf *bytes.Buffer, name, help string, cumulative [8]uint64) {
	header(buf, name, help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		fmt.Fprintf(buf, "%s_bucket{le=%q} %d\n", name, le, cumulative[i])
	}
	count := cumulative[len(cumulative)-1]
	fmt.Fprintf(buf, "%s_count %d\n", name, count)
	// Sum is not tracked in core snapshots; keep a stable field for scrapers.
	fmt.Fprintf(buf, "%s_sum 0\n", name)
}

func header(buf *bytes.Buffer, name, help, kind string) {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	fmt.Fprintf(buf, "# HELP %s %s\n# TYPE %s %s\n", name, help, name, kind)
}
