// Package metrics counts what one typing run saw and decided, and writes the
// counts as a Prometheus textfile for node_exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mlst/internal/blast"
	"mlst/internal/typing"
)

const namespace = "mlst"

// Run holds the collectors of a single invocation on a private registry.
type Run struct {
	reg *prometheus.Registry

	rows        prometheus.Counter
	lociKept    prometheus.Counter
	belowFloor  prometheus.Counter
	candidates  prometheus.Counter
	results     *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	resolve     prometheus.Histogram
}

// NewRun registers a fresh set of collectors.
func NewRun() *Run {
	m := &Run{
		reg: prometheus.NewRegistry(),
		rows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "alignment_rows_total",
			Help: "Alignment rows read.",
		}),
		lociKept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "loci_kept_total",
			Help: "Loci whose representative hit passed the identity floor.",
		}),
		belowFloor: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "loci_below_floor_total",
			Help: "Loci dropped at or below the identity floor.",
		}),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "candidates_total",
			Help: "Candidate schemes scored.",
		}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "results_total",
			Help: "Reported results by status.",
		}, []string{"status"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "diagnostics_total",
			Help: "Diagnostics raised by kind.",
		}, []string{"kind"}),
		resolve: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "resolve_seconds",
			Help:    "Time spent scoring and deciding.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	m.reg.MustRegister(m.rows, m.lociKept, m.belowFloor, m.candidates, m.results, m.diagnostics, m.resolve)
	return m
}

// Registry exposes the underlying registry.
func (m *Run) Registry() *prometheus.Registry { return m.reg }

// ObserveIngest records an ingest pass.
func (m *Run) ObserveIngest(st blast.Stats) {
	m.rows.Add(float64(st.Rows))
	m.lociKept.Add(float64(st.Kept))
	m.belowFloor.Add(float64(st.BelowFloor))
}

// ObserveReport records a resolution and how long it took.
func (m *Run) ObserveReport(rep typing.Report, took time.Duration) {
	m.candidates.Add(float64(len(rep.Ranked)))
	for _, r := range rep.Results {
		m.results.WithLabelValues(r.Status.String()).Inc()
	}
	for _, d := range rep.Diagnostics {
		m.diagnostics.WithLabelValues(d.Kind.String()).Inc()
	}
	m.resolve.Observe(took.Seconds())
}

// WriteTextfile writes the registry atomically to path.
func (m *Run) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
