package metrics

import (
	"strconv"

	"github.com/fxnlabs/gemmbench/internal/bench"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports sweep progress. It implements bench.Observer.
type Metrics struct {
	Throughput *prometheus.GaugeVec
	AvgTime    *prometheus.HistogramVec
	Failures   *prometheus.CounterVec
	Candidates *prometheus.CounterVec
	Scrapes    *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Throughput: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gemmbench_throughput_tops",
			Help: "Measured throughput of the last measurement per candidate, in tera-ops per second",
		}, []string{"backend", "candidate", "shape"}),

		AvgTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gemmbench_avg_time_seconds",
			Help:    "Average time of one GEMM invocation in a measured batch",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 14), // 1µs to ~67s
		}, []string{"backend"}),

		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gemmbench_failures_total",
			Help: "The total number of failed measurements, enumerations and allocations",
		}, []string{"backend", "kind"}),

		Candidates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gemmbench_candidates_total",
			Help: "The total number of candidates enumerated",
		}, []string{"backend"}),

		Scrapes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gemmbench_metrics_scrapes_total",
			Help: "The total number of metrics endpoint responses",
		}, []string{"status_code"}),
	}
}

func (m *Metrics) ShapeStarted(gemm.Shape, int) {}

func (m *Metrics) CandidatesEnumerated(_ gemm.Shape, backend string, count int) {
	m.Candidates.WithLabelValues(backend).Add(float64(count))
}

func (m *Metrics) MeasurementStarted(gemm.Shape, string, int) {}

func (m *Metrics) MeasurementSucceeded(r bench.Result) {
	m.Throughput.WithLabelValues(r.Backend, strconv.Itoa(r.Candidate), r.Shape.String()).Set(r.Throughput)
	m.AvgTime.WithLabelValues(r.Backend).Observe(r.AvgTime.Seconds())
}

func (m *Metrics) MeasurementFailed(f bench.Failure) {
	m.Failures.WithLabelValues(f.Backend, f.Kind.String()).Inc()
}

func (m *Metrics) ShapeFinished(bench.ShapeReport) {}

var _ bench.Observer = (*Metrics)(nil)
