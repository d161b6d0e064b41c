package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fxnlabs/gemmbench/internal/bench"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shape = gemm.Shape{M: 1024, N: 1024, K: 1024, ElementType: gemm.Float16, Layout: gemm.ColumnMajor}

func TestObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	t.Run("candidates", func(t *testing.T) {
		m.CandidatesEnumerated(shape, "tiled", 4)
		m.CandidatesEnumerated(shape, "tiled", 2)
		assert.Equal(t, float64(6), testutil.ToFloat64(m.Candidates.WithLabelValues("tiled")))
	})

	t.Run("successful measurement", func(t *testing.T) {
		m.MeasurementSucceeded(bench.Result{Shape: shape, Backend: "blas", Candidate: 0, AvgTime: time.Millisecond, Throughput: 2.147})
		assert.Equal(t, 2.147, testutil.ToFloat64(m.Throughput.WithLabelValues("blas", "0", shape.String())))
		assert.Equal(t, 1, testutil.CollectAndCount(m.AvgTime, "gemmbench_avg_time_seconds"))
	})

	t.Run("failures by kind", func(t *testing.T) {
		m.MeasurementFailed(bench.Failure{Backend: "tiled", Kind: gemm.KindNoAlgorithm})
		m.MeasurementFailed(bench.Failure{Backend: "tiled", Kind: gemm.KindNoAlgorithm})
		m.MeasurementFailed(bench.Failure{Backend: "tiled", Kind: gemm.KindExecution})
		assert.Equal(t, float64(2), testutil.ToFloat64(m.Failures.WithLabelValues("tiled", "NoAlgorithmAvailable")))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.Failures.WithLabelValues("tiled", "ExecutionFailure")))
	})

	t.Run("no-op notifications", func(t *testing.T) {
		assert.NotPanics(t, func() {
			m.ShapeStarted(shape, 3)
			m.MeasurementStarted(shape, "blas", 0)
			m.ShapeFinished(bench.ShapeReport{Shape: shape})
		})
	})
}

func TestRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) }, "collectors are registered once per registry")
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.MeasurementSucceeded(bench.Result{Shape: shape, Backend: "naive", AvgTime: time.Second, Throughput: 0.002})

	srv := httptest.NewServer(Handler(reg, m))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := new(strings.Builder)
	_, err = io.Copy(body, resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), `gemmbench_throughput_tops{backend="naive"`)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Scrapes.WithLabelValues("200")))

	missing, err := http.Get(srv.URL + "/nope")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func BenchmarkObserver(b *testing.B) {
	m := New(prometheus.NewRegistry())
	r := bench.Result{Shape: shape, Backend: "tiled", Candidate: 3, AvgTime: time.Millisecond, Throughput: 1.5}
	for i := 0; i < b.N; i++ {
		m.MeasurementSucceeded(r)
	}
}
