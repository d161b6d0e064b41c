package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/fxnlabs/gemmbench/internal/bench"
	"github.com/fxnlabs/gemmbench/internal/config"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/fxnlabs/gemmbench/internal/gpu"
	"github.com/fxnlabs/gemmbench/internal/report"
	"github.com/phayes/freeport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Benchmark.WarmupIters = 1
	cfg.Benchmark.BenchIters = 2
	cfg.Shapes = []gemm.Shape{{M: 32, N: 16, K: 8, ElementType: gemm.Float32, Layout: gemm.RowMajor}}
	cfg.Backends = []config.Backend{
		{Name: "naive"},
		{Name: "sim", Latency: []time.Duration{3 * time.Millisecond, time.Millisecond}},
	}
	cfg.Report.Format = "json"
	return cfg
}

type counter struct {
	bench.NopObserver
	succeeded int
}

func (c *counter) MeasurementSucceeded(bench.Result) { c.succeeded++ }

func TestModule(t *testing.T) {
	var b *Benchmark
	var manager *gpu.Manager
	obs := &counter{}

	app := fxtest.New(t,
		Options(testConfig(), zap.NewNop(), Observer(obs), fx.Populate(&b, &manager)),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.Len(t, manager.Backends(), 2)
	reports, err := b.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Empty(t, reports[0].Failures)
	require.Len(t, reports[0].Results, 3)
	assert.Equal(t, 3, obs.succeeded)

	ranking := report.Rank(reports[0].Results)
	best, ok := ranking.Best()
	require.True(t, ok)
	assert.NotEqual(t, "sim#0", best.ID(), "the 3ms candidate never wins")

	var out strings.Builder
	require.NoError(t, b.Reporter.Report(&out, reports))
	assert.Contains(t, out.String(), `"backend": "naive"`)
}

func TestBackendFailuresAreReported(t *testing.T) {
	cfg := testConfig()
	cfg.Backends = append(cfg.Backends, config.Backend{Name: "cublas"})

	var b *Benchmark
	app := fxtest.New(t, Options(cfg, zap.NewNop(), fx.Populate(&b)))
	app.RequireStart()
	defer app.RequireStop()

	reports, err := b.Quick(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Len(t, reports[0].Results, 2)
	require.Len(t, reports[0].Failures, 1)
	failure := reports[0].Failures[0]
	assert.Equal(t, "cublas", failure.Backend)
	assert.Equal(t, bench.NoCandidate, failure.Candidate)
	assert.Equal(t, gemm.KindResource, failure.Kind)
}

func TestMetricsServer(t *testing.T) {
	port, err := freeport.GetFreePort()
	require.NoError(t, err)
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	cfg := testConfig()
	cfg.Metrics.ListenAddress = addr

	var b *Benchmark
	app := fxtest.New(t, Options(cfg, zap.NewNop(), fx.Populate(&b)))
	app.RequireStart()
	defer app.RequireStop()

	_, err = b.Run(context.Background())
	require.NoError(t, err)

	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `gemmbench_candidates_total{backend="sim"} 2`)
	assert.Contains(t, string(body), "gemmbench_throughput_tops")
}

func TestStartFailures(t *testing.T) {
	t.Run("no backend comes up", func(t *testing.T) {
		cfg := testConfig()
		cfg.Backends = []config.Backend{{Name: "sim", Latency: []time.Duration{-time.Millisecond}}}
		app := fx.New(Options(cfg, zap.NewNop(), fx.Invoke(func(*Benchmark) {})))
		assert.ErrorContains(t, app.Err(), "no backend available")
	})

	t.Run("unknown report format", func(t *testing.T) {
		cfg := testConfig()
		cfg.Report.Format = "xml"
		app := fx.New(Options(cfg, zap.NewNop(), fx.Invoke(func(*Benchmark) {})))
		assert.ErrorContains(t, app.Err(), "unknown report format")
	})
}
