//go:build integration
// +build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/fxnlabs/gemmbench/internal/app"
	"github.com/fxnlabs/gemmbench/internal/config"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/fxnlabs/gemmbench/internal/gpu"
	"github.com/fxnlabs/gemmbench/internal/logger"
	"github.com/fxnlabs/gemmbench/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestSweep_EndToEnd(t *testing.T) {
	cfg := config.Default()
	cfg.Logger.Verbosity = "debug"
	cfg.Benchmark.WarmupIters = 2
	cfg.Benchmark.BenchIters = 5
	cfg.Benchmark.MaxCandidates = 4
	cfg.Shapes = []gemm.Shape{
		{M: 128, N: 128, K: 128, ElementType: gemm.Float32, Layout: gemm.ColumnMajor},
		{M: 96, N: 64, K: 160, ElementType: gemm.Float32, Layout: gemm.RowMajor},
		{M: 64, N: 64, K: 64, ElementType: gemm.Float16, Layout: gemm.ColumnMajor},
	}
	cfg.Backends = []config.Backend{
		{Name: "naive"},
		{Name: "blas"},
		{Name: "tiled"},
		{Name: "sim", Latency: []time.Duration{4 * time.Millisecond, 2 * time.Millisecond}},
	}
	cfg.References = []report.Reference{{Name: "PyTorch", M: 128, N: 128, K: 128, ElementType: gemm.Float32, Throughput: 32.22}}
	cfg.Report.Format = "json"
	require.NoError(t, cfg.Validate())

	log, err := logger.New(cfg.Logger.Verbosity, "console")
	require.NoError(t, err)

	var b *app.Benchmark
	var manager *gpu.Manager
	fxApp := fxtest.New(t, app.Options(cfg, log, fx.Populate(&b, &manager)))
	fxApp.RequireStart()
	defer fxApp.RequireStop()

	require.Len(t, manager.Backends(), 4)
	assert.Empty(t, manager.Failures())

	reports, err := b.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 3)

	t.Run("f32 shapes measure every backend", func(t *testing.T) {
		for _, r := range reports[:2] {
			backends := map[string]int{}
			for _, res := range r.Results {
				assert.Greater(t, res.Throughput, 0.0)
				assert.Equal(t, cfg.Benchmark.BenchIters, res.Iterations)
				backends[res.Backend]++
			}
			assert.Equal(t, 1, backends["naive"])
			assert.Equal(t, 1, backends["blas"])
			assert.Equal(t, 2, backends["sim"])
			assert.GreaterOrEqual(t, backends["tiled"], 1)
			assert.LessOrEqual(t, backends["tiled"], 4)
			assert.Empty(t, r.Failures)
		}
	})

	t.Run("f16 shape records failures next to results", func(t *testing.T) {
		r := reports[2]
		kinds := map[string]gemm.Kind{}
		for _, f := range r.Failures {
			kinds[f.Backend] = f.Kind
		}
		assert.Equal(t, gemm.KindExecution, kinds["blas"])
		assert.Equal(t, gemm.KindNoAlgorithm, kinds["tiled"])
		for _, res := range r.Results {
			assert.NotEqual(t, "blas", res.Backend)
			assert.NotEqual(t, "tiled", res.Backend)
		}
	})

	t.Run("slower simulated candidate ranks lower", func(t *testing.T) {
		var sims []string
		for _, res := range report.Rank(reports[0].Results).Results() {
			if res.Backend == "sim" {
				sims = append(sims, res.CandidateName)
			}
		}
		assert.Equal(t, []string{"sleep 2ms", "sleep 4ms"}, sims)
	})

	t.Run("json report", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, b.Reporter.Report(&buf, reports))
		var doc report.Document
		require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
		require.Len(t, doc.Shapes, 3)
		assert.Equal(t, 1, doc.Shapes[0].Ranked[0].Rank)
		require.Len(t, doc.Shapes[0].References, 1)
		assert.Equal(t, "PyTorch", doc.Shapes[0].References[0].Reference.Name)
		require.NotNil(t, doc.Overall)
	})

	t.Run("quick probe", func(t *testing.T) {
		quick, err := b.Quick(context.Background())
		require.NoError(t, err)
		require.Len(t, quick, 3)
		assert.Len(t, quick[0].Results, 4)
		for _, res := range quick[0].Results {
			assert.Equal(t, 1, res.Iterations)
		}
	})
}

func TestSweep_Cancelled(t *testing.T) {
	cfg := config.Default()
	cfg.Shapes = []gemm.Shape{{M: 32, N: 32, K: 32}, {M: 64, N: 64, K: 64}}
	cfg.Backends = []config.Backend{{Name: "sim", Latency: []time.Duration{time.Millisecond}}}

	var b *app.Benchmark
	fxApp := fxtest.New(t, app.Options(cfg, zap.NewNop(), fx.Populate(&b)))
	fxApp.RequireStart()
	defer fxApp.RequireStop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	reports, err := b.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reports)
}
