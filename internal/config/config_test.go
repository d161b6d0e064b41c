package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fxnlabs/gemmbench/internal/bench"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestLoadConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		config, err := LoadConfig("../../fixtures/tests/config/valid_config.yaml")
		require.NoError(t, err)
		require.NotNil(t, config)
		require.NoError(t, config.Validate())

		assert.Equal(t, "debug", config.Logger.Verbosity)
		assert.Equal(t, "console", config.Logger.Encoding)
		assert.Equal(t, DeviceHost, config.Device.Type)
		assert.Equal(t, ByteSize(2<<30), config.Device.MemoryLimit)
		assert.Equal(t, ByteSize(16<<20), config.Device.WorkspaceBytes)
		assert.Equal(t, int64(7), config.Benchmark.Seed)
		assert.Equal(t, bench.Options{Iterations: bench.Iterations{Warmup: 2, Bench: 8}, MaxCandidates: 4}, config.Options())

		require.Len(t, config.Shapes, 2)
		assert.Equal(t, gemm.Shape{M: 256, N: 256, K: 256, ElementType: gemm.Float32, Layout: gemm.RowMajor}, config.Shapes[0])
		assert.Equal(t, gemm.BFloat16, config.Shapes[1].ElementType)

		enabled := config.EnabledBackends()
		require.Len(t, enabled, 2)
		assert.Equal(t, "tiled", enabled[0].Name)
		assert.Equal(t, "sim", enabled[1].Name)
		assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 500 * time.Microsecond}, enabled[1].Latency)
		assert.Equal(t, map[string]bench.Overrides{
			"tiled": {MaxCandidates: 2},
			"sim":   {BenchIters: 3},
		}, config.Overrides())

		require.Len(t, config.References, 1)
		assert.Equal(t, "PyTorch", config.References[0].Name)
		assert.InDelta(t, 32.22, config.References[0].Throughput, 1e-9)
		assert.Equal(t, "127.0.0.1:9464", config.Metrics.ListenAddress)
		assert.Equal(t, "json", config.Report.Format)
	})

	t.Run("missing keys keep defaults", func(t *testing.T) {
		config, err := LoadConfig("../../fixtures/tests/config/minimal_config.yaml")
		require.NoError(t, err)
		require.NoError(t, config.Validate())

		assert.Equal(t, 50, config.Benchmark.BenchIters)
		assert.Equal(t, bench.DefaultWarmupIters, config.Benchmark.WarmupIters)
		assert.Equal(t, bench.DefaultMaxCandidates, config.Benchmark.MaxCandidates)
		assert.Equal(t, DefaultShapes(DeviceHost), config.Shapes)
		assert.Len(t, config.EnabledBackends(), 3)
		assert.Empty(t, config.Overrides())
		assert.Equal(t, "info", config.Logger.Verbosity)
	})

	t.Run("cuda without shapes sweeps f16", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("device:\n  type: cuda\n"), 0o600))
		config, err := LoadConfig(path)
		require.NoError(t, err)

		require.Len(t, config.Shapes, 5)
		for _, s := range config.Shapes {
			assert.Equal(t, gemm.Float16, s.ElementType)
		}
		assert.Equal(t, gemm.Shape{M: 8192, N: 8192, K: 8192, ElementType: gemm.Float16}, config.Shapes[3])
		assert.Equal(t, gemm.Shape{M: 2048, N: 4096, K: 2048, ElementType: gemm.Float16}, config.Shapes[4])
	})

	t.Run("empty shape list is kept", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("shapes: []\n"), 0o600))
		config, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Empty(t, config.Shapes)
		assert.ErrorContains(t, config.Validate(), "at least one shape")
	})

	t.Run("non-existent file", func(t *testing.T) {
		_, err := LoadConfig("non-existent-file.yaml")
		assert.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		dir, err := os.Getwd()
		require.NoError(t, err)

		configPath := filepath.Join(dir, "..", "..", "fixtures", "tests", "invalid_config", "config.yaml")
		_, err = LoadConfig(configPath)
		assert.Error(t, err)
	})

	t.Run("invalid byte size", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("device:\n  workspaceBytes: lots\n"), 0o600))
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "invalid byte size")
	})
}

func TestDefault(t *testing.T) {
	config := Default()
	require.NoError(t, config.Validate())

	assert.Equal(t, ByteSize(32<<20), config.Device.WorkspaceBytes)
	assert.Equal(t, bench.DefaultOptions(), config.Options())
	require.Len(t, config.Shapes, 5)
	for _, s := range config.Shapes {
		assert.Equal(t, gemm.Float32, s.ElementType)
		assert.Equal(t, gemm.ColumnMajor, s.Layout)
		assert.LessOrEqual(t, s.M, 2048)
	}
	assert.Equal(t, gemm.Shape{M: 1024, N: 2048, K: 1024, ElementType: gemm.Float32}, config.Shapes[4])

	b, ok := config.Backend("blas")
	require.True(t, ok)
	assert.True(t, b.IsEnabled())
	_, ok = config.Backend("cublas")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	config, err := LoadConfig("../../fixtures/tests/config/invalid_values.yaml")
	require.NoError(t, err)

	err = config.Validate()
	require.Error(t, err)
	errs := multierr.Errors(err)
	assert.Len(t, errs, 7)
	for _, want := range []string{
		`device.type: unknown device "tpu"`,
		"device.workspaceBytes: must be positive",
		"benchmark: ",
		"shapes[0]: invalid shape 0x16x16:",
		`backends[1]: duplicate backend "blas"`,
		`backends[2]: unknown backend "quantum"`,
		`report.format: unknown format "xml"`,
	} {
		assert.ErrorContains(t, err, want)
	}

	t.Run("no backend enabled", func(t *testing.T) {
		config := Default()
		disabled := false
		for i := range config.Backends {
			config.Backends[i].Enabled = &disabled
		}
		assert.ErrorContains(t, config.Validate(), "no backend enabled")
	})

	t.Run("negative overrides and latency", func(t *testing.T) {
		config := Default()
		config.Backends = []Backend{{Name: "sim", BenchIters: -1, Latency: []time.Duration{0}}}
		err := config.Validate()
		assert.ErrorContains(t, err, "overrides must not be negative")
		assert.ErrorContains(t, err, "latency must be positive")
	})

	t.Run("empty shapes", func(t *testing.T) {
		config := Default()
		config.Shapes = nil
		assert.ErrorContains(t, config.Validate(), "at least one shape")
	})
}

func TestByteSize(t *testing.T) {
	var b ByteSize
	require.NoError(t, b.UnmarshalText([]byte("33554432")))
	assert.Equal(t, ByteSize(32<<20), b)
	require.NoError(t, b.UnmarshalText([]byte("32MiB")))
	assert.Equal(t, ByteSize(32<<20), b)

	text, err := ByteSize(32 << 20).MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "32 MiB", string(text))
}
