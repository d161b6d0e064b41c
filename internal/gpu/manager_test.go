package gpu

import (
	"errors"
	"testing"

	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	dev := newHost(t)

	t.Run("registered", func(t *testing.T) {
		for _, name := range []string{"naive", "blas", "tiled", "sim"} {
			b, err := New(name, Options{Device: dev})
			require.NoError(t, err, name)
			assert.Equal(t, name, b.Name())
			assert.True(t, b.IsAvailable())
		}
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := New("mkl", Options{Device: dev})
		assert.ErrorIs(t, err, gemm.ErrResource)
		assert.Contains(t, err.Error(), "unknown backend")
	})

	t.Run("host backends require a device", func(t *testing.T) {
		_, err := New("naive", Options{})
		assert.ErrorIs(t, err, gemm.ErrResource)
	})

	t.Run("names", func(t *testing.T) {
		assert.Subset(t, Names(), []string{"blas", "cublas", "cublaslt", "naive", "sim", "tiled"})
	})
}

func TestManager(t *testing.T) {
	dev := newHost(t)
	opts := func(string) Options { return Options{Device: dev, Logger: zap.NewNop(), WorkspaceBytes: 1 << 20} }

	t.Run("skips backends that fail", func(t *testing.T) {
		m, err := NewManager(zap.NewNop(), []string{"naive", "nope", "tiled"}, opts)
		require.NoError(t, err)
		defer m.Cleanup()

		var names []string
		for _, b := range m.Backends() {
			names = append(names, b.Name())
		}
		assert.Equal(t, []string{"naive", "tiled"}, names)
		require.Contains(t, m.Failures(), "nope")
		assert.ErrorIs(t, m.Failures()["nope"], gemm.ErrResource)

		b, ok := m.Get("tiled")
		require.True(t, ok)
		assert.Equal(t, HeuristicEnumerated, b.Kind())
		_, ok = m.Get("nope")
		assert.False(t, ok)
	})

	t.Run("initialization failure is a resource error", func(t *testing.T) {
		tooBig := func(string) Options { return Options{Device: dev, WorkspaceBytes: 1 << 40} }
		m, err := NewManager(zap.NewNop(), []string{"tiled", "naive"}, tooBig)
		require.NoError(t, err)
		defer m.Cleanup()
		assert.Len(t, m.Backends(), 1)
		assert.ErrorIs(t, m.Failures()["tiled"], gemm.ErrResource)
	})

	t.Run("fails when nothing is available", func(t *testing.T) {
		_, err := NewManager(zap.NewNop(), []string{"nope"}, opts)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no backend available")
	})

	t.Run("cleanup releases workspace", func(t *testing.T) {
		before := dev.Info().AvailableMemory
		m, err := NewManager(zap.NewNop(), []string{"tiled"}, opts)
		require.NoError(t, err)
		assert.Less(t, dev.Info().AvailableMemory, before)
		require.NoError(t, m.Cleanup())
		assert.Equal(t, before, dev.Info().AvailableMemory)
		assert.Empty(t, m.Backends())
	})
}

func TestManager_CleanupCollectsErrors(t *testing.T) {
	m := &Manager{logger: zap.NewNop(), failures: map[string]error{}}
	m.backends = []Backend{failingCleanup{Backend: mustSim(t)}, failingCleanup{Backend: mustSim(t)}}
	err := m.Cleanup()
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
}

type failingCleanup struct {
	Backend
}

func (failingCleanup) Cleanup() error { return errors.New("boom") }

func mustSim(t *testing.T) Backend {
	b, err := NewSimBackend(Options{Device: newHost(t)})
	require.NoError(t, err)
	return b
}
