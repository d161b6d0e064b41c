package device

import (
	"errors"
	"testing"
	"time"

	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
	"go.uber.org/zap"
)

func TestHostDevice_Info(t *testing.T) {
	dev := NewHostDevice(zap.NewNop(), 1<<20)
	defer dev.Close()

	info := dev.Info()
	assert.Contains(t, info.Name, "CPU")
	assert.Equal(t, int64(1<<20), info.TotalMemory)
	assert.Equal(t, int64(1<<20), info.AvailableMemory)
	assert.NotEmpty(t, info.ComputeCapability)
}

func TestHostDevice_AllocFree(t *testing.T) {
	dev := NewHostDevice(zap.NewNop(), 1024)
	defer dev.Close()

	buf, err := dev.Alloc(gemm.Float16, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(200), buf.ByteSize())
	assert.Equal(t, 100, buf.Len())
	assert.Len(t, buf.Handle().([]float16.Float16), 100)
	assert.Equal(t, int64(1024-200), dev.Info().AvailableMemory)

	t.Run("over the limit", func(t *testing.T) {
		_, err := dev.Alloc(gemm.Float32, 1000)
		require.Error(t, err)
		assert.ErrorIs(t, err, gemm.ErrResource)
	})

	t.Run("invalid count", func(t *testing.T) {
		_, err := dev.Alloc(gemm.Float32, 0)
		assert.ErrorIs(t, err, gemm.ErrResource)
	})

	require.NoError(t, dev.Free(buf))
	assert.True(t, buf.Released())
	assert.Equal(t, int64(1024), dev.Info().AvailableMemory)
	assert.Error(t, dev.Free(buf), "double free must fail")

	other := NewHostDevice(zap.NewNop(), 1024)
	defer other.Close()
	foreign, err := other.Alloc(gemm.Float32, 1)
	require.NoError(t, err)
	assert.Error(t, dev.Free(foreign))
	require.NoError(t, other.Free(foreign))
}

func TestHostDevice_Upload(t *testing.T) {
	dev := NewHostDevice(zap.NewNop(), 1<<20)
	defer dev.Close()
	gen := NewGenerator(1)

	buf, err := dev.Alloc(gemm.Float32, 6)
	require.NoError(t, err)
	defer dev.Free(buf)

	host, err := gen.Matrix(gemm.Float32, 2, 3)
	require.NoError(t, err)
	require.NoError(t, dev.Upload(buf, host))
	assert.Equal(t, host.Data, buf.Handle())

	wrongSize, err := gen.Matrix(gemm.Float32, 3, 3)
	require.NoError(t, err)
	assert.Error(t, dev.Upload(buf, wrongSize))

	wrongType, err := gen.Matrix(gemm.Float16, 2, 3)
	require.NoError(t, err)
	assert.Error(t, dev.Upload(buf, wrongType))
}

func TestHostDevice_SubmitIsOrderedAndAsynchronous(t *testing.T) {
	dev := NewHostDevice(zap.NewNop(), 1<<20)
	defer dev.Close()

	release := make(chan struct{})
	var order []int
	require.NoError(t, dev.Submit(func() error {
		<-release
		order = append(order, 0)
		return nil
	}))
	for i := 1; i < 5; i++ {
		i := i
		require.NoError(t, dev.Submit(func() error {
			order = append(order, i)
			return nil
		}))
	}

	// Submit returned while the first op is still blocked.
	close(release)
	require.NoError(t, dev.Synchronize())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestHostDevice_SynchronizeReturnsFirstError(t *testing.T) {
	dev := NewHostDevice(zap.NewNop(), 1<<20)
	defer dev.Close()

	first := errors.New("first")
	require.NoError(t, dev.Submit(func() error { return first }))
	require.NoError(t, dev.Submit(func() error { return errors.New("second") }))
	require.NoError(t, dev.Submit(func() error { panic("index out of range") }))

	assert.ErrorIs(t, dev.Synchronize(), first)
	// The error is cleared by the barrier.
	assert.NoError(t, dev.Synchronize())

	require.NoError(t, dev.Submit(func() error { panic("boom") }))
	err := dev.Synchronize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kernel panic: boom")
}

func TestHostDevice_Close(t *testing.T) {
	dev := NewHostDevice(zap.NewNop(), 1<<20)
	done := false
	require.NoError(t, dev.Submit(func() error {
		time.Sleep(time.Millisecond)
		done = true
		return nil
	}))
	require.NoError(t, dev.Close())
	assert.True(t, done, "close drains the queue")
	assert.ErrorIs(t, dev.Submit(func() error { return nil }), ErrClosed)
	assert.NoError(t, dev.Close())
}

func TestCheckWorkspace(t *testing.T) {
	info := Info{Name: "test", AvailableMemory: 64 << 20}
	assert.NoError(t, CheckWorkspace(info, 32<<20))
	assert.ErrorIs(t, CheckWorkspace(info, 128<<20), gemm.ErrResource)
	assert.ErrorIs(t, CheckWorkspace(info, 0), gemm.ErrResource)
	assert.NoError(t, CheckWorkspace(Info{}, 32<<20), "unknown availability is not checked")
}
