package gpu

import (
	"fmt"

	"github.com/fxnlabs/gemmbench/internal/device"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"
)

// hostSlices returns the typed host memory behind A, B and C.
func hostSlices[T any](bufs *device.BufferSet) (a, b, c []T, err error) {
	var ok bool
	if a, ok = bufs.A.Handle().([]T); !ok {
		return nil, nil, nil, fmt.Errorf("matrix A: %T is not host memory of the expected type", bufs.A.Handle())
	}
	if b, ok = bufs.B.Handle().([]T); !ok {
		return nil, nil, nil, fmt.Errorf("matrix B: %T is not host memory of the expected type", bufs.B.Handle())
	}
	if c, ok = bufs.C.Handle().([]T); !ok {
		return nil, nil, nil, fmt.Errorf("matrix C: %T is not host memory of the expected type", bufs.C.Handle())
	}
	return a, b, c, nil
}

// requireHost rejects devices whose buffers are not host slices.
func requireHost(name string, dev device.Device) error {
	if dev == nil {
		return gemm.NewResourceError(name, "create", fmt.Errorf("no device"))
	}
	if _, ok := dev.(*device.HostDevice); !ok {
		return gemm.NewResourceError(name, "create", fmt.Errorf("requires the host device, got %T", dev))
	}
	return nil
}

// index addresses element (row, col) of a matrix with leading dimension ld.
func index(layout gemm.Layout, row, col, ld int) int {
	if layout == gemm.RowMajor {
		return row*ld + col
	}
	return col*ld + row
}

func identity(v float32) float32 { return v }

// Float16ToFloat32 widens a half-precision slice.
func Float16ToFloat32(input []float16.Float16) []float32 {
	output := make([]float32, len(input))
	for i, v := range input {
		output[i] = v.Float32()
	}
	return output
}

// BFloat16ToFloat32 widens a bfloat16 slice.
func BFloat16ToFloat32(input []bfloat16.BFloat16) []float32 {
	output := make([]float32, len(input))
	for i, v := range input {
		output[i] = v.Float32()
	}
	return output
}

// HostResult returns matrix C of a host buffer set widened to float32.
func HostResult(bufs *device.BufferSet) ([]float32, error) {
	switch data := bufs.C.Handle().(type) {
	case []float32:
		return append([]float32(nil), data...), nil
	case []float16.Float16:
		return Float16ToFloat32(data), nil
	case []bfloat16.BFloat16:
		return BFloat16ToFloat32(data), nil
	default:
		return nil, fmt.Errorf("matrix C: %T is not host memory", bufs.C.Handle())
	}
}
