//go:build !cuda
// +build !cuda

package device

import (
	"errors"
	"unsafe"

	"github.com/fxnlabs/gemmbench/internal/gemm"
	"go.uber.org/zap"
)

// CUDAAvailable reports whether a CUDA device can be opened.
const CUDAAvailable = false

var errNoCUDA = errors.New("compiled without cuda support")

// CUDADevice is a stub type when CUDA is not available
type CUDADevice struct{}

// NewCUDADevice always fails without the cuda build tag.
func NewCUDADevice(_ *zap.Logger, _ int) (*CUDADevice, error) {
	return nil, gemm.NewResourceError("", "open device", errNoCUDA)
}

func (d *CUDADevice) Stream() unsafe.Pointer { return nil }

func (d *CUDADevice) Info() Info { return Info{Name: "CUDA not available"} }

func (d *CUDADevice) Alloc(gemm.ElementType, int) (*Buffer, error) { return nil, errNoCUDA }

func (d *CUDADevice) Free(*Buffer) error { return errNoCUDA }

func (d *CUDADevice) Upload(*Buffer, HostMatrix) error { return errNoCUDA }

func (d *CUDADevice) Submit(func() error) error { return errNoCUDA }

func (d *CUDADevice) Synchronize() error { return nil }

func (d *CUDADevice) Close() error { return nil }

var _ Device = (*CUDADevice)(nil)
