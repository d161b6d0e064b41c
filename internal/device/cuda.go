//go:build cuda
// +build cuda

package device

/*
#cgo LDFLAGS: -lcudart
#include <cuda_runtime.h>
#include <stdlib.h>
*/
import "C"
import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"
	"go.uber.org/zap"
)

// CUDAAvailable reports whether a CUDA device can be opened.
const CUDAAvailable = true

// CUDADevice is one NVIDIA GPU with a single non-default stream. Submitted
// operations launch asynchronously on that stream.
type CUDADevice struct {
	log     *zap.Logger
	ordinal int
	stream  C.cudaStream_t
	info    Info

	mu     sync.Mutex
	err    error
	closed bool
}

// NewCUDADevice opens device ordinal and creates its stream.
func NewCUDADevice(log *zap.Logger, ordinal int) (*CUDADevice, error) {
	if status := C.cudaSetDevice(C.int(ordinal)); status != C.cudaSuccess {
		return nil, cudaError("set device", status)
	}
	d := &CUDADevice{log: log, ordinal: ordinal}
	if status := C.cudaStreamCreate(&d.stream); status != C.cudaSuccess {
		return nil, cudaError("create stream", status)
	}

	var props C.struct_cudaDeviceProp
	if status := C.cudaGetDeviceProperties(&props, C.int(ordinal)); status != C.cudaSuccess {
		C.cudaStreamDestroy(d.stream)
		return nil, cudaError("device properties", status)
	}
	var driver, runtime C.int
	C.cudaDriverGetVersion(&driver)
	C.cudaRuntimeGetVersion(&runtime)
	d.info = Info{
		Name:              C.GoString(&props.name[0]),
		TotalMemory:       int64(props.totalGlobalMem),
		ComputeCapability: fmt.Sprintf("%d.%d", int(props.major), int(props.minor)),
		DriverVersion:     cudaVersion(int(driver)),
		RuntimeVersion:    cudaVersion(int(runtime)),
	}
	log.Info("CUDA device opened",
		zap.String("device", d.info.Name),
		zap.String("computeCapability", d.info.ComputeCapability),
		zap.String("memory", humanize.IBytes(uint64(d.info.TotalMemory))))
	return d, nil
}

// Stream returns the raw cudaStream_t for libraries that launch on it.
func (d *CUDADevice) Stream() unsafe.Pointer {
	return unsafe.Pointer(d.stream)
}

func (d *CUDADevice) Info() Info {
	info := d.info
	var free, total C.size_t
	if C.cudaMemGetInfo(&free, &total) == C.cudaSuccess {
		info.AvailableMemory = int64(free)
	}
	return info
}

func (d *CUDADevice) Alloc(et gemm.ElementType, count int) (*Buffer, error) {
	if count <= 0 {
		return nil, gemm.NewResourceError("", "alloc", fmt.Errorf("invalid element count %d", count))
	}
	var ptr unsafe.Pointer
	size := int64(count) * et.Size()
	if status := C.cudaMalloc(&ptr, C.size_t(size)); status != C.cudaSuccess {
		return nil, gemm.NewResourceError("", "alloc",
			fmt.Errorf("%s: %w", humanize.IBytes(uint64(size)), cudaError("cudaMalloc", status)))
	}
	return NewBuffer(d, ptr, et, count), nil
}

func (d *CUDADevice) Free(b *Buffer) error {
	if b == nil {
		return nil
	}
	if b.owner != Device(d) {
		return fmt.Errorf("free: %v does not belong to this device", b)
	}
	if b.Released() {
		return fmt.Errorf("free: %v already released", b)
	}
	ptr := b.handle.(unsafe.Pointer)
	b.handle = nil
	if status := C.cudaFree(ptr); status != C.cudaSuccess {
		return cudaError("cudaFree", status)
	}
	return nil
}

func (d *CUDADevice) Upload(dst *Buffer, src HostMatrix) error {
	if dst == nil || dst.Released() {
		return fmt.Errorf("upload: destination buffer is not allocated")
	}
	if dst.elementType != src.ElementType || dst.count != src.Len() {
		return fmt.Errorf("upload: %v does not match host %v %dx%d", dst, src.ElementType, src.Rows, src.Cols)
	}
	var host unsafe.Pointer
	switch data := src.Data.(type) {
	case []float32:
		host = unsafe.Pointer(&data[0])
	case []float16.Float16:
		host = unsafe.Pointer(&data[0])
	case []bfloat16.BFloat16:
		host = unsafe.Pointer(&data[0])
	default:
		return fmt.Errorf("upload: unsupported host data %T", src.Data)
	}
	status := C.cudaMemcpy(dst.handle.(unsafe.Pointer), host, C.size_t(dst.byteSize), C.cudaMemcpyHostToDevice)
	if status != C.cudaSuccess {
		return cudaError("cudaMemcpy", status)
	}
	return nil
}

// Submit runs op on the calling goroutine; op is expected to launch work on
// Stream() and return without waiting for it.
func (d *CUDADevice) Submit(op func() error) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.mu.Unlock()
	if err := op(); err != nil {
		d.mu.Lock()
		if d.err == nil {
			d.err = err
		}
		d.mu.Unlock()
	}
	return nil
}

func (d *CUDADevice) Synchronize() error {
	status := C.cudaStreamSynchronize(d.stream)
	d.mu.Lock()
	err := d.err
	d.err = nil
	d.mu.Unlock()
	if err == nil && status != C.cudaSuccess {
		err = cudaError("cudaStreamSynchronize", status)
	}
	return err
}

func (d *CUDADevice) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()
	C.cudaStreamSynchronize(d.stream)
	if status := C.cudaStreamDestroy(d.stream); status != C.cudaSuccess {
		return cudaError("cudaStreamDestroy", status)
	}
	return nil
}

func cudaError(op string, status C.cudaError_t) error {
	return fmt.Errorf("%s: %s (%d)", op, C.GoString(C.cudaGetErrorString(status)), int(status))
}

// cudaVersion renders 12040 as "12.4".
func cudaVersion(v int) string {
	return fmt.Sprintf("%d.%d", v/1000, (v%1000)/10)
}

var _ Device = (*CUDADevice)(nil)
