// Package device provides the compute contexts the harness runs on: buffer
// allocation, host-to-device upload, an ordered execution queue and the
// synchronization barrier.
package device

import (
	"errors"
	"fmt"

	"github.com/fxnlabs/gemmbench/internal/gemm"
)

// Info contains information about the compute device
type Info struct {
	Name              string `json:"name" yaml:"name"`
	TotalMemory       int64  `json:"totalMemory" yaml:"totalMemory"`         // in bytes
	AvailableMemory   int64  `json:"availableMemory" yaml:"availableMemory"` // in bytes
	ComputeCapability string `json:"computeCapability" yaml:"computeCapability"`
	DriverVersion     string `json:"driverVersion" yaml:"driverVersion"`
	RuntimeVersion    string `json:"runtimeVersion,omitempty" yaml:"runtimeVersion,omitempty"`
}

// Device is a compute context: it owns memory and an execution queue.
//
// Implementation notes:
//   - Submit enqueues work and may return before the work ran. Errors raised
//     by enqueued work surface from the next Synchronize.
//   - Synchronize is a full device/host barrier. It has no timeout; a stalled
//     operation blocks it indefinitely.
//   - A Device is driven by a single goroutine. Buffers and the queue are not
//     safe for concurrent use.
type Device interface {
	Info() Info

	// Alloc reserves count elements of the given type.
	Alloc(et gemm.ElementType, count int) (*Buffer, error)

	// Free releases a buffer obtained from Alloc.
	Free(b *Buffer) error

	// Upload copies a host matrix into a device buffer.
	Upload(dst *Buffer, src HostMatrix) error

	// Submit enqueues op on the device's execution queue.
	Submit(op func() error) error

	// Synchronize blocks until every submitted op has finished and returns the
	// first error raised since the previous barrier.
	Synchronize() error

	// Close drains the queue and releases the device.
	Close() error
}

// ErrClosed is returned by operations on a closed device.
var ErrClosed = errors.New("device closed")

// Buffer is device memory for one matrix.
type Buffer struct {
	handle      any
	byteSize    int64
	count       int
	elementType gemm.ElementType
	owner       Device
}

// NewBuffer wraps a device-specific handle. It is used by Device
// implementations; callers obtain buffers from Device.Alloc.
func NewBuffer(owner Device, handle any, et gemm.ElementType, count int) *Buffer {
	return &Buffer{
		handle:      handle,
		byteSize:    int64(count) * et.Size(),
		count:       count,
		elementType: et,
		owner:       owner,
	}
}

// Handle is the device-specific memory handle: a typed Go slice on the host
// device, a device pointer on CUDA.
func (b *Buffer) Handle() any { return b.handle }

// ByteSize is the exact allocation size in bytes.
func (b *Buffer) ByteSize() int64 { return b.byteSize }

// Len is the number of elements.
func (b *Buffer) Len() int { return b.count }

// ElementType of the stored elements.
func (b *Buffer) ElementType() gemm.ElementType { return b.elementType }

// Released reports whether the buffer was freed.
func (b *Buffer) Released() bool { return b.handle == nil }

func (b *Buffer) String() string {
	return fmt.Sprintf("buffer(%d×%s, %d bytes)", b.count, b.elementType, b.byteSize)
}

// CheckWorkspace validates a workspace budget against the device's available
// memory. It must be called before the workspace is allocated.
func CheckWorkspace(info Info, budget int64) error {
	if budget <= 0 {
		return gemm.NewResourceError("", "workspace", fmt.Errorf("workspace budget %d must be positive", budget))
	}
	if info.AvailableMemory > 0 && budget > info.AvailableMemory {
		return gemm.NewResourceError("", "workspace",
			fmt.Errorf("workspace budget %d exceeds available memory %d on %s", budget, info.AvailableMemory, info.Name))
	}
	return nil
}
