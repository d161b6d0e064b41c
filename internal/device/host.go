package device

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/pbnjay/memory"
	"github.com/x448/float16"
	"go.uber.org/zap"
)

// HostDevice runs kernels on the CPU. Buffers are Go slices and submitted
// work runs in order on a single queue goroutine, so the controlling
// goroutine observes the same asynchronous submit/synchronize contract as on
// a GPU.
type HostDevice struct {
	log   *zap.Logger
	limit int64
	queue *queue

	mu        sync.Mutex
	allocated int64
}

// NewHostDevice creates a host device. memoryLimit bounds the bytes that may
// be allocated at once; zero means the currently free system memory.
func NewHostDevice(log *zap.Logger, memoryLimit int64) *HostDevice {
	if memoryLimit <= 0 {
		memoryLimit = systemAvailableMemory()
	}
	d := &HostDevice{
		log:   log.Named("host"),
		limit: memoryLimit,
		queue: newQueue(defaultQueueDepth),
	}
	d.log.Debug("host device opened", zap.String("memory_limit", humanize.IBytes(uint64(memoryLimit))))
	return d
}

// Info returns device information for the CPU
func (d *HostDevice) Info() Info {
	d.mu.Lock()
	available := d.limit - d.allocated
	d.mu.Unlock()
	return Info{
		Name:              fmt.Sprintf("CPU (%s/%s, %d threads)", runtime.GOOS, runtime.GOARCH, runtime.NumCPU()),
		TotalMemory:       d.limit,
		AvailableMemory:   available,
		ComputeCapability: cpuCapability(),
		DriverVersion:     "N/A",
		RuntimeVersion:    runtime.Version(),
	}
}

// Alloc returns a zeroed slice of the element type wrapped in a Buffer.
func (d *HostDevice) Alloc(et gemm.ElementType, count int) (*Buffer, error) {
	if count <= 0 {
		return nil, gemm.NewResourceError("", "alloc", fmt.Errorf("invalid element count %d", count))
	}
	size := int64(count) * et.Size()

	d.mu.Lock()
	if d.allocated+size > d.limit {
		d.mu.Unlock()
		return nil, gemm.NewResourceError("", "alloc",
			fmt.Errorf("%s requested, %s of %s in use",
				humanize.IBytes(uint64(size)), humanize.IBytes(uint64(d.allocated)), humanize.IBytes(uint64(d.limit))))
	}
	d.allocated += size
	d.mu.Unlock()

	var handle any
	switch et {
	case gemm.Float32:
		handle = make([]float32, count)
	case gemm.Float16:
		handle = make([]float16.Float16, count)
	case gemm.BFloat16:
		handle = make([]bfloat16.BFloat16, count)
	default:
		d.release(size)
		return nil, gemm.NewResourceError("", "alloc", fmt.Errorf("unsupported element type %v", et))
	}
	return NewBuffer(d, handle, et, count), nil
}

// Free releases the buffer's memory. Freeing twice is an error.
func (d *HostDevice) Free(b *Buffer) error {
	if b == nil {
		return nil
	}
	if b.owner != Device(d) {
		return fmt.Errorf("free: %v does not belong to this device", b)
	}
	if b.Released() {
		return fmt.Errorf("free: %v already released", b)
	}
	b.handle = nil
	d.release(b.byteSize)
	return nil
}

func (d *HostDevice) release(size int64) {
	d.mu.Lock()
	d.allocated -= size
	d.mu.Unlock()
}

// Upload copies host data into the buffer; types and lengths must match exactly.
func (d *HostDevice) Upload(dst *Buffer, src HostMatrix) error {
	if dst == nil || dst.Released() {
		return fmt.Errorf("upload: destination buffer is not allocated")
	}
	if dst.elementType != src.ElementType {
		return fmt.Errorf("upload: element type mismatch: buffer %v, host %v", dst.elementType, src.ElementType)
	}
	if dst.count != src.Len() {
		return fmt.Errorf("upload: size mismatch: buffer %d elements, host %d", dst.count, src.Len())
	}
	switch data := src.Data.(type) {
	case []float32:
		copy(dst.handle.([]float32), data)
	case []float16.Float16:
		copy(dst.handle.([]float16.Float16), data)
	case []bfloat16.BFloat16:
		copy(dst.handle.([]bfloat16.BFloat16), data)
	default:
		return fmt.Errorf("upload: unsupported host data %T", src.Data)
	}
	return nil
}

// Submit enqueues op; it runs after every previously submitted op.
func (d *HostDevice) Submit(op func() error) error {
	return d.queue.submit(op)
}

// Synchronize blocks until the queue is empty.
func (d *HostDevice) Synchronize() error {
	return d.queue.synchronize()
}

// Close drains the queue. Buffers still allocated are reported.
func (d *HostDevice) Close() error {
	err := d.queue.close()
	d.mu.Lock()
	leaked := d.allocated
	d.mu.Unlock()
	if leaked != 0 {
		d.log.Warn("host device closed with live buffers", zap.String("bytes", humanize.IBytes(uint64(leaked))))
	}
	return err
}

func systemAvailableMemory() int64 {
	if free := memory.FreeMemory(); free > 0 && free < math.MaxInt64 {
		return int64(free)
	}
	if total := memory.TotalMemory(); total > 0 && total < math.MaxInt64 {
		return int64(total)
	}
	return math.MaxInt64
}
