package gpu

import (
	"fmt"
	"time"

	"github.com/fxnlabs/gemmbench/internal/device"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

// BLASBackend runs SGEMM through gonum's BLAS implementation. It is a
// fixed-algorithm backend and only handles float32.
type BLASBackend struct {
	adapter[struct{}]
}

// NewBLASBackend creates a BLAS backend on the host device.
func NewBLASBackend(opts Options) (*BLASBackend, error) {
	opts = opts.withDefaults()
	if err := requireHost("blas", opts.Device); err != nil {
		return nil, err
	}
	return &BLASBackend{adapter: newAdapter[struct{}]("blas", FixedAlgorithm, opts)}, nil
}

func (b *BLASBackend) Initialize() error {
	if b.initialized {
		return nil
	}
	b.initialized = true
	b.logger.Info("BLAS backend initialized")
	return nil
}

func (b *BLASBackend) Cleanup() error {
	b.initialized = false
	return nil
}

func (b *BLASBackend) EnumerateCandidates(shape gemm.Shape, _ int) ([]Candidate, error) {
	if err := shape.Validate(); err != nil {
		return nil, gemm.NewResourceError(b.name, "enumerate", err)
	}
	b.arena.reset(shape)
	return []Candidate{b.arena.add(b.name, struct{}{}, "sgemm", 0, shape.Ops())}, nil
}

func (b *BLASBackend) Acquire(c Candidate, shape gemm.Shape) (func() error, error) {
	return b.noAcquire(c, shape)
}

// ExecuteCandidate enqueues SGEMM. Non-float32 shapes are rejected here,
// before anything reaches the device.
func (b *BLASBackend) ExecuteCandidate(c Candidate, shape gemm.Shape, bufs *device.BufferSet) error {
	if _, err := b.resolve(c, shape, bufs); err != nil {
		return err
	}
	if shape.ElementType != gemm.Float32 {
		return gemm.NewExecutionError(b.name, "execute", "unsupported",
			fmt.Errorf("sgemm does not support %v", shape.ElementType))
	}
	return b.submit(func() error {
		a, bm, cm, err := hostSlices[float32](bufs)
		if err != nil {
			return err
		}
		sgemm(shape, a, bm, cm)
		return nil
	})
}

func (b *BLASBackend) SimpleExecute(shape gemm.Shape, bufs *device.BufferSet) (time.Duration, error) {
	return simpleExecute(b, b.clock, shape, bufs)
}

// sgemm computes C = A * B. Column-major operands are handed to the
// row-major BLAS as their transposes: C^T = B^T * A^T.
func sgemm(s gemm.Shape, a, b, c []float32) {
	lda, ldb, ldc := s.LeadingDims()
	if s.Layout == gemm.RowMajor {
		blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
			blas32.General{Rows: s.M, Cols: s.K, Stride: lda, Data: a},
			blas32.General{Rows: s.K, Cols: s.N, Stride: ldb, Data: b},
			0,
			blas32.General{Rows: s.M, Cols: s.N, Stride: ldc, Data: c})
		return
	}
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
		blas32.General{Rows: s.N, Cols: s.K, Stride: ldb, Data: b},
		blas32.General{Rows: s.K, Cols: s.M, Stride: lda, Data: a},
		0,
		blas32.General{Rows: s.N, Cols: s.M, Stride: ldc, Data: c})
}

var _ Backend = (*BLASBackend)(nil)
