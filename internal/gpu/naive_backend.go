package gpu

import (
	"fmt"
	"time"

	"github.com/fxnlabs/gemmbench/internal/device"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"
)

// NaiveBackend is the triple-loop reference kernel. It supports every
// element type and layout and serves as the correctness baseline.
type NaiveBackend struct {
	adapter[struct{}]
}

// NewNaiveBackend creates a naive backend on the host device.
func NewNaiveBackend(opts Options) (*NaiveBackend, error) {
	opts = opts.withDefaults()
	if err := requireHost("naive", opts.Device); err != nil {
		return nil, err
	}
	return &NaiveBackend{adapter: newAdapter[struct{}]("naive", FixedAlgorithm, opts)}, nil
}

// Initialize prepares the naive backend for use
func (n *NaiveBackend) Initialize() error {
	if n.initialized {
		return nil
	}
	n.initialized = true
	n.logger.Info("Naive backend initialized")
	return nil
}

// Cleanup releases any resources (none for the naive backend)
func (n *NaiveBackend) Cleanup() error {
	n.initialized = false
	return nil
}

// EnumerateCandidates returns the single implicit algorithm.
func (n *NaiveBackend) EnumerateCandidates(shape gemm.Shape, _ int) ([]Candidate, error) {
	if err := shape.Validate(); err != nil {
		return nil, gemm.NewResourceError(n.name, "enumerate", err)
	}
	n.arena.reset(shape)
	return []Candidate{n.arena.add(n.name, struct{}{}, "triple-loop", 0, shape.Ops())}, nil
}

// Acquire needs nothing for the naive kernel.
func (n *NaiveBackend) Acquire(c Candidate, shape gemm.Shape) (func() error, error) {
	return n.noAcquire(c, shape)
}

// ExecuteCandidate enqueues C = A * B.
func (n *NaiveBackend) ExecuteCandidate(c Candidate, shape gemm.Shape, bufs *device.BufferSet) error {
	if _, err := n.resolve(c, shape, bufs); err != nil {
		return err
	}
	return n.submit(func() error {
		switch shape.ElementType {
		case gemm.Float32:
			return naiveTyped(shape, bufs, identity, identity)
		case gemm.Float16:
			return naiveTyped(shape, bufs, float16.Float16.Float32, float16.Fromfloat32)
		case gemm.BFloat16:
			return naiveTyped(shape, bufs, bfloat16.BFloat16.Float32, bfloat16.FromFloat32)
		default:
			return fmt.Errorf("unsupported element type %v", shape.ElementType)
		}
	})
}

// SimpleExecute runs the kernel once and reports the elapsed time.
func (n *NaiveBackend) SimpleExecute(shape gemm.Shape, bufs *device.BufferSet) (time.Duration, error) {
	return simpleExecute(n, n.clock, shape, bufs)
}

func naiveTyped[T any](shape gemm.Shape, bufs *device.BufferSet, load func(T) float32, store func(float32) T) error {
	a, b, c, err := hostSlices[T](bufs)
	if err != nil {
		return err
	}
	naiveKernel(shape, a, b, c, load, store)
	return nil
}

// naiveKernel accumulates in float32 and overwrites C.
func naiveKernel[T any](s gemm.Shape, a, b, c []T, load func(T) float32, store func(float32) T) {
	lda, ldb, ldc := s.LeadingDims()
	for i := 0; i < s.M; i++ {
		for j := 0; j < s.N; j++ {
			var sum float32
			for l := 0; l < s.K; l++ {
				sum += load(a[index(s.Layout, i, l, lda)]) * load(b[index(s.Layout, l, j, ldb)])
			}
			c[index(s.Layout, i, j, ldc)] = store(sum)
		}
	}
}

var _ Backend = (*NaiveBackend)(nil)
