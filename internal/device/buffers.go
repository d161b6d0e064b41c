package device

import (
	"fmt"

	"github.com/fxnlabs/gemmbench/internal/gemm"
	"go.uber.org/multierr"
)

// BufferSet holds the A, B and C buffers of one shape. It is allocated once
// per shape, reused by every backend and candidate measured against that
// shape, and freed when the shape is done.
type BufferSet struct {
	Shape gemm.Shape
	A     *Buffer
	B     *Buffer
	C     *Buffer

	dev   Device
	freed bool
}

// AllocateBuffers allocates exact-size buffers for shape on dev and uploads
// generated A and B. C is left for the kernels to overwrite. Any failure
// releases what was already allocated and is reported as a ResourceError.
func AllocateBuffers(dev Device, gen *Generator, shape gemm.Shape) (set *BufferSet, err error) {
	if err := shape.Validate(); err != nil {
		return nil, gemm.NewResourceError("", "alloc", err)
	}
	set = &BufferSet{Shape: shape, dev: dev}
	defer func() {
		if err != nil {
			err = multierr.Append(err, set.Free())
			set = nil
		}
	}()

	na, nb, nc := shape.Elements()
	if set.A, err = dev.Alloc(shape.ElementType, na); err != nil {
		return set, fmt.Errorf("matrix A: %w", err)
	}
	if set.B, err = dev.Alloc(shape.ElementType, nb); err != nil {
		return set, fmt.Errorf("matrix B: %w", err)
	}
	if set.C, err = dev.Alloc(shape.ElementType, nc); err != nil {
		return set, fmt.Errorf("matrix C: %w", err)
	}

	rowsA, colsA, rowsB, colsB := shape.M, shape.K, shape.K, shape.N
	hostA, err := gen.Matrix(shape.ElementType, rowsA, colsA)
	if err != nil {
		return set, gemm.NewResourceError("", "generate", err)
	}
	hostB, err := gen.Matrix(shape.ElementType, rowsB, colsB)
	if err != nil {
		return set, gemm.NewResourceError("", "generate", err)
	}
	if err = dev.Upload(set.A, hostA); err != nil {
		return set, gemm.NewResourceError("", "upload", err)
	}
	if err = dev.Upload(set.B, hostB); err != nil {
		return set, gemm.NewResourceError("", "upload", err)
	}
	return set, nil
}

// Matches reports whether the set was allocated for exactly this shape.
// Buffers are never reused across differing shapes.
func (s *BufferSet) Matches(shape gemm.Shape) bool {
	return s != nil && !s.freed && s.Shape == shape
}

// Bytes is the total size of the three buffers.
func (s *BufferSet) Bytes() int64 {
	var total int64
	for _, b := range []*Buffer{s.A, s.B, s.C} {
		if b != nil {
			total += b.ByteSize()
		}
	}
	return total
}

// Free releases every buffer. It is safe to call more than once.
func (s *BufferSet) Free() error {
	if s == nil || s.freed {
		return nil
	}
	s.freed = true
	var err error
	for _, b := range []*Buffer{s.A, s.B, s.C} {
		if b != nil && !b.Released() {
			err = multierr.Append(err, s.dev.Free(b))
		}
	}
	return err
}
