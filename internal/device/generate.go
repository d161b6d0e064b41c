package device

import (
	"fmt"
	"math/rand"

	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/x448/float16"
)

// HostMatrix is host memory holding one input matrix, laid out flat.
type HostMatrix struct {
	ElementType gemm.ElementType
	Rows, Cols  int
	// Data is []float32, []float16.Float16 or []bfloat16.BFloat16.
	Data any
}

// Len is Rows·Cols.
func (h HostMatrix) Len() int { return h.Rows * h.Cols }

// Generator produces uniformly distributed values in [-1, 1). Values only
// need to be consistently shaped, not reproducible across runs, but a fixed
// seed makes them so.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator returns a generator seeded with seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Matrix fills a rows×cols matrix of the given element type.
func (g *Generator) Matrix(et gemm.ElementType, rows, cols int) (HostMatrix, error) {
	if rows <= 0 || cols <= 0 {
		return HostMatrix{}, fmt.Errorf("invalid matrix %dx%d", rows, cols)
	}
	n := rows * cols
	h := HostMatrix{ElementType: et, Rows: rows, Cols: cols}
	switch et {
	case gemm.Float32:
		data := make([]float32, n)
		for i := range data {
			data[i] = g.next()
		}
		h.Data = data
	case gemm.Float16:
		data := make([]float16.Float16, n)
		for i := range data {
			data[i] = float16.Fromfloat32(g.next())
		}
		h.Data = data
	case gemm.BFloat16:
		data := make([]bfloat16.BFloat16, n)
		for i := range data {
			data[i] = bfloat16.FromFloat32(g.next())
		}
		h.Data = data
	default:
		return HostMatrix{}, fmt.Errorf("unsupported element type %v", et)
	}
	return h, nil
}

func (g *Generator) next() float32 {
	return g.rng.Float32()*2 - 1
}
