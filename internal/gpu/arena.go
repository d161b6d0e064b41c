package gpu

import (
	"fmt"

	"github.com/fxnlabs/gemmbench/internal/gemm"
)

// arena owns the backend-private handles of one enumeration. Resetting it
// for the next shape invalidates every candidate issued before.
type arena[H any] struct {
	generation uint64
	shape      gemm.Shape
	handles    []H
}

func (a *arena[H]) reset(shape gemm.Shape) {
	a.generation++
	a.shape = shape
	a.handles = nil
}

func (a *arena[H]) add(backend string, h H, name string, workspace int64, cost float64) Candidate {
	a.handles = append(a.handles, h)
	return Candidate{
		Backend:        backend,
		Index:          len(a.handles) - 1,
		Name:           name,
		WorkspaceBytes: workspace,
		EstimatedCost:  cost,
		shape:          a.shape,
		generation:     a.generation,
	}
}

func (a *arena[H]) lookup(c Candidate, shape gemm.Shape) (H, error) {
	var zero H
	switch {
	case c.generation != a.generation || a.generation == 0:
		return zero, fmt.Errorf("stale candidate %s: backend re-enumerated since it was issued", c.ID())
	case c.shape != shape || a.shape != shape:
		return zero, fmt.Errorf("candidate %s was enumerated for %s, not %s", c.ID(), c.shape, shape)
	case c.Index < 0 || c.Index >= len(a.handles):
		return zero, fmt.Errorf("candidate index %d out of range [0, %d)", c.Index, len(a.handles))
	}
	return a.handles[c.Index], nil
}

func (a *arena[H]) len() int {
	return len(a.handles)
}
