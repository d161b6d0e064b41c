package bench

import (
	"fmt"

	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/fxnlabs/gemmbench/internal/gpu"
	"go.uber.org/zap"
)

// Enumerator asks a backend for the candidates applicable to one shape.
// The backend's ordering is advisory; every candidate it returns is
// measured.
type Enumerator struct {
	logger *zap.Logger
}

func NewEnumerator(logger *zap.Logger) *Enumerator {
	return &Enumerator{logger: logger.Named("enumerator")}
}

// Enumerate returns up to limit candidates for shape. Zero candidates is
// NoAlgorithmAvailable; every other backend failure is a ResourceError.
// The call invalidates every candidate previously issued by b.
func (e *Enumerator) Enumerate(b gpu.Backend, shape gemm.Shape, limit int) ([]gpu.Candidate, error) {
	if limit <= 0 {
		return nil, gemm.NewResourceError(b.Name(), "enumerate", fmt.Errorf("candidate limit must be positive, got %d", limit))
	}
	candidates, err := b.EnumerateCandidates(shape, limit)
	if err != nil {
		if gemm.KindOf(err) == gemm.KindUnknown {
			err = gemm.NewResourceError(b.Name(), "enumerate", err)
		}
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, gemm.NewNoAlgorithmError(b.Name(), shape)
	}
	if b.Kind() == gpu.FixedAlgorithm && len(candidates) != 1 {
		return nil, gemm.NewResourceError(b.Name(), "enumerate",
			fmt.Errorf("fixed-algorithm backend returned %d candidates", len(candidates)))
	}
	if len(candidates) > limit && b.Kind() == gpu.HeuristicEnumerated {
		candidates = candidates[:limit]
	}
	for i, c := range candidates {
		if c.Index != i {
			return nil, gemm.NewResourceError(b.Name(), "enumerate",
				fmt.Errorf("candidate %d carries sequence index %d", i, c.Index))
		}
	}

	e.logger.Debug("Enumerated candidates",
		zap.String("backend", b.Name()),
		zap.Stringer("kind", b.Kind()),
		zap.Stringer("shape", shape),
		zap.Int("count", len(candidates)),
		zap.Int("limit", limit))
	return candidates, nil
}
