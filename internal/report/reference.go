package report

import (
	"fmt"

	"github.com/fxnlabs/gemmbench/internal/bench"
	"github.com/fxnlabs/gemmbench/internal/gemm"
)

// Reference is a throughput figure obtained outside this harness, e.g. a
// framework's published number for the same problem.
type Reference struct {
	Name        string           `json:"name" yaml:"name"`
	M           int              `json:"m" yaml:"m"`
	N           int              `json:"n" yaml:"n"`
	K           int              `json:"k" yaml:"k"`
	ElementType gemm.ElementType `json:"elementType" yaml:"elementType"`
	Throughput  float64          `json:"throughput" yaml:"throughput"`
}

// Matches ignores layout: references rarely state one.
func (r Reference) Matches(shape gemm.Shape) bool {
	return r.M == shape.M && r.N == shape.N && r.K == shape.K && r.ElementType == shape.ElementType
}

// ReferenceComparison relates the best measured result of a shape to one
// reference.
type ReferenceComparison struct {
	Reference Reference    `json:"reference" yaml:"reference"`
	Best      bench.Result `json:"best" yaml:"best"`
	// Ratio is Best.Throughput / Reference.Throughput.
	Ratio float64 `json:"ratio" yaml:"ratio"`
}

func (c ReferenceComparison) String() string {
	return fmt.Sprintf("%s reaches %.2fx of %s (%.2f TOPS)", c.Best.ID(), c.Ratio, c.Reference.Name, c.Reference.Throughput)
}

// CompareReferences returns one comparison per reference matching the
// report's shape. Shapes without results, and references with a
// non-positive figure, yield nothing.
func CompareReferences(refs []Reference, report bench.ShapeReport) []ReferenceComparison {
	best, ok := Rank(report.Results).Best()
	if !ok {
		return nil
	}
	var out []ReferenceComparison
	for _, ref := range refs {
		if !ref.Matches(report.Shape) || ref.Throughput <= 0 {
			continue
		}
		out = append(out, ReferenceComparison{Reference: ref, Best: best, Ratio: best.Throughput / ref.Throughput})
	}
	return out
}
