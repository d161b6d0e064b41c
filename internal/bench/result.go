package bench

import (
	"fmt"
	"time"

	"github.com/fxnlabs/gemmbench/internal/gemm"
)

// Result is one successful measurement. It is only ever built from a
// measurement with positive elapsed time and iteration count.
type Result struct {
	Shape         gemm.Shape    `json:"shape" yaml:"shape"`
	Backend       string        `json:"backend" yaml:"backend"`
	Candidate     int           `json:"candidate" yaml:"candidate"`
	CandidateName string        `json:"candidateName,omitempty" yaml:"candidateName,omitempty"`
	Iterations    int           `json:"iterations" yaml:"iterations"`
	AvgTime       time.Duration `json:"avgTime" yaml:"avgTime"`
	Throughput    float64       `json:"throughput" yaml:"throughput"`
}

// ID is "backend#candidate".
func (r Result) ID() string {
	return fmt.Sprintf("%s#%d", r.Backend, r.Candidate)
}

// NoCandidate marks failures not tied to a single candidate.
const NoCandidate = -1

// Failure is a measurement, enumeration or allocation that did not produce
// a result. Failures are reported next to results, never inside a ranking.
type Failure struct {
	Shape     gemm.Shape `json:"shape" yaml:"shape"`
	Backend   string     `json:"backend" yaml:"backend"`
	Candidate int        `json:"candidate" yaml:"candidate"`
	Kind      gemm.Kind  `json:"kind" yaml:"kind"`
	Message   string     `json:"message" yaml:"message"`
}

func NewFailure(shape gemm.Shape, backend string, candidate int, err error) Failure {
	return Failure{
		Shape:     shape,
		Backend:   backend,
		Candidate: candidate,
		Kind:      gemm.KindOf(err),
		Message:   err.Error(),
	}
}

func (f Failure) ID() string {
	if f.Candidate == NoCandidate {
		return f.Backend
	}
	return fmt.Sprintf("%s#%d", f.Backend, f.Candidate)
}

// ShapeReport collects everything a sweep learned about one shape.
type ShapeReport struct {
	Shape    gemm.Shape `json:"shape" yaml:"shape"`
	Results  []Result   `json:"results" yaml:"results"`
	Failures []Failure  `json:"failures,omitempty" yaml:"failures,omitempty"`
}
