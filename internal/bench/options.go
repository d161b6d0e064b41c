package bench

import (
	"fmt"

	"github.com/fxnlabs/gemmbench/internal/gemm"
)

const (
	DefaultWarmupIters   = 5
	DefaultBenchIters    = 20
	DefaultMaxCandidates = 10
)

// Iterations is the protocol of one measurement.
type Iterations struct {
	Warmup int
	Bench  int
}

// Validate rejects counts that cannot produce a measurement.
func (it Iterations) Validate() error {
	if it.Bench <= 0 {
		return gemm.NewInvalidMeasurementError("validate", "bench iterations must be positive, got %d", it.Bench)
	}
	if it.Warmup < 0 {
		return gemm.NewInvalidMeasurementError("validate", "warmup iterations must not be negative, got %d", it.Warmup)
	}
	return nil
}

// Options are the sweep-wide measurement settings.
type Options struct {
	Iterations
	// MaxCandidates bounds heuristic enumeration (K).
	MaxCandidates int
}

func DefaultOptions() Options {
	return Options{
		Iterations:    Iterations{Warmup: DefaultWarmupIters, Bench: DefaultBenchIters},
		MaxCandidates: DefaultMaxCandidates,
	}
}

func (o Options) Validate() error {
	if err := o.Iterations.Validate(); err != nil {
		return err
	}
	if o.MaxCandidates <= 0 {
		return fmt.Errorf("max candidates must be positive, got %d", o.MaxCandidates)
	}
	return nil
}

// Overrides replace sweep-wide options for one backend. Zero keeps the
// sweep-wide value.
type Overrides struct {
	WarmupIters   int
	BenchIters    int
	MaxCandidates int
}

func (o Options) with(ov Overrides) Options {
	if ov.WarmupIters > 0 {
		o.Warmup = ov.WarmupIters
	}
	if ov.BenchIters > 0 {
		o.Bench = ov.BenchIters
	}
	if ov.MaxCandidates > 0 {
		o.MaxCandidates = ov.MaxCandidates
	}
	return o
}
