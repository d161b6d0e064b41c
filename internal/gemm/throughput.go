package gemm

import (
	"math"
	"time"
)

// Sample is the raw output of one timed batch: the wall time of the whole
// batch and how many invocations it contained.
type Sample struct {
	Elapsed    time.Duration
	Iterations int
}

// Measurement is a Sample converted into comparable numbers.
type Measurement struct {
	AvgTime time.Duration
	// Throughput is 2·m·n·k / (avg seconds · 1e12), i.e. tera-ops per second.
	Throughput float64
}

// Throughput converts a sample into the average time per invocation and the
// throughput metric. It never produces an infinite or NaN value: a
// non-positive elapsed time or iteration count is an InvalidMeasurement.
//
// The metric counts operations, not precision-adjusted work, so values for
// different element types are comparable only as a throughput proxy.
func Throughput(shape Shape, sample Sample) (Measurement, error) {
	if sample.Iterations <= 0 {
		return Measurement{}, NewInvalidMeasurementError("throughput", "iteration count %d is not positive", sample.Iterations)
	}
	if sample.Elapsed <= 0 {
		return Measurement{}, NewInvalidMeasurementError("throughput", "elapsed time %v is not positive", sample.Elapsed)
	}
	if err := shape.Validate(); err != nil {
		return Measurement{}, NewInvalidMeasurementError("throughput", "%v", err)
	}

	avgSeconds := sample.Elapsed.Seconds() / float64(sample.Iterations)
	tops := TOPS(shape.Ops(), avgSeconds)
	if math.IsInf(tops, 0) || math.IsNaN(tops) {
		return Measurement{}, NewInvalidMeasurementError("throughput", "non-finite throughput for %v over %d iterations", sample.Elapsed, sample.Iterations)
	}
	return Measurement{
		AvgTime:    sample.Elapsed / time.Duration(sample.Iterations),
		Throughput: tops,
	}, nil
}

// TOPS is ops / (seconds · 1e12). Callers are expected to have checked seconds > 0.
func TOPS(ops, seconds float64) float64 {
	return ops / (seconds * 1e12)
}
