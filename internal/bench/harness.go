package bench

import (
	"github.com/fxnlabs/gemmbench/internal/device"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/fxnlabs/gemmbench/internal/gpu"
	"github.com/fxnlabs/gemmbench/internal/timing"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Harness runs the warmup/measure/synchronize protocol for one
// (backend, candidate) pair. It never retries and has no cancellation: a
// stalled device blocks Synchronize.
type Harness struct {
	clock  timing.Clock
	logger *zap.Logger
}

func NewHarness(logger *zap.Logger, clock timing.Clock) *Harness {
	if clock == nil {
		clock = timing.Real()
	}
	return &Harness{clock: clock, logger: logger.Named("harness")}
}

// Measure times it.Bench back-to-back invocations of c, submitted without
// intermediate synchronization, after it.Warmup untimed ones. Resources
// acquired for the measurement are released on every path.
func (h *Harness) Measure(b gpu.Backend, c gpu.Candidate, shape gemm.Shape, bufs *device.BufferSet, it Iterations) (result Result, err error) {
	if err := it.Validate(); err != nil {
		return Result{}, err
	}
	log := h.logger.With(zap.String("backend", b.Name()), zap.Int("candidate", c.Index), zap.Stringer("shape", shape))

	release, err := b.Acquire(c, shape)
	if err != nil {
		if gemm.KindOf(err) == gemm.KindUnknown {
			err = gemm.NewResourceError(b.Name(), "acquire", err)
		}
		return Result{}, err
	}
	defer func() {
		if rerr := release(); rerr != nil {
			log.Warn("Failed to release measurement resources", zap.Error(rerr))
			if err == nil {
				result, err = Result{}, gemm.NewResourceError(b.Name(), "release", rerr)
			}
		}
	}()

	dev := b.Device()
	for i := 0; i < it.Warmup; i++ {
		if err := b.ExecuteCandidate(c, shape, bufs); err != nil {
			return Result{}, h.abort(b, "warmup", err)
		}
	}
	if err := dev.Synchronize(); err != nil {
		return Result{}, executionFailure(b, "warmup", err)
	}

	start := h.clock.Now()
	for i := 0; i < it.Bench; i++ {
		if err := b.ExecuteCandidate(c, shape, bufs); err != nil {
			return Result{}, h.abort(b, "measure", err)
		}
	}
	if err := dev.Synchronize(); err != nil {
		return Result{}, executionFailure(b, "measure", err)
	}
	elapsed := h.clock.Now().Sub(start)

	m, err := gemm.Throughput(shape, gemm.Sample{Elapsed: elapsed, Iterations: it.Bench})
	if err != nil {
		return Result{}, err
	}
	result = Result{
		Shape:         shape,
		Backend:       b.Name(),
		Candidate:     c.Index,
		CandidateName: c.Name,
		Iterations:    it.Bench,
		AvgTime:       m.AvgTime,
		Throughput:    m.Throughput,
	}
	log.Debug("Measured candidate",
		zap.Duration("avg_time", result.AvgTime),
		zap.Float64("tops", result.Throughput))
	return result, nil
}

// abort drains work already queued so release never frees memory a kernel
// is still using, then reports the submission failure.
func (h *Harness) abort(b gpu.Backend, phase string, err error) error {
	if syncErr := b.Device().Synchronize(); syncErr != nil {
		err = multierr.Append(err, syncErr)
	}
	return executionFailure(b, phase, err)
}

func executionFailure(b gpu.Backend, phase string, err error) error {
	if gemm.KindOf(err) == gemm.KindExecution {
		return err
	}
	return gemm.NewExecutionError(b.Name(), phase, "failed", err)
}
