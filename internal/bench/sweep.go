package bench

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fxnlabs/gemmbench/internal/device"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/fxnlabs/gemmbench/internal/gpu"
	"github.com/fxnlabs/gemmbench/internal/timing"
	"go.uber.org/zap"
)

// SweepConfig wires a sweep to its collaborators.
type SweepConfig struct {
	Device    device.Device
	Backends  []gpu.Backend
	Generator *device.Generator
	Clock     timing.Clock
	Options   Options
	// Overrides are keyed by backend name.
	Overrides map[string]Overrides
	Observer  Observer
}

// Sweep drives every backend over every shape from a single goroutine.
// Failures are recorded per shape and never stop the sweep; only context
// cancellation does, and only between measurements.
type Sweep struct {
	logger    *zap.Logger
	dev       device.Device
	backends  []gpu.Backend
	gen       *device.Generator
	clock     timing.Clock
	opts      Options
	overrides map[string]Overrides
	observer  Observer
	enum      *Enumerator
	harness   *Harness
}

func NewSweep(logger *zap.Logger, cfg SweepConfig) (*Sweep, error) {
	if cfg.Device == nil {
		return nil, fmt.Errorf("sweep: no device")
	}
	if err := cfg.Options.Validate(); err != nil {
		return nil, fmt.Errorf("sweep: %w", err)
	}
	for name, ov := range cfg.Overrides {
		if err := cfg.Options.with(ov).Validate(); err != nil {
			return nil, fmt.Errorf("sweep: backend %s: %w", name, err)
		}
	}
	if cfg.Generator == nil {
		cfg.Generator = device.NewGenerator(0)
	}
	if cfg.Clock == nil {
		cfg.Clock = timing.Real()
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	return &Sweep{
		logger:    logger.Named("sweep"),
		dev:       cfg.Device,
		backends:  cfg.Backends,
		gen:       cfg.Generator,
		clock:     cfg.Clock,
		opts:      cfg.Options,
		overrides: cfg.Overrides,
		observer:  cfg.Observer,
		enum:      NewEnumerator(logger),
		harness:   NewHarness(logger, cfg.Clock),
	}, nil
}

// Run measures every candidate of every backend for each shape in order.
// On cancellation it returns the reports gathered so far, the interrupted
// shape included, with ctx.Err().
func (s *Sweep) Run(ctx context.Context, shapes []gemm.Shape) ([]ShapeReport, error) {
	return s.each(ctx, shapes, s.measureBackend)
}

// Quick runs each backend's default candidate once per shape, synchronized,
// without warmup. It is a smoke test, not a measurement protocol.
func (s *Sweep) Quick(ctx context.Context, shapes []gemm.Shape) ([]ShapeReport, error) {
	return s.each(ctx, shapes, s.quickBackend)
}

type backendFunc func(ctx context.Context, b gpu.Backend, bufs *device.BufferSet, report *ShapeReport) error

func (s *Sweep) each(ctx context.Context, shapes []gemm.Shape, fn backendFunc) ([]ShapeReport, error) {
	reports := make([]ShapeReport, 0, len(shapes))
	for _, shape := range shapes {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := s.runShape(ctx, shape, fn)
		reports = append(reports, report)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

func (s *Sweep) runShape(ctx context.Context, shape gemm.Shape, fn backendFunc) (report ShapeReport, err error) {
	report = ShapeReport{Shape: shape}
	s.observer.ShapeStarted(shape, len(s.backends))
	defer func() { s.observer.ShapeFinished(report) }()

	bufs, allocErr := device.AllocateBuffers(s.dev, s.gen, shape)
	if allocErr != nil {
		s.logger.Error("Failed to allocate buffers", zap.Stringer("shape", shape), zap.Error(allocErr))
		for _, b := range s.backends {
			s.fail(&report, NewFailure(shape, b.Name(), NoCandidate, allocErr))
		}
		return report, nil
	}
	s.logger.Info("Benchmarking shape",
		zap.Stringer("shape", shape),
		zap.Float64("gflop", shape.Ops()/1e9),
		zap.String("buffers", humanize.IBytes(uint64(bufs.Bytes()))))
	defer func() {
		if ferr := bufs.Free(); ferr != nil {
			s.logger.Warn("Failed to free buffers", zap.Stringer("shape", shape), zap.Error(ferr))
		}
	}()

	for _, b := range s.backends {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if b.Device() != s.dev {
			s.fail(&report, NewFailure(shape, b.Name(), NoCandidate,
				gemm.NewResourceError(b.Name(), "bind", fmt.Errorf("backend runs on %s, buffers live on %s",
					b.DeviceInfo().Name, s.dev.Info().Name))))
			continue
		}
		if err := fn(ctx, b, bufs, &report); err != nil {
			return report, err
		}
	}
	return report, nil
}

func (s *Sweep) measureBackend(ctx context.Context, b gpu.Backend, bufs *device.BufferSet, report *ShapeReport) error {
	shape := report.Shape
	opts := s.opts.with(s.overrides[b.Name()])

	candidates, err := s.enum.Enumerate(b, shape, opts.MaxCandidates)
	if err != nil {
		s.fail(report, NewFailure(shape, b.Name(), NoCandidate, err))
		return nil
	}
	s.observer.CandidatesEnumerated(shape, b.Name(), len(candidates))

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.observer.MeasurementStarted(shape, b.Name(), c.Index)
		result, err := s.harness.Measure(b, c, shape, bufs, opts.Iterations)
		if err != nil {
			s.fail(report, NewFailure(shape, b.Name(), c.Index, err))
			continue
		}
		report.Results = append(report.Results, result)
		s.observer.MeasurementSucceeded(result)
	}
	return nil
}

func (s *Sweep) quickBackend(_ context.Context, b gpu.Backend, bufs *device.BufferSet, report *ShapeReport) error {
	shape := report.Shape
	s.observer.MeasurementStarted(shape, b.Name(), 0)
	elapsed, err := b.SimpleExecute(shape, bufs)
	if err != nil {
		s.fail(report, NewFailure(shape, b.Name(), NoCandidate, err))
		return nil
	}
	m, err := gemm.Throughput(shape, gemm.Sample{Elapsed: elapsed, Iterations: 1})
	if err != nil {
		s.fail(report, NewFailure(shape, b.Name(), 0, err))
		return nil
	}
	result := Result{
		Shape:         shape,
		Backend:       b.Name(),
		CandidateName: "default",
		Iterations:    1,
		AvgTime:       m.AvgTime,
		Throughput:    m.Throughput,
	}
	report.Results = append(report.Results, result)
	s.observer.MeasurementSucceeded(result)
	return nil
}

func (s *Sweep) fail(report *ShapeReport, f Failure) {
	s.logger.Warn("Measurement failed",
		zap.String("backend", f.Backend),
		zap.Int("candidate", f.Candidate),
		zap.Stringer("shape", f.Shape),
		zap.Stringer("kind", f.Kind),
		zap.String("error", f.Message))
	report.Failures = append(report.Failures, f)
	s.observer.MeasurementFailed(f)
}
