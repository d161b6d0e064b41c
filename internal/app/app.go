// Package app wires the benchmark components together with fx.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"

	"github.com/fxnlabs/gemmbench/internal/bench"
	"github.com/fxnlabs/gemmbench/internal/config"
	"github.com/fxnlabs/gemmbench/internal/device"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/fxnlabs/gemmbench/internal/gpu"
	"github.com/fxnlabs/gemmbench/internal/metrics"
	"github.com/fxnlabs/gemmbench/internal/report"
	"github.com/fxnlabs/gemmbench/internal/timing"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// ObserverGroup collects every bench.Observer handed to the sweep.
const ObserverGroup = `group:"observers"`

// Module provides everything needed to run a sweep. The caller supplies
// *config.Config and *zap.Logger.
var Module = fx.Module("gemmbench",
	fx.Provide(
		timing.Real,
		NewDevice,
		NewGenerator,
		NewManager,
		prometheus.NewRegistry,
		NewMetrics,
		fx.Annotate(func(m *metrics.Metrics) bench.Observer { return m }, fx.ResultTags(ObserverGroup)),
		NewSweep,
		NewReporter,
		NewBenchmark,
	),
	fx.Invoke(RegisterMetricsServer),
)

// New builds the application for cfg. Extra options can add observers or
// populate components.
func New(cfg *config.Config, log *zap.Logger, opts ...fx.Option) *fx.App {
	return fx.New(Options(cfg, log, opts...))
}

// Options is New without the app, for fxtest.
func Options(cfg *config.Config, log *zap.Logger, opts ...fx.Option) fx.Option {
	return fx.Options(
		fx.Supply(cfg, log),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		Module,
		fx.Options(opts...),
	)
}

// Observer adapts o for fx.Provide into the sweep's observer group.
func Observer(o bench.Observer) fx.Option {
	return fx.Provide(fx.Annotate(func() bench.Observer { return o }, fx.ResultTags(ObserverGroup)))
}

// NewDevice opens the configured device and closes it on stop.
func NewDevice(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (device.Device, error) {
	var dev device.Device
	switch cfg.Device.Type {
	case config.DeviceHost:
		dev = device.NewHostDevice(log, int64(cfg.Device.MemoryLimit))
	case config.DeviceCUDA:
		cuda, err := device.NewCUDADevice(log, cfg.Device.Ordinal)
		if err != nil {
			return nil, err
		}
		dev = cuda
	default:
		return nil, fmt.Errorf("unknown device type %q", cfg.Device.Type)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return dev.Close()
		},
	})
	return dev, nil
}

func NewGenerator(cfg *config.Config) *device.Generator {
	return device.NewGenerator(cfg.Benchmark.Seed)
}

// NewManager initializes the enabled backends on dev. Cleanup runs on stop,
// before the device is closed.
func NewManager(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, dev device.Device, clock timing.Clock) (*gpu.Manager, error) {
	var names []string
	for _, b := range cfg.EnabledBackends() {
		names = append(names, b.Name)
	}
	manager, err := gpu.NewManager(log.Named("backends"), names, func(name string) gpu.Options {
		b, _ := cfg.Backend(name)
		return gpu.Options{
			Device:         dev,
			Logger:         log,
			Clock:          clock,
			WorkspaceBytes: int64(cfg.Device.WorkspaceBytes),
			Latencies:      b.Latency,
		}
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return manager.Cleanup()
		},
	})
	return manager, nil
}

func NewMetrics(reg *prometheus.Registry) *metrics.Metrics {
	return metrics.New(reg)
}

type SweepParams struct {
	fx.In

	Config    *config.Config
	Logger    *zap.Logger
	Device    device.Device
	Manager   *gpu.Manager
	Generator *device.Generator
	Clock     timing.Clock
	Observers []bench.Observer `group:"observers"`
}

func NewSweep(p SweepParams) (*bench.Sweep, error) {
	return bench.NewSweep(p.Logger, bench.SweepConfig{
		Device:    p.Device,
		Backends:  p.Manager.Backends(),
		Generator: p.Generator,
		Clock:     p.Clock,
		Options:   p.Config.Options(),
		Overrides: p.Config.Overrides(),
		Observer:  bench.Observers(p.Observers),
	})
}

func NewReporter(cfg *config.Config) (report.Reporter, error) {
	return report.New(cfg.Report.Format, cfg.References)
}

// RegisterMetricsServer serves /metrics on metrics.listenAddress for the
// lifetime of the app. An empty address disables it.
func RegisterMetricsServer(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, reg *prometheus.Registry, m *metrics.Metrics) {
	addr := cfg.Metrics.ListenAddress
	if addr == "" {
		return
	}
	log = log.Named("metrics")
	srv := &http.Server{Handler: metrics.Handler(reg, m)}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			log.Info("Serving metrics", zap.String("address", ln.Addr().String()))
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Metrics server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

// Benchmark is the entry point used by the commands.
type Benchmark struct {
	Config   *config.Config
	Device   device.Device
	Manager  *gpu.Manager
	Sweep    *bench.Sweep
	Reporter report.Reporter
}

func NewBenchmark(cfg *config.Config, dev device.Device, manager *gpu.Manager, sweep *bench.Sweep, reporter report.Reporter) *Benchmark {
	return &Benchmark{Config: cfg, Device: dev, Manager: manager, Sweep: sweep, Reporter: reporter}
}

// Run measures every configured shape. Backends that failed to initialize
// appear as a resource failure in every shape report.
func (b *Benchmark) Run(ctx context.Context) ([]bench.ShapeReport, error) {
	reports, err := b.Sweep.Run(ctx, b.Config.Shapes)
	return b.withBackendFailures(reports), err
}

// Quick runs the single-shot probe over every configured shape.
func (b *Benchmark) Quick(ctx context.Context) ([]bench.ShapeReport, error) {
	reports, err := b.Sweep.Quick(ctx, b.Config.Shapes)
	return b.withBackendFailures(reports), err
}

func (b *Benchmark) withBackendFailures(reports []bench.ShapeReport) []bench.ShapeReport {
	failures := b.Manager.Failures()
	if len(failures) == 0 {
		return reports
	}
	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)
	for i := range reports {
		for _, name := range names {
			err := failures[name]
			if gemm.KindOf(err) == gemm.KindUnknown {
				err = gemm.NewResourceError(name, "initialize", err)
			}
			reports[i].Failures = append(reports[i].Failures, bench.NewFailure(reports[i].Shape, name, bench.NoCandidate, err))
		}
	}
	return reports
}
