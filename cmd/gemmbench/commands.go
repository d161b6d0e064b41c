package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/fxnlabs/gemmbench/internal/app"
	"github.com/fxnlabs/gemmbench/internal/bench"
	"github.com/fxnlabs/gemmbench/internal/config"
	"github.com/fxnlabs/gemmbench/internal/device"
	"github.com/fxnlabs/gemmbench/internal/gpu"
	"github.com/fxnlabs/gemmbench/internal/report"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type (
	sweepFunc  func(ctx context.Context, b *app.Benchmark) ([]bench.ShapeReport, error)
	reportFunc func(w io.Writer, reports []bench.ShapeReport, b *app.Benchmark) error
)

func runAll(ctx context.Context, b *app.Benchmark) ([]bench.ShapeReport, error) {
	return b.Run(ctx)
}

func runQuick(ctx context.Context, b *app.Benchmark) ([]bench.ShapeReport, error) {
	return b.Quick(ctx)
}

func writeReport(w io.Writer, reports []bench.ShapeReport, b *app.Benchmark) error {
	return b.Reporter.Report(w, reports)
}

func runCommand(cfg **config.Config, log **zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Measure every candidate of every backend and rank them per shape",
		Flags: sweepFlags(),
		Action: func(c *cli.Context) error {
			return sweep(c, *cfg, *log, runAll, writeReport)
		},
	}
}

func quickCommand(cfg **config.Config, log **zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "quick",
		Usage: "Run each backend's default candidate once per shape",
		Flags: sweepFlags(),
		Action: func(c *cli.Context) error {
			return sweep(c, *cfg, *log, runQuick, writeReport)
		},
	}
}

func compareCommand(cfg **config.Config, log **zap.Logger) *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Measure two backends and print how much faster the better one is per shape",
		ArgsUsage: "BACKEND BACKEND",
		Flags:     sweepFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("compare needs exactly two backends, got %d", c.NArg())
			}
			names := c.Args().Slice()
			(*cfg).Backends = selectBackends(*cfg, names)
			return sweep(c, *cfg, *log, runAll, func(w io.Writer, reports []bench.ShapeReport, _ *app.Benchmark) error {
				return writeComparisons(w, reports, names[0], names[1])
			})
		},
	}
}

// writeComparisons compares the best candidate of each backend, shape by shape.
func writeComparisons(w io.Writer, reports []bench.ShapeReport, first, second string) error {
	for _, r := range reports {
		a, okA := bestOf(r.Results, first)
		b, okB := bestOf(r.Results, second)
		if !okA || !okB {
			fmt.Fprintf(w, "%s: no result for both %s and %s (%d failures)\n", r.Shape, first, second, len(r.Failures))
			continue
		}
		cmp, err := report.Compare(a, b)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %s\n", r.Shape, cmp)
	}
	return nil
}

func bestOf(results []bench.Result, backend string) (bench.Result, bool) {
	var own []bench.Result
	for _, r := range results {
		if r.Backend == backend {
			own = append(own, r)
		}
	}
	return report.Rank(own).Best()
}

func sweep(c *cli.Context, cfg *config.Config, log *zap.Logger, run sweepFunc, write reportFunc) error {
	if err := applyFlags(c, cfg); err != nil {
		return err
	}
	if cfg.Report.Format == "" || cfg.Report.Format == "table" {
		figure.NewFigure("gemmbench", "", true).Print()
		fmt.Println()
	}

	var b *app.Benchmark
	opts := []fx.Option{fx.Populate(&b)}
	if !c.Bool("no-progress") {
		opts = append(opts, app.Observer(newProgress(os.Stderr)))
	}
	fxApp := app.New(cfg, log, opts...)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := fxApp.Start(ctx); err != nil {
		return err
	}

	reports, runErr := run(ctx, b)
	if len(reports) > 0 {
		runErr = multierr.Append(runErr, write(os.Stdout, reports, b))
	}
	return multierr.Append(runErr, fxApp.Stop(context.Background()))
}

func devicesCommand(cfg **config.Config, log **zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "Print the compute device properties and which backends can run on it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "output format: table, json or yaml"},
		},
		Action: func(c *cli.Context) error {
			format := (*cfg).Report.Format
			if c.IsSet("format") {
				format = c.String("format")
			}
			r, err := inspectDevice(*cfg, *log)
			if err != nil {
				return err
			}
			return report.WriteDevice(os.Stdout, format, r)
		},
	}
}

// inspectDevice opens the configured device and tries every registered
// backend on it.
func inspectDevice(cfg *config.Config, log *zap.Logger) (r report.DeviceReport, err error) {
	var dev device.Device
	if cfg.Device.Type == config.DeviceCUDA {
		cuda, err := device.NewCUDADevice(log, cfg.Device.Ordinal)
		if err != nil {
			return r, err
		}
		dev = cuda
	} else {
		dev = device.NewHostDevice(log, int64(cfg.Device.MemoryLimit))
		r.CPUFeatures = device.CPUFeatures()
	}
	defer func() { err = multierr.Append(err, dev.Close()) }()

	r.Device = dev.Info()
	for _, name := range gpu.Names() {
		r.Backends = append(r.Backends, probe(name, dev, cfg, log))
	}
	return r, nil
}

func probe(name string, dev device.Device, cfg *config.Config, log *zap.Logger) report.BackendStatus {
	status := report.BackendStatus{Name: name}
	b, err := gpu.New(name, gpu.Options{Device: dev, Logger: log, WorkspaceBytes: int64(cfg.Device.WorkspaceBytes)})
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Kind = b.Kind().String()
	if !b.IsAvailable() {
		status.Error = "not available"
		return status
	}
	if err := multierr.Append(b.Initialize(), b.Cleanup()); err != nil {
		status.Error = err.Error()
		return status
	}
	status.Ready = true
	return status
}
