package main

import (
	"fmt"

	"github.com/fxnlabs/gemmbench/internal/config"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/urfave/cli/v2"
)

func sweepFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "warmup", Usage: "warmup iterations per candidate"},
		&cli.IntFlag{Name: "iters", Usage: "timed iterations per candidate"},
		&cli.IntFlag{Name: "max-candidates", Aliases: []string{"k"}, Usage: "candidates requested from heuristic backends"},
		&cli.StringSliceFlag{Name: "shape", Aliases: []string{"s"}, Usage: "problem size `MxNxK`, repeatable; replaces the configured shapes"},
		&cli.StringFlag{Name: "element-type", Aliases: []string{"t"}, Usage: "element type of --shape: f32, f16 or bf16 (default f16 on cuda, f32 on host)"},
		&cli.StringFlag{Name: "layout", Value: "col", Usage: "layout of --shape: col or row"},
		&cli.StringSliceFlag{Name: "backend", Aliases: []string{"b"}, Usage: "backend `NAME` to run, repeatable; replaces the enabled backends"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "report format: table, json or yaml"},
		&cli.StringFlag{Name: "metrics-address", Usage: "serve Prometheus metrics on `ADDR` while running"},
		&cli.BoolFlag{Name: "no-progress", Usage: "do not draw the progress bar"},
	}
}

// applyFlags overrides cfg with the flags that were set and validates the result.
func applyFlags(c *cli.Context, cfg *config.Config) error {
	if c.IsSet("warmup") {
		cfg.Benchmark.WarmupIters = c.Int("warmup")
	}
	if c.IsSet("iters") {
		cfg.Benchmark.BenchIters = c.Int("iters")
	}
	if c.IsSet("max-candidates") {
		cfg.Benchmark.MaxCandidates = c.Int("max-candidates")
	}
	if c.IsSet("format") {
		cfg.Report.Format = c.String("format")
	}
	if c.IsSet("metrics-address") {
		cfg.Metrics.ListenAddress = c.String("metrics-address")
	}
	if c.IsSet("shape") {
		elementType := c.String("element-type")
		if elementType == "" {
			elementType = defaultElementType(cfg.Device.Type)
		}
		shapes, err := parseShapes(c.StringSlice("shape"), elementType, c.String("layout"))
		if err != nil {
			return err
		}
		cfg.Shapes = shapes
	}
	if c.IsSet("backend") {
		cfg.Backends = selectBackends(cfg, c.StringSlice("backend"))
	}
	return cfg.Validate()
}

func defaultElementType(deviceType string) string {
	if deviceType == config.DeviceCUDA {
		return gemm.Float16.String()
	}
	return gemm.Float32.String()
}

func parseShapes(dims []string, elementType, layout string) ([]gemm.Shape, error) {
	et, err := gemm.ParseElementType(elementType)
	if err != nil {
		return nil, err
	}
	l, err := gemm.ParseLayout(layout)
	if err != nil {
		return nil, err
	}
	shapes := make([]gemm.Shape, 0, len(dims))
	for _, d := range dims {
		m, n, k, err := gemm.ParseDims(d)
		if err != nil {
			return nil, err
		}
		s, err := gemm.NewShape(m, n, k, et, l)
		if err != nil {
			return nil, fmt.Errorf("--shape %s: %w", d, err)
		}
		shapes = append(shapes, s)
	}
	return shapes, nil
}

// selectBackends keeps the configured settings of the named backends and
// enables exactly those, in the order given.
func selectBackends(cfg *config.Config, names []string) []config.Backend {
	enabled := true
	selected := make([]config.Backend, 0, len(names))
	for _, name := range names {
		b, ok := cfg.Backend(name)
		if !ok {
			b = config.Backend{Name: name}
		}
		b.Enabled = &enabled
		selected = append(selected, b)
	}
	return selected
}
