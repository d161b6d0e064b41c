package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fxnlabs/gemmbench/internal/bench"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/fxnlabs/gemmbench/internal/gpu"
	"github.com/fxnlabs/gemmbench/internal/report"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath   = "gemmbench.yaml"
	DefaultSeed   = 42
	DeviceHost    = "host"
	DeviceCUDA    = "cuda"
	DefaultFormat = "table"
)

// ByteSize is a byte count written either as an integer or in humanized form
// ("32MiB", "8 GB").
type ByteSize int64

func (b ByteSize) MarshalText() ([]byte, error) {
	return []byte(humanize.IBytes(uint64(b))), nil
}

func (b *ByteSize) UnmarshalText(text []byte) error {
	n, err := humanize.ParseBytes(string(text))
	if err != nil {
		return fmt.Errorf("invalid byte size %q: %w", text, err)
	}
	*b = ByteSize(n)
	return nil
}

type Config struct {
	Logger struct {
		Verbosity string `yaml:"verbosity"`
		Encoding  string `yaml:"encoding"`
	} `yaml:"logger"`
	Device struct {
		Type    string `yaml:"type"`
		Ordinal int    `yaml:"ordinal"`

		// MemoryLimit of the host device; zero means available system memory.
		MemoryLimit    ByteSize `yaml:"memoryLimit"`
		WorkspaceBytes ByteSize `yaml:"workspaceBytes"`
	} `yaml:"device"`
	Benchmark struct {
		WarmupIters   int   `yaml:"warmupIters"`
		BenchIters    int   `yaml:"benchIters"`
		MaxCandidates int   `yaml:"maxCandidates"`
		Seed          int64 `yaml:"seed"`
	} `yaml:"benchmark"`
	Shapes     []gemm.Shape       `yaml:"shapes"`
	Backends   []Backend          `yaml:"backends"`
	References []report.Reference `yaml:"references"`

	Metrics struct {
		ListenAddress string `yaml:"listenAddress"`
	} `yaml:"metrics"`
	Report struct {
		Format string `yaml:"format"`
	} `yaml:"report"`
}

// Backend enables one backend and optionally overrides the sweep-wide
// iteration counts for it.
type Backend struct {
	Name        string          `yaml:"name"`
	Enabled     *bool           `yaml:"enabled,omitempty"`
	WarmupIters int             `yaml:"warmupIters,omitempty"`
	BenchIters  int             `yaml:"benchIters,omitempty"`
	Candidates  int             `yaml:"candidates,omitempty"` // overrides benchmark.maxCandidates
	Latency     []time.Duration `yaml:"latency,omitempty"`    // sim backend only, one entry per candidate
}

// IsEnabled defaults to true when the key is absent.
func (b Backend) IsEnabled() bool {
	return b.Enabled == nil || *b.Enabled
}

func (b Backend) Overrides() bench.Overrides {
	return bench.Overrides{WarmupIters: b.WarmupIters, BenchIters: b.BenchIters, MaxCandidates: b.Candidates}
}

// DefaultShapes is the classic square sweep plus one rectangular problem.
// CUDA sweeps it in f16 column-major. The host backends only run f32 at a
// useful rate, so the host gets f32 and a ladder that stops at 2048.
func DefaultShapes(deviceType string) []gemm.Shape {
	et := gemm.Float16
	dims := [][3]int{{1024, 1024, 1024}, {2048, 2048, 2048}, {4096, 4096, 4096}, {8192, 8192, 8192}, {2048, 4096, 2048}}
	if deviceType != DeviceCUDA {
		et = gemm.Float32
		dims = [][3]int{{256, 256, 256}, {512, 512, 512}, {1024, 1024, 1024}, {2048, 2048, 2048}, {1024, 2048, 1024}}
	}
	shapes := make([]gemm.Shape, 0, len(dims))
	for _, d := range dims {
		shapes = append(shapes, gemm.Shape{M: d[0], N: d[1], K: d[2], ElementType: et, Layout: gemm.ColumnMajor})
	}
	return shapes
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	var c Config
	c.Logger.Verbosity = "info"
	c.Logger.Encoding = "json"
	c.Device.Type = DeviceHost
	c.Device.WorkspaceBytes = ByteSize(gpu.DefaultWorkspaceBytes)
	c.Benchmark.WarmupIters = bench.DefaultWarmupIters
	c.Benchmark.BenchIters = bench.DefaultBenchIters
	c.Benchmark.MaxCandidates = bench.DefaultMaxCandidates
	c.Benchmark.Seed = DefaultSeed
	c.Shapes = DefaultShapes(c.Device.Type)
	c.Backends = []Backend{{Name: "naive"}, {Name: "blas"}, {Name: "tiled"}}
	c.Report.Format = DefaultFormat
	return &c
}

// LoadConfig reads path over the defaults. Keys absent from the file keep
// their default value; lists present in the file replace the default list.
// Without a shapes key the default shapes follow device.type.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := Default()
	config.Shapes = nil
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, err
	}
	if config.Shapes == nil {
		config.Shapes = DefaultShapes(config.Device.Type)
	}

	return config, nil
}

// Options is the sweep-wide measurement protocol.
func (c *Config) Options() bench.Options {
	return bench.Options{
		Iterations:    bench.Iterations{Warmup: c.Benchmark.WarmupIters, Bench: c.Benchmark.BenchIters},
		MaxCandidates: c.Benchmark.MaxCandidates,
	}
}

// EnabledBackends returns the enabled backend entries in configuration order.
func (c *Config) EnabledBackends() []Backend {
	var enabled []Backend
	for _, b := range c.Backends {
		if b.IsEnabled() {
			enabled = append(enabled, b)
		}
	}
	return enabled
}

// Backend returns the entry named name.
func (c *Config) Backend(name string) (Backend, bool) {
	for _, b := range c.Backends {
		if b.Name == name {
			return b, true
		}
	}
	return Backend{}, false
}

// Overrides collects the per-backend overrides keyed by backend name.
func (c *Config) Overrides() map[string]bench.Overrides {
	overrides := make(map[string]bench.Overrides)
	for _, b := range c.EnabledBackends() {
		if ov := b.Overrides(); ov != (bench.Overrides{}) {
			overrides[b.Name] = ov
		}
	}
	return overrides
}

// Validate reports every problem found, not just the first.
func (c *Config) Validate() error {
	var errs error
	switch c.Device.Type {
	case DeviceHost, DeviceCUDA:
	default:
		errs = multierr.Append(errs, fmt.Errorf("device.type: unknown device %q", c.Device.Type))
	}
	if c.Device.MemoryLimit < 0 {
		errs = multierr.Append(errs, fmt.Errorf("device.memoryLimit: must not be negative"))
	}
	if c.Device.WorkspaceBytes <= 0 {
		errs = multierr.Append(errs, fmt.Errorf("device.workspaceBytes: must be positive, got %d", c.Device.WorkspaceBytes))
	}
	if err := c.Options().Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("benchmark: %w", err))
	}
	if len(c.Shapes) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("shapes: at least one shape is required"))
	}
	for i, s := range c.Shapes {
		if err := s.Validate(); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("shapes[%d]: %w", i, err))
		}
	}
	errs = multierr.Append(errs, c.validateBackends())
	if !slices.Contains(report.Formats, c.Report.Format) && c.Report.Format != "yml" && c.Report.Format != "" {
		errs = multierr.Append(errs, fmt.Errorf("report.format: unknown format %q", c.Report.Format))
	}
	return errs
}

func (c *Config) validateBackends() error {
	var errs error
	known := gpu.Names()
	seen := make(map[string]bool)
	for i, b := range c.Backends {
		switch {
		case !slices.Contains(known, b.Name):
			errs = multierr.Append(errs, fmt.Errorf("backends[%d]: unknown backend %q, want one of %v", i, b.Name, known))
		case seen[b.Name]:
			errs = multierr.Append(errs, fmt.Errorf("backends[%d]: duplicate backend %q", i, b.Name))
		}
		seen[b.Name] = true
		if b.WarmupIters < 0 || b.BenchIters < 0 || b.Candidates < 0 {
			errs = multierr.Append(errs, fmt.Errorf("backends[%d]: overrides must not be negative", i))
		}
		for _, l := range b.Latency {
			if l <= 0 {
				errs = multierr.Append(errs, fmt.Errorf("backends[%d]: latency must be positive, got %v", i, l))
			}
		}
	}
	if len(c.EnabledBackends()) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("backends: no backend enabled"))
	}
	return errs
}
