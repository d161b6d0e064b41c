package gpu

import (
	"fmt"
	"time"

	"github.com/fxnlabs/gemmbench/internal/device"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"go.uber.org/zap"
)

// SimBackend does no arithmetic: every invocation sleeps for its
// candidate's latency on the backend clock. With a manual clock the
// measured times are exact, which makes it the harness's calibration
// target. One latency makes it fixed-algorithm, several make it
// heuristic-enumerated.
type SimBackend struct {
	adapter[time.Duration]
	latencies []time.Duration
}

// DefaultSimLatency is used when no latencies are configured.
const DefaultSimLatency = time.Millisecond

// NewSimBackend creates a simulated backend. It runs on any device.
func NewSimBackend(opts Options) (*SimBackend, error) {
	opts = opts.withDefaults()
	if opts.Device == nil {
		return nil, gemm.NewResourceError("sim", "create", fmt.Errorf("no device"))
	}
	latencies := opts.Latencies
	if len(latencies) == 0 {
		latencies = []time.Duration{DefaultSimLatency}
	}
	for i, l := range latencies {
		if l <= 0 {
			return nil, gemm.NewResourceError("sim", "create", fmt.Errorf("latency %d is %v, must be positive", i, l))
		}
	}
	kind := FixedAlgorithm
	if len(latencies) > 1 {
		kind = HeuristicEnumerated
	}
	return &SimBackend{
		adapter:   newAdapter[time.Duration]("sim", kind, opts),
		latencies: append([]time.Duration(nil), latencies...),
	}, nil
}

func (s *SimBackend) Initialize() error {
	s.initialized = true
	s.logger.Info("Simulated backend initialized", zap.Durations("latencies", s.latencies))
	return nil
}

func (s *SimBackend) Cleanup() error {
	s.initialized = false
	return nil
}

// EnumerateCandidates returns the configured latencies in configuration
// order, truncated to limit for the heuristic form.
func (s *SimBackend) EnumerateCandidates(shape gemm.Shape, limit int) ([]Candidate, error) {
	if err := shape.Validate(); err != nil {
		return nil, gemm.NewResourceError(s.name, "enumerate", err)
	}
	s.arena.reset(shape)
	n := len(s.latencies)
	if s.kind == HeuristicEnumerated && limit < n {
		n = max(limit, 0)
	}
	candidates := make([]Candidate, 0, n)
	for _, l := range s.latencies[:n] {
		candidates = append(candidates, s.arena.add(s.name, l, fmt.Sprintf("sleep %v", l), 0, l.Seconds()))
	}
	return candidates, nil
}

func (s *SimBackend) Acquire(c Candidate, shape gemm.Shape) (func() error, error) {
	return s.noAcquire(c, shape)
}

func (s *SimBackend) ExecuteCandidate(c Candidate, shape gemm.Shape, bufs *device.BufferSet) error {
	latency, err := s.resolve(c, shape, bufs)
	if err != nil {
		return err
	}
	return s.submit(func() error {
		s.clock.Sleep(latency)
		return nil
	})
}

func (s *SimBackend) SimpleExecute(shape gemm.Shape, bufs *device.BufferSet) (time.Duration, error) {
	return simpleExecute(s, s.clock, shape, bufs)
}

var _ Backend = (*SimBackend)(nil)
