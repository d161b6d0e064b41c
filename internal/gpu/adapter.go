package gpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/fxnlabs/gemmbench/internal/device"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/fxnlabs/gemmbench/internal/timing"
	"go.uber.org/zap"
)

var errNotInitialized = errors.New("backend not initialized")

// adapter carries the state every backend shares: its identity, the device
// it submits to and the arena of its last enumeration.
type adapter[H any] struct {
	name        string
	kind        Kind
	dev         device.Device
	logger      *zap.Logger
	clock       timing.Clock
	arena       arena[H]
	initialized bool
}

func newAdapter[H any](name string, kind Kind, opts Options) adapter[H] {
	return adapter[H]{
		name:   name,
		kind:   kind,
		dev:    opts.Device,
		logger: opts.Logger.With(zap.String("backend", name)),
		clock:  opts.Clock,
	}
}

func (a *adapter[H]) Name() string {
	return a.name
}

func (a *adapter[H]) Kind() Kind {
	return a.kind
}

func (a *adapter[H]) Device() device.Device {
	return a.dev
}

func (a *adapter[H]) DeviceInfo() device.Info {
	if a.dev == nil {
		return device.Info{Name: "No device"}
	}
	return a.dev.Info()
}

func (a *adapter[H]) IsAvailable() bool {
	return a.dev != nil
}

// resolve maps a candidate back to its handle and checks the buffers belong
// to the same shape. Every failure is an ExecutionFailure.
func (a *adapter[H]) resolve(c Candidate, shape gemm.Shape, bufs *device.BufferSet) (H, error) {
	var zero H
	if !a.initialized {
		return zero, gemm.NewExecutionError(a.name, "execute", "not initialized", errNotInitialized)
	}
	h, err := a.arena.lookup(c, shape)
	if err != nil {
		return zero, gemm.NewExecutionError(a.name, "execute", "invalid candidate", err)
	}
	if !bufs.Matches(shape) {
		return zero, gemm.NewExecutionError(a.name, "execute", "buffer mismatch",
			fmt.Errorf("buffers do not match %s", shape))
	}
	return h, nil
}

// submit enqueues kernel on the device, tagging kernel failures with the
// backend name so they stay attributable after Synchronize.
func (a *adapter[H]) submit(kernel func() error) error {
	err := a.dev.Submit(func() error {
		if err := kernel(); err != nil {
			return gemm.NewExecutionError(a.name, "kernel", "failed", err)
		}
		return nil
	})
	if err != nil {
		return gemm.NewExecutionError(a.name, "submit", "rejected", err)
	}
	return nil
}

// noAcquire is the Acquire of backends whose candidates need nothing beyond
// the backend-level workspace.
func (a *adapter[H]) noAcquire(c Candidate, shape gemm.Shape) (func() error, error) {
	if !a.initialized {
		return nil, gemm.NewResourceError(a.name, "acquire", errNotInitialized)
	}
	if _, err := a.arena.lookup(c, shape); err != nil {
		return nil, gemm.NewResourceError(a.name, "acquire", err)
	}
	return func() error { return nil }, nil
}

// simpleExecute runs the first candidate of b once and times it from
// submission to synchronization. A failed release turns a successful run
// into a ResourceError.
func simpleExecute(b Backend, clock timing.Clock, shape gemm.Shape, bufs *device.BufferSet) (elapsed time.Duration, err error) {
	candidates, err := b.EnumerateCandidates(shape, 1)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, gemm.NewNoAlgorithmError(b.Name(), shape)
	}
	release, err := b.Acquire(candidates[0], shape)
	if err != nil {
		return 0, err
	}
	defer func() {
		if rerr := release(); rerr != nil && err == nil {
			elapsed, err = 0, gemm.NewResourceError(b.Name(), "release", rerr)
		}
	}()

	if err := b.Device().Synchronize(); err != nil {
		return 0, gemm.NewExecutionError(b.Name(), "synchronize", "pending work failed", err)
	}
	start := clock.Now()
	if err := b.ExecuteCandidate(candidates[0], shape, bufs); err != nil {
		return 0, err
	}
	if err := b.Device().Synchronize(); err != nil {
		return 0, gemm.NewExecutionError(b.Name(), "synchronize", "kernel failed", err)
	}
	return clock.Now().Sub(start), nil
}
