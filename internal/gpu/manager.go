package gpu

import (
	"fmt"
	"sync"

	"github.com/fxnlabs/gemmbench/internal/gemm"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Manager owns the lifecycle of the configured backends. A backend that
// fails to construct or initialize is recorded and skipped; the rest of
// the run continues without it.
type Manager struct {
	mu       sync.RWMutex
	logger   *zap.Logger
	backends []Backend
	failures map[string]error
}

// NewManager creates and initializes the named backends in order. It
// fails only if none of them could be brought up.
func NewManager(logger *zap.Logger, names []string, opts func(name string) Options) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{logger: logger, failures: make(map[string]error)}
	for _, name := range names {
		backend, err := New(name, opts(name))
		if err != nil {
			m.fail(name, err)
			continue
		}
		if err := m.Add(backend); err != nil {
			m.fail(name, err)
		}
	}
	if len(m.backends) == 0 {
		var err error
		for _, name := range names {
			err = multierr.Append(err, m.failures[name])
		}
		return nil, fmt.Errorf("no backend available: %w", err)
	}
	return m, nil
}

// Add initializes b and puts it under management.
func (m *Manager) Add(b Backend) error {
	if !b.IsAvailable() {
		return gemm.NewResourceError(b.Name(), "initialize", fmt.Errorf("not available"))
	}
	if err := b.Initialize(); err != nil {
		_ = b.Cleanup()
		if gemm.KindOf(err) == gemm.KindUnknown {
			err = gemm.NewResourceError(b.Name(), "initialize", err)
		}
		return err
	}
	info := b.DeviceInfo()
	m.logger.Info("Backend ready",
		zap.String("backend", b.Name()),
		zap.Stringer("kind", b.Kind()),
		zap.String("device", info.Name))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.backends = append(m.backends, b)
	return nil
}

func (m *Manager) fail(name string, err error) {
	m.logger.Warn("Backend unavailable", zap.String("backend", name), zap.Error(err))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[name] = err
}

// Backends returns the initialized backends in configuration order.
func (m *Manager) Backends() []Backend {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Backend(nil), m.backends...)
}

// Get returns the backend called name.
func (m *Manager) Get(name string) (Backend, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.backends {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

// Failures returns the construction and initialization errors by backend.
func (m *Manager) Failures() map[string]error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]error, len(m.failures))
	for k, v := range m.failures {
		out[k] = v
	}
	return out
}

// Cleanup releases every backend in reverse initialization order.
func (m *Manager) Cleanup() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var err error
	for i := len(m.backends) - 1; i >= 0; i-- {
		if cerr := m.backends[i].Cleanup(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", m.backends[i].Name(), cerr))
		}
	}
	m.backends = nil
	return err
}
