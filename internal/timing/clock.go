// Package timing provides the wall clock used by the harness, with a manual
// implementation for deterministic tests and simulated backends.
package timing

import (
	"sync"
	"time"
)

// Clock is the time source of a measurement.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d on a real clock and advances a manual clock by d.
	Sleep(d time.Duration)
}

// Real returns the process wall clock.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Manual is a Clock that only moves when told to.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

// NewManual returns a manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Sleep advances the clock by d without blocking.
func (m *Manual) Sleep(d time.Duration) {
	m.Advance(d)
}

// Advance moves the clock forward by d. Negative values are ignored.
func (m *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
