package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fxnlabs/gemmbench/internal/bench"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/schollz/progressbar/v3"
)

// progress draws one bar per shape. A backend counts as one step until it
// reports how many candidates it enumerated.
type progress struct {
	bench.NopObserver

	mu  sync.Mutex
	w   io.Writer
	bar *progressbar.ProgressBar
}

func newProgress(w io.Writer) *progress {
	return &progress{w: w}
}

func (p *progress) ShapeStarted(shape gemm.Shape, backends int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bar = progressbar.NewOptions(backends,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(shape.String()),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("runs"),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *progress) CandidatesEnumerated(_ gemm.Shape, _ string, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.ChangeMax(p.bar.GetMax() + count - 1)
	}
}

func (p *progress) MeasurementStarted(shape gemm.Shape, backend string, candidate int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Describe(fmt.Sprintf("%s %s#%d", shape.Dims(), backend, candidate))
	}
}

func (p *progress) MeasurementSucceeded(bench.Result) { p.step() }

func (p *progress) MeasurementFailed(bench.Failure) { p.step() }

func (p *progress) ShapeFinished(bench.ShapeReport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

func (p *progress) step() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}
