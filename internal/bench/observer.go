package bench

import "github.com/fxnlabs/gemmbench/internal/gemm"

// Observer is notified as a sweep progresses. Calls happen on the sweep's
// goroutine, one at a time.
type Observer interface {
	ShapeStarted(shape gemm.Shape, backends int)
	CandidatesEnumerated(shape gemm.Shape, backend string, count int)
	MeasurementStarted(shape gemm.Shape, backend string, candidate int)
	MeasurementSucceeded(result Result)
	MeasurementFailed(failure Failure)
	ShapeFinished(report ShapeReport)
}

// NopObserver ignores every notification. Embed it to implement only the
// notifications you need.
type NopObserver struct{}

func (NopObserver) ShapeStarted(gemm.Shape, int)                 {}
func (NopObserver) CandidatesEnumerated(gemm.Shape, string, int) {}
func (NopObserver) MeasurementStarted(gemm.Shape, string, int)   {}
func (NopObserver) MeasurementSucceeded(Result)                  {}
func (NopObserver) MeasurementFailed(Failure)                    {}
func (NopObserver) ShapeFinished(ShapeReport)                    {}

// Observers fans notifications out in order.
type Observers []Observer

func (o Observers) ShapeStarted(shape gemm.Shape, backends int) {
	for _, obs := range o {
		obs.ShapeStarted(shape, backends)
	}
}

func (o Observers) CandidatesEnumerated(shape gemm.Shape, backend string, count int) {
	for _, obs := range o {
		obs.CandidatesEnumerated(shape, backend, count)
	}
}

func (o Observers) MeasurementStarted(shape gemm.Shape, backend string, candidate int) {
	for _, obs := range o {
		obs.MeasurementStarted(shape, backend, candidate)
	}
}

func (o Observers) MeasurementSucceeded(result Result) {
	for _, obs := range o {
		obs.MeasurementSucceeded(result)
	}
}

func (o Observers) MeasurementFailed(failure Failure) {
	for _, obs := range o {
		obs.MeasurementFailed(failure)
	}
}

func (o Observers) ShapeFinished(report ShapeReport) {
	for _, obs := range o {
		obs.ShapeFinished(report)
	}
}
