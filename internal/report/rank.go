package report

import (
	"fmt"
	"sort"

	"github.com/fxnlabs/gemmbench/internal/bench"
	"github.com/fxnlabs/gemmbench/internal/gemm"
)

// Ranking is an immutable throughput-descending order over results. Ties
// keep insertion order so the same input always ranks the same way.
type Ranking struct {
	results []bench.Result
}

// Rank orders results by throughput, highest first. The input is not modified.
func Rank(results []bench.Result) Ranking {
	ranked := append([]bench.Result(nil), results...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Throughput > ranked[j].Throughput
	})
	return Ranking{results: ranked}
}

// RankAll ranks the results of every shape together.
func RankAll(reports []bench.ShapeReport) Ranking {
	var all []bench.Result
	for _, r := range reports {
		all = append(all, r.Results...)
	}
	return Rank(all)
}

// Best returns the highest-throughput result.
func (r Ranking) Best() (bench.Result, bool) {
	if len(r.results) == 0 {
		return bench.Result{}, false
	}
	return r.results[0], true
}

// Results returns the full ranked sequence.
func (r Ranking) Results() []bench.Result {
	return append([]bench.Result(nil), r.results...)
}

func (r Ranking) Len() int {
	return len(r.results)
}

// Comparison relates two results by throughput ratio.
type Comparison struct {
	Faster bench.Result
	Slower bench.Result
	// Ratio is Faster.Throughput / Slower.Throughput, always >= 1.
	Ratio float64
}

// Compare orders a and b by throughput. On a tie a is reported as faster.
func Compare(a, b bench.Result) (Comparison, error) {
	for _, r := range []bench.Result{a, b} {
		if r.Throughput <= 0 {
			return Comparison{}, gemm.NewInvalidMeasurementError("compare", "%s has non-positive throughput %g", r.ID(), r.Throughput)
		}
	}
	if b.Throughput > a.Throughput {
		a, b = b, a
	}
	return Comparison{Faster: a, Slower: b, Ratio: a.Throughput / b.Throughput}, nil
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s is %.2fx faster than %s", c.Faster.ID(), c.Ratio, c.Slower.ID())
}
