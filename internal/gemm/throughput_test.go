package gemm

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThroughput_Formula(t *testing.T) {
	shapes := []Shape{
		{M: 1, N: 1, K: 1},
		{M: 1024, N: 1024, K: 1024, ElementType: Float16},
		{M: 2048, N: 4096, K: 2048, ElementType: Float16},
		{M: 17, N: 3, K: 911, ElementType: BFloat16, Layout: RowMajor},
	}
	elapsed := []time.Duration{time.Nanosecond, 37 * time.Microsecond, 20 * time.Millisecond, 3 * time.Second}
	iterations := []int{1, 7, 20}

	for _, s := range shapes {
		for _, e := range elapsed {
			for _, it := range iterations {
				got, err := Throughput(s, Sample{Elapsed: e, Iterations: it})
				require.NoError(t, err)
				avgSeconds := e.Seconds() / float64(it)
				want := 2 * float64(s.M) * float64(s.N) * float64(s.K) / (avgSeconds * 1e12)
				assert.Equal(t, want, got.Throughput, "%s elapsed=%v iters=%d", s, e, it)
				assert.Equal(t, e/time.Duration(it), got.AvgTime)
			}
		}
	}
}

func TestThroughput_ScenarioA(t *testing.T) {
	s := Shape{M: 1024, N: 1024, K: 1024, ElementType: Float16}
	got, err := Throughput(s, Sample{Elapsed: 20 * time.Millisecond, Iterations: 20})
	require.NoError(t, err)
	assert.Equal(t, time.Millisecond, got.AvgTime)
	assert.InDelta(t, 2.147483648, got.Throughput, 1e-9)
}

func TestThroughput_RejectsInvalid(t *testing.T) {
	s := Shape{M: 8, N: 8, K: 8}
	testCases := []struct {
		name   string
		sample Sample
	}{
		{name: "zero iterations", sample: Sample{Elapsed: time.Millisecond, Iterations: 0}},
		{name: "negative iterations", sample: Sample{Elapsed: time.Millisecond, Iterations: -3}},
		{name: "zero elapsed", sample: Sample{Elapsed: 0, Iterations: 20}},
		{name: "negative elapsed", sample: Sample{Elapsed: -time.Second, Iterations: 20}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Throughput(s, tc.sample)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidMeasurement)
			assert.Equal(t, KindInvalidMeasurement, KindOf(err))
			assert.False(t, math.IsInf(got.Throughput, 0))
			assert.False(t, math.IsNaN(got.Throughput))
			assert.Zero(t, got.Throughput)
		})
	}
}
