package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fxnlabs/gemmbench/internal/bench"
	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleReports() []bench.ShapeReport {
	other := shape
	other.M = 2048
	return []bench.ShapeReport{
		{
			Shape:   shape,
			Results: []bench.Result{result("blas", 0, 15), result("tiled", 3, 20), result("naive", 0, 0.5)},
			Failures: []bench.Failure{
				{Shape: shape, Backend: "tiled", Candidate: 1, Kind: gemm.KindExecution, Message: "ExecutionFailure [tiled] in warmup"},
				{Shape: shape, Backend: "cublaslt", Candidate: bench.NoCandidate, Kind: gemm.KindNoAlgorithm, Message: "no candidates"},
			},
		},
		{Shape: other, Results: []bench.Result{result("blas", 0, 30)}},
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"", "table", "JSON", "yaml", "yml"} {
		r, err := New(format, nil)
		require.NoError(t, err, format)
		assert.NotNil(t, r)
	}
	_, err := New("xml", nil)
	assert.Error(t, err)
}

func TestJSONReporter(t *testing.T) {
	var buf bytes.Buffer
	r, err := New("json", []Reference{{Name: "PyTorch", M: 1024, N: 1024, K: 1024, ElementType: gemm.Float16, Throughput: 40}})
	require.NoError(t, err)
	require.NoError(t, r.Report(&buf, sampleReports()))

	var doc struct {
		Shapes []struct {
			Shape  string `json:"shape"`
			Ranked []struct {
				Rank       int     `json:"rank"`
				Backend    string  `json:"backend"`
				Throughput float64 `json:"throughput"`
			} `json:"ranked"`
			Failures []struct {
				Backend   string `json:"backend"`
				Candidate int    `json:"candidate"`
				Kind      string `json:"kind"`
			} `json:"failures"`
			Comparison string `json:"comparison"`
			References []struct {
				Ratio float64 `json:"ratio"`
			} `json:"references"`
		} `json:"shapes"`
		Overall struct {
			Backend string `json:"backend"`
		} `json:"overall"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Shapes, 2)

	first := doc.Shapes[0]
	assert.Equal(t, "1024x1024x1024/f16/col", first.Shape)
	require.Len(t, first.Ranked, 3)
	assert.Equal(t, "tiled", first.Ranked[0].Backend)
	assert.Equal(t, 1, first.Ranked[0].Rank)
	assert.Equal(t, "naive", first.Ranked[2].Backend)
	assert.Equal(t, "tiled#3 is 1.33x faster than blas#0", first.Comparison)
	require.Len(t, first.Failures, 2)
	assert.Equal(t, "ExecutionFailure", first.Failures[0].Kind)
	assert.Equal(t, -1, first.Failures[1].Candidate)
	require.Len(t, first.References, 1)
	assert.InDelta(t, 0.5, first.References[0].Ratio, 1e-9)

	assert.Equal(t, "blas", doc.Overall.Backend)
}

func TestYAMLReporter(t *testing.T) {
	var buf bytes.Buffer
	r, err := New("yaml", nil)
	require.NoError(t, err)
	require.NoError(t, r.Report(&buf, sampleReports()))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	shapes, ok := doc["shapes"].([]any)
	require.True(t, ok)
	require.Len(t, shapes, 2)
	assert.Contains(t, buf.String(), "kind: NoAlgorithmAvailable")
	assert.Contains(t, buf.String(), "backend: tiled")
}

func TestDocumentDecodes(t *testing.T) {
	for _, format := range []string{"json", "yaml"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			r, err := New(format, nil)
			require.NoError(t, err)
			require.NoError(t, r.Report(&buf, sampleReports()))

			var doc Document
			if format == "json" {
				require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
			} else {
				require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
			}
			require.Len(t, doc.Shapes, 2)
			failures := doc.Shapes[0].Failures
			require.Len(t, failures, 2)
			assert.Equal(t, gemm.KindExecution, failures[0].Kind)
			assert.Equal(t, gemm.KindNoAlgorithm, failures[1].Kind)
			assert.Equal(t, shape, failures[0].Shape)
		})
	}
}

func TestTableReporter(t *testing.T) {
	var buf bytes.Buffer
	r, err := New("table", nil)
	require.NoError(t, err)
	require.NoError(t, r.Report(&buf, sampleReports()))
	out := buf.String()

	assert.Contains(t, out, "1024x1024x1024/f16/col")
	assert.Contains(t, out, "6.0 MiB")
	assert.Contains(t, out, "🥇")
	assert.Contains(t, out, "tiled#3 is 1.33x faster than blas#0")
	assert.Contains(t, out, "cublaslt")
	assert.Contains(t, out, "NoAlgorithmAvailable")
	assert.Contains(t, out, "Best overall: blas#0")
	assert.Less(t, strings.Index(out, "tiled"), strings.Index(out, "naive"), "ranked order")
}

func TestTableReporter_NoResults(t *testing.T) {
	var buf bytes.Buffer
	err := (&TableReporter{}).Report(&buf, []bench.ShapeReport{{Shape: shape}})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "no successful measurements")
	assert.NotContains(t, buf.String(), "Best overall")
}
