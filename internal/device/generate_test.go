package device

import (
	"testing"

	"github.com/fxnlabs/gemmbench/internal/gemm"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestGenerator_Matrix(t *testing.T) {
	gen := NewGenerator(42)

	f32, err := gen.Matrix(gemm.Float32, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, 20, f32.Len())
	for _, v := range f32.Data.([]float32) {
		assert.GreaterOrEqual(t, v, float32(-1))
		assert.Less(t, v, float32(1))
	}

	f16, err := gen.Matrix(gemm.Float16, 3, 2)
	require.NoError(t, err)
	assert.Len(t, f16.Data.([]float16.Float16), 6)

	bf16, err := gen.Matrix(gemm.BFloat16, 2, 2)
	require.NoError(t, err)
	for _, v := range bf16.Data.([]bfloat16.BFloat16) {
		assert.LessOrEqual(t, v.Float32(), float32(1))
	}

	_, err = gen.Matrix(gemm.Float32, 0, 5)
	assert.Error(t, err)
}

func TestGenerator_SeedIsReproducible(t *testing.T) {
	a, err := NewGenerator(3).Matrix(gemm.Float32, 8, 8)
	require.NoError(t, err)
	b, err := NewGenerator(3).Matrix(gemm.Float32, 8, 8)
	require.NoError(t, err)
	assert.Equal(t, a.Data, b.Data)
}
