package vecmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devctx/knowctx/pkg/types"
)

func TestCosineSimilarity_SelfIsOne(t *testing.T) {
	v := []float32{0.3, -1.2, 4.5, 0.01}

	sim, err := CosineSimilarity(v, v)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestCosineSimilarity_Orthogonal(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	sim, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)
}

func TestCosineSimilarity_Opposite(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{-1, -2, -3}

	sim, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-9)
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	a := []float32{0, 0, 0}
	b := []float32{1, 2, 3}

	sim, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sim)
	assert.False(t, math.IsNaN(sim))
}

func TestCosineSimilarity_DimensionMismatch(t *testing.T) {
	a := []float32{1, 2}
	b := []float32{1, 2, 3}

	_, err := CosineSimilarity(a, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
}

func TestCosineDistance(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}

	d, err := CosineDistance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d, 1e-9)

	d, err = CosineDistance(a, a)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, d, 1e-9)
}

func TestDistances(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}

	euclidean, err := EuclideanDistance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, euclidean, 1e-9)

	manhattan, err := ManhattanDistance(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, manhattan, 1e-9)

	dot, err := DotProduct([]float32{1, 2, 3}, []float32{4, 5, 6})
	require.NoError(t, err)
	assert.InDelta(t, 32.0, dot, 1e-9)
}

func TestDistances_DimensionMismatch(t *testing.T) {
	a := []float32{1}
	b := []float32{1, 2}

	_, err := EuclideanDistance(a, b)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)

	_, err = ManhattanDistance(a, b)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)

	_, err = DotProduct(a, b)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, float64(v[0]), 1e-6)
	assert.InDelta(t, 0.8, float64(v[1]), 1e-6)

	// Unit length after normalization
	sim, err := CosineSimilarity(v, []float32{3, 4})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-6)
}

func TestNormalize_ZeroVector(t *testing.T) {
	v := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestTopK(t *testing.T) {
	query := []float32{1, 0}
	candidates := [][]float32{
		{0, 1},   // orthogonal
		{1, 0},   // identical
		{1, 1},   // 45 degrees
		{-1, 0},  // opposite
	}

	matches, err := TopK(query, candidates, 2, MetricCosine)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, 1, matches[0].Index)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-9)
	assert.Equal(t, 2, matches[1].Index)
}

func TestTopK_KLargerThanCandidates(t *testing.T) {
	matches, err := TopK([]float32{1}, [][]float32{{1}, {2}}, 10, MetricCosine)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestTopK_DimensionMismatch(t *testing.T) {
	_, err := TopK([]float32{1, 2}, [][]float32{{1}}, 1, MetricCosine)
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)
}

func TestTopK_UnsupportedMetric(t *testing.T) {
	_, err := TopK([]float32{1}, [][]float32{{1}}, 1, Metric("bogus"))
	assert.Error(t, err)
}

func TestPairwiseSimilarity(t *testing.T) {
	vectors := [][]float32{
		{1, 0},
		{0, 1},
		{1, 1},
	}

	matrix, err := PairwiseSimilarity(vectors, MetricCosine)
	require.NoError(t, err)
	require.Len(t, matrix, 3)

	// Diagonal is self-similarity
	for i := range matrix {
		assert.InDelta(t, 1.0, matrix[i][i], 1e-9)
	}

	// Symmetric
	for i := range matrix {
		for j := range matrix {
			assert.Equal(t, matrix[i][j], matrix[j][i])
		}
	}

	assert.InDelta(t, 0.0, matrix[0][1], 1e-9)
	assert.InDelta(t, 1.0/math.Sqrt2, matrix[0][2], 1e-6)
}
