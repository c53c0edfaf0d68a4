package vecmath

import (
	"fmt"
	"math"
	"sort"

	"github.com/devctx/knowctx/pkg/types"
)

// Metric selects the similarity or distance function used by TopK and
// PairwiseSimilarity
type Metric string

const (
	MetricCosine    Metric = "cosine"
	MetricDot       Metric = "dot"
	MetricEuclidean Metric = "euclidean"
	MetricManhattan Metric = "manhattan"
)

// Match pairs a candidate index with its score
type Match struct {
	Index int
	Score float64
}

// checkDimensions returns a typed error when vector lengths differ
func checkDimensions(a, b []float32) error {
	if len(a) != len(b) {
		return fmt.Errorf("%w: %d vs %d", types.ErrDimensionMismatch, len(a), len(b))
	}
	return nil
}

// CosineSimilarity computes dot(a,b) / (|a|*|b|). Zero-magnitude input on
// either side yields 0, never NaN.
func CosineSimilarity(a, b []float32) (float64, error) {
	if err := checkDimensions(a, b); err != nil {
		return 0, err
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// CosineDistance is 1 - CosineSimilarity
func CosineDistance(a, b []float32) (float64, error) {
	sim, err := CosineSimilarity(a, b)
	if err != nil {
		return 0, err
	}
	return 1 - sim, nil
}

// DotProduct computes the inner product of two vectors
func DotProduct(a, b []float32) (float64, error) {
	if err := checkDimensions(a, b); err != nil {
		return 0, err
	}

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot, nil
}

// EuclideanDistance computes the L2 distance between two vectors
func EuclideanDistance(a, b []float32) (float64, error) {
	if err := checkDimensions(a, b); err != nil {
		return 0, err
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// ManhattanDistance computes the L1 distance between two vectors
func ManhattanDistance(a, b []float32) (float64, error) {
	if err := checkDimensions(a, b); err != nil {
		return 0, err
	}

	var sum float64
	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return sum, nil
}

// Normalize returns a unit-length copy of v. A zero-magnitude input
// returns an all-zero vector of the same length, never dividing by zero.
func Normalize(v []float32) []float32 {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}

	out := make([]float32, len(v))
	if norm == 0 {
		return out
	}

	mag := math.Sqrt(norm)
	for i, x := range v {
		out[i] = float32(float64(x) / mag)
	}
	return out
}

// score dispatches a single pairwise computation for the chosen metric
func score(a, b []float32, metric Metric) (float64, error) {
	switch metric {
	case MetricCosine:
		return CosineSimilarity(a, b)
	case MetricDot:
		return DotProduct(a, b)
	case MetricEuclidean:
		return EuclideanDistance(a, b)
	case MetricManhattan:
		return ManhattanDistance(a, b)
	default:
		return 0, fmt.Errorf("unsupported metric: %s", metric)
	}
}

// TopK scores every candidate against query with the chosen metric, sorts
// descending, and returns the first k matches. Ties keep the lower
// candidate index first so output is deterministic.
func TopK(query []float32, candidates [][]float32, k int, metric Metric) ([]Match, error) {
	matches := make([]Match, len(candidates))
	for i, c := range candidates {
		s, err := score(query, c, metric)
		if err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
		matches[i] = Match{Index: i, Score: s}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k < 0 {
		k = 0
	}
	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k], nil
}

// PairwiseSimilarity computes the symmetric NxN matrix of pairwise scores.
// Each off-diagonal pair is computed once and mirrored.
func PairwiseSimilarity(vectors [][]float32, metric Metric) ([][]float64, error) {
	n := len(vectors)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s, err := score(vectors[i], vectors[j], metric)
			if err != nil {
				return nil, fmt.Errorf("pair (%d,%d): %w", i, j, err)
			}
			matrix[i][j] = s
			matrix[j][i] = s
		}
	}

	return matrix, nil
}
