// Package vecmath provides the vector similarity primitives used by the
// retrieval engine: cosine similarity and distance, Euclidean and Manhattan
// distance, dot product, normalization, top-k selection, and pairwise
// similarity matrices.
//
// All functions are pure and stateless. Vectors are []float32 (the storage
// representation) with float64 accumulators for numeric stability. Length
// mismatches surface as types.ErrDimensionMismatch; they are never silently
// truncated or padded. Zero-magnitude vectors are defined cases: cosine
// similarity returns 0 and Normalize returns an all-zero vector.
package vecmath
