// Package similarity provides the pairwise scoring primitives used by the
// recommendation and matching engines: cosine similarity over dense TF-IDF
// rows and Jaccard similarity over string sets.
package similarity

import "github.com/hyperjump/osusume/pkg/utils"

// CosineMatrix computes the pairwise cosine similarity matrix of the rows of
// m: each row is L2-normalized, then the result is normalized * transpose.
// Zero rows stay zero, so a document with no recognized terms has similarity
// 0.0 to everything including itself; non-zero rows have 1.0 on the diagonal.
func CosineMatrix(m [][]float64) [][]float64 {
	n := len(m)
	normalized := make([][]float64, n)
	for i, row := range m {
		cp := make([]float64, len(row))
		copy(cp, row)
		utils.NormalizeL2(cp)
		normalized[i] = cp
	}

	sim := make([][]float64, n)
	for i := range normalized {
		sim[i] = make([]float64, n)
		sim[i][i] = Dot(normalized[i], normalized[i])
		for j := i + 1; j < n; j++ {
			d := Dot(normalized[i], normalized[j])
			sim[i][j] = d
		}
	}
	// Mirror the upper triangle; cosine is symmetric.
	for i := 0; i < n; i++ {
		for j := 0; j < i; j++ {
			sim[i][j] = sim[j][i]
		}
	}
	return sim
}

// Dot returns the dot product of two equal-length vectors.
// Mismatched or empty vectors yield 0.
func Dot(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
