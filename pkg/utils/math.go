package utils

import "math"

// NormalizeL2 scales x in place to unit L2 norm. Accumulation is done in
// float64 so long vectors do not lose precision. A zero vector is unchanged.
func NormalizeL2(x []float32) {
	var sum float64
	for _, v := range x {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sum))
	for i := range x {
		x[i] *= inv
	}
}

// Dot returns the inner product of a and b. For unit vectors this equals
// cosine similarity. Panics if lengths differ, callers check dimensions.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
