// Package vec holds the two-dimensional vector helpers used by the
// iteration kernels, the classifier and the renderer.
package vec

import "math"

// Vec is a point or a velocity in the plane.
type Vec [2]float64

func Dot(a, b Vec) float64 {
	return a[0]*b[0] + a[1]*b[1]
}

func Sub(a, b Vec) Vec {
	return Vec{a[0] - b[0], a[1] - b[1]}
}

func Scale(v Vec, k float64) Vec {
	return Vec{v[0] * k, v[1] * k}
}

// Norm returns the Euclidean length of v.
func Norm(v Vec) float64 {
	return math.Sqrt(Dot(v, v))
}

// Dist returns the Euclidean distance between a and b.
func Dist(a, b Vec) float64 {
	return Norm(Sub(b, a))
}

// Min returns the per-axis minimum.
func Min(a, b Vec) Vec {
	return Vec{math.Min(a[0], b[0]), math.Min(a[1], b[1])}
}

// Max returns the per-axis maximum.
func Max(a, b Vec) Vec {
	return Vec{math.Max(a[0], b[0]), math.Max(a[1], b[1])}
}

// IsFinite reports whether neither component is NaN or infinite.
func IsFinite(v Vec) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
