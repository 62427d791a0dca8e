package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Epsilon is the tolerance used for degenerate-length checks.
const Epsilon = 1e-9

var (
	// Up is the +Y axis, the normal of the fallback plane.
	Up = v3.Vec{X: 0, Y: 1, Z: 0}
	// Right is the +X axis.
	Right = v3.Vec{X: 1, Y: 0, Z: 0}
	// Forward is the +Z axis.
	Forward = v3.Vec{X: 0, Y: 0, Z: 1}
)

// Normalize returns v scaled to unit length. A zero-length vector is
// returned unchanged instead of turning into NaNs.
func Normalize(v v3.Vec) v3.Vec {
	l := v.Length()
	if l < Epsilon {
		return v3.Vec{}
	}
	return v.MulScalar(1 / l)
}

// Negate returns -v.
func Negate(v v3.Vec) v3.Vec {
	return v.MulScalar(-1)
}

// Near reports whether a and b are within tol of each other on every axis.
func Near(a, b v3.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol &&
		math.Abs(a.Y-b.Y) <= tol &&
		math.Abs(a.Z-b.Z) <= tol
}

// IsZero reports whether v has (near) zero length.
func IsZero(v v3.Vec) bool {
	return v.Length() < Epsilon
}
