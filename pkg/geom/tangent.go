package geom

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ComputeTangentFrame derives a tangent and binormal for a unit normal.
// The reference axis is X when the normal is mostly vertical and Y
// otherwise, so the cross products never collapse. A zero normal yields
// zero vectors.
func ComputeTangentFrame(normal v3.Vec) (tangent, binormal v3.Vec) {
	ax, ay, az := math.Abs(normal.X), math.Abs(normal.Y), math.Abs(normal.Z)

	ref := Up
	if ay > ax && ay > az {
		ref = Right
	}

	tangent = Normalize(normal.Cross(ref))
	binormal = Normalize(normal.Cross(tangent))
	return tangent, binormal
}
