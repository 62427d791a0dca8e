package geom

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Plane is the set of points p with Normal·p = Distance.
type Plane struct {
	Normal   v3.Vec  `yaml:"normal"`
	Distance float64 `yaml:"distance"`
}

// DefaultPlane is returned for empty polygons: up-facing, through the origin.
var DefaultPlane = Plane{Normal: Up, Distance: 0}

// String returns the plane as "(nx, ny, nz) d".
func (p Plane) String() string {
	return fmt.Sprintf("(%.4f, %.4f, %.4f) %.4f", p.Normal.X, p.Normal.Y, p.Normal.Z, p.Distance)
}

// SignedDistance returns how far pt lies in front of the plane.
func (p Plane) SignedDistance(pt v3.Vec) float64 {
	return p.Normal.Dot(pt) - p.Distance
}

// Flip returns the plane facing the opposite way.
func (p Plane) Flip() Plane {
	return Plane{Normal: Negate(p.Normal), Distance: -p.Distance}
}

// PlaneFromPoints returns the plane through a, b, c. The normal follows the
// right-hand rule, so a counter-clockwise triangle faces the viewer.
func PlaneFromPoints(a, b, c v3.Vec) Plane {
	n := Normalize(b.Sub(a).Cross(c.Sub(a)))
	return Plane{Normal: n, Distance: n.Dot(a)}
}

// ComputePlane fits a plane to an ordered polygon boundary.
//
// Three points give the exact triangle plane. No points give DefaultPlane.
// Anything else goes through Newell's method, which tolerates concave and
// slightly non-planar boundaries; the distance is then the mean offset of
// all points along the normal.
func ComputePlane(points []v3.Vec) Plane {
	switch len(points) {
	case 0:
		return DefaultPlane
	case 3:
		return PlaneFromPoints(points[0], points[1], points[2])
	}

	var n v3.Vec
	prev := points[len(points)-1]
	for _, curr := range points {
		n.X += (curr.Y - prev.Y) * (curr.Z + prev.Z)
		n.Y += (curr.Z - prev.Z) * (curr.X + prev.X)
		n.Z += (curr.X - prev.X) * (curr.Y + prev.Y)
		prev = curr
	}
	n = Negate(Normalize(n))

	var d float64
	for _, p := range points {
		d += n.Dot(p)
	}
	d /= float64(len(points))

	return Plane{Normal: n, Distance: d}
}
