// Package geom holds the small amount of vector math the brush converter
// needs on top of sdfx's v3.Vec: planes fitted to polygon boundaries and
// tangent frames for planar texture projection.
package geom
