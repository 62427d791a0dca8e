// Package sdfx bridges kernel meshes and the github.com/deadsy/sdfx
// triangle type, and writes STL files through sdfx's renderer.
package sdfx

import (
	"errors"
	"fmt"

	"github.com/chazu/brushconv/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrNoTriangles is returned when there is nothing to write.
var ErrNoTriangles = errors.New("sdfx: no triangles")

// defaultMeshCells controls marching cubes tessellation resolution for
// preview solids.
const defaultMeshCells = 64

// Triangles expands the indexed mesh into sdfx triangles.
func Triangles(m *kernel.Mesh) []*sdf.Triangle3 {
	tris := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for i := 0; i+2 < len(m.Indices); i += 3 {
		tris = append(tris, &sdf.Triangle3{
			m.Position(int(m.Indices[i])),
			m.Position(int(m.Indices[i+1])),
			m.Position(int(m.Indices[i+2])),
		})
	}
	return tris
}

// FromTriangles converts sdfx triangles into an unwelded kernel mesh with
// flat face normals.
func FromTriangles(name string, triangles []*sdf.Triangle3) *kernel.Mesh {
	numVerts := len(triangles) * 3

	vertices := make([]float32, 0, numVerts*3)
	normals := make([]float32, 0, numVerts*3)
	indices := make([]uint32, 0, numVerts)

	for i, tri := range triangles {
		// Compute face normal.
		n := tri.Normal()
		nx := float32(n.X)
		ny := float32(n.Y)
		nz := float32(n.Z)

		for j := 0; j < 3; j++ {
			v := tri[j]
			vertices = append(vertices, float32(v.X), float32(v.Y), float32(v.Z))
			normals = append(normals, nx, ny, nz)
			indices = append(indices, uint32(i*3+j))
		}
	}

	return &kernel.Mesh{
		Vertices: vertices,
		Normals:  normals,
		Indices:  indices,
		Name:     name,
	}
}

// Box returns a marching-cubes rendering of an axis-aligned box with its
// minimum corner at min. It is used as a reference solid when checking
// exported meshes.
func Box(min, size v3.Vec) (*kernel.Mesh, error) {
	s, err := sdf.Box3D(size, 0)
	if err != nil {
		return nil, fmt.Errorf("sdfx: box: %w", err)
	}
	// Shift from center-origin to min-corner-origin.
	m := sdf.Translate3d(min.Add(size.MulScalar(0.5)))
	renderer := render.NewMarchingCubesUniform(defaultMeshCells)
	return FromTriangles("box", render.ToTriangles(sdf.Transform3D(s, m), renderer)), nil
}

// Bounds returns the combined bounding box of the meshes.
func Bounds(meshes ...*kernel.Mesh) sdf.Box3 {
	var box sdf.Box3
	first := true
	for _, m := range meshes {
		if m.IsEmpty() {
			continue
		}
		lo, hi := m.Bounds()
		if first {
			box = sdf.Box3{Min: lo, Max: hi}
			first = false
			continue
		}
		box.Min = v3.Vec{X: min(box.Min.X, lo.X), Y: min(box.Min.Y, lo.Y), Z: min(box.Min.Z, lo.Z)}
		box.Max = v3.Vec{X: max(box.Max.X, hi.X), Y: max(box.Max.Y, hi.Y), Z: max(box.Max.Z, hi.Z)}
	}
	return box
}

// SaveSTL writes every triangle of the meshes to a binary STL file.
func SaveSTL(path string, meshes ...*kernel.Mesh) error {
	var tris []*sdf.Triangle3
	for _, m := range meshes {
		if err := m.Check(); err != nil {
			return fmt.Errorf("sdfx: mesh %q: %w", m.Name, err)
		}
		tris = append(tris, Triangles(m)...)
	}
	if len(tris) == 0 {
		return ErrNoTriangles
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("sdfx: save %s: %w", path, err)
	}
	return nil
}
