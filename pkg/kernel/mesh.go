// Package kernel holds the flat triangle mesh exchanged with file formats
// and tessellators. Sub-packages read and write it: sdfx for STL, gltf for
// glTF 2.0.
package kernel

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Mesh is an indexed triangle mesh.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, uvs has 2 floats per vertex,
// indices has 3 uint32s per triangle. Triangles are counter-clockwise
// when viewed from the front.
type Mesh struct {
	Vertices []float32 `yaml:"vertices,flow"`          // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `yaml:"normals,flow,omitempty"` // [nx0,ny0,nz0, ...], optional
	UVs      []float32 `yaml:"uvs,flow,omitempty"`     // [u0,v0, u1,v1, ...], optional
	Indices  []uint32  `yaml:"indices,flow"`           // [i0,i1,i2, ...] triangles
	Name     string    `yaml:"name"`                   // source object or primitive name
	Material string    `yaml:"material,omitempty"`     // material name, empty if none
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Position returns vertex i as a vector.
func (m *Mesh) Position(i int) v3.Vec {
	return v3.Vec{X: float64(m.Vertices[i*3]), Y: float64(m.Vertices[i*3+1]), Z: float64(m.Vertices[i*3+2])}
}

// Normal returns the normal of vertex i, or the zero vector when the mesh
// carries no normals.
func (m *Mesh) Normal(i int) v3.Vec {
	if len(m.Normals) < (i+1)*3 {
		return v3.Vec{}
	}
	return v3.Vec{X: float64(m.Normals[i*3]), Y: float64(m.Normals[i*3+1]), Z: float64(m.Normals[i*3+2])}
}

// AddVertex appends a position with its normal and uv and returns its index.
func (m *Mesh) AddVertex(p, n v3.Vec, u, v float64) uint32 {
	idx := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
	m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	m.UVs = append(m.UVs, float32(u), float32(v))
	return idx
}

// Bounds returns the axis-aligned bounding box of the vertices. An empty
// mesh reports zero vectors.
func (m *Mesh) Bounds() (min, max v3.Vec) {
	n := m.VertexCount()
	if n == 0 {
		return v3.Vec{}, v3.Vec{}
	}
	min, max = m.Position(0), m.Position(0)
	for i := 1; i < n; i++ {
		p := m.Position(i)
		min = v3.Vec{X: minf(min.X, p.X), Y: minf(min.Y, p.Y), Z: minf(min.Z, p.Z)}
		max = v3.Vec{X: maxf(max.X, p.X), Y: maxf(max.Y, p.Y), Z: maxf(max.Z, p.Z)}
	}
	return min, max
}

// Check verifies the array lengths agree and every index is in range.
func (m *Mesh) Check() error {
	if len(m.Vertices)%3 != 0 {
		return fmt.Errorf("kernel: vertex array length %d not a multiple of 3", len(m.Vertices))
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("kernel: index array length %d not a multiple of 3", len(m.Indices))
	}
	n := m.VertexCount()
	if len(m.Normals) != 0 && len(m.Normals) != n*3 {
		return fmt.Errorf("kernel: %d normals for %d vertices", len(m.Normals)/3, n)
	}
	if len(m.UVs) != 0 && len(m.UVs) != n*2 {
		return fmt.Errorf("kernel: %d uvs for %d vertices", len(m.UVs)/2, n)
	}
	for i, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("kernel: index %d at %d out of range [0,%d)", idx, i, n)
		}
	}
	return nil
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
