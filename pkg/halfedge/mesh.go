// Package halfedge builds and inspects the half-edge control mesh used by
// CSG brushes. Vertices, half-edges and polygons are stored in flat slices
// and refer to each other by index only.
package halfedge

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// NoTwin marks a half-edge with no opposing half-edge: a boundary edge of an
// open mesh, or an edge whose twin could not be determined.
const NoTwin = -1

// HalfEdge is one directed edge of a polygon.
type HalfEdge struct {
	PolygonIndex int `yaml:"polygon"` // owning polygon
	VertexIndex  int `yaml:"vertex"`  // head vertex
	TwinIndex    int `yaml:"twin"`    // opposing half-edge or NoTwin
	// Primary is false for the second half-edge of a resolved pair.
	Primary bool `yaml:"primary"`
}

// HasTwin reports whether the twin of e has been resolved.
func (e HalfEdge) HasTwin() bool {
	return e.TwinIndex != NoTwin
}

// Polygon is a closed loop of half-edge indices, counter-clockwise when
// viewed from the side its normal points to.
type Polygon struct {
	EdgeIndices []int `yaml:"edges"`
}

// ControlMesh owns the vertex, half-edge and polygon arrays of a brush.
type ControlMesh struct {
	Vertices []v3.Vec  `yaml:"vertices"`
	Edges    []HalfEdge `yaml:"edges"`
	Polygons []Polygon  `yaml:"polygons"`
}

// EdgeCount returns the number of half-edges.
func (m *ControlMesh) EdgeCount() int {
	return len(m.Edges)
}

// PolygonVertexIndices returns the head vertex of every half-edge of
// polygon p, in loop order.
func (m *ControlMesh) PolygonVertexIndices(p int) []int {
	edges := m.Polygons[p].EdgeIndices
	out := make([]int, len(edges))
	for i, e := range edges {
		out[i] = m.Edges[e].VertexIndex
	}
	return out
}

// PolygonPositions returns the positions of polygon p's vertices in loop order.
func (m *ControlMesh) PolygonPositions(p int) []v3.Vec {
	idx := m.PolygonVertexIndices(p)
	out := make([]v3.Vec, len(idx))
	for i, v := range idx {
		out[i] = m.Vertices[v]
	}
	return out
}

// loopPosition finds e inside its polygon's loop. It returns -1 when the
// half-edge is not listed by the polygon it claims to belong to.
func (m *ControlMesh) loopPosition(e int) (loop []int, pos int) {
	p := m.Edges[e].PolygonIndex
	if p < 0 || p >= len(m.Polygons) {
		return nil, -1
	}
	loop = m.Polygons[p].EdgeIndices
	for i, idx := range loop {
		if idx == e {
			return loop, i
		}
	}
	return loop, -1
}

// Next returns the half-edge following e around its polygon, or -1.
func (m *ControlMesh) Next(e int) int {
	loop, pos := m.loopPosition(e)
	if pos < 0 {
		return -1
	}
	return loop[(pos+1)%len(loop)]
}

// Prev returns the half-edge preceding e around its polygon, or -1.
func (m *ControlMesh) Prev(e int) int {
	loop, pos := m.loopPosition(e)
	if pos < 0 {
		return -1
	}
	return loop[(pos+len(loop)-1)%len(loop)]
}

// Tail returns the vertex e starts from, which is the head of the previous
// half-edge in the loop. It returns -1 for a detached half-edge.
func (m *ControlMesh) Tail(e int) int {
	prev := m.Prev(e)
	if prev < 0 {
		return -1
	}
	return m.Edges[prev].VertexIndex
}

// Clone returns a deep copy of the mesh.
func (m *ControlMesh) Clone() *ControlMesh {
	out := &ControlMesh{
		Vertices: append([]v3.Vec(nil), m.Vertices...),
		Edges:    append([]HalfEdge(nil), m.Edges...),
		Polygons: make([]Polygon, len(m.Polygons)),
	}
	for i, p := range m.Polygons {
		out.Polygons[i] = Polygon{EdgeIndices: append([]int(nil), p.EdgeIndices...)}
	}
	return out
}
