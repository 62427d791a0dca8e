// Package tessellate turns face meshes and brushes into triangle meshes
// for export. One mesh is produced per material, in order of first use.
package tessellate

import (
	"fmt"

	"github.com/chazu/brushconv/pkg/brush"
	"github.com/chazu/brushconv/pkg/facemesh"
	"github.com/chazu/brushconv/pkg/geom"
	"github.com/chazu/brushconv/pkg/halfedge"
	"github.com/chazu/brushconv/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
)

// DefaultName names the mesh of faces without a material.
const DefaultName = "default"

// meshSet collects triangles into one mesh per material.
type meshSet struct {
	order  []string
	meshes map[string]*kernel.Mesh
}

func newMeshSet() *meshSet {
	return &meshSet{meshes: make(map[string]*kernel.Mesh)}
}

func (s *meshSet) get(material string) *kernel.Mesh {
	m, ok := s.meshes[material]
	if !ok {
		name := material
		if name == "" {
			name = DefaultName
		}
		m = &kernel.Mesh{Name: name, Material: material}
		s.meshes[material] = m
		s.order = append(s.order, material)
	}
	return m
}

func (s *meshSet) list() []*kernel.Mesh {
	out := make([]*kernel.Mesh, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.meshes[name])
	}
	return out
}

// fan returns the triangle list of a convex loop, fanned from its first
// vertex.
func fan(loop []int) []int {
	tris := make([]int, 0, (len(loop)-2)*3)
	for k := 1; k+1 < len(loop); k++ {
		tris = append(tris, loop[0], loop[k], loop[k+1])
	}
	return tris
}

// Faces triangulates a face mesh. Faces keep their own triangle lists when
// they have them and are fanned otherwise. Clockwise meshes are flipped so
// the output is counter-clockwise. Vertices are not shared between faces;
// normals come from the mesh or, when absent, from the face plane.
func Faces(m *facemesh.Mesh) ([]*kernel.Mesh, error) {
	if m == nil {
		return nil, nil
	}
	if err := facemesh.Validate(m); err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}

	set := newMeshSet()
	for i, f := range m.Faces {
		loop, err := f.Boundary()
		if err != nil {
			return nil, fmt.Errorf("tessellate: face %d: %w", i, err)
		}
		tris := f.Triangles
		if len(tris) == 0 {
			tris = fan(loop)
		}
		if m.Winding == facemesh.Clockwise {
			tris = flip(tris)
			loop = facemesh.Rewind(loop)
		}

		positions := make([]v3.Vec, len(loop))
		for k, v := range loop {
			positions[k] = m.Positions[v]
		}
		faceNormal := geom.ComputePlane(positions).Normal

		out := set.get(m.MaterialName(i))
		slot := make(map[int]uint32)
		for _, v := range tris {
			idx, ok := slot[v]
			if !ok {
				n := faceNormal
				if len(m.Normals) > 0 {
					n = m.Normals[v]
				}
				var uv mgl64.Vec2
				if len(m.UVs) > 0 {
					uv = m.UVs[v]
				}
				idx = out.AddVertex(m.Positions[v], n, uv[0], uv[1])
				slot[v] = idx
			}
			out.Indices = append(out.Indices, idx)
		}
	}
	return set.list(), nil
}

// flip reverses the winding of every triangle.
func flip(tris []int) []int {
	out := make([]int, len(tris))
	for t := 0; t+2 < len(tris); t += 3 {
		out[t], out[t+1], out[t+2] = tris[t], tris[t+2], tris[t+1]
	}
	return out
}

// Brush triangulates a brush. Polygons flagged NoRender are skipped. Each
// polygon is fanned with the surface normal on every vertex and UVs from
// its texgen projection.
func Brush(cm *halfedge.ControlMesh, shape *brush.Shape) ([]*kernel.Mesh, error) {
	if cm == nil || shape == nil {
		return nil, nil
	}
	if err := shape.Check(len(cm.Polygons)); err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}
	if err := halfedge.CheckIndices(cm); err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}

	set := newMeshSet()
	for p := range cm.Polygons {
		if shape.TexGenFlags[p].Has(brush.NoRender) {
			continue
		}
		surf := shape.Surfaces[p]
		tg := shape.TexGens[surf.TexGenIndex]
		out := set.get(tg.Material)

		positions := cm.PolygonPositions(p)
		if len(positions) < 3 {
			return nil, fmt.Errorf("tessellate: polygon %d: %w", p, halfedge.ErrDegenerateFace)
		}
		base := make([]uint32, len(positions))
		for k, pos := range positions {
			uv := tg.Project(pos, surf)
			base[k] = out.AddVertex(pos, surf.Plane.Normal, uv[0], uv[1])
		}
		for k := 1; k+1 < len(base); k++ {
			out.Indices = append(out.Indices, base[0], base[k], base[k+1])
		}
	}
	return set.list(), nil
}
