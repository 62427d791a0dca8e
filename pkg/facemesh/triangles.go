package facemesh

import (
	"fmt"

	"github.com/chazu/brushconv/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
)

// FromTriangleMesh turns every triangle of km into a counter-clockwise
// triangular face. Normals and UVs are carried over when present. A named
// material becomes the only entry of Materials; otherwise faces have no
// submesh.
func FromTriangleMesh(km *kernel.Mesh) (*Mesh, error) {
	if err := km.Check(); err != nil {
		return nil, fmt.Errorf("facemesh: %w", err)
	}
	n := km.VertexCount()
	m := &Mesh{
		Positions: make([]v3.Vec, n),
		Faces:     make([]Face, 0, km.TriangleCount()),
		Winding:   CounterClockwise,
	}
	for i := range m.Positions {
		m.Positions[i] = km.Position(i)
	}
	if len(km.Normals) > 0 {
		m.Normals = make([]v3.Vec, n)
		for i := range m.Normals {
			m.Normals[i] = km.Normal(i)
		}
	}
	if len(km.UVs) > 0 {
		m.UVs = make([]mgl64.Vec2, n)
		for i := range m.UVs {
			m.UVs[i] = mgl64.Vec2{float64(km.UVs[i*2]), float64(km.UVs[i*2+1])}
		}
	}

	submesh := -1
	if km.Material != "" {
		m.Materials = []string{km.Material}
		submesh = 0
	}
	for t := 0; t+2 < len(km.Indices); t += 3 {
		m.Faces = append(m.Faces, Face{
			Loop:    []int{int(km.Indices[t]), int(km.Indices[t+1]), int(km.Indices[t+2])},
			Submesh: submesh,
			UV:      DefaultUV(),
		})
	}
	return m, nil
}
