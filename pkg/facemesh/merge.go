package facemesh

import (
	"errors"
	"fmt"
)

// ErrWindingMismatch is returned by Merge for inputs wound differently.
var ErrWindingMismatch = errors.New("facemesh: meshes have different windings")

// Merge concatenates meshes into a new one. Materials are unified by name
// and face submeshes remapped. An optional attribute survives only when
// every input carries it; the same holds for shared groups, which are
// otherwise left nil so the converter welds by position.
func Merge(meshes ...*Mesh) (*Mesh, error) {
	if len(meshes) == 0 {
		return nil, fmt.Errorf("facemesh: merge: %w", ErrNoFaces)
	}
	out := &Mesh{Winding: meshes[0].Winding}
	materials := make(map[string]int)
	keepNormals, keepTangents, keepUVs, keepGroups := true, true, true, true
	for _, m := range meshes {
		if m.Winding != out.Winding {
			return nil, ErrWindingMismatch
		}
		keepNormals = keepNormals && len(m.Normals) == len(m.Positions)
		keepTangents = keepTangents && len(m.Tangents) == len(m.Positions)
		keepUVs = keepUVs && len(m.UVs) == len(m.Positions)
		keepGroups = keepGroups && m.SharedGroups != nil
	}

	for _, m := range meshes {
		base := len(out.Positions)
		out.Positions = append(out.Positions, m.Positions...)
		if keepNormals {
			out.Normals = append(out.Normals, m.Normals...)
		}
		if keepTangents {
			out.Tangents = append(out.Tangents, m.Tangents...)
		}
		if keepUVs {
			out.UVs = append(out.UVs, m.UVs...)
		}
		if keepGroups {
			for _, g := range m.SharedGroups {
				out.SharedGroups = append(out.SharedGroups, offset(g, base))
			}
		}
		for i, f := range m.Faces {
			f.Loop = offset(f.Loop, base)
			f.Triangles = offset(f.Triangles, base)
			if name := m.MaterialName(i); name != "" {
				idx, ok := materials[name]
				if !ok {
					idx = len(out.Materials)
					out.Materials = append(out.Materials, name)
					materials[name] = idx
				}
				f.Submesh = idx
			} else {
				f.Submesh = -1
			}
			out.Faces = append(out.Faces, f)
		}
	}
	return out, nil
}

func offset(idx []int, base int) []int {
	if idx == nil {
		return nil
	}
	out := make([]int, len(idx))
	for i, v := range idx {
		out[i] = v + base
	}
	return out
}
