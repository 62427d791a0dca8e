package facemesh

import (
	"math"

	"github.com/chazu/brushconv/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

type cell struct{ x, y, z int64 }

func cellOf(p v3.Vec, size float64) cell {
	return cell{
		x: int64(math.Floor(p.X / size)),
		y: int64(math.Floor(p.Y / size)),
		z: int64(math.Floor(p.Z / size)),
	}
}

// SharedGroupsByPosition groups vertex indices whose positions lie within
// eps of each other on every axis. Each vertex joins the earliest group
// whose first member is close enough, so groups come out in order of first
// appearance. eps <= 0 groups exactly equal positions only.
func SharedGroupsByPosition(positions []v3.Vec, eps float64) [][]int {
	var groups [][]int

	if eps <= 0 {
		byPos := make(map[v3.Vec]int, len(positions))
		for i, p := range positions {
			if g, ok := byPos[p]; ok {
				groups[g] = append(groups[g], i)
				continue
			}
			byPos[p] = len(groups)
			groups = append(groups, []int{i})
		}
		return groups
	}

	// Representatives are bucketed by cell; a match can only sit in the
	// 27 cells around the query point.
	buckets := make(map[cell][]int)
	for i, p := range positions {
		c := cellOf(p, eps)
		best := -1
		for dx := int64(-1); dx <= 1; dx++ {
			for dy := int64(-1); dy <= 1; dy++ {
				for dz := int64(-1); dz <= 1; dz++ {
					for _, g := range buckets[cell{c.x + dx, c.y + dy, c.z + dz}] {
						if (best < 0 || g < best) && geom.Near(positions[groups[g][0]], p, eps) {
							best = g
						}
					}
				}
			}
		}
		if best >= 0 {
			groups[best] = append(groups[best], i)
			continue
		}
		buckets[c] = append(buckets[c], len(groups))
		groups = append(groups, []int{i})
	}
	return groups
}

// MakeVerticesUniquePerFace gives every face its own copy of the vertices
// it references. A face's distinct indices, in order of first appearance in
// its loop and then its triangles, are copied into a fresh run and the face
// is re-indexed into it. The result has no vertex referenced by two faces
// and its SharedGroups are cleared.
func MakeVerticesUniquePerFace(m *Mesh) *Mesh {
	out := &Mesh{
		Faces:     make([]Face, len(m.Faces)),
		Materials: append([]string(nil), m.Materials...),
		Winding:   m.Winding,
	}
	hasNormals := len(m.Normals) == len(m.Positions) && len(m.Normals) > 0
	hasTangents := len(m.Tangents) == len(m.Positions) && len(m.Tangents) > 0
	hasUVs := len(m.UVs) == len(m.Positions) && len(m.UVs) > 0

	for i, f := range m.Faces {
		remap := make(map[int]int, len(f.Loop))
		fresh := func(v int) int {
			if nv, ok := remap[v]; ok {
				return nv
			}
			nv := len(out.Positions)
			remap[v] = nv
			out.Positions = append(out.Positions, m.Positions[v])
			if hasNormals {
				out.Normals = append(out.Normals, m.Normals[v])
			}
			if hasTangents {
				out.Tangents = append(out.Tangents, m.Tangents[v])
			}
			if hasUVs {
				out.UVs = append(out.UVs, m.UVs[v])
			}
			return nv
		}

		nf := f
		nf.Loop = remapAll(f.Loop, fresh)
		nf.Triangles = remapAll(f.Triangles, fresh)
		out.Faces[i] = nf
	}
	return out
}

func remapAll(idx []int, fresh func(int) int) []int {
	if idx == nil {
		return nil
	}
	out := make([]int, len(idx))
	for i, v := range idx {
		out[i] = fresh(v)
	}
	return out
}
