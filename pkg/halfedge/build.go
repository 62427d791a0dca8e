package halfedge

import (
	"errors"
	"fmt"
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Build errors.
var (
	ErrNoFaces               = errors.New("halfedge: no faces")
	ErrDegenerateFace        = errors.New("halfedge: face has fewer than 3 vertices")
	ErrVertexIndexOutOfRange = errors.New("halfedge: vertex index out of range")
	ErrInvalidSharedGroups   = errors.New("halfedge: shared vertex groups do not partition the vertices")
	ErrNonManifold           = errors.New("halfedge: non-manifold edge")
)

// Options controls Build.
type Options struct {
	// Strict turns duplicate coincident edges into ErrNonManifold instead of
	// twinning the first match.
	Strict bool
}

// Report lists the half-edges Build could not pair cleanly.
type Report struct {
	Boundary    []int // no opposing half-edge
	NonManifold []int // more than one candidate twin, or a duplicated edge
	Degenerate  []int // tail and head are the same vertex
}

// Closed reports whether every half-edge found its twin.
func (r Report) Closed() bool {
	return len(r.Boundary) == 0 && len(r.Degenerate) == 0
}

// Manifold reports whether no edge was shared by more than two polygons.
func (r Report) Manifold() bool {
	return len(r.NonManifold) == 0
}

// TwinKeyOffset is the provisional twin key base of a linear-scan resolver:
// any key at or above it refers to a vertex, not to a half-edge. Build
// resolves twins through a map instead and produces the same pairs.
func TwinKeyOffset(faceCount, groupCount int) int {
	return faceCount * groupCount
}

// edgeKey is a directed (tail, head) pair of canonical vertices.
type edgeKey struct {
	tail, head int
}

// Build converts polygon loops over raw vertices into a half-edge mesh.
//
// groups partitions the raw vertex indices; every group becomes one mesh
// vertex positioned at its first member. A nil groups slice keeps every raw
// vertex separate. Each loop edge (a, b) becomes one half-edge whose head is
// canonical(b). Half-edges a->b and b->a are twinned; the earlier one in
// emission order stays Primary. Unpaired half-edges keep NoTwin.
func Build(positions []v3.Vec, loops [][]int, groups [][]int, opts Options) (*ControlMesh, Report, error) {
	var report Report
	if len(loops) == 0 {
		return nil, report, ErrNoFaces
	}

	canon, vertices, err := canonicalize(positions, groups)
	if err != nil {
		return nil, report, err
	}

	total := 0
	for i, loop := range loops {
		if len(loop) < 3 {
			return nil, report, fmt.Errorf("face %d: %w", i, ErrDegenerateFace)
		}
		for _, v := range loop {
			if v < 0 || v >= len(positions) {
				return nil, report, fmt.Errorf("face %d: index %d: %w", i, v, ErrVertexIndexOutOfRange)
			}
		}
		total += len(loop)
	}

	mesh := &ControlMesh{
		Vertices: vertices,
		Edges:    make([]HalfEdge, 0, total),
		Polygons: make([]Polygon, len(loops)),
	}
	tails := make([]int, 0, total)

	for i, loop := range loops {
		edges := make([]int, len(loop))
		for k := range loop {
			a := canon[loop[k]]
			b := canon[loop[(k+1)%len(loop)]]
			edges[k] = len(mesh.Edges)
			mesh.Edges = append(mesh.Edges, HalfEdge{
				PolygonIndex: i,
				VertexIndex:  b,
				TwinIndex:    NoTwin,
				Primary:      true,
			})
			tails = append(tails, a)
		}
		mesh.Polygons[i] = Polygon{EdgeIndices: edges}
	}

	if err := resolveTwins(mesh, tails, &report); err != nil && opts.Strict {
		return nil, report, err
	}
	return mesh, report, nil
}

// canonicalize maps raw vertex indices onto group indices.
func canonicalize(positions []v3.Vec, groups [][]int) ([]int, []v3.Vec, error) {
	canon := make([]int, len(positions))
	if groups == nil {
		for i := range canon {
			canon[i] = i
		}
		return canon, append([]v3.Vec(nil), positions...), nil
	}

	for i := range canon {
		canon[i] = -1
	}
	vertices := make([]v3.Vec, len(groups))
	for g, members := range groups {
		if len(members) == 0 {
			return nil, nil, fmt.Errorf("group %d is empty: %w", g, ErrInvalidSharedGroups)
		}
		for _, v := range members {
			if v < 0 || v >= len(positions) {
				return nil, nil, fmt.Errorf("group %d: index %d: %w", g, v, ErrVertexIndexOutOfRange)
			}
			if canon[v] != -1 {
				return nil, nil, fmt.Errorf("vertex %d in groups %d and %d: %w", v, canon[v], g, ErrInvalidSharedGroups)
			}
			canon[v] = g
		}
		vertices[g] = positions[members[0]]
	}
	for v, g := range canon {
		if g == -1 {
			return nil, nil, fmt.Errorf("vertex %d not in any group: %w", v, ErrInvalidSharedGroups)
		}
	}
	return canon, vertices, nil
}

// resolveTwins pairs opposing half-edges. It always finishes the pass and
// returns ErrNonManifold afterwards if any ambiguity was seen.
func resolveTwins(mesh *ControlMesh, tails []int, report *Report) error {
	byKey := make(map[edgeKey][]int, len(mesh.Edges))
	for i, e := range mesh.Edges {
		k := edgeKey{tail: tails[i], head: e.VertexIndex}
		byKey[k] = append(byKey[k], i)
	}

	flagged := make(map[int]bool)
	flag := func(i int) {
		if !flagged[i] {
			flagged[i] = true
			report.NonManifold = append(report.NonManifold, i)
		}
	}

	for i := range mesh.Edges {
		if mesh.Edges[i].HasTwin() {
			continue
		}
		tail, head := tails[i], mesh.Edges[i].VertexIndex
		if tail == head {
			report.Degenerate = append(report.Degenerate, i)
			continue
		}

		same := byKey[edgeKey{tail: tail, head: head}]
		opposite := byKey[edgeKey{tail: head, head: tail}]
		if len(same) > 1 || len(opposite) > 1 {
			// Flag the whole coincident set, including any member that
			// was already twinned from the other side.
			for _, j := range same {
				flag(j)
			}
			for _, j := range opposite {
				flag(j)
			}
		}

		twin := -1
		for _, j := range opposite {
			if !mesh.Edges[j].HasTwin() {
				twin = j
				break
			}
		}
		if twin < 0 {
			report.Boundary = append(report.Boundary, i)
			continue
		}

		mesh.Edges[i].TwinIndex = twin
		mesh.Edges[twin].TwinIndex = i
		mesh.Edges[twin].Primary = false
	}

	if len(report.NonManifold) > 0 {
		slices.Sort(report.NonManifold)
		return fmt.Errorf("%d ambiguous half-edges (first %d): %w",
			len(report.NonManifold), report.NonManifold[0], ErrNonManifold)
	}
	return nil
}
