package facemesh

import (
	"errors"
	"fmt"

	"github.com/chazu/brushconv/pkg/halfedge"
)

// Schema errors. The structural ones alias the half-edge builder's errors so
// callers can test for either with errors.Is.
var (
	ErrNoFaces             = halfedge.ErrNoFaces
	ErrDegenerateFace      = halfedge.ErrDegenerateFace
	ErrIndexOutOfRange     = halfedge.ErrVertexIndexOutOfRange
	ErrInvalidSharedGroups = halfedge.ErrInvalidSharedGroups

	ErrOpenPerimeter     = errors.New("facemesh: triangles do not form a single closed boundary")
	ErrTriangleCount     = errors.New("facemesh: triangle list length not a multiple of 3")
	ErrSubmeshOutOfRange = errors.New("facemesh: submesh index out of range")
	ErrAttributeLength   = errors.New("facemesh: attribute array not parallel to positions")
)

// Validate checks that m can be converted: faces present, every face has a
// boundary of at least three in-range vertices, submeshes name existing
// materials, optional attributes are parallel to positions and shared
// groups partition the vertices.
func Validate(m *Mesh) error {
	if len(m.Faces) == 0 {
		return ErrNoFaces
	}
	n := len(m.Positions)
	attrs := []struct {
		name string
		len  int
	}{
		{"normals", len(m.Normals)},
		{"tangents", len(m.Tangents)},
		{"uvs", len(m.UVs)},
	}
	for _, a := range attrs {
		if a.len != 0 && a.len != n {
			return fmt.Errorf("facemesh: %d %s for %d positions: %w", a.len, a.name, n, ErrAttributeLength)
		}
	}

	for i, f := range m.Faces {
		if len(f.Triangles)%3 != 0 {
			return fmt.Errorf("facemesh: face %d: %w", i, ErrTriangleCount)
		}
		if err := checkIndices(f.Triangles, n); err != nil {
			return fmt.Errorf("facemesh: face %d triangles: %w", i, err)
		}
		loop, err := f.Boundary()
		if err != nil {
			return fmt.Errorf("facemesh: face %d: %w", i, err)
		}
		if err := checkIndices(loop, n); err != nil {
			return fmt.Errorf("facemesh: face %d loop: %w", i, err)
		}
		if len(m.Materials) > 0 && (f.Submesh < -1 || f.Submesh >= len(m.Materials)) {
			return fmt.Errorf("facemesh: face %d: submesh %d of %d: %w", i, f.Submesh, len(m.Materials), ErrSubmeshOutOfRange)
		}
	}

	if m.SharedGroups != nil {
		if err := checkGroups(m.SharedGroups, n); err != nil {
			return fmt.Errorf("facemesh: %w", err)
		}
	}
	return nil
}

func checkIndices(idx []int, n int) error {
	for _, v := range idx {
		if v < 0 || v >= n {
			return fmt.Errorf("index %d of %d: %w", v, n, ErrIndexOutOfRange)
		}
	}
	return nil
}

func checkGroups(groups [][]int, n int) error {
	seen := make([]bool, n)
	count := 0
	for g, members := range groups {
		if len(members) == 0 {
			return fmt.Errorf("group %d is empty: %w", g, ErrInvalidSharedGroups)
		}
		for _, v := range members {
			if v < 0 || v >= n {
				return fmt.Errorf("group %d: index %d: %w", g, v, ErrIndexOutOfRange)
			}
			if seen[v] {
				return fmt.Errorf("group %d: vertex %d listed twice: %w", g, v, ErrInvalidSharedGroups)
			}
			seen[v] = true
			count++
		}
	}
	if count != n {
		return fmt.Errorf("%d of %d vertices grouped: %w", count, n, ErrInvalidSharedGroups)
	}
	return nil
}
