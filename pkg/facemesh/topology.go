package facemesh

import (
	"fmt"
	"sort"
)

// Rewind reverses the direction of a boundary loop while keeping its first
// vertex first: (v0, v1, ..., vn-1) becomes (v0, vn-1, ..., v1). A quad
// (v0, v1, v2, v3) becomes (v0, v3, v2, v1) and a triangle (v0, v1, v2)
// becomes (v0, v2, v1).
func Rewind(loop []int) []int {
	out := make([]int, len(loop))
	if len(loop) == 0 {
		return out
	}
	out[0] = loop[0]
	for k := 1; k < len(loop); k++ {
		out[k] = loop[len(loop)-k]
	}
	return out
}

// Perimeter returns the boundary loop of a triangle list: the edges used by
// exactly one triangle, chained in the triangles' direction and starting at
// the lowest vertex index. It fails unless those edges form one closed
// simple loop.
func Perimeter(triangles []int) ([]int, error) {
	if len(triangles) == 0 || len(triangles)%3 != 0 {
		return nil, ErrTriangleCount
	}

	type undirected struct{ lo, hi int }
	key := func(a, b int) undirected {
		if a > b {
			a, b = b, a
		}
		return undirected{a, b}
	}

	uses := make(map[undirected]int)
	for t := 0; t < len(triangles); t += 3 {
		for k := 0; k < 3; k++ {
			uses[key(triangles[t+k], triangles[t+(k+1)%3])]++
		}
	}

	next := make(map[int]int)
	for t := 0; t < len(triangles); t += 3 {
		for k := 0; k < 3; k++ {
			a, b := triangles[t+k], triangles[t+(k+1)%3]
			if uses[key(a, b)] != 1 {
				continue
			}
			if _, dup := next[a]; dup {
				return nil, fmt.Errorf("vertex %d starts two boundary edges: %w", a, ErrOpenPerimeter)
			}
			next[a] = b
		}
	}
	if len(next) < 3 {
		return nil, fmt.Errorf("%d boundary edges: %w", len(next), ErrOpenPerimeter)
	}

	tails := make([]int, 0, len(next))
	for v := range next {
		tails = append(tails, v)
	}
	sort.Ints(tails)

	start := tails[0]
	loop := []int{start}
	for v := next[start]; v != start; {
		if len(loop) > len(next) {
			return nil, ErrOpenPerimeter
		}
		loop = append(loop, v)
		nv, ok := next[v]
		if !ok {
			return nil, fmt.Errorf("boundary stops at vertex %d: %w", v, ErrOpenPerimeter)
		}
		v = nv
	}
	if len(loop) != len(next) {
		return nil, fmt.Errorf("%d of %d boundary edges in the first loop: %w", len(loop), len(next), ErrOpenPerimeter)
	}
	return loop, nil
}
