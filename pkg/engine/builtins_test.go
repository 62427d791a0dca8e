package engine

import (
	"math"
	"os"
	"testing"

	"github.com/chazu/brushconv/pkg/convert"
	"github.com/chazu/brushconv/pkg/facemesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(box :material "stone")`,
			expect: `(box "__kw_material" "stone")`,
		},
		{
			name:   "multiple keywords",
			input:  `(quad 0 1 2 3 :smoothing 2 :uv-rotation 90)`,
			expect: `(quad 0 1 2 3 "__kw_smoothing" 2 "__kw_uv-rotation" 90)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def top-left (vertex 0 1 0))`,
			expect: `(def top_left (vertex 0 1 0))`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
		{
			name:   "winding keyword",
			input:  `(winding :cw)`,
			expect: `(winding "__kw_cw")`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := preprocessSource(tt.input)
			if got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Builtin tests
// ---------------------------------------------------------------------------

func mustEval(t *testing.T, src string) *facemesh.Mesh {
	t.Helper()
	m, evalErrs, err := NewEngine().Evaluate(src)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return m
}

func evalFails(t *testing.T, src string) {
	t.Helper()
	m, evalErrs, err := NewEngine().Evaluate(src)
	if err != nil {
		t.Fatalf("expected eval error, got fatal: %v", err)
	}
	if m != nil || len(evalErrs) == 0 {
		t.Fatalf("expected eval error for %q", src)
	}
}

func TestQuadScene(t *testing.T) {
	m := mustEval(t, `
(def a (vertex 0 0 0))
(def b (vertex 1 0 0))
(def c (vertex (vec3 1 1 0)))
(def d (vertex 0 1 0))
(quad a b c d)
`)
	if len(m.Positions) != 4 {
		t.Fatalf("got %d positions, want 4", len(m.Positions))
	}
	if m.Positions[2] != (v3.Vec{X: 1, Y: 1}) {
		t.Errorf("position 2 = %v", m.Positions[2])
	}
	if len(m.Faces) != 1 {
		t.Fatalf("got %d faces, want 1", len(m.Faces))
	}
	f := m.Faces[0]
	if !equalInts(f.Loop, []int{0, 1, 2, 3}) {
		t.Errorf("loop = %v", f.Loop)
	}
	if f.Submesh != -1 {
		t.Errorf("submesh = %d, want -1", f.Submesh)
	}
	if f.UV != facemesh.DefaultUV() {
		t.Errorf("uv = %+v, want defaults", f.UV)
	}
	if err := facemesh.Validate(m); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestFaceKeywords(t *testing.T) {
	m := mustEval(t, `
(vertex 0 0 0)
(vertex 1 0 0)
(vertex 1 1 0)
(vertex 0 1 0)
(material "brick")
(face (list 0 1 2 3)
      :material "trim"
      :smoothing 3
      :uv-offset (vec2 0.5 0.25)
      :uv-scale (vec2 2 4)
      :uv-rotation 45
      :world-space true
      :fill :stretch)
(tri 0 1 2)
(face :triangles (list 0 1 2 0 2 3))
`)
	if len(m.Faces) != 3 {
		t.Fatalf("got %d faces, want 3", len(m.Faces))
	}
	if len(m.Materials) != 2 || m.Materials[0] != "brick" || m.Materials[1] != "trim" {
		t.Fatalf("materials = %v", m.Materials)
	}

	f := m.Faces[0]
	want := facemesh.UVSettings{
		Offset:        mgl64.Vec2{0.5, 0.25},
		Scale:         mgl64.Vec2{2, 4},
		Rotation:      45,
		UseWorldSpace: true,
		Fill:          facemesh.FillStretch,
	}
	if f.UV != want {
		t.Errorf("uv = %+v, want %+v", f.UV, want)
	}
	if f.Submesh != 1 || f.SmoothingGroup != 3 {
		t.Errorf("submesh = %d smoothing = %d", f.Submesh, f.SmoothingGroup)
	}

	// Faces without :material use the current material.
	if m.Faces[1].Submesh != 0 {
		t.Errorf("tri submesh = %d, want 0", m.Faces[1].Submesh)
	}
	if len(m.Faces[2].Loop) != 0 || !equalInts(m.Faces[2].Triangles, []int{0, 1, 2, 0, 2, 3}) {
		t.Errorf("triangle face = %+v", m.Faces[2])
	}
	if err := facemesh.Validate(m); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestBoxConvertsToClosedBrush(t *testing.T) {
	for _, w := range []string{"ccw", "cw"} {
		t.Run(w, func(t *testing.T) {
			m := mustEval(t, `
(winding :`+w+`)
(box :size (vec3 2 2 2) :at (vec3 -1 -1 -1) :material "stone")
`)
			if len(m.Positions) != 8 || len(m.Faces) != 6 {
				t.Fatalf("got %d positions %d faces", len(m.Positions), len(m.Faces))
			}
			if m.Positions[0] != (v3.Vec{X: -1, Y: -1, Z: -1}) || m.Positions[6] != (v3.Vec{X: 1, Y: 1, Z: 1}) {
				t.Errorf("corners = %v .. %v", m.Positions[0], m.Positions[6])
			}

			b, err := convert.ToBrush(m)
			if err != nil {
				t.Fatalf("ToBrush: %v", err)
			}
			if b.Mesh.EdgeCount() != 24 {
				t.Errorf("edges = %d, want 24", b.Mesh.EdgeCount())
			}
			if !b.Report.Closed() || !b.Report.Manifold() {
				t.Errorf("report = %+v, want closed manifold", b.Report)
			}
			for i := 0; i < b.Shape.Len(); i++ {
				if got := b.Shape.Material(i); got != "stone" {
					t.Errorf("surface %d material = %q", i, got)
				}
				// Every box face is one unit from the center.
				if d := b.Shape.Surfaces[i].Plane.Distance; math.Abs(math.Abs(d)-1) > 1e-9 {
					t.Errorf("surface %d distance = %v", i, d)
				}
			}
		})
	}
}

func TestExampleScript(t *testing.T) {
	src, err := os.ReadFile("../../examples/cube.lisp")
	if err != nil {
		t.Fatalf("read example: %v", err)
	}
	m := mustEval(t, string(src))
	if len(m.Faces) != 17 {
		t.Fatalf("got %d faces, want 17", len(m.Faces))
	}
	if got := m.Materials; len(got) != 3 || got[2] != "ramp" {
		t.Errorf("materials = %v", got)
	}
	b, err := convert.ToBrush(m)
	if err != nil {
		t.Fatalf("ToBrush: %v", err)
	}
	if !b.Report.Closed() || !b.Report.Manifold() {
		t.Errorf("report = %+v, want closed manifold", b.Report)
	}
}

func TestDefVariables(t *testing.T) {
	m := mustEval(t, `
(def edge 4)
(def half (/ edge 2))
(box :size (vec3 edge edge edge) :at (vec3 (- 0 half) 0 0))
`)
	if m.Positions[0].X != -2 || m.Positions[6].X != 2 || m.Positions[6].Z != 4 {
		t.Errorf("positions = %v", m.Positions)
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"index out of range", "(vertex 0 0 0) (vertex 1 0 0) (tri 0 1 2)"},
		{"negative index", "(vertex 0 0 0) (vertex 1 0 0) (vertex 1 1 0) (tri -1 1 2)"},
		{"quad arity", "(vertex 0 0 0) (vertex 1 0 0) (vertex 1 1 0) (quad 0 1 2)"},
		{"face too short", "(vertex 0 0 0) (vertex 1 0 0) (face (list 0 1))"},
		{"face empty", "(face)"},
		{"triangle list length", "(vertex 0 0 0) (vertex 1 0 0) (vertex 1 1 0) (face :triangles (list 0 1))"},
		{"winding after geometry", "(vertex 0 0 0) (winding :cw)"},
		{"unknown winding", "(winding :sideways)"},
		{"vertex arity", "(vertex 1 2)"},
		{"vec2 arity", "(vec2 1)"},
		{"material not string", "(material 3)"},
		{"bad fill", "(box :fill :wobble)"},
		{"box size", "(box :size (vec3 0 1 1))"},
		{"box size not vec3", "(box :size 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evalFails(t, tt.src)
		})
	}
}

func TestWindingSetsMesh(t *testing.T) {
	m := mustEval(t, "(winding :clockwise)")
	if m.Winding != facemesh.Clockwise {
		t.Errorf("winding = %v, want cw", m.Winding)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
