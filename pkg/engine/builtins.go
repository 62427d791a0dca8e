package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/brushconv/pkg/facemesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
	"github.com/go-gl/mathgl/mgl64"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites mesh script source into something zygomys
// accepts:
//
//   - :keyword becomes the string "__kw_keyword", so builtins can tell
//     keywords apart without registering them as symbols.
//   - kebab-case identifiers become snake_case (top-left -> top_left), since
//     zygomys reads a hyphen as subtraction.
//   - ; comments become // comments.
//
// String literals and comment bodies pass through untouched.
func preprocessSource(source string) string {
	var out strings.Builder
	out.Grow(len(source) + len(source)/4)
	src := source
	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '"' || c == '`':
			j := skipString(src, i)
			out.WriteString(src[i:j])
			i = j - 1

		case c == ';':
			for i < len(src) && src[i] == ';' {
				i++
			}
			j := strings.IndexByte(src[i:], '\n')
			if j < 0 {
				j = len(src) - i
			}
			out.WriteString("//")
			out.WriteString(src[i : i+j])
			i += j - 1

		case c == ':' && i+1 < len(src) && isLetter(src[i+1]):
			j := i + 1
			for j < len(src) && isKWChar(src[j]) {
				j++
			}
			out.WriteByte('"')
			out.WriteString(kwPrefix)
			out.WriteString(src[i+1 : j])
			out.WriteByte('"')
			i = j - 1

		case c == '-' && i > 0 && i+1 < len(src) && isIdentChar(src[i-1]) && isLetter(src[i+1]):
			out.WriteByte('_')

		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}

// skipString returns the index just past the string literal starting at i.
// Double-quoted strings honour backslash escapes; raw strings do not.
func skipString(src string, i int) int {
	quote := src[i]
	for j := i + 1; j < len(src); j++ {
		switch {
		case quote == '"' && src[j] == '\\':
			j++
		case src[j] == quote:
			return j + 1
		}
	}
	return len(src)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isKWChar(c byte) bool {
	return isIdentChar(c) || c == '-'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec2 wraps a UV pair.
type sexpVec2 struct {
	vec mgl64.Vec2
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %g %g)", v.vec[0], v.vec[1])
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a position.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value is a flag.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer. Floats are accepted when they are whole.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true and false. A trailing flag keyword (SexpNull) is true.
func toBool(s zygo.Sexp) (bool, error) {
	if s == zygo.SexpNull {
		return true, nil
	}
	switch s.SexpString(nil) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("expected boolean, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_cw) and plain strings ("cw").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVec2 extracts a Vec2 from a sexpVec2. A plain number n means (n, n).
func toVec2(s zygo.Sexp) (mgl64.Vec2, error) {
	if v, ok := s.(*sexpVec2); ok {
		return v.vec, nil
	}
	if f, err := toFloat64(s); err == nil {
		return mgl64.Vec2{f, f}, nil
	}
	return mgl64.Vec2{}, fmt.Errorf("expected vec2, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

func intList(s zygo.Sexp) ([]int, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(items))
	for i, it := range items {
		if out[i], err = toInt(it); err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Mesh builder
// ---------------------------------------------------------------------------

// meshBuilder accumulates the mesh a script describes.
type meshBuilder struct {
	mesh      *facemesh.Mesh
	materials map[string]int
	current   int // submesh for faces without :material, -1 for none
}

func newMeshBuilder(w facemesh.Winding) *meshBuilder {
	return &meshBuilder{
		mesh: &facemesh.Mesh{
			Positions: []v3.Vec{},
			Faces:     []facemesh.Face{},
			Winding:   w,
		},
		materials: make(map[string]int),
		current:   -1,
	}
}

func (b *meshBuilder) material(name string) int {
	if i, ok := b.materials[name]; ok {
		return i
	}
	i := len(b.mesh.Materials)
	b.mesh.Materials = append(b.mesh.Materials, name)
	b.materials[name] = i
	return i
}

func (b *meshBuilder) vertex(p v3.Vec) int {
	b.mesh.Positions = append(b.mesh.Positions, p)
	return len(b.mesh.Positions) - 1
}

func (b *meshBuilder) checkIndices(idx []int) error {
	for _, i := range idx {
		if i < 0 || i >= len(b.mesh.Positions) {
			return fmt.Errorf("vertex %d out of range [0, %d)", i, len(b.mesh.Positions))
		}
	}
	return nil
}

// addFace appends a face with the given loop (or triangle list) and the
// keyword options shared by face, quad, tri and box.
func (b *meshBuilder) addFace(loop, tris []int, kw map[string]zygo.Sexp) (int, error) {
	if err := b.checkIndices(loop); err != nil {
		return 0, err
	}
	if err := b.checkIndices(tris); err != nil {
		return 0, err
	}
	f := facemesh.Face{
		Loop:      loop,
		Triangles: tris,
		Submesh:   b.current,
		UV:        facemesh.DefaultUV(),
	}
	if err := b.applyFaceOptions(&f, kw); err != nil {
		return 0, err
	}
	b.mesh.Faces = append(b.mesh.Faces, f)
	return len(b.mesh.Faces) - 1, nil
}

func (b *meshBuilder) applyFaceOptions(f *facemesh.Face, kw map[string]zygo.Sexp) error {
	if v, ok := kw["material"]; ok {
		s, err := toString(v)
		if err != nil {
			return fmt.Errorf("material: %w", err)
		}
		f.Submesh = b.material(s)
	}
	if v, ok := kw["smoothing"]; ok {
		n, err := toInt(v)
		if err != nil {
			return fmt.Errorf("smoothing: %w", err)
		}
		f.SmoothingGroup = n
	}
	if v, ok := kw["uv-offset"]; ok {
		o, err := toVec2(v)
		if err != nil {
			return fmt.Errorf("uv-offset: %w", err)
		}
		f.UV.Offset = o
	}
	if v, ok := kw["uv-scale"]; ok {
		s, err := toVec2(v)
		if err != nil {
			return fmt.Errorf("uv-scale: %w", err)
		}
		f.UV.Scale = s
	}
	if v, ok := kw["uv-rotation"]; ok {
		r, err := toFloat64(v)
		if err != nil {
			return fmt.Errorf("uv-rotation: %w", err)
		}
		f.UV.Rotation = r
	}
	if v, ok := kw["world-space"]; ok {
		ws, err := toBool(v)
		if err != nil {
			return fmt.Errorf("world-space: %w", err)
		}
		f.UV.UseWorldSpace = ws
	}
	if v, ok := kw["fill"]; ok {
		name, err := toKeywordString(v)
		if err != nil {
			return fmt.Errorf("fill: %w", err)
		}
		fill, err := facemesh.ParseFill(name)
		if err != nil {
			return err
		}
		f.UV.Fill = fill
	}
	return nil
}

// unusedVertices lists vertices no face refers to.
func (b *meshBuilder) unusedVertices() []int {
	used := make([]bool, len(b.mesh.Positions))
	for _, f := range b.mesh.Faces {
		for _, i := range f.Loop {
			used[i] = true
		}
		for _, i := range f.Triangles {
			used[i] = true
		}
	}
	var out []int
	for i, u := range used {
		if !u {
			out = append(out, i)
		}
	}
	return out
}

// boxLoops are the counter-clockwise faces of a box whose corners run
// around the bottom ring and then the top ring, as built by boxCorners.
var boxLoops = [6][4]int{
	{0, 3, 2, 1}, // -Z
	{4, 5, 6, 7}, // +Z
	{0, 1, 5, 4}, // -Y
	{3, 7, 6, 2}, // +Y
	{0, 4, 7, 3}, // -X
	{1, 2, 6, 5}, // +X
}

func boxCorners(min, size v3.Vec) [8]v3.Vec {
	max := min.Add(size)
	return [8]v3.Vec{
		{X: min.X, Y: min.Y, Z: min.Z},
		{X: max.X, Y: min.Y, Z: min.Z},
		{X: max.X, Y: max.Y, Z: min.Z},
		{X: min.X, Y: max.Y, Z: min.Z},
		{X: min.X, Y: min.Y, Z: max.Z},
		{X: max.X, Y: min.Y, Z: max.Z},
		{X: max.X, Y: max.Y, Z: max.Z},
		{X: min.X, Y: max.Y, Z: max.Z},
	}
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the mesh DSL builtins into a zygomys environment.
// The builtins operate on the provided builder, populating it during
// evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *meshBuilder) {

	// (vec2 u v)
	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec2: expected 2 arguments, got %d", len(args))
		}
		var v mgl64.Vec2
		for i := range v {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec2: %w", err)
			}
			v[i] = f
		}
		return &sexpVec2{vec: v}, nil
	})

	// (vec3 x y z)
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		v, err := vec3Args(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
		}
		return &sexpVec3{vec: v}, nil
	})

	// (vertex x y z) or (vertex (vec3 x y z)) -> vertex index
	env.AddFunction("vertex", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		var p v3.Vec
		var err error
		if len(args) == 1 {
			p, err = toVec3(args[0])
		} else {
			p, err = vec3Args(args)
		}
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vertex: %w", err)
		}
		return &zygo.SexpInt{Val: int64(b.vertex(p))}, nil
	})

	// (material "name") -> submesh index; later faces default to it
	env.AddFunction("material", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("material: expected 1 argument, got %d", len(args))
		}
		s, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("material: %w", err)
		}
		b.current = b.material(s)
		return &zygo.SexpInt{Val: int64(b.current)}, nil
	})

	// (face (list i j k ...) :material "m" :smoothing n ...) -> face index
	// (face :triangles (list i j k ...)) builds a face from a triangle list.
	env.AddFunction("face", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var loop, tris []int
		var err error
		switch {
		case len(pa.positional) == 1:
			loop, err = intList(pa.positional[0])
		case len(pa.positional) > 1:
			loop, err = intArgs(pa.positional)
		}
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face: %w", err)
		}
		if v, ok := pa.kw["triangles"]; ok {
			if tris, err = intList(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("face: triangles: %w", err)
			}
		}
		if len(loop) == 0 && len(tris) == 0 {
			return zygo.SexpNull, fmt.Errorf("face: no vertices")
		}
		if loop != nil && len(loop) < 3 {
			return zygo.SexpNull, fmt.Errorf("face: need at least 3 vertices, got %d", len(loop))
		}
		if len(tris)%3 != 0 {
			return zygo.SexpNull, fmt.Errorf("face: triangle list length %d is not a multiple of 3", len(tris))
		}
		fi, err := b.addFace(loop, tris, pa.kw)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face: %w", err)
		}
		return &zygo.SexpInt{Val: int64(fi)}, nil
	})

	// (quad a b c d ...) and (tri a b c ...)
	for fn, n := range map[string]int{"quad": 4, "tri": 3} {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if len(pa.positional) != n {
				return zygo.SexpNull, fmt.Errorf("%s: expected %d vertices, got %d", fn, n, len(pa.positional))
			}
			loop, err := intArgs(pa.positional)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
			fi, err := b.addFace(loop, nil, pa.kw)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
			return &zygo.SexpInt{Val: int64(fi)}, nil
		})
	}

	// (box :size (vec3 x y z) :at (vec3 x y z) :material "m") -> first face index
	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		size := v3.Vec{X: 1, Y: 1, Z: 1}
		var at v3.Vec
		var err error
		if v, ok := pa.kw["size"]; ok {
			if size, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("box: size: %w", err)
			}
		}
		if v, ok := pa.kw["at"]; ok {
			if at, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("box: at: %w", err)
			}
		}
		if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
			return zygo.SexpNull, fmt.Errorf("box: size must be positive, got %v", size)
		}
		base := len(b.mesh.Positions)
		for _, c := range boxCorners(at, size) {
			b.vertex(c)
		}
		first := len(b.mesh.Faces)
		for _, l := range boxLoops {
			loop := []int{base + l[0], base + l[1], base + l[2], base + l[3]}
			if b.mesh.Winding == facemesh.Clockwise {
				loop = facemesh.Rewind(loop)
			}
			if _, err := b.addFace(loop, nil, pa.kw); err != nil {
				return zygo.SexpNull, fmt.Errorf("box: %w", err)
			}
		}
		return &zygo.SexpInt{Val: int64(first)}, nil
	})

	// (winding :ccw) or (winding :cw); only before any geometry.
	env.AddFunction("winding", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("winding: expected 1 argument, got %d", len(args))
		}
		s, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("winding: %w", err)
		}
		w, err := facemesh.ParseWinding(s)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("winding: %w", err)
		}
		if len(b.mesh.Positions) > 0 || len(b.mesh.Faces) > 0 {
			return zygo.SexpNull, fmt.Errorf("winding: must be set before any vertex or face")
		}
		b.mesh.Winding = w
		return zygo.SexpNull, nil
	})
}

func vec3Args(args []zygo.Sexp) (v3.Vec, error) {
	if len(args) != 3 {
		return v3.Vec{}, fmt.Errorf("expected 3 coordinates, got %d", len(args))
	}
	var c [3]float64
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return v3.Vec{}, err
		}
		c[i] = f
	}
	return v3.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}

func intArgs(args []zygo.Sexp) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := toInt(a)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}
