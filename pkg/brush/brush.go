// Package brush describes the per-polygon surface data of a CSG brush:
// the plane and tangent frame of each polygon, its texture generation
// parameters and its render and collision flags.
package brush

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/brushconv/pkg/geom"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// ErrShapeMismatch is returned when the shape arrays disagree with each
// other or with the polygon count of the control mesh.
var ErrShapeMismatch = errors.New("brush: shape arrays do not match polygon count")

// TexGenFlags is a bitmask of per-polygon render and collision options.
type TexGenFlags uint32

const (
	WorldSpaceTexture TexGenFlags = 1 << iota
	NoRender
	NoCastShadows
	NoReceiveShadows
	NoCollision
)

// DefaultTexGenFlags renders, casts and receives shadows and collides.
const DefaultTexGenFlags TexGenFlags = 0

var flagNames = []struct {
	flag TexGenFlags
	name string
}{
	{WorldSpaceTexture, "world-space-texture"},
	{NoRender, "no-render"},
	{NoCastShadows, "no-cast-shadows"},
	{NoReceiveShadows, "no-receive-shadows"},
	{NoCollision, "no-collision"},
}

// Has reports whether every bit of flag is set.
func (f TexGenFlags) Has(flag TexGenFlags) bool {
	return f&flag == flag
}

// Names returns the names of the set flags in bit order.
func (f TexGenFlags) Names() []string {
	var out []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			out = append(out, fn.name)
		}
	}
	return out
}

func (f TexGenFlags) String() string {
	if f == DefaultTexGenFlags {
		return "default"
	}
	return strings.Join(f.Names(), "|")
}

// ParseTexGenFlag returns the flag with the given name.
func ParseTexGenFlag(name string) (TexGenFlags, error) {
	for _, fn := range flagNames {
		if fn.name == name {
			return fn.flag, nil
		}
	}
	return 0, fmt.Errorf("brush: unknown texgen flag %q", name)
}

// MarshalYAML writes the flags as a list of names.
func (f TexGenFlags) MarshalYAML() (any, error) {
	names := f.Names()
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// UnmarshalYAML reads a list of flag names.
func (f *TexGenFlags) UnmarshalYAML(node *yaml.Node) error {
	var names []string
	if err := node.Decode(&names); err != nil {
		return err
	}
	var out TexGenFlags
	for _, n := range names {
		flag, err := ParseTexGenFlag(n)
		if err != nil {
			return err
		}
		out |= flag
	}
	*f = out
	return nil
}

// Surface is the plane and tangent frame of one polygon.
type Surface struct {
	Plane       geom.Plane `yaml:"plane"`
	Tangent     v3.Vec     `yaml:"tangent"`
	BiNormal    v3.Vec     `yaml:"binormal"`
	TexGenIndex int        `yaml:"texgen"`
}

// TexGen holds the texture generation parameters of one polygon.
type TexGen struct {
	Material       string     `yaml:"material"`
	Translation    mgl64.Vec2 `yaml:"translation,flow"`
	Scale          mgl64.Vec2 `yaml:"scale,flow"`
	RotationAngle  float64    `yaml:"rotation"` // degrees
	SmoothingGroup uint32     `yaml:"smoothingGroup"`
}

// Project maps p onto the surface's tangent plane and applies the texgen
// rotation, scale and translation. Zero scale components count as 1.
func (t TexGen) Project(p v3.Vec, s Surface) mgl64.Vec2 {
	uv := mgl64.Vec2{p.Dot(s.Tangent), p.Dot(s.BiNormal)}
	if t.RotationAngle != 0 {
		uv = mgl64.Rotate2D(mgl64.DegToRad(t.RotationAngle)).Mul2x1(uv)
	}
	for i := range uv {
		if t.Scale[i] != 0 {
			uv[i] /= t.Scale[i]
		}
	}
	return uv.Add(t.Translation)
}

// Shape is the per-polygon metadata of a brush. The three slices are
// parallel to the control mesh's polygons.
type Shape struct {
	Surfaces    []Surface     `yaml:"surfaces"`
	TexGens     []TexGen      `yaml:"texgens"`
	TexGenFlags []TexGenFlags `yaml:"flags"`
}

// NewShape returns an empty shape with room for n polygons.
func NewShape(n int) *Shape {
	return &Shape{
		Surfaces:    make([]Surface, 0, n),
		TexGens:     make([]TexGen, 0, n),
		TexGenFlags: make([]TexGenFlags, 0, n),
	}
}

// Add appends one polygon's metadata and points its surface at the new
// texgen.
func (s *Shape) Add(surface Surface, texGen TexGen, flags TexGenFlags) {
	surface.TexGenIndex = len(s.TexGens)
	s.Surfaces = append(s.Surfaces, surface)
	s.TexGens = append(s.TexGens, texGen)
	s.TexGenFlags = append(s.TexGenFlags, flags)
}

// Len returns the number of polygons described.
func (s *Shape) Len() int {
	return len(s.Surfaces)
}

// Check verifies the shape describes exactly polygons polygons and every
// surface points at an existing texgen.
func (s *Shape) Check(polygons int) error {
	if len(s.Surfaces) != polygons || len(s.TexGens) != polygons || len(s.TexGenFlags) != polygons {
		return fmt.Errorf("%d surfaces, %d texgens, %d flags for %d polygons: %w",
			len(s.Surfaces), len(s.TexGens), len(s.TexGenFlags), polygons, ErrShapeMismatch)
	}
	for i, surf := range s.Surfaces {
		if surf.TexGenIndex < 0 || surf.TexGenIndex >= len(s.TexGens) {
			return fmt.Errorf("surface %d: texgen %d: %w", i, surf.TexGenIndex, ErrShapeMismatch)
		}
	}
	return nil
}

// Material returns the material name of polygon i.
func (s *Shape) Material(i int) string {
	return s.TexGens[s.Surfaces[i].TexGenIndex].Material
}
