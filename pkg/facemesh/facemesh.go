// Package facemesh is the face-vertex polygon schema used by editors: raw
// per-face vertices, faces given as boundary loops or triangle lists,
// shared vertex groups that weld coincident vertices, and per-face UV
// settings.
package facemesh

import (
	"fmt"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// Winding is the vertex order of a face when viewed from its front.
type Winding int

const (
	// Clockwise is the editor convention; faces are re-wound before they
	// become brush polygons.
	Clockwise Winding = iota
	// CounterClockwise is already the brush convention.
	CounterClockwise
)

func (w Winding) String() string {
	switch w {
	case Clockwise:
		return "cw"
	case CounterClockwise:
		return "ccw"
	default:
		return fmt.Sprintf("Winding(%d)", int(w))
	}
}

// ParseWinding accepts cw, ccw, clockwise and counterclockwise in any case.
func ParseWinding(s string) (Winding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cw", "clockwise":
		return Clockwise, nil
	case "ccw", "counterclockwise", "counter-clockwise":
		return CounterClockwise, nil
	}
	return 0, fmt.Errorf("facemesh: unknown winding %q", s)
}

// MarshalYAML writes the winding as its short name.
func (w Winding) MarshalYAML() (any, error) {
	return w.String(), nil
}

// UnmarshalYAML reads a winding name.
func (w *Winding) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseWinding(node.Value)
	if err != nil {
		return err
	}
	*w = v
	return nil
}

// Fill controls how an automatic unwrap stretches UVs over a face.
type Fill int

const (
	FillFit Fill = iota
	FillTile
	FillStretch
)

var fillNames = [...]string{"fit", "tile", "stretch"}

func (f Fill) String() string {
	if f >= 0 && int(f) < len(fillNames) {
		return fillNames[f]
	}
	return fmt.Sprintf("Fill(%d)", int(f))
}

// MarshalYAML writes the fill mode by name.
func (f Fill) MarshalYAML() (any, error) {
	return f.String(), nil
}

// ParseFill accepts fit, tile and stretch in any case.
func ParseFill(s string) (Fill, error) {
	for i, name := range fillNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Fill(i), nil
		}
	}
	return 0, fmt.Errorf("facemesh: unknown fill %q", s)
}

// UnmarshalYAML reads a fill mode name.
func (f *Fill) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseFill(node.Value)
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// UVSettings is the per-face automatic unwrap configuration.
type UVSettings struct {
	Offset        mgl64.Vec2 `yaml:"offset,flow"`
	Scale         mgl64.Vec2 `yaml:"scale,flow"`
	Rotation      float64    `yaml:"rotation"` // degrees
	UseWorldSpace bool       `yaml:"worldSpace"`
	Fill          Fill       `yaml:"fill"`
}

// DefaultUV returns unit scale, no offset, no rotation, tiled.
func DefaultUV() UVSettings {
	return UVSettings{Scale: mgl64.Vec2{1, 1}, Fill: FillTile}
}

// Face is one polygon of a Mesh. Loop is the ordered boundary; when it is
// empty the boundary is derived from Triangles.
type Face struct {
	Loop           []int      `yaml:"loop,flow,omitempty"`
	Triangles      []int      `yaml:"triangles,flow,omitempty"`
	Submesh        int        `yaml:"submesh"` // index into Mesh.Materials, -1 for none
	UV             UVSettings `yaml:"uv"`
	ManualUV       bool       `yaml:"manualUV"`
	SmoothingGroup int        `yaml:"smoothingGroup"`
}

// Boundary returns the face's boundary loop.
func (f Face) Boundary() ([]int, error) {
	var loop []int
	switch {
	case len(f.Loop) > 0:
		loop = append([]int(nil), f.Loop...)
	case len(f.Triangles) > 0:
		var err error
		if loop, err = Perimeter(f.Triangles); err != nil {
			return nil, err
		}
	}
	if len(loop) < 3 {
		return nil, fmt.Errorf("%d boundary vertices: %w", len(loop), ErrDegenerateFace)
	}
	return loop, nil
}

// Mesh is a polygon mesh in face-vertex form. Normals, Tangents and UVs
// are optional and, when present, parallel to Positions.
type Mesh struct {
	Positions    []v3.Vec     `yaml:"positions"`
	Normals      []v3.Vec     `yaml:"normals,omitempty"`
	Tangents     []v3.Vec     `yaml:"tangents,omitempty"`
	UVs          []mgl64.Vec2 `yaml:"uvs,omitempty,flow"`
	Faces        []Face       `yaml:"faces"`
	SharedGroups [][]int      `yaml:"sharedGroups,omitempty,flow"`
	Materials    []string     `yaml:"materials,omitempty"`
	Winding      Winding      `yaml:"winding"`
}

// MaterialName returns the material of face i, or "" when it has none.
func (m *Mesh) MaterialName(i int) string {
	s := m.Faces[i].Submesh
	if s < 0 || s >= len(m.Materials) {
		return ""
	}
	return m.Materials[s]
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	out := &Mesh{
		Positions: append([]v3.Vec(nil), m.Positions...),
		Normals:   append([]v3.Vec(nil), m.Normals...),
		Tangents:  append([]v3.Vec(nil), m.Tangents...),
		UVs:       append([]mgl64.Vec2(nil), m.UVs...),
		Faces:     make([]Face, len(m.Faces)),
		Materials: append([]string(nil), m.Materials...),
		Winding:   m.Winding,
	}
	for i, f := range m.Faces {
		f.Loop = append([]int(nil), f.Loop...)
		f.Triangles = append([]int(nil), f.Triangles...)
		out.Faces[i] = f
	}
	if m.SharedGroups != nil {
		out.SharedGroups = make([][]int, len(m.SharedGroups))
		for i, g := range m.SharedGroups {
			out.SharedGroups[i] = append([]int(nil), g...)
		}
	}
	return out
}
