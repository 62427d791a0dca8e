// Package convert translates between the editor's face-vertex meshes and
// half-edge brushes.
//
// ToBrush re-winds faces into the brush convention, welds shared vertices,
// resolves twin half-edges and derives a plane, tangent frame and texgen
// for every polygon. ToFaces goes the other way: it rebuilds triangle and
// quad faces from the control mesh, gives every face its own vertices and
// fills per-vertex normals, tangents and projected UVs.
package convert

import (
	"errors"
	"fmt"

	"github.com/chazu/brushconv/pkg/brush"
	"github.com/chazu/brushconv/pkg/facemesh"
	"github.com/chazu/brushconv/pkg/geom"
	"github.com/chazu/brushconv/pkg/halfedge"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
)

// Conversion errors.
var (
	ErrShapeMismatch       = brush.ErrShapeMismatch
	ErrUnsupportedTopology = errors.New("convert: only triangles and quads convert back to faces")
	ErrNilInput            = errors.New("convert: nil input")
)

// DefaultWeldEpsilon is the distance under which output vertices share a
// group.
const DefaultWeldEpsilon = 1e-5

// Options tunes a Converter.
type Options struct {
	// WeldEpsilon is the per-axis distance under which vertices are grouped
	// when a mesh carries no shared groups of its own.
	WeldEpsilon float64
	// Strict rejects meshes with edges shared by more than two polygons.
	Strict bool
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger used for conversion diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.Logger = l
		}
	}
}

// WithWeldEpsilon sets the weld distance.
func WithWeldEpsilon(eps float64) Option {
	return func(c *Converter) { c.Options.WeldEpsilon = eps }
}

// WithStrict enables or disables strict manifold checking.
func WithStrict(strict bool) Option {
	return func(c *Converter) { c.Options.Strict = strict }
}

// Converter converts meshes in both directions. The zero value is not
// usable; call New.
type Converter struct {
	Logger  *zap.Logger
	Options Options
}

// New returns a converter with a no-op logger and default options.
func New(opts ...Option) *Converter {
	c := &Converter{
		Logger:  zap.NewNop(),
		Options: Options{WeldEpsilon: DefaultWeldEpsilon},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Brush is a half-edge control mesh with its per-polygon shape data.
type Brush struct {
	Mesh   *halfedge.ControlMesh `yaml:"mesh"`
	Shape  *brush.Shape          `yaml:"shape"`
	Report halfedge.Report       `yaml:"-"`
}

// ToBrush converts m with a default converter.
func ToBrush(m *facemesh.Mesh) (*Brush, error) {
	return New().ToBrush(m)
}

// ToFaces converts a brush back with a default converter.
func ToFaces(cm *halfedge.ControlMesh, shape *brush.Shape, materials []string) (*facemesh.Mesh, error) {
	return New().ToFaces(cm, shape, materials)
}

// ToBrush converts a face-vertex mesh into a brush. The input is not
// modified.
func (c *Converter) ToBrush(m *facemesh.Mesh) (*Brush, error) {
	if m == nil {
		return nil, ErrNilInput
	}
	if err := facemesh.Validate(m); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}

	loops := make([][]int, len(m.Faces))
	for i, f := range m.Faces {
		loop, err := f.Boundary()
		if err != nil {
			return nil, fmt.Errorf("convert: face %d: %w", i, err)
		}
		if m.Winding == facemesh.Clockwise {
			loop = facemesh.Rewind(loop)
		}
		loops[i] = loop
	}

	groups := m.SharedGroups
	if groups == nil {
		groups = facemesh.SharedGroupsByPosition(m.Positions, c.Options.WeldEpsilon)
	}

	cm, report, err := halfedge.Build(m.Positions, loops, groups, halfedge.Options{Strict: c.Options.Strict})
	if err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	c.logReport(report, len(cm.Polygons))

	shape := brush.NewShape(len(cm.Polygons))
	for i, f := range m.Faces {
		plane := geom.ComputePlane(cm.PolygonPositions(i))
		tangent, binormal := geom.ComputeTangentFrame(geom.Negate(plane.Normal))

		flags := brush.DefaultTexGenFlags
		if f.UV.UseWorldSpace {
			flags |= brush.WorldSpaceTexture
		}
		shape.Add(
			brush.Surface{Plane: plane, Tangent: tangent, BiNormal: binormal},
			brush.TexGen{
				Material:       m.MaterialName(i),
				Translation:    f.UV.Offset,
				Scale:          f.UV.Scale.Mul(-1),
				RotationAngle:  f.UV.Rotation,
				SmoothingGroup: uint32(f.SmoothingGroup),
			},
			flags,
		)
	}

	c.Logger.Debug("converted faces to brush",
		zap.Int("faces", len(m.Faces)),
		zap.Int("vertices", len(cm.Vertices)),
		zap.Int("halfEdges", cm.EdgeCount()),
		zap.Stringer("winding", m.Winding),
	)
	return &Brush{Mesh: cm, Shape: shape, Report: report}, nil
}

func (c *Converter) logReport(r halfedge.Report, polygons int) {
	if len(r.Boundary) > 0 {
		c.Logger.Info("brush is open",
			zap.Int("boundaryEdges", len(r.Boundary)),
			zap.Int("polygons", polygons))
	}
	if len(r.NonManifold) > 0 {
		c.Logger.Warn("non-manifold edges, twinned first match",
			zap.Ints("edges", r.NonManifold))
	}
	if len(r.Degenerate) > 0 {
		c.Logger.Warn("degenerate edges collapse to one vertex",
			zap.Ints("edges", r.Degenerate))
	}
}

// ToFaces converts a control mesh and its shape into a face-vertex mesh.
// Every polygon must be a triangle or a quad. materials maps texgen
// materials to submesh indices; unknown materials get submesh -1.
func (c *Converter) ToFaces(cm *halfedge.ControlMesh, shape *brush.Shape, materials []string) (*facemesh.Mesh, error) {
	if cm == nil || shape == nil {
		return nil, ErrNilInput
	}
	if err := shape.Check(len(cm.Polygons)); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	if err := halfedge.CheckIndices(cm); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}

	shared := &facemesh.Mesh{
		Positions: cm.Vertices,
		Faces:     make([]facemesh.Face, len(cm.Polygons)),
		Materials: append([]string(nil), materials...),
		Winding:   facemesh.CounterClockwise,
	}

	for p := range cm.Polygons {
		v := cm.PolygonVertexIndices(p)
		var tris []int
		switch len(v) {
		case 3:
			tris = []int{v[0], v[1], v[2]}
		case 4:
			tris = []int{v[3], v[0], v[2], v[0], v[1], v[2]}
		default:
			return nil, fmt.Errorf("convert: polygon %d has %d vertices: %w", p, len(v), ErrUnsupportedTopology)
		}

		tg := shape.TexGens[shape.Surfaces[p].TexGenIndex]
		submesh := indexOf(materials, tg.Material)
		if submesh < 0 && tg.Material != "" {
			c.Logger.Warn("material not in list", zap.Int("polygon", p), zap.String("material", tg.Material))
		}

		shared.Faces[p] = facemesh.Face{
			Loop:      v,
			Triangles: tris,
			Submesh:   submesh,
			UV: facemesh.UVSettings{
				Offset:        tg.Translation,
				Scale:         tg.Scale.Mul(-1),
				Rotation:      tg.RotationAngle,
				UseWorldSpace: shape.TexGenFlags[p].Has(brush.WorldSpaceTexture),
				Fill:          facemesh.FillFit,
			},
			ManualUV:       true,
			SmoothingGroup: int(tg.SmoothingGroup),
		}
	}

	out := facemesh.MakeVerticesUniquePerFace(shared)
	fillAttributes(out, shape)
	out.SharedGroups = facemesh.SharedGroupsByPosition(out.Positions, c.Options.WeldEpsilon)

	c.Logger.Debug("converted brush to faces",
		zap.Int("polygons", len(cm.Polygons)),
		zap.Int("vertices", len(out.Positions)),
		zap.Int("groups", len(out.SharedGroups)),
	)
	return out, nil
}

// fillAttributes gives each face's vertices the surface normal, tangent and
// projected UV of its polygon. Faces own their vertices after
// MakeVerticesUniquePerFace, so no vertex is written twice.
func fillAttributes(m *facemesh.Mesh, shape *brush.Shape) {
	n := len(m.Positions)
	m.Normals = make([]v3.Vec, n)
	m.Tangents = make([]v3.Vec, n)
	m.UVs = make([]mgl64.Vec2, n)
	for p, f := range m.Faces {
		surf := shape.Surfaces[p]
		tg := shape.TexGens[surf.TexGenIndex]
		for _, v := range f.Loop {
			m.Normals[v] = surf.Plane.Normal
			m.Tangents[v] = surf.Tangent
			m.UVs[v] = tg.Project(m.Positions[v], surf)
		}
	}
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
