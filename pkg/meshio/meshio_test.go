package meshio

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/chazu/brushconv/pkg/convert"
	"github.com/chazu/brushconv/pkg/facemesh"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
)

func quadMesh() *facemesh.Mesh {
	uv := facemesh.DefaultUV()
	uv.Offset = mgl64.Vec2{0.5, -0.25}
	uv.Rotation = 30
	return &facemesh.Mesh{
		Positions:    []v3.Vec{{X: 0}, {X: 1}, {X: 1, Y: 1}, {Y: 1}, {X: 2}, {X: 2, Y: 1}},
		UVs:          []mgl64.Vec2{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {2, 0}, {2, 1}},
		Faces: []facemesh.Face{
			{Loop: []int{0, 1, 2, 3}, Submesh: 0, UV: uv, SmoothingGroup: 2},
			{Triangles: []int{1, 4, 5, 1, 5, 2}, Submesh: -1, UV: facemesh.DefaultUV(), ManualUV: true},
		},
		SharedGroups: [][]int{{0}, {1}, {2}, {3}, {4}, {5}},
		Materials:    []string{"brick"},
		Winding:      facemesh.CounterClockwise,
	}
}

func TestFaceMeshRoundTrip(t *testing.T) {
	in := quadMesh()
	var buf bytes.Buffer
	if err := EncodeFaceMesh(&buf, in); err != nil {
		t.Fatalf("EncodeFaceMesh() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "kind: facemesh\nversion: 1\n") {
		t.Errorf("document header:\n%s", buf.String())
	}
	out, err := DecodeFaceMesh(&buf)
	if err != nil {
		t.Fatalf("DecodeFaceMesh() error = %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("round trip mismatch\n got %+v\nwant %+v", out, in)
	}
}

func TestBrushRoundTrip(t *testing.T) {
	m := quadMesh()
	b, err := convert.ToBrush(m)
	if err != nil {
		t.Fatalf("ToBrush() error = %v", err)
	}
	in := &BrushDocument{Mesh: b.Mesh, Shape: b.Shape, Materials: m.Materials}

	path := filepath.Join(t.TempDir(), "nested", "quad.brush.yaml")
	if err := SaveBrush(path, in); err != nil {
		t.Fatalf("SaveBrush() error = %v", err)
	}
	out, err := LoadBrush(path)
	if err != nil {
		t.Fatalf("LoadBrush() error = %v", err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("round trip mismatch\n got %+v\nwant %+v", out, in)
	}

	faces, err := convert.ToFaces(out.Mesh, out.Shape, out.Materials)
	if err != nil {
		t.Fatalf("ToFaces() error = %v", err)
	}
	if len(faces.Faces) != 2 || faces.Faces[0].Submesh != 0 {
		t.Errorf("faces = %+v", faces.Faces)
	}
}

func TestSaveLoadFaceMesh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.yaml")
	if err := SaveFaceMesh(path, quadMesh()); err != nil {
		t.Fatalf("SaveFaceMesh() error = %v", err)
	}
	m, err := LoadFaceMesh(path)
	if err != nil {
		t.Fatalf("LoadFaceMesh() error = %v", err)
	}
	if len(m.Faces) != 2 {
		t.Errorf("len(Faces) = %d, want 2", len(m.Faces))
	}
	if _, err := LoadBrush(path); !errors.Is(err, ErrWrongKind) {
		t.Errorf("LoadBrush(facemesh) error = %v, want ErrWrongKind", err)
	}
	if _, err := LoadFaceMesh(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadFaceMesh() of a missing file succeeded")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"wrong kind", "kind: brush\nversion: 1\nmesh: {}\n", ErrWrongKind},
		{"future version", "kind: facemesh\nversion: 9\nmesh: {}\n", ErrUnsupportedVersion},
		{"missing version", "kind: facemesh\nmesh: {}\n", ErrUnsupportedVersion},
		{"no mesh", "kind: facemesh\nversion: 1\n", ErrMissingBody},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFaceMesh(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.want) {
				t.Errorf("DecodeFaceMesh() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := DecodeFaceMesh(strings.NewReader("kind: facemesh\nversion: 1\ncolour: red\n")); err == nil {
		t.Error("DecodeFaceMesh() accepted an unknown field")
	}
}

func TestDetectKind(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeFaceMesh(&buf, quadMesh()); err != nil {
		t.Fatalf("EncodeFaceMesh() error = %v", err)
	}
	kind, err := DetectKind(buf.Bytes())
	if err != nil || kind != KindFaceMesh {
		t.Errorf("DetectKind() = %q, %v, want facemesh", kind, err)
	}
	if _, err := DetectKind([]byte("name: nothing\n")); !errors.Is(err, ErrWrongKind) {
		t.Errorf("DetectKind(no kind) error = %v, want ErrWrongKind", err)
	}
}
