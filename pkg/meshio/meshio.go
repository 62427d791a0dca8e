// Package meshio reads and writes face meshes and brushes as versioned
// YAML documents.
package meshio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chazu/brushconv/pkg/brush"
	"github.com/chazu/brushconv/pkg/facemesh"
	"github.com/chazu/brushconv/pkg/halfedge"
	"gopkg.in/yaml.v3"
)

// Version is the document format version written by this package.
const Version = 1

// Document kinds.
const (
	KindFaceMesh = "facemesh"
	KindBrush    = "brush"
)

var (
	ErrWrongKind          = errors.New("meshio: unexpected document kind")
	ErrUnsupportedVersion = errors.New("meshio: unsupported document version")
	ErrMissingBody        = errors.New("meshio: document has no mesh")
)

// header is the part every document starts with.
type header struct {
	Kind    string `yaml:"kind"`
	Version int    `yaml:"version"`
}

type faceMeshDoc struct {
	Kind    string         `yaml:"kind"`
	Version int            `yaml:"version"`
	Mesh    *facemesh.Mesh `yaml:"mesh"`
}

// BrushDocument is a brush as stored on disk. Materials is the submesh
// list used when the brush converts back to faces.
type BrushDocument struct {
	Mesh      *halfedge.ControlMesh `yaml:"mesh"`
	Shape     *brush.Shape          `yaml:"shape"`
	Materials []string              `yaml:"materials,omitempty"`
}

type brushDoc struct {
	Kind          string `yaml:"kind"`
	Version       int    `yaml:"version"`
	BrushDocument `yaml:",inline"`
}

// DetectKind returns the kind field of a document.
func DetectKind(data []byte) (string, error) {
	var h header
	if err := yaml.Unmarshal(data, &h); err != nil {
		return "", fmt.Errorf("meshio: %w", err)
	}
	if h.Kind == "" {
		return "", fmt.Errorf("meshio: no kind field: %w", ErrWrongKind)
	}
	return h.Kind, nil
}

func checkHeader(kind string, version int, want string) error {
	if kind != want {
		return fmt.Errorf("meshio: got %q, want %q: %w", kind, want, ErrWrongKind)
	}
	if version < 1 || version > Version {
		return fmt.Errorf("meshio: version %d: %w", version, ErrUnsupportedVersion)
	}
	return nil
}

func encode(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("meshio: %w", err)
	}
	return enc.Close()
}

func decode(r io.Reader, v any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("meshio: %w", err)
	}
	return nil
}

// EncodeFaceMesh writes m as a facemesh document.
func EncodeFaceMesh(w io.Writer, m *facemesh.Mesh) error {
	return encode(w, faceMeshDoc{Kind: KindFaceMesh, Version: Version, Mesh: m})
}

// DecodeFaceMesh reads a facemesh document.
func DecodeFaceMesh(r io.Reader) (*facemesh.Mesh, error) {
	var doc faceMeshDoc
	if err := decode(r, &doc); err != nil {
		return nil, err
	}
	if err := checkHeader(doc.Kind, doc.Version, KindFaceMesh); err != nil {
		return nil, err
	}
	if doc.Mesh == nil {
		return nil, ErrMissingBody
	}
	return doc.Mesh, nil
}

// EncodeBrush writes b as a brush document.
func EncodeBrush(w io.Writer, b *BrushDocument) error {
	return encode(w, brushDoc{Kind: KindBrush, Version: Version, BrushDocument: *b})
}

// DecodeBrush reads a brush document.
func DecodeBrush(r io.Reader) (*BrushDocument, error) {
	var doc brushDoc
	if err := decode(r, &doc); err != nil {
		return nil, err
	}
	if err := checkHeader(doc.Kind, doc.Version, KindBrush); err != nil {
		return nil, err
	}
	if doc.Mesh == nil || doc.Shape == nil {
		return nil, ErrMissingBody
	}
	return &doc.BrushDocument, nil
}

// LoadFaceMesh reads a facemesh document from path.
func LoadFaceMesh(path string) (*facemesh.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeFaceMesh(bytes.NewReader(data))
}

// SaveFaceMesh writes m to path, creating parent directories.
func SaveFaceMesh(path string, m *facemesh.Mesh) error {
	var buf bytes.Buffer
	if err := EncodeFaceMesh(&buf, m); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

// LoadBrush reads a brush document from path.
func LoadBrush(path string) (*BrushDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeBrush(bytes.NewReader(data))
}

// SaveBrush writes b to path, creating parent directories.
func SaveBrush(path string, b *BrushDocument) error {
	var buf bytes.Buffer
	if err := EncodeBrush(&buf, b); err != nil {
		return err
	}
	return writeFile(path, buf.Bytes())
}

func writeFile(path string, data []byte) error {
	// Create parent directory if needed
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
