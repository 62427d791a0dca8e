package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chazu/brushconv/pkg/engine"
	"github.com/chazu/brushconv/pkg/facemesh"
	"github.com/chazu/brushconv/pkg/kernel"
	kgltf "github.com/chazu/brushconv/pkg/kernel/gltf"
	"github.com/chazu/brushconv/pkg/kernel/sdfx"
	"github.com/chazu/brushconv/pkg/meshio"
	"github.com/chazu/brushconv/pkg/tessellate"
	"go.uber.org/zap"
)

var (
	errUnknownInput  = errors.New("unsupported input extension")
	errUnknownOutput = errors.New("unsupported output format")
	errScript        = errors.New("script failed")
)

// source is a loaded input: exactly one of faces and brush is set.
type source struct {
	faces *facemesh.Mesh
	brush *meshio.BrushDocument
}

func ext(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// load reads any supported input by extension.
func (s *session) load(path string) (*source, error) {
	switch ext(path) {
	case "yaml", "yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		kind, err := meshio.DetectKind(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if kind == meshio.KindBrush {
			doc, err := meshio.DecodeBrush(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			return &source{brush: doc}, nil
		}
		m, err := meshio.DecodeFaceMesh(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &source{faces: m}, nil

	case "gltf", "glb":
		meshes, err := kgltf.Load(path)
		if err != nil {
			return nil, err
		}
		m, err := fromTriangleMeshes(meshes)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		s.log.Debug("imported glTF",
			zap.String("path", path),
			zap.Int("primitives", len(meshes)),
			zap.Int("faces", len(m.Faces)),
		)
		return &source{faces: m}, nil

	case "lisp", "brush":
		m, err := s.eval(path)
		if err != nil {
			return nil, err
		}
		return &source{faces: m}, nil
	}
	return nil, fmt.Errorf("%s: %w", path, errUnknownInput)
}

// loadFaces reads an input that must be a face mesh.
func (s *session) loadFaces(path string) (*facemesh.Mesh, error) {
	src, err := s.load(path)
	if err != nil {
		return nil, err
	}
	if src.faces == nil {
		return nil, fmt.Errorf("%s: %w", path, meshio.ErrWrongKind)
	}
	return src.faces, nil
}

func fromTriangleMeshes(meshes []*kernel.Mesh) (*facemesh.Mesh, error) {
	parts := make([]*facemesh.Mesh, 0, len(meshes))
	for _, km := range meshes {
		m, err := facemesh.FromTriangleMesh(km)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", km.Name, err)
		}
		parts = append(parts, m)
	}
	return facemesh.Merge(parts...)
}

// eval runs a mesh script and reports script errors on stderr.
func (s *session) eval(path string) (*facemesh.Mesh, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	eng := engine.NewEngine(
		engine.WithLogger(s.log),
		engine.WithTimeout(s.cfg.Engine.Timeout),
		engine.WithWinding(s.cfg.Engine.Winding),
	)
	m, evalErrs, err := eng.Evaluate(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, e.Error())
		}
		return nil, fmt.Errorf("%s: %w", path, errScript)
	}
	return m, nil
}

// outputFormat resolves the format of path, falling back to the configured
// default when the path has no extension.
func (s *session) outputFormat(path string) (string, string) {
	format := ext(path)
	if format == "" {
		format = strings.ToLower(s.cfg.Export.Format)
		path += "." + format
	}
	if format == "yml" {
		format = "yaml"
	}
	return format, path
}

// writeFaces saves a face mesh as a document or tessellated triangles.
func (s *session) writeFaces(path string, m *facemesh.Mesh) (string, error) {
	format, path := s.outputFormat(path)
	if format == "yaml" {
		return path, meshio.SaveFaceMesh(path, m)
	}
	meshes, err := tessellate.Faces(m)
	if err != nil {
		return "", err
	}
	return s.writeTriangles(path, format, meshes)
}

func (s *session) writeTriangles(path, format string, meshes []*kernel.Mesh) (string, error) {
	switch format {
	case "gltf", "glb":
		binary := format == "glb" || s.cfg.Export.GLTFBinary
		return path, kgltf.Save(path, binary, meshes...)
	case "stl":
		return path, sdfx.SaveSTL(path, meshes...)
	}
	return "", fmt.Errorf("%s: %w", format, errUnknownOutput)
}

// triangles tessellates any source for bounds and export.
func (src *source) triangles() ([]*kernel.Mesh, error) {
	if src.brush != nil {
		return tessellate.Brush(src.brush.Mesh, src.brush.Shape)
	}
	return tessellate.Faces(src.faces)
}
