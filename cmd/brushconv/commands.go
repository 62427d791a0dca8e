package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/chazu/brushconv/internal/config"
	"github.com/chazu/brushconv/pkg/convert"
	"github.com/chazu/brushconv/pkg/facemesh"
	"github.com/chazu/brushconv/pkg/halfedge"
	"github.com/chazu/brushconv/pkg/kernel"
	"github.com/chazu/brushconv/pkg/kernel/sdfx"
	"github.com/chazu/brushconv/pkg/meshio"
	"go.uber.org/zap"
)

var errInvalid = errors.New("validation failed")

func (s *session) converter() *convert.Converter {
	return convert.New(
		convert.WithLogger(s.log),
		convert.WithWeldEpsilon(s.cfg.Convert.WeldEpsilon),
		convert.WithStrict(s.cfg.Convert.Strict),
	)
}

func cmdToBrush(args []string) error {
	s, pos, err := setup("to-brush", args, 2, "<in> <out.yaml>")
	if err != nil {
		return err
	}
	m, err := s.loadFaces(pos[0])
	if err != nil {
		return err
	}
	b, err := s.converter().ToBrush(m)
	if err != nil {
		return err
	}
	doc := &meshio.BrushDocument{Mesh: b.Mesh, Shape: b.Shape, Materials: m.Materials}
	if err := meshio.SaveBrush(pos[1], doc); err != nil {
		return err
	}
	fmt.Printf("%s: %d polygons, %d half-edges, %d boundary\n",
		pos[1], len(b.Mesh.Polygons), b.Mesh.EdgeCount(), len(b.Report.Boundary))
	return nil
}

func cmdToFaces(args []string) error {
	s, pos, err := setup("to-faces", args, 2, "<brush.yaml> <out>")
	if err != nil {
		return err
	}
	src, err := s.load(pos[0])
	if err != nil {
		return err
	}
	if src.brush == nil {
		return fmt.Errorf("%s: %w", pos[0], meshio.ErrWrongKind)
	}
	m, err := s.converter().ToFaces(src.brush.Mesh, src.brush.Shape, src.brush.Materials)
	if err != nil {
		return err
	}
	out, err := s.writeFaces(pos[1], m)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d faces, %d vertices\n", out, len(m.Faces), len(m.Positions))
	return nil
}

func cmdEval(args []string) error {
	s, pos, err := setup("eval", args, 1, "<script.lisp> [out]")
	if err != nil {
		return err
	}
	m, err := s.eval(pos[0])
	if err != nil {
		return err
	}
	if len(pos) < 2 {
		return meshio.EncodeFaceMesh(os.Stdout, m)
	}
	out, err := s.writeFaces(pos[1], m)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d faces, %d vertices\n", out, len(m.Faces), len(m.Positions))
	return nil
}

func cmdInfo(args []string) error {
	s, pos, err := setup("info", args, 1, "<file>")
	if err != nil {
		return err
	}
	src, err := s.load(pos[0])
	if err != nil {
		return err
	}

	fmt.Printf("File: %s\n", pos[0])
	if src.brush != nil {
		cm := src.brush.Mesh
		boundary := 0
		for _, e := range cm.Edges {
			if !e.HasTwin() {
				boundary++
			}
		}
		fmt.Printf("Kind:       brush\n")
		fmt.Printf("Vertices:   %d\n", len(cm.Vertices))
		fmt.Printf("Polygons:   %d\n", len(cm.Polygons))
		fmt.Printf("Half-edges: %d\n", cm.EdgeCount())
		fmt.Printf("Boundary:   %d\n", boundary)
		fmt.Printf("Materials:  %v\n", src.brush.Materials)
	} else {
		m := src.faces
		fmt.Printf("Kind:       facemesh\n")
		fmt.Printf("Positions:  %d\n", len(m.Positions))
		fmt.Printf("Faces:      %d\n", len(m.Faces))
		fmt.Printf("Groups:     %d\n", len(m.SharedGroups))
		fmt.Printf("Winding:    %s\n", m.Winding)
		fmt.Printf("Materials:  %v\n", m.Materials)
	}

	meshes, err := src.triangles()
	if err != nil {
		s.log.Warn("cannot tessellate", zap.Error(err))
		return nil
	}
	printBounds(meshes)
	return nil
}

func printBounds(meshes []*kernel.Mesh) {
	tris := 0
	for _, km := range meshes {
		tris += km.TriangleCount()
	}
	box := sdfx.Bounds(meshes...)
	size := box.Size()
	fmt.Printf("Triangles:  %d\n", tris)
	fmt.Printf("Bounds:     (%g, %g, %g) - (%g, %g, %g)\n",
		box.Min.X, box.Min.Y, box.Min.Z, box.Max.X, box.Max.Y, box.Max.Z)
	fmt.Printf("Size:       %g x %g x %g\n", size.X, size.Y, size.Z)
}

func cmdValidate(args []string) error {
	s, pos, err := setup("validate", args, 1, "<file>")
	if err != nil {
		return err
	}
	src, err := s.load(pos[0])
	if err != nil {
		return err
	}

	var cm *halfedge.ControlMesh
	if src.brush != nil {
		if err := src.brush.Shape.Check(len(src.brush.Mesh.Polygons)); err != nil {
			fmt.Printf("[error] %v\n", err)
			return errInvalid
		}
		cm = src.brush.Mesh
	} else {
		if err := facemesh.Validate(src.faces); err != nil {
			fmt.Printf("[error] %v\n", err)
			return errInvalid
		}
		b, err := s.converter().ToBrush(src.faces)
		if err != nil {
			fmt.Printf("[error] %v\n", err)
			return errInvalid
		}
		cm = b.Mesh
	}

	res := halfedge.Validate(cm)
	for _, e := range res.Errors {
		fmt.Println(e.Error())
	}
	for _, w := range res.Warnings {
		fmt.Println(w.Error())
	}
	if !res.OK() {
		return errInvalid
	}
	fmt.Printf("%s: ok (%d warnings)\n", pos[0], len(res.Warnings))
	return nil
}

func cmdBBox(args []string) error {
	s, pos, err := setup("bbox", args, 2, "<in> <out.(stl|gltf|glb)>")
	if err != nil {
		return err
	}
	src, err := s.load(pos[0])
	if err != nil {
		return err
	}
	meshes, err := src.triangles()
	if err != nil {
		return err
	}
	box := sdfx.Bounds(meshes...)
	solid, err := sdfx.Box(box.Min, box.Size())
	if err != nil {
		return err
	}
	format, out := s.outputFormat(pos[1])
	if _, err := s.writeTriangles(out, format, []*kernel.Mesh{solid}); err != nil {
		return err
	}
	fmt.Printf("%s: %d triangles\n", out, solid.TriangleCount())
	return nil
}

// cmdInitConfig writes the effective settings, flags included, so they can
// be edited and picked up by later runs.
func cmdInitConfig(args []string) error {
	s, pos, err := setup("init-config", args, 0, "[path]")
	if err != nil {
		return err
	}
	path := config.DefaultPath()
	if len(pos) > 0 {
		path = pos[0]
	}
	if err := s.cfg.SaveTo(path, false); err != nil {
		return err
	}
	s.log.Info("wrote config", zap.String("path", path))
	fmt.Printf("%s: written\n", path)
	return nil
}
