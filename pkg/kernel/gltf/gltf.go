// Package gltf reads and writes kernel meshes as glTF 2.0 documents using
// github.com/qmuntal/gltf.
package gltf

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chazu/brushconv/pkg/kernel"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// ErrNoMeshes is returned when a document holds no triangle primitives, or
// when Save is given nothing to write.
var ErrNoMeshes = errors.New("gltf: no triangle meshes")

// Load reads every triangle primitive of a .gltf or .glb file. Each
// primitive becomes one mesh.
func Load(path string) ([]*kernel.Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf: open %s: %w", path, err)
	}
	return fromDocument(doc)
}

// LoadData reads a self-contained glTF or GLB document from memory.
func LoadData(data []byte) ([]*kernel.Mesh, error) {
	decoder := gltf.NewDecoder(bytes.NewReader(data))
	doc := gltf.NewDocument()
	if err := decoder.Decode(doc); err != nil {
		return nil, fmt.Errorf("gltf: decode: %w", err)
	}
	return fromDocument(doc)
}

func fromDocument(doc *gltf.Document) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				continue
			}
			m, err := readPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("gltf: mesh %d primitive %d: %w", mi, pi, err)
			}
			m.Name = gm.Name
			if m.Name == "" {
				m.Name = fmt.Sprintf("mesh%d", mi)
			}
			if len(gm.Primitives) > 1 {
				m.Name = fmt.Sprintf("%s.%d", m.Name, pi)
			}
			meshes = append(meshes, m)
		}
	}
	if len(meshes) == 0 {
		return nil, ErrNoMeshes
	}
	return meshes, nil
}

func readPrimitive(doc *gltf.Document, prim *gltf.Primitive) (*kernel.Mesh, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.New("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], [][3]float32{})
	if err != nil {
		return nil, err
	}

	m := &kernel.Mesh{Vertices: make([]float32, 0, len(positions)*3)}
	for _, p := range positions {
		m.Vertices = append(m.Vertices, p[0], p[1], p[2])
	}

	if normalIdx, exists := prim.Attributes[gltf.NORMAL]; exists {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[normalIdx], [][3]float32{})
		if err != nil {
			return nil, err
		}
		for _, n := range normals {
			m.Normals = append(m.Normals, n[0], n[1], n[2])
		}
	}

	if uvIdx, exists := prim.Attributes[gltf.TEXCOORD_0]; exists {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[uvIdx], [][2]float32{})
		if err != nil {
			return nil, err
		}
		for _, uv := range uvs {
			m.UVs = append(m.UVs, uv[0], uv[1])
		}
	}

	if prim.Indices != nil {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], []uint32{})
		if err != nil {
			return nil, err
		}
		m.Indices = indices
	} else {
		// Non-indexed primitives list their vertices in triangle order.
		m.Indices = make([]uint32, len(positions))
		for i := range m.Indices {
			m.Indices[i] = uint32(i)
		}
	}

	if prim.Material != nil && *prim.Material < len(doc.Materials) {
		m.Material = doc.Materials[*prim.Material].Name
	}

	if err := m.Check(); err != nil {
		return nil, err
	}
	return m, nil
}

// Document builds a glTF document with one node and one single-primitive
// mesh per kernel mesh. Materials are shared by name.
func Document(meshes ...*kernel.Mesh) (*gltf.Document, error) {
	doc := gltf.NewDocument()
	materials := make(map[string]int)

	for _, m := range meshes {
		if m.IsEmpty() {
			continue
		}
		if err := m.Check(); err != nil {
			return nil, fmt.Errorf("gltf: mesh %q: %w", m.Name, err)
		}

		n := m.VertexCount()
		positions := make([][3]float32, n)
		for i := range positions {
			positions[i] = [3]float32{m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]}
		}
		attrs := map[string]int{
			gltf.POSITION: modeler.WritePosition(doc, positions),
		}
		if len(m.Normals) > 0 {
			normals := make([][3]float32, n)
			for i := range normals {
				normals[i] = [3]float32{m.Normals[i*3], m.Normals[i*3+1], m.Normals[i*3+2]}
			}
			attrs[gltf.NORMAL] = modeler.WriteNormal(doc, normals)
		}
		if len(m.UVs) > 0 {
			uvs := make([][2]float32, n)
			for i := range uvs {
				uvs[i] = [2]float32{m.UVs[i*2], m.UVs[i*2+1]}
			}
			attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, uvs)
		}

		prim := &gltf.Primitive{
			Indices:    gltf.Index(modeler.WriteIndices(doc, m.Indices)),
			Attributes: attrs,
		}
		if m.Material != "" {
			idx, ok := materials[m.Material]
			if !ok {
				idx = len(doc.Materials)
				doc.Materials = append(doc.Materials, &gltf.Material{Name: m.Material})
				materials[m.Material] = idx
			}
			prim.Material = gltf.Index(idx)
		}

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: m.Name, Primitives: []*gltf.Primitive{prim}})
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: m.Name, Mesh: gltf.Index(len(doc.Meshes) - 1)})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}

	if len(doc.Meshes) == 0 {
		return nil, ErrNoMeshes
	}
	return doc, nil
}

// Save writes meshes to path. A .glb extension or binary=true selects the
// binary container; otherwise a .gltf JSON document is written.
func Save(path string, binary bool, meshes ...*kernel.Mesh) error {
	doc, err := Document(meshes...)
	if err != nil {
		return err
	}
	if binary || strings.EqualFold(filepath.Ext(path), ".glb") {
		err = gltf.SaveBinary(doc, path)
	} else {
		err = gltf.Save(doc, path)
	}
	if err != nil {
		return fmt.Errorf("gltf: save %s: %w", path, err)
	}
	return nil
}
