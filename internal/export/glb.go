// Package export writes decoded meshes as binary glTF.
package export

import (
	"fmt"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"ctm-loader/internal/loader"
)

// Generator is written into the asset header of every document.
const Generator = "ctm-loader"

// Document builds a glTF document with one node and mesh per part. A mesh
// split into offsets becomes one primitive per offset with 16-bit indices
// and its own slice of the vertex attributes. Part i uses materials[i] when
// present.
func Document(meshes []*loader.Mesh, materials []loader.Material) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = Generator

	for _, m := range materials {
		doc.Materials = append(doc.Materials, convertMaterial(m))
	}

	for i, m := range meshes {
		gm := &gltf.Mesh{Name: fmt.Sprintf("part%d", i)}
		var mat *uint32
		if i < len(materials) {
			mat = gltf.Index(uint32(i))
		}

		if len(m.Offsets) > 0 && m.Indices16 != nil {
			for _, o := range m.Offsets {
				if o.Count == 0 {
					continue
				}
				gm.Primitives = append(gm.Primitives, chunkPrimitive(doc, m, o, mat))
			}
		} else if m.TriangleCount() > 0 {
			prim := attributes(doc, m, 0, m.VertexCount())
			prim.Indices = gltf.Index(uint32(modeler.WriteIndices(doc, m.Indices)))
			prim.Material = mat
			gm.Primitives = append(gm.Primitives, prim)
		}

		doc.Meshes = append(doc.Meshes, gm)
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: gm.Name, Mesh: gltf.Index(uint32(i))})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(i))
	}
	return doc
}

// WriteGLB saves meshes as a single .glb file.
func WriteGLB(path string, meshes []*loader.Mesh, materials []loader.Material) error {
	if err := gltf.SaveBinary(Document(meshes, materials), path); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

func chunkPrimitive(doc *gltf.Document, m *loader.Mesh, o loader.Offset, mat *uint32) *gltf.Primitive {
	idx := m.Indices16[o.Start : o.Start+o.Count]
	var top uint16
	for _, v := range idx {
		top = max(top, v)
	}
	prim := attributes(doc, m, int(o.Index), int(o.Index)+int(top)+1)
	prim.Indices = gltf.Index(uint32(modeler.WriteIndices(doc, idx)))
	prim.Material = mat
	return prim
}

// attributes writes the vertex attributes of vertices [lo, hi).
func attributes(doc *gltf.Document, m *loader.Mesh, lo, hi int) *gltf.Primitive {
	prim := &gltf.Primitive{
		Mode:       gltf.PrimitiveTriangles,
		Attributes: map[string]uint32{},
	}
	prim.Attributes[gltf.POSITION] = uint32(modeler.WritePosition(doc, vec3(m.Positions, lo, hi)))
	if m.Normals != nil {
		prim.Attributes[gltf.NORMAL] = uint32(modeler.WriteNormal(doc, vec3(m.Normals, lo, hi)))
	}
	if m.UVs != nil {
		uv := make([][2]float32, hi-lo)
		for i := range uv {
			v := lo + i
			// glTF puts the texture origin at the top left
			uv[i] = [2]float32{m.UVs[v*2], 1 - m.UVs[v*2+1]}
		}
		prim.Attributes[gltf.TEXCOORD_0] = uint32(modeler.WriteTextureCoord(doc, uv))
	}
	if m.Colors != nil {
		col := make([][4]float32, hi-lo)
		for i := range col {
			copy(col[i][:], m.Colors[(lo+i)*4:])
		}
		prim.Attributes[gltf.COLOR_0] = uint32(modeler.WriteColor(doc, col))
	}
	return prim
}

func vec3(src []float32, lo, hi int) [][3]float32 {
	out := make([][3]float32, hi-lo)
	for i := range out {
		copy(out[i][:], src[(lo+i)*3:])
	}
	return out
}

func convertMaterial(m loader.Material) *gltf.Material {
	base := [4]float32{1, 1, 1, 1}
	copy(base[:3], m.ColorDiffuse)
	if m.Transparency != nil {
		base[3] = *m.Transparency
	}
	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &base,
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(1),
	}
	out := &gltf.Material{Name: m.Name, PBRMetallicRoughness: pbr}
	if m.Transparent || base[3] < 1 {
		out.AlphaMode = gltf.AlphaBlend
	} else {
		out.AlphaMode = gltf.AlphaOpaque
	}
	return out
}
