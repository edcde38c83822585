package export

import (
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctm-loader/internal/ctm"
	"ctm-loader/internal/ctmtest"
	"ctm-loader/internal/loader"
)

func cubeMesh(t *testing.T, opts loader.Options) *loader.Mesh {
	t.Helper()
	data, err := ctmtest.EncodeMG2(ctmtest.Cube(), ctmtest.UnitParams())
	require.NoError(t, err)
	f, err := ctm.DecodeAt(data, 0)
	require.NoError(t, err)
	m, err := loader.NewMesh(f, opts)
	require.NoError(t, err)
	return m
}

func TestDocumentSingle(t *testing.T) {
	opts := loader.DefaultOptions()
	opts.SplitOffsets = false
	m := cubeMesh(t, opts)

	doc := Document([]*loader.Mesh{m}, nil)
	require.Len(t, doc.Meshes, 1)
	require.Len(t, doc.Meshes[0].Primitives, 1)
	prim := doc.Meshes[0].Primitives[0]
	assert.Nil(t, prim.Material)
	for _, attr := range []string{gltf.POSITION, gltf.NORMAL, gltf.TEXCOORD_0, gltf.COLOR_0} {
		assert.Contains(t, prim.Attributes, attr)
	}
	pos := doc.Accessors[prim.Attributes[gltf.POSITION]]
	assert.EqualValues(t, 8, pos.Count)
	idx := doc.Accessors[*prim.Indices]
	assert.EqualValues(t, 36, idx.Count)
	assert.Equal(t, Generator, doc.Asset.Generator)
}

func TestDocumentChunks(t *testing.T) {
	m := cubeMesh(t, loader.DefaultOptions())
	// split the cube by hand into two draw calls
	m.Offsets = []loader.Offset{
		{Start: 0, Count: 18, Index: 0},
		{Start: 18, Count: 18, Index: 0},
	}

	mats := []loader.Material{{Name: "shell", ColorDiffuse: []float32{1, 0, 0}, Transparent: true}}
	doc := Document([]*loader.Mesh{m}, mats)
	require.Len(t, doc.Meshes[0].Primitives, 2)
	require.Len(t, doc.Materials, 1)
	assert.Equal(t, gltf.AlphaBlend, doc.Materials[0].AlphaMode)
	assert.Equal(t, &[4]float32{1, 0, 0, 1}, doc.Materials[0].PBRMetallicRoughness.BaseColorFactor)

	second := doc.Meshes[0].Primitives[1]
	require.NotNil(t, second.Material)
	assert.EqualValues(t, 0, *second.Material)
	assert.EqualValues(t, 18, doc.Accessors[*second.Indices].Count)
	assert.Equal(t, gltf.ComponentUshort, doc.Accessors[*second.Indices].ComponentType)
}

func TestWriteGLB(t *testing.T) {
	m := cubeMesh(t, loader.DefaultOptions())
	path := filepath.Join(t.TempDir(), "cube.glb")
	require.NoError(t, WriteGLB(path, []*loader.Mesh{m, m}, nil))

	doc, err := gltf.Open(path)
	require.NoError(t, err)
	assert.Len(t, doc.Meshes, 2)
	assert.Len(t, doc.Nodes, 2)
	assert.Len(t, doc.Scenes[0].Nodes, 2)
}
