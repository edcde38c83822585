package raster

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctm-loader/internal/loader"
	"ctm-loader/internal/mathutil"
)

func quad(z float32, rgba ...float32) *loader.Mesh {
	m := &loader.Mesh{
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
		Positions: []float32{-1, -1, z, 1, -1, z, 1, 1, z, -1, 1, z},
		UVs:       []float32{0, 0, 1, 0, 1, 1, 0, 1},
	}
	if len(rgba) == 4 {
		for i := 0; i < 4; i++ {
			m.Colors = append(m.Colors, rgba...)
		}
	}
	return m
}

type solid struct {
	img   *image.NRGBA
	asked []string
}

func (s *solid) Resolve(name string) *image.NRGBA {
	s.asked = append(s.asked, name)
	return s.img
}

func solidTexture(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func frontOptions() Options {
	return Options{Size: 32, Supersample: 1, Margin: 2, View: mathutil.ViewFront}
}

func TestRenderVertexColors(t *testing.T) {
	img := RenderMeshes([]*loader.Mesh{quad(0, 1, 0, 0, 1)}, nil, frontOptions())
	require.Equal(t, image.Rect(0, 0, 32, 32), img.Bounds())

	c := img.NRGBAAt(16, 16)
	assert.Equal(t, uint8(255), c.A)
	assert.Greater(t, c.R, c.G)
	assert.Greater(t, c.R, c.B)
	assert.Equal(t, uint8(0), img.NRGBAAt(0, 0).A)
}

func TestRenderSupersampleSize(t *testing.T) {
	opts := frontOptions()
	opts.Supersample = 3
	img := RenderMeshes([]*loader.Mesh{quad(0)}, nil, opts)
	assert.Equal(t, 96, img.Bounds().Dx())
}

func TestRenderDepthOrder(t *testing.T) {
	near := quad(1, 0, 0, 1, 1)
	far := quad(0, 1, 0, 0, 1)
	for _, meshes := range [][]*loader.Mesh{{near, far}, {far, near}} {
		c := RenderMeshes(meshes, nil, frontOptions()).NRGBAAt(16, 16)
		assert.Greater(t, c.B, c.R)
	}
}

func TestRenderTextureFromUVMap(t *testing.T) {
	m := quad(0)
	m.UVFileName = "green.png"
	res := &solid{img: solidTexture(color.NRGBA{0, 200, 0, 255})}
	opts := frontOptions()
	opts.Textures = res

	c := RenderMeshes([]*loader.Mesh{m}, nil, opts).NRGBAAt(16, 16)
	assert.Greater(t, c.G, c.R)
	assert.Greater(t, c.G, c.B)
	assert.Equal(t, []string{"green.png"}, res.asked)
}

func TestRenderMaterialTexturePreferred(t *testing.T) {
	m := quad(0)
	m.UVFileName = "uv.png"
	res := &solid{img: solidTexture(color.NRGBA{0, 0, 200, 255})}
	opts := frontOptions()
	opts.Textures = res
	mats := []loader.Material{{MapDiffuse: "diffuse.png", MapDiffuseURL: "/models/diffuse.png"}}

	RenderMeshes([]*loader.Mesh{m}, mats, opts)
	assert.Equal(t, []string{"/models/diffuse.png"}, res.asked)
}

func TestRenderTransparentTexelsSkipped(t *testing.T) {
	m := quad(0)
	m.UVFileName = "clear.png"
	opts := frontOptions()
	opts.Textures = &solid{img: solidTexture(color.NRGBA{255, 255, 255, 0})}

	img := RenderMeshes([]*loader.Mesh{m}, nil, opts)
	assert.Equal(t, uint8(0), img.NRGBAAt(16, 16).A)
}

func TestRenderMaterialColorAndOpacity(t *testing.T) {
	half := float32(0.5)
	mats := []loader.Material{{ColorDiffuse: []float32{0, 1, 0}, Transparent: true, Transparency: &half}}
	c := RenderMeshes([]*loader.Mesh{quad(0)}, mats, frontOptions()).NRGBAAt(16, 16)
	assert.InDelta(t, 128, c.A, 1)
	assert.Greater(t, c.G, c.R)
}

func TestRenderSmoothNormals(t *testing.T) {
	m := quad(0)
	m.Normals = []float32{0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1}
	flat := RenderMeshes([]*loader.Mesh{quad(0)}, nil, frontOptions()).NRGBAAt(16, 16)
	smooth := RenderMeshes([]*loader.Mesh{m}, nil, frontOptions()).NRGBAAt(16, 16)
	assert.Equal(t, flat, smooth)
}

func TestRenderEmpty(t *testing.T) {
	img := RenderMeshes([]*loader.Mesh{{}}, nil, frontOptions())
	for i := 3; i < len(img.Pix); i += 4 {
		require.Zero(t, img.Pix[i])
	}
}

func TestSampleTextureFlipsV(t *testing.T) {
	tex := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	tex.SetNRGBA(0, 0, color.NRGBA{255, 0, 0, 255}) // top row
	tex.SetNRGBA(1, 0, color.NRGBA{255, 0, 0, 255})
	tex.SetNRGBA(0, 1, color.NRGBA{0, 0, 255, 255}) // bottom row
	tex.SetNRGBA(1, 1, color.NRGBA{0, 0, 255, 255})

	r, _, b, _ := SampleTexture(tex, 0.25, 0.99)
	assert.Greater(t, r, b)
	r, _, b, _ = SampleTexture(tex, 0.25, 0.01)
	assert.Greater(t, b, r)
}

func TestComputeShadeDoubleSided(t *testing.T) {
	lc := DefaultLightConfig()
	n := mathutil.Vec3{0.3, 0.4, 0.5}.Normalize()
	front := lc.ComputeShade(n)
	back := lc.ComputeShade(n.Scale(-1))
	assert.Greater(t, front, lc.Ambient)
	assert.Greater(t, back, lc.Ambient)
}

func TestACESTonemap(t *testing.T) {
	assert.Equal(t, float32(0), ACESTonemap(0))
	assert.Less(t, ACESTonemap(100), float32(1.05))
	assert.Less(t, ACESTonemap(0.2), ACESTonemap(0.4))
}
