// Package raster is a small CPU rasterizer for offline mesh previews.
package raster

import (
	"image"

	"ctm-loader/internal/loader"
	"ctm-loader/internal/mathutil"
	"ctm-loader/internal/texture"
	"ctm-loader/internal/viewmatrix"
)

// Options controls a preview render.
type Options struct {
	Size        int // output edge length in pixels
	Supersample int
	Margin      int // border in output pixels
	View        mathutil.Mat3
	FOV         float32 // degrees, 0 = orthographic
	Textures    texture.Resolver
	Light       *LightConfig
}

var defaultColor = [3]uint8{160, 160, 170}

// RenderMeshes draws meshes into a square NRGBA image of Size*Supersample
// pixels. Mesh i is drawn with materials[i] when present. Textures are
// looked up by the material's diffuse map, then by the UV map file name.
func RenderMeshes(meshes []*loader.Mesh, materials []loader.Material, opts Options) *image.NRGBA {
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	renderSize := opts.Size * opts.Supersample
	lc := opts.Light
	if lc == nil {
		l := DefaultLightConfig()
		lc = &l
	}

	positions := make([][]float32, 0, len(meshes))
	for _, m := range meshes {
		positions = append(positions, m.Positions)
	}
	proj := viewmatrix.Fit(opts.View, positions, renderSize, opts.Margin*opts.Supersample, opts.FOV)
	fb := NewFrameBuffer(renderSize, renderSize)

	for i, m := range meshes {
		if m.VertexCount() == 0 || m.TriangleCount() == 0 {
			continue
		}
		var mat *loader.Material
		if i < len(materials) {
			mat = &materials[i]
		}
		drawMesh(fb, proj, m, mat, opts.Textures, lc)
	}
	return fb.Image()
}

func drawMesh(fb *FrameBuffer, proj *viewmatrix.Projection, m *loader.Mesh, mat *loader.Material, res texture.Resolver, lc *LightConfig) {
	px, py, pz := proj.Project(m.Positions)

	var tex *image.NRGBA
	if res != nil {
		tex = lookupTexture(res, m, mat)
	}
	base := baseColor(mat, tex, m.UVs != nil)
	if m.UVs == nil {
		// Without coordinates the texture only contributes its average.
		tex = nil
	}

	var shades []float32
	if m.Normals != nil {
		normals := proj.Rotate(m.Normals)
		shades = make([]float32, m.VertexCount())
		for v := range shades {
			shades[v] = lc.ComputeShade(mathutil.VecAt(normals, v).Normalize())
		}
	}

	var tri [3]Vertex
	for t := 0; t < m.TriangleCount(); t++ {
		idx := m.Indices[t*3 : t*3+3]
		flat := float32(0)
		if shades == nil {
			flat = faceShade(proj, m.Positions, idx, lc)
		}
		for k, vi := range idx {
			v := &tri[k]
			v.X, v.Y, v.Z = px[vi], py[vi], pz[vi]
			v.R, v.G, v.B, v.A = base[0], base[1], base[2], base[3]
			if m.UVs != nil {
				v.U, v.V = m.UVs[vi*2], m.UVs[vi*2+1]
			}
			if m.Colors != nil {
				c := m.Colors[vi*4 : vi*4+4]
				v.R *= c[0]
				v.G *= c[1]
				v.B *= c[2]
				v.A *= c[3]
			}
			if shades != nil {
				v.Shade = shades[vi]
			} else {
				v.Shade = flat
			}
		}
		RasterizeTriangle(fb, &tri, tex, lc)
	}
}

// faceShade lights a triangle by its view-space face normal.
func faceShade(proj *viewmatrix.Projection, pos []float32, idx []uint32, lc *LightConfig) float32 {
	a := proj.R.MulVec3(mathutil.VecAt(pos, int(idx[0])))
	b := proj.R.MulVec3(mathutil.VecAt(pos, int(idx[1])))
	c := proj.R.MulVec3(mathutil.VecAt(pos, int(idx[2])))
	n := b.Sub(a).Cross(c.Sub(a)).Normalize()
	return lc.ComputeShade(n)
}

func lookupTexture(res texture.Resolver, m *loader.Mesh, mat *loader.Material) *image.NRGBA {
	if mat != nil {
		for _, name := range []string{mat.MapDiffuseURL, mat.MapDiffuse} {
			if name == "" {
				continue
			}
			if tex := res.Resolve(name); tex != nil {
				return tex
			}
		}
	}
	if m.UVFileName != "" {
		return res.Resolve(m.UVFileName)
	}
	return nil
}

// baseColor returns the linear RGBA the texel or vertex color is multiplied
// with. A diffuse color only applies to untextured meshes.
func baseColor(mat *loader.Material, tex *image.NRGBA, hasUV bool) [4]float32 {
	var c [4]float32
	switch {
	case tex != nil && hasUV:
		c = [4]float32{1, 1, 1, 1}
	case tex != nil:
		r, g, b := averageColor(tex)
		c = [4]float32{srgbToLinear[r], srgbToLinear[g], srgbToLinear[b], 1}
	case mat != nil && len(mat.ColorDiffuse) >= 3:
		c = [4]float32{mat.ColorDiffuse[0], mat.ColorDiffuse[1], mat.ColorDiffuse[2], 1}
	default:
		c = [4]float32{srgbToLinear[defaultColor[0]], srgbToLinear[defaultColor[1]], srgbToLinear[defaultColor[2]], 1}
	}
	if mat != nil && mat.Transparent && mat.Transparency != nil {
		c[3] = *mat.Transparency
	}
	return c
}

func averageColor(tex *image.NRGBA) (uint8, uint8, uint8) {
	b := tex.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return defaultColor[0], defaultColor[1], defaultColor[2]
	}

	var sumR, sumG, sumB float64
	for y := 0; y < h; y++ {
		off := y * tex.Stride
		for x := 0; x < w; x++ {
			i := off + x*4
			sumR += float64(tex.Pix[i])
			sumG += float64(tex.Pix[i+1])
			sumB += float64(tex.Pix[i+2])
		}
	}
	n := float64(w * h)
	return uint8(sumR/n + 0.5), uint8(sumG/n + 0.5), uint8(sumB/n + 0.5)
}
