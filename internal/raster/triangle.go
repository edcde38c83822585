package raster

import (
	"image"

	"github.com/chewxy/math32"
)

// Vertex is a projected corner of a triangle with everything the pixel loop
// interpolates.
type Vertex struct {
	X, Y, Z    float32 // screen position and depth
	U, V       float32
	Shade      float32
	R, G, B, A float32 // linear base color, multiplied with the texel
}

// RasterizeTriangle fills one triangle with z-buffering, Gouraud shading,
// optional bilinear texturing and ACES tone mapping.
//
// The pixel loop does not allocate.
func RasterizeTriangle(fb *FrameBuffer, tri *[3]Vertex, tex *image.NRGBA, lc *LightConfig) {
	a, b, c := &tri[0], &tri[1], &tri[2]

	w, h := fb.Width, fb.Height
	minX := max(int(math32.Min(math32.Min(a.X, b.X), c.X)), 0)
	maxX := min(int(math32.Max(math32.Max(a.X, b.X), c.X))+1, w-1)
	minY := max(int(math32.Min(math32.Min(a.Y, b.Y), c.Y)), 0)
	maxY := min(int(math32.Max(math32.Max(a.Y, b.Y), c.Y))+1, h-1)
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1 / det

	dy12 := b.Y - c.Y
	dx21 := c.X - b.X
	dy20 := c.Y - a.Y
	dx02 := a.X - c.X

	for sy := minY; sy <= maxY; sy++ {
		dsy := float32(sy) - c.Y
		rowOff := sy * w
		for sx := minX; sx <= maxX; sx++ {
			dsx := float32(sx) - c.X
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*a.Z + w1*b.Z + w2*c.Z
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			lr := w0*a.R + w1*b.R + w2*c.R
			lg := w0*a.G + w1*b.G + w2*c.G
			lb := w0*a.B + w1*b.B + w2*c.B
			alpha := w0*a.A + w1*b.A + w2*c.A
			if tex != nil {
				u := w0*a.U + w1*b.U + w2*c.U
				v := w0*a.V + w1*b.V + w2*c.V
				tr, tg, tb, ta := SampleTexture(tex, u, v)
				lr *= srgbToLinear[tr]
				lg *= srgbToLinear[tg]
				lb *= srgbToLinear[tb]
				alpha *= float32(ta) / 255
			}

			// Skip transparent texels
			if alpha < 8.0/255 {
				continue
			}
			fb.ZBuf[zIdx] = z

			shade := w0*a.Shade + w1*b.Shade + w2*c.Shade
			px := zIdx * 4
			fb.Color[px] = lc.encode(lr * shade)
			fb.Color[px+1] = lc.encode(lg * shade)
			fb.Color[px+2] = lc.encode(lb * shade)
			fb.Color[px+3] = clamp255(alpha * 255)
		}
	}
}
