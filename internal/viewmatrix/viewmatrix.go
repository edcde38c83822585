// Package viewmatrix fits a camera to a set of meshes and projects their
// positions to screen space.
package viewmatrix

import (
	"github.com/chewxy/math32"

	"ctm-loader/internal/mathutil"
)

// DefaultFOV is used when perspective is requested without an angle.
const DefaultFOV = 30

// Projection maps rotated model space onto a square render target. It is
// fitted once over every mesh so that parts of one model share a frame.
type Projection struct {
	R      mathutil.Mat3
	Center mathutil.Vec3
	Scale  float32
	Size   int

	persp   bool
	camDist float32
	zCenter float32
}

// Fit builds a projection for the given flat xyz position arrays. margin is
// the border left on each side in pixels. fov > 0 enables perspective.
func Fit(R mathutil.Mat3, positions [][]float32, size, margin int, fov float32) *Projection {
	lo := mathutil.Vec3{math32.Inf(1), math32.Inf(1), math32.Inf(1)}
	hi := mathutil.Vec3{math32.Inf(-1), math32.Inf(-1), math32.Inf(-1)}
	n := 0
	for _, pos := range positions {
		for i := 0; i < len(pos)/3; i++ {
			t := R.MulVec3(mathutil.VecAt(pos, i))
			lo = lo.Min(t)
			hi = hi.Max(t)
			n++
		}
	}
	p := &Projection{R: R, Size: size, Scale: 1}
	if n == 0 {
		return p
	}

	p.Center = lo.Add(hi).Scale(0.5)
	span := math32.Max(hi[0]-lo[0], hi[1]-lo[1])
	if span < 0.001 {
		span = 0.001
	}
	p.Scale = float32(size-2*margin) / span

	if fov > 0 {
		// Camera distance such that the xy half-extent fills the FOV.
		half := math32.Max(hi[0]-p.Center[0], hi[1]-p.Center[1])
		if half < 0.001 {
			half = 0.001
		}
		p.persp = true
		p.zCenter = p.Center[2]
		p.camDist = half / math32.Tan(mathutil.Deg2Rad(fov/2))
	}
	return p
}

// Project transforms a flat xyz array to screen X, screen Y and depth.
// Larger depth is closer to the camera.
func (p *Projection) Project(pos []float32) (px, py, pz []float32) {
	n := len(pos) / 3
	px = make([]float32, n)
	py = make([]float32, n)
	pz = make([]float32, n)
	half := float32(p.Size) / 2

	for i := 0; i < n; i++ {
		t := p.R.MulVec3(mathutil.VecAt(pos, i))
		x, y := t[0]-p.Center[0], t[1]-p.Center[1]
		if p.persp {
			depth := math32.Max(p.camDist-(t[2]-p.zCenter), 0.1)
			f := p.camDist / depth
			x *= f
			y *= f
		}
		px[i] = x*p.Scale + half
		py[i] = -y*p.Scale + half
		pz[i] = t[2]
	}
	return px, py, pz
}

// Rotate transforms a flat xyz direction array (normals) into view space.
func (p *Projection) Rotate(dirs []float32) []float32 {
	out := make([]float32, len(dirs))
	for i := 0; i < len(dirs)/3; i++ {
		t := p.R.MulVec3(mathutil.VecAt(dirs, i))
		copy(out[i*3:], t[:])
	}
	return out
}
