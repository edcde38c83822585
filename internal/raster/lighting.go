package raster

import (
	"github.com/chewxy/math32"

	"ctm-loader/internal/mathutil"
)

// LightConfig holds precomputed lighting parameters in view space.
type LightConfig struct {
	LightDir  mathutil.Vec3
	RimDir    mathutil.Vec3
	ViewDir   mathutil.Vec3
	HalfMain  mathutil.Vec3 // half-vector for Blinn-Phong
	Ambient   float32
	Hemi      float32
	Direct    float32
	Rim       float32
	SpecInt   float32
	SpecPow   float32
	Exposure  float32
	SRGBGamma float32
	InvGamma  float32
}

// DefaultLightConfig returns a key light from the upper right, a cool rim
// light from behind and a hemisphere fill.
func DefaultLightConfig() LightConfig {
	lightDir := mathutil.Vec3{180, 260, 140}.Normalize()
	rimDir := mathutil.Vec3{-160, 130, -210}.Normalize()
	viewDir := mathutil.Vec3{0, 0, -1}

	return LightConfig{
		LightDir:  lightDir,
		RimDir:    rimDir,
		ViewDir:   viewDir,
		HalfMain:  lightDir.Sub(viewDir).Normalize(),
		Ambient:   0.45,
		Hemi:      0.40,
		Direct:    1.20,
		Rim:       0.50,
		SpecInt:   0.35,
		SpecPow:   16,
		Exposure:  1.0,
		SRGBGamma: 2.2,
		InvGamma:  1 / 2.2,
	}
}

// ComputeShade returns the combined lighting scalar for a unit view-space
// normal. Diffuse terms use |n·l| so back faces light like front faces.
func (lc *LightConfig) ComputeShade(n mathutil.Vec3) float32 {
	ndlMain := math32.Abs(n.Dot(lc.LightDir))
	ndlRim := math32.Abs(n.Dot(lc.RimDir))

	hemi := (1-math32.Abs(n[1]))*0.5 + 0.5

	ndh := math32.Max(n.Dot(lc.HalfMain), 0)
	spec := math32.Pow(ndh, lc.SpecPow) * lc.SpecInt

	return lc.Ambient + hemi*lc.Hemi + ndlMain*lc.Direct + ndlRim*lc.Rim + spec
}

// Tone maps a linear channel value and encodes it back to 8-bit sRGB.
func (lc *LightConfig) encode(lin float32) uint8 {
	return clamp255(math32.Pow(ACESTonemap(lin*lc.Exposure), lc.InvGamma) * 255)
}

// sRGB-to-linear lookup table.
var srgbToLinear [256]float32

func init() {
	for i := range srgbToLinear {
		srgbToLinear[i] = math32.Pow(float32(i)/255, 2.2)
	}
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float32) float32 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

func clamp255(v float32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
