package ctm

import "math"

const halfPi = math.Pi / 2

// RestoreGridIndices turns delta coded grid indices back into absolute
// indices with a running sum.
func RestoreGridIndices(gridIndices []uint32) {
	for i := 1; i < len(gridIndices); i++ {
		gridIndices[i] += gridIndices[i-1]
	}
}

// RestoreVertices rebuilds positions from the quantized deltas in packed and
// the per-vertex grid cells. The x delta of a vertex is relative to the
// previous vertex when both sit in the same cell; y and z are always
// relative to the cell origin. Deltas are read as signed: each stored word
// is the two's complement int32 of the quantized offset.
func RestoreVertices(vertices []float32, packed, gridIndices []uint32, h *MG2Header) {
	xdiv := uint64(h.Div[0])
	ydiv := xdiv * uint64(h.Div[1])
	prec := float64(h.VertexPrecision)

	prevGridIdx := uint32(0x7fffffff)
	var prevDelta uint32
	for i := 0; i+2 < len(vertices) && i/3 < len(gridIndices); i += 3 {
		gridIdx := gridIndices[i/3]
		g := uint64(gridIdx)
		z := g / ydiv
		x := g - z*ydiv
		y := x / xdiv
		x -= y * xdiv

		delta := packed[i]
		if gridIdx == prevGridIdx {
			delta += prevDelta
		}

		vertices[i] = float32(float64(h.LowerBound[0]) + float64(x)*h.CellSize[0] + prec*float64(int32(delta)))
		vertices[i+1] = float32(float64(h.LowerBound[1]) + float64(y)*h.CellSize[1] + prec*float64(int32(packed[i+1])))
		vertices[i+2] = float32(float64(h.LowerBound[2]) + float64(z)*h.CellSize[2] + prec*float64(int32(packed[i+2])))

		prevGridIdx = gridIdx
		prevDelta = delta
	}
}

// RestoreIndices undoes the triangle index prediction in place. The first
// triangle stores its second and third corners relative to the first; each
// later triangle stores its first corner relative to the previous first
// corner, its second relative to the previous second corner when the first
// corners match (or to its own first corner otherwise), and its third
// relative to its own first corner.
func RestoreIndices(indices []uint32) {
	if len(indices) >= 3 {
		indices[2] += indices[0]
		indices[1] += indices[0]
	}
	for i := 3; i+2 < len(indices); i += 3 {
		indices[i] += indices[i-3]
		if indices[i] == indices[i-3] {
			indices[i+1] += indices[i-2]
		} else {
			indices[i+1] += indices[i]
		}
		indices[i+2] += indices[i]
	}
}

// CalcSmoothNormals returns unit per-vertex normals averaged from the unit
// face normals of every triangle touching the vertex. Degenerate faces and
// isolated vertices contribute zero vectors. indices must already be
// validated against the vertex count. Face normals are computed in float64
// but the sums are kept in float32, rounding after every add, so the result
// matches decoders that accumulate into a float32 buffer.
func CalcSmoothNormals(indices []uint32, vertices []float32) []float32 {
	smooth := make([]float32, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		ix := int(indices[i]) * 3
		iy := int(indices[i+1]) * 3
		iz := int(indices[i+2]) * 3

		v1x := float64(vertices[iy]) - float64(vertices[ix])
		v1y := float64(vertices[iy+1]) - float64(vertices[ix+1])
		v1z := float64(vertices[iy+2]) - float64(vertices[ix+2])
		v2x := float64(vertices[iz]) - float64(vertices[ix])
		v2y := float64(vertices[iz+1]) - float64(vertices[ix+1])
		v2z := float64(vertices[iz+2]) - float64(vertices[ix+2])

		nx := v1y*v2z - v1z*v2y
		ny := v1z*v2x - v1x*v2z
		nz := v1x*v2y - v1y*v2x

		if l := math.Sqrt(nx*nx + ny*ny + nz*nz); l > 1e-10 {
			nx /= l
			ny /= l
			nz /= l
		}

		for _, k := range [3]int{ix, iy, iz} {
			smooth[k] = float32(float64(smooth[k]) + nx)
			smooth[k+1] = float32(float64(smooth[k+1]) + ny)
			smooth[k+2] = float32(float64(smooth[k+2]) + nz)
		}
	}

	for i := 0; i+2 < len(smooth); i += 3 {
		nx, ny, nz := float64(smooth[i]), float64(smooth[i+1]), float64(smooth[i+2])
		if l := math.Sqrt(nx*nx + ny*ny + nz*nz); l > 1e-10 {
			nx /= l
			ny /= l
			nz /= l
		}
		smooth[i], smooth[i+1], smooth[i+2] = float32(nx), float32(ny), float32(nz)
	}
	return smooth
}

// RestoreNormals decodes the spherical normal encoding in packed. Each normal
// is stored as magnitude, polar angle and azimuth index in a frame built
// around the smooth normal of the same vertex.
func RestoreNormals(normals []float32, packed []uint32, smooth []float32, precision float32) {
	prec := float64(precision)
	for i := 0; i+2 < len(normals); i += 3 {
		ro := float64(packed[i]) * prec
		phiIdx := packed[i+1]
		sx, sy, sz := float64(smooth[i]), float64(smooth[i+1]), float64(smooth[i+2])

		if phiIdx == 0 {
			normals[i] = float32(sx * ro)
			normals[i+1] = float32(sy * ro)
			normals[i+2] = float32(sz * ro)
			continue
		}

		phi := float64(phiIdx)
		var theta float64
		if phiIdx <= 4 {
			theta = (float64(packed[i+2]) - 2) * halfPi
		} else {
			theta = (float64(packed[i+2])*4/phi - 2) * halfPi
		}
		phi *= prec * halfPi

		sinPhi := ro * math.Sin(phi)
		nx := sinPhi * math.Cos(theta)
		ny := sinPhi * math.Sin(theta)
		nz := ro * math.Cos(phi)

		bz := sy
		by := sx - sz
		if l := math.Sqrt(2*bz*bz + by*by); l > 1e-20 {
			by /= l
			bz /= l
		}

		normals[i] = float32(sx*nz + (sy*bz-sz*by)*ny - bz*nx)
		normals[i+1] = float32(sy*nz - (sz+sx)*bz*ny + by*nx)
		normals[i+2] = float32(sz*nz + (sx*by+sy*bz)*ny + bz*nx)
	}
}

// RestoreMap decodes a delta coded map with count interleaved channels.
// Each word is a zig-zag signed delta from the previous value of the same
// channel, scaled by precision.
func RestoreMap(dst []float32, packed []uint32, count int, precision float32) {
	prec := float64(precision)
	for c := 0; c < count; c++ {
		var acc int64
		for j := c; j < len(dst); j += count {
			v := packed[j]
			if v&1 != 0 {
				acc -= int64((v + 1) >> 1)
			} else {
				acc += int64(v >> 1)
			}
			dst[j] = float32(float64(acc) * prec)
		}
	}
}
