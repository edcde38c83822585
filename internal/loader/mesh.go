package loader

import (
	"fmt"

	"github.com/chewxy/math32"

	"ctm-loader/internal/ctm"
)

// MaxChunkSpan is the largest index range one draw call may reference
// with 16-bit indices.
const MaxChunkSpan = 65535

// Offset is one draw call range of a chunked mesh. Indices in
// Indices16[Start:Start+Count] are relative to Index.
type Offset struct {
	Start int    `json:"start"`
	Count int    `json:"count"`
	Index uint32 `json:"index"`
}

// Mesh holds the post-processed buffers of one decoded part.
type Mesh struct {
	Indices   []uint32
	Indices16 []uint16 // rebased per Offsets; nil unless split
	Positions []float32
	Normals   []float32 // 3 per vertex, nil if absent
	UVs       []float32 // first UV map, 2 per vertex
	Colors    []float32 // "Color" attribute map, 4 per vertex
	Offsets   []Offset

	UVMapName  string
	UVFileName string

	File *ctm.File // the decoded container, before reordering
}

// VertexCount returns the number of positions.
func (m *Mesh) VertexCount() int { return len(m.Positions) / 3 }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// NewMesh assembles a mesh from a decoded file and applies the
// post-processing selected in opts.
func NewMesh(f *ctm.File, opts Options) (*Mesh, error) {
	b := f.Body
	m := &Mesh{
		Indices:   b.Indices,
		Positions: b.Vertices,
		Normals:   b.Normals,
		File:      f,
	}
	if len(b.UVMaps) > 0 {
		m.UVs = b.UVMaps[0].UV
		m.UVMapName = b.UVMaps[0].Name
		m.UVFileName = b.UVMaps[0].FileName
	}
	if c, ok := b.AttrMapByName("Color"); ok {
		m.Colors = c.Attr
	}

	if opts.ReorderVertices {
		m.ReorderVertices()
	}
	if m.Normals == nil && opts.ComputeNormals {
		m.Normals = ComputeVertexNormals(m.Indices, m.Positions)
	}
	if opts.SplitOffsets {
		offsets, idx16, err := ComputeOffsets(m.Indices)
		if err != nil {
			return nil, err
		}
		m.Offsets = offsets
		m.Indices16 = idx16
	}
	return m, nil
}

// ReorderVertices renumbers vertices in order of first use by the triangle
// list and drops vertices no triangle references. Every per-vertex array is
// permuted to match.
func (m *Mesh) ReorderVertices() {
	n := m.VertexCount()
	remap := make([]int32, n)
	for i := range remap {
		remap[i] = -1
	}
	order := make([]uint32, 0, n)

	newIndices := make([]uint32, len(m.Indices))
	for i, v := range m.Indices {
		if remap[v] < 0 {
			remap[v] = int32(len(order))
			order = append(order, v)
		}
		newIndices[i] = uint32(remap[v])
	}

	m.Indices = newIndices
	m.Positions = gather(m.Positions, order, 3)
	m.Normals = gather(m.Normals, order, 3)
	m.UVs = gather(m.UVs, order, 2)
	m.Colors = gather(m.Colors, order, 4)
}

func gather(src []float32, order []uint32, width int) []float32 {
	if src == nil {
		return nil
	}
	dst := make([]float32, len(order)*width)
	for i, v := range order {
		copy(dst[i*width:(i+1)*width], src[int(v)*width:])
	}
	return dst
}

// ComputeOffsets splits the triangle list into consecutive chunks whose
// index span fits in 16 bits. Each chunk is grown as far as possible. The
// returned 16-bit indices are rebased on the smallest index of their chunk.
func ComputeOffsets(indices []uint32) ([]Offset, []uint16, error) {
	idx16 := make([]uint16, len(indices))
	var offsets []Offset
	if len(indices) == 0 {
		return offsets, idx16, nil
	}

	const none = ^uint32(0)
	start := 0
	lo, hi := none, uint32(0)
	prevLo := lo

	closeChunk := func(end int) {
		for k := start; k < end; k++ {
			idx16[k] = uint16(indices[k] - prevLo)
		}
		offsets = append(offsets, Offset{Start: start, Count: end - start, Index: prevLo})
		start = end
	}

	for i := 0; i+2 < len(indices); i += 3 {
		tlo, thi := lo, hi
		for _, v := range indices[i : i+3] {
			tlo = min(tlo, v)
			thi = max(thi, v)
		}
		if thi-tlo > MaxChunkSpan {
			if i == start {
				return nil, nil, fmt.Errorf("%w: triangle %d", ErrChunkSpan, i/3)
			}
			closeChunk(i)
			tlo, thi = none, 0
			for _, v := range indices[i : i+3] {
				tlo = min(tlo, v)
				thi = max(thi, v)
			}
			if thi-tlo > MaxChunkSpan {
				return nil, nil, fmt.Errorf("%w: triangle %d", ErrChunkSpan, i/3)
			}
		}
		lo, hi = tlo, thi
		prevLo = lo
	}
	closeChunk(len(indices) - len(indices)%3)
	return offsets, idx16, nil
}

// ComputeVertexNormals accumulates area weighted face normals onto each
// corner and normalizes the sums.
func ComputeVertexNormals(indices []uint32, positions []float32) []float32 {
	normals := make([]float32, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := int(indices[i])*3, int(indices[i+1])*3, int(indices[i+2])*3

		cbx := positions[c] - positions[b]
		cby := positions[c+1] - positions[b+1]
		cbz := positions[c+2] - positions[b+2]
		abx := positions[a] - positions[b]
		aby := positions[a+1] - positions[b+1]
		abz := positions[a+2] - positions[b+2]

		nx := cby*abz - cbz*aby
		ny := cbz*abx - cbx*abz
		nz := cbx*aby - cby*abx

		for _, k := range [3]int{a, b, c} {
			normals[k] += nx
			normals[k+1] += ny
			normals[k+2] += nz
		}
	}
	for i := 0; i+2 < len(normals); i += 3 {
		l := math32.Sqrt(normals[i]*normals[i] + normals[i+1]*normals[i+1] + normals[i+2]*normals[i+2])
		if l > 0 {
			normals[i] /= l
			normals[i+1] /= l
			normals[i+2] /= l
		}
	}
	return normals
}

// Bounds returns the axis aligned bounding box of the positions. An empty
// mesh yields an inverted box.
func (m *Mesh) Bounds() (lo, hi [3]float32) {
	for a := 0; a < 3; a++ {
		lo[a] = math32.Inf(1)
		hi[a] = math32.Inf(-1)
	}
	for i := 0; i+2 < len(m.Positions); i += 3 {
		for a := 0; a < 3; a++ {
			lo[a] = math32.Min(lo[a], m.Positions[i+a])
			hi[a] = math32.Max(hi[a], m.Positions[i+a])
		}
	}
	return lo, hi
}
