// Package ctmtest writes small CTM files for tests. It covers the subset of
// the format the decoder reads: RAW, MG1 and MG2 bodies with optional
// normals, UV maps and attribute maps.
package ctmtest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ulikunitz/xz/lzma"
)

const (
	methodRAW = 0x00574152
	methodMG1 = 0x0031474d
	methodMG2 = 0x0032474d
)

// UVMap is one texture coordinate set.
type UVMap struct {
	Name, FileName string
	UV             []float32
}

// AttrMap is one four component attribute set.
type AttrMap struct {
	Name string
	Attr []float32
}

// Mesh is the source data of a file.
type Mesh struct {
	Comment  string
	Indices  []uint32
	Vertices []float32
	Normals  []float32
	UVMaps   []UVMap
	AttrMaps []AttrMap
}

func (m *Mesh) vertexCount() int { return len(m.Vertices) / 3 }

// Cube returns a unit cube with 8 shared corners, 12 triangles, a UV map
// named "Diffuse" and a "Color" attribute map.
func Cube() *Mesh {
	m := &Mesh{
		Comment: "unit cube",
		Vertices: []float32{
			0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0,
			0, 0, 1, 1, 0, 1, 1, 1, 1, 0, 1, 1,
		},
		Indices: []uint32{
			0, 2, 1, 0, 3, 2, // bottom
			4, 5, 6, 4, 6, 7, // top
			0, 1, 5, 0, 5, 4, // front
			2, 3, 7, 2, 7, 6, // back
			1, 2, 6, 1, 6, 5, // right
			3, 0, 4, 3, 4, 7, // left
		},
	}
	uv := make([]float32, 0, 16)
	col := make([]float32, 0, 32)
	nrm := make([]float32, 0, 24)
	for i := 0; i < 8; i++ {
		x, y, z := m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]
		uv = append(uv, x, y)
		col = append(col, x, y, z, 1)
		l := float32(math.Sqrt(float64((x-0.5)*(x-0.5) + (y-0.5)*(y-0.5) + (z-0.5)*(z-0.5))))
		nrm = append(nrm, (x-0.5)/l, (y-0.5)/l, (z-0.5)/l)
	}
	m.Normals = nrm
	m.UVMaps = []UVMap{{Name: "Diffuse", FileName: "cube.png", UV: uv}}
	m.AttrMaps = []AttrMap{{Name: "Color", Attr: col}}
	return m
}

// Grid returns a flat n by n vertex grid triangulated row by row. Vertex
// positions are multiples of 1/64.
func Grid(n int) *Mesh {
	m := &Mesh{Comment: fmt.Sprintf("grid %dx%d", n, n)}
	m.Vertices = make([]float32, 0, n*n*3)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			m.Vertices = append(m.Vertices, float32(x)/64, float32(y)/64, 0)
		}
	}
	for y := 0; y+1 < n; y++ {
		for x := 0; x+1 < n; x++ {
			a := uint32(y*n + x)
			b, c, d := a+1, a+uint32(n), a+uint32(n)+1
			m.Indices = append(m.Indices, a, b, d, a, d, c)
		}
	}
	return m
}

type writer struct {
	bytes.Buffer
	err error
}

func (w *writer) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func (w *writer) i32(v int) { w.u32(uint32(int32(v))) }

func (w *writer) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *writer) tag(s string) {
	w.u32(uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24)
}

func (w *writer) str(s string) {
	w.i32(len(s))
	w.WriteString(s)
}

// Interleave lays words out one byte plane at a time, most significant
// plane first, component by component within each plane.
func Interleave(words []uint32, count int) []byte {
	out := make([]byte, 0, len(words)*4)
	groups := len(words) / count
	for b := 3; b >= 0; b-- {
		for j := 0; j < count; j++ {
			for g := 0; g < groups; g++ {
				out = append(out, byte(words[g*count+j]>>(8*b)))
			}
		}
	}
	return out
}

// Compress returns the five byte properties header and the payload of an
// LZMA stream holding data.
func Compress(data []byte) (props, payload []byte, err error) {
	var buf bytes.Buffer
	cfg := lzma.WriterConfig{
		Properties: &lzma.Properties{LC: 3, LP: 0, PB: 2},
		DictCap:    1 << 16,
	}
	lw, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, nil, err
	}
	if _, err := lw.Write(data); err != nil {
		return nil, nil, err
	}
	if err := lw.Close(); err != nil {
		return nil, nil, err
	}
	out := buf.Bytes()
	// props(1) dict(4) size(8)
	return out[:5], out[13:], nil
}

func (w *writer) packed(words []uint32, count int) {
	if w.err != nil {
		return
	}
	props, payload, err := Compress(Interleave(words, count))
	if err != nil {
		w.err = err
		return
	}
	w.i32(len(payload))
	w.Write(props)
	w.Write(payload)
}

func (w *writer) header(method uint32, m *Mesh) {
	w.tag("OCTM")
	w.i32(5)
	w.u32(method)
	w.i32(m.vertexCount())
	w.i32(len(m.Indices) / 3)
	w.i32(len(m.UVMaps))
	w.i32(len(m.AttrMaps))
	flags := 0
	if m.Normals != nil {
		flags |= 1
	}
	w.i32(flags)
	w.str(m.Comment)
}

func floatWords(v []float32) []uint32 {
	out := make([]uint32, len(v))
	for i, x := range v {
		out[i] = math.Float32bits(x)
	}
	return out
}

// EncodeIndices applies the triangle index prediction the decoder undoes.
func EncodeIndices(idx []uint32) []uint32 {
	out := make([]uint32, len(idx))
	if len(idx) >= 3 {
		out[0] = idx[0]
		out[1] = idx[1] - idx[0]
		out[2] = idx[2] - idx[0]
	}
	for i := 3; i+2 < len(idx); i += 3 {
		out[i] = idx[i] - idx[i-3]
		if idx[i] == idx[i-3] {
			out[i+1] = idx[i+1] - idx[i-2]
		} else {
			out[i+1] = idx[i+1] - idx[i]
		}
		out[i+2] = idx[i+2] - idx[i]
	}
	return out
}

// EncodeMap quantizes v by prec and writes per channel zig-zag deltas.
func EncodeMap(v []float32, count int, prec float32) []uint32 {
	out := make([]uint32, len(v))
	for c := 0; c < count; c++ {
		var prev int64
		for j := c; j < len(v); j += count {
			q := int64(math.Round(float64(v[j]) / float64(prec)))
			d := q - prev
			prev = q
			if d >= 0 {
				out[j] = uint32(2 * d)
			} else {
				out[j] = uint32(-2*d - 1)
			}
		}
	}
	return out
}

// EncodeRAW writes m uncompressed.
func EncodeRAW(m *Mesh) ([]byte, error) {
	w := &writer{}
	w.header(methodRAW, m)
	w.tag("INDX")
	for _, v := range m.Indices {
		w.u32(v)
	}
	w.tag("VERT")
	for _, v := range m.Vertices {
		w.f32(v)
	}
	if m.Normals != nil {
		w.tag("NORM")
		for _, v := range m.Normals {
			w.f32(v)
		}
	}
	for _, uv := range m.UVMaps {
		w.tag("TEXC")
		w.str(uv.Name)
		w.str(uv.FileName)
		for _, v := range uv.UV {
			w.f32(v)
		}
	}
	for _, a := range m.AttrMaps {
		w.tag("ATTR")
		w.str(a.Name)
		for _, v := range a.Attr {
			w.f32(v)
		}
	}
	return w.Bytes(), nil
}

// EncodeMG1 writes m with LZMA compressed, unquantized sections.
func EncodeMG1(m *Mesh) ([]byte, error) {
	w := &writer{}
	w.header(methodMG1, m)
	w.tag("INDX")
	w.packed(EncodeIndices(m.Indices), 3)
	w.tag("VERT")
	w.packed(floatWords(m.Vertices), 1)
	if m.Normals != nil {
		w.tag("NORM")
		w.packed(floatWords(m.Normals), 3)
	}
	for _, uv := range m.UVMaps {
		w.tag("TEXC")
		w.str(uv.Name)
		w.str(uv.FileName)
		w.packed(floatWords(uv.UV), 2)
	}
	for _, a := range m.AttrMaps {
		w.tag("ATTR")
		w.str(a.Name)
		w.packed(floatWords(a.Attr), 4)
	}
	return w.Bytes(), w.err
}

// MG2Params is the quantization grid and precisions of an MG2 file.
type MG2Params struct {
	VertexPrecision float32
	NormalPrecision float32
	MapPrecision    float32
	Lower, Upper    [3]float32
	Div             [3]uint32
}

// UnitParams suits meshes inside the unit cube: a 2x2x2 grid and
// precisions that represent multiples of 1/1024 exactly.
func UnitParams() MG2Params {
	return MG2Params{
		VertexPrecision: 1.0 / 1024,
		NormalPrecision: 1.0 / 256,
		MapPrecision:    1.0 / 4096,
		Upper:           [3]float32{1, 1, 1},
		Div:             [3]uint32{2, 2, 2},
	}
}

// EncodeMG2 quantizes positions onto the grid in p. Normals are written
// as the smooth normal with unit length, so they decode to the averaged
// face normals of the mesh rather than to m.Normals.
func EncodeMG2(m *Mesh, p MG2Params) ([]byte, error) {
	w := &writer{}
	w.header(methodMG2, m)

	w.tag("MG2H")
	w.f32(p.VertexPrecision)
	w.f32(p.NormalPrecision)
	for _, v := range p.Lower {
		w.f32(v)
	}
	for _, v := range p.Upper {
		w.f32(v)
	}
	for _, v := range p.Div {
		w.u32(v)
	}

	n := m.vertexCount()
	verts := make([]uint32, n*3)
	grid := make([]uint32, n)
	prevGrid := uint32(0x7fffffff)
	var prevQ int32
	var prevAbs uint32
	for i := 0; i < n; i++ {
		var cell [3]uint32
		var q [3]int32
		for a := 0; a < 3; a++ {
			size := (float64(p.Upper[a]) - float64(p.Lower[a])) / float64(p.Div[a])
			off := float64(m.Vertices[i*3+a]) - float64(p.Lower[a])
			c := int(math.Floor(off / size))
			c = max(0, min(c, int(p.Div[a])-1))
			cell[a] = uint32(c)
			q[a] = int32(math.Round((off - float64(c)*size) / float64(p.VertexPrecision)))
		}
		g := cell[0] + p.Div[0]*(cell[1]+p.Div[1]*cell[2])
		if g == prevGrid {
			verts[i*3] = uint32(q[0] - prevQ)
		} else {
			verts[i*3] = uint32(q[0])
		}
		verts[i*3+1] = uint32(q[1])
		verts[i*3+2] = uint32(q[2])
		prevGrid, prevQ = g, q[0]

		grid[i] = g - prevAbs
		prevAbs = g
	}

	w.tag("VERT")
	w.packed(verts, 3)
	w.tag("GIDX")
	w.packed(grid, 1)
	w.tag("INDX")
	w.packed(EncodeIndices(m.Indices), 3)

	if m.Normals != nil {
		ro := uint32(math.Round(1 / float64(p.NormalPrecision)))
		nw := make([]uint32, n*3)
		for i := 0; i < n; i++ {
			nw[i*3] = ro
		}
		w.tag("NORM")
		w.packed(nw, 3)
	}
	for _, uv := range m.UVMaps {
		w.tag("TEXC")
		w.str(uv.Name)
		w.str(uv.FileName)
		w.f32(p.MapPrecision)
		w.packed(EncodeMap(uv.UV, 2, p.MapPrecision), 2)
	}
	for _, a := range m.AttrMaps {
		w.tag("ATTR")
		w.str(a.Name)
		w.f32(p.MapPrecision)
		w.packed(EncodeMap(a.Attr, 4, p.MapPrecision), 4)
	}
	return w.Bytes(), w.err
}
