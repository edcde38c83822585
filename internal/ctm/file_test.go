package ctm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctm-loader/internal/ctmtest"
	"ctm-loader/internal/lzma"
)

func rawFile(t *testing.T, m *ctmtest.Mesh) []byte {
	t.Helper()
	data, err := ctmtest.EncodeRAW(m)
	require.NoError(t, err)
	return data
}

func mg1File(t *testing.T, m *ctmtest.Mesh) []byte {
	t.Helper()
	data, err := ctmtest.EncodeMG1(m)
	require.NoError(t, err)
	return data
}

func mg2File(t *testing.T, m *ctmtest.Mesh, p ctmtest.MG2Params) []byte {
	t.Helper()
	data, err := ctmtest.EncodeMG2(m, p)
	require.NoError(t, err)
	return data
}

func assertCube(t *testing.T, f *File, src *ctmtest.Mesh) {
	t.Helper()
	h := f.Header
	assert.Equal(t, 8, h.VertexCount)
	assert.Equal(t, 12, h.TriangleCount)
	assert.Equal(t, "unit cube", h.Comment)
	assert.Len(t, f.Body.Indices, 36)
	assert.Len(t, f.Body.Vertices, 24)
	assert.Equal(t, src.Indices, f.Body.Indices)
	for _, v := range f.Body.Vertices {
		assert.GreaterOrEqual(t, v, float32(0))
		assert.LessOrEqual(t, v, float32(1))
	}

	require.Len(t, f.Body.UVMaps, 1)
	assert.Equal(t, "Diffuse", f.Body.UVMaps[0].Name)
	assert.Equal(t, "cube.png", f.Body.UVMaps[0].FileName)
	assert.Equal(t, src.UVMaps[0].UV, f.Body.UVMaps[0].UV)

	color, ok := f.Body.AttrMapByName("Color")
	require.True(t, ok)
	assert.Equal(t, src.AttrMaps[0].Attr, color.Attr)
}

func TestDecodeRAW(t *testing.T) {
	src := ctmtest.Cube()
	f, err := DecodeAt(rawFile(t, src), 0)
	require.NoError(t, err)
	assert.Equal(t, RAW, f.Header.Method)
	assert.Nil(t, f.MG2)
	assertCube(t, f, src)
	assert.Equal(t, src.Vertices, f.Body.Vertices)
	assert.Equal(t, src.Normals, f.Body.Normals)
}

func TestDecodeMG1(t *testing.T) {
	src := ctmtest.Cube()
	f, err := DecodeAt(mg1File(t, src), 0)
	require.NoError(t, err)
	assert.Equal(t, MG1, f.Header.Method)
	assertCube(t, f, src)
	assert.Equal(t, src.Vertices, f.Body.Vertices)
	assert.Equal(t, src.Normals, f.Body.Normals)
}

func TestDecodeMG2(t *testing.T) {
	src := ctmtest.Cube()
	f, err := DecodeAt(mg2File(t, src, ctmtest.UnitParams()), 0)
	require.NoError(t, err)
	assert.Equal(t, MG2, f.Header.Method)
	require.NotNil(t, f.MG2)
	assert.Equal(t, [3]uint32{2, 2, 2}, f.MG2.Div)
	assert.Equal(t, [3]float64{0.5, 0.5, 0.5}, f.MG2.CellSize)
	assertCube(t, f, src)
	assert.Equal(t, src.Vertices, f.Body.Vertices)

	smooth := CalcSmoothNormals(src.Indices, src.Vertices)
	require.Len(t, f.Body.Normals, 24)
	for i := range smooth {
		assert.InDelta(t, smooth[i], f.Body.Normals[i], 1e-6)
	}
}

func TestDecodeMG2Quantized(t *testing.T) {
	src := ctmtest.Cube()
	for i := range src.Vertices {
		src.Vertices[i] = src.Vertices[i]*3.3 - 1.1
	}
	src.Normals = nil
	p := ctmtest.MG2Params{
		VertexPrecision: 1.0 / 2048,
		NormalPrecision: 1.0 / 256,
		MapPrecision:    1.0 / 4096,
		Lower:           [3]float32{-1.1, -1.1, -1.1},
		Upper:           [3]float32{2.2, 2.2, 2.2},
		Div:             [3]uint32{3, 5, 7},
	}
	f, err := DecodeAt(mg2File(t, src, p), 0)
	require.NoError(t, err)
	assert.Nil(t, f.Body.Normals)
	for i, v := range f.Body.Vertices {
		assert.InDelta(t, src.Vertices[i], v, float64(p.VertexPrecision))
	}
}

func TestDecodeSharedBuffer(t *testing.T) {
	src := ctmtest.Cube()
	a := mg2File(t, src, ctmtest.UnitParams())
	b := rawFile(t, src)
	blob := append(append([]byte{}, a...), b...)

	fa, err := DecodeAt(blob, 0)
	require.NoError(t, err)
	fb, err := DecodeAt(blob, len(a))
	require.NoError(t, err)
	assert.Equal(t, MG2, fa.Header.Method)
	assert.Equal(t, RAW, fb.Header.Method)
	assert.Equal(t, fa.Body.Indices, fb.Body.Indices)

	s := NewStream(blob)
	_, err = Decode(s)
	require.NoError(t, err)
	assert.Equal(t, len(a), s.Offset())
}

func TestParseHeaderErrors(t *testing.T) {
	src := ctmtest.Cube()
	good := rawFile(t, src)

	bad := append([]byte{}, good...)
	copy(bad, "OCTX")
	_, err := DecodeAt(bad, 0)
	assert.ErrorIs(t, err, ErrBadMagic)

	bad = append([]byte{}, good...)
	copy(bad[8:], le32(0x0033474d))
	_, err = DecodeAt(bad, 0)
	assert.ErrorIs(t, err, ErrUnsupportedCompression)

	bad = append([]byte{}, good...)
	copy(bad[4:], le32(4))
	_, err = DecodeAt(bad, 0)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	bad = append([]byte{}, good...)
	copy(bad[12:], le32(0xffffffff))
	_, err = DecodeAt(bad, 0)
	assert.ErrorIs(t, err, ErrBadFormat)

	_, err = DecodeAt(good[:20], 0)
	assert.ErrorIs(t, err, ErrTruncated)

	_, err = DecodeAt(good, len(good)+1)
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeIndexOutOfRange(t *testing.T) {
	src := ctmtest.Cube()
	src.Indices[7] = 8
	for name, data := range map[string][]byte{
		"raw": rawFile(t, src),
		"mg1": mg1File(t, src),
		"mg2": mg2File(t, src, ctmtest.UnitParams()),
	} {
		_, err := DecodeAt(data, 0)
		assert.ErrorIs(t, err, ErrIndexRange, name)
		var ie *IndexError
		require.True(t, errors.As(err, &ie), name)
		assert.Equal(t, 7, ie.Pos)
	}
}

func TestDecodeTruncatedBody(t *testing.T) {
	src := ctmtest.Cube()
	for name, data := range map[string][]byte{
		"raw": rawFile(t, src),
		"mg1": mg1File(t, src),
		"mg2": mg2File(t, src, ctmtest.UnitParams()),
	} {
		for _, cut := range []int{len(data) - 1, len(data) - 20, len(data) / 2} {
			_, err := DecodeAt(data[:cut], 0)
			require.Error(t, err, "%s cut at %d", name, cut)
			assert.True(t, errors.Is(err, ErrTruncated) || errors.Is(err, lzma.ErrData), "%s cut at %d: %v", name, cut, err)
		}
	}
}

func TestDecodeWrongSectionTag(t *testing.T) {
	src := ctmtest.Cube()
	data := rawFile(t, src)
	// the INDX tag follows the 32 byte header and the comment
	off := 32 + 4 + len(src.Comment)
	copy(data[off:], "VERT")
	_, err := DecodeAt(data, 0)
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestDecodeEmptyMesh(t *testing.T) {
	src := &ctmtest.Mesh{}
	for _, data := range [][]byte{
		rawFile(t, src),
		mg2File(t, src, ctmtest.UnitParams()),
	} {
		f, err := DecodeAt(data, 0)
		require.NoError(t, err)
		assert.Empty(t, f.Body.Indices)
		assert.Empty(t, f.Body.Vertices)
	}
}
