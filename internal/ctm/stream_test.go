package ctm

import (
	"encoding/binary"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func le32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

func TestReadFloat32BitPatterns(t *testing.T) {
	patterns := []uint32{
		0x00000000, // +0
		0x80000000, // -0
		0x3f800000, // 1
		0xbf800000, // -1
		0x00000001, // smallest subnormal
		0x807fffff, // largest negative subnormal
		0x00800000, // smallest normal
		0x3fffffff, // full mantissa
		0x7f7fffff, // max finite
		0x7f800000, // +Inf
		0xff800000, // -Inf
		0x40490fdb, // pi
	}
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		patterns = append(patterns, r.Uint32())
	}

	for _, p := range patterns {
		s := NewStream(le32(p))
		got, err := s.ReadFloat32()
		require.NoError(t, err)
		want := math.Float32frombits(p)
		if math.IsNaN(float64(want)) {
			assert.True(t, math.IsNaN(float64(got)), "0x%08x", p)
			continue
		}
		assert.Equal(t, math.Float32bits(want), math.Float32bits(got), "0x%08x", p)
	}
}

func TestReadFloat32NaN(t *testing.T) {
	for _, p := range []uint32{0x7fc00000, 0x7f800001, 0xffffffff} {
		v, err := NewStream(le32(p)).ReadFloat32()
		require.NoError(t, err)
		assert.True(t, math.IsNaN(float64(v)))
	}
}

func TestReadInt32(t *testing.T) {
	s := NewStream([]byte{0x78, 0x56, 0x34, 0x12, 0xff, 0xff, 0xff, 0xff})
	v, err := s.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(0x12345678), v)
	v, err = s.ReadInt32()
	require.NoError(t, err)
	assert.Equal(t, int32(-1), v)
	assert.Equal(t, 8, s.Offset())
	assert.Zero(t, s.Remaining())
}

func TestStreamTruncated(t *testing.T) {
	s := NewStream([]byte{1, 2, 3})
	_, err := s.ReadInt32()
	assert.ErrorIs(t, err, ErrTruncated)

	s = NewStream(nil)
	_, err = s.ReadByte()
	assert.ErrorIs(t, err, ErrTruncated)

	s = NewStream([]byte{1, 0, 0, 0, 2, 0, 0, 0})
	dst := make([]uint32, 3)
	assert.ErrorIs(t, s.ReadArrayInt32(dst), ErrTruncated)
	assert.Equal(t, []uint32{1, 2, 0}, dst)

	assert.ErrorIs(t, s.Seek(9), ErrTruncated)
}

func TestReadString(t *testing.T) {
	data := append(le32(5), []byte("caf\xe9!")...)
	data = append(data, 0xAA)
	s := NewStream(data)
	str, err := s.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "café!", str)
	assert.Equal(t, 9, s.Offset())

	s = NewStream(append(le32(0), 7))
	str, err = s.ReadString()
	require.NoError(t, err)
	assert.Empty(t, str)
	assert.Equal(t, 4, s.Offset())

	s = NewStream(append(le32(10), 'a', 'b'))
	_, err = s.ReadString()
	assert.ErrorIs(t, err, ErrTruncated)

	s = NewStream(le32(0xffffffff))
	_, err = s.ReadString()
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestReadArrayFloat32(t *testing.T) {
	var data []byte
	want := []float32{1.5, -2.25, 0, 1e-40}
	for _, v := range want {
		data = append(data, le32(math.Float32bits(v))...)
	}
	dst := make([]float32, len(want))
	require.NoError(t, NewStream(data).ReadArrayFloat32(dst))
	assert.Equal(t, want, dst)
}

func TestSection(t *testing.T) {
	s := NewStream([]byte{1, 2, 3, 4, 5})
	_, _ = s.ReadByte()
	sec, err := s.Section(3)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Offset())
	assert.Equal(t, 3, sec.Remaining())

	b, _ := sec.ReadByte()
	assert.Equal(t, byte(2), b)

	_, err = s.Section(2)
	assert.ErrorIs(t, err, ErrTruncated)
}
