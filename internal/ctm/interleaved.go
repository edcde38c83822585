package ctm

import "encoding/binary"

// InterleavedStream scatters a flat byte sequence into a buffer of 4-byte
// elements grouped by count. The compressed layout stores one byte plane at a
// time, most significant byte first, component by component, so consecutive
// writes land count*4 bytes apart and wrap onto the next plane.
type InterleavedStream struct {
	data   []byte
	offset int
	stride int
	step   int
}

// NewInterleavedStream wraps data, whose length must be a multiple of
// count*4. order selects where the most significant byte of an element
// lives in data.
func NewInterleavedStream(data []byte, count int, order binary.ByteOrder) *InterleavedStream {
	s := &InterleavedStream{data: data, stride: count * 4}
	if order == binary.BigEndian {
		s.step = -1
	} else {
		s.offset = 3
		s.step = 1
	}
	return s
}

// WriteByte implements io.ByteWriter.
func (s *InterleavedStream) WriteByte(b byte) error {
	if s.offset < 0 || s.offset >= len(s.data) {
		return ErrBadFormat
	}
	s.data[s.offset] = b
	s.offset += s.stride
	if s.offset >= len(s.data) {
		s.offset -= len(s.data) - 4
		if s.offset >= s.stride {
			s.offset -= s.stride + s.step
		}
	}
	return nil
}

// unpackWords decodes n*4 little-endian bytes into words.
func unpackWords(buf []byte, dst []uint32) {
	for i := range dst {
		dst[i] = binary.LittleEndian.Uint32(buf[i*4:])
	}
}
