package ctm

import (
	"fmt"
	"math"

	"golang.org/x/text/encoding/charmap"
)

// Stream is a positional little-endian reader over a fixed byte buffer.
// Reads past the end fail with ErrTruncated.
type Stream struct {
	data []byte
	off  int
}

// NewStream returns a Stream positioned at the start of data.
func NewStream(data []byte) *Stream {
	return &Stream{data: data}
}

// Offset returns the current cursor position.
func (s *Stream) Offset() int { return s.off }

// Remaining returns the number of unread bytes.
func (s *Stream) Remaining() int { return len(s.data) - s.off }

// Seek moves the cursor to an absolute offset.
func (s *Stream) Seek(off int) error {
	if off < 0 || off > len(s.data) {
		return fmt.Errorf("%w: seek to %d in %d bytes", ErrTruncated, off, len(s.data))
	}
	s.off = off
	return nil
}

// ReadByte implements io.ByteReader.
func (s *Stream) ReadByte() (byte, error) {
	if s.off >= len(s.data) {
		return 0, ErrTruncated
	}
	b := s.data[s.off]
	s.off++
	return b, nil
}

func (s *Stream) read4() (b0, b1, b2, b3 byte, err error) {
	if s.off+4 > len(s.data) {
		s.off = len(s.data)
		return 0, 0, 0, 0, ErrTruncated
	}
	d := s.data[s.off : s.off+4]
	s.off += 4
	return d[0], d[1], d[2], d[3], nil
}

// ReadInt32 reads four bytes and assembles them least significant first.
func (s *Stream) ReadInt32() (int32, error) {
	b0, b1, b2, b3, err := s.read4()
	if err != nil {
		return 0, err
	}
	return int32(uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16 | uint32(b3)<<24), nil
}

// ReadUint32 is ReadInt32 without the sign reinterpretation.
func (s *Stream) ReadUint32() (uint32, error) {
	v, err := s.ReadInt32()
	return uint32(v), err
}

// ReadFloat32 rebuilds an IEEE-754 single from its sign, exponent and
// mantissa fields.
func (s *Stream) ReadFloat32() (float32, error) {
	b0, b1, b2, b3, err := s.read4()
	if err != nil {
		return 0, err
	}
	return decodeFloat32(b0, b1, b2, b3), nil
}

func decodeFloat32(b0, b1, b2, b3 byte) float32 {
	m := uint32(b0) | uint32(b1)<<8 | uint32(b2&0x7f)<<16
	e := int(b3&0x7f)<<1 | int(b2>>7)
	sign := 1.0
	if b3&0x80 != 0 {
		sign = -1
	}

	switch {
	case e == 255:
		if m != 0 {
			return float32(math.NaN())
		}
		return float32(math.Inf(int(sign)))
	case e > 0:
		return float32(sign * math.Ldexp(1+float64(m)/(1<<23), e-127))
	case m != 0:
		// subnormal: no implicit leading one, exponent fixed at -126
		return float32(sign * math.Ldexp(float64(m), -149))
	}
	return float32(math.Copysign(0, sign))
}

// ReadString reads an int32 length followed by that many Latin-1 bytes.
// The cursor moves past the payload even when the result is discarded.
func (s *Stream) ReadString() (string, error) {
	n, err := s.ReadInt32()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("%w: negative string length %d", ErrBadFormat, n)
	}
	if int(n) > s.Remaining() {
		s.off = len(s.data)
		return "", fmt.Errorf("%w: string of %d bytes", ErrTruncated, n)
	}
	raw := s.data[s.off : s.off+int(n)]
	s.off += int(n)

	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: string: %v", ErrBadFormat, err)
	}
	return string(out), nil
}

// ReadArrayInt32 fills dst with consecutive int32 values.
func (s *Stream) ReadArrayInt32(dst []uint32) error {
	for i := range dst {
		v, err := s.ReadInt32()
		if err != nil {
			return err
		}
		dst[i] = uint32(v)
	}
	return nil
}

// ReadArrayFloat32 fills dst with consecutive float32 values.
func (s *Stream) ReadArrayFloat32(dst []float32) error {
	for i := range dst {
		v, err := s.ReadFloat32()
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

// Section returns a stream over the next n bytes and advances past them.
func (s *Stream) Section(n int) (*Stream, error) {
	if n < 0 || n > s.Remaining() {
		return nil, fmt.Errorf("%w: section of %d bytes, %d left", ErrTruncated, n, s.Remaining())
	}
	sub := &Stream{data: s.data[s.off : s.off+n]}
	s.off += n
	return sub, nil
}
