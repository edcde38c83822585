package ctm

import (
	"fmt"
	"strings"
)

// Method is a CTM compression method tag.
type Method uint32

// Compression methods.
const (
	RAW Method = 0x00574152
	MG1 Method = 0x0031474d
	MG2 Method = 0x0032474d
)

func (m Method) String() string {
	switch m {
	case RAW:
		return "RAW"
	case MG1:
		return "MG1"
	case MG2:
		return "MG2"
	}
	return fmt.Sprintf("Method(0x%08x)", uint32(m))
}

// FlagNormals marks a file that stores per-vertex normals.
const FlagNormals = 0x00000001

// FormatVersion is the only container version this package reads.
const FormatVersion = 5

// fourCC packs a four character tag the way it appears on disk.
func fourCC(s string) uint32 {
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
}

var (
	magicFile = fourCC("OCTM")
	tagMG2H   = fourCC("MG2H")
	tagINDX   = fourCC("INDX")
	tagVERT   = fourCC("VERT")
	tagGIDX   = fourCC("GIDX")
	tagNORM   = fourCC("NORM")
	tagTEXC   = fourCC("TEXC")
	tagATTR   = fourCC("ATTR")
)

// maxCount bounds header counts so a corrupt header cannot request
// multi-gigabyte allocations.
const maxCount = 1 << 27

// FileHeader is the fixed header at the start of every CTM file.
type FileHeader struct {
	Version       int32
	Method        Method
	VertexCount   int
	TriangleCount int
	UVMapCount    int
	AttrMapCount  int
	Flags         int32
	Comment       string
}

// HasNormals reports whether the body carries a normal array.
func (h *FileHeader) HasNormals() bool {
	return h.Flags&FlagNormals != 0
}

// ParseHeader reads and validates the file header.
func ParseHeader(s *Stream) (*FileHeader, error) {
	var f [8]int32
	for i := range f {
		v, err := s.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("ctm: header: %w", err)
		}
		f[i] = v
	}

	if uint32(f[0]) != magicFile {
		return nil, fmt.Errorf("%w: 0x%08x", ErrBadMagic, uint32(f[0]))
	}
	h := &FileHeader{
		Version: f[1],
		Method:  Method(uint32(f[2])),
		Flags:   f[7],
	}
	switch h.Method {
	case RAW, MG1, MG2:
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedCompression, h.Method)
	}
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}

	counts := []*int{&h.VertexCount, &h.TriangleCount, &h.UVMapCount, &h.AttrMapCount}
	for i, dst := range counts {
		v := f[3+i]
		if v < 0 || v > maxCount {
			return nil, fmt.Errorf("%w: count %d out of range", ErrBadFormat, v)
		}
		*dst = int(v)
	}

	comment, err := s.ReadString()
	if err != nil {
		return nil, fmt.Errorf("ctm: header comment: %w", err)
	}
	h.Comment = strings.TrimRight(comment, "\x00")
	return h, nil
}

// MG2Header holds the quantization grid of an MG2 body.
type MG2Header struct {
	VertexPrecision float32
	NormalPrecision float32
	LowerBound      [3]float32
	UpperBound      [3]float32
	Div             [3]uint32
	CellSize        [3]float64 // (upper-lower)/div per axis
}

// ParseMG2Header reads the MG2 sub-header that follows the file header.
func ParseMG2Header(s *Stream) (*MG2Header, error) {
	if err := expectTag(s, tagMG2H, "MG2H"); err != nil {
		return nil, err
	}
	h := &MG2Header{}
	fields := []*float32{
		&h.VertexPrecision, &h.NormalPrecision,
		&h.LowerBound[0], &h.LowerBound[1], &h.LowerBound[2],
		&h.UpperBound[0], &h.UpperBound[1], &h.UpperBound[2],
	}
	for _, dst := range fields {
		v, err := s.ReadFloat32()
		if err != nil {
			return nil, fmt.Errorf("ctm: MG2 header: %w", err)
		}
		*dst = v
	}
	for i := range h.Div {
		v, err := s.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("ctm: MG2 header: %w", err)
		}
		if v < 1 {
			return nil, fmt.Errorf("%w: grid division %d on axis %d", ErrBadFormat, v, i)
		}
		h.Div[i] = uint32(v)
	}
	for i := range h.CellSize {
		h.CellSize[i] = (float64(h.UpperBound[i]) - float64(h.LowerBound[i])) / float64(h.Div[i])
	}
	return h, nil
}

func expectTag(s *Stream, want uint32, name string) error {
	got, err := s.ReadUint32()
	if err != nil {
		return fmt.Errorf("ctm: %s tag: %w", name, err)
	}
	if got != want {
		return fmt.Errorf("%w: expected %s section, got 0x%08x", ErrBadFormat, name, got)
	}
	return nil
}
