package ctm

import (
	"encoding/binary"
	"fmt"

	"ctm-loader/internal/lzma"
)

// readPacked decodes one LZMA section into dst. The bytes of the words are
// interleaved in groups of count. The packed size bounds the section so the
// cursor always lands right after it.
func readPacked(s *Stream, dst []uint32, count int) error {
	size, err := s.ReadInt32()
	if err != nil {
		return err
	}
	if size < 0 {
		return fmt.Errorf("%w: packed size %d", ErrBadFormat, size)
	}
	sec, err := s.Section(int(size) + lzma.PropsSize)
	if err != nil {
		return err
	}

	buf := make([]byte, len(dst)*4)
	if err := lzma.Decompress(sec, NewInterleavedStream(buf, count, binary.LittleEndian), int64(len(buf))); err != nil {
		return err
	}
	unpackWords(buf, dst)
	return nil
}

type reader interface {
	read(s *Stream, f *File) error
}

func readerFor(m Method) reader {
	switch m {
	case RAW:
		return rawReader{}
	case MG1:
		return mg1Reader{}
	case MG2:
		return mg2Reader{}
	}
	return nil
}

// rawReader reads uncompressed sections.
type rawReader struct{}

func (rawReader) read(s *Stream, f *File) error {
	h, b := f.Header, f.Body

	if err := expectTag(s, tagINDX, "INDX"); err != nil {
		return err
	}
	if err := s.ReadArrayInt32(b.Indices); err != nil {
		return fmt.Errorf("ctm: read indices: %w", err)
	}
	if err := b.validateIndices(h.VertexCount); err != nil {
		return err
	}

	if err := expectTag(s, tagVERT, "VERT"); err != nil {
		return err
	}
	if err := s.ReadArrayFloat32(b.Vertices); err != nil {
		return fmt.Errorf("ctm: read vertices: %w", err)
	}

	if h.HasNormals() {
		if err := expectTag(s, tagNORM, "NORM"); err != nil {
			return err
		}
		if err := s.ReadArrayFloat32(b.Normals); err != nil {
			return fmt.Errorf("ctm: read normals: %w", err)
		}
	}

	for i := range b.UVMaps {
		m := &b.UVMaps[i]
		if err := readUVMapHeader(s, m); err != nil {
			return err
		}
		if err := s.ReadArrayFloat32(m.UV); err != nil {
			return fmt.Errorf("ctm: read uv map %q: %w", m.Name, err)
		}
	}

	for i := range b.AttrMaps {
		m := &b.AttrMaps[i]
		if err := readAttrMapHeader(s, m); err != nil {
			return err
		}
		if err := s.ReadArrayFloat32(m.Attr); err != nil {
			return fmt.Errorf("ctm: read attribute map %q: %w", m.Name, err)
		}
	}
	return nil
}

// mg1Reader reads LZMA compressed sections without quantization.
type mg1Reader struct{}

func (mg1Reader) read(s *Stream, f *File) error {
	h, b := f.Header, f.Body

	if err := expectTag(s, tagINDX, "INDX"); err != nil {
		return err
	}
	if err := readPacked(s, b.Indices, 3); err != nil {
		return fmt.Errorf("ctm: read indices: %w", err)
	}
	RestoreIndices(b.Indices)
	if err := b.validateIndices(h.VertexCount); err != nil {
		return err
	}

	if err := expectTag(s, tagVERT, "VERT"); err != nil {
		return err
	}
	if err := readPackedFloats(s, b.Vertices, 1); err != nil {
		return fmt.Errorf("ctm: read vertices: %w", err)
	}

	if h.HasNormals() {
		if err := expectTag(s, tagNORM, "NORM"); err != nil {
			return err
		}
		if err := readPackedFloats(s, b.Normals, 3); err != nil {
			return fmt.Errorf("ctm: read normals: %w", err)
		}
	}

	for i := range b.UVMaps {
		m := &b.UVMaps[i]
		if err := readUVMapHeader(s, m); err != nil {
			return err
		}
		if err := readPackedFloats(s, m.UV, 2); err != nil {
			return fmt.Errorf("ctm: read uv map %q: %w", m.Name, err)
		}
	}

	for i := range b.AttrMaps {
		m := &b.AttrMaps[i]
		if err := readAttrMapHeader(s, m); err != nil {
			return err
		}
		if err := readPackedFloats(s, m.Attr, 4); err != nil {
			return fmt.Errorf("ctm: read attribute map %q: %w", m.Name, err)
		}
	}
	return nil
}

// readPackedFloats decodes a section of raw IEEE singles into dst.
func readPackedFloats(s *Stream, dst []float32, count int) error {
	words := make([]uint32, len(dst))
	if err := readPacked(s, words, count); err != nil {
		return err
	}
	for i, w := range words {
		dst[i] = decodeFloat32(byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return nil
}

// mg2Reader reads quantized, delta coded sections.
type mg2Reader struct{}

func (mg2Reader) read(s *Stream, f *File) error {
	h, b := f.Header, f.Body

	mh, err := ParseMG2Header(s)
	if err != nil {
		return err
	}
	f.MG2 = mh

	if err := expectTag(s, tagVERT, "VERT"); err != nil {
		return err
	}
	packedVerts := make([]uint32, len(b.Vertices))
	if err := readPacked(s, packedVerts, 3); err != nil {
		return fmt.Errorf("ctm: read vertices: %w", err)
	}
	if err := expectTag(s, tagGIDX, "GIDX"); err != nil {
		return err
	}
	gridIndices := make([]uint32, h.VertexCount)
	if err := readPacked(s, gridIndices, 1); err != nil {
		return fmt.Errorf("ctm: read grid indices: %w", err)
	}
	RestoreGridIndices(gridIndices)
	RestoreVertices(b.Vertices, packedVerts, gridIndices, mh)

	if err := expectTag(s, tagINDX, "INDX"); err != nil {
		return err
	}
	if err := readPacked(s, b.Indices, 3); err != nil {
		return fmt.Errorf("ctm: read indices: %w", err)
	}
	RestoreIndices(b.Indices)
	if err := b.validateIndices(h.VertexCount); err != nil {
		return err
	}

	if h.HasNormals() {
		if err := expectTag(s, tagNORM, "NORM"); err != nil {
			return err
		}
		packed := make([]uint32, len(b.Normals))
		if err := readPacked(s, packed, 3); err != nil {
			return fmt.Errorf("ctm: read normals: %w", err)
		}
		smooth := CalcSmoothNormals(b.Indices, b.Vertices)
		RestoreNormals(b.Normals, packed, smooth, mh.NormalPrecision)
	}

	for i := range b.UVMaps {
		m := &b.UVMaps[i]
		if err := readUVMapHeader(s, m); err != nil {
			return err
		}
		prec, err := s.ReadFloat32()
		if err != nil {
			return fmt.Errorf("ctm: read uv map %q precision: %w", m.Name, err)
		}
		packed := make([]uint32, len(m.UV))
		if err := readPacked(s, packed, 2); err != nil {
			return fmt.Errorf("ctm: read uv map %q: %w", m.Name, err)
		}
		RestoreMap(m.UV, packed, 2, prec)
	}

	for i := range b.AttrMaps {
		m := &b.AttrMaps[i]
		if err := readAttrMapHeader(s, m); err != nil {
			return err
		}
		prec, err := s.ReadFloat32()
		if err != nil {
			return fmt.Errorf("ctm: read attribute map %q precision: %w", m.Name, err)
		}
		packed := make([]uint32, len(m.Attr))
		if err := readPacked(s, packed, 4); err != nil {
			return fmt.Errorf("ctm: read attribute map %q: %w", m.Name, err)
		}
		RestoreMap(m.Attr, packed, 4, prec)
	}
	return nil
}

func readUVMapHeader(s *Stream, m *UVMap) error {
	if err := expectTag(s, tagTEXC, "TEXC"); err != nil {
		return err
	}
	var err error
	if m.Name, err = s.ReadString(); err != nil {
		return fmt.Errorf("ctm: read uv map name: %w", err)
	}
	if m.FileName, err = s.ReadString(); err != nil {
		return fmt.Errorf("ctm: read uv map file name: %w", err)
	}
	return nil
}

func readAttrMapHeader(s *Stream, m *AttrMap) error {
	if err := expectTag(s, tagATTR, "ATTR"); err != nil {
		return err
	}
	var err error
	if m.Name, err = s.ReadString(); err != nil {
		return fmt.Errorf("ctm: read attribute map name: %w", err)
	}
	return nil
}
