// Package ctm decodes OpenCTM mesh containers in the RAW, MG1 and MG2
// compression methods.
package ctm

import "fmt"

// File is a fully decoded CTM container.
type File struct {
	Header *FileHeader
	MG2    *MG2Header // nil unless Header.Method is MG2
	Body   *FileBody
}

// Decode reads one CTM file starting at the stream cursor. On error no
// partially decoded file is returned.
func Decode(s *Stream) (*File, error) {
	h, err := ParseHeader(s)
	if err != nil {
		return nil, err
	}
	f := &File{Header: h, Body: NewFileBody(h)}
	if err := readerFor(h.Method).read(s, f); err != nil {
		return nil, fmt.Errorf("ctm: %v body: %w", h.Method, err)
	}
	return f, nil
}

// DecodeAt decodes the file that starts offset bytes into data. Several
// files may share one buffer; each call uses its own cursor.
func DecodeAt(data []byte, offset int) (*File, error) {
	s := NewStream(data)
	if err := s.Seek(offset); err != nil {
		return nil, err
	}
	return Decode(s)
}
