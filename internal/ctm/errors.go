package ctm

import (
	"errors"
	"fmt"
)

// Decode failures. Every error returned by this package wraps one of these
// (or an lzma error) so callers can reject the asset with errors.Is.
var (
	ErrTruncated              = errors.New("ctm: unexpected end of data")
	ErrBadMagic               = errors.New("ctm: bad magic number")
	ErrUnsupportedVersion     = errors.New("ctm: unsupported format version")
	ErrUnsupportedCompression = errors.New("ctm: unsupported compression method")
	ErrBadFormat              = errors.New("ctm: malformed file")
	ErrIndexRange             = errors.New("ctm: triangle index out of range")
)

// IndexError reports the first triangle index outside the vertex range.
type IndexError struct {
	Pos         int
	Index       uint32
	VertexCount int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("ctm: index %d at position %d, mesh has %d vertices", e.Index, e.Pos, e.VertexCount)
}

func (e *IndexError) Unwrap() error { return ErrIndexRange }
