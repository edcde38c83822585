package loader

import "errors"

var (
	ErrManifest  = errors.New("loader: malformed manifest")
	ErrFetch     = errors.New("loader: fetch failed")
	ErrChunkSpan = errors.New("loader: triangle spans more than 65536 vertices")
)
