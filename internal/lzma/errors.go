package lzma

import "errors"

var (
	// ErrInvalidProperties is returned when the properties header names an
	// lc, lp or pb value outside the LZMA limits.
	ErrInvalidProperties = errors.New("lzma: invalid properties")

	// ErrData is returned for a corrupt payload, such as a match distance
	// reaching before the start of the output or outside the dictionary.
	ErrData = errors.New("lzma: corrupt data")
)
