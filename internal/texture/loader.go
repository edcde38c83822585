package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

// ErrUnsupported is returned for files that are not a decodable image.
var ErrUnsupported = errors.New("texture: unsupported image format")

// LoadTexture reads an image file and returns it as NRGBA. The format is
// sniffed from the content; TGA has no signature and is chosen by extension.
func LoadTexture(path string) (*image.NRGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}
	img, err := Decode(raw, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}
	return img, nil
}

// Decode decodes raw image bytes. ext is a hint used when the content has
// no recognizable signature. Decoders are picked from the sniffed type
// rather than image.Decode, since the TGA package registers an empty magic
// that would claim any input.
func Decode(raw []byte, ext string) (*image.NRGBA, error) {
	kind, _ := filetype.Match(raw)
	r := bytes.NewReader(raw)

	var img image.Image
	var err error
	switch kind.Extension {
	case "png":
		img, err = png.Decode(r)
	case "jpg":
		img, err = jpeg.Decode(r)
	case "gif":
		img, err = gif.Decode(r)
	case "bmp":
		img, err = bmp.Decode(r)
	case "webp":
		img, err = webp.Decode(r)
	default:
		if kind != filetype.Unknown || !strings.EqualFold(ext, ".tga") {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, kind.MIME.Value)
		}
		img, err = tga.Decode(r)
	}
	if err != nil {
		return nil, err
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to NRGBA with its origin at (0, 0).
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
