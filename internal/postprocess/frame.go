package postprocess

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// CropAndCenter crops to the bounding box of non-transparent pixels, scales
// the result so its longer side fills fillRatio of the canvas, and centers it
// on a transparent size×size canvas.
func CropAndCenter(img *image.NRGBA, size int, fillRatio float64) *image.NRGBA {
	return scaleAndCenter(cropAlpha(img), size, fillRatio)
}

// AlphaBounds returns the bounding box of pixels with non-zero alpha, or an
// empty rectangle for a fully transparent image.
func AlphaBounds(img *image.NRGBA) image.Rectangle {
	b := img.Bounds()
	r := image.Rectangle{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.Pix[img.PixOffset(x, y)+3] == 0 {
				continue
			}
			r = r.Union(image.Rect(x, y, x+1, y+1))
		}
	}
	return r
}

func cropAlpha(img *image.NRGBA) *image.NRGBA {
	r := AlphaBounds(img)
	if r.Empty() {
		return img
	}
	cropped := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Copy(cropped, image.Point{}, img, r, draw.Src, nil)
	return cropped
}

func scaleAndCenter(img *image.NRGBA, canvasSize int, fillRatio float64) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, canvasSize, canvasSize))
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW == 0 || srcH == 0 || AlphaBounds(img).Empty() {
		return canvas
	}

	maxDim := float64(canvasSize) * fillRatio
	scale := maxDim / math.Max(float64(srcW), float64(srcH))
	newW := max(int(float64(srcW)*scale+0.5), 1)
	newH := max(int(float64(srcH)*scale+0.5), 1)

	offX := (canvasSize - newW) / 2
	offY := (canvasSize - newH) / 2
	dst := image.Rect(offX, offY, offX+newW, offY+newH)
	draw.CatmullRom.Scale(canvas, dst, img, b, draw.Src, nil)
	return canvas
}
