package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Image is a rasterized figure: Height × Width × 3 RGB bytes, row-major.
type Image struct {
	Height int
	Width  int
	Pix    []uint8
}

// Dims returns the HWC shape of the buffer.
func (im Image) Dims() []int {
	return []int{im.Height, im.Width, 3}
}

// RGB returns the pixel at row y, column x.
func (im Image) RGB(y, x int) (r, g, b uint8) {
	off := (y*im.Width + x) * 3
	return im.Pix[off], im.Pix[off+1], im.Pix[off+2]
}

// NRGBA converts the buffer to an opaque image.
func (im Image) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, im.Width, im.Height))
	for i, j := 0, 0; i < len(im.Pix); i, j = i+3, j+4 {
		out.Pix[j] = im.Pix[i]
		out.Pix[j+1] = im.Pix[i+1]
		out.Pix[j+2] = im.Pix[i+2]
		out.Pix[j+3] = 0xff
	}

	return out
}

// FromImage reads back an arbitrary image as an HWC buffer. Transparent
// pixels are composited over white.
func FromImage(src image.Image) (Image, error) {
	if src == nil {
		return Image{}, fmt.Errorf("render: nil image")
	}

	flat := imaging.New(src.Bounds().Dx(), src.Bounds().Dy(), color.White)
	flat = imaging.Overlay(flat, src, image.Pt(0, 0), 1.0)

	h, w := flat.Bounds().Dy(), flat.Bounds().Dx()
	if h == 0 || w == 0 {
		return Image{}, fmt.Errorf("render: empty canvas %dx%d", w, h)
	}

	out := Image{Height: h, Width: w, Pix: make([]uint8, h*w*3)}
	for y := range h {
		row := flat.Pix[y*flat.Stride : y*flat.Stride+w*4]
		for x := range w {
			copy(out.Pix[(y*w+x)*3:], row[x*4:x*4+3])
		}
	}

	return out, nil
}
