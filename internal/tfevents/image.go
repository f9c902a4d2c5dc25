package tfevents

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// DataFormat names the memory layout of an image buffer passed to AddImage.
type DataFormat string

const (
	HWC DataFormat = "HWC"
	CHW DataFormat = "CHW"
	HW  DataFormat = "HW"
)

// layout returns height, width and channels for dims interpreted as format.
func layout(dims []int, format DataFormat) (h, w, c int, err error) {
	switch format {
	case HWC:
		if len(dims) != 3 {
			return 0, 0, 0, fmt.Errorf("tfevents: %s image needs 3 dims, got %v", format, dims)
		}
		h, w, c = dims[0], dims[1], dims[2]
	case CHW:
		if len(dims) != 3 {
			return 0, 0, 0, fmt.Errorf("tfevents: %s image needs 3 dims, got %v", format, dims)
		}
		c, h, w = dims[0], dims[1], dims[2]
	case HW:
		if len(dims) != 2 {
			return 0, 0, 0, fmt.Errorf("tfevents: %s image needs 2 dims, got %v", format, dims)
		}
		h, w, c = dims[0], dims[1], 1
	default:
		return 0, 0, 0, fmt.Errorf("tfevents: unknown data format %q", format)
	}

	if h < 1 || w < 1 {
		return 0, 0, 0, fmt.Errorf("tfevents: empty image %dx%d", w, h)
	}
	if c != 1 && c != 3 && c != 4 {
		return 0, 0, 0, fmt.Errorf("tfevents: unsupported channel count %d", c)
	}

	return h, w, c, nil
}

// toImage converts a uint8 buffer in the given layout to an image. One
// channel becomes *image.Gray, three or four become *image.NRGBA.
func toImage(pix []uint8, dims []int, format DataFormat) (image.Image, error) {
	h, w, c, err := layout(dims, format)
	if err != nil {
		return nil, err
	}
	if len(pix) != h*w*c {
		return nil, fmt.Errorf("tfevents: buffer has %d bytes, dims %v need %d", len(pix), dims, h*w*c)
	}

	at := func(y, x, ch int) uint8 {
		if format == CHW {
			return pix[(ch*h+y)*w+x]
		}
		return pix[(y*w+x)*c+ch]
	}

	if c == 1 {
		gray := image.NewGray(image.Rect(0, 0, w, h))
		for y := range h {
			for x := range w {
				gray.Pix[gray.PixOffset(x, y)] = at(y, x, 0)
			}
		}

		return gray, nil
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			off := img.PixOffset(x, y)
			alpha := uint8(0xff)
			if c == 4 {
				alpha = at(y, x, 3)
			}
			img.Pix[off], img.Pix[off+1], img.Pix[off+2], img.Pix[off+3] = at(y, x, 0), at(y, x, 1), at(y, x, 2), alpha
		}
	}

	return img, nil
}

// colorspace reports what the PNG encoder writes for img: 1 for grayscale,
// 3 for opaque colour, 4 when any pixel is translucent.
func colorspace(img image.Image) int32 {
	switch m := img.(type) {
	case *image.Gray:
		return 1
	case *image.NRGBA:
		if m.Opaque() {
			return 3
		}
	}

	return 4
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	return buf.Bytes(), nil
}
