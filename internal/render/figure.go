package render

import (
	"errors"
	"sync/atomic"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// DPI is the raster resolution of every figure.
const DPI = 100

// ErrFigureClosed is returned when rasterizing a released figure.
var ErrFigureClosed = errors.New("render: figure closed")

// Backend is an off-screen plotting backend. It tracks how many figures are
// open so callers can verify that every figure is released.
type Backend struct {
	open atomic.Int64
}

func NewBackend() *Backend {
	return &Backend{}
}

// OpenFigures reports figures created and not yet closed.
func (b *Backend) OpenFigures() int {
	return int(b.open.Load())
}

// NewFigure allocates a raster canvas of the given physical size. The caller
// must Close it.
func (b *Backend) NewFigure(width, height vg.Length) *Figure {
	b.open.Add(1)

	return &Figure{
		backend: b,
		canvas:  vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(DPI)),
	}
}

// Figure owns one raster canvas.
type Figure struct {
	backend *Backend
	canvas  *vgimg.Canvas
}

// Canvas returns the full drawing area of the figure.
func (f *Figure) Canvas() draw.Canvas {
	return draw.New(f.canvas)
}

// Rasterize reads the drawn canvas back as an RGB buffer.
func (f *Figure) Rasterize() (Image, error) {
	if f.canvas == nil {
		return Image{}, ErrFigureClosed
	}

	return FromImage(f.canvas.Image())
}

// Close releases the canvas. It is safe to call more than once.
func (f *Figure) Close() {
	if f.canvas == nil {
		return
	}

	f.canvas = nil
	f.backend.open.Add(-1)
}
