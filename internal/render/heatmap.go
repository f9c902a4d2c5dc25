package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const paletteSize = 256

// colorBarWidth is the horizontal space reserved right of each heat map.
var colorBarWidth = 0.9 * vg.Inch

// Matrix is a Rows × Cols grid stored row-major. Row 0 is drawn at the
// bottom and column 0 on the left.
type Matrix struct {
	Rows   int
	Cols   int
	Values []float64
}

func (m Matrix) validate() error {
	if m.Rows < 1 || m.Cols < 1 {
		return fmt.Errorf("render: empty matrix %dx%d", m.Rows, m.Cols)
	}
	if len(m.Values) != m.Rows*m.Cols {
		return fmt.Errorf("render: matrix %dx%d has %d values", m.Rows, m.Cols, len(m.Values))
	}

	return nil
}

// HeatMapSpec describes one heat map panel with its colour range.
type HeatMapSpec struct {
	Title  string
	XLabel string
	YLabel string
	Data   Matrix
	Min    float64
	Max    float64
}

// grid adapts a Matrix to plotter.GridXYZ. Degenerate axes are widened to
// two cells so the heat map always has a defined cell size.
type grid struct {
	m Matrix
}

func (g grid) Dims() (c, r int) {
	return max(g.m.Cols, 2), max(g.m.Rows, 2)
}

func (g grid) Z(c, r int) float64 {
	c = min(c, g.m.Cols-1)
	r = min(r, g.m.Rows-1)

	return g.m.Values[r*g.m.Cols+c]
}

func (g grid) X(c int) float64 { return float64(c) }
func (g grid) Y(r int) float64 { return float64(r) }

// colorRange returns a usable [lo, hi]; a flat or inverted range is widened
// downwards by one unit.
func colorRange(lo, hi float64) (float64, float64) {
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return 0, 1
	}
	if hi <= lo {
		return hi - 1, hi
	}

	return lo, hi
}

// DrawHeatMap draws spec into dc with a vertical colorbar on the right.
// Values outside [Min, Max] take the nearest end colour.
func DrawHeatMap(dc draw.Canvas, spec HeatMapSpec) error {
	if err := spec.Data.validate(); err != nil {
		return err
	}

	lo, hi := colorRange(spec.Min, spec.Max)

	cmap := moreland.Kindlmann()
	cmap.SetMax(hi)
	cmap.SetMin(lo)
	pal := cmap.Palette(paletteSize)
	colors := pal.Colors()

	hm := plotter.NewHeatMap(grid{m: spec.Data}, pal)
	hm.Min, hm.Max = lo, hi
	hm.Underflow = colors[0]
	hm.Overflow = colors[len(colors)-1]
	hm.NaN = color.Transparent
	hm.Rasterized = true

	p := plot.New()
	p.Title.Text = spec.Title
	p.X.Label.Text = spec.XLabel
	p.Y.Label.Text = spec.YLabel
	p.Add(hm)

	cols, rows := grid{m: spec.Data}.Dims()
	p.X.Min, p.X.Max = -0.5, float64(cols)-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(rows)-0.5

	bar := plot.New()
	bar.HideX()
	bar.Y.Padding = 0
	bar.Title.Text = " "
	bar.Add(&plotter.ColorBar{ColorMap: cmap, Vertical: true, Colors: paletteSize})

	width := dc.Max.X - dc.Min.X
	if width <= colorBarWidth {
		return fmt.Errorf("render: canvas width %v too small for colorbar", width)
	}

	p.Draw(draw.Crop(dc, 0, -colorBarWidth, 0, 0))
	bar.Draw(draw.Crop(dc, width-colorBarWidth+vg.Points(8), 0, 0, 0))

	return nil
}
