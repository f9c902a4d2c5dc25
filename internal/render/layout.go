package render

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var suptitleHeight = 0.5 * vg.Inch

// Stack renders panels top to bottom in a single figure of the given size
// and returns the rasterized pixels. title, when set, is drawn above all
// panels. The figure is released on every return path.
func Stack(b *Backend, title string, width, height vg.Length, panels []HeatMapSpec) (Image, error) {
	fig := b.NewFigure(width, height)
	defer fig.Close()

	dc := fig.Canvas()
	if title != "" {
		drawSuptitle(dc, title)
		dc = draw.Crop(dc, 0, 0, 0, -suptitleHeight)
	}

	tiles := draw.Tiles{
		Rows:      len(panels),
		Cols:      1,
		PadX:      vg.Points(6),
		PadY:      vg.Points(12),
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
	}

	for i, panel := range panels {
		if err := DrawHeatMap(tiles.At(dc, 0, i), panel); err != nil {
			return Image{}, err
		}
	}

	return fig.Rasterize()
}

func drawSuptitle(dc draw.Canvas, title string) {
	sty := plot.New().Title.TextStyle
	sty.Font.Size = vg.Points(16)
	sty.XAlign = text.XCenter
	sty.YAlign = text.YTop

	pt := vg.Point{X: dc.Center().X, Y: dc.Max.Y - vg.Points(8)}
	dc.FillText(sty, pt, title)
}
