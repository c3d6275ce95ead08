package export

import (
	"image/color"
	"io"
	"math"
	"strings"

	"github.com/fogleman/gg"

	"GridSpace/internal/state"
)

const (
	pngMargin  = 20.0 // px
	maxPNGSide = 4096.0
)

// PNG writes doc at one pixel per world unit, cropped to its extent and
// shrunk when a side would exceed maxPNGSide.
func PNG(w io.Writer, doc state.Document) error {
	r, ok := extent(doc)
	fit := fitTo(r, ok, pngMargin, maxPNGSide-2*pngMargin, maxPNGSide-2*pngMargin)
	width := int(math.Ceil(fit.dist(r.Width) + 2*pngMargin))
	height := int(math.Ceil(fit.dist(r.Height) + 2*pngMargin))

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	for _, e := range doc {
		paint(dc, fit, e)
	}
	return dc.EncodePNG(w)
}

func paint(dc *gg.Context, t transform, e state.Element) {
	switch e := e.(type) {
	case state.Path:
		setPen(dc, t, e.Color, e.LineWidth)
		if len(e.Points) == 1 {
			x, y := t.pt(e.Points[0].X, e.Points[0].Y)
			dc.DrawCircle(x, y, t.dist(e.LineWidth)/2)
			dc.Fill()
			return
		}
		for i, pt := range e.Points {
			x, y := t.pt(pt.X, pt.Y)
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
	case state.Line:
		setPen(dc, t, e.Color, e.LineWidth)
		x1, y1 := t.pt(e.X, e.Y)
		x2, y2 := t.pt(e.X2, e.Y2)
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	case state.Rectangle:
		setPen(dc, t, e.Color, e.LineWidth)
		r := state.RectFromPoints(state.Point{X: e.X, Y: e.Y}, state.Point{X: e.X + e.Width, Y: e.Y + e.Height})
		x, y := t.pt(r.X, r.Y)
		dc.DrawRectangle(x, y, t.dist(r.Width), t.dist(r.Height))
		dc.Stroke()
	case state.Circle:
		setPen(dc, t, e.Color, e.LineWidth)
		x, y := t.pt(e.X, e.Y)
		dc.DrawCircle(x, y, t.dist(e.Radius))
		dc.Stroke()
	case state.Text:
		if strings.TrimSpace(e.Text) == "" {
			return
		}
		r, g, b := parseColor(e.Color)
		dc.SetRGB255(r, g, b)
		box := state.RectFromPoints(state.Point{X: e.X, Y: e.Y}, state.Point{X: e.X + e.Width, Y: e.Y + e.Height})
		x, y := t.pt(box.X, box.Y)
		// The built-in face has a fixed size; scale it to the font size.
		fh := dc.FontHeight()
		k := t.dist(e.FontSize) / fh
		dc.Push()
		dc.ScaleAbout(k, k, x, y)
		for i, line := range strings.Split(e.Text, "\n") {
			dc.DrawString(line, x, y+float64(i+1)*fh*lineHeight)
		}
		dc.Pop()
	}
}

func setPen(dc *gg.Context, t transform, hex string, width float64) {
	r, g, b := parseColor(hex)
	dc.SetRGB255(r, g, b)
	dc.SetLineWidth(math.Max(t.dist(width), 1))
}
