// Package export renders a board document to PDF or PNG.
package export

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"GridSpace/internal/state"
)

const (
	pageMargin = 10.0 // mm
	lineHeight = 1.2
)

// PDF writes doc as a single landscape A4 page, scaled so every element
// fits inside the margins.
func PDF(w io.Writer, doc state.Document) error {
	p := gofpdf.New("L", "mm", "A4", "")
	p.SetTitle("GridSpace board", true)
	p.SetCreator("GridSpace", true)
	p.AddPage()
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")
	p.SetFont("Helvetica", "", 12)
	tr := p.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := p.GetPageSize()
	r, ok := extent(doc)
	fit := fitTo(r, ok, pageMargin, pageW-2*pageMargin, pageH-2*pageMargin)

	for _, e := range doc {
		draw(p, fit, tr, e)
	}
	if err := p.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return p.Output(w)
}

// ForPath picks the renderer for a file name: PNG for .png, PDF otherwise.
func ForPath(path string) func(io.Writer, state.Document) error {
	if strings.EqualFold(filepath.Ext(path), ".png") {
		return PNG
	}
	return PDF
}

// WriteFile exports doc to path in the format its extension names.
func WriteFile(path string, doc state.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := ForPath(path)(f, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// transform maps world coordinates to output units.
type transform struct {
	scale, dx, dy float64
}

func (t transform) pt(x, y float64) (float64, float64) {
	return x*t.scale + t.dx, y*t.scale + t.dy
}

func (t transform) dist(v float64) float64 { return v * t.scale }

func extent(doc state.Document) (state.Rect, bool) {
	var (
		minX, minY = math.Inf(1), math.Inf(1)
		maxX, maxY = math.Inf(-1), math.Inf(-1)
		found      bool
	)
	for _, e := range doc {
		b, ok := state.Bounds(e)
		if !ok {
			continue
		}
		found = true
		minX, minY = math.Min(minX, b.X), math.Min(minY, b.Y)
		maxX, maxY = math.Max(maxX, b.X+b.Width), math.Max(maxY, b.Y+b.Height)
	}
	if !found {
		return state.Rect{}, false
	}
	return state.Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}

// fitTo scales r into a w×h box whose corner sits at (margin, margin).
// Drawings smaller than the box are not enlarged.
func fitTo(r state.Rect, ok bool, margin, w, h float64) transform {
	if !ok {
		return transform{scale: 1, dx: margin, dy: margin}
	}
	scale := 1.0
	if r.Width > 0 {
		scale = math.Min(scale, w/r.Width)
	}
	if r.Height > 0 {
		scale = math.Min(scale, h/r.Height)
	}
	return transform{
		scale: scale,
		dx:    margin - r.X*scale,
		dy:    margin - r.Y*scale,
	}
}

func draw(p *gofpdf.Fpdf, t transform, tr func(string) string, e state.Element) {
	switch e := e.(type) {
	case state.Path:
		setStroke(p, t, e.Color, e.LineWidth)
		if len(e.Points) == 1 {
			x, y := t.pt(e.Points[0].X, e.Points[0].Y)
			r, g, b := parseColor(e.Color)
			p.SetFillColor(r, g, b)
			p.Circle(x, y, t.dist(e.LineWidth)/2, "F")
			return
		}
		for i, pt := range e.Points {
			x, y := t.pt(pt.X, pt.Y)
			if i == 0 {
				p.MoveTo(x, y)
			} else {
				p.LineTo(x, y)
			}
		}
		p.DrawPath("D")
	case state.Line:
		setStroke(p, t, e.Color, e.LineWidth)
		x1, y1 := t.pt(e.X, e.Y)
		x2, y2 := t.pt(e.X2, e.Y2)
		p.Line(x1, y1, x2, y2)
	case state.Rectangle:
		setStroke(p, t, e.Color, e.LineWidth)
		r := state.RectFromPoints(state.Point{X: e.X, Y: e.Y}, state.Point{X: e.X + e.Width, Y: e.Y + e.Height})
		x, y := t.pt(r.X, r.Y)
		p.Rect(x, y, t.dist(r.Width), t.dist(r.Height), "D")
	case state.Circle:
		setStroke(p, t, e.Color, e.LineWidth)
		x, y := t.pt(e.X, e.Y)
		p.Circle(x, y, t.dist(e.Radius), "D")
	case state.Text:
		if strings.TrimSpace(e.Text) == "" {
			return
		}
		r, g, b := parseColor(e.Color)
		p.SetTextColor(r, g, b)
		size := t.dist(e.FontSize)
		p.SetFontUnitSize(size)
		box := state.RectFromPoints(state.Point{X: e.X, Y: e.Y}, state.Point{X: e.X + e.Width, Y: e.Y + e.Height})
		x, y := t.pt(box.X, box.Y)
		p.SetXY(x, y)
		p.MultiCell(math.Max(t.dist(box.Width), size), size*lineHeight, tr(e.Text), "", "L", false)
	}
}

func setStroke(p *gofpdf.Fpdf, t transform, color string, width float64) {
	r, g, b := parseColor(color)
	p.SetDrawColor(r, g, b)
	p.SetLineWidth(math.Max(t.dist(width), 0.1))
}

// parseColor falls back to black for colors it cannot read.
func parseColor(s string) (r, g, b int) {
	cr, cg, cb, _ := state.ParseColor(s)
	return int(cr), int(cg), int(cb)
}
