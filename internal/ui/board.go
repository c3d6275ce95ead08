package ui

import (
	"image/color"
	"math"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"GridSpace/internal/interact"
	"GridSpace/internal/state"
	"GridSpace/internal/view"
)

const (
	gridSize       = 50.0
	minGridSpacing = 8.0
	textLineHeight = 1.2
)

var (
	backgroundColor = color.NRGBA{R: 245, G: 246, B: 248, A: 255}
	gridColor       = color.NRGBA{R: 220, G: 220, B: 220, A: 100}
	selectionColor  = color.NRGBA{R: 0, G: 170, B: 255, A: 255}
	marqueeFill     = color.NRGBA{R: 0, G: 170, B: 255, A: 40}
)

// scene builds every canvas object for one frame of the board.
func scene(s interact.State, size fyne.Size, showGrid bool) []fyne.CanvasObject {
	bg := canvas.NewRectangle(backgroundColor)
	bg.Resize(size)
	objects := []fyne.CanvasObject{bg}

	if showGrid {
		objects = append(objects, grid(size, s.View)...)
	}
	for _, e := range s.Doc {
		if s.Mode == interact.Writing && s.Selected(e.ElementID()) {
			// The text entry box covers the element being written.
			continue
		}
		objects = append(objects, elementObjects(e, s.View)...)
	}
	for _, b := range s.SelectionBoxes() {
		objects = append(objects, outline(s.View.RectToScreen(b), selectionColor, color.Transparent))
	}
	if s.Marquee != nil {
		objects = append(objects, outline(*s.Marquee, selectionColor, marqueeFill))
	}
	return objects
}

// grid draws world-aligned lines every gridSize units, skipping them once
// they get too dense to be useful.
func grid(size fyne.Size, v view.Viewport) []fyne.CanvasObject {
	spacing := gridSize * v.Scale
	if spacing < minGridSpacing {
		return nil
	}
	var lines []fyne.CanvasObject
	w, h := float64(size.Width), float64(size.Height)

	for x := math.Mod(v.OffsetX, spacing); x < w; x += spacing {
		if x < 0 {
			continue
		}
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(float32(x), 0)
		line.Position2 = fyne.NewPos(float32(x), size.Height)
		line.StrokeWidth = 0.5
		lines = append(lines, line)
	}
	for y := math.Mod(v.OffsetY, spacing); y < h; y += spacing {
		if y < 0 {
			continue
		}
		line := canvas.NewLine(gridColor)
		line.Position1 = fyne.NewPos(0, float32(y))
		line.Position2 = fyne.NewPos(size.Width, float32(y))
		line.StrokeWidth = 0.5
		lines = append(lines, line)
	}
	return lines
}

func elementObjects(e state.Element, v view.Viewport) []fyne.CanvasObject {
	switch e := e.(type) {
	case state.Path:
		c := toColor(e.Color)
		width := float32(e.LineWidth * v.Scale)
		if len(e.Points) == 1 {
			p := v.WorldToScreen(e.Points[0])
			dot := canvas.NewCircle(c)
			dot.Position1 = fyne.NewPos(float32(p.X)-width/2, float32(p.Y)-width/2)
			dot.Position2 = fyne.NewPos(float32(p.X)+width/2, float32(p.Y)+width/2)
			return []fyne.CanvasObject{dot}
		}
		segments := make([]fyne.CanvasObject, 0, len(e.Points))
		for i := 1; i < len(e.Points); i++ {
			segment := canvas.NewLine(c)
			segment.StrokeWidth = width
			segment.Position1 = toPos(v.WorldToScreen(e.Points[i-1]))
			segment.Position2 = toPos(v.WorldToScreen(e.Points[i]))
			segments = append(segments, segment)
		}
		return segments

	case state.Line:
		line := canvas.NewLine(toColor(e.Color))
		line.StrokeWidth = float32(e.LineWidth * v.Scale)
		line.Position1 = toPos(v.WorldToScreen(state.Point{X: e.X, Y: e.Y}))
		line.Position2 = toPos(v.WorldToScreen(state.Point{X: e.X2, Y: e.Y2}))
		return []fyne.CanvasObject{line}

	case state.Rectangle:
		box := state.RectFromPoints(state.Point{X: e.X, Y: e.Y}, state.Point{X: e.X + e.Width, Y: e.Y + e.Height})
		r := outline(v.RectToScreen(box), toColor(e.Color), color.Transparent)
		r.StrokeWidth = float32(e.LineWidth * v.Scale)
		return []fyne.CanvasObject{r}

	case state.Circle:
		center := v.WorldToScreen(state.Point{X: e.X, Y: e.Y})
		radius := e.Radius * v.Scale
		c := canvas.NewCircle(color.Transparent)
		c.StrokeColor = toColor(e.Color)
		c.StrokeWidth = float32(e.LineWidth * v.Scale)
		c.Position1 = fyne.NewPos(float32(center.X-radius), float32(center.Y-radius))
		c.Position2 = fyne.NewPos(float32(center.X+radius), float32(center.Y+radius))
		return []fyne.CanvasObject{c}

	case state.Text:
		box := state.RectFromPoints(state.Point{X: e.X, Y: e.Y}, state.Point{X: e.X + e.Width, Y: e.Y + e.Height})
		var lines []fyne.CanvasObject
		for i, s := range strings.Split(e.Text, "\n") {
			t := canvas.NewText(s, toColor(e.Color))
			t.TextSize = float32(e.FontSize * v.Scale)
			at := v.WorldToScreen(state.Point{X: box.X, Y: box.Y + float64(i)*e.FontSize*textLineHeight})
			t.Move(toPos(at))
			lines = append(lines, t)
		}
		return lines
	}
	return nil
}

// outline returns a stroked rectangle covering the screen-space rect r.
func outline(r state.Rect, stroke, fill color.Color) *canvas.Rectangle {
	rect := canvas.NewRectangle(fill)
	rect.StrokeColor = stroke
	rect.StrokeWidth = 1
	rect.Move(fyne.NewPos(float32(r.X), float32(r.Y)))
	rect.Resize(fyne.NewSize(float32(r.Width), float32(r.Height)))
	return rect
}

func toPos(p state.Point) fyne.Position {
	return fyne.NewPos(float32(p.X), float32(p.Y))
}

func toPoint(p fyne.Position) state.Point {
	return state.Point{X: float64(p.X), Y: float64(p.Y)}
}

func toColor(s string) color.NRGBA {
	r, g, b, _ := state.ParseColor(s)
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func toHex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	const digits = "0123456789abcdef"
	out := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{n.R, n.G, n.B} {
		out[1+2*i] = digits[v>>4]
		out[2+2*i] = digits[v&0xf]
	}
	return string(out)
}
