package state

import (
	"math"

	"honnef.co/go/curve"
)

// selectionPadding is added around every element's extent so thin strokes
// stay clickable.
const selectionPadding = 5

// Rect is an axis-aligned rectangle with non-negative Width and Height.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// RectFromPoints returns the normalized rectangle spanned by a and b.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(a.X - b.X),
		Height: math.Abs(a.Y - b.Y),
	}
}

// Inset grows r by d on every side (shrinks for negative d).
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// Bounds returns the padded hit box of e. The second result is false only for
// element values outside the closed variant set.
func Bounds(e Element) (Rect, bool) {
	switch e := e.(type) {
	case Path:
		if len(e.Points) == 0 {
			return Rect{}, false
		}
		minX, minY := e.Points[0].X, e.Points[0].Y
		maxX, maxY := minX, minY
		for _, p := range e.Points[1:] {
			minX = math.Min(minX, p.X)
			minY = math.Min(minY, p.Y)
			maxX = math.Max(maxX, p.X)
			maxY = math.Max(maxY, p.Y)
		}
		box := Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
		return box.Inset(strokePadding(e.LineWidth)), true
	case Rectangle:
		box := RectFromPoints(Point{e.X, e.Y}, Point{e.X + e.Width, e.Y + e.Height})
		return box.Inset(selectionPadding), true
	case Text:
		box := RectFromPoints(Point{e.X, e.Y}, Point{e.X + e.Width, e.Y + e.Height})
		return box.Inset(selectionPadding), true
	case Circle:
		r := e.Radius + strokePadding(e.LineWidth)
		return Rect{X: e.X - r, Y: e.Y - r, Width: 2 * r, Height: 2 * r}, true
	case Line:
		box := RectFromPoints(Point{e.X, e.Y}, Point{e.X2, e.Y2})
		return box.Inset(strokePadding(e.LineWidth)), true
	}
	return Rect{}, false
}

func strokePadding(lineWidth float64) float64 {
	return lineWidth/2 + selectionPadding
}

// PointInBounds reports whether p lies inside r, edges included.
func PointInBounds(p Point, r Rect) bool {
	return p.X >= r.X && p.X <= r.X+r.Width &&
		p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// BoundsIntersect reports whether a and b overlap. Touching edges count.
func BoundsIntersect(a, b Rect) bool {
	return !(b.X > a.X+a.Width || b.X+b.Width < a.X ||
		b.Y > a.Y+a.Height || b.Y+b.Height < a.Y)
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return curve.Point{X: b.X, Y: b.Y}.Sub(curve.Point{X: a.X, Y: a.Y}).Hypot()
}
