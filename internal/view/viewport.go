// Package view maps between screen and world coordinates under pan and zoom.
package view

import (
	"math"

	"honnef.co/go/curve"

	"GridSpace/internal/state"
)

const (
	MinScale   = 0.1
	MaxScale   = 20
	ZoomFactor = 1.1
)

type Direction int

const (
	ZoomIn Direction = iota
	ZoomOut
)

// Viewport holds the current pan/zoom. The zero value is not usable; start
// from New.
type Viewport struct {
	Scale   float64 `json:"scale"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
}

func New() Viewport {
	return Viewport{Scale: 1}
}

func (v Viewport) offset() curve.Vec2 {
	return curve.Vec(v.OffsetX, v.OffsetY)
}

func (v Viewport) ScreenToWorld(p state.Point) state.Point {
	w := curve.Vec(p.X, p.Y).Sub(v.offset()).Mul(1 / v.Scale)
	return state.Point{X: w.X, Y: w.Y}
}

func (v Viewport) WorldToScreen(p state.Point) state.Point {
	s := curve.Vec(p.X, p.Y).Mul(v.Scale).Add(v.offset())
	return state.Point{X: s.X, Y: s.Y}
}

// RectToWorld converts a screen-space rectangle to world space.
func (v Viewport) RectToWorld(r state.Rect) state.Rect {
	origin := v.ScreenToWorld(state.Point{X: r.X, Y: r.Y})
	return state.Rect{X: origin.X, Y: origin.Y, Width: r.Width / v.Scale, Height: r.Height / v.Scale}
}

// RectToScreen converts a world-space rectangle to screen space.
func (v Viewport) RectToScreen(r state.Rect) state.Rect {
	origin := v.WorldToScreen(state.Point{X: r.X, Y: r.Y})
	return state.Rect{X: origin.X, Y: origin.Y, Width: r.Width * v.Scale, Height: r.Height * v.Scale}
}

// Zoom rescales by ZoomFactor around anchor. The world point under anchor
// stays under anchor.
func (v *Viewport) Zoom(anchor state.Point, dir Direction) {
	world := v.ScreenToWorld(anchor)
	scale := v.Scale * ZoomFactor
	if dir == ZoomOut {
		scale = v.Scale / ZoomFactor
	}
	v.Scale = clampScale(scale)
	v.OffsetX = anchor.X - world.X*v.Scale
	v.OffsetY = anchor.Y - world.Y*v.Scale
}

// Pan shifts the view by a screen-space delta.
func (v *Viewport) Pan(dx, dy float64) {
	v.OffsetX += dx
	v.OffsetY += dy
}

func clampScale(s float64) float64 {
	return math.Min(math.Max(s, MinScale), MaxScale)
}
