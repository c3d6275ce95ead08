package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBounds(t *testing.T) {
	tests := []struct {
		name string
		el   Element
		want Rect
	}{
		{
			name: "rectangle dragged down-right",
			el:   Rectangle{ID: "r", X: 10, Y: 10, Width: 40, Height: 30, LineWidth: 5},
			want: Rect{X: 5, Y: 5, Width: 50, Height: 40},
		},
		{
			name: "rectangle dragged up-left",
			el:   Rectangle{ID: "r", X: 50, Y: 40, Width: -40, Height: -30},
			want: Rect{X: 5, Y: 5, Width: 50, Height: 40},
		},
		{
			name: "zero size rectangle",
			el:   Rectangle{ID: "r", X: 3, Y: 4},
			want: Rect{X: -2, Y: -1, Width: 10, Height: 10},
		},
		{
			name: "text ignores font size",
			el:   Text{ID: "t", X: 0, Y: 0, Width: 100, Height: -20, FontSize: 24},
			want: Rect{X: -5, Y: -25, Width: 110, Height: 30},
		},
		{
			name: "path",
			el:   Path{ID: "p", Points: []Point{{0, 0}, {10, 0}, {10, 10}}, LineWidth: 4},
			want: Rect{X: -7, Y: -7, Width: 24, Height: 24},
		},
		{
			name: "single point path",
			el:   Path{ID: "p", Points: []Point{{2, 2}}, LineWidth: 2},
			want: Rect{X: -4, Y: -4, Width: 12, Height: 12},
		},
		{
			name: "circle",
			el:   Circle{ID: "c", X: 100, Y: 100, Radius: 20, LineWidth: 10},
			want: Rect{X: 70, Y: 70, Width: 60, Height: 60},
		},
		{
			name: "degenerate circle",
			el:   Circle{ID: "c", X: 1, Y: 1, LineWidth: 0},
			want: Rect{X: -4, Y: -4, Width: 10, Height: 10},
		},
		{
			name: "line reversed",
			el:   Line{ID: "l", X: 30, Y: 0, X2: 0, Y2: 10, LineWidth: 2},
			want: Rect{X: -6, Y: -6, Width: 42, Height: 22},
		},
		{
			name: "zero length line",
			el:   Line{ID: "l", X: 5, Y: 5, X2: 5, Y2: 5, LineWidth: 2},
			want: Rect{X: -1, Y: -1, Width: 12, Height: 12},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Bounds(tt.el)
			require.True(t, ok)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
			assert.InDelta(t, tt.want.Width, got.Width, 1e-9)
			assert.InDelta(t, tt.want.Height, got.Height, 1e-9)
		})
	}
}

func TestBoundsEmptyPath(t *testing.T) {
	_, ok := Bounds(Path{ID: "p"})
	assert.False(t, ok)
}

func TestBoundsContainsEveryPathPoint(t *testing.T) {
	p := Path{ID: "p", LineWidth: 3, Points: []Point{{-3, 8}, {12, -1}, {4, 4}, {7, 20}}}
	b, ok := Bounds(p)
	require.True(t, ok)
	for _, pt := range p.Points {
		assert.True(t, PointInBounds(pt, b.Inset(-strokePadding(p.LineWidth))), "point %v", pt)
	}
	// Shrinking the box at all drops an extreme point.
	assert.False(t, PointInBounds(Point{-3, 8}, b.Inset(-strokePadding(p.LineWidth)-0.01)))
}

func TestPointInBounds(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	assert.True(t, PointInBounds(Point{0, 0}, r))
	assert.True(t, PointInBounds(Point{10, 10}, r))
	assert.True(t, PointInBounds(Point{5, 5}, r))
	assert.False(t, PointInBounds(Point{10.001, 5}, r))
	assert.False(t, PointInBounds(Point{5, -0.001}, r))
}

func TestBoundsIntersect(t *testing.T) {
	a := Rect{X: 0, Y: 0, Width: 10, Height: 10}
	assert.True(t, BoundsIntersect(a, Rect{X: 5, Y: 5, Width: 10, Height: 10}))
	assert.True(t, BoundsIntersect(a, Rect{X: 10, Y: 0, Width: 5, Height: 5}), "touching edge")
	assert.True(t, BoundsIntersect(a, Rect{X: 2, Y: 2, Width: 1, Height: 1}), "contained")
	assert.False(t, BoundsIntersect(a, Rect{X: 11, Y: 0, Width: 5, Height: 5}))
	assert.False(t, BoundsIntersect(a, Rect{X: 0, Y: -6, Width: 5, Height: 5}))
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5, Distance(Point{0, 0}, Point{3, 4}), 1e-12)
	assert.Zero(t, Distance(Point{7, 7}, Point{7, 7}))
}
