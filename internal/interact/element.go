package interact

import (
	"GridSpace/internal/state"
)

// NewElement creates the element a drawing tool starts with: anchored at
// at, with zero extent. select and eraser create nothing.
func NewElement(id string, tool Tool, shape Shape, style Style, at state.Point) (state.Element, bool) {
	switch tool {
	case ToolPen:
		return state.Path{ID: id, Points: []state.Point{at}, Color: style.Color, LineWidth: style.LineWidth}, true
	case ToolLine:
		return state.Line{ID: id, X: at.X, Y: at.Y, X2: at.X, Y2: at.Y, Color: style.Color, LineWidth: style.LineWidth}, true
	case ToolShape:
		switch shape {
		case ShapeRectangle:
			return state.Rectangle{ID: id, X: at.X, Y: at.Y, Color: style.Color, LineWidth: style.LineWidth}, true
		case ShapeCircle:
			return state.Circle{ID: id, X: at.X, Y: at.Y, Color: style.Color, LineWidth: style.LineWidth}, true
		}
	case ToolText:
		return state.Text{ID: id, X: at.X, Y: at.Y, Color: style.Color, FontSize: state.DefaultFontSize}, true
	}
	return nil, false
}

// extend drags the free corner or endpoint of a freshly created element to p.
func extend(e state.Element, p state.Point) state.Element {
	switch e := e.(type) {
	case state.Path:
		return e.AddPoint(p)
	case state.Line:
		e.X2, e.Y2 = p.X, p.Y
		return e
	case state.Rectangle:
		e.Width, e.Height = p.X-e.X, p.Y-e.Y
		return e
	case state.Text:
		e.Width, e.Height = p.X-e.X, p.Y-e.Y
		return e
	case state.Circle:
		e.Radius = state.Distance(state.Point{X: e.X, Y: e.Y}, p)
		return e
	}
	return e
}
