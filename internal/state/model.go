package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Point is a position in world coordinates unless stated otherwise.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Kind string

const (
	KindPath      Kind = "path"
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindLine      Kind = "line"
	KindText      Kind = "text"
)

// DefaultFontSize is the font size given to new text elements.
const DefaultFontSize = 24

// Element is one drawable item. The set of implementations is closed:
// Path, Rectangle, Circle, Line and Text.
type Element interface {
	ElementID() string
	Kind() Kind
	// Translate returns a copy moved by (dx, dy).
	Translate(dx, dy float64) Element
	element()
}

// Path is a freehand stroke.
type Path struct {
	ID        string  `json:"id"`
	Points    []Point `json:"path"`
	Color     string  `json:"color"`
	LineWidth float64 `json:"lineWidth"`
}

type Rectangle struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Color     string  `json:"color"`
	LineWidth float64 `json:"lineWidth"`
}

type Circle struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Radius    float64 `json:"radius"`
	Color     string  `json:"color"`
	LineWidth float64 `json:"lineWidth"`
}

type Line struct {
	ID        string  `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	X2        float64 `json:"x2"`
	Y2        float64 `json:"y2"`
	Color     string  `json:"color"`
	LineWidth float64 `json:"lineWidth"`
}

// Text is a block of text wrapped inside its Width/Height box.
type Text struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Text     string  `json:"text"`
	Color    string  `json:"color"`
	FontSize float64 `json:"fontSize"`
}

func (p Path) ElementID() string      { return p.ID }
func (r Rectangle) ElementID() string { return r.ID }
func (c Circle) ElementID() string    { return c.ID }
func (l Line) ElementID() string      { return l.ID }
func (t Text) ElementID() string      { return t.ID }

func (Path) Kind() Kind      { return KindPath }
func (Rectangle) Kind() Kind { return KindRectangle }
func (Circle) Kind() Kind    { return KindCircle }
func (Line) Kind() Kind      { return KindLine }
func (Text) Kind() Kind      { return KindText }

func (Path) element()      {}
func (Rectangle) element() {}
func (Circle) element()    {}
func (Line) element()      {}
func (Text) element()      {}

func (p Path) Translate(dx, dy float64) Element {
	points := make([]Point, len(p.Points))
	for i, pt := range p.Points {
		points[i] = Point{X: pt.X + dx, Y: pt.Y + dy}
	}
	p.Points = points
	return p
}

func (r Rectangle) Translate(dx, dy float64) Element {
	r.X += dx
	r.Y += dy
	return r
}

func (c Circle) Translate(dx, dy float64) Element {
	c.X += dx
	c.Y += dy
	return c
}

func (l Line) Translate(dx, dy float64) Element {
	l.X += dx
	l.Y += dy
	l.X2 += dx
	l.Y2 += dy
	return l
}

func (t Text) Translate(dx, dy float64) Element {
	t.X += dx
	t.Y += dy
	return t
}

// AddPoint returns a copy of the path with pt appended. The receiver's
// backing array is never written to.
func (p Path) AddPoint(pt Point) Path {
	p.Points = append(slices.Clip(p.Points), pt)
	return p
}

// Equal reports whether two elements hold the same variant and values.
func Equal(a, b Element) bool {
	switch a := a.(type) {
	case Path:
		b, ok := b.(Path)
		return ok && a.ID == b.ID && a.Color == b.Color && a.LineWidth == b.LineWidth && slices.Equal(a.Points, b.Points)
	case Rectangle:
		b, ok := b.(Rectangle)
		return ok && a == b
	case Circle:
		b, ok := b.(Circle)
		return ok && a == b
	case Line:
		b, ok := b.(Line)
		return ok && a == b
	case Text:
		b, ok := b.(Text)
		return ok && a == b
	}
	return false
}

// marshalTagged encodes v and prepends a "type" discriminator to the object.
func marshalTagged(kind Kind, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(body) + len(kind) + 12)
	buf.WriteString(`{"type":"`)
	buf.WriteString(string(kind))
	buf.WriteByte('"')
	if len(body) > 2 {
		buf.WriteByte(',')
	}
	buf.Write(body[1:])
	return buf.Bytes(), nil
}

func (p Path) MarshalJSON() ([]byte, error) {
	type plain Path
	if p.Points == nil {
		p.Points = []Point{}
	}
	return marshalTagged(KindPath, plain(p))
}

func (r Rectangle) MarshalJSON() ([]byte, error) {
	type plain Rectangle
	return marshalTagged(KindRectangle, plain(r))
}

func (c Circle) MarshalJSON() ([]byte, error) {
	type plain Circle
	return marshalTagged(KindCircle, plain(c))
}

func (l Line) MarshalJSON() ([]byte, error) {
	type plain Line
	return marshalTagged(KindLine, plain(l))
}

func (t Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return marshalTagged(KindText, plain(t))
}

// UnmarshalElement decodes one tagged element object.
func UnmarshalElement(data []byte) (Element, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, err
	}
	switch head.Type {
	case KindPath:
		var p Path
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		if len(p.Points) == 0 {
			return nil, fmt.Errorf("path %q has no points", p.ID)
		}
		return p, nil
	case KindRectangle:
		var r Rectangle
		err := json.Unmarshal(data, &r)
		return r, err
	case KindCircle:
		var c Circle
		err := json.Unmarshal(data, &c)
		return c, err
	case KindLine:
		var l Line
		err := json.Unmarshal(data, &l)
		return l, err
	case KindText:
		var t Text
		err := json.Unmarshal(data, &t)
		return t, err
	default:
		return nil, fmt.Errorf("unknown element type %q", head.Type)
	}
}
