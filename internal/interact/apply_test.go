package interact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GridSpace/internal/session"
	"GridSpace/internal/state"
)

func drawer(tool Tool, doc state.Document) State {
	s := NewState("alice", doc)
	s.Permission = session.PermDraw
	s.Tool = tool
	return s
}

func pt(x, y float64) state.Point { return state.Point{X: x, Y: y} }

func down(x, y float64) Event { return Event{Kind: PointerDown, Screen: pt(x, y)} }
func move(x, y float64) Event { return Event{Kind: PointerMove, Screen: pt(x, y)} }
func up() Event               { return Event{Kind: PointerUp} }

// run applies events in order and returns the final state and the effects
// seen along the way.
func run(s State, events ...Event) (State, []Effect) {
	var effects []Effect
	for _, ev := range events {
		var e Effect
		s, e = Apply(s, ev)
		effects = append(effects, e)
	}
	return s, effects
}

func TestNewElement(t *testing.T) {
	style := Style{Color: "#ff0000", LineWidth: 3}
	at := pt(4, 7)

	tests := []struct {
		tool  Tool
		shape Shape
		want  state.Element
	}{
		{ToolPen, "", state.Path{ID: "x", Points: []state.Point{at}, Color: "#ff0000", LineWidth: 3}},
		{ToolLine, "", state.Line{ID: "x", X: 4, Y: 7, X2: 4, Y2: 7, Color: "#ff0000", LineWidth: 3}},
		{ToolShape, ShapeRectangle, state.Rectangle{ID: "x", X: 4, Y: 7, Color: "#ff0000", LineWidth: 3}},
		{ToolShape, ShapeCircle, state.Circle{ID: "x", X: 4, Y: 7, Color: "#ff0000", LineWidth: 3}},
		{ToolText, "", state.Text{ID: "x", X: 4, Y: 7, Color: "#ff0000", FontSize: state.DefaultFontSize}},
	}
	for _, tt := range tests {
		t.Run(string(tt.tool)+string(tt.shape), func(t *testing.T) {
			got, ok := NewElement("x", tt.tool, tt.shape, style, at)
			require.True(t, ok)
			assert.True(t, state.Equal(tt.want, got), "%#v", got)
		})
	}

	_, ok := NewElement("x", ToolSelect, "", style, at)
	assert.False(t, ok)
	_, ok = NewElement("x", ToolEraser, "", style, at)
	assert.False(t, ok)
}

func TestDrawShapes(t *testing.T) {
	t.Run("rectangle", func(t *testing.T) {
		s, effects := run(drawer(ToolShape, nil), down(10, 10), move(30, 20), move(50, 40), up())
		assert.Equal(t, []Effect{None, None, None, Commit}, effects)
		assert.Equal(t, Idle, s.Mode)
		require.Len(t, s.Doc, 1)
		r := s.Doc[0].(state.Rectangle)
		assert.Equal(t, 40.0, r.Width)
		assert.Equal(t, 30.0, r.Height)
		assert.Equal(t, []string{r.ID}, s.Selection)

		b, _ := state.Bounds(r)
		assert.Equal(t, state.Rect{X: 5, Y: 5, Width: 50, Height: 40}, b)
	})

	t.Run("circle", func(t *testing.T) {
		s := drawer(ToolShape, nil)
		s.Shape = ShapeCircle
		s, _ = run(s, down(0, 0), move(3, 4), up())
		assert.Equal(t, 5.0, s.Doc[0].(state.Circle).Radius)
	})

	t.Run("line", func(t *testing.T) {
		s, _ := run(drawer(ToolLine, nil), down(1, 2), move(8, 9), up())
		l := s.Doc[0].(state.Line)
		assert.Equal(t, [4]float64{1, 2, 8, 9}, [4]float64{l.X, l.Y, l.X2, l.Y2})
	})

	t.Run("pen", func(t *testing.T) {
		s, _ := run(drawer(ToolPen, nil), down(0, 0), move(1, 1), move(2, 3), up())
		assert.Equal(t, []state.Point{pt(0, 0), pt(1, 1), pt(2, 3)}, s.Doc[0].(state.Path).Points)
	})

	t.Run("zero size is kept", func(t *testing.T) {
		s := drawer(ToolShape, nil)
		s.Shape = ShapeCircle
		s, effects := run(s, down(5, 5), up())
		assert.Equal(t, []Effect{None, Commit}, effects)
		require.Len(t, s.Doc, 1)
		assert.Zero(t, s.Doc[0].(state.Circle).Radius)
	})

	t.Run("cancel finalizes", func(t *testing.T) {
		s, effects := run(drawer(ToolPen, nil), down(0, 0), move(4, 4), Event{Kind: PointerCancel})
		assert.Equal(t, Commit, effects[2])
		assert.Equal(t, Idle, s.Mode)
		assert.Len(t, s.Doc[0].(state.Path).Points, 2)
	})
}

func TestDrawingRespectsViewport(t *testing.T) {
	s := drawer(ToolLine, nil)
	s.View.Scale = 2
	s.View.OffsetX = 10
	s, _ = run(s, down(10, 0), move(30, 20), up())
	l := s.Doc[0].(state.Line)
	assert.Equal(t, [4]float64{0, 0, 10, 10}, [4]float64{l.X, l.Y, l.X2, l.Y2})
}

func TestSelectPathInsidePadding(t *testing.T) {
	path := state.Path{ID: "p", Points: []state.Point{pt(0, 0), pt(10, 0), pt(10, 10)}, LineWidth: 5}
	s, effects := run(drawer(ToolSelect, state.Document{path}), down(10, 5))
	assert.Equal(t, None, effects[0])
	assert.Equal(t, Moving, s.Mode)
	assert.Equal(t, []string{"p"}, s.Selection)
}

func TestMoveIsRigid(t *testing.T) {
	doc := state.Document{
		state.Rectangle{ID: "r", X: 0, Y: 0, Width: 10, Height: 10},
		state.Path{ID: "p", Points: []state.Point{pt(100, 100), pt(110, 120)}, LineWidth: 2},
		state.Line{ID: "l", X: 200, Y: 200, X2: 210, Y2: 230},
		state.Circle{ID: "c", X: 300, Y: 300, Radius: 3},
	}
	s := drawer(ToolSelect, doc)
	s.Selection = []string{"r", "p", "l"}

	events := []Event{down(5, 5)}
	for i := 1; i <= 37; i++ {
		events = append(events, move(5+float64(i)*0.3, 5-float64(i)*0.7))
	}
	events = append(events, move(12, -3), up())
	s, effects := run(s, events...)
	assert.Equal(t, Commit, effects[len(effects)-1])
	assert.Equal(t, []string{"r", "p", "l"}, s.Selection)

	const dx, dy = 7.0, -8.0
	for _, orig := range doc {
		got, ok := s.Doc.Find(orig.ElementID())
		require.True(t, ok)
		want := orig
		if orig.ElementID() != "c" {
			want = orig.Translate(dx, dy)
		}
		assert.True(t, state.Equal(want, got), "%s: %#v", orig.ElementID(), got)
	}

	// The input document was not modified.
	assert.Equal(t, 0.0, doc[0].(state.Rectangle).X)
	assert.Equal(t, pt(100, 100), doc[1].(state.Path).Points[0])
}

func TestClickOutsideSelectionReselects(t *testing.T) {
	doc := state.Document{
		state.Rectangle{ID: "a", X: 0, Y: 0, Width: 10, Height: 10},
		state.Rectangle{ID: "b", X: 50, Y: 50, Width: 10, Height: 10},
		state.Rectangle{ID: "c", X: 100, Y: 100, Width: 10, Height: 10},
	}
	s := drawer(ToolSelect, doc)
	s.Selection = []string{"a", "b"}
	s, _ = run(s, down(105, 105))
	assert.Equal(t, []string{"c"}, s.Selection)
}

func TestMarqueeSelect(t *testing.T) {
	doc := state.Document{
		state.Rectangle{ID: "a", X: 0, Y: 0, Width: 10, Height: 10},
		state.Rectangle{ID: "b", X: 50, Y: 50, Width: 10, Height: 10},
		state.Rectangle{ID: "c", X: 200, Y: 200, Width: 10, Height: 10},
	}
	s := drawer(ToolSelect, doc)
	s.Selection = []string{"c"}

	s, _ = run(s, down(70, 70), move(40, 40))
	assert.Equal(t, Selecting, s.Mode)
	assert.Empty(t, s.Selection)
	require.NotNil(t, s.Marquee)
	assert.Equal(t, state.Rect{X: 40, Y: 40, Width: 30, Height: 30}, *s.Marquee)

	s, _ = run(s, move(-20, -20), up())
	assert.Nil(t, s.Marquee)
	assert.Equal(t, Idle, s.Mode)
	assert.Equal(t, []string{"a", "b"}, s.Selection)
	assert.True(t, s.Doc.Equal(doc))
}

func TestMarqueeUsesWorldCoordinates(t *testing.T) {
	doc := state.Document{state.Rectangle{ID: "a", X: 100, Y: 100, Width: 10, Height: 10}}
	s := drawer(ToolSelect, doc)
	s.View.Scale = 0.5
	s, _ = run(s, down(40, 40), move(60, 60), up())
	assert.Equal(t, []string{"a"}, s.Selection)
}

func TestEraser(t *testing.T) {
	doc := state.Document{
		state.Rectangle{ID: "under", X: 0, Y: 0, Width: 20, Height: 20},
		state.Rectangle{ID: "over", X: 5, Y: 5, Width: 20, Height: 20},
	}
	s := drawer(ToolEraser, doc)
	s.Selection = []string{"over"}

	s, effects := run(s, down(10, 10))
	assert.Equal(t, []Effect{Commit}, effects)
	assert.Equal(t, Idle, s.Mode)
	require.Len(t, s.Doc, 1)
	assert.Equal(t, "under", s.Doc[0].ElementID())
	assert.Empty(t, s.Selection)

	s, effects = run(s, down(500, 500), up())
	assert.Equal(t, []Effect{None, None}, effects)
	assert.Len(t, s.Doc, 1)
}

func TestTextEntry(t *testing.T) {
	s, effects := run(drawer(ToolText, nil), down(10, 10), move(110, 60), up())
	assert.Equal(t, []Effect{None, None, None}, effects)
	assert.Equal(t, Writing, s.Mode)
	require.NotNil(t, s.TextBox)
	assert.Equal(t, state.Rect{X: 5, Y: 5, Width: 110, Height: 60}, *s.TextBox)
	id := s.Doc[0].ElementID()

	// New gestures are blocked while the text box is open.
	blocked, effects := run(s, down(300, 300), move(310, 310), up())
	assert.Equal(t, []Effect{None, None, None}, effects)
	assert.Equal(t, Writing, blocked.Mode)
	assert.Len(t, blocked.Doc, 1)

	t.Run("text", func(t *testing.T) {
		done, effect := Apply(s, Event{Kind: TextCommit, Text: "hello"})
		assert.Equal(t, Commit, effect)
		assert.Equal(t, Idle, done.Mode)
		assert.Nil(t, done.TextBox)
		assert.Empty(t, done.Selection)
		txt := done.Doc[0].(state.Text)
		assert.Equal(t, id, txt.ID)
		assert.Equal(t, "hello", txt.Text)
		assert.Equal(t, float64(state.DefaultFontSize), txt.FontSize)
	})

	t.Run("blank", func(t *testing.T) {
		done, effect := Apply(s, Event{Kind: TextCommit, Text: " \n\t"})
		assert.Equal(t, Commit, effect)
		assert.Equal(t, Idle, done.Mode)
		assert.Empty(t, done.Doc)
	})

	t.Run("not writing", func(t *testing.T) {
		idle := drawer(ToolText, nil)
		_, effect := Apply(idle, Event{Kind: TextCommit, Text: "x"})
		assert.Equal(t, None, effect)
	})
}

func TestPermissionGatesGestures(t *testing.T) {
	for _, perm := range []session.Permission{session.PermWatch, session.PermPending, session.PermNone} {
		t.Run(string(perm), func(t *testing.T) {
			s := drawer(ToolPen, nil)
			s.Permission = perm
			s, effects := run(s, down(0, 0), move(10, 10), up())
			assert.Equal(t, []Effect{None, None, None}, effects)
			assert.Equal(t, Idle, s.Mode)
			assert.Empty(t, s.Doc)

			s.Tool = ToolEraser
			s.Doc = state.Document{state.Rectangle{ID: "r", Width: 10, Height: 10}}
			s, _ = run(s, down(5, 5))
			assert.Len(t, s.Doc, 1)
		})
	}
}

func TestPanning(t *testing.T) {
	s := drawer(ToolPen, nil)
	s, _ = run(s, Event{Kind: KeyDown, Key: KeySpace}, down(100, 100), move(110, 95), move(130, 90))
	assert.Equal(t, Panning, s.Mode)
	assert.Equal(t, 30.0, s.View.OffsetX)
	assert.Equal(t, -10.0, s.View.OffsetY)
	assert.Empty(t, s.Doc)

	s, effects := run(s, up(), Event{Kind: KeyUp, Key: KeySpace})
	assert.Equal(t, []Effect{None, None}, effects)
	assert.Equal(t, Idle, s.Mode)
	assert.False(t, s.PanModifier)

	s, _ = run(s, down(0, 0), up())
	assert.Len(t, s.Doc, 1)
}

func TestWheelZoom(t *testing.T) {
	s := drawer(ToolPen, nil)
	anchor := pt(200, 150)
	before := s.View.ScreenToWorld(anchor)

	s, _ = run(s, Event{Kind: Wheel, Screen: anchor, DeltaY: -1})
	assert.InDelta(t, 1.1, s.View.Scale, 1e-9)
	after := s.View.ScreenToWorld(anchor)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)

	s, _ = run(s, Event{Kind: Wheel, Screen: anchor, DeltaY: 1})
	assert.InDelta(t, 1.0, s.View.Scale, 1e-9)
}

func TestSelectionBoxes(t *testing.T) {
	s := drawer(ToolSelect, state.Document{state.Rectangle{ID: "r", X: 10, Y: 10, Width: 40, Height: 30}})
	s.Selection = []string{"r", "gone"}
	assert.Equal(t, []state.Rect{{X: 0, Y: 0, Width: 60, Height: 50}}, s.SelectionBoxes())
}
