// Package interact turns pointer and keyboard input into document edits.
//
// Apply is the pure transition function of the board's interaction state
// machine. Machine wraps it with a history stack and the locking needed to
// mix local input with remote updates.
package interact

import (
	"slices"

	"GridSpace/internal/session"
	"GridSpace/internal/state"
	"GridSpace/internal/view"
)

type Mode int

const (
	Idle Mode = iota
	Drawing
	Moving
	Selecting
	Panning
	Writing
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Moving:
		return "moving"
	case Selecting:
		return "selecting"
	case Panning:
		return "panning"
	case Writing:
		return "writing"
	}
	return "unknown"
}

type Tool string

const (
	ToolSelect Tool = "select"
	ToolPen    Tool = "pen"
	ToolLine   Tool = "line"
	ToolShape  Tool = "shape"
	ToolText   Tool = "text"
	ToolEraser Tool = "eraser"
)

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolSelect, ToolPen, ToolLine, ToolShape, ToolText, ToolEraser}

type Shape string

const (
	ShapeRectangle Shape = "rectangle"
	ShapeCircle    Shape = "circle"
)

// Style is applied to newly created elements.
type Style struct {
	Color     string
	LineWidth float64
}

var DefaultStyle = Style{Color: "#00aaff", LineWidth: 5}

// QuickColors is the palette offered next to the color picker.
var QuickColors = []string{"#00aaff", "#ff64a2", "#64ffda", "#e6ff33"}

type EventKind int

const (
	PointerDown EventKind = iota
	PointerMove
	PointerUp
	// PointerCancel ends a gesture the input surface could not finish, for
	// example after losing focus mid-drag. It finalizes like PointerUp.
	PointerCancel
	KeyDown
	KeyUp
	// Wheel zooms around Screen. Negative DeltaY zooms in.
	Wheel
	// TextCommit closes the text entry box with Text as its content.
	TextCommit
)

// KeySpace is the key that enables panning while held.
const KeySpace = "space"

// Event is one unit of input. Screen is in screen coordinates.
type Event struct {
	Kind   EventKind
	Screen state.Point
	Key    string
	DeltaY float64
	Text   string
}

// Effect tells the caller what to do after a transition.
type Effect int

const (
	None Effect = iota
	// Commit asks for the resulting document to be committed to history.
	Commit
)

// State is everything the interaction layer knows about one client's board.
// Values are treated as immutable; Apply returns a modified copy.
type State struct {
	Mode        Mode
	Doc         state.Document
	Selection   []string
	View        view.Viewport
	Tool        Tool
	Shape       Shape
	Style       Style
	PanModifier bool
	Permission  session.Permission
	// Author is appended to new element ids.
	Author string
	// Marquee is the selection rectangle being dragged, in screen space.
	Marquee *state.Rect
	// TextBox is where the text entry surface goes while Writing, in world
	// space.
	TextBox *state.Rect

	g gesture
}

// gesture holds what pointer-down captured for the rest of the gesture.
type gesture struct {
	anchor    state.Point // screen
	start     state.Point // world
	originals []state.Element
	active    string
}

// NewState returns an idle state for author showing doc.
func NewState(author string, doc state.Document) State {
	if doc == nil {
		doc = state.Document{}
	}
	return State{
		Doc:        doc,
		View:       view.New(),
		Tool:       ToolPen,
		Shape:      ShapeRectangle,
		Style:      DefaultStyle,
		Permission: session.PermNone,
		Author:     author,
	}
}

func (s State) Selected(id string) bool {
	return slices.Contains(s.Selection, id)
}

// SelectionBoxes returns the world-space outlines drawn around selected
// elements.
func (s State) SelectionBoxes() []state.Rect {
	var boxes []state.Rect
	for _, id := range s.Selection {
		e, ok := s.Doc.Find(id)
		if !ok {
			continue
		}
		if b, ok := state.Bounds(e); ok {
			boxes = append(boxes, b.Inset(selectionOutline))
		}
	}
	return boxes
}

const selectionOutline = 5

// clone detaches the slices a caller may hold on to.
func (s State) clone() State {
	s.Selection = slices.Clone(s.Selection)
	if s.Marquee != nil {
		m := *s.Marquee
		s.Marquee = &m
	}
	if s.TextBox != nil {
		b := *s.TextBox
		s.TextBox = &b
	}
	return s
}
