package interact

import (
	"strings"

	"GridSpace/internal/session"
	"GridSpace/internal/state"
	"GridSpace/internal/view"
)

// Apply is the transition function. It never mutates s; documents in the
// result are fresh values so snapshots taken earlier stay valid.
func Apply(s State, ev Event) (State, Effect) {
	s = s.clone()
	switch ev.Kind {
	case KeyDown:
		if ev.Key == KeySpace {
			s.PanModifier = true
		}
		return s, None
	case KeyUp:
		if ev.Key == KeySpace {
			s.PanModifier = false
		}
		return s, None
	case Wheel:
		dir := view.ZoomIn
		if ev.DeltaY > 0 {
			dir = view.ZoomOut
		}
		s.View.Zoom(ev.Screen, dir)
		return s, None
	case PointerDown:
		return pointerDown(s, ev.Screen)
	case PointerMove:
		return pointerMove(s, ev.Screen), None
	case PointerUp, PointerCancel:
		return pointerUp(s)
	case TextCommit:
		return commitText(s, ev.Text)
	}
	return s, None
}

func pointerDown(s State, screen state.Point) (State, Effect) {
	if s.Permission != session.PermDraw || s.Mode != Idle {
		return s, None
	}
	world := s.View.ScreenToWorld(screen)

	if s.PanModifier {
		s.Mode = Panning
		s.g = gesture{anchor: screen}
		return s, None
	}

	switch s.Tool {
	case ToolSelect:
		hit, ok := s.Doc.HitTest(world)
		if !ok {
			s.Mode = Selecting
			s.Selection = nil
			s.g = gesture{anchor: screen, start: world}
			return s, None
		}
		if !s.Selected(hit.ElementID()) {
			s.Selection = []string{hit.ElementID()}
		}
		originals := make([]state.Element, 0, len(s.Selection))
		for _, id := range s.Selection {
			if e, ok := s.Doc.Find(id); ok {
				originals = append(originals, e)
			}
		}
		s.Mode = Moving
		s.g = gesture{anchor: screen, start: world, originals: originals}
		return s, None

	case ToolEraser:
		hit, ok := s.Doc.HitTest(world)
		if !ok {
			return s, None
		}
		s.Doc = s.Doc.Remove(hit.ElementID())
		s.Selection = s.Doc.Retain(s.Selection)
		return s, Commit

	default:
		e, ok := NewElement(state.NewID(s.Author), s.Tool, s.Shape, s.Style, world)
		if !ok {
			return s, None
		}
		s.Doc = s.Doc.Append(e)
		s.Selection = []string{e.ElementID()}
		s.Mode = Drawing
		s.g = gesture{anchor: screen, start: world, active: e.ElementID()}
		return s, None
	}
}

func pointerMove(s State, screen state.Point) State {
	if s.Mode == Idle || s.Mode == Writing || s.Permission != session.PermDraw {
		return s
	}
	world := s.View.ScreenToWorld(screen)

	switch s.Mode {
	case Panning:
		s.View.Pan(screen.X-s.g.anchor.X, screen.Y-s.g.anchor.Y)
		s.g.anchor = screen
	case Selecting:
		r := state.RectFromPoints(s.g.anchor, screen)
		s.Marquee = &r
	case Drawing:
		if e, ok := s.Doc.Find(s.g.active); ok {
			s.Doc = s.Doc.Replace(extend(e, world))
		}
	case Moving:
		dx, dy := world.X-s.g.start.X, world.Y-s.g.start.Y
		for _, orig := range s.g.originals {
			s.Doc = s.Doc.Replace(orig.Translate(dx, dy))
		}
	}
	return s
}

func pointerUp(s State) (State, Effect) {
	mode := s.Mode
	effect := None

	switch mode {
	case Selecting:
		if s.Marquee != nil {
			s.Selection = s.Doc.Intersecting(s.View.RectToWorld(*s.Marquee))
		}
		s.Marquee = nil
	case Drawing:
		e, ok := s.Doc.Find(s.g.active)
		if ok && e.Kind() == state.KindText {
			b, _ := state.Bounds(e)
			s.TextBox = &b
			s.Mode = Writing
			return s, None
		}
		effect = Commit
	case Moving:
		effect = Commit
	case Writing:
		return s, None
	}

	if mode != Idle {
		s.Mode = Idle
		s.g = gesture{}
	}
	return s, effect
}

func commitText(s State, text string) (State, Effect) {
	if s.Mode != Writing {
		return s, None
	}
	id := s.g.active
	s.Mode = Idle
	s.g = gesture{}
	s.TextBox = nil
	s.Selection = nil

	e, ok := s.Doc.Find(id)
	if !ok {
		return s, None
	}
	t, ok := e.(state.Text)
	if !ok {
		return s, None
	}
	if strings.TrimSpace(text) == "" {
		s.Doc = s.Doc.Remove(id)
		return s, Commit
	}
	t.Text = text
	s.Doc = s.Doc.Replace(t)
	return s, Commit
}

// rebase moves s onto doc, a document written by someone else. Elements an
// unfinished gesture is working on are carried over so the gesture can
// still complete; a moved element that doc deleted is dropped from the move.
func rebase(s State, doc state.Document) State {
	s = s.clone()
	switch s.Mode {
	case Drawing, Writing:
		if e, ok := s.Doc.Find(s.g.active); ok {
			if doc.Has(e.ElementID()) {
				doc = doc.Replace(e)
			} else {
				doc = doc.Append(e)
			}
		}
	case Moving:
		kept := make([]state.Element, 0, len(s.g.originals))
		for _, orig := range s.g.originals {
			if !doc.Has(orig.ElementID()) {
				continue
			}
			if e, ok := s.Doc.Find(orig.ElementID()); ok {
				doc = doc.Replace(e)
			}
			kept = append(kept, orig)
		}
		s.g.originals = kept
	}
	s.Doc = doc
	s.Selection = doc.Retain(s.Selection)
	return s
}
