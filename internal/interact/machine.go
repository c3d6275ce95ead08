package interact

import (
	"log/slog"
	"sync"

	"GridSpace/internal/history"
	"GridSpace/internal/session"
	"GridSpace/internal/state"
	"GridSpace/internal/view"
)

// Machine owns one client's interaction state and history. Local input and
// remote documents may arrive on different goroutines; Machine serializes
// them.
type Machine struct {
	mu   sync.Mutex
	st   State
	hist *history.Manager
	host bool
	log  *slog.Logger

	changed func()
}

// NewMachine starts from doc with a history holding only doc. Committed
// snapshots go to pub.
func NewMachine(author string, doc state.Document, pub history.Publisher, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	st := NewState(author, doc)
	hist := history.New(pub)
	hist.Reset(st.Doc)
	return &Machine{st: st, hist: hist, log: logger.With("component", "interact")}
}

// OnChange registers fn to be called after every state change. fn runs
// outside the machine lock and should re-read Snapshot.
func (m *Machine) OnChange(fn func()) {
	m.mu.Lock()
	m.changed = fn
	m.mu.Unlock()
}

// Handle feeds one input event through Apply.
func (m *Machine) Handle(ev Event) {
	m.update(func(s State) State {
		next, effect := Apply(s, ev)
		if effect == Commit {
			m.hist.Commit(next.Doc)
		}
		if next.Mode != s.Mode {
			m.log.Debug("mode", "from", s.Mode, "to", next.Mode)
		}
		return next
	})
}

// Undo steps back in history. It does nothing during a gesture.
func (m *Machine) Undo() {
	m.update(func(s State) State {
		if s.Mode != Idle {
			return s
		}
		if doc, ok := m.hist.Undo(); ok {
			s.Doc = doc
			s.Selection = doc.Retain(s.Selection)
		}
		return s
	})
}

// Redo steps forward in history. It does nothing during a gesture.
func (m *Machine) Redo() {
	m.update(func(s State) State {
		if s.Mode != Idle {
			return s
		}
		if doc, ok := m.hist.Redo(); ok {
			s.Doc = doc
			s.Selection = doc.Retain(s.Selection)
		}
		return s
	})
}

// Clear empties the board. Only the session host may clear; it reports
// whether anything happened.
func (m *Machine) Clear() bool {
	cleared := false
	m.update(func(s State) State {
		if !m.host || s.Mode != Idle {
			return s
		}
		s.Doc = state.Document{}
		s.Selection = nil
		m.hist.Commit(s.Doc)
		cleared = true
		return s
	})
	return cleared
}

// ApplyRemote installs a document received from the session store. A
// document equal to the board or to the last committed snapshot is our own
// echo and is ignored. Anything else replaces the local document, keeping
// whatever a gesture in progress is working on, and history restarts from
// it.
func (m *Machine) ApplyRemote(doc state.Document) {
	if doc == nil {
		doc = state.Document{}
	}
	m.update(func(s State) State {
		if doc.Equal(s.Doc) || doc.Equal(m.hist.Current()) {
			return s
		}
		m.hist.Reset(doc)
		m.log.Debug("remote document applied", "elements", len(doc), "mode", s.Mode)
		return rebase(s, doc)
	})
}

// SetAccess updates the local user's permission and host flag.
func (m *Machine) SetAccess(perm session.Permission, host bool) {
	m.update(func(s State) State {
		s.Permission = perm
		m.host = host
		return s
	})
}

func (m *Machine) SetTool(t Tool) {
	m.update(func(s State) State {
		if s.Mode != Idle {
			return s
		}
		s.Tool = t
		if t != ToolSelect {
			s.Selection = nil
		}
		return s
	})
}

func (m *Machine) SetShape(sh Shape) {
	m.update(func(s State) State {
		s.Shape = sh
		return s
	})
}

func (m *Machine) SetStyle(st Style) {
	m.update(func(s State) State {
		s.Style = st
		return s
	})
}

// Zoom rescales the view around a screen point.
func (m *Machine) Zoom(anchor state.Point, dir view.Direction) {
	m.update(func(s State) State {
		s.View.Zoom(anchor, dir)
		return s
	})
}

// ResetView returns to scale 1 with no pan.
func (m *Machine) ResetView() {
	m.update(func(s State) State {
		s.View = view.New()
		return s
	})
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.clone()
}

func (m *Machine) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hist.CanUndo()
}

func (m *Machine) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hist.CanRedo()
}

// IsHost reports whether the local user hosts the session.
func (m *Machine) IsHost() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.host
}

func (m *Machine) update(fn func(State) State) {
	m.mu.Lock()
	m.st = fn(m.st)
	changed := m.changed
	m.mu.Unlock()
	if changed != nil {
		changed()
	}
}
