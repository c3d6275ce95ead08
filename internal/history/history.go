// Package history keeps the linear undo/redo stack of document snapshots.
package history

import (
	"slices"

	"GridSpace/internal/state"
)

// Publisher receives every snapshot that becomes current. Publish must not
// block.
type Publisher interface {
	Publish(doc state.Document)
}

// Manager is a linear history. Committing after an undo discards the redo
// entries. It is not safe for concurrent use; the owning machine serializes
// access.
type Manager struct {
	entries []state.Document
	index   int
	pub     Publisher
}

// New returns a history holding a single empty document.
func New(pub Publisher) *Manager {
	return &Manager{entries: []state.Document{{}}, pub: pub}
}

// Commit truncates the redo tail, appends doc and publishes it.
func (m *Manager) Commit(doc state.Document) {
	m.entries = append(slices.Clip(m.entries[:m.index+1]), doc)
	m.index = len(m.entries) - 1
	m.publish()
}

// Undo steps back one entry and republishes it. ok is false at the start of
// history.
func (m *Manager) Undo() (doc state.Document, ok bool) {
	if m.index == 0 {
		return m.entries[0], false
	}
	m.index--
	m.publish()
	return m.entries[m.index], true
}

// Redo steps forward one entry and republishes it. ok is false at the end of
// history.
func (m *Manager) Redo() (doc state.Document, ok bool) {
	if m.index == len(m.entries)-1 {
		return m.entries[m.index], false
	}
	m.index++
	m.publish()
	return m.entries[m.index], true
}

// Reset discards all entries and starts over from doc. Nothing is published.
func (m *Manager) Reset(doc state.Document) {
	m.entries = []state.Document{doc}
	m.index = 0
}

func (m *Manager) Current() state.Document { return m.entries[m.index] }
func (m *Manager) Index() int              { return m.index }
func (m *Manager) Len() int                { return len(m.entries) }
func (m *Manager) CanUndo() bool           { return m.index > 0 }
func (m *Manager) CanRedo() bool           { return m.index < len(m.entries)-1 }

// Entries returns a copy of the stack.
func (m *Manager) Entries() []state.Document {
	return slices.Clone(m.entries)
}

func (m *Manager) publish() {
	if m.pub != nil {
		m.pub.Publish(m.entries[m.index])
	}
}
