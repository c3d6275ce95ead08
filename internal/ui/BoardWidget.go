package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"GridSpace/internal/interact"
	"GridSpace/internal/state"
)

// BoardWidget paints the machine's document and turns mouse and keyboard
// input into interaction events.
type BoardWidget struct {
	widget.BaseWidget
	machine  *interact.Machine
	showGrid bool
	pressed  bool

	entry   *textEntry
	overlay *fyne.Container
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.Focusable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Keyable = (*BoardWidget)(nil)

func NewBoardWidget(m *interact.Machine) *BoardWidget {
	b := &BoardWidget{machine: m, showGrid: true}
	b.entry = newTextEntry(func(text string) {
		b.machine.Handle(interact.Event{Kind: interact.TextCommit, Text: text})
	})
	b.entry.Hide()
	b.overlay = container.NewWithoutLayout(b.entry)
	b.ExtendBaseWidget(b)
	return b
}

// Content returns the board stacked under its text entry overlay.
func (b *BoardWidget) Content() fyne.CanvasObject {
	return container.NewStack(b, b.overlay)
}

// Sync re-reads the machine state. It must run on the fyne goroutine.
func (b *BoardWidget) Sync() {
	s := b.machine.Snapshot()
	if s.Mode == interact.Writing && s.TextBox != nil {
		r := s.View.RectToScreen(*s.TextBox)
		b.entry.Move(fyne.NewPos(float32(r.X), float32(r.Y)))
		b.entry.Resize(fyne.NewSize(float32(max(r.Width, 120)), float32(max(r.Height, 40))))
		if !b.entry.Visible() {
			b.entry.SetText("")
			b.entry.Show()
			if c := fyne.CurrentApp().Driver().CanvasForObject(b); c != nil {
				c.Focus(b.entry)
			}
		}
	} else if b.entry.Visible() {
		b.entry.Hide()
	}
	b.Refresh()
}

func (b *BoardWidget) ToggleGrid() {
	b.showGrid = !b.showGrid
	b.Refresh()
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	if c := fyne.CurrentApp().Driver().CanvasForObject(b); c != nil {
		c.Focus(b)
	}
	b.pressed = true
	b.machine.Handle(interact.Event{Kind: interact.PointerDown, Screen: toPoint(e.Position)})
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	if !b.pressed {
		return
	}
	b.machine.Handle(interact.Event{Kind: interact.PointerMove, Screen: toPoint(e.Position)})
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary || !b.pressed {
		return
	}
	b.pressed = false
	b.machine.Handle(interact.Event{Kind: interact.PointerUp, Screen: toPoint(e.Position)})
}

func (b *BoardWidget) DragEnd() {}

func (b *BoardWidget) Scrolled(e *fyne.ScrollEvent) {
	b.machine.Handle(interact.Event{Kind: interact.Wheel, Screen: toPoint(e.Position), DeltaY: -float64(e.Scrolled.DY)})
}

func (b *BoardWidget) KeyDown(e *fyne.KeyEvent) {
	if e.Name == fyne.KeySpace {
		b.machine.Handle(interact.Event{Kind: interact.KeyDown, Key: interact.KeySpace})
	}
}

func (b *BoardWidget) KeyUp(e *fyne.KeyEvent) {
	if e.Name == fyne.KeySpace {
		b.machine.Handle(interact.Event{Kind: interact.KeyUp, Key: interact.KeySpace})
	}
}

func (b *BoardWidget) FocusGained() {}

// FocusLost finishes any gesture in progress and drops the pan modifier,
// whose key release we will not see.
func (b *BoardWidget) FocusLost() {
	if b.pressed {
		b.pressed = false
		b.machine.Handle(interact.Event{Kind: interact.PointerCancel})
	}
	b.machine.Handle(interact.Event{Kind: interact.KeyUp, Key: interact.KeySpace})
}

func (b *BoardWidget) TypedRune(rune) {}
func (b *BoardWidget) TypedKey(*fyne.KeyEvent) {}
func (b *BoardWidget) MouseIn(*desktop.MouseEvent) {}
func (b *BoardWidget) MouseOut() {}
func (b *BoardWidget) MouseMoved(*desktop.MouseEvent) {}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return &boardWidgetRenderer{board: b}
}

type boardWidgetRenderer struct {
	board   *BoardWidget
	size    fyne.Size
	objects []fyne.CanvasObject
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *boardWidgetRenderer) Refresh() {
	r.objects = scene(r.board.machine.Snapshot(), r.size, r.board.showGrid)
	canvas.Refresh(r.board)
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.size = size
	r.Refresh()
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *boardWidgetRenderer) Destroy() {}

// textEntry is the text box opened by the text tool. Losing focus commits.
type textEntry struct {
	widget.Entry
	onCommit func(string)
}

func newTextEntry(onCommit func(string)) *textEntry {
	e := &textEntry{onCommit: onCommit}
	e.MultiLine = true
	e.Wrapping = fyne.TextWrapWord
	e.ExtendBaseWidget(e)
	return e
}

func (e *textEntry) FocusLost() {
	e.Entry.FocusLost()
	if e.Visible() && e.onCommit != nil {
		e.onCommit(e.Text)
	}
}

// TypedKey commits on Escape as well.
func (e *textEntry) TypedKey(k *fyne.KeyEvent) {
	if k.Name == fyne.KeyEscape {
		if c := fyne.CurrentApp().Driver().CanvasForObject(e); c != nil {
			c.Unfocus()
		}
		return
	}
	e.Entry.TypedKey(k)
}

// screenCenter is the zoom anchor for the toolbar buttons.
func screenCenter(b *BoardWidget) state.Point {
	size := b.Size()
	return state.Point{X: float64(size.Width) / 2, Y: float64(size.Height) / 2}
}
