package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"GridSpace/internal/interact"
	"GridSpace/internal/view"
)

var toolLabels = map[interact.Tool]string{
	interact.ToolSelect: "Select",
	interact.ToolPen:    "Pen",
	interact.ToolLine:   "Line",
	interact.ToolShape:  "Shape",
	interact.ToolText:   "Text",
	interact.ToolEraser: "Eraser",
}

var shapeLabels = map[string]interact.Shape{
	"Rectangle": interact.ShapeRectangle,
	"Circle":    interact.ShapeCircle,
}

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Color    color.Color
	OnTapped func(color.Color)
}

func newColorSwatch(c color.Color, tapped func(color.Color)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// toolbar holds the controls whose state follows the machine.
type toolbar struct {
	object fyne.CanvasObject
	tools  *widget.RadioGroup
	shape  *widget.Select
	undo   *widget.Button
	redo   *widget.Button
	clear  *widget.Button
}

// sync enables undo/redo/clear for the current state.
func (t *toolbar) sync(m *interact.Machine) {
	enable(t.undo, m.CanUndo())
	enable(t.redo, m.CanRedo())
	enable(t.clear, m.IsHost())
	s := m.Snapshot()
	if label := toolLabels[s.Tool]; t.tools.Selected != label {
		t.tools.SetSelected(label)
	}
}

func enable(b *widget.Button, on bool) {
	if on {
		b.Enable()
	} else {
		b.Disable()
	}
}

// --- The Main Toolbar ---
func newToolbar(board *BoardWidget, onExport func()) *toolbar {
	m := board.machine
	t := &toolbar{}

	labels := make([]string, 0, len(interact.Tools))
	byLabel := make(map[string]interact.Tool, len(interact.Tools))
	for _, tool := range interact.Tools {
		labels = append(labels, toolLabels[tool])
		byLabel[toolLabels[tool]] = tool
	}
	t.tools = widget.NewRadioGroup(labels, func(label string) {
		if tool, ok := byLabel[label]; ok {
			m.SetTool(tool)
		}
	})
	t.tools.Horizontal = true
	t.tools.Required = true
	t.tools.SetSelected(toolLabels[m.Snapshot().Tool])

	t.shape = widget.NewSelect([]string{"Rectangle", "Circle"}, func(label string) {
		m.SetShape(shapeLabels[label])
	})
	t.shape.SetSelected("Rectangle")

	// --- Color Palette ---
	onColorTapped := func(c color.Color) {
		style := m.Snapshot().Style
		style.Color = toHex(c)
		m.SetStyle(style)
	}
	colorBox := container.NewHBox()
	for _, hex := range interact.QuickColors {
		colorBox.Add(newColorSwatch(toColor(hex), onColorTapped))
	}
	colorBox.Add(newColorSwatch(color.Black, onColorTapped))

	// --- Stroke Width Slider ---
	strokeSlider := widget.NewSlider(1.0, 50.0)
	strokeSlider.SetValue(interact.DefaultStyle.LineWidth)
	strokeSlider.OnChanged = func(val float64) {
		style := m.Snapshot().Style
		style.LineWidth = val
		m.SetStyle(style)
	}
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), strokeSlider)

	t.undo = widget.NewButtonWithIcon("", theme.ContentUndoIcon(), m.Undo)
	t.redo = widget.NewButtonWithIcon("", theme.ContentRedoIcon(), m.Redo)
	t.clear = widget.NewButtonWithIcon("", theme.DeleteIcon(), func() { m.Clear() })

	viewBar := widget.NewToolbar(
		widget.NewToolbarAction(theme.ZoomInIcon(), func() { m.Zoom(screenCenter(board), view.ZoomIn) }),
		widget.NewToolbarAction(theme.ZoomOutIcon(), func() { m.Zoom(screenCenter(board), view.ZoomOut) }),
		widget.NewToolbarAction(theme.ZoomFitIcon(), m.ResetView),
		widget.NewToolbarAction(theme.GridIcon(), board.ToggleGrid),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), onExport),
	)

	t.object = container.NewHBox(
		t.tools,
		t.shape,
		widget.NewSeparator(),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		widget.NewSeparator(),
		t.undo,
		t.redo,
		t.clear,
		layout.NewSpacer(),
		viewBar,
	)
	t.sync(m)
	return t
}
