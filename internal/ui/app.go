package ui

import (
	"context"
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"GridSpace/internal/board"
	"GridSpace/internal/session"
)

// Options configures the board window.
type Options struct {
	Title     string
	ShareLink string
	Client    *board.Client
	Directory session.Directory
	Logger    *slog.Logger
}

// RunApp shows the board window and blocks until it is closed or ctx is
// done.
func RunApp(ctx context.Context, opts Options) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "ui")
	client := opts.Client
	m := client.Machine

	myApp := app.NewWithID("app.gridspace")
	myWindow := myApp.NewWindow(opts.Title)
	myWindow.Resize(fyne.NewSize(1280, 800))
	stop := context.AfterFunc(ctx, func() { fyne.Do(myApp.Quit) })
	defer stop()

	// Create the interactive board widget
	b := NewBoardWidget(m)
	bar := newToolbar(b, func() { showExport(myWindow, m, log) })

	m.OnChange(func() {
		fyne.Do(func() {
			b.Sync()
			bar.sync(m)
		})
	})

	status := widget.NewLabel("")
	panel := newParticipantsPanel(myWindow, opts.Directory, client.UserID(), client.Code(), log)
	showRecord := func(rec session.Record) {
		status.SetText(statusText(rec, client.UserID()))
		panel.show(rec)
		bar.sync(m)
	}
	showRecord(client.Record())
	client.OnRecord(func(rec session.Record) {
		fyne.Do(func() { showRecord(rec) })
	})

	footer := container.NewHBox(status)
	if opts.ShareLink != "" {
		link := widget.NewEntry()
		link.SetText(opts.ShareLink)
		link.Disable()
		copyLink := widget.NewButton("Copy link", func() {
			myWindow.Clipboard().SetContent(opts.ShareLink)
			status.SetText("Link copied")
		})
		footer = container.NewBorder(nil, nil, status, copyLink, link)
	}

	undo := &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault}
	redo := &desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault}
	myWindow.Canvas().AddShortcut(undo, func(fyne.Shortcut) { m.Undo() })
	myWindow.Canvas().AddShortcut(redo, func(fyne.Shortcut) { m.Redo() })

	side := container.NewVScroll(panel.box)
	side.SetMinSize(fyne.NewSize(220, 0))

	// Set up the main layout
	content := container.NewBorder(bar.object, footer, nil, side, b.Content())

	myWindow.SetContent(content)
	myWindow.Canvas().Focus(b)
	myWindow.ShowAndRun()
}

func statusText(rec session.Record, user string) string {
	switch perm := rec.PermissionOf(user); perm {
	case session.PermPending:
		return "Waiting for the host to let you in"
	case session.PermNone:
		return "You are not a participant of this session"
	case session.PermWatch:
		return fmt.Sprintf("Session %s: view only", rec.ShortCode)
	default:
		return fmt.Sprintf("Session %s: %d participants", rec.ShortCode, len(rec.Participants))
	}
}
