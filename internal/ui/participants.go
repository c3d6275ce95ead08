package ui

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"GridSpace/internal/session"
)

const moderationTimeout = 5 * time.Second

// participantsPanel lists the people in a session. The host also gets
// controls to resolve requests and change permissions.
type participantsPanel struct {
	box    *fyne.Container
	window fyne.Window
	dir    session.Directory
	user   string
	code   string
	log    *slog.Logger
}

func newParticipantsPanel(w fyne.Window, dir session.Directory, user, code string, log *slog.Logger) *participantsPanel {
	return &participantsPanel{box: container.NewVBox(), window: w, dir: dir, user: user, code: code, log: log}
}

// show rebuilds the panel from rec. Call on the UI goroutine.
func (p *participantsPanel) show(rec session.Record) {
	host := rec.IsHost(p.user)
	p.box.RemoveAll()
	p.box.Add(widget.NewLabelWithStyle("Participants", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))

	for _, id := range sortedKeys(rec.Participants) {
		part := rec.Participants[id]
		name := part.Name
		if id == rec.HostID {
			name += " (host)"
		}
		if id == p.user {
			name += " (you)"
		}
		row := container.NewHBox(widget.NewLabel(name))
		if host && id != p.user {
			perm := widget.NewSelect([]string{string(session.PermDraw), string(session.PermWatch)}, nil)
			perm.SetSelected(string(part.Permission))
			perm.OnChanged = func(v string) {
				if session.Permission(v) == part.Permission {
					return
				}
				p.moderate(func(ctx context.Context) error {
					_, err := p.dir.SetPermission(ctx, p.user, p.code, id, session.Permission(v))
					return err
				})
			}
			remove := widget.NewButton("Remove", func() {
				p.moderate(func(ctx context.Context) error {
					return p.dir.Leave(ctx, p.code, id)
				})
			})
			row.Add(perm)
			row.Add(remove)
		} else {
			row.Add(widget.NewLabel(string(part.Permission)))
		}
		p.box.Add(row)
	}

	if !host || len(rec.PendingRequests) == 0 {
		p.box.Refresh()
		return
	}
	p.box.Add(widget.NewSeparator())
	p.box.Add(widget.NewLabelWithStyle("Requests", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
	for _, id := range sortedKeys(rec.PendingRequests) {
		p.box.Add(container.NewHBox(
			widget.NewLabel(rec.PendingRequests[id].Name),
			widget.NewButton("Approve", func() { p.resolve(id, true) }),
			widget.NewButton("Deny", func() { p.resolve(id, false) }),
		))
	}
	p.box.Refresh()
}

func (p *participantsPanel) resolve(id string, approve bool) {
	p.moderate(func(ctx context.Context) error {
		_, err := p.dir.Resolve(ctx, p.user, p.code, id, approve)
		return err
	})
}

// moderate runs op off the UI goroutine. The panel itself updates when the
// resulting record version arrives.
func (p *participantsPanel) moderate(op func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), moderationTimeout)
		defer cancel()
		if err := op(ctx); err != nil {
			p.log.Warn("moderation failed", "code", p.code, "err", err)
			fyne.Do(func() { dialog.ShowError(err, p.window) })
		}
	}()
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
