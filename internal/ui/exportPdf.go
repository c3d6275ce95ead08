package ui

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"GridSpace/internal/export"
	"GridSpace/internal/interact"
)

// showExport asks for a destination and writes the current board as PDF,
// or PNG when the chosen name ends in .png.
func showExport(w fyne.Window, m *interact.Machine, log *slog.Logger) {
	save := dialog.NewFileSave(func(out fyne.URIWriteCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		if out == nil {
			return
		}
		defer out.Close()

		doc := m.Snapshot().Doc
		render := export.ForPath(out.URI().Name())
		if err := render(out, doc); err != nil {
			log.Error("export failed", "path", out.URI().Path(), "err", err)
			dialog.ShowError(fmt.Errorf("export: %w", err), w)
			return
		}
		log.Info("exported board", "path", out.URI().Path(), "elements", len(doc))
	}, w)
	save.SetFileName("board.pdf")
	save.SetFilter(storage.NewExtensionFileFilter([]string{".pdf", ".png"}))
	save.Show()
}
