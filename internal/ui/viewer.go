package ui

import (
	"github.com/gdamore/tcell/v2"
)

// Run draws view and handles input until the view is closed
func Run(screen *Screen, view *DiffViewWidget) error {
	for view.IsVisible() {
		screen.Clear()
		view.Render(screen)
		screen.Show()

		switch ev := screen.PollEvent().(type) {
		case nil:
			// screen finalized
			return nil
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			view.HandleKeyEvent(ev)
		}
	}
	return nil
}
