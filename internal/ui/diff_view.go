package ui

import (
	"fmt"
	"path/filepath"

	"github.com/gdamore/tcell/v2"

	"github.com/pstuifzand/outline-diff/internal/diff"
)

// chrome is the number of rows taken by the frame, title and footer
const chrome = 4

// DiffViewWidget displays a formatted diff between two outlines
type DiffViewWidget struct {
	visible      bool
	lines        []diff.DiffLine
	scrollOffset int
	maxHeight    int

	oldName string
	newName string
}

// NewDiffViewWidget creates a new diff view widget
func NewDiffViewWidget() *DiffViewWidget {
	return &DiffViewWidget{
		lines: make([]diff.DiffLine, 0),
	}
}

// Show displays lines computed between the files oldPath and newPath
func (dv *DiffViewWidget) Show(lines []diff.DiffLine, oldPath, newPath string) {
	dv.lines = lines
	dv.oldName = filepath.Base(oldPath)
	dv.newName = filepath.Base(newPath)
	dv.scrollOffset = 0
	dv.visible = true
}

// Hide closes the diff view
func (dv *DiffViewWidget) Hide() {
	dv.visible = false
}

// IsVisible returns whether the widget is currently visible
func (dv *DiffViewWidget) IsVisible() bool {
	return dv.visible
}

// ScrollOffset returns the index of the first visible line
func (dv *DiffViewWidget) ScrollOffset() int {
	return dv.scrollOffset
}

// HandleKeyEvent processes keyboard input
func (dv *DiffViewWidget) HandleKeyEvent(ev *tcell.EventKey) {
	if !dv.visible {
		return
	}

	page := max(dv.maxHeight/2, 1)
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		dv.Hide()
	case tcell.KeyUp, tcell.KeyCtrlK:
		dv.scroll(-1)
	case tcell.KeyDown, tcell.KeyCtrlJ:
		dv.scroll(1)
	case tcell.KeyPgUp, tcell.KeyCtrlU:
		dv.scroll(-page)
	case tcell.KeyPgDn, tcell.KeyCtrlD:
		dv.scroll(page)
	case tcell.KeyHome:
		dv.scrollOffset = 0
	case tcell.KeyEnd:
		dv.scrollOffset = dv.maxScroll()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			dv.Hide()
		case 'j':
			dv.scroll(1)
		case 'k':
			dv.scroll(-1)
		case 'g':
			dv.scrollOffset = 0
		case 'G':
			dv.scrollOffset = dv.maxScroll()
		case 'n':
			dv.jumpHeader(1)
		case 'p':
			dv.jumpHeader(-1)
		}
	}
}

func (dv *DiffViewWidget) maxScroll() int {
	return max(len(dv.lines)-dv.maxHeight+chrome, 0)
}

// scroll moves the view up or down
func (dv *DiffViewWidget) scroll(lines int) {
	dv.scrollOffset = min(max(dv.scrollOffset+lines, 0), dv.maxScroll())
}

// jumpHeader scrolls to the next or previous header line
func (dv *DiffViewWidget) jumpHeader(dir int) {
	for i := dv.scrollOffset + dir; i >= 0 && i < len(dv.lines); i += dir {
		if dv.lines[i].Type == diff.DiffTypeHeader {
			dv.scrollOffset = min(i, dv.maxScroll())
			return
		}
	}
}

// Render draws the diff view on the screen
func (dv *DiffViewWidget) Render(screen *Screen) {
	if !dv.visible {
		return
	}

	width, height := screen.Size()
	dv.maxHeight = height

	boxWidth := width - 2
	boxHeight := height - 2
	startX, startY := 1, 1
	if boxWidth < 20 || boxHeight < 5 {
		return
	}

	drawBox(screen, startX, startY, boxWidth, boxHeight, screen.BorderStyle())

	title := fmt.Sprintf(" Diff: %s → %s ", dv.oldName, dv.newName)
	screen.DrawStringLimited(startX+2, startY, title, boxWidth-4, screen.StatusStyle())

	dv.renderContent(screen, startX+1, startY+1, boxWidth-2, boxHeight-2)

	footer := " j/k: scroll | n/p: next/prev block | Ctrl+U/D: page | q: quit "
	screen.DrawStringLimited(startX+2, startY+boxHeight-1, footer, boxWidth-4, screen.StatusStyle())
}

// renderContent draws the diff lines in the content area
func (dv *DiffViewWidget) renderContent(screen *Screen, x, y, width, height int) {
	end := min(dv.scrollOffset+height, len(dv.lines))
	for i := dv.scrollOffset; i < end; i++ {
		line := dv.lines[i]
		screen.DrawString(x, y+i-dv.scrollOffset,
			TruncateToWidthWithEllipsis(line.String(), width-1), screen.LineStyle(line.Type))
	}

	if len(dv.lines) > height {
		scrollbarY := y + dv.scrollOffset*height/len(dv.lines)
		screen.SetCell(x+width-1, scrollbarY, '█', screen.StatusStyle())
	}
}

// drawBox draws a simple box border
func drawBox(screen *Screen, x, y, width, height int, style tcell.Style) {
	screen.SetCell(x, y, '┌', style)
	screen.SetCell(x+width-1, y, '┐', style)
	screen.SetCell(x, y+height-1, '└', style)
	screen.SetCell(x+width-1, y+height-1, '┘', style)
	for i := 1; i < width-1; i++ {
		screen.SetCell(x+i, y, '─', style)
		screen.SetCell(x+i, y+height-1, '─', style)
	}
	for i := 1; i < height-1; i++ {
		screen.SetCell(x, y+i, '│', style)
		screen.SetCell(x+width-1, y+i, '│', style)
	}
}
