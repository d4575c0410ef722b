// Package ui implements the interactive difference viewer
package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/pstuifzand/outline-diff/internal/diff"
	"github.com/pstuifzand/outline-diff/internal/theme"
)

// Screen manages the tcell screen and rendering
type Screen struct {
	tcellScreen tcell.Screen
	Theme       *theme.Theme
}

// NewScreen creates a terminal screen with the given theme
func NewScreen(t *theme.Theme) (*Screen, error) {
	tcellScreen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("failed to create screen: %w", err)
	}
	return NewScreenWithTcell(tcellScreen, t)
}

// NewScreenWithTcell initializes s and wraps it
func NewScreenWithTcell(s tcell.Screen, t *theme.Theme) (*Screen, error) {
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("failed to init screen: %w", err)
	}
	if t == nil {
		t = theme.Default()
	}
	return &Screen{
		tcellScreen: s,
		Theme:       t,
	}, nil
}

// Close closes the screen
func (s *Screen) Close() error {
	s.tcellScreen.Fini()
	return nil
}

// Clear fills the screen with the background style
func (s *Screen) Clear() {
	s.tcellScreen.SetStyle(s.NormalStyle())
	s.tcellScreen.Clear()
}

// SetCell sets a cell at the given position
func (s *Screen) SetCell(x, y int, r rune, style tcell.Style) {
	w, h := s.Size()
	if x >= 0 && x < w && y >= 0 && y < h {
		s.tcellScreen.SetContent(x, y, r, nil, style)
	}
}

// DrawString draws a string at the given position and returns the columns
// it used. Wide runes take two columns.
func (s *Screen) DrawString(x, y int, text string, style tcell.Style) int {
	col := 0
	for _, r := range text {
		w := RuneWidth(r)
		if w == 0 {
			continue
		}
		s.SetCell(x+col, y, r, style)
		col += w
	}
	return col
}

// DrawStringLimited draws a string, truncating it if it exceeds maxWidth
func (s *Screen) DrawStringLimited(x, y int, text string, maxWidth int, style tcell.Style) {
	if maxWidth <= 0 {
		return
	}
	s.DrawString(x, y, TruncateToWidth(text, maxWidth), style)
}

// PollEvent polls for the next event (key press, resize, ...)
func (s *Screen) PollEvent() tcell.Event {
	return s.tcellScreen.PollEvent()
}

// Show shows the screen
func (s *Screen) Show() {
	s.tcellScreen.Show()
}

// Sync redraws the whole terminal, used after resizes
func (s *Screen) Sync() {
	s.tcellScreen.Sync()
}

// Size returns the width and height of the screen
func (s *Screen) Size() (int, int) {
	return s.tcellScreen.Size()
}

// NormalStyle is used for plain text
func (s *Screen) NormalStyle() tcell.Style {
	return theme.ColorPairToStyle(s.Theme.Colors.Text, s.Theme.Colors.Background)
}

// BorderStyle is used for the frame
func (s *Screen) BorderStyle() tcell.Style {
	return theme.ColorPairToStyle(s.Theme.Colors.Border, s.Theme.Colors.Background)
}

// StatusStyle is used for the title and footer
func (s *Screen) StatusStyle() tcell.Style {
	return theme.ColorPairToStyle(s.Theme.Colors.Status, s.Theme.Colors.Background).Bold(true)
}

// LineStyle returns the style for a diff line type
func (s *Screen) LineStyle(t diff.DiffLineType) tcell.Style {
	fg, bold := LineColor(s.Theme.Colors, t)
	return theme.ColorPairToStyle(fg, s.Theme.Colors.Background).Bold(bold)
}

// LineColor returns the foreground color of a diff line type and whether it
// is drawn bold
func LineColor(c theme.Colors, t diff.DiffLineType) (tcell.Color, bool) {
	switch t {
	case diff.DiffTypeHeader:
		return c.Header, true
	case diff.DiffTypeInsertedSection, diff.DiffTypeInsertedItem:
		return c.Inserted, false
	case diff.DiffTypeDeletedSection, diff.DiffTypeDeletedItem:
		return c.Deleted, false
	case diff.DiffTypeMovedSection, diff.DiffTypeMovedItem:
		return c.Moved, false
	case diff.DiffTypeUpdatedSection, diff.DiffTypeUpdatedItem:
		return c.Updated, false
	case diff.DiffTypeItemDetail:
		return c.Detail, false
	case diff.DiffTypeSummary:
		return c.Summary, false
	}
	return c.Text, false
}
