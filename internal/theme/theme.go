// Package theme holds the colors used to render differences
package theme

import (
	"github.com/gdamore/tcell/v2"
)

// Colors holds all the color definitions for the theme
type Colors struct {
	Text     tcell.Color
	Inserted tcell.Color
	Deleted  tcell.Color
	Moved    tcell.Color
	Updated  tcell.Color
	Header   tcell.Color
	Detail   tcell.Color
	Summary  tcell.Color

	// Viewer chrome
	Border     tcell.Color
	Status     tcell.Color
	Background tcell.Color
}

// Theme represents a complete color theme
type Theme struct {
	Name   string
	Colors Colors
}

// Default returns a default theme using terminal defaults
func Default() *Theme {
	return &Theme{
		Name: "default",
		Colors: Colors{
			Text:       tcell.ColorDefault,
			Inserted:   tcell.ColorGreen,
			Deleted:    tcell.ColorRed,
			Moved:      tcell.ColorTeal,
			Updated:    tcell.ColorOlive,
			Header:     tcell.ColorDefault,
			Detail:     tcell.ColorGray,
			Summary:    tcell.ColorDefault,
			Border:     tcell.ColorDefault,
			Status:     tcell.ColorDefault,
			Background: tcell.ColorDefault,
		},
	}
}

// TokyoNight returns the Tokyo Night theme
func TokyoNight() *Theme {
	return &Theme{
		Name: "tokyo-night",
		Colors: Colors{
			Text:       HexToColor("#c0caf5"), // Light gray-blue
			Inserted:   HexToColor("#9ece6a"), // Green
			Deleted:    HexToColor("#f7768e"), // Red
			Moved:      HexToColor("#7dcfff"), // Cyan
			Updated:    HexToColor("#e0af68"), // Yellow
			Header:     HexToColor("#bb9af7"), // Magenta
			Detail:     HexToColor("#565f89"), // Comment gray
			Summary:    HexToColor("#7aa2f7"), // Blue
			Border:     HexToColor("#7dcfff"),
			Status:     HexToColor("#bb9af7"),
			Background: HexToColor("#1a1b26"),
		},
	}
}

// fields maps the TOML color names to the theme's fields
func (c *Colors) fields() map[string]*tcell.Color {
	return map[string]*tcell.Color{
		"text":       &c.Text,
		"inserted":   &c.Inserted,
		"deleted":    &c.Deleted,
		"moved":      &c.Moved,
		"updated":    &c.Updated,
		"header":     &c.Header,
		"detail":     &c.Detail,
		"summary":    &c.Summary,
		"border":     &c.Border,
		"status":     &c.Status,
		"background": &c.Background,
	}
}

// Override replaces the named colors. Unknown names and unparsable values
// are returned so the caller can report them.
func (t *Theme) Override(colors map[string]string) []string {
	var rejected []string
	fields := t.Colors.fields()
	for name, value := range colors {
		field, ok := fields[name]
		if !ok {
			rejected = append(rejected, name)
			continue
		}
		c, ok := ParseColor(value)
		if !ok {
			rejected = append(rejected, name)
			continue
		}
		*field = c
	}
	return rejected
}
