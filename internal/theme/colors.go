package theme

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// HexToColor converts a hex color string (#RRGGBB or #RGB) to tcell.Color
func HexToColor(hexColor string) tcell.Color {
	c, ok := parseHex(hexColor)
	if !ok {
		return tcell.ColorDefault
	}
	return toTcell(c)
}

func parseHex(hexColor string) (colorful.Color, bool) {
	hexColor = strings.TrimPrefix(strings.TrimSpace(hexColor), "#")
	if len(hexColor) == 3 {
		hexColor = string(hexColor[0]) + string(hexColor[0]) +
			string(hexColor[1]) + string(hexColor[1]) +
			string(hexColor[2]) + string(hexColor[2])
	}
	if len(hexColor) != 6 {
		return colorful.Color{}, false
	}
	c, err := colorful.Hex("#" + hexColor)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

func toTcell(c colorful.Color) tcell.Color {
	r, g, b := c.RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// ParseColor handles #RRGGBB, #RGB, rgb(r,g,b), "default" and the color
// names tcell knows
func ParseColor(colorStr string) (tcell.Color, bool) {
	colorStr = strings.ToLower(strings.TrimSpace(colorStr))

	switch {
	case colorStr == "default":
		return tcell.ColorDefault, true
	case strings.HasPrefix(colorStr, "#"):
		c, ok := parseHex(colorStr)
		if !ok {
			return tcell.ColorDefault, false
		}
		return toTcell(c), true
	case strings.HasPrefix(colorStr, "rgb(") && strings.HasSuffix(colorStr, ")"):
		parts := strings.Split(colorStr[len("rgb("):len(colorStr)-1], ",")
		if len(parts) != 3 {
			return tcell.ColorDefault, false
		}
		var rgb [3]int
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil || n < 0 || n > 255 {
				return tcell.ColorDefault, false
			}
			rgb[i] = n
		}
		return tcell.NewRGBColor(int32(rgb[0]), int32(rgb[1]), int32(rgb[2])), true
	}

	if c, ok := tcell.ColorNames[colorStr]; ok {
		return c, true
	}
	return tcell.ColorDefault, false
}

// ANSI returns the 24-bit escape sequence that sets c as foreground color,
// or an empty string for the terminal default
func ANSI(c tcell.Color) string {
	if c == tcell.ColorDefault {
		return ""
	}
	r, g, b := c.RGB()
	if r < 0 {
		return ""
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm", r, g, b)
}

// ANSIReset ends a colored span started with ANSI
const ANSIReset = "\x1b[0m"

// ColorPairToStyle creates a style with specific foreground and background colors
func ColorPairToStyle(fgColor, bgColor tcell.Color) tcell.Style {
	return tcell.StyleDefault.Foreground(fgColor).Background(bgColor)
}
