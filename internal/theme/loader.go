package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ThemeConfig represents the raw TOML theme configuration
type ThemeConfig struct {
	Name   string            `toml:"name"`
	Colors map[string]string `toml:"colors"`
}

// getThemePaths returns the search paths for theme files
func getThemePaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, ".config", "outline-diff", "themes"),
		filepath.Join(home, ".local", "share", "outline-diff", "themes"),
	}
}

// findThemeFile searches for a theme file in the given directories
func findThemeFile(themeName string, dirs []string) (string, error) {
	filename := themeName + ".toml"

	for _, dir := range dirs {
		path := filepath.Join(dir, filename)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("theme file not found: %s", filename)
}

// LoadThemeFromFile loads a theme from a TOML file. Colors it does not set
// keep their Tokyo Night values.
func LoadThemeFromFile(filePath string) (*Theme, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read theme file: %w", err)
	}

	var config ThemeConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse theme file: %w", err)
	}

	t := TokyoNight()
	if config.Name != "" {
		t.Name = config.Name
	}
	if rejected := t.Override(config.Colors); len(rejected) > 0 {
		slices.Sort(rejected)
		return nil, fmt.Errorf("theme %s: invalid colors: %s", filePath, strings.Join(rejected, ", "))
	}
	return t, nil
}

// LoadTheme loads a theme by name, searching standard theme directories
func LoadTheme(themeName string) (*Theme, error) {
	switch themeName {
	case "default":
		return Default(), nil
	case "tokyo-night", "":
		return TokyoNight(), nil
	}

	filePath, err := findThemeFile(themeName, getThemePaths())
	if err != nil {
		return nil, err
	}
	return LoadThemeFromFile(filePath)
}
