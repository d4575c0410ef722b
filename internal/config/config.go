// Package config loads the outline-diff TOML configuration
package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"github.com/pstuifzand/outline-diff/internal/sectiondiff"
)

// Session keys understood by the typed accessors
const (
	KeyMoveThreshold  = "move_threshold"
	KeyConflictPolicy = "conflict_policy"
	KeyVerbose        = "verbose"
	KeySummary        = "summary"
	KeyTimeFormat     = "time_format"
)

// Config holds application configuration
type Config struct {
	Theme    string            `toml:"theme"`
	Engine   EngineConfig      `toml:"engine"`
	Output   OutputConfig      `toml:"output"`
	Colors   map[string]string `toml:"colors,omitempty"`
	Settings map[string]string `toml:"settings,omitempty"`

	// Session settings (not persisted to TOML, overrides persisted settings)
	sessionSettings map[string]string
}

// EngineConfig tunes the differ
type EngineConfig struct {
	MoveThreshold  int    `toml:"move_threshold"`
	ConflictPolicy string `toml:"conflict_policy"`
}

// OutputConfig controls how differences are printed
type OutputConfig struct {
	Verbose    bool   `toml:"verbose"`
	Summary    bool   `toml:"summary"`
	TimeFormat string `toml:"time_format"`
}

// Load loads the config file from the standard location
func Load() (*Config, error) {
	configPath, err := Path()
	if err != nil {
		return Default(), nil
	}

	return LoadFromFile(configPath)
}

// LoadFromFile loads config from a specific file. A missing file yields the
// defaults.
func LoadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Theme == "" {
		config.Theme = "tokyo-night"
	}
	if config.Output.TimeFormat == "" {
		config.Output.TimeFormat = defaultTimeFormat
	}
	if config.Settings == nil {
		config.Settings = make(map[string]string)
	}
	if _, err := sectiondiff.ParseConflictPolicy(config.Engine.ConflictPolicy); err != nil {
		return nil, fmt.Errorf("invalid [engine] section: %w", err)
	}

	return config, nil
}

const defaultTimeFormat = "%Y-%m-%d %H:%M:%S"

// Path returns the path of the default config file
func Path() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.toml"), nil
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Theme: "tokyo-night",
		Engine: EngineConfig{
			MoveThreshold:  sectiondiff.DefaultMoveThreshold,
			ConflictPolicy: sectiondiff.ConflictRowDeleteInMovedSection.String(),
		},
		Output: OutputConfig{
			TimeFormat: defaultTimeFormat,
		},
		Settings:        make(map[string]string),
		sessionSettings: make(map[string]string),
	}
}

// GetConfigDir returns the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".config", "outline-diff"), nil
}

// Set sets a session configuration value
func (c *Config) Set(key, value string) {
	if c.sessionSettings == nil {
		c.sessionSettings = make(map[string]string)
	}
	c.sessionSettings[key] = value
}

// Get retrieves a configuration value, checking session settings first (which override persisted settings)
// Returns empty string if not found in either source
func (c *Config) Get(key string) string {
	if val, ok := c.sessionSettings[key]; ok {
		return val
	}
	if val, ok := c.Settings[key]; ok {
		return val
	}
	return ""
}

// GetAll returns all configuration values (both persisted and session)
// Session settings override persisted settings with the same key
func (c *Config) GetAll() map[string]string {
	result := make(map[string]string)
	maps.Copy(result, c.Settings)
	maps.Copy(result, c.sessionSettings)
	return result
}

// EngineOptions returns the differ options, with session overrides applied
func (c *Config) EngineOptions() (sectiondiff.Options, error) {
	opts := sectiondiff.DefaultOptions()
	opts.MoveThreshold = c.Engine.MoveThreshold
	if v := c.Get(KeyMoveThreshold); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("invalid %s %q: %w", KeyMoveThreshold, v, err)
		}
		opts.MoveThreshold = n
	}

	policy := c.Engine.ConflictPolicy
	if v := c.Get(KeyConflictPolicy); v != "" {
		policy = v
	}
	if policy != "" {
		p, err := sectiondiff.ParseConflictPolicy(policy)
		if err != nil {
			return opts, err
		}
		opts.Conflict = p
	}
	return opts, nil
}

// Verbose reports whether field-level details are printed
func (c *Config) Verbose() bool {
	return c.flag(KeyVerbose, c.Output.Verbose)
}

// Summary reports whether only the summary is printed
func (c *Config) Summary() bool {
	return c.flag(KeySummary, c.Output.Summary)
}

// TimeFormat returns the strftime layout for timestamps
func (c *Config) TimeFormat() string {
	if v := c.Get(KeyTimeFormat); v != "" {
		return v
	}
	if c.Output.TimeFormat == "" {
		return defaultTimeFormat
	}
	return c.Output.TimeFormat
}

func (c *Config) flag(key string, persisted bool) bool {
	v := c.Get(key)
	if v == "" {
		return persisted
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return persisted
	}
	return b
}

// SaveTo persists the configuration as TOML. Session settings are not saved.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
