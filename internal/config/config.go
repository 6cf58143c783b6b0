package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for plugpack.
type FileConfig struct {
	Source          *string  `yaml:"source,omitempty"`
	Output          *string  `yaml:"output,omitempty"`
	RootName        *string  `yaml:"root_name,omitempty"`
	Flat            *bool    `yaml:"flat,omitempty"`
	Exclude         []string `yaml:"exclude,omitempty"`
	Match           *string  `yaml:"match,omitempty"`
	DefaultExcludes *bool    `yaml:"default_excludes,omitempty"`
	IgnoreFile      *string  `yaml:"ignore_file,omitempty"`
	Level           *int     `yaml:"level,omitempty"`
	NoColor         *bool    `yaml:"no_color,omitempty"`
	History         *bool    `yaml:"history,omitempty"`

	// Option-row extraction defaults
	Options *OptionsConfig `yaml:"options,omitempty"`

	// Dir is the directory the file was loaded from. Relative paths in the
	// file are resolved against it.
	Dir string `yaml:"-"`
}

// OptionsConfig holds defaults for the options subcommand.
type OptionsConfig struct {
	// Table is the options table name used in generated INSERT statements.
	Table *string `yaml:"table,omitempty"`
	// Keywords filter option names (case-insensitive substrings).
	Keywords []string `yaml:"keywords,omitempty"`
	// Extract lists option names to re-emit as INSERT statements.
	Extract []string `yaml:"extract,omitempty"`
}

// DefaultOptionsTable is used when no table name is configured.
const DefaultOptionsTable = "wp_options"

// LocalNames are the repo-local config file names in search order.
var LocalNames = []string{".plugpack.yml", ".plugpack.yaml", "plugpack.yml", "plugpack.yaml"}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	if abs, err := filepath.Abs(filepath.Dir(path)); err == nil {
		cfg.Dir = abs
	}
	return cfg, nil
}

// LoadLocal searches for a project-local config file in dir.
func LoadLocal(dir string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range LocalNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// GlobalPath returns the global config file location, or "" when neither
// XDG_CONFIG_HOME nor a home directory is available.
func GlobalPath() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return ""
	}
	return filepath.Join(base, "plugpack", "config.yml")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	p := GlobalPath()
	if p == "" {
		return cfg, errors.New("no config dir")
	}
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// ResolvePath makes p absolute relative to the config file's directory.
// Absolute paths and configs without a directory are returned unchanged.
func (fc FileConfig) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || fc.Dir == "" {
		return p
	}
	return filepath.Join(fc.Dir, p)
}

// GetOptionsConfig returns the options configuration with defaults applied.
func (fc FileConfig) GetOptionsConfig() OptionsConfig {
	if fc.Options == nil {
		table := DefaultOptionsTable
		return OptionsConfig{Table: &table}
	}
	cfg := *fc.Options
	if cfg.Table == nil || *cfg.Table == "" {
		table := DefaultOptionsTable
		cfg.Table = &table
	}
	return cfg
}

// GetTable returns the configured table name.
func (oc OptionsConfig) GetTable() string {
	if oc.Table == nil || *oc.Table == "" {
		return DefaultOptionsTable
	}
	return *oc.Table
}
