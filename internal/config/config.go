// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

// Package config loads the optional yabber.toml settings file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	// EnvPath names the environment variable that overrides the file location.
	EnvPath = "YABBER_CONFIG"
	// FileName is the settings file name looked up beside the executable
	// and in the user config directory.
	FileName = "yabber.toml"
)

// Config holds CLI settings.
type Config struct {
	Log    Log    `toml:"log"`
	Oodle  Oodle  `toml:"oodle"`
	Repack Repack `toml:"repack"`

	// Path is the file the settings were read from, empty for defaults.
	Path string `toml:"-"`
}

// Log configures the CLI logger.
type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
}

// Oodle configures native library lookup.
type Oodle struct {
	// Library overrides the platform runtime file name.
	Library string `toml:"library"`
	// SearchDirs are probed on the first attempt.
	SearchDirs []string `toml:"search_dirs"`
	// GameDirs are probed on the fallback attempt.
	GameDirs []string `toml:"game_dirs"`
}

// Repack configures container output.
type Repack struct {
	// Backup keeps the first original output as <output>.bak.
	Backup *bool `toml:"backup"`
}

// Default returns the settings used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills unset fields.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Repack.Backup == nil {
		backup := true
		c.Repack.Backup = &backup
	}
}

// BackupEnabled reports whether repack keeps the first original.
func (c *Config) BackupEnabled() bool {
	return c.Repack.Backup == nil || *c.Repack.Backup
}

// Load reads the first settings file found by Candidates. A missing file
// yields defaults.
func Load() (*Config, error) {
	for _, path := range Candidates() {
		cfg, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}

	return Default(), nil
}

// LoadFile parses one settings file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Path = path
	cfg.applyDefaults()

	return &cfg, nil
}

// Candidates returns settings file locations in lookup order. An explicit
// $YABBER_CONFIG path is the only candidate.
func Candidates() []string {
	if path := os.Getenv(EnvPath); path != "" {
		return []string{path}
	}

	var out []string
	if dir := executableDir(); dir != "" {
		out = append(out, filepath.Join(dir, FileName))
	}
	if dir, err := os.UserConfigDir(); err == nil {
		out = append(out, filepath.Join(dir, "yabber", FileName))
	}

	return out
}

// OodleSearchDirs returns the first-attempt directories with the executable
// directory and working directory appended.
func (c *Config) OodleSearchDirs() []string {
	out := append([]string(nil), c.Oodle.SearchDirs...)
	if dir := executableDir(); dir != "" {
		out = append(out, dir)
	}
	if dir, err := os.Getwd(); err == nil {
		out = append(out, dir)
	}

	return out
}

// executableDir returns the directory of the running binary.
func executableDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}

	return filepath.Dir(exe)
}
