package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultServerURL = "http://localhost:5000"
	defaultTimeout   = 30 * time.Second
)

// fileConfig holds the optional settings file for shelfctl.
type fileConfig struct {
	Server  string `toml:"server"`
	Timeout string `toml:"timeout"`
}

// clientDefaults are the resolved defaults for the persistent flags.
type clientDefaults struct {
	server  string
	timeout time.Duration
}

// resolveDefaults loads flag defaults from the settings file. A missing
// file is fine; a malformed one is reported on stderr and skipped so the
// CLI stays usable.
func resolveDefaults() clientDefaults {
	defaults := clientDefaults{
		server:  defaultServerURL,
		timeout: defaultTimeout,
	}

	path := configFilePath()
	if path == "" {
		return defaults
	}

	cfg, err := loadFileConfig(path)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: ignoring %s: %v\n", path, err)
		}
		return defaults
	}

	return applyFileConfig(defaults, cfg)
}

// configFilePath returns the settings file location, or "" when no user
// config directory is available.
func configFilePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "shelfctl", "config.toml")
}

// loadFileConfig reads and validates a single settings file.
func loadFileConfig(path string) (*fileConfig, error) {
	// Check if file exists
	if _, err := os.Stat(path); err != nil {
		return nil, err // os.IsNotExist can identify this
	}

	var cfg fileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}

	// Validate the timeout (fail-fast)
	if cfg.Timeout != "" {
		if _, err := time.ParseDuration(cfg.Timeout); err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", cfg.Timeout, err)
		}
	}

	return &cfg, nil
}

// applyFileConfig overlays file settings onto the built-in defaults.
func applyFileConfig(defaults clientDefaults, cfg *fileConfig) clientDefaults {
	if cfg.Server != "" {
		defaults.server = cfg.Server
	}
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil {
			defaults.timeout = d
		}
	}
	return defaults
}
