// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides optional configuration loading for the
// backtree CLI.
//
// Configuration supplies flag defaults only. It is loaded from a
// single file specified by:
//   - BACKTREE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery, and no file at all
// is a valid state: flags carry the run. This keeps configuration
// deterministic and auditable with no hidden overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds CLI flag defaults.
type Config struct {
	// Copy selects copy materialization by default instead of
	// symlinking, as if --copy were passed.
	Copy bool `yaml:"copy"`

	// Workers is the default per-file worker count. Zero or one
	// runs sequentially.
	Workers int `yaml:"workers"`

	// PoolSize is the SQLite connection pool size for manifest
	// access. Zero uses the pool's own default.
	PoolSize int `yaml:"pool_size"`
}

// Default returns the built-in defaults: symlink materialization,
// sequential processing.
func Default() *Config {
	return &Config{}
}

// Load loads configuration from the BACKTREE_CONFIG environment
// variable. Unlike flags-required tools, an unset variable is not an
// error here: the built-in defaults apply.
func Load() (*Config, error) {
	path := os.Getenv("BACKTREE_CONFIG")
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path. The file is
// the single source of truth; environment variables do not override
// its values.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("pool_size must be non-negative, got %d", c.PoolSize)
	}
	return nil
}
