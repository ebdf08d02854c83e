// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package config loads the command line defaults from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mdhender/phylotree"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the commands. Flags given on the
// command line override values from the file.
type Config struct {
	// Index selects the tree of each file, -1 for the last.
	Index int `yaml:"index"`
	// Tag is the annotation key to combine or decode, e.g. "states".
	Tag string `yaml:"tag"`
	// Coding is one of standard, covarion or pdcovarion.
	Coding string `yaml:"coding"`
	// Burnin is the number of leading trees to skip when tracking clades.
	Burnin int `yaml:"burnin"`
	// Workers bounds the records parsed at the same time; 0 means one per CPU.
	Workers int `yaml:"workers"`
	// Database is the SQLite file used by parse --db.
	Database string `yaml:"database"`
	// Output is the default output path for combine.
	Output string `yaml:"output"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Index:  -1,
		Coding: phylotree.Standard.String(),
	}
}

// Load loads configuration from a YAML file. A missing file is not an
// error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error
	if _, err := phylotree.ParseCoding(c.Coding); err != nil {
		errs = append(errs, err)
	}
	if c.Burnin < 0 {
		errs = append(errs, fmt.Errorf("burnin %d: must not be negative", c.Burnin))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d: must not be negative", c.Workers))
	}
	return errors.Join(errs...)
}

// CodingValue returns the parsed coding. Call Validate first.
func (c *Config) CodingValue() phylotree.Coding {
	coding, _ := phylotree.ParseCoding(c.Coding)
	return coding
}
