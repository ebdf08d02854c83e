// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package phylotree

import (
	"context"
	"log/slog"
)

// Config holds the settings for one parse.
type Config struct {
	ctx    context.Context
	name   string
	logger *slog.Logger
}

type Option func(c *Config) error

// WithContext sets the context checked while scanning long inputs.
func WithContext(ctx context.Context) Option {
	return func(c *Config) error {
		c.ctx = ctx
		return nil
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) error {
		c.logger = logger
		return nil
	}
}

// WithSourceName sets the name used in error messages, usually the
// file name and tree index.
func WithSourceName(name string) Option {
	return func(c *Config) error {
		c.name = name
		return nil
	}
}

func newConfig(opts ...Option) (*Config, error) {
	c := &Config{ctx: context.Background()}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}
