// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package asnlex

import (
	"fmt"
	"log/slog"
)

// Config holds the lexer settings. It is built from Options.
type Config struct {
	name    string
	logger  *slog.Logger
	profile Profile
}

type Option func(c *Config) error

// WithName overrides the name used in diagnostics and log records.
func WithName(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return fmt.Errorf("name: empty")
		}
		c.name = name
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

// WithASCIIIdentifiers restricts identifiers to ASCII when flag is true.
func WithASCIIIdentifiers(flag bool) Option {
	return func(c *Config) error {
		if flag {
			c.profile = ASCIIProfile
		} else {
			c.profile = UnicodeProfile
		}
		return nil
	}
}
