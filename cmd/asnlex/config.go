// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// fileConfig holds defaults loaded with --config-file.
// Flags given on the command line win over the file.
type fileConfig struct {
	Strict   *bool  `yaml:"strict"`
	Database string `yaml:"database"`
	DataDir  string `yaml:"data-dir"`
	Workers  int    `yaml:"workers"`
	Debug    *bool  `yaml:"debug"`
	Verbose  *bool  `yaml:"verbose"`
}

func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("config: %s: workers must not be negative", path)
	}
	return &cfg, nil
}

// apply sets every flag of cmd that the file names and the user did not set.
func (cfg *fileConfig) apply(cmd *cobra.Command) error {
	values := map[string]string{}
	if cfg.Strict != nil {
		values["strict"] = strconv.FormatBool(*cfg.Strict)
	}
	if cfg.Database != "" {
		values["db"] = cfg.Database
	}
	if cfg.DataDir != "" {
		values["data-dir"] = cfg.DataDir
	}
	if cfg.Workers != 0 {
		values["workers"] = strconv.Itoa(cfg.Workers)
	}
	if cfg.Debug != nil {
		values["debug"] = strconv.FormatBool(*cfg.Debug)
	}
	if cfg.Verbose != nil {
		values["verbose"] = strconv.FormatBool(*cfg.Verbose)
	}

	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		value, ok := values[f.Name]
		if !ok || f.Changed || err != nil {
			return
		}
		if e := f.Value.Set(value); e != nil {
			err = fmt.Errorf("config: %s: %w", f.Name, e)
		}
	})
	return err
}
