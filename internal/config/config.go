// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package config loads the import job configuration: where the record store
// lives, which template to apply, and output preferences.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration for one import run.
type Config struct {
	// Default settings
	Defaults struct {
		Format   string `yaml:"format"`
		NoColor  bool   `yaml:"no_color"`
		Verbose  bool   `yaml:"verbose"`
		FirstRow int    `yaml:"first_row"`
	} `yaml:"defaults"`

	// Store settings
	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`

	// Template is the path of the column template to apply.
	Template string `yaml:"template"`

	// OutputFile receives the CSV error report; empty means stdout.
	OutputFile string `yaml:"output_file"`
}

// LoadConfig loads configuration from the specified file path. An empty
// path returns the defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}

	config.Defaults.Format = "text"
	config.Defaults.FirstRow = 2 // one header line
	config.Store.Path = "bordereau.db"

	if configPath == "" {
		return config, nil
	}

	cleanPath := filepath.Clean(configPath)
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if config.Defaults.FirstRow < 1 {
		config.Defaults.FirstRow = 2
	}
	return config, nil
}

// LoadConfigOrDefault loads the config file, falling back to defaults when
// the file is missing or malformed.
func LoadConfigOrDefault(configPath string) *Config {
	config, err := LoadConfig(configPath)
	if err != nil {
		config, _ = LoadConfig("")
	}
	return config
}
