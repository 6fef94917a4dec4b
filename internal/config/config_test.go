// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig(\"\"): %v", err)
	}
	if cfg.Defaults.Format != "text" {
		t.Errorf("default format = %q, want text", cfg.Defaults.Format)
	}
	if cfg.Defaults.FirstRow != 2 {
		t.Errorf("default first row = %d, want 2", cfg.Defaults.FirstRow)
	}
	if cfg.Store.Path != "bordereau.db" {
		t.Errorf("default store path = %q, want bordereau.db", cfg.Store.Path)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
defaults:
  format: csv
  no_color: true
  first_row: 3
store:
  path: /tmp/import.db
template: templates/motor.yaml
output_file: errors.csv
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Defaults.Format != "csv" {
		t.Errorf("format = %q, want csv", cfg.Defaults.Format)
	}
	if !cfg.Defaults.NoColor {
		t.Error("no_color should be true")
	}
	if cfg.Defaults.FirstRow != 3 {
		t.Errorf("first row = %d, want 3", cfg.Defaults.FirstRow)
	}
	if cfg.Store.Path != "/tmp/import.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
	if cfg.Template != "templates/motor.yaml" {
		t.Errorf("template = %q", cfg.Template)
	}
	if cfg.OutputFile != "errors.csv" {
		t.Errorf("output file = %q", cfg.OutputFile)
	}
}

func TestLoadConfigInvalidFirstRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("defaults:\n  first_row: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Defaults.FirstRow != 2 {
		t.Errorf("first row = %d, want clamped default 2", cfg.Defaults.FirstRow)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadConfigOrDefaultFallsBack(t *testing.T) {
	cfg := LoadConfigOrDefault("/nonexistent/config.yaml")
	if cfg == nil {
		t.Fatal("expected a config")
	}
	if cfg.Defaults.Format != "text" {
		t.Errorf("fallback format = %q, want text", cfg.Defaults.Format)
	}
}
