// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	if cfg.Similarity.K != 20 {
		t.Errorf("Similarity.K = %d, want 20", cfg.Similarity.K)
	}
	if cfg.SVD.Factors != 100 {
		t.Errorf("SVD.Factors = %d, want 100", cfg.SVD.Factors)
	}
	if cfg.SVD.Epochs != 20 {
		t.Errorf("SVD.Epochs = %d, want 20", cfg.SVD.Epochs)
	}
	if cfg.SVD.LearningRate != 0.005 {
		t.Errorf("SVD.LearningRate = %v, want 0.005", cfg.SVD.LearningRate)
	}
	if cfg.SVD.Regularization != 0.02 {
		t.Errorf("SVD.Regularization = %v, want 0.02", cfg.SVD.Regularization)
	}
	if cfg.Limits.MaxCandidates != 500 {
		t.Errorf("Limits.MaxCandidates = %d, want 500", cfg.Limits.MaxCandidates)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"empty ratings path", func(c *Config) { c.Data.RatingsPath = "" }},
		{"zero k", func(c *Config) { c.Similarity.K = 0 }},
		{"zero factors", func(c *Config) { c.SVD.Factors = 0 }},
		{"negative learning rate", func(c *Config) { c.SVD.LearningRate = -1 }},
		{"test fraction one", func(c *Config) { c.SVD.TestFraction = 1 }},
		{"inverted rating scale", func(c *Config) { c.SVD.MinRating = 5; c.SVD.MaxRating = 1 }},
		{"default above max", func(c *Config) { c.Limits.DefaultN = 100; c.Limits.MaxN = 10 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
similarity:
  k: 10
svd:
  seed: 7
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Similarity.K != 10 {
		t.Errorf("Similarity.K = %d, want 10", cfg.Similarity.K)
	}
	if cfg.SVD.Seed != 7 {
		t.Errorf("SVD.Seed = %d, want 7", cfg.SVD.Seed)
	}
	// Untouched values keep their defaults.
	if cfg.SVD.Factors != 100 {
		t.Errorf("SVD.Factors = %d, want default 100", cfg.SVD.Factors)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SHELFRANK_SERVER_PORT", "7070")
	t.Setenv("SHELFRANK_SVD_FACTORS", "50")
	t.Setenv("SHELFRANK_UNRELATED", "ignored")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.SVD.Factors != 50 {
		t.Errorf("SVD.Factors = %d, want env override 50", cfg.SVD.Factors)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
