// Shelfrank - Product Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfrank

// Package config provides application configuration for Shelfrank.
//
// Configuration is resolved in three layers, later layers overriding earlier
// ones: struct defaults, an optional YAML file, and SHELFRANK_* environment
// variables. The resolved configuration is validated before use.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for both the trainer and the server.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Data       DataConfig       `koanf:"data"`
	Models     ModelsConfig     `koanf:"models"`
	Similarity SimilarityConfig `koanf:"similarity"`
	SVD        SVDConfig        `koanf:"svd"`
	Limits     LimitsConfig     `koanf:"limits"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the listen address.
	Host string `koanf:"host"`

	// Port is the listen port.
	Port int `koanf:"port" validate:"min=1,max=65535"`

	// ReadTimeout bounds request header/body reads.
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds response writes.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimitPerMinute caps requests per client IP. Zero disables limiting.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute" validate:"min=0"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// DataConfig holds input artifact paths.
type DataConfig struct {
	// RatingsPath is the CSV rating table (user_id,item_id,rating).
	RatingsPath string `koanf:"ratings_path" validate:"required"`

	// CatalogPath is the CSV product catalog (item_id,title).
	CatalogPath string `koanf:"catalog_path" validate:"required"`
}

// ModelsConfig holds model artifact storage settings.
type ModelsConfig struct {
	// Dir is the directory holding serialized model artifacts.
	Dir string `koanf:"dir" validate:"required"`

	// KeepVersions is how many artifact versions to retain per model.
	KeepVersions int `koanf:"keep_versions" validate:"min=1"`
}

// SimilarityConfig holds item-neighborhood index build parameters.
type SimilarityConfig struct {
	// K is the number of neighbors retained per item.
	K int `koanf:"k" validate:"min=1"`

	// NumWorkers is the parallelism of the pairwise similarity computation.
	NumWorkers int `koanf:"num_workers" validate:"min=1"`
}

// SVDConfig holds latent factor model hyperparameters.
type SVDConfig struct {
	// Factors is the latent dimension F.
	Factors int `koanf:"factors" validate:"min=1"`

	// Epochs is the number of SGD passes over the training triples.
	Epochs int `koanf:"epochs" validate:"min=1"`

	// LearningRate is the SGD step size.
	LearningRate float64 `koanf:"learning_rate" validate:"gt=0"`

	// Regularization is the L2 strength applied to all learned parameters.
	Regularization float64 `koanf:"regularization" validate:"gte=0"`

	// TestFraction is the held-out evaluation share of observed ratings.
	TestFraction float64 `koanf:"test_fraction" validate:"gte=0,lt=1"`

	// Seed fixes the train/test split and epoch shuffles for reproducibility.
	Seed int64 `koanf:"seed"`

	// MinRating and MaxRating bound the rating scale; predictions clamp to it.
	MinRating float64 `koanf:"min_rating"`
	MaxRating float64 `koanf:"max_rating"`
}

// LimitsConfig holds serving-path limits.
type LimitsConfig struct {
	// DefaultN is the result count when a query does not specify one.
	DefaultN int `koanf:"default_n" validate:"min=1"`

	// MaxN caps the requested result count.
	MaxN int `koanf:"max_n" validate:"min=1"`

	// MaxCandidates caps the candidate set scanned per personalized query.
	MaxCandidates int `koanf:"max_candidates" validate:"min=1"`
}

// Default returns a Config with all default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               8080,
			ReadTimeout:        15 * time.Second,
			WriteTimeout:       30 * time.Second,
			ShutdownTimeout:    10 * time.Second,
			RateLimitPerMinute: 300,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Data: DataConfig{
			RatingsPath: "data/ratings.csv",
			CatalogPath: "data/products.csv",
		},
		Models: ModelsConfig{
			Dir:          "models",
			KeepVersions: 2,
		},
		Similarity: SimilarityConfig{
			K:          20,
			NumWorkers: 4,
		},
		SVD: SVDConfig{
			Factors:        100,
			Epochs:         20,
			LearningRate:   0.005,
			Regularization: 0.02,
			TestFraction:   0.2,
			Seed:           42,
			MinRating:      1,
			MaxRating:      5,
		},
		Limits: LimitsConfig{
			DefaultN:      5,
			MaxN:          50,
			MaxCandidates: 500,
		},
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	if c.SVD.MinRating >= c.SVD.MaxRating {
		return fmt.Errorf("svd.min_rating (%v) must be below svd.max_rating (%v)",
			c.SVD.MinRating, c.SVD.MaxRating)
	}
	if c.Limits.DefaultN > c.Limits.MaxN {
		return fmt.Errorf("limits.default_n (%d) exceeds limits.max_n (%d)",
			c.Limits.DefaultN, c.Limits.MaxN)
	}

	return nil
}
